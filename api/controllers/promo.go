package controllers

import (
	"net/http"

	"github.com/urbanpizzeria/pos-backend/api/responses"
	"github.com/urbanpizzeria/pos-backend/api/validators"
	"github.com/urbanpizzeria/pos-backend/internal/promo"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

type promoToggleRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func promoView(engine *promo.Engine) map[string]any {
	return map[string]any{
		"active":   engine.Active(),
		"eligible": engine.Eligible(),
	}
}

// PromoStatus reports whether the offer is applied and whether today
// qualifies.
func PromoStatus(engine *promo.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, promoView(engine))
	}
}

// PromoToggle switches the offer on or off. Enabling on a non-qualifying
// day is rejected; disabling always succeeds.
func PromoToggle(engine *promo.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload promoToggleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.SetActive(*payload.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promoView(engine))
	}
}
