package controllers

import (
	"context"
	"net/http"

	"github.com/urbanpizzeria/pos-backend/api/responses"
	"github.com/urbanpizzeria/pos-backend/pkg/config"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

// Pinger is any backing client the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-POS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, padP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-POS-Env", cfg.App.Env)

		checks := map[string]Pinger{
			"db":         dbP,
			"scratchpad": padP,
		}
		for name, pinger := range checks {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeInternal, err, name+" not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
