package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/urbanpizzeria/pos-backend/api/responses"
	"github.com/urbanpizzeria/pos-backend/api/validators"
	"github.com/urbanpizzeria/pos-backend/internal/orders"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
	"github.com/urbanpizzeria/pos-backend/pkg/remote"
)

type orderLineDTO struct {
	Name          string `json:"name" validate:"required"`
	Size          string `json:"size"`
	Price         int    `json:"price" validate:"min=0"`
	Quantity      int    `json:"quantity" validate:"min=1"`
	IsFree        bool   `json:"isFree"`
	OriginalPrice int    `json:"originalPrice" validate:"min=0"`
}

type orderPlaceRequest struct {
	Products    []orderLineDTO  `json:"products" validate:"required,min=1,dive"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Delivery    int             `json:"delivery" validate:"min=0"`
	Discount    int             `json:"discount" validate:"min=0"`
	Phone       *string         `json:"phone"`
	Timestamp   time.Time       `json:"timestamp"`
}

// OrdersList returns the order history, remote first with queue fallback.
// The `day` query (2006-01-02) narrows to one calendar day.
func OrdersList(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.List(r.Context(), r.URL.Query().Get("day"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrdersPlace submits a finalized invoice, queueing it locally when the
// remote store is unreachable.
func OrdersPlace(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderPlaceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]remote.OrderLine, len(payload.Products))
		for i, line := range payload.Products {
			lines[i] = remote.OrderLine{
				Name:          line.Name,
				Size:          line.Size,
				Price:         line.Price,
				Quantity:      line.Quantity,
				IsFree:        line.IsFree,
				OriginalPrice: line.OriginalPrice,
			}
		}

		placed, queued, err := svc.Place(r.Context(), remote.Order{
			Products:    lines,
			TotalAmount: payload.TotalAmount,
			Delivery:    payload.Delivery,
			Discount:    payload.Discount,
			Phone:       payload.Phone,
			Timestamp:   payload.Timestamp,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":  placed,
			"queued": queued,
		})
	}
}

// OrdersRemove deletes one order, remote store first.
func OrdersRemove(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		if err := svc.Remove(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"removed": id})
	}
}

// OrdersSync drains the offline queue to the remote store.
func OrdersSync(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.SyncOffline(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
