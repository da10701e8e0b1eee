package controllers

import (
	"net/http"

	"github.com/urbanpizzeria/pos-backend/api/responses"
	"github.com/urbanpizzeria/pos-backend/api/validators"
	"github.com/urbanpizzeria/pos-backend/internal/cart"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

type cartAddRequest struct {
	Name       string             `json:"name" validate:"required"`
	Price      int                `json:"price" validate:"min=0"`
	Selections []cartSelectionDTO `json:"selections" validate:"omitempty,dive"`
}

type cartSelectionDTO struct {
	Size     string `json:"size" validate:"required"`
	Price    int    `json:"price" validate:"min=0"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type cartQuantityRequest struct {
	Name  string `json:"name" validate:"required"`
	Price int    `json:"price" validate:"min=0"`
	Delta int    `json:"delta" validate:"required"`
}

type varietyDraftRequest struct {
	Selections []cartSelectionDTO `json:"selections" validate:"required,min=1,dive"`
}

func cartView(lines []cart.Line) map[string]any {
	return map[string]any{
		"lines": lines,
		"total": cart.Total(lines),
	}
}

// CartFetch returns the active draft with its running total.
func CartFetch(agg *cart.Aggregator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, cartView(agg.Snapshot()))
	}
}

// CartAddItem merges a product, with optional size selections, into the
// draft.
func CartAddItem(agg *cart.Aggregator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selections := make([]cart.Selection, len(payload.Selections))
		for i, sel := range payload.Selections {
			selections[i] = cart.Selection{Size: sel.Size, Price: sel.Price, Quantity: sel.Quantity}
		}

		lines, err := agg.AddLine(r.Context(), cart.ProductRef{Name: payload.Name, Price: payload.Price}, selections)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartView(lines))
	}
}

// CartChangeQuantity applies a signed delta to one paid line. Reaching zero
// removes the line.
func CartChangeQuantity(agg *cart.Aggregator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := agg.ChangeQuantity(r.Context(), payload.Name, payload.Price, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartView(lines))
	}
}

// CartClear empties the draft.
func CartClear(agg *cart.Aggregator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agg.Clear(r.Context())
		responses.WriteSuccess(w, cartView(nil))
	}
}

// CartStageVarietyDraft parks size selections while staff pick quantities.
func CartStageVarietyDraft(agg *cart.Aggregator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload varietyDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selections := make([]cart.Selection, len(payload.Selections))
		for i, sel := range payload.Selections {
			selections[i] = cart.Selection{Size: sel.Size, Price: sel.Price, Quantity: sel.Quantity}
		}
		if err := agg.StageVarietyDraft(r.Context(), selections); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"selections": payload.Selections})
	}
}

// CartFetchVarietyDraft returns the parked size selections, if any.
func CartFetchVarietyDraft(agg *cart.Aggregator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		selections, err := agg.VarietyDraft(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"selections": selections})
	}
}

// CartClearVarietyDraft discards the parked selections.
func CartClearVarietyDraft(agg *cart.Aggregator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := agg.ClearVarietyDraft(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"selections": nil})
	}
}
