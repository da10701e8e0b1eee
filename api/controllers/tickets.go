package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/urbanpizzeria/pos-backend/api/responses"
	"github.com/urbanpizzeria/pos-backend/api/validators"
	"github.com/urbanpizzeria/pos-backend/internal/cart"
	"github.com/urbanpizzeria/pos-backend/internal/tickets"
	"github.com/urbanpizzeria/pos-backend/pkg/enums"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

const maxQueuePosition = 10000

// kotLayout is the fixed print layout for a kitchen order ticket: header
// plus itemized name/quantity rows, no prices or totals.
type kotLayout struct {
	Title     string   `json:"title"`
	OrderType string   `json:"orderType"`
	Date      string   `json:"date"`
	Rows      []kotRow `json:"rows"`
}

type kotRow struct {
	Name     string `json:"name"`
	Size     string `json:"size,omitempty"`
	Quantity int    `json:"quantity"`
}

type ticketView struct {
	Position  int         `json:"position"`
	ID        string      `json:"id"`
	Date      string      `json:"date"`
	Items     []cart.Line `json:"items"`
	Remaining string      `json:"remaining"`
}

func newKOTLayout(ticket tickets.Ticket) kotLayout {
	layout := kotLayout{
		Title:     "KOT",
		OrderType: ticket.OrderType.String(),
		Date:      ticket.Date,
	}
	for _, item := range ticket.Items {
		layout.Rows = append(layout.Rows, kotRow{
			Name:     item.Name,
			Size:     item.Size,
			Quantity: item.Quantity,
		})
	}
	return layout
}

func orderTypeParam(r *http.Request) (enums.OrderType, error) {
	return validators.ParseOrderTypeParam(chi.URLParam(r, "orderType"))
}

// TicketsList returns one queue, most recent first, with live countdowns.
func TicketsList(store *tickets.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderType, err := orderTypeParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		queue := store.List(orderType)
		now := time.Now()
		views := make([]ticketView, 0, len(queue))
		for i := len(queue) - 1; i >= 0; i-- {
			ticket := queue[i]
			views = append(views, ticketView{
				Position:  i,
				ID:        ticket.ID.String(),
				Date:      ticket.Date,
				Items:     ticket.Items,
				Remaining: tickets.FormatRemaining(ticket.Remaining(now, store.Expiry())),
			})
		}
		responses.WriteSuccess(w, map[string]any{
			"orderType": orderType.String(),
			"tickets":   views,
		})
	}
}

// TicketsPrint snapshots the draft into a new kitchen ticket and returns
// the print layout.
func TicketsPrint(store *tickets.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderType, err := orderTypeParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := store.Print(r.Context(), orderType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"ticket": ticket,
			"kot":    newKOTLayout(ticket),
		})
	}
}

// TicketsDelete removes the ticket at the given queue position.
func TicketsDelete(store *tickets.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderType, err := orderTypeParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		position, err := validators.ParseQueryInt(r, "position", -1, 0, maxQueuePosition)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.Delete(r.Context(), orderType, position); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": position})
	}
}

// TicketsEdit pops a ticket back into the draft cart.
func TicketsEdit(store *tickets.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderType, err := orderTypeParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		position, err := validators.ParseQueryInt(r, "position", -1, 0, maxQueuePosition)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := store.Edit(r.Context(), orderType, position)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartView(lines))
	}
}

// TicketsInvoice stages a ticket for the order-finalization flow.
func TicketsInvoice(store *tickets.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderType, err := orderTypeParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		position, err := validators.ParseQueryInt(r, "position", -1, 0, maxQueuePosition)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ticket, err := store.Invoice(r.Context(), orderType, position)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"ticket": ticket})
	}
}
