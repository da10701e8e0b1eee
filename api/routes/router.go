package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/urbanpizzeria/pos-backend/api/controllers"
	"github.com/urbanpizzeria/pos-backend/api/middleware"
	"github.com/urbanpizzeria/pos-backend/internal/cart"
	"github.com/urbanpizzeria/pos-backend/internal/catalog"
	"github.com/urbanpizzeria/pos-backend/internal/orders"
	"github.com/urbanpizzeria/pos-backend/internal/promo"
	"github.com/urbanpizzeria/pos-backend/internal/tickets"
	"github.com/urbanpizzeria/pos-backend/pkg/config"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	padP controllers.Pinger,
	catalogService *catalog.Service,
	cartAggregator *cart.Aggregator,
	promoEngine *promo.Engine,
	ticketStore *tickets.Store,
	orderService *orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, padP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(catalogService, logg))
			r.Post("/refresh", controllers.CatalogRefresh(catalogService, logg))
			r.Delete("/products/{name}", controllers.CatalogRemoveProduct(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartAggregator, logg))
			r.Delete("/", controllers.CartClear(cartAggregator, logg))
			r.Post("/items", controllers.CartAddItem(cartAggregator, logg))
			r.Patch("/items", controllers.CartChangeQuantity(cartAggregator, logg))
			r.Route("/variety-draft", func(r chi.Router) {
				r.Get("/", controllers.CartFetchVarietyDraft(cartAggregator, logg))
				r.Post("/", controllers.CartStageVarietyDraft(cartAggregator, logg))
				r.Delete("/", controllers.CartClearVarietyDraft(cartAggregator, logg))
			})
		})

		r.Route("/promo", func(r chi.Router) {
			r.Get("/", controllers.PromoStatus(promoEngine, logg))
			r.Put("/", controllers.PromoToggle(promoEngine, logg))
		})

		r.Route("/tickets/{orderType}", func(r chi.Router) {
			r.Get("/", controllers.TicketsList(ticketStore, logg))
			r.Post("/", controllers.TicketsPrint(ticketStore, logg))
			r.Delete("/", controllers.TicketsDelete(ticketStore, logg))
			r.Post("/edit", controllers.TicketsEdit(ticketStore, logg))
			r.Post("/invoice", controllers.TicketsInvoice(ticketStore, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(orderService, logg))
			r.Post("/", controllers.OrdersPlace(orderService, logg))
			r.Post("/sync", controllers.OrdersSync(orderService, logg))
			r.Delete("/{id}", controllers.OrdersRemove(orderService, logg))
		})
	})

	return r
}
