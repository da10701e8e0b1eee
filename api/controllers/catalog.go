package controllers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/urbanpizzeria/pos-backend/api/responses"
	"github.com/urbanpizzeria/pos-backend/internal/catalog"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
)

// CatalogList returns the published catalog grouped by category. The `q`
// query filters by product name.
func CatalogList(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups := svc.List(r.URL.Query().Get("q"))
		responses.WriteSuccess(w, map[string]any{
			"loaded":     svc.Loaded(),
			"categories": groups,
		})
	}
}

// CatalogRemoveProduct deletes a product, remote store first.
func CatalogRemoveProduct(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(chi.URLParam(r, "name"))
		if err != nil || name == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "product name is required"))
			return
		}

		if err := svc.RemoveProduct(r.Context(), name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"removed": name})
	}
}

// CatalogRefresh forces a remote reload, superseding the cached snapshot.
func CatalogRefresh(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.Refresh(r.Context())
		responses.WriteSuccess(w, map[string]bool{"loaded": svc.Loaded()})
	}
}
