package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/heritageheaven/storefront-backend/api/responses"
	"github.com/heritageheaven/storefront-backend/api/validators"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

const (
	maxResourceLen   = 64
	maxQueryValueLen = 128
	maxListLimit     = 200
)

// CatalogLister lists a commerce API resource.
type CatalogLister interface {
	List(ctx context.Context, resource string, query url.Values) (json.RawMessage, error)
}

// CatalogList proxies product and category listings from the commerce API.
func CatalogList(lister CatalogLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		resource := validators.SanitizeString(chi.URLParam(r, "resource"), maxResourceLen)
		if resource == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "resource is required"))
			return
		}

		if _, _, err := validators.QueryInt(r.URL.Query(), "limit", 0, maxListLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := validators.ForwardQuery(r.URL.Query(), maxQueryValueLen, "currency")

		body, err := lister.List(r.Context(), resource, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, body)
	}
}
