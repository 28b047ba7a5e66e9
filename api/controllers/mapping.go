package controllers

import (
	"net/http"
	"strconv"

	"github.com/nmoreau/storesync-backend/api/responses"
	"github.com/nmoreau/storesync-backend/api/validators"
	"github.com/nmoreau/storesync-backend/internal/mapping"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
)

// MappingOverview returns the paged per-product replication mapping.
func MappingOverview(svc mapping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overview, err := svc.Overview(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, overview)
	}
}

// MappingStatus returns a single product's replication targets and staleness.
func MappingStatus(svc mapping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}

		productID, err := validators.ParsePathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.CheckStatus(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, row)
	}
}

// MappingExport streams the full mapping as a CSV download.
func MappingExport(svc mapping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}

		payload, err := svc.Export(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="product-mapping.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(payload); err != nil && logg != nil {
			logg.Error(r.Context(), "mapping export write failed", err)
		}
	}
}
