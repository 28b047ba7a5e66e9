package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreau/storesync-backend/api/responses"
	"github.com/nmoreau/storesync-backend/api/validators"
	"github.com/nmoreau/storesync-backend/internal/bulk"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
)

type bulkStartRequest struct {
	Kind       string  `json:"kind" validate:"required"`
	ProductIDs []int64 `json:"product_ids" validate:"required,min=1,dive,gt=0"`
}

type bulkRunRequest struct {
	TargetTenantIDs []int64 `json:"target_tenant_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

// BulkStart registers a new batched copy or update operation.
func BulkStart(svc bulk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bulk service unavailable"))
			return
		}

		var payload bulkStartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseBulkKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bulk kind"))
			return
		}

		operationID, err := svc.Start(r.Context(), kind, payload.ProductIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{
			"operation_id": operationID,
		})
	}
}

// BulkRun processes the next batch of a pending operation.
func BulkRun(svc bulk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bulk service unavailable"))
			return
		}

		operationID := chi.URLParam(r, "operationId")
		if operationID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "operation id is required"))
			return
		}

		var payload bulkRunRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		op, err := svc.RunBatch(r.Context(), operationID, payload.TargetTenantIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, op)
	}
}

// BulkStatus returns the current progress snapshot of an operation.
func BulkStatus(svc bulk.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bulk service unavailable"))
			return
		}

		operationID := chi.URLParam(r, "operationId")
		if operationID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "operation id is required"))
			return
		}

		op, err := svc.Status(r.Context(), operationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, op)
	}
}
