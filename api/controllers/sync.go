package controllers

import (
	"net/http"

	"github.com/nmoreau/storesync-backend/api/responses"
	"github.com/nmoreau/storesync-backend/api/validators"
	"github.com/nmoreau/storesync-backend/internal/replicate"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
)

type syncRequest struct {
	TargetTenantID int64 `json:"target_tenant_id" validate:"required,gt=0"`
}

// SyncCopyProduct replicates a source product into the requested tenant.
func SyncCopyProduct(engine replicate.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "replication engine unavailable"))
			return
		}

		productID, err := validators.ParsePathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload syncRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		targetID, err := engine.Create(r.Context(), productID, payload.TargetTenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int64{
			"target_product_id": targetID,
		})
	}
}

// SyncUpdateProduct pushes the source product's current state to an existing replica.
func SyncUpdateProduct(engine replicate.Engine, links replicate.LinkRepository, sourceTenantID int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil || links == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "replication engine unavailable"))
			return
		}

		productID, err := validators.ParsePathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload syncRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := links.GetLink(r.Context(), sourceTenantID, productID, payload.TargetTenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if link == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product is not linked to target tenant"))
			return
		}

		if err := engine.Update(r.Context(), productID, payload.TargetTenantID, link.TargetProductID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{
			"target_product_id": link.TargetProductID,
		})
	}
}
