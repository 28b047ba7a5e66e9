package controllers

import (
	"net/http"
	"strings"

	"github.com/nmoreau/storesync-backend/api/responses"
	"github.com/nmoreau/storesync-backend/api/validators"
	"github.com/nmoreau/storesync-backend/internal/activity"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
)

// ActivityList returns the filtered audit trail, newest first.
func ActivityList(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		filters, err := activityFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, total, err := svc.Query(r.Context(), filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"records": records,
			"total":   total,
		})
	}
}

// ActivitySummary returns per-day counts plus the most recent entries.
func ActivitySummary(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		days, err := validators.ParseQueryInt(r, "days", 0, 1, 90)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

func activityFilters(r *http.Request) (activity.Filters, error) {
	var filters activity.Filters

	if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
		action, err := enums.ParseActivityAction(raw)
		if err != nil {
			return activity.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action filter")
		}
		filters.Action = action
	}

	actorID, err := validators.ParseQueryInt64(r, "actor_id")
	if err != nil {
		return activity.Filters{}, err
	}
	filters.ActorID = actorID

	sourceTenantID, err := validators.ParseQueryInt64(r, "source_tenant_id")
	if err != nil {
		return activity.Filters{}, err
	}
	filters.SourceTenantID = sourceTenantID

	targetTenantID, err := validators.ParseQueryInt64(r, "target_tenant_id")
	if err != nil {
		return activity.Filters{}, err
	}
	filters.TargetTenantID = targetTenantID

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return activity.Filters{}, err
	}
	filters.From = from

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return activity.Filters{}, err
	}
	filters.To = to

	return filters, nil
}
