package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nmoreau/storesync-backend/api/controllers"
	"github.com/nmoreau/storesync-backend/api/middleware"
	"github.com/nmoreau/storesync-backend/internal/activity"
	"github.com/nmoreau/storesync-backend/internal/bulk"
	"github.com/nmoreau/storesync-backend/internal/mapping"
	"github.com/nmoreau/storesync-backend/internal/replicate"
	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/config"
	"github.com/nmoreau/storesync-backend/pkg/db"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	"github.com/nmoreau/storesync-backend/pkg/logger"
	"github.com/nmoreau/storesync-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	engine replicate.Engine,
	links replicate.LinkRepository,
	bulkService bulk.Service,
	activityService activity.Service,
	mappingService mapping.Service,
	tenantService tenancy.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleCatalogEditor, enums.ActorRoleNetworkAdmin))

			r.Route("/sync/products/{productId}", func(r chi.Router) {
				r.Post("/copy", controllers.SyncCopyProduct(engine, logg))
				r.Post("/update", controllers.SyncUpdateProduct(engine, links, cfg.Sync.SourceTenantID, logg))
			})

			r.Route("/bulk", func(r chi.Router) {
				r.Post("/", controllers.BulkStart(bulkService, logg))
				r.Post("/{operationId}/run", controllers.BulkRun(bulkService, logg))
				r.Get("/{operationId}", controllers.BulkStatus(bulkService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleNetworkAdmin))

			r.Route("/activity", func(r chi.Router) {
				r.Get("/", controllers.ActivityList(activityService, logg))
				r.Get("/summary", controllers.ActivitySummary(activityService, logg))
			})

			r.Route("/mapping", func(r chi.Router) {
				r.Get("/", controllers.MappingOverview(mappingService, logg))
				r.Get("/export", controllers.MappingExport(mappingService, logg))
				r.Get("/{productId}", controllers.MappingStatus(mappingService, logg))
			})

			r.Get("/tenants", controllers.TenantList(tenantService, logg))
		})
	})

	return r
}
