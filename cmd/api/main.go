package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nmoreau/storesync-backend/api/routes"
	"github.com/nmoreau/storesync-backend/internal/activity"
	"github.com/nmoreau/storesync-backend/internal/bulk"
	"github.com/nmoreau/storesync-backend/internal/catalog"
	"github.com/nmoreau/storesync-backend/internal/events"
	"github.com/nmoreau/storesync-backend/internal/mapping"
	"github.com/nmoreau/storesync-backend/internal/media"
	"github.com/nmoreau/storesync-backend/internal/replicate"
	"github.com/nmoreau/storesync-backend/internal/taxonomy"
	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/config"
	"github.com/nmoreau/storesync-backend/pkg/db"
	"github.com/nmoreau/storesync-backend/pkg/logger"
	"github.com/nmoreau/storesync-backend/pkg/metrics"
	"github.com/nmoreau/storesync-backend/pkg/migrate"
	"github.com/nmoreau/storesync-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	replicationMetrics := metrics.NewReplicationMetrics(prometheus.DefaultRegisterer)

	switcher, err := tenancy.NewSwitcher(logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant switcher", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	linkRepo := replicate.NewRepository(dbClient.DB())

	files := media.NewOSFiles()
	mediaService, err := media.NewService(
		media.NewRepository(dbClient.DB()),
		catalogRepo,
		files,
		media.NewCopyVariantGenerator(cfg.Media.UploadsRoot, files),
		switcher,
		cfg.Media.UploadsRoot,
		logg,
		replicationMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	translator, err := taxonomy.NewTranslator(taxonomy.NewRepository(dbClient.DB()), switcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create taxonomy translator", err)
		os.Exit(1)
	}

	bus := events.NewBus()

	engine, err := replicate.NewEngine(
		catalogRepo,
		mediaService,
		translator,
		linkRepo,
		switcher,
		bus,
		logg,
		replicationMetrics,
		cfg.Sync.SourceTenantID,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create replication engine", err)
		os.Exit(1)
	}

	bulkService, err := bulk.NewService(
		redisClient,
		engine,
		linkRepo,
		logg,
		replicationMetrics,
		cfg.Sync.SourceTenantID,
		cfg.Sync.BulkStateTTL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create bulk service", err)
		os.Exit(1)
	}

	activityService, err := activity.NewRecorder(
		activity.NewRepository(dbClient.DB()),
		cfg.Sync.ActivityCap,
		logg,
		bus,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create activity recorder", err)
		os.Exit(1)
	}

	mappingService, err := mapping.NewService(catalogRepo, linkRepo, switcher, logg, cfg.Sync.SourceTenantID)
	if err != nil {
		logg.Error(context.Background(), "failed to create mapping service", err)
		os.Exit(1)
	}

	tenantService, err := tenancy.NewService(tenancy.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"source_tenant": cfg.Sync.SourceTenantID,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			engine,
			linkRepo,
			bulkService,
			activityService,
			mappingService,
			tenantService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
