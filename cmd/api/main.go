package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roomscout/roomscout-backend/api/routes"
	"github.com/roomscout/roomscout-backend/internal/details"
	"github.com/roomscout/roomscout-backend/internal/listings"
	"github.com/roomscout/roomscout-backend/internal/notifications"
	"github.com/roomscout/roomscout-backend/internal/submissions"
	"github.com/roomscout/roomscout-backend/internal/uploads"
	"github.com/roomscout/roomscout-backend/internal/users"
	"github.com/roomscout/roomscout-backend/pkg/config"
	"github.com/roomscout/roomscout-backend/pkg/db"
	"github.com/roomscout/roomscout-backend/pkg/logger"
	"github.com/roomscout/roomscout-backend/pkg/metrics"
	"github.com/roomscout/roomscout-backend/pkg/migrate"
	"github.com/roomscout/roomscout-backend/pkg/outbox"
	"github.com/roomscout/roomscout-backend/pkg/redis"
	"github.com/roomscout/roomscout-backend/pkg/storage/gcs"
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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	submissionMetrics := metrics.NewSubmissionMetrics(promRegistry)

	gormDB := dbClient.DB()
	detailRegistry, err := details.NewRegistry(
		details.NewRentalStore(gormDB),
		details.NewMessStore(gormDB),
		details.NewHostelStore(gormDB),
		details.NewCoachingStore(gormDB),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build detail registry", err)
		os.Exit(1)
	}

	uploadCoordinator, err := uploads.NewCoordinator(
		gcsClient,
		cfg.GCS.BucketName,
		cfg.Media.BatchUploadTimeout,
		cfg.Media.MaxFilesPerListing,
		cfg.Media.MaxUploadBytes(),
		submissionMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build upload coordinator", err)
		os.Exit(1)
	}

	listingRepo := listings.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	notificationService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to build notification service", err)
		os.Exit(1)
	}

	sideEffects := submissions.NewSideEffects(
		users.NewRepository(gormDB),
		notificationService,
		0,
		logg,
	)

	submissionCoordinator, err := submissions.NewCoordinator(
		uploadCoordinator,
		detailRegistry,
		listingRepo,
		dbClient,
		outboxService,
		sideEffects,
		submissionMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build submission coordinator", err)
		os.Exit(1)
	}

	listingService := listings.NewService(listingRepo, detailRegistry)
	reviewService := listings.NewReviewService(dbClient, listingRepo, outboxService, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			GCS:           gcsClient,
			Metrics:       promRegistry,
			Submissions:   submissionCoordinator,
			Listings:      listingService,
			Review:        reviewService,
			Notifications: notificationService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
