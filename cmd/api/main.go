package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wallhub/internal/cache"
	"wallhub/internal/config"
	"wallhub/internal/database"
	"wallhub/internal/handlers"
	"wallhub/internal/jobs"
	"wallhub/internal/log"
	"wallhub/internal/queue"
	"wallhub/internal/repository"
	"wallhub/internal/server"
	"wallhub/internal/service"
	"wallhub/internal/storage"
	"wallhub/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel, "api")

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, dbPool); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	wallpapers := repository.NewWallpaperRepository(dbPool)
	users := repository.NewUserRepository(dbPool)
	taskQueue := tasks.NewQueue(queue.NewPublisher(redisClient, cfg.Worker.Stream))

	// Left as a nil interface when caching is off.
	var listingCache service.PageCache
	if cfg.Cache.Enabled {
		listingCache = cache.NewListingCache(redisClient, "wallhub:listing", cfg.Cache.ListTTL)
	}

	var downloadSigner service.AttachmentSigner
	if cfg.Storage.DownloadLinkTTL > 0 {
		downloadSigner = objectStore
	}

	moderation := service.NewModerationService(wallpapers, objectStore, taskQueue, listingCache, logger)
	services := handlers.Services{
		Aggregate:  service.NewAggregationService(wallpapers, listingCache, logger),
		Engagement: service.NewEngagementService(wallpapers, downloadSigner, logger),
		Moderation: moderation,
		Upload:     service.NewUploadService(objectStore, moderation, cfg.HTTP.MaxUploadBytes, logger),
		Auth:       service.NewAuthService(users, cfg.Security, cfg.Admin, logger),
	}
	checks := map[string]handlers.HealthCheck{
		"postgres": dbPool.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		"storage":  objectStore.Ping,
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, services, checks)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(taskQueue, cfg.Jobs.ReconcileSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
