package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/telemetry"
)

var version = "dev"

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    cfg.OTELServiceName,
		ServiceVersion: version,
		Environment:    string(cfg.Environment),
		Endpoint:       cfg.OTELEndpoint,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			// Logout revocation and rate limiting are switched off without Redis.
			logging.Warn().Err(err).Msg("redis unavailable, continuing without it")
			redisClient = nil
		}
	}

	var images service.ImageStore
	if cfg.S3BucketName != "" {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to configure S3")
		}
		images = service.NewS3ImageStore(s3cfg)
	}

	srv := server.New(cfg, router.SetupRouter(router.Dependencies{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Images: images,
	}))

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logging.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("tracer shutdown error")
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := database.Close(db); err != nil {
		logging.Error().Err(err).Msg("database close error")
	}
	logging.Info().Msg("server stopped")
}
