// Package app wires the dashboard service together: configuration, database,
// cache, object store, event producer, HTTP router, and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yogeshdgrg/BR-Dashboard/internal/auth"
	"github.com/yogeshdgrg/BR-Dashboard/internal/cache"
	"github.com/yogeshdgrg/BR-Dashboard/internal/config"
	"github.com/yogeshdgrg/BR-Dashboard/internal/event"
	httphandler "github.com/yogeshdgrg/BR-Dashboard/internal/handler/http"
	"github.com/yogeshdgrg/BR-Dashboard/internal/repository/postgres"
	"github.com/yogeshdgrg/BR-Dashboard/internal/service"
	"github.com/yogeshdgrg/BR-Dashboard/internal/storage"
	"github.com/yogeshdgrg/BR-Dashboard/internal/storage/cloudinary"
	"github.com/yogeshdgrg/BR-Dashboard/internal/storage/memory"
	"github.com/yogeshdgrg/BR-Dashboard/migrations"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/database"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/health"
	pkgkafka "github.com/yogeshdgrg/BR-Dashboard/pkg/kafka"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/logger"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/middleware"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/tracing"
)

// Run starts the service and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.ServiceName, cfg.Log.Level)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting service",
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.HTTP.Port),
	)

	// Tracing
	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Error("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}()

	// Database
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres.Pool(), log)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Cache (optional)
	var productCache service.ProductCache
	if cfg.Redis.Enabled {
		redisClient, err := database.NewRedisClient(ctx, cfg.Redis.Client())
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()

		productCache = cache.NewProductCache(redisClient, cfg.Redis.CacheTTL, log)
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// Event producer (optional)
	var publisher event.Publisher
	if cfg.Kafka.Enabled {
		kafkaProducer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.Kafka.Brokers), log)
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				log.Error("kafka producer close failed", slog.String("error", err.Error()))
			}
		}()

		publisher = event.NewProducer(kafkaProducer, log)
		healthHandler.Register("kafka", kafkaProducer.Ping)
	}

	// Object store
	var store storage.Storage
	if cfg.Storage.CloudinaryURL != "" {
		store, err = cloudinary.New(cfg.Storage.CloudinaryURL, cfg.Storage.UploadFolder)
		if err != nil {
			return fmt.Errorf("init cloudinary: %w", err)
		}
	} else {
		if cfg.Environment != "development" {
			return errors.New("CLOUDINARY_URL is required outside development")
		}
		log.Warn("no CLOUDINARY_URL configured, using in-memory object store")
		store = memory.New(fmt.Sprintf("http://localhost:%d", cfg.HTTP.Port))
	}
	store = storage.NewBreakerStorage(store, storage.DefaultBreakerConfig("object-store"), log)
	healthHandler.Register("object_store", store.Ping)

	// Repositories and services
	productRepo := postgres.NewProductRepository(pool)
	bannerRepo := postgres.NewBannerRepository(pool)
	adminRepo := postgres.NewAdminRepository(pool)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)

	productService := service.NewProductService(productRepo, store, productCache, publisher, log, cfg.Storage.UploadStrict)
	bannerService := service.NewBannerService(bannerRepo, store, log)
	authService := service.NewAuthService(adminRepo, jwtManager, log)

	// HTTP server
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := httphandler.NewRouter(
		httphandler.RouterConfig{
			ServiceName:   cfg.ServiceName,
			CORS:          corsCfg,
			SecureCookies: cfg.HTTP.SecureCookies,
			EnableTracing: cfg.Tracing.Enabled,
		},
		productService,
		bannerService,
		authService,
		healthHandler,
		log,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("timeout", cfg.HTTP.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
