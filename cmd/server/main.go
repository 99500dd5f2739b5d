package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/learnprogress/internal/api"
	"github.com/vytor/learnprogress/internal/cache"
	"github.com/vytor/learnprogress/internal/config"
	"github.com/vytor/learnprogress/internal/content"
	"github.com/vytor/learnprogress/internal/db"
	"github.com/vytor/learnprogress/internal/docstore"
	"github.com/vytor/learnprogress/internal/jobs"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/metrics"
	"github.com/vytor/learnprogress/internal/progress"
	"github.com/vytor/learnprogress/internal/repository/documents"
	"github.com/vytor/learnprogress/internal/scoring"
	"github.com/vytor/learnprogress/internal/services"
	"github.com/vytor/learnprogress/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("Progress Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("content_dir=%s", cfg.ContentDir)
	log.Debug("cache_backend=%s", cfg.CacheBackend)
	log.Debug("cache_ttl=%s", cfg.CacheTTL)
	log.Debug("tx_max_attempts=%d", cfg.TxMaxAttempts)
	log.Debug("rapid_guess_threshold=%s", cfg.RapidGuessThreshold())
	log.Debug("write_worker_count=%d", cfg.WriteWorkerCount)
	log.Debug("write_queue_size=%d", cfg.WriteQueueSize)

	reg := metrics.New()

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	store := docstore.NewSQLiteStore(database.DB,
		docstore.WithMaxAttempts(cfg.TxMaxAttempts),
		docstore.WithObserver(reg),
	)

	readyChecks := map[string]api.ReadyChecker{"database": database}

	// Content cache
	var contentCache cache.Cache
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		rc, err := cache.NewRedisCache(context.Background(), cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, "learnprogress")
		if err != nil {
			log.Error("failed to connect to redis: %v", err)
			os.Exit(1)
		}
		defer rc.Close()
		readyChecks["redis"] = rc
		contentCache = rc
	default:
		contentCache = cache.NewMemoryCache()
	}
	contentProvider := content.NewCachedProvider(
		content.NewFileProvider(cfg.ContentDir),
		contentCache,
		cfg.CacheTTL,
		reg,
	)

	// Initialize scoring and repositories
	calc := scoring.NewCalculator(cfg.RapidGuessThreshold())
	aggregator := progress.NewAggregator(calc)
	enrollmentRepo := documents.NewEnrollmentRepository(store)
	activityRepo := documents.NewActivityProgressRepository(store)

	// Initialize services
	enrollmentService := services.NewEnrollmentService(enrollmentRepo, contentProvider, aggregator)
	progressService := services.NewProgressService(enrollmentRepo, activityRepo, contentProvider, aggregator, calc)
	contentService := services.NewContentService(contentProvider, contentProvider)

	// Initialize worker pool
	writePool := worker.NewPool(cfg.WriteWorkerCount, cfg.WriteQueueSize, reg)
	jobQueue := jobs.NewWorkerQueue(writePool, progressService)

	srv := &api.Server{
		EnrollmentService: enrollmentService,
		ProgressService:   progressService,
		ContentService:    contentService,
		JobQueue:          jobQueue,
		ReadyChecks:       readyChecks,
		Metrics:           reg,
		MetricsHandler:    reg.Handler(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	writePool.Start(ctx)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Drain queued writes before the database closes
	log.Debug("stopping write pool")
	writePool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("Progress Server Stopped")
	log.Info("===========================================")
}
