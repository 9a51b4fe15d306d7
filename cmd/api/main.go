package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"demand-flex/internal/api"
	"demand-flex/internal/api/handlers"
	"demand-flex/internal/config"
	"demand-flex/internal/data"
	"demand-flex/internal/metrics"
	"demand-flex/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	cfg := config.Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			logger.Fatalf("Failed to load config %s: %v", path, err)
		}
		cfg = loaded
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	logger.Infof("Data directory: %s", cfg.DataDir)

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	cache := data.NewDatasetCache(time.Hour)
	go cache.RunCleanup(ctx, 10*time.Minute)

	deps := handlers.Deps{
		Config:     cfg,
		StorageDir: handlers.DefaultStorageDir(),
		Cache:      cache,
		Log:        logger,
	}
	if v := os.Getenv("SOLVE_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			logger.Fatalf("Invalid SOLVE_TIMEOUT %q: %v", v, err)
		}
		deps.SolveTimeout = timeout
	}
	opts := api.Options{Deps: deps}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		opts.AllowedOrigins = strings.Split(origins, ",")
	}

	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		runs := store.NewRunStore(db)
		if err := runs.EnsureSchema(ctx); err != nil {
			logger.Fatalf("Failed to prepare run table: %v", err)
		}
		opts.Deps.Store = runs
		opts.Runs = runs
		logger.Info("Run history enabled")
	} else {
		logger.Info("DATABASE_URL not set, run history disabled")
	}

	router := api.NewRouter(opts)

	// Start server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Shutdown: %v", err)
		}
	}()

	logger.Infof("Starting API server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("Server stopped")
}
