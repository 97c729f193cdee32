// cmd/server/main.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"healcheck-back/internal/accounts"
	"healcheck-back/internal/auth"
	"healcheck-back/internal/config"
	"healcheck-back/internal/database"
	"healcheck-back/internal/handlers"
	"healcheck-back/internal/inference"
	"healcheck-back/internal/logging"
	"healcheck-back/internal/metrics"
	"healcheck-back/internal/nutrition"
	"healcheck-back/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.InitDB(cfg.Database, logger)
	if err != nil {
		fatal(logger, "Failed to connect to database", err)
	}

	// Auto-migrate models and seed the nutrient catalog
	if err := database.MigrateDB(db); err != nil {
		fatal(logger, "Failed to migrate database", err)
	}

	catalog, err := nutrition.LoadCatalog(ctx, db)
	if err != nil {
		fatal(logger, "Failed to load nutrient catalog", err)
	}

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		fatal(logger, "Failed to initialize storage", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		fatal(logger, "Failed to register metrics", err)
	}

	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, uploads will be stored without analysis")
	}
	analyzer := inference.NewClient(inference.Config{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		BaseURL:    cfg.Gemini.BaseURL,
		Timeout:    cfg.Gemini.Timeout,
		MaxRetries: cfg.Gemini.MaxRetries,
	}, store, logger)

	issuer, err := auth.NewTokenIssuer(jwtSecret(cfg.Auth.JWTSecret, logger), cfg.Auth.TokenTTL)
	if err != nil {
		fatal(logger, "Failed to initialize token issuer", err)
	}

	users := accounts.NewDirectory(db)
	images := nutrition.NewService(nutrition.NewRepository(db), users, store, analyzer, catalog, nutrition.Options{
		Confidence:    cfg.AnalysisConfidence,
		PublicBaseURL: cfg.PublicBaseURL,
		Metrics:       pipelineMetrics,
		Logger:        logger,
	})

	r := handlers.NewRouter(handlers.Deps{
		Users:          users,
		Issuer:         issuer,
		Images:         images,
		Store:          store,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "storage", cfg.Storage.Driver, "database", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	if cfg.Driver == "minio" {
		return storage.NewMinIOStore(ctx, cfg.MinIO)
	}
	return storage.NewLocalStore(cfg.UploadsDir)
}

// jwtSecret falls back to a per-process random secret, which logs everyone
// out on restart.
func jwtSecret(configured string, logger *slog.Logger) string {
	if configured != "" {
		return configured
	}
	logger.Warn("JWT_SECRET is not set, using a random secret for this process")
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
