package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/korjavin/foodatease/internal/api"
	"github.com/korjavin/foodatease/internal/auth"
	"github.com/korjavin/foodatease/internal/config"
	"github.com/korjavin/foodatease/internal/metrics"
	"github.com/korjavin/foodatease/internal/middleware"
	"github.com/korjavin/foodatease/internal/rating"
	"github.com/korjavin/foodatease/internal/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	engine, err := rating.NewEngine(cfg.Scoring.DailyLimits)
	if err != nil {
		slog.Error("invalid daily limits", "error", err)
		os.Exit(1)
	}

	keys := auth.NewKeySet(cfg.Server.APIKeys)
	if keys.Len() == 0 {
		slog.Warn("no API keys configured, all requests will be accepted without authentication")
	}

	h := &api.Handler{
		Engine:   engine,
		Workers:  cfg.Scoring.Workers,
		MaxBatch: cfg.Scoring.MaxBatch,
	}

	if cfg.Server.DataDir == "" {
		slog.Warn("DATA_DIR not set, serving scoring routes only")
	} else {
		slog.Info("opening store", "data_dir", cfg.Server.DataDir)
		s, err := store.OpenReadOnly(cfg.Server.DataDir)
		if err != nil {
			slog.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer s.Close()
		h.Store = s

		manifest, err := store.ReadManifest(cfg.Server.DataDir)
		if err != nil {
			slog.Warn("manifest not found or unreadable", "error", err)
		} else {
			h.Manifest = manifest
			slog.Info("manifest loaded",
				"schema_version", manifest.SchemaVersion,
				"product_count", manifest.ProductCount,
				"rated_count", manifest.RatedCount,
				"build_time", manifest.BuildTime,
			)
			if manifest.DailyLimits != nil && *manifest.DailyLimits != engine.Limits() {
				slog.Warn("stored products were rated against different daily limits",
					"stored", *manifest.DailyLimits, "configured", engine.Limits())
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(c *config.Config) {
				keys.Replace(c.Server.APIKeys)
				slog.Info("api keys reloaded", "count", keys.Len())
			})
			if err != nil {
				slog.Error("config watch stopped", "error", err)
			}
		}()
	}

	reg := metrics.NewRegistry()
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, keys, h, reg)

	// Middleware chain (outer to inner): Logging → CORS → RateLimit → mux
	handler := middleware.Chain(
		mux,
		middleware.Logging(logger),
		middleware.CORS(cfg.Server.CORSOrigins),
		middleware.RateLimit(ctx, cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exited")
}
