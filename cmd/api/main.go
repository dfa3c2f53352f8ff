package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/postop-assistant/internal/api/router"
	"github.com/wolfman30/postop-assistant/internal/app/bootstrap"
	"github.com/wolfman30/postop-assistant/internal/assistant"
	"github.com/wolfman30/postop-assistant/internal/auth"
	"github.com/wolfman30/postop-assistant/internal/clinical"
	appconfig "github.com/wolfman30/postop-assistant/internal/config"
	"github.com/wolfman30/postop-assistant/internal/demo"
	httpmiddleware "github.com/wolfman30/postop-assistant/internal/http/middleware"
	"github.com/wolfman30/postop-assistant/internal/observability/metrics"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting postop-assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := buildHandler(ctx, cfg, logger, prometheus.DefaultRegisterer, promhttp.Handler())
	if err != nil {
		logger.Error("failed to build API", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AssistantTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildHandler wires storage, auth, the assistant pipeline and the router.
// The returned cleanup releases pools and clients.
func buildHandler(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg prometheus.Registerer, metricsHandler http.Handler) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, cleanup, fmt.Errorf("JWT_SECRET is required in production")
		}
		logger.Warn("JWT_SECRET not set; using an ephemeral development secret")
		cfg.JWTSecret = "dev-only-" + time.Now().UTC().Format(time.RFC3339Nano)
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, cleanup, err
	}

	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	var sqlDB *sql.DB
	if pool != nil {
		closers = append(closers, pool.Close)
		sqlDB, err = bootstrap.OpenSQLDB(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("failed to open chat history database; using in-memory log", "error", err)
			sqlDB = nil
		} else {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
	}
	stores := bootstrap.BuildStores(pool, sqlDB, logger)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
	}
	cache := bootstrap.BuildSnapshotCache(redisClient, cfg)

	llm, err := bootstrap.BuildLLMClient(ctx, cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	if closer, ok := llm.(interface{ Close() error }); ok {
		closers = append(closers, func() { _ = closer.Close() })
	}

	if pool == nil && cfg.SeedDemoData {
		ward, err := demo.SeedWard(ctx, stores.Clinical, time.Now().UTC())
		if err != nil {
			return nil, cleanup, fmt.Errorf("seed demo ward: %w", err)
		}
		logger.Info("seeded demo ward", "patients", len(ward.Patients))
	}

	assistantMetrics := metrics.NewAssistantMetrics(reg)
	service := bootstrap.BuildAssistantService(bootstrap.AssistantDeps{
		Clinical: stores.Clinical,
		Cache:    cache,
		LLM:      llm,
		ChatLog:  stores.ChatLog,
		Metrics:  assistantMetrics,
		Timeout:  cfg.AssistantTimeout,
		Logger:   logger,
	})

	var invalidator clinical.Invalidator
	if cache != nil {
		invalidator = cache
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.RunEviction(ctx, time.Minute, 10*time.Minute)

	routerCfg := &router.Config{
		Logger:             logger,
		Tokens:             tokens,
		AuthHandler:        auth.NewHandler(auth.NewService(stores.Profiles, tokens), logger),
		ClinicalHandler:    clinical.NewHandler(stores.Clinical, invalidator, logger),
		AssistantHandler:   assistant.NewHandler(service, logger),
		RateLimiter:        limiter,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if pool != nil {
		routerCfg.HealthCheck = pool.Ping
	}
	return router.New(routerCfg), cleanup, nil
}
