package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/mpesa-stk/internal/adapters/database"
	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	"github.com/kevin07696/mpesa-stk/internal/adapters/postgres"
	"github.com/kevin07696/mpesa-stk/internal/config"
	"github.com/kevin07696/mpesa-stk/internal/handlers/callback"
	"github.com/kevin07696/mpesa-stk/pkg/middleware"
	"github.com/kevin07696/mpesa-stk/pkg/observability"
	"github.com/kevin07696/mpesa-stk/pkg/shutdown"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting M-Pesa callback server",
		zap.String("version", "0.1.0"),
	)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	shutdownManager := shutdown.NewManager(logger, 30*time.Second)

	// Persistence is optional; without DATABASE_URL callbacks are only logged.
	var (
		repo   ports.PushRepository
		pinger observability.Pinger
	)
	if cfg.Database.Enabled() {
		db := initDatabase(cfg.Database, logger)
		shutdownManager.RegisterNoErr("database", db.Close)

		monitorCtx, stopMonitor := context.WithCancel(context.Background())
		db.StartPoolMonitoring(monitorCtx, time.Minute)
		shutdownManager.RegisterNoErr("pool_monitor", stopMonitor)

		repo = postgres.NewPushRepository(db.Pool(), logger)
		pinger = db
	} else {
		logger.Warn("DATABASE_URL not set - callbacks will not be persisted")
	}

	healthChecker := observability.NewHealthChecker(pinger)
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)
	shutdownManager.RegisterHTTPServer("metrics_server", metricsServer)
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, logger)
	shutdownManager.RegisterNoErr("rate_limiter", rateLimiter.Shutdown)

	securityHeaders := middleware.NewSecurityHeaders(cfg.Logger.Environment != "production")

	mux := http.NewServeMux()
	callback.NewHandler(repo, logger).RegisterRoutes(mux, cfg.Server.CallbackPath)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           rateLimiter.Middleware(securityHeaders.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	shutdownManager.RegisterHTTPServer("callback_server", httpServer)

	go func() {
		logger.Info("Callback server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("callback_path", cfg.Server.CallbackPath),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	if err := shutdownManager.WaitForShutdown(); err != nil {
		logger.Error("Shutdown completed with errors", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Servers stopped")
}

// initDatabase connects the pool and creates the push table
func initDatabase(cfg config.DatabaseConfig, logger *zap.Logger) *database.PostgreSQLAdapter {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgCfg := database.DefaultPostgreSQLConfig(cfg.URL)
	pgCfg.MaxConns = cfg.MaxConns
	pgCfg.MinConns = cfg.MinConns

	db, err := database.NewPostgreSQLAdapter(ctx, pgCfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	if err := postgres.EnsureSchema(ctx, db.Pool()); err != nil {
		db.Close()
		logger.Fatal("Failed to create schema", zap.Error(err))
	}

	return db
}

func initLogger() (*zap.Logger, error) {
	return buildLogger(loggerConfig())
}

func loggerConfig() zap.Config {
	level := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = parsed
	}

	zapCfg := zap.NewDevelopmentConfig()
	if os.Getenv("ENVIRONMENT") == "production" {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg
}

func buildLogger(zapCfg zap.Config) (*zap.Logger, error) {
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
