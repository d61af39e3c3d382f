package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"paytrack/internal/backend"
	"paytrack/internal/cache"
	"paytrack/internal/cli"
	"paytrack/internal/config"
	"paytrack/internal/core"
	apphttp "paytrack/internal/http"
	"paytrack/internal/imports"
	"paytrack/internal/log"
	"paytrack/internal/period"
	"paytrack/internal/reports"
	"paytrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	clock := core.SystemClock{}
	backendCfg.Clock = clock
	be, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	cacheManager := cache.NewManager()
	var dashCache cache.Cache[core.Dashboard]
	if cfg.DashboardCacheTTL > 0 {
		lru := cache.NewLRUCache[core.Dashboard](cfg.DashboardCacheSize, cfg.DashboardCacheTTL)
		cacheManager.Register(lru)
		dashCache = lru
	}
	cacheManager.StartCleanup(time.Minute)

	resolver := period.NewResolver(clock, cfg.Location())
	dashboard := services.NewDashboardService(be.Store, be.Store, dashCache)
	schedules := services.NewScheduleService(be.Store, resolver, be.Events, dashboard)
	expenses := services.NewExpenseService(be.Store, be.Receipts, be.Events, dashboard)
	pipeline := imports.NewPipeline(be.Sessions, schedules, imports.Options{
		SessionTTL:  cfg.UploadSessionTTL,
		PreviewRows: cfg.UploadPreviewRows,
		Clock:       clock,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Logger:             logger.WithComponent(log.ComponentHTTP),
		Resolver:           resolver,
		Dashboard:          dashboard,
		Schedules:          schedules,
		Expenses:           expenses,
		Imports:            pipeline,
		Reports:            reports.NewGenerator(be.Store, be.Store),
		Store:              be.Store,
		JWTSecret:          []byte(cfg.JWTSecret),
		UploadDir:          cfg.UploadDir,
		UploadMaxBytes:     cfg.UploadMaxBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		cacheManager.Stop()
		if err := be.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting paytrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"upload_sessions", cfg.UploadSessionBackend,
		"record_events", be.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
