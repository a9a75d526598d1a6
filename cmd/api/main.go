package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contractguard/contractguard/cmd/mainconfig"
	"github.com/contractguard/contractguard/internal/api/router"
	appbootstrap "github.com/contractguard/contractguard/internal/app/bootstrap"
	appconfig "github.com/contractguard/contractguard/internal/config"
	"github.com/contractguard/contractguard/internal/http/handlers"
	analysisworker "github.com/contractguard/contractguard/internal/worker/analysis"
	"github.com/contractguard/contractguard/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting contractguard API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	db, err := appbootstrap.BuildSQLDB(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	q := appbootstrap.BuildQueue(awsCfg, cfg, logger)
	svcs, err := appbootstrap.BuildServices(ctx, awsCfg, cfg, db, q, logger)
	if err != nil {
		logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}

	// With the in-memory queue, analysis runs inline in this process.
	var worker *analysisworker.Worker
	if cfg.UseMemoryQueue || cfg.AnalysisQueueURL == "" {
		worker = analysisworker.NewWorker(svcs.Pipeline, q, logger,
			analysisworker.WithWorkerCount(cfg.WorkerCount),
		)
		worker.Start(ctx)
		logger.Info("inline analysis workers started", "workers", cfg.WorkerCount)
	}

	routerCfg := &router.Config{
		Logger:             logger,
		Contracts:          handlers.NewContractsHandler(svcs.Pipeline, logger),
		Negotiation:        handlers.NewNegotiationHandler(svcs.Pipeline, logger),
		Approvals:          handlers.NewApprovalsHandler(svcs.Approvals, svcs.ApprovalStore, logger),
		AuthSecret:         cfg.APIJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}
	if svcs.Audit != nil {
		routerCfg.Audit = handlers.NewAuditHandler(svcs.Audit, logger)
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if worker != nil {
		worker.Wait()
	}

	logger.Info("server stopped")
}
