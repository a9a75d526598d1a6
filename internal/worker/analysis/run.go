package analysisworker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/contractguard/contractguard/cmd/mainconfig"
	appbootstrap "github.com/contractguard/contractguard/internal/app/bootstrap"
	appconfig "github.com/contractguard/contractguard/internal/config"
	"github.com/contractguard/contractguard/internal/queue"
	"github.com/contractguard/contractguard/pkg/logging"
)

// Run starts the analysis worker and blocks until ctx is canceled.
func Run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	if cfg == nil {
		return fmt.Errorf("analysis worker requires config")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.UseMemoryQueue {
		return fmt.Errorf("analysis worker cannot run when USE_MEMORY_QUEUE=true; run inline workers via the API process instead")
	}
	if cfg.AnalysisQueueURL == "" {
		return fmt.Errorf("ANALYSIS_QUEUE_URL is required")
	}

	var dbPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("worker failed to connect to postgres: %w", err)
		}
		dbPool = pool
		defer dbPool.Close()
	}
	var sqlDB *sql.DB
	if dbPool != nil {
		sqlDB = stdlib.OpenDBFromPool(dbPool)
		defer sqlDB.Close()
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	q := queue.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.AnalysisQueueURL)
	svcs, err := appbootstrap.BuildServices(ctx, awsCfg, cfg, sqlDB, q, logger)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	worker := NewWorker(svcs.Pipeline, q, logger, WithWorkerCount(cfg.WorkerCount))
	worker.Start(ctx)
	logger.Info("analysis worker running", "workers", cfg.WorkerCount, "queue", cfg.AnalysisQueueURL)

	<-ctx.Done()
	logger.Info("shutting down analysis worker...")

	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("analysis worker stopped")
		return nil
	case <-time.After(30 * time.Second):
		return fmt.Errorf("analysis worker shutdown timed out")
	}
}
