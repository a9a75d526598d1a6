// Package analysisworker consumes queued contract analysis jobs and drives
// the pipeline.
package analysisworker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/internal/queue"
	"github.com/contractguard/contractguard/pkg/logging"
)

const (
	defaultWorkerCount = 2
	defaultWaitSeconds = 2
	defaultBatchSize   = 5

	maxWaitSeconds      = 20
	maxReceiveBatchSize = 10

	deleteTimeout = 5 * time.Second
)

// Pipeline is the subset of the orchestrator the worker invokes.
type Pipeline interface {
	AnalyzeContract(ctx context.Context, contractID string) (*contract.Contract, error)
	ProcessCounterpartyResponse(ctx context.Context, sessionID, responseText string) (negotiation.ResponseOutcome, error)
}

// Worker consumes analysis jobs from the queue and invokes the pipeline.
type Worker struct {
	pipeline Pipeline
	queue    queue.Client
	logger   *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// Option customizes worker behavior.
type Option func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) Option {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the SQS long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) Option {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) Option {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// NewWorker constructs a queue consumer around the pipeline.
func NewWorker(pipeline Pipeline, q queue.Client, logger *logging.Logger, opts ...Option) *Worker {
	if pipeline == nil {
		panic("analysisworker: pipeline cannot be nil")
	}
	if q == nil {
		panic("analysisworker: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		pipeline: pipeline,
		queue:    q,
		logger:   logger.Named("analysis-worker"),
		cfg:      cfg,
	}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("analysis worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("analysis worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive analysis jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queue.Message) {
	payload, err := queue.DecodeJob(msg.Body)
	if err != nil {
		w.logger.Error("failed to decode analysis job", "error", err)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	w.logger.Info("processing job", "job_id", payload.ID, "kind", payload.Kind)

	switch payload.Kind {
	case queue.JobTypeAnalyze:
		_, err = w.pipeline.AnalyzeContract(ctx, payload.ContractID)
	case queue.JobTypeProcessResponse:
		_, err = w.pipeline.ProcessCounterpartyResponse(ctx, payload.SessionID, payload.ResponseText)
	default:
		err = fmt.Errorf("analysisworker: unknown job type %q", payload.Kind)
	}

	if err != nil {
		// Pipeline failures are recorded on the contract itself; the message
		// is still consumed so a poisoned job cannot loop forever.
		w.logger.Error("analysis job failed", "error", err, "job_id", payload.ID, "kind", payload.Kind)
	}

	w.deleteMessage(msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(receiptHandle string) {
	deleteCtx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete analysis job", "error", err)
	}
}
