package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/textract"

	"github.com/contractguard/contractguard/internal/approval"
	"github.com/contractguard/contractguard/internal/compliance"
	appconfig "github.com/contractguard/contractguard/internal/config"
	"github.com/contractguard/contractguard/internal/extract"
	"github.com/contractguard/contractguard/internal/knowledge"
	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/internal/notify"
	"github.com/contractguard/contractguard/internal/observability/metrics"
	"github.com/contractguard/contractguard/internal/pipeline"
	"github.com/contractguard/contractguard/internal/queue"
	"github.com/contractguard/contractguard/internal/recommend"
	"github.com/contractguard/contractguard/internal/risk"
	"github.com/contractguard/contractguard/internal/store"
	"github.com/contractguard/contractguard/pkg/logging"
)

// Services bundles everything the binaries mount: the orchestrator plus the
// services the HTTP layer exposes directly.
type Services struct {
	Pipeline      *pipeline.Orchestrator
	Approvals     *approval.Service
	ApprovalStore *approval.Store
	Audit         *compliance.AuditService
	Metrics       *metrics.PipelineMetrics
}

// BuildQueue returns the analysis job queue: SQS in deployments, in-memory
// for local single-process runs.
func BuildQueue(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) queue.Client {
	if cfg.UseMemoryQueue || cfg.AnalysisQueueURL == "" {
		logger.Info("using in-memory analysis queue")
		return queue.NewMemoryQueue(0)
	}
	return queue.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.AnalysisQueueURL)
}

// BuildEmailSender picks the notification channel: SendGrid when an API key
// is present, SES otherwise, a logging stub when neither is configured.
func BuildEmailSender(awsCfg aws.Config, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if cfg.SendGridAPIKey != "" {
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.ApprovalFromEmail,
			FromName:  cfg.ApprovalFromName,
		}, logger)
	}
	if cfg.ApprovalFromEmail != "" {
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.ApprovalFromEmail,
			FromName:  cfg.ApprovalFromName,
		}, logger)
	}
	logger.Warn("no email provider configured; reviewer notifications are logged only")
	return notify.NewStubEmailSender(logger)
}

// BuildServices wires the full contract pipeline from configuration.
func BuildServices(ctx context.Context, awsCfg aws.Config, cfg *appconfig.Config, db *sql.DB, q queue.Client, logger *logging.Logger) (*Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	pipelineMetrics := metrics.NewPipelineMetrics(nil)

	client, err := BuildLLMClient(ctx, awsCfg, cfg, pipelineMetrics, logger)
	if err != nil {
		return nil, err
	}
	modelID := ModelID(cfg)

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	contracts := store.NewContractStore(dynamoClient, cfg.ContractsTable, logger)
	sessions := negotiation.NewSessionStore(dynamoClient, cfg.SessionsTable, logger)
	approvalStore := approval.NewStore(dynamoClient, cfg.ApprovalsTable, logger)

	var documents *store.DocumentStore
	if cfg.DocumentsBucket != "" {
		documents = store.NewDocumentStore(s3.NewFromConfig(awsCfg), cfg.DocumentsBucket, logger)
	} else {
		logger.Warn("no documents bucket configured; uploads are kept inline only")
	}

	extractor := extract.NewExtractor(textract.NewFromConfig(awsCfg), cfg.ExtractionInterval, cfg.ExtractionTimeout, logger)
	scorer := risk.NewScorer(client, modelID, cfg.ClauseConcurrency, cfg.LLMTimeout, logger)

	var retriever knowledge.Retriever
	if redisClient := BuildRedisClient(ctx, cfg, logger, true); redisClient != nil {
		retriever = knowledge.NewRedisCorpus(redisClient)
	}
	engine := recommend.NewEngine(client, retriever, modelID, logger)

	strategist := negotiation.NewStrategist(client, modelID, logger)
	drafter := negotiation.NewDrafter(client, modelID, logger)
	processor := negotiation.NewProcessor(client, drafter, modelID, cfg.AdvanceThreshold, cfg.MaxRounds, logger)

	sender := BuildEmailSender(awsCfg, cfg, logger)
	audit := BuildAuditService(db, logger)

	var auditor approval.Auditor
	if audit != nil {
		auditor = audit
	}
	approvals := approval.NewService(approvalStore, sender, auditor, logger)

	deps := pipeline.Deps{
		Contracts:     contracts,
		Sessions:      sessions,
		Extractor:     extractor,
		Scorer:        scorer,
		Engine:        engine,
		Strategist:    strategist,
		Processor:     processor,
		Drafter:       drafter,
		Approvals:     approvals,
		Queue:         q,
		Metrics:       pipelineMetrics,
		ReviewerEmail: cfg.ApprovalReviewerEmail,
		Logger:        logger,
	}
	if documents != nil {
		deps.Documents = documents
	}
	if audit != nil {
		deps.Audit = audit
	}

	return &Services{
		Pipeline:      pipeline.NewOrchestrator(deps),
		Approvals:     approvals,
		ApprovalStore: approvalStore,
		Audit:         audit,
		Metrics:       pipelineMetrics,
	}, nil
}
