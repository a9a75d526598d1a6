// Package pipeline orchestrates the contract lifecycle: document extraction,
// clause segmentation, risk scoring, negotiation planning, and counterparty
// response processing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/contractguard/contractguard/internal/approval"
	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/extract"
	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/internal/observability/metrics"
	"github.com/contractguard/contractguard/internal/queue"
	"github.com/contractguard/contractguard/internal/recommend"
	"github.com/contractguard/contractguard/internal/store"
	"github.com/contractguard/contractguard/pkg/logging"
)

var pipelineTracer = otel.Tracer("contractguard.internal.pipeline")

// negotiationRiskThreshold is the overall score at which an analyzed contract
// is routed to negotiation instead of plain review.
const negotiationRiskThreshold = 7.0

type contractStore interface {
	Put(ctx context.Context, c *contract.Contract) error
	Get(ctx context.Context, contractID string) (*contract.Contract, error)
	Save(ctx context.Context, c *contract.Contract) error
	SetStatus(ctx context.Context, contractID string, status contract.Status, message string) error
	ListByUser(ctx context.Context, userID string, status contract.Status) ([]contract.Contract, error)
}

type documentStore interface {
	Bucket() string
	Key(userID, contractID, filename string) string
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
}

type sessionStore interface {
	CreateSession(ctx context.Context, session *negotiation.Session) error
	GetSession(ctx context.Context, sessionID string) (*negotiation.Session, error)
	SaveSession(ctx context.Context, session *negotiation.Session, expectedRound int) error
	AppendRound(ctx context.Context, session *negotiation.Session, round negotiation.Round) error
}

type documentExtractor interface {
	Extract(ctx context.Context, bucket, key string) (extract.Result, error)
}

type riskScorer interface {
	Score(ctx context.Context, contractID string, clauses []contract.Clause, userCtx contract.UserContext) (contract.RiskReport, error)
}

type recommender interface {
	Recommend(ctx context.Context, clause contract.Clause, userCtx contract.UserContext) ([]recommend.Alternative, error)
}

type strategyPlanner interface {
	Plan(ctx context.Context, report contract.RiskReport, priorities negotiation.Priorities, history []negotiation.Round) (negotiation.Strategy, error)
}

type responseProcessor interface {
	ProcessResponse(ctx context.Context, session *negotiation.Session, responseText string) (negotiation.ResponseOutcome, error)
}

type emailDrafter interface {
	Draft(ctx context.Context, overallStrategy string, requests []negotiation.Request, recipient, tone string) (negotiation.EmailDraft, error)
}

type approvalSubmitter interface {
	Submit(ctx context.Context, userID, contractID, sessionID, reviewerEmail string, draft negotiation.EmailDraft) (*approval.Approval, error)
}

type auditTrail interface {
	LogContractAnalyzed(ctx context.Context, userID, contractID string, overallRisk float64, riskLevel string, clauseCount int) error
	LogAnalysisFailed(ctx context.Context, userID, contractID, reason string) error
	LogStrategyPlanned(ctx context.Context, userID, contractID, sessionID string, roundNumber int) error
	LogDraftCreated(ctx context.Context, userID, contractID, sessionID string, roundNumber int, recipient, subject string) error
	LogResponseProcessed(ctx context.Context, userID, contractID, sessionID string, roundNumber, accepted, rejected int, nextAction string) error
	LogSessionClosed(ctx context.Context, userID, contractID, sessionID, finalStatus string) error
}

// Deps collects the services the orchestrator coordinates. Contracts,
// sessions, extractor, scorer, strategist, and processor are required;
// everything else degrades gracefully when absent.
type Deps struct {
	Contracts  contractStore
	Documents  documentStore
	Sessions   sessionStore
	Extractor  documentExtractor
	Scorer     riskScorer
	Engine     recommender
	Strategist strategyPlanner
	Processor  responseProcessor
	Drafter    emailDrafter
	Approvals  approvalSubmitter
	Audit      auditTrail
	Queue      queue.Client
	Metrics    *metrics.PipelineMetrics

	ReviewerEmail string
	Logger        *logging.Logger
}

// Orchestrator runs the analyze / plan / process-response operations.
type Orchestrator struct {
	deps   Deps
	logger *logging.Logger
}

func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Contracts == nil {
		panic("pipeline: contract store cannot be nil")
	}
	if deps.Sessions == nil {
		panic("pipeline: session store cannot be nil")
	}
	if deps.Extractor == nil {
		panic("pipeline: extractor cannot be nil")
	}
	if deps.Scorer == nil {
		panic("pipeline: scorer cannot be nil")
	}
	if deps.Strategist == nil {
		panic("pipeline: strategist cannot be nil")
	}
	if deps.Processor == nil {
		panic("pipeline: response processor cannot be nil")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Orchestrator{deps: deps, logger: deps.Logger.Named("pipeline")}
}

// SubmitInput describes a new contract upload.
type SubmitInput struct {
	UserID      string
	Title       string
	Filename    string
	ContentType string
	Data        []byte
	UserContext contract.UserContext
}

// SubmitContract uploads the document, records the contract, and enqueues
// analysis when a queue is configured.
func (o *Orchestrator) SubmitContract(ctx context.Context, in SubmitInput) (*contract.Contract, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, Validation("user id required")
	}
	if len(in.Data) == 0 {
		return nil, Validation("document data required")
	}
	if o.deps.Documents == nil {
		return nil, Validation("document storage not configured")
	}
	if in.ContentType == "" {
		in.ContentType = "application/pdf"
	}
	if in.Filename == "" {
		in.Filename = "contract.pdf"
		if isPlainText(in.ContentType) {
			in.Filename = "contract.txt"
		}
	}
	if in.UserContext == (contract.UserContext{}) {
		in.UserContext = contract.DefaultUserContext()
	}

	now := time.Now().UTC()
	c := &contract.Contract{
		ID:          "contract-" + uuid.NewString(),
		UserID:      in.UserID,
		Title:       in.Title,
		ContentType: in.ContentType,
		Status:      contract.StatusUploading,
		UserContext: in.UserContext,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.S3Bucket = o.deps.Documents.Bucket()
	c.S3Key = o.deps.Documents.Key(in.UserID, c.ID, in.Filename)

	if err := o.deps.Documents.Upload(ctx, c.S3Key, in.Data, in.ContentType); err != nil {
		return nil, fmt.Errorf("pipeline: document upload failed: %w", err)
	}
	c.Status = contract.StatusPending
	if err := o.deps.Contracts.Put(ctx, c); err != nil {
		return nil, err
	}

	if o.deps.Queue != nil {
		_, body, err := queue.EncodeJob(queue.JobPayload{
			Kind:       queue.JobTypeAnalyze,
			ContractID: c.ID,
			UserID:     c.UserID,
		})
		if err == nil {
			err = o.deps.Queue.Send(ctx, body)
		}
		if err != nil {
			o.logger.Error("failed to enqueue analysis job", "error", err, "contract_id", c.ID)
		}
	}

	return c, nil
}

// GetContract fetches a contract and enforces ownership.
func (o *Orchestrator) GetContract(ctx context.Context, contractID, userID string) (*contract.Contract, error) {
	c, err := o.deps.Contracts.Get(ctx, contractID)
	if err != nil {
		if errors.Is(err, store.ErrContractNotFound) {
			return nil, fmt.Errorf("pipeline: contract %s: %w", contractID, ErrNotFound)
		}
		return nil, err
	}
	if userID != "" && c.UserID != userID {
		return nil, fmt.Errorf("pipeline: contract %s: %w", contractID, ErrAccessDenied)
	}
	return c, nil
}

// ListContracts returns the user's contracts, newest first per the store.
func (o *Orchestrator) ListContracts(ctx context.Context, userID string, status contract.Status) ([]contract.Contract, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, Validation("user id required")
	}
	return o.deps.Contracts.ListByUser(ctx, userID, status)
}

// AnalyzeContract runs the full analysis: extract, segment, score, recommend.
// The contract moves to ANALYZING, then REVIEWED or NEEDS_NEGOTIATION; any
// fatal error parks it in ERROR with the reason recorded.
func (o *Orchestrator) AnalyzeContract(ctx context.Context, contractID string) (*contract.Contract, error) {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.AnalyzeContract")
	defer span.End()
	span.SetAttributes(attribute.String("contract_id", contractID))

	c, err := o.GetContract(ctx, contractID, "")
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := o.deps.Contracts.SetStatus(ctx, c.ID, contract.StatusAnalyzing, ""); err != nil {
		return nil, err
	}

	fullText, err := o.extractText(ctx, c)
	if err != nil {
		return nil, o.failAnalysis(ctx, c, start, fmt.Errorf("pipeline: extraction failed: %w", err))
	}

	parsed := contract.Segment(fullText)

	report, err := o.deps.Scorer.Score(ctx, c.ID, parsed.Clauses, c.UserContext)
	if err != nil {
		return nil, o.failAnalysis(ctx, c, start, fmt.Errorf("pipeline: risk scoring failed: %w", err))
	}
	for _, cl := range report.Clauses() {
		o.deps.Metrics.ObserveClauseScored(string(cl.Type), string(cl.RiskLevel))
	}

	o.attachRecommendations(ctx, &report, c.UserContext)

	c.Parsed = &parsed
	c.RiskReport = &report
	c.StatusMsg = ""
	c.Status = contract.StatusReviewed
	if report.OverallScore >= negotiationRiskThreshold {
		c.Status = contract.StatusNeedsNegotiation
	}
	c.UpdatedAt = time.Now().UTC()
	if err := o.deps.Contracts.Save(ctx, c); err != nil {
		return nil, err
	}

	if o.deps.Audit != nil {
		if err := o.deps.Audit.LogContractAnalyzed(ctx, c.UserID, c.ID, report.OverallScore, string(report.OverallLevel), len(parsed.Clauses)); err != nil {
			o.logger.Warn("failed to audit analysis", "error", err, "contract_id", c.ID)
		}
	}
	o.deps.Metrics.ObserveAnalysis("completed", string(report.OverallLevel), time.Since(start).Seconds())
	o.logger.Info("contract analyzed",
		"contract_id", c.ID,
		"overall_score", report.OverallScore,
		"risk_level", report.OverallLevel,
		"clauses", len(parsed.Clauses),
		"status", c.Status,
	)

	return c, nil
}

// attachRecommendations generates alternative language for each high-risk
// clause. Failures degrade to the engine's templates; only context
// cancellation aborts, and even then analysis keeps what it has.
func (o *Orchestrator) attachRecommendations(ctx context.Context, report *contract.RiskReport, userCtx contract.UserContext) {
	if o.deps.Engine == nil {
		return
	}
	for i := range report.HighRisk {
		alternatives, err := o.deps.Engine.Recommend(ctx, report.HighRisk[i], userCtx)
		if err != nil {
			o.logger.Warn("recommendation generation aborted", "error", err, "clause_id", report.HighRisk[i].ID)
			return
		}
		texts := make([]string, 0, len(alternatives))
		for _, alt := range alternatives {
			texts = append(texts, alt.ProposedText)
		}
		report.HighRisk[i].Recommendations = texts
	}
}

// extractText produces the contract's full text. Plain-text uploads are read
// back from storage as-is; everything else goes through Textract, which only
// understands document formats (PDF, TIFF, PNG, JPEG).
func (o *Orchestrator) extractText(ctx context.Context, c *contract.Contract) (string, error) {
	if isPlainText(c.ContentType) {
		if o.deps.Documents == nil {
			return "", errors.New("pipeline: document storage not configured")
		}
		data, err := o.deps.Documents.Download(ctx, c.S3Key)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	result, err := o.deps.Extractor.Extract(ctx, c.S3Bucket, c.S3Key)
	if err != nil {
		return "", err
	}
	return result.FullText, nil
}

func isPlainText(contentType string) bool {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.HasPrefix(strings.TrimSpace(mediaType), "text/")
}

func (o *Orchestrator) failAnalysis(ctx context.Context, c *contract.Contract, start time.Time, cause error) error {
	if err := o.deps.Contracts.SetStatus(ctx, c.ID, contract.StatusError, cause.Error()); err != nil {
		o.logger.Error("failed to record analysis error", "error", err, "contract_id", c.ID)
	}
	if o.deps.Audit != nil {
		if err := o.deps.Audit.LogAnalysisFailed(ctx, c.UserID, c.ID, cause.Error()); err != nil {
			o.logger.Warn("failed to audit analysis failure", "error", err, "contract_id", c.ID)
		}
	}
	o.deps.Metrics.ObserveAnalysis("failed", string(contract.RiskUnknown), time.Since(start).Seconds())
	return cause
}

// PlanInput describes a negotiation kickoff.
type PlanInput struct {
	ContractID        string
	UserID            string
	Priorities        negotiation.Priorities
	CounterpartyEmail string
	Tone              string
}

// PlanNegotiation generates the strategy, opens the session with round 1,
// drafts the first email, and parks the draft behind the approval gate.
func (o *Orchestrator) PlanNegotiation(ctx context.Context, in PlanInput) (*negotiation.Session, error) {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.PlanNegotiation")
	defer span.End()
	span.SetAttributes(attribute.String("contract_id", in.ContractID))

	c, err := o.GetContract(ctx, in.ContractID, in.UserID)
	if err != nil {
		return nil, err
	}
	if c.RiskReport == nil {
		return nil, Validation("contract has not been analyzed")
	}
	if c.NegotiationSessionID != "" {
		existing, err := o.deps.Sessions.GetSession(ctx, c.NegotiationSessionID)
		if err != nil && !errors.Is(err, negotiation.ErrSessionNotFound) {
			return nil, err
		}
		if existing != nil && !existing.Status.Terminal() {
			return nil, fmt.Errorf("pipeline: contract %s already has active session %s: %w",
				c.ID, existing.ID, negotiation.ErrStateConflict)
		}
	}

	strategy, err := o.deps.Strategist.Plan(ctx, *c.RiskReport, in.Priorities, nil)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &negotiation.Session{
		ID:                "session-" + uuid.NewString(),
		ContractID:        c.ID,
		UserID:            c.UserID,
		CounterpartyEmail: in.CounterpartyEmail,
		Strategy:          strategy,
		Status:            negotiation.SessionPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := o.deps.Sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	if o.deps.Audit != nil {
		if err := o.deps.Audit.LogStrategyPlanned(ctx, c.UserID, c.ID, session.ID, 1); err != nil {
			o.logger.Warn("failed to audit strategy", "error", err, "session_id", session.ID)
		}
	}

	requests := plannedRequests(strategy.Round1.AllRequests())
	if len(requests) == 0 {
		requests = requestsFromReport(c.RiskReport)
	}
	round := negotiation.Round{
		ID:        "round-" + uuid.NewString(),
		Number:    1,
		Requests:  requests,
		CreatedAt: now,
	}
	round.Draft = o.draft(ctx, session, strategy.OverallStrategy, requests, in.Tone)

	if err := o.deps.Sessions.AppendRound(ctx, session, round); err != nil {
		return nil, err
	}
	o.submitDraft(ctx, session, round.Draft, 1)

	c.NegotiationSessionID = session.ID
	c.Status = contract.StatusNegotiating
	c.UpdatedAt = time.Now().UTC()
	if err := o.deps.Contracts.Save(ctx, c); err != nil {
		return nil, err
	}

	o.logger.Info("negotiation planned",
		"contract_id", c.ID,
		"session_id", session.ID,
		"round_1_requests", len(requests),
		"success_probability", strategy.SuccessProbability,
	)
	return session, nil
}

// GetSession fetches a session and enforces ownership.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID, userID string) (*negotiation.Session, error) {
	session, err := o.deps.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, negotiation.ErrSessionNotFound) {
			return nil, fmt.Errorf("pipeline: session %s: %w", sessionID, ErrNotFound)
		}
		return nil, err
	}
	if userID != "" && session.UserID != userID {
		return nil, fmt.Errorf("pipeline: session %s: %w", sessionID, ErrAccessDenied)
	}
	return session, nil
}

// ProcessCounterpartyResponse classifies the response against the active
// round, persists the updated session under the round-count guard, opens the
// next round when the negotiation continues, and routes any new draft through
// the approval gate.
func (o *Orchestrator) ProcessCounterpartyResponse(ctx context.Context, sessionID, responseText string) (negotiation.ResponseOutcome, error) {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.ProcessCounterpartyResponse")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", sessionID))

	session, err := o.GetSession(ctx, sessionID, "")
	if err != nil {
		return negotiation.ResponseOutcome{}, err
	}

	expectedRound := session.CurrentRound
	outcome, err := o.deps.Processor.ProcessResponse(ctx, session, responseText)
	if err != nil {
		return negotiation.ResponseOutcome{}, err
	}
	if err := o.deps.Sessions.SaveSession(ctx, session, expectedRound); err != nil {
		return negotiation.ResponseOutcome{}, err
	}

	if session.Status == negotiation.SessionInProgress {
		if err := o.openNextRound(ctx, session, outcome); err != nil {
			return negotiation.ResponseOutcome{}, err
		}
	}

	o.audit(ctx, session, outcome)
	o.deps.Metrics.ObserveResponseProcessed(string(outcome.NextAction))
	return outcome, nil
}

// openNextRound carries the continuation decided by the processor: the next
// round's requests come from the strategy plan when it has them, otherwise
// the unaccepted requests roll forward.
func (o *Orchestrator) openNextRound(ctx context.Context, session *negotiation.Session, outcome negotiation.ResponseOutcome) error {
	nextNumber := outcome.RoundNumber + 1

	var requests []negotiation.Request
	if plan, ok := session.Strategy.RoundPlanFor(nextNumber); ok {
		requests = plannedRequests(plan.AllRequests())
	}
	if len(requests) == 0 {
		requests = carryForward(outcome.UpdatedRequests)
	}
	if len(requests) == 0 {
		// Nothing left to ask for; the session stays IN_PROGRESS awaiting a
		// manual close.
		return nil
	}

	round := negotiation.Round{
		ID:        "round-" + uuid.NewString(),
		Number:    nextNumber,
		Requests:  requests,
		Draft:     outcome.Draft,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.deps.Sessions.AppendRound(ctx, session, round); err != nil {
		return err
	}
	o.submitDraft(ctx, session, outcome.Draft, nextNumber)
	return nil
}

func (o *Orchestrator) draft(ctx context.Context, session *negotiation.Session, overallStrategy string, requests []negotiation.Request, tone string) *negotiation.EmailDraft {
	if o.deps.Drafter == nil || session.CounterpartyEmail == "" {
		return nil
	}
	draft, err := o.deps.Drafter.Draft(ctx, overallStrategy, requests, session.CounterpartyEmail, tone)
	if err != nil {
		o.logger.Warn("email drafting failed", "error", err, "session_id", session.ID)
		return nil
	}
	return &draft
}

func (o *Orchestrator) submitDraft(ctx context.Context, session *negotiation.Session, draft *negotiation.EmailDraft, roundNumber int) {
	if draft == nil {
		return
	}
	if o.deps.Approvals != nil && o.deps.ReviewerEmail != "" {
		if _, err := o.deps.Approvals.Submit(ctx, session.UserID, session.ContractID, session.ID, o.deps.ReviewerEmail, *draft); err != nil {
			o.logger.Error("failed to submit draft for approval", "error", err, "session_id", session.ID)
		}
	}
	if o.deps.Audit != nil {
		if err := o.deps.Audit.LogDraftCreated(ctx, session.UserID, session.ContractID, session.ID, roundNumber, draft.Recipient, draft.Subject); err != nil {
			o.logger.Warn("failed to audit draft", "error", err, "session_id", session.ID)
		}
	}
}

func (o *Orchestrator) audit(ctx context.Context, session *negotiation.Session, outcome negotiation.ResponseOutcome) {
	if o.deps.Audit != nil {
		if err := o.deps.Audit.LogResponseProcessed(ctx, session.UserID, session.ContractID, session.ID,
			outcome.RoundNumber, session.AcceptedCount, session.RejectedCount, string(outcome.NextAction)); err != nil {
			o.logger.Warn("failed to audit response", "error", err, "session_id", session.ID)
		}
	}

	if !session.Status.Terminal() {
		return
	}
	if o.deps.Audit != nil {
		if err := o.deps.Audit.LogSessionClosed(ctx, session.UserID, session.ContractID, session.ID, string(session.Status)); err != nil {
			o.logger.Warn("failed to audit session close", "error", err, "session_id", session.ID)
		}
	}
	status := contract.StatusReviewed
	switch session.Status {
	case negotiation.SessionAccepted:
		status = contract.StatusApproved
	case negotiation.SessionRejected:
		status = contract.StatusRejected
	}
	if err := o.deps.Contracts.SetStatus(ctx, session.ContractID, status, session.FinalRecommendation); err != nil {
		o.logger.Error("failed to update contract after session close", "error", err, "contract_id", session.ContractID)
	}
}

// plannedRequests converts strategy asks into trackable round requests.
func plannedRequests(planned []negotiation.PlannedRequest) []negotiation.Request {
	requests := make([]negotiation.Request, 0, len(planned))
	for _, p := range planned {
		if strings.TrimSpace(p.Request) == "" {
			continue
		}
		requests = append(requests, negotiation.Request{
			ID:           "req-" + uuid.NewString(),
			ClauseType:   contract.ClauseType(strings.ToUpper(strings.TrimSpace(p.ClauseType))),
			OriginalText: p.CurrentIssue,
			ProposedText: p.Request,
			Rationale:    p.Rationale,
			Priority:     priorityRank(p.Priority),
			Status:       negotiation.RequestPending,
		})
	}
	return requests
}

// requestsFromReport builds round-1 requests directly from the high-risk
// clauses when the strategy carries no structured asks (placeholder plans).
func requestsFromReport(report *contract.RiskReport) []negotiation.Request {
	requests := make([]negotiation.Request, 0, len(report.HighRisk))
	for _, clause := range report.HighRisk {
		proposed := "Revise this clause to reduce risk exposure."
		if len(clause.Recommendations) > 0 {
			proposed = clause.Recommendations[0]
		}
		requests = append(requests, negotiation.Request{
			ID:           "req-" + uuid.NewString(),
			ClauseID:     clause.ID,
			ClauseType:   clause.Type,
			OriginalText: clause.Text,
			ProposedText: proposed,
			Rationale:    strings.Join(clause.Concerns, "; "),
			Priority:     1,
			Status:       negotiation.RequestPending,
		})
	}
	return requests
}

// carryForward re-opens the unaccepted requests from the completed round.
func carryForward(previous []negotiation.Request) []negotiation.Request {
	var requests []negotiation.Request
	for _, r := range previous {
		if r.Status == negotiation.RequestAccepted || r.Status == negotiation.RequestWithdrawn {
			continue
		}
		requests = append(requests, negotiation.Request{
			ID:           "req-" + uuid.NewString(),
			ClauseID:     r.ClauseID,
			ClauseType:   r.ClauseType,
			OriginalText: r.OriginalText,
			ProposedText: r.ProposedText,
			Rationale:    r.Rationale,
			Priority:     r.Priority,
			Status:       negotiation.RequestPending,
		})
	}
	return requests
}

func priorityRank(priority string) int {
	switch strings.ToUpper(strings.TrimSpace(priority)) {
	case "MUST_HAVE", "HIGH", "1":
		return 1
	case "LOW", "3":
		return 3
	default:
		return 2
	}
}
