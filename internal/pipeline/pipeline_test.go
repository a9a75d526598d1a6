package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractguard/contractguard/internal/approval"
	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/extract"
	"github.com/contractguard/contractguard/internal/llm"
	"github.com/contractguard/contractguard/internal/negotiation"
	"github.com/contractguard/contractguard/internal/recommend"
	"github.com/contractguard/contractguard/internal/risk"
	"github.com/contractguard/contractguard/internal/store"
	"github.com/contractguard/contractguard/pkg/logging"
)

const msaText = `MASTER SERVICE AGREEMENT

This Master Service Agreement is entered into by Acme Corp and Vendor Inc.

1. Fees. The client shall make payment of all fees within fifteen days of receipt of each invoice.

2. Limitation of Liability. Provider shall have unlimited liability for all damages arising under this agreement.

3. Ending the Agreement. Either party may end this agreement upon written notice of termination.`

// routingLLM answers every pipeline prompt from its marker text, so one stub
// serves the scorer, recommender, strategist, drafter, and classifier.
type routingLLM struct {
	requestIDPattern *regexp.Regexp
}

func newRoutingLLM() *routingLLM {
	return &routingLLM{requestIDPattern: regexp.MustCompile(`request_id: (\S+)`)}
}

func (r *routingLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	prompt := req.Messages[0].Content

	switch {
	case strings.Contains(prompt, "for business risk"):
		return llm.Response{Text: r.clauseAnalysis(prompt)}, nil
	case strings.Contains(prompt, "provide alternative language"):
		return llm.Response{Text: `{"recommendations": [
			{"priority": 1, "proposed_text": "Cap total liability at twelve months of fees.", "rationale": "Industry standard", "risk_reduction": "3", "likelihood_accepted": "HIGH"}
		]}`}, nil
	case strings.Contains(prompt, "expert negotiation strategist"):
		return llm.Response{Text: strategyJSON}, nil
	case strings.Contains(prompt, "Draft a professional business negotiation email"):
		return llm.Response{Text: `{"subject": "Contract Review - Proposed Revisions", "body": "Dear counsel, we propose the attached revisions.", "key_points": ["Liability cap"], "tone_check": "collaborative", "word_count": 40}`}, nil
	case strings.Contains(prompt, "analyzing a counterparty's reply"):
		return llm.Response{Text: r.classification(prompt)}, nil
	}
	return llm.Response{Text: "{}"}, nil
}

func (r *routingLLM) clauseAnalysis(prompt string) string {
	score, severity := 5, "MEDIUM"
	switch {
	case strings.Contains(prompt, "this LIABILITY clause"):
		score, severity = 9, "HIGH"
	case strings.Contains(prompt, "this TERMINATION clause"):
		score, severity = 8, "HIGH"
	case strings.Contains(prompt, "this PAYMENT clause"):
		score, severity = 5, "MEDIUM"
	}
	return fmt.Sprintf(`{"risk_score": %d, "concerns": ["Unfavorable terms"], "impact": "Material exposure", "severity": %q, "reasoning": "test"}`, score, severity)
}

// classification accepts the first outstanding request and counters the rest.
func (r *routingLLM) classification(prompt string) string {
	ids := r.requestIDPattern.FindAllStringSubmatch(prompt, -1)
	var entries []string
	for i, match := range ids {
		status := "COUNTERED"
		if i == 0 {
			status = "ACCEPTED"
		}
		entries = append(entries, fmt.Sprintf(`{"request_id": %q, "status": %q}`, match[1], status))
	}
	return fmt.Sprintf(`{"classifications": [%s], "analysis": "Partial agreement"}`, strings.Join(entries, ","))
}

const strategyJSON = `{
  "round_1": {
    "objective": "Quick wins",
    "priority_requests": [
      {"clause_type": "LIABILITY", "current_issue": "Unlimited liability", "request": "Cap at 12 months of fees", "rationale": "Standard", "priority": "MUST_HAVE", "acceptance_likelihood": 85},
      {"clause_type": "TERMINATION", "current_issue": "Unilateral termination", "request": "Require 30 days notice", "rationale": "Continuity", "priority": "MUST_HAVE", "acceptance_likelihood": 70}
    ]
  },
  "round_2": {"objective": "Compromises", "conditional_on": "Partial acceptance", "requests": []},
  "round_3": {"objective": "Final positions", "requests": [], "walk_away_triggers": ["No liability cap"]},
  "overall_strategy": "Lead with the liability cap.",
  "estimated_timeline": "2-3 weeks",
  "success_probability": 75
}`

type memContracts struct {
	m map[string]*contract.Contract
}

func newMemContracts() *memContracts { return &memContracts{m: map[string]*contract.Contract{}} }

func (s *memContracts) Put(_ context.Context, c *contract.Contract) error {
	if _, ok := s.m[c.ID]; ok {
		return negotiation.ErrStateConflict
	}
	s.m[c.ID] = c
	return nil
}

func (s *memContracts) Get(_ context.Context, contractID string) (*contract.Contract, error) {
	c, ok := s.m[contractID]
	if !ok {
		return nil, store.ErrContractNotFound
	}
	return c, nil
}

func (s *memContracts) Save(_ context.Context, c *contract.Contract) error {
	if _, ok := s.m[c.ID]; !ok {
		return store.ErrContractNotFound
	}
	s.m[c.ID] = c
	return nil
}

func (s *memContracts) SetStatus(_ context.Context, contractID string, status contract.Status, message string) error {
	c, ok := s.m[contractID]
	if !ok {
		return store.ErrContractNotFound
	}
	c.Status = status
	c.StatusMsg = message
	return nil
}

func (s *memContracts) ListByUser(_ context.Context, userID string, status contract.Status) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range s.m {
		if c.UserID == userID && (status == "" || c.Status == status) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type memSessions struct {
	m map[string]*negotiation.Session
}

func newMemSessions() *memSessions { return &memSessions{m: map[string]*negotiation.Session{}} }

func (s *memSessions) CreateSession(_ context.Context, session *negotiation.Session) error {
	if _, ok := s.m[session.ID]; ok {
		return negotiation.ErrStateConflict
	}
	if session.Status == "" {
		session.Status = negotiation.SessionPending
	}
	s.m[session.ID] = session
	return nil
}

func (s *memSessions) GetSession(_ context.Context, sessionID string) (*negotiation.Session, error) {
	session, ok := s.m[sessionID]
	if !ok {
		return nil, negotiation.ErrSessionNotFound
	}
	return session, nil
}

func (s *memSessions) SaveSession(_ context.Context, session *negotiation.Session, _ int) error {
	if _, ok := s.m[session.ID]; !ok {
		return negotiation.ErrSessionNotFound
	}
	s.m[session.ID] = session
	return nil
}

func (s *memSessions) AppendRound(_ context.Context, session *negotiation.Session, round negotiation.Round) error {
	if err := session.AppendRound(round); err != nil {
		return err
	}
	s.m[session.ID] = session
	return nil
}

type memDocuments struct {
	uploads map[string][]byte
}

func newMemDocuments() *memDocuments { return &memDocuments{uploads: map[string][]byte{}} }

func (s *memDocuments) Bucket() string { return "test-bucket" }

func (s *memDocuments) Key(userID, contractID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s/%s", userID, contractID, filename)
}

func (s *memDocuments) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.uploads[key] = data
	return nil
}

func (s *memDocuments) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := s.uploads[key]
	if !ok {
		return nil, fmt.Errorf("no document at %s", key)
	}
	return data, nil
}

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (e *stubExtractor) Extract(_ context.Context, _, _ string) (extract.Result, error) {
	e.calls++
	if e.err != nil {
		return extract.Result{}, e.err
	}
	return extract.Result{FullText: e.text, WordCount: len(strings.Fields(e.text)), PageCount: 1}, nil
}

type captureApprovals struct {
	submitted []negotiation.EmailDraft
}

func (a *captureApprovals) Submit(_ context.Context, userID, contractID, sessionID, reviewerEmail string, draft negotiation.EmailDraft) (*approval.Approval, error) {
	a.submitted = append(a.submitted, draft)
	return &approval.Approval{ID: "approval-1", UserID: userID, ContractID: contractID, SessionID: sessionID, Recipient: reviewerEmail}, nil
}

type recordingAudit struct {
	events []string
}

func (a *recordingAudit) LogContractAnalyzed(_ context.Context, _, _ string, _ float64, _ string, _ int) error {
	a.events = append(a.events, "contract.analyzed")
	return nil
}

func (a *recordingAudit) LogAnalysisFailed(_ context.Context, _, _, _ string) error {
	a.events = append(a.events, "contract.analysis_failed")
	return nil
}

func (a *recordingAudit) LogStrategyPlanned(_ context.Context, _, _, _ string, _ int) error {
	a.events = append(a.events, "negotiation.strategy_planned")
	return nil
}

func (a *recordingAudit) LogDraftCreated(_ context.Context, _, _, _ string, _ int, _, _ string) error {
	a.events = append(a.events, "negotiation.draft_created")
	return nil
}

func (a *recordingAudit) LogResponseProcessed(_ context.Context, _, _, _ string, _, _, _ int, _ string) error {
	a.events = append(a.events, "negotiation.response_processed")
	return nil
}

func (a *recordingAudit) LogSessionClosed(_ context.Context, _, _, _, _ string) error {
	a.events = append(a.events, "negotiation.session_closed")
	return nil
}

type fixture struct {
	orchestrator *Orchestrator
	contracts    *memContracts
	sessions     *memSessions
	approvals    *captureApprovals
	audit        *recordingAudit
	extractor    *stubExtractor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.New("error")
	client := newRoutingLLM()

	drafter := negotiation.NewDrafter(client, "test-model", logger)
	f := &fixture{
		contracts: newMemContracts(),
		sessions:  newMemSessions(),
		approvals: &captureApprovals{},
		audit:     &recordingAudit{},
		extractor: &stubExtractor{text: msaText},
	}
	f.orchestrator = NewOrchestrator(Deps{
		Contracts:     f.contracts,
		Documents:     newMemDocuments(),
		Sessions:      f.sessions,
		Extractor:     f.extractor,
		Scorer:        risk.NewScorer(client, "test-model", 2, time.Second, logger),
		Engine:        recommend.NewEngine(client, nil, "test-model", logger),
		Strategist:    negotiation.NewStrategist(client, "test-model", logger),
		Processor:     negotiation.NewProcessor(client, drafter, "test-model", 0.5, 3, logger),
		Drafter:       drafter,
		Approvals:     f.approvals,
		Audit:         f.audit,
		ReviewerEmail: "legal@example.com",
		Logger:        logger,
	})
	return f
}

func (f *fixture) submitAndAnalyze(t *testing.T) *contract.Contract {
	t.Helper()
	ctx := context.Background()

	c, err := f.orchestrator.SubmitContract(ctx, SubmitInput{
		UserID:   "user-1",
		Title:    "Vendor MSA",
		Filename: "msa.pdf",
		Data:     []byte("%PDF-1.4 test"),
	})
	require.NoError(t, err)

	analyzed, err := f.orchestrator.AnalyzeContract(ctx, c.ID)
	require.NoError(t, err)
	return analyzed
}

func TestAnalyzeContractEndToEnd(t *testing.T) {
	f := newFixture(t)
	c := f.submitAndAnalyze(t)

	assert.Equal(t, contract.StatusNeedsNegotiation, c.Status)
	require.NotNil(t, c.Parsed)
	assert.Equal(t, "MSA", c.Parsed.ContractType)

	require.NotNil(t, c.RiskReport)
	assert.GreaterOrEqual(t, c.RiskReport.OverallScore, 7.0)
	assert.Contains(t, []contract.RiskLevel{contract.RiskHigh, contract.RiskCritical}, c.RiskReport.OverallLevel)

	highTypes := map[contract.ClauseType]bool{}
	for _, clause := range c.RiskReport.HighRisk {
		highTypes[clause.Type] = true
		assert.NotEmpty(t, clause.Recommendations, "high-risk clauses carry alternatives")
	}
	assert.True(t, highTypes[contract.ClauseLiability])
	assert.True(t, highTypes[contract.ClauseTermination])

	require.Len(t, c.RiskReport.MediumRisk, 1)
	assert.Equal(t, contract.ClausePayment, c.RiskReport.MediumRisk[0].Type)

	assert.Contains(t, f.audit.events, "contract.analyzed")
}

func TestAnalyzeContractExtractionFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.orchestrator.SubmitContract(ctx, SubmitInput{UserID: "user-1", Data: []byte("x")})
	require.NoError(t, err)

	f.extractor.err = extract.ErrExtractionFailed
	_, err = f.orchestrator.AnalyzeContract(ctx, c.ID)
	require.ErrorIs(t, err, extract.ErrExtractionFailed)

	stored, err := f.orchestrator.GetContract(ctx, c.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, contract.StatusError, stored.Status)
	assert.NotEmpty(t, stored.StatusMsg)
	assert.Contains(t, f.audit.events, "contract.analysis_failed")
}

func TestAnalyzeContractPlainTextBypassesExtractor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.orchestrator.SubmitContract(ctx, SubmitInput{
		UserID:      "user-1",
		Title:       "Pasted MSA",
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(msaText),
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", c.ContentType)
	assert.Contains(t, c.S3Key, "contract.txt")

	analyzed, err := f.orchestrator.AnalyzeContract(ctx, c.ID)
	require.NoError(t, err)

	assert.Zero(t, f.extractor.calls, "plain text must not go through document extraction")
	assert.Equal(t, contract.StatusNeedsNegotiation, analyzed.Status)
	require.NotNil(t, analyzed.Parsed)
	assert.Equal(t, "MSA", analyzed.Parsed.ContractType)
}

func TestAnalyzeContractNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.orchestrator.AnalyzeContract(context.Background(), "contract-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetContractOwnership(t *testing.T) {
	f := newFixture(t)
	c := f.submitAndAnalyze(t)

	_, err := f.orchestrator.GetContract(context.Background(), c.ID, "someone-else")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestPlanNegotiationOpensRoundOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.submitAndAnalyze(t)

	session, err := f.orchestrator.PlanNegotiation(ctx, PlanInput{
		ContractID:        c.ID,
		UserID:            "user-1",
		Priorities:        negotiation.Priorities{MustHaves: []string{"Liability cap"}},
		CounterpartyEmail: "counsel@vendor.example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, negotiation.SessionAwaitingResponse, session.Status)
	assert.Equal(t, 1, session.CurrentRound)
	require.Len(t, session.Rounds, 1)
	require.Len(t, session.Rounds[0].Requests, 2)
	assert.Equal(t, contract.ClauseLiability, session.Rounds[0].Requests[0].ClauseType)
	assert.Equal(t, 1, session.Rounds[0].Requests[0].Priority)
	require.NotNil(t, session.Rounds[0].Draft)
	assert.Equal(t, "counsel@vendor.example.com", session.Rounds[0].Draft.Recipient)

	require.Len(t, f.approvals.submitted, 1)
	assert.Contains(t, f.audit.events, "negotiation.strategy_planned")
	assert.Contains(t, f.audit.events, "negotiation.draft_created")

	stored, err := f.orchestrator.GetContract(ctx, c.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, contract.StatusNegotiating, stored.Status)
	assert.Equal(t, session.ID, stored.NegotiationSessionID)
}

func TestPlanNegotiationRequiresAnalysis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.orchestrator.SubmitContract(ctx, SubmitInput{UserID: "user-1", Data: []byte("x")})
	require.NoError(t, err)

	_, err = f.orchestrator.PlanNegotiation(ctx, PlanInput{ContractID: c.ID, UserID: "user-1"})
	assert.True(t, IsValidation(err))
}

func TestPlanNegotiationRejectsSecondActiveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.submitAndAnalyze(t)

	_, err := f.orchestrator.PlanNegotiation(ctx, PlanInput{
		ContractID: c.ID, UserID: "user-1", CounterpartyEmail: "counsel@vendor.example.com",
	})
	require.NoError(t, err)

	_, err = f.orchestrator.PlanNegotiation(ctx, PlanInput{
		ContractID: c.ID, UserID: "user-1", CounterpartyEmail: "counsel@vendor.example.com",
	})
	assert.ErrorIs(t, err, negotiation.ErrStateConflict)
}

func TestProcessResponseAdvancesToNextRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.submitAndAnalyze(t)

	session, err := f.orchestrator.PlanNegotiation(ctx, PlanInput{
		ContractID: c.ID, UserID: "user-1", CounterpartyEmail: "counsel@vendor.example.com",
	})
	require.NoError(t, err)

	outcome, err := f.orchestrator.ProcessCounterpartyResponse(ctx, session.ID,
		"We accept the liability cap but cannot commit to the notice period as written.")
	require.NoError(t, err)

	// One of two accepted meets the 0.5 threshold.
	assert.Equal(t, negotiation.NextActionAdvance, outcome.NextAction)
	assert.Equal(t, 1, outcome.RoundNumber)
	require.NotNil(t, outcome.Draft)

	updated, err := f.orchestrator.GetSession(ctx, session.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, negotiation.SessionAwaitingResponse, updated.Status)
	assert.Equal(t, 2, updated.CurrentRound)
	require.Len(t, updated.Rounds, 2)

	// Round 2 carries the countered request forward; the accepted one is done.
	require.Len(t, updated.Rounds[1].Requests, 1)
	assert.Equal(t, contract.ClauseTermination, updated.Rounds[1].Requests[0].ClauseType)
	assert.Equal(t, negotiation.RequestPending, updated.Rounds[1].Requests[0].Status)

	// Draft for round 2 went through the approval gate (round 1 + round 2).
	assert.Len(t, f.approvals.submitted, 2)
	assert.Contains(t, f.audit.events, "negotiation.response_processed")
}

func TestProcessResponseSessionNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.orchestrator.ProcessCounterpartyResponse(context.Background(), "session-missing", "reply")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitContractValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orchestrator.SubmitContract(ctx, SubmitInput{Data: []byte("x")})
	assert.True(t, IsValidation(err))

	_, err = f.orchestrator.SubmitContract(ctx, SubmitInput{UserID: "user-1"})
	assert.True(t, IsValidation(err))
}
