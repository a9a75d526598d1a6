package negotiation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contractguard/contractguard/internal/llm"
	"github.com/contractguard/contractguard/pkg/logging"
	"go.opentelemetry.io/otel/attribute"
)

// NextAction is the recommendation emitted after processing a response.
type NextAction string

const (
	NextActionAdvance    NextAction = "ADVANCE_NEXT_ROUND"
	NextActionCompromise NextAction = "PROPOSE_COMPROMISES"
	NextActionWalkAway   NextAction = "RECOMMEND_WALK_AWAY"
	NextActionApprove    NextAction = "RECOMMEND_APPROVAL"
)

// ResponseOutcome bundles the request status updates, the decision, and any
// drafted next message as the single result of processing one counterparty
// response.
type ResponseOutcome struct {
	UpdatedRequests []Request     `json:"updated_requests"`
	NextAction      NextAction    `json:"next_action"`
	Analysis        string        `json:"analysis,omitempty"`
	Draft           *EmailDraft   `json:"draft,omitempty"`
	SessionStatus   SessionStatus `json:"session_status"`
	RoundNumber     int           `json:"round_number"`
}

// requestClassification is the JSON shape the model returns per request.
type requestClassification struct {
	RequestID   string `json:"request_id"`
	Status      string `json:"status"`
	CounterText string `json:"counter_text,omitempty"`
}

type responseAnalysis struct {
	Classifications []requestClassification `json:"classifications"`
	Analysis        string                  `json:"analysis"`
}

// Processor drives the session state machine as counterparty responses
// arrive. It mutates the session in memory; persistence is the caller's job.
type Processor struct {
	client           llm.Client
	drafter          *Drafter
	modelID          string
	advanceThreshold float64
	maxRounds        int
	logger           *logging.Logger
}

// NewProcessor builds a Processor. drafter may be nil, in which case no next
// message is drafted. advanceThreshold is the acceptance rate required to
// advance a round; values outside (0,1] fall back to 0.5.
func NewProcessor(client llm.Client, drafter *Drafter, modelID string, advanceThreshold float64, maxRounds int, logger *logging.Logger) *Processor {
	if client == nil {
		panic("negotiation: llm client cannot be nil")
	}
	if advanceThreshold <= 0 || advanceThreshold > 1 {
		advanceThreshold = 0.5
	}
	if maxRounds < 1 {
		maxRounds = 3
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{
		client:           client,
		drafter:          drafter,
		modelID:          modelID,
		advanceThreshold: advanceThreshold,
		maxRounds:        maxRounds,
		logger:           logger,
	}
}

// ProcessResponse classifies each outstanding request in the current round
// against the response text, applies one-way status updates, and decides the
// next action. Re-processing a response is idempotent: resolved requests are
// never re-resolved.
func (p *Processor) ProcessResponse(ctx context.Context, session *Session, responseText string) (ResponseOutcome, error) {
	ctx, span := negotiationTracer.Start(ctx, "negotiation.ProcessResponse")
	defer span.End()

	if session == nil {
		return ResponseOutcome{}, fmt.Errorf("negotiation: session required")
	}
	if strings.TrimSpace(responseText) == "" {
		return ResponseOutcome{}, fmt.Errorf("negotiation: response text required")
	}
	if session.Status.Terminal() {
		return ResponseOutcome{}, fmt.Errorf("negotiation: session %s is terminal: %w", session.ID, ErrStateConflict)
	}
	round := session.ActiveRound()
	if round == nil {
		return ResponseOutcome{}, fmt.Errorf("negotiation: session %s has no active round: %w", session.ID, ErrStateConflict)
	}
	span.SetAttributes(attribute.Int("round_number", round.Number))

	if outstanding := round.Outstanding(); len(outstanding) > 0 {
		analysis, err := p.classify(ctx, outstanding, responseText)
		if err != nil {
			return ResponseOutcome{}, err
		}
		p.apply(outstanding, analysis, responseText)
		round.Analysis = analysis.Analysis
	}

	now := time.Now().UTC()
	round.CounterpartyResponse = responseText
	if round.ResponseReceivedAt == nil {
		round.ResponseReceivedAt = &now
	}
	if round.CompletedAt == nil {
		round.CompletedAt = &now
	}
	round.AcceptedRequests, round.RejectedRequests, round.CounteredRequests = partitionByStatus(round.Requests)
	session.recount()

	outcome, err := p.decide(ctx, session, round)
	if err != nil {
		return ResponseOutcome{}, err
	}
	round.NextAction = string(outcome.NextAction)
	session.UpdatedAt = now
	return outcome, nil
}

// classify asks the model which requests were accepted, rejected, or
// countered. An unparsable answer degrades to countering every outstanding
// request so the negotiation can continue.
func (p *Processor) classify(ctx context.Context, outstanding []*Request, responseText string) (responseAnalysis, error) {
	resp, err := p.client.Complete(ctx, llm.Prompt(p.modelID, classificationPrompt(outstanding, responseText), 0.2, 2000))
	if err != nil {
		return responseAnalysis{}, fmt.Errorf("negotiation: response classification failed: %w", err)
	}

	var analysis responseAnalysis
	if err := llm.DecodeJSONWindow(resp.Text, &analysis); err != nil || len(analysis.Classifications) == 0 {
		p.logger.Warn("response classification did not parse, countering outstanding requests")
		fallback := responseAnalysis{Analysis: resp.Text}
		for _, req := range outstanding {
			fallback.Classifications = append(fallback.Classifications, requestClassification{
				RequestID: req.ID,
				Status:    string(RequestCountered),
			})
		}
		return fallback, nil
	}
	return analysis, nil
}

// apply resolves outstanding requests per the classification. Requests the
// model did not mention stay open for the next round.
func (p *Processor) apply(outstanding []*Request, analysis responseAnalysis, responseText string) {
	byID := make(map[string]*Request, len(outstanding))
	for _, req := range outstanding {
		byID[req.ID] = req
	}
	for _, cls := range analysis.Classifications {
		req, ok := byID[cls.RequestID]
		if !ok {
			continue
		}
		status := RequestStatus(strings.ToUpper(cls.Status))
		switch status {
		case RequestAccepted, RequestRejected, RequestCountered:
		default:
			status = RequestCountered
		}
		counterText := cls.CounterText
		if counterText == "" && status != RequestAccepted {
			counterText = responseText
		}
		req.Resolve(status, counterText)
	}
}

// decide picks the next action from the round's resolution counts.
func (p *Processor) decide(ctx context.Context, session *Session, round *Round) (ResponseOutcome, error) {
	outcome := ResponseOutcome{
		UpdatedRequests: append([]Request(nil), round.Requests...),
		Analysis:        round.Analysis,
		RoundNumber:     round.Number,
	}

	total := len(round.Requests)
	accepted := len(round.AcceptedRequests)
	rejected := len(round.RejectedRequests)
	rate := 0.0
	if total > 0 {
		rate = float64(accepted) / float64(total)
	}

	switch {
	case total > 0 && accepted == total:
		if err := session.Transition(SessionCompleted); err != nil {
			return ResponseOutcome{}, err
		}
		if err := session.Transition(SessionAccepted); err != nil {
			return ResponseOutcome{}, err
		}
		session.FinalRecommendation = "All requests accepted. Recommend final approval and signature."
		outcome.NextAction = NextActionApprove

	case round.Number >= p.maxRounds:
		if err := session.Transition(SessionStalled); err != nil {
			return ResponseOutcome{}, err
		}
		session.FinalRecommendation = "Negotiation rounds exhausted without agreement. Recommend walking away or escalating."
		outcome.NextAction = NextActionWalkAway

	case total > 0 && rejected == total:
		if err := session.Transition(SessionInProgress); err != nil {
			return ResponseOutcome{}, err
		}
		outcome.NextAction = NextActionCompromise
		outcome.Draft = p.draftNext(ctx, session, round)

	case rate >= p.advanceThreshold:
		if err := session.Transition(SessionInProgress); err != nil {
			return ResponseOutcome{}, err
		}
		outcome.NextAction = NextActionAdvance
		outcome.Draft = p.draftNext(ctx, session, round)

	default:
		if err := session.Transition(SessionInProgress); err != nil {
			return ResponseOutcome{}, err
		}
		outcome.NextAction = NextActionCompromise
		outcome.Draft = p.draftNext(ctx, session, round)
	}

	outcome.SessionStatus = session.Status
	return outcome, nil
}

// draftNext drafts the next outbound message covering the round's unaccepted
// requests. Drafting is best-effort; a failure leaves the outcome undrafted.
func (p *Processor) draftNext(ctx context.Context, session *Session, round *Round) *EmailDraft {
	if p.drafter == nil || session.CounterpartyEmail == "" {
		return nil
	}
	var remaining []Request
	for _, req := range round.Requests {
		if req.Status != RequestAccepted && req.Status != RequestWithdrawn {
			remaining = append(remaining, req)
		}
	}
	if len(remaining) == 0 {
		return nil
	}
	draft, err := p.drafter.Draft(ctx, session.Strategy.OverallStrategy, remaining, session.CounterpartyEmail, "collaborative")
	if err != nil {
		p.logger.Warn("next round draft failed", "session_id", session.ID, "error", err)
		return nil
	}
	return &draft
}

func partitionByStatus(requests []Request) (accepted, rejected, countered []string) {
	for _, req := range requests {
		switch req.Status {
		case RequestAccepted:
			accepted = append(accepted, req.ID)
		case RequestRejected:
			rejected = append(rejected, req.ID)
		case RequestCountered:
			countered = append(countered, req.ID)
		}
	}
	return accepted, rejected, countered
}

func classificationPrompt(outstanding []*Request, responseText string) string {
	var asks strings.Builder
	for i, req := range outstanding {
		fmt.Fprintf(&asks, "\n%d. request_id: %s\n", i+1, req.ID)
		fmt.Fprintf(&asks, "   Clause: %s\n", req.ClauseType)
		fmt.Fprintf(&asks, "   We proposed: %s\n", req.ProposedText)
	}

	return fmt.Sprintf(`You are analyzing a counterparty's reply in a contract negotiation.

OUR OUTSTANDING REQUESTS:
%s

THEIR RESPONSE:
%s

For each request, decide whether the response ACCEPTED it, REJECTED it, or COUNTERED it with different terms. Return JSON:
{
  "classifications": [
    {"request_id": "...", "status": "ACCEPTED|REJECTED|COUNTERED", "counter_text": "their counter-proposal if any"}
  ],
  "analysis": "Two or three sentences summarizing their position and tone."
}`, asks.String(), responseText)
}
