package negotiation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/llm"
	"github.com/contractguard/contractguard/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var negotiationTracer = otel.Tracer("contractguard.internal.negotiation")

// Priorities are the user's negotiation goals, ordered by importance.
type Priorities struct {
	MustHaves   []string `dynamodbav:"mustHaves" json:"must_haves"`
	NiceToHaves []string `dynamodbav:"niceToHaves" json:"nice_to_haves"`
}

// PlannedRequest is one proposed ask inside a strategy round.
type PlannedRequest struct {
	ClauseType           string `dynamodbav:"clauseType" json:"clause_type"`
	CurrentIssue         string `dynamodbav:"currentIssue" json:"current_issue"`
	Request              string `dynamodbav:"request" json:"request"`
	Rationale            string `dynamodbav:"rationale" json:"rationale"`
	Priority             string `dynamodbav:"priority" json:"priority"`
	AcceptanceLikelihood int    `dynamodbav:"acceptanceLikelihood" json:"acceptance_likelihood"`
}

// RoundPlan describes one planned round of the strategy.
type RoundPlan struct {
	Objective           string           `dynamodbav:"objective" json:"objective"`
	PriorityRequests    []PlannedRequest `dynamodbav:"priorityRequests,omitempty" json:"priority_requests,omitempty"`
	Requests            []PlannedRequest `dynamodbav:"requests,omitempty" json:"requests,omitempty"`
	TalkingPoints       []string         `dynamodbav:"talkingPoints,omitempty" json:"talking_points,omitempty"`
	ExpectedOutcome     string           `dynamodbav:"expectedOutcome,omitempty" json:"expected_outcome,omitempty"`
	ConditionalOn       string           `dynamodbav:"conditionalOn,omitempty" json:"conditional_on,omitempty"`
	CompromisePositions []string         `dynamodbav:"compromisePositions,omitempty" json:"compromise_positions,omitempty"`
	WalkAwayTriggers    []string         `dynamodbav:"walkAwayTriggers,omitempty" json:"walk_away_triggers,omitempty"`
}

// AllRequests returns the round's asks regardless of which field the plan
// populated.
func (p RoundPlan) AllRequests() []PlannedRequest {
	if len(p.PriorityRequests) > 0 {
		return p.PriorityRequests
	}
	return p.Requests
}

// Strategy is an immutable three-round negotiation plan. Round 1 targets
// quick wins, round 2 carries compromises conditional on partial acceptance,
// round 3 states final positions and walk-away triggers.
type Strategy struct {
	Round1             RoundPlan `dynamodbav:"round1" json:"round_1"`
	Round2             RoundPlan `dynamodbav:"round2" json:"round_2"`
	Round3             RoundPlan `dynamodbav:"round3" json:"round_3"`
	OverallStrategy    string    `dynamodbav:"overallStrategy" json:"overall_strategy"`
	EstimatedTimeline  string    `dynamodbav:"estimatedTimeline" json:"estimated_timeline"`
	SuccessProbability int       `dynamodbav:"successProbability" json:"success_probability"`
	CreatedAt          time.Time `dynamodbav:"createdAt" json:"created_at"`
}

// RoundPlanFor returns the plan for a 1-based round number.
func (s Strategy) RoundPlanFor(number int) (RoundPlan, bool) {
	switch number {
	case 1:
		return s.Round1, true
	case 2:
		return s.Round2, true
	case 3:
		return s.Round3, true
	}
	return RoundPlan{}, false
}

// Strategist plans negotiation strategies from a risk report.
type Strategist struct {
	client  llm.Client
	modelID string
	logger  *logging.Logger
}

func NewStrategist(client llm.Client, modelID string, logger *logging.Logger) *Strategist {
	if client == nil {
		panic("negotiation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Strategist{client: client, modelID: modelID, logger: logger}
}

// Plan generates a three-round strategy. Generation errors propagate; an
// unparsable plan degrades to a minimally structured placeholder carrying the
// raw text as the overall approach.
func (s *Strategist) Plan(ctx context.Context, report contract.RiskReport, priorities Priorities, history []Round) (Strategy, error) {
	ctx, span := negotiationTracer.Start(ctx, "negotiation.Plan")
	defer span.End()
	span.SetAttributes(
		attribute.Int("high_risk_count", len(report.HighRisk)),
		attribute.Int("history_rounds", len(history)),
	)

	resp, err := s.client.Complete(ctx, llm.Prompt(s.modelID, strategyPrompt(report, priorities, history), 0.5, 3000))
	if err != nil {
		return Strategy{}, fmt.Errorf("negotiation: strategy generation failed: %w", err)
	}

	var strategy Strategy
	if err := llm.DecodeJSONWindow(resp.Text, &strategy); err != nil {
		s.logger.Warn("strategy output did not parse, using placeholder", "error", err)
		strategy = placeholderStrategy(resp.Text)
	}
	strategy.CreatedAt = time.Now().UTC()
	return strategy, nil
}

func placeholderStrategy(raw string) Strategy {
	return Strategy{
		Round1:             RoundPlan{Objective: "Address high-risk clauses"},
		Round2:             RoundPlan{Objective: "Compromises"},
		Round3:             RoundPlan{Objective: "Final positions"},
		OverallStrategy:    raw,
		EstimatedTimeline:  "2-3 weeks",
		SuccessProbability: 50,
	}
}

func strategyPrompt(report contract.RiskReport, priorities Priorities, history []Round) string {
	type clauseBrief struct {
		Type     contract.ClauseType `json:"type"`
		Concerns []string            `json:"concerns"`
		Impact   string              `json:"impact"`
	}
	briefs := make([]clauseBrief, 0, len(report.HighRisk))
	for _, c := range report.HighRisk {
		briefs = append(briefs, clauseBrief{Type: c.Type, Concerns: c.Concerns, Impact: c.Impact})
	}
	briefJSON, err := json.MarshalIndent(briefs, "", "  ")
	if err != nil {
		briefJSON = []byte("[]")
	}

	var historyContext strings.Builder
	if len(history) > 0 {
		historyContext.WriteString("\n\nPREVIOUS NEGOTIATION ROUNDS:\n")
		for _, round := range history {
			fmt.Fprintf(&historyContext, "\nRound %d:\n", round.Number)
			var asks []string
			for _, req := range round.Requests {
				asks = append(asks, fmt.Sprintf("%s: %s (%s)", req.ClauseType, req.ProposedText, req.Status))
			}
			fmt.Fprintf(&historyContext, "- Requested: %s\n", strings.Join(asks, "; "))
			outcome := round.NextAction
			if outcome == "" {
				outcome = "Unknown"
			}
			fmt.Fprintf(&historyContext, "- Outcome: %s\n", outcome)
		}
	}

	return fmt.Sprintf(`You are an expert negotiation strategist. Plan a multi-round negotiation for this business contract.

CURRENT SITUATION:
Overall Risk Score: %.1f/10
High-Risk Issues: %d
Medium-Risk Issues: %d

HIGH-RISK CLAUSES:
%s

USER PRIORITIES:
Must-Haves: %s
Nice-to-Haves: %s%s

Create a 3-round negotiation strategy in JSON format:
{
  "round_1": {
    "objective": "Get quick wins on high-impact items",
    "priority_requests": [
      {
        "clause_type": "LIABILITY",
        "current_issue": "Unlimited liability",
        "request": "Cap at 12 months of fees",
        "rationale": "Industry standard, high acceptance likelihood",
        "priority": "MUST_HAVE",
        "acceptance_likelihood": 85
      }
    ],
    "talking_points": ["Point 1", "Point 2"],
    "expected_outcome": "Likely to accept 2-3 out of 4 requests"
  },
  "round_2": {
    "objective": "Address remaining concerns with compromises",
    "conditional_on": "Partial acceptance in Round 1",
    "requests": [],
    "compromise_positions": ["If they reject X, offer Y"]
  },
  "round_3": {
    "objective": "Final positions and walk-away conditions",
    "requests": [],
    "walk_away_triggers": ["No liability cap", "Perpetual IP assignment"]
  },
  "overall_strategy": "Lead with highest-impact asks, show flexibility later, know when to walk away.",
  "estimated_timeline": "2-3 weeks",
  "success_probability": 75
}

Strategy principles:
1. Lead with high-impact, likely-to-succeed requests
2. Save compromises for later rounds
3. Maintain deal momentum
4. Know when to walk away`,
		report.OverallScore, len(report.HighRisk), len(report.MediumRisk),
		briefJSON, strings.Join(priorities.MustHaves, ", "), strings.Join(priorities.NiceToHaves, ", "),
		historyContext.String())
}
