// Package recommend proposes alternative clause language for risky clauses,
// grounded on retrieved reference exemplars.
package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/knowledge"
	"github.com/contractguard/contractguard/internal/llm"
	"github.com/contractguard/contractguard/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var recommendTracer = otel.Tracer("contractguard.internal.recommend")

// Likelihood the counterparty accepts a proposed alternative.
const (
	LikelihoodHigh    = "HIGH"
	LikelihoodMedium  = "MEDIUM"
	LikelihoodLow     = "LOW"
	LikelihoodUnknown = "UNKNOWN"
)

const (
	retrievalTopK     = 5
	exemplarsInPrompt = 3
)

// Alternative is one proposed replacement for a clause, ordered by priority:
// 1 is the aggressive position, 3 the minimal acceptable compromise.
type Alternative struct {
	Priority           int    `json:"priority"`
	ProposedText       string `json:"proposed_text"`
	Rationale          string `json:"rationale"`
	RiskReduction      string `json:"risk_reduction"`
	LikelihoodAccepted string `json:"likelihood_accepted"`
}

type recommendations struct {
	Recommendations []Alternative `json:"recommendations"`
}

// Engine generates clause alternatives. Retrieval failures fall back to the
// built-in exemplar library; generation or parse failures fall back to
// deterministic templates. Recommend never returns an empty set.
type Engine struct {
	client    llm.Client
	retriever knowledge.Retriever
	modelID   string
	logger    *logging.Logger
}

// NewEngine builds an Engine. retriever may be nil; the static exemplar
// library is used in that case.
func NewEngine(client llm.Client, retriever knowledge.Retriever, modelID string, logger *logging.Logger) *Engine {
	if client == nil {
		panic("recommend: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{client: client, retriever: retriever, modelID: modelID, logger: logger}
}

// Recommend returns exactly three alternatives for the clause when generation
// succeeds (aggressive, moderate, compromise), or a deterministic fallback.
func (e *Engine) Recommend(ctx context.Context, clause contract.Clause, userCtx contract.UserContext) ([]Alternative, error) {
	ctx, span := recommendTracer.Start(ctx, "recommend.Recommend")
	defer span.End()
	span.SetAttributes(attribute.String("clause_type", string(clause.Type)))

	exemplars := e.exemplars(ctx, clause.Type, userCtx.Industry)

	resp, err := e.client.Complete(ctx, llm.Prompt(e.modelID, buildPrompt(clause, userCtx, exemplars), 0.5, 2000))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn("recommendation generation failed, using templates",
			"clause_id", clause.ID, "error", err)
		return templateAlternatives(clause.Type), nil
	}

	var parsed recommendations
	if err := llm.DecodeJSONWindow(resp.Text, &parsed); err != nil || len(parsed.Recommendations) == 0 {
		e.logger.Warn("recommendation output did not parse, using templates",
			"clause_id", clause.ID)
		return templateAlternatives(clause.Type), nil
	}
	return parsed.Recommendations, nil
}

// exemplars retrieves the top reference clauses for the prompt, falling back
// to the static library when retrieval is unavailable.
func (e *Engine) exemplars(ctx context.Context, clauseType contract.ClauseType, industry string) []knowledge.Exemplar {
	if e.retriever == nil {
		return staticExemplars(clauseType)
	}
	results, err := e.retriever.Retrieve(ctx, knowledge.Query{ClauseType: clauseType, Industry: industry}, retrievalTopK)
	if err != nil {
		e.logger.Warn("exemplar retrieval unavailable, using static library",
			"clause_type", clauseType, "error", err)
		return staticExemplars(clauseType)
	}
	if len(results) > exemplarsInPrompt {
		results = results[:exemplarsInPrompt]
	}
	return results
}

func buildPrompt(clause contract.Clause, userCtx contract.UserContext, exemplars []knowledge.Exemplar) string {
	var kb strings.Builder
	for i, ex := range exemplars {
		if i >= exemplarsInPrompt {
			break
		}
		if i > 0 {
			kb.WriteString("\n\n")
		}
		fmt.Fprintf(&kb, "Example %d (relevance: %.2f):\n%s", i+1, ex.Score, ex.Text)
	}

	text := clause.FullText
	if text == "" {
		text = clause.Text
	}

	return fmt.Sprintf(`You are a contract negotiation expert. Analyze this %s clause and provide alternative language.

Current Clause:
%s

Risk Score: %.0f/10
Concerns: %s

User Context:
- Industry: %s
- Company Size: %s
- Risk Tolerance: %s

Industry Standard Examples:
%s

Provide 3 alternative clause recommendations in JSON format:
{
  "recommendations": [
    {
      "priority": 1,
      "proposed_text": "Full alternative clause text here",
      "rationale": "Why this is better",
      "risk_reduction": "Expected risk score after change (0-10)",
      "likelihood_accepted": "HIGH/MEDIUM/LOW - likelihood counterparty accepts"
    }
  ]
}

Make recommendations progressively:
1. Ideal/aggressive position (might face pushback)
2. Moderate position (balanced)
3. Minimal acceptable position (compromise)`,
		clause.Type, text, clause.RiskScore, strings.Join(clause.Concerns, ", "),
		userCtx.Industry, userCtx.CompanySize, userCtx.RiskTolerance, kb.String())
}
