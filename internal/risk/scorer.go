// Package risk scores contract clauses for business risk and aggregates a
// contract-level report.
package risk

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/llm"
	"github.com/contractguard/contractguard/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var scorerTracer = otel.Tracer("contractguard.internal.risk")

const (
	// Per-clause weight bands: higher-risk clauses count more in the
	// aggregate. Distinct from the overall-level bands below.
	mediumWeightFloor = 4
	highWeightFloor   = 7

	neutralScore = 5
)

// clauseAnalysis is the JSON shape the model is asked to return per clause.
type clauseAnalysis struct {
	RiskScore float64  `json:"risk_score"`
	Concerns  []string `json:"concerns"`
	Impact    string   `json:"impact"`
	Severity  string   `json:"severity"`
	Reasoning string   `json:"reasoning"`
}

// Scorer computes per-clause and overall contract risk.
type Scorer struct {
	client      llm.Client
	modelID     string
	concurrency int
	timeout     time.Duration
	logger      *logging.Logger
}

// NewScorer builds a Scorer. concurrency bounds the clause fan-out so the
// generation service's rate limits are respected.
func NewScorer(client llm.Client, modelID string, concurrency int, timeout time.Duration, logger *logging.Logger) *Scorer {
	if client == nil {
		panic("risk: llm client cannot be nil")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scorer{client: client, modelID: modelID, concurrency: concurrency, timeout: timeout, logger: logger}
}

// Score analyzes every clause and aggregates a report. Per-clause failures
// are isolated: a clause whose analysis fails or does not parse gets the
// neutral default instead of aborting its siblings. The only errors returned
// are context cancellation between clause-level steps.
func (s *Scorer) Score(ctx context.Context, contractID string, clauses []contract.Clause, userCtx contract.UserContext) (contract.RiskReport, error) {
	ctx, span := scorerTracer.Start(ctx, "risk.Score")
	defer span.End()
	span.SetAttributes(attribute.Int("clause_count", len(clauses)))

	scored := make([]contract.Clause, len(clauses))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, clause := range clauses {
		if err := ctx.Err(); err != nil {
			// Cooperative cancellation checkpoint between clause launches.
			wg.Wait()
			return contract.RiskReport{}, err
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, clause contract.Clause) {
			defer wg.Done()
			defer func() { <-sem }()
			scored[i] = s.scoreClause(ctx, clause, userCtx)
		}(i, clause)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return contract.RiskReport{}, err
	}

	report := Aggregate(scored)
	report.ContractID = contractID
	report.AnalyzedAt = time.Now().UTC()
	return report, nil
}

// scoreClause runs one LLM analysis, falling back to the neutral default on
// any failure. In-flight invocations run to completion or timeout.
func (s *Scorer) scoreClause(ctx context.Context, clause contract.Clause, userCtx contract.UserContext) contract.Clause {
	clauseCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Complete(clauseCtx, llm.Prompt(s.modelID, clausePrompt(clause, userCtx), 0.3, 1000))
	if err != nil {
		s.logger.Warn("clause analysis failed, using neutral default",
			"clause_id", clause.ID,
			"clause_type", clause.Type,
			"error", err,
		)
		return applyAnalysis(clause, neutralAnalysis(fmt.Sprintf("Analysis error: %v", err)))
	}

	var analysis clauseAnalysis
	if err := llm.DecodeJSONWindow(resp.Text, &analysis); err != nil {
		s.logger.Warn("clause analysis did not parse, using neutral default",
			"clause_id", clause.ID,
			"clause_type", clause.Type,
		)
		fallback := neutralAnalysis("Unable to parse analysis")
		fallback.Impact = resp.Text
		return applyAnalysis(clause, fallback)
	}

	return applyAnalysis(clause, analysis)
}

func neutralAnalysis(concern string) clauseAnalysis {
	return clauseAnalysis{
		RiskScore: neutralScore,
		Concerns:  []string{concern},
		Impact:    "Unknown",
		Severity:  string(contract.RiskMedium),
	}
}

func applyAnalysis(clause contract.Clause, analysis clauseAnalysis) contract.Clause {
	clause.RiskScore = clampScore(analysis.RiskScore)
	clause.Concerns = analysis.Concerns
	clause.Impact = analysis.Impact
	clause.RiskLevel = severityLevel(analysis.Severity, clause.RiskScore)
	return clause
}

func clampScore(score float64) float64 {
	return math.Max(0, math.Min(10, score))
}

// severityLevel trusts the model's severity label when it is a known level,
// otherwise derives one from the numeric score.
func severityLevel(severity string, score float64) contract.RiskLevel {
	switch contract.RiskLevel(strings.ToUpper(strings.TrimSpace(severity))) {
	case contract.RiskLow:
		return contract.RiskLow
	case contract.RiskMedium:
		return contract.RiskMedium
	case contract.RiskHigh:
		return contract.RiskHigh
	case contract.RiskCritical:
		return contract.RiskCritical
	}
	switch {
	case score >= 10:
		return contract.RiskCritical
	case score >= highWeightFloor:
		return contract.RiskHigh
	case score >= mediumWeightFloor:
		return contract.RiskMedium
	default:
		return contract.RiskLow
	}
}

func clausePrompt(clause contract.Clause, userCtx contract.UserContext) string {
	return fmt.Sprintf(`Analyze this %s clause for business risk:

Clause Text:
%s

User Context:
- Industry: %s
- Company Size: %s
- Risk Tolerance: %s

Provide analysis in JSON format:
{
  "risk_score": 8,
  "concerns": ["Specific concern 1", "Specific concern 2"],
  "impact": "Description of potential business impact",
  "severity": "HIGH",
  "reasoning": "Why this is risky"
}

Risk Score Scale:
1-3: Low risk (standard industry terms)
4-6: Medium risk (somewhat unfavorable but acceptable)
7-9: High risk (significantly unfavorable)
10: Critical risk (could be catastrophic)`,
		clause.Type, clause.Text, userCtx.Industry, userCtx.CompanySize, userCtx.RiskTolerance)
}
