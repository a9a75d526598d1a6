package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/contractguard/contractguard/internal/contract"
)

// Overall-level bands. Deliberately offset from the per-clause weight bands
// (4/7): an overall 5.5 is already HIGH even though a single 5.5 clause is
// only MEDIUM.
const (
	overallMediumFloor   = 3
	overallHighFloor     = 5
	overallCriticalFloor = 7
)

// Aggregate computes the weighted overall score, level, buckets, and summary
// for a set of scored clauses. Every clause lands in exactly one bucket.
func Aggregate(clauses []contract.Clause) contract.RiskReport {
	report := contract.RiskReport{ReportVersion: 1}

	if len(clauses) == 0 {
		report.OverallLevel = contract.RiskUnknown
		report.Summary = "No clauses were identified for analysis."
		return report
	}

	var weightedSum, totalWeight float64
	for _, c := range clauses {
		weight := clauseWeight(c.RiskScore)
		weightedSum += c.RiskScore * weight
		totalWeight += weight

		switch {
		case c.RiskScore >= highWeightFloor:
			report.HighRisk = append(report.HighRisk, c)
		case c.RiskScore >= mediumWeightFloor:
			report.MediumRisk = append(report.MediumRisk, c)
		default:
			report.LowRisk = append(report.LowRisk, c)
		}
	}

	report.OverallScore = math.Round(weightedSum/totalWeight*10) / 10
	report.OverallLevel = OverallLevel(report.OverallScore)
	report.Summary = summarize(&report)
	return report
}

func clauseWeight(score float64) float64 {
	switch {
	case score >= highWeightFloor:
		return 3
	case score >= mediumWeightFloor:
		return 2
	default:
		return 1
	}
}

// OverallLevel maps an aggregate score to its contract-level band.
func OverallLevel(score float64) contract.RiskLevel {
	switch {
	case score >= overallCriticalFloor:
		return contract.RiskCritical
	case score >= overallHighFloor:
		return contract.RiskHigh
	case score >= overallMediumFloor:
		return contract.RiskMedium
	default:
		return contract.RiskLow
	}
}

// summarize renders the executive summary: high-risk clause types with their
// concerns, the medium-risk count, and a top-line recommendation keyed off
// the overall level.
func summarize(report *contract.RiskReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Overall Risk: %s (%.1f/10)\n\n", report.OverallLevel, report.OverallScore)

	if len(report.HighRisk) > 0 {
		fmt.Fprintf(&b, "%d HIGH-RISK clause(s) identified:\n", len(report.HighRisk))
		for _, c := range report.HighRisk {
			fmt.Fprintf(&b, "  - %s: %s\n", c.Type, strings.Join(c.Concerns, ", "))
		}
		b.WriteString("\n")
	}

	if len(report.MediumRisk) > 0 {
		fmt.Fprintf(&b, "%d MEDIUM-RISK clause(s) that could be improved.\n\n", len(report.MediumRisk))
	}

	switch report.OverallLevel {
	case contract.RiskHigh, contract.RiskCritical:
		b.WriteString("RECOMMENDATION: Negotiate key terms before signing.")
	case contract.RiskMedium:
		b.WriteString("RECOMMENDATION: Consider requesting specific improvements.")
	default:
		b.WriteString("RECOMMENDATION: Contract appears reasonable with minor concerns.")
	}

	return b.String()
}
