package recommend

import (
	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/internal/knowledge"
)

// staticExemplars is the built-in reference library used when the knowledge
// corpus cannot be reached.
func staticExemplars(clauseType contract.ClauseType) []knowledge.Exemplar {
	switch clauseType {
	case contract.ClauseLiability:
		return []knowledge.Exemplar{
			{
				Text:   "Provider's total liability under this Agreement shall not exceed the total fees paid by Customer in the 12 months preceding the claim.",
				Score:  0.9,
				Source: "industry_standard",
			},
			{
				Text:   "In no event shall either party be liable for indirect, incidental, special, or consequential damages.",
				Score:  0.85,
				Source: "industry_standard",
			},
		}
	case contract.ClauseIP:
		return []knowledge.Exemplar{
			{
				Text:   "Each party retains all rights, title, and interest in its pre-existing intellectual property. Customer retains ownership of Customer Data.",
				Score:  0.9,
				Source: "industry_standard",
			},
		}
	case contract.ClausePayment:
		return []knowledge.Exemplar{
			{
				Text:   "Customer shall pay all undisputed invoices within 30 days of receipt.",
				Score:  0.9,
				Source: "industry_standard",
			},
		}
	case contract.ClauseTermination:
		return []knowledge.Exemplar{
			{
				Text:   "Either party may terminate this Agreement with 30 days written notice. Customer may terminate immediately for material breach if not cured within 30 days.",
				Score:  0.9,
				Source: "industry_standard",
			},
		}
	case contract.ClauseConfidentiality:
		return []knowledge.Exemplar{
			{
				Text:   "Each party shall protect Confidential Information with the same degree of care used for its own confidential information, but no less than reasonable care.",
				Score:  0.9,
				Source: "industry_standard",
			},
		}
	case contract.ClauseDataProtection:
		return []knowledge.Exemplar{
			{
				Text:   "Provider shall comply with all applicable data protection laws and regulations, including GDPR and CCPA where applicable.",
				Score:  0.9,
				Source: "industry_standard",
			},
		}
	default:
		return nil
	}
}

// templateAlternatives returns deterministic recommendations for clause types
// with a known safe position, or a generic referral when there is none.
func templateAlternatives(clauseType contract.ClauseType) []Alternative {
	switch clauseType {
	case contract.ClauseLiability:
		return []Alternative{
			{
				Priority:           1,
				ProposedText:       "Provider's total liability shall not exceed the fees paid in the 12 months prior to the claim. Neither party shall be liable for indirect, incidental, or consequential damages.",
				Rationale:          "Standard liability cap protects against unlimited exposure",
				RiskReduction:      "3",
				LikelihoodAccepted: LikelihoodHigh,
			},
		}
	case contract.ClausePayment:
		return []Alternative{
			{
				Priority:           1,
				ProposedText:       "Customer shall pay undisputed invoices within 30 days of receipt.",
				Rationale:          "Standard payment terms in the industry",
				RiskReduction:      "4",
				LikelihoodAccepted: LikelihoodHigh,
			},
		}
	case contract.ClauseTermination:
		return []Alternative{
			{
				Priority:           1,
				ProposedText:       "Either party may terminate with 30 days written notice. Either party may terminate immediately for material breach not cured within 30 days.",
				Rationale:          "Mutual termination rights with cure period",
				RiskReduction:      "4",
				LikelihoodAccepted: LikelihoodMedium,
			},
		}
	default:
		return []Alternative{
			{
				Priority:           1,
				ProposedText:       "Consult legal counsel for appropriate clause language.",
				Rationale:          "Unable to generate specific recommendation",
				RiskReduction:      "Unknown",
				LikelihoodAccepted: LikelihoodUnknown,
			},
		}
	}
}
