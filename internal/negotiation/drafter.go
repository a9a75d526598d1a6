package negotiation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contractguard/contractguard/internal/llm"
	"github.com/contractguard/contractguard/pkg/logging"
)

const maxRequestsPerEmail = 5

// EmailDraft is a generated outbound negotiation message. Drafts are never
// sent directly; they go through the human approval gate first.
type EmailDraft struct {
	Subject     string    `dynamodbav:"subject" json:"subject"`
	Body        string    `dynamodbav:"body" json:"body"`
	KeyPoints   []string  `dynamodbav:"keyPoints,omitempty" json:"key_points,omitempty"`
	ToneCheck   string    `dynamodbav:"toneCheck,omitempty" json:"tone_check,omitempty"`
	WordCount   int       `dynamodbav:"wordCount,omitempty" json:"word_count,omitempty"`
	Recipient   string    `dynamodbav:"recipient" json:"recipient"`
	GeneratedAt time.Time `dynamodbav:"generatedAt" json:"generated_at"`
}

// Drafter writes negotiation emails from a strategy and its open requests.
type Drafter struct {
	client  llm.Client
	modelID string
	logger  *logging.Logger
}

func NewDrafter(client llm.Client, modelID string, logger *logging.Logger) *Drafter {
	if client == nil {
		panic("negotiation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Drafter{client: client, modelID: modelID, logger: logger}
}

// Draft generates an outbound email covering up to five requests. An
// unparsable generation keeps the raw text as the body under a stock subject.
func (d *Drafter) Draft(ctx context.Context, overallStrategy string, requests []Request, recipient, tone string) (EmailDraft, error) {
	if recipient == "" {
		return EmailDraft{}, fmt.Errorf("negotiation: recipient required")
	}
	if len(requests) == 0 {
		return EmailDraft{}, fmt.Errorf("negotiation: at least one request required")
	}
	if tone == "" {
		tone = "collaborative"
	}

	resp, err := d.client.Complete(ctx, llm.Prompt(d.modelID, emailPrompt(overallStrategy, requests, recipient, tone), 0.6, 2000))
	if err != nil {
		return EmailDraft{}, fmt.Errorf("negotiation: email generation failed: %w", err)
	}

	var draft EmailDraft
	if err := llm.DecodeJSONWindow(resp.Text, &draft); err != nil || draft.Body == "" {
		d.logger.Warn("email draft did not parse, keeping raw body", "recipient", recipient)
		draft = EmailDraft{
			Subject:   "Contract Review - Requested Changes",
			Body:      resp.Text,
			ToneCheck: tone,
			WordCount: len(strings.Fields(resp.Text)),
		}
	}
	draft.Recipient = recipient
	draft.GeneratedAt = time.Now().UTC()
	return draft, nil
}

func emailPrompt(overallStrategy string, requests []Request, recipient, tone string) string {
	if overallStrategy == "" {
		overallStrategy = "N/A"
	}

	var asks strings.Builder
	for i, req := range requests {
		if i >= maxRequestsPerEmail {
			break
		}
		fmt.Fprintf(&asks, "\n%d. %s:\n", i+1, req.ClauseType)
		fmt.Fprintf(&asks, "   Current: %s\n", firstNonEmpty(req.OriginalText, "N/A"))
		fmt.Fprintf(&asks, "   Proposed: %s\n", firstNonEmpty(req.ProposedText, "N/A"))
		fmt.Fprintf(&asks, "   Rationale: %s\n", firstNonEmpty(req.Rationale, "N/A"))
	}

	return fmt.Sprintf(`Draft a professional business negotiation email.

RECIPIENT: %s
TONE: %s (professional, collaborative, firm but friendly)

NEGOTIATION STRATEGY CONTEXT:
%s

SPECIFIC REQUESTS:
%s

Email requirements:
- Professional subject line
- Friendly opening (acknowledge relationship)
- Clear statement of purpose
- Specific requested changes with brief rationale
- Emphasize mutual benefit
- Invitation to discuss
- Professional closing
- Keep under 300 words

Return JSON format:
{
  "subject": "Subject line here",
  "body": "Full email body here",
  "key_points": ["Point 1", "Point 2"],
  "tone_check": "collaborative",
  "word_count": 250
}`, recipient, tone, overallStrategy, asks.String())
}

func firstNonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
