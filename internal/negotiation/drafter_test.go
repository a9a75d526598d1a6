package negotiation

import (
	"context"
	"errors"
	"testing"

	"github.com/contractguard/contractguard/internal/contract"
	"github.com/contractguard/contractguard/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftRequests(n int) []Request {
	reqs := make([]Request, n)
	for i := range reqs {
		reqs[i] = Request{
			ID:           "req",
			ClauseType:   contract.ClauseLiability,
			OriginalText: "Unlimited liability",
			ProposedText: "Cap at 12 months of fees",
			Rationale:    "Industry standard",
		}
	}
	return reqs
}

func TestDraftParsesStructuredEmail(t *testing.T) {
	client := &capturingLLM{response: `{
  "subject": "Proposed Contract Adjustments",
  "body": "Dear team, we would like to discuss a few changes.",
  "key_points": ["liability cap"],
  "tone_check": "collaborative",
  "word_count": 12
}`}
	drafter := NewDrafter(client, "model-id", logging.Default())

	draft, err := drafter.Draft(context.Background(), "Lead with liability.", draftRequests(2), "legal@counterparty.example", "collaborative")
	require.NoError(t, err)
	assert.Equal(t, "Proposed Contract Adjustments", draft.Subject)
	assert.Equal(t, "legal@counterparty.example", draft.Recipient)
	assert.False(t, draft.GeneratedAt.IsZero())
	assert.Contains(t, client.lastReq.Messages[0].Content, "Cap at 12 months of fees")
}

func TestDraftLimitsInlinedRequests(t *testing.T) {
	client := &capturingLLM{response: `{"subject": "s", "body": "b"}`}
	drafter := NewDrafter(client, "model-id", logging.Default())

	_, err := drafter.Draft(context.Background(), "", draftRequests(8), "legal@counterparty.example", "")
	require.NoError(t, err)

	prompt := client.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "5. LIABILITY:")
	assert.NotContains(t, prompt, "6. LIABILITY:")
}

func TestDraftUnparsableOutputKeepsRawBody(t *testing.T) {
	client := &capturingLLM{response: "Dear counterparty, we propose the following changes..."}
	drafter := NewDrafter(client, "model-id", logging.Default())

	draft, err := drafter.Draft(context.Background(), "", draftRequests(1), "legal@counterparty.example", "firm")
	require.NoError(t, err)
	assert.Equal(t, "Contract Review - Requested Changes", draft.Subject)
	assert.Equal(t, client.response, draft.Body)
	assert.Equal(t, "firm", draft.ToneCheck)
	assert.Positive(t, draft.WordCount)
}

func TestDraftValidation(t *testing.T) {
	client := &capturingLLM{response: "{}"}
	drafter := NewDrafter(client, "model-id", logging.Default())

	_, err := drafter.Draft(context.Background(), "", draftRequests(1), "", "")
	require.Error(t, err)

	_, err = drafter.Draft(context.Background(), "", nil, "legal@counterparty.example", "")
	require.Error(t, err)
}

func TestDraftGenerationErrorPropagates(t *testing.T) {
	client := &capturingLLM{err: errors.New("model unavailable")}
	drafter := NewDrafter(client, "model-id", logging.Default())

	_, err := drafter.Draft(context.Background(), "", draftRequests(1), "legal@counterparty.example", "")
	require.Error(t, err)
}
