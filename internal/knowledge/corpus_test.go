package knowledge

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/contractguard/contractguard/internal/contract"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCorpus(t *testing.T) (*RedisCorpus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCorpus(client), mr
}

func TestRetrieveOrdersByScore(t *testing.T) {
	corpus, _ := newTestCorpus(t)
	ctx := context.Background()

	err := corpus.Append(ctx, contract.ClauseLiability, []Exemplar{
		{Text: "low relevance", Score: 0.3, Source: "playbook-a"},
		{Text: "high relevance", Score: 0.9, Source: "playbook-b"},
		{Text: "mid relevance", Score: 0.6, Source: "playbook-c"},
	})
	require.NoError(t, err)

	got, err := corpus.Retrieve(ctx, Query{ClauseType: contract.ClauseLiability}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "high relevance", got[0].Text)
	assert.Equal(t, "mid relevance", got[1].Text)
}

func TestRetrieveBoostsIndustryMatch(t *testing.T) {
	corpus, _ := newTestCorpus(t)
	ctx := context.Background()

	err := corpus.Append(ctx, contract.ClausePayment, []Exemplar{
		{Text: "generic net 30", Score: 0.8, Source: "playbook-a"},
		{Text: "saas net 45", Score: 0.5, Source: "playbook-b", Industry: "Technology"},
	})
	require.NoError(t, err)

	got, err := corpus.Retrieve(ctx, Query{ClauseType: contract.ClausePayment, Industry: "technology"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "saas net 45", got[0].Text)
}

func TestRetrieveEmptyCorpusIsUnavailable(t *testing.T) {
	corpus, _ := newTestCorpus(t)

	_, err := corpus.Retrieve(context.Background(), Query{ClauseType: contract.ClauseIP}, 3)
	require.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestRetrieveDownServerIsUnavailable(t *testing.T) {
	corpus, mr := newTestCorpus(t)
	require.NoError(t, corpus.Append(context.Background(), contract.ClauseIP, []Exemplar{
		{Text: "ip carve-out", Score: 0.7, Source: "playbook-a"},
	}))
	mr.Close()

	_, err := corpus.Retrieve(context.Background(), Query{ClauseType: contract.ClauseIP}, 3)
	require.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestRetrieveSkipsCorruptEntries(t *testing.T) {
	corpus, mr := newTestCorpus(t)
	ctx := context.Background()

	mr.Lpush(corpusKey(contract.ClauseTermination), "{not json")
	require.NoError(t, corpus.Append(ctx, contract.ClauseTermination, []Exemplar{
		{Text: "mutual termination for convenience", Score: 0.9, Source: "playbook-a"},
	}))

	got, err := corpus.Retrieve(ctx, Query{ClauseType: contract.ClauseTermination}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mutual termination for convenience", got[0].Text)
}
