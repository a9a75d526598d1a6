// Package knowledge stores and retrieves reference clause language used to
// ground recommendation generation.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/contractguard/contractguard/internal/contract"
	"github.com/redis/go-redis/v9"
)

const corpusKeyPrefix = "kb:clauses:"

// ErrRetrievalUnavailable signals the corpus cannot be reached; callers fall
// back to their static exemplar libraries.
var ErrRetrievalUnavailable = errors.New("knowledge: retrieval unavailable")

// Exemplar is one reference clause with its relevance score and provenance.
type Exemplar struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Source   string  `json:"source"`
	Industry string  `json:"industry,omitempty"`
}

// Query selects exemplars for a clause type in a given industry.
type Query struct {
	ClauseType contract.ClauseType
	Industry   string
}

// Retriever is the narrow retrieval interface the recommendation engine uses.
type Retriever interface {
	Retrieve(ctx context.Context, q Query, topK int) ([]Exemplar, error)
}

// RedisCorpus stores exemplars in Redis lists keyed by clause type.
type RedisCorpus struct {
	client *redis.Client
}

func NewRedisCorpus(client *redis.Client) *RedisCorpus {
	if client == nil {
		panic("knowledge: redis client cannot be nil")
	}
	return &RedisCorpus{client: client}
}

// Append adds exemplars to the corpus for a clause type.
func (c *RedisCorpus) Append(ctx context.Context, clauseType contract.ClauseType, exemplars []Exemplar) error {
	if len(exemplars) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(exemplars))
	for _, e := range exemplars {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("knowledge: marshal exemplar: %w", err)
		}
		args = append(args, data)
	}
	if err := c.client.RPush(ctx, corpusKey(clauseType), args...).Err(); err != nil {
		return fmt.Errorf("knowledge: failed to push exemplars: %w", err)
	}
	return nil
}

// Retrieve returns the topK exemplars for the query, best score first.
// Exemplars tagged with the query's industry rank ahead of generic ones.
func (c *RedisCorpus) Retrieve(ctx context.Context, q Query, topK int) ([]Exemplar, error) {
	raw, err := c.client.LRange(ctx, corpusKey(q.ClauseType), 0, -1).Result()
	if err != nil {
		return nil, errors.Join(ErrRetrievalUnavailable, err)
	}
	if len(raw) == 0 {
		return nil, ErrRetrievalUnavailable
	}

	exemplars := make([]Exemplar, 0, len(raw))
	for _, item := range raw {
		var e Exemplar
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		exemplars = append(exemplars, e)
	}
	if len(exemplars) == 0 {
		return nil, ErrRetrievalUnavailable
	}

	industry := strings.ToLower(strings.TrimSpace(q.Industry))
	sort.SliceStable(exemplars, func(i, j int) bool {
		return effectiveScore(exemplars[i], industry) > effectiveScore(exemplars[j], industry)
	})

	if topK > 0 && len(exemplars) > topK {
		exemplars = exemplars[:topK]
	}
	return exemplars, nil
}

func effectiveScore(e Exemplar, industry string) float64 {
	if industry != "" && strings.ToLower(e.Industry) == industry {
		return e.Score + 1
	}
	return e.Score
}

func corpusKey(clauseType contract.ClauseType) string {
	return corpusKeyPrefix + string(clauseType)
}
