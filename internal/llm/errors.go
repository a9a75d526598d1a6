package llm

import (
	"context"
	"errors"
	"math/rand"
	"time"

	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// ErrRateLimited signals the provider throttled the request; callers should
// retry the failing unit (one clause, one classification) with backoff, not
// the whole batch.
var ErrRateLimited = errors.New("llm: rate limited")

// IsRateLimited reports whether err is a provider throttling condition.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var throttled *brtypes.ThrottlingException
	return errors.As(err, &throttled)
}

// RetryingClient retries throttled completions with exponential backoff.
// Non-throttling errors are returned immediately.
type RetryingClient struct {
	inner       Client
	maxAttempts int
	baseDelay   time.Duration
}

func NewRetryingClient(inner Client, maxAttempts int, baseDelay time.Duration) *RetryingClient {
	if inner == nil {
		panic("llm: inner client cannot be nil")
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryingClient{inner: inner, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

func (c *RetryingClient) Complete(ctx context.Context, req Request) (Response, error) {
	var lastErr error
	delay := c.baseDelay
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			// Full jitter keeps synchronized clause workers from thundering.
			sleep := time.Duration(rand.Int63n(int64(delay)) + 1)
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(sleep):
			}
			delay *= 2
		}

		resp, err := c.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRateLimited(err) {
			return Response{}, err
		}
		lastErr = err
	}
	return Response{}, lastErr
}
