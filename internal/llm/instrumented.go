package llm

import "context"

// CallObserver receives the outcome of every model invocation.
type CallObserver interface {
	ObserveLLMCall(provider, status string)
}

// InstrumentedClient counts completions per provider. It sits directly on a
// provider client, inside the retry and fallback decorators, so every attempt
// is counted.
type InstrumentedClient struct {
	inner    Client
	provider string
	observer CallObserver
}

// NewInstrumentedClient wraps inner. observer may be nil, in which case the
// wrapper is a passthrough.
func NewInstrumentedClient(inner Client, provider string, observer CallObserver) *InstrumentedClient {
	if inner == nil {
		panic("llm: inner client cannot be nil")
	}
	return &InstrumentedClient{inner: inner, provider: provider, observer: observer}
}

func (c *InstrumentedClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := c.inner.Complete(ctx, req)
	if c.observer != nil {
		c.observer.ObserveLLMCall(c.provider, callStatus(err))
	}
	return resp, err
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsRateLimited(err):
		return "throttled"
	default:
		return "error"
	}
}
