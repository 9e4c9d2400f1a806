package providers

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate serializes calls to a provider so that consecutive calls start at
// least interval apart, and bounds each call with a timeout. One Gate is
// shared by every worker talking to the same provider.
type Gate struct {
	next    Provider
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGate wraps next. A zero interval disables spacing and a zero timeout
// leaves calls bounded only by the caller's context.
func NewGate(next Provider, interval, timeout time.Duration) *Gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
	}
}

// ExtractText waits for the gate, then calls the wrapped provider
func (g *Gate) ExtractText(ctx context.Context, config Config) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	return g.next.ExtractText(ctx, config)
}
