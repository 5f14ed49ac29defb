package embedding

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Provider with a token-bucket rate limit on backend
// calls. One token is spent per embedded text, so a batch of n texts waits
// for n tokens before the underlying call is made.
type RateLimited struct {
	provider Provider
	limiter  *rate.Limiter
}

var _ Provider = (*RateLimited)(nil)

// NewRateLimited creates a rate-limited provider. limit is texts per second
// and burst is the bucket size; burst also caps how many tokens a single
// batch can consume at once, larger batches drain the bucket in chunks.
func NewRateLimited(provider Provider, limit rate.Limit, burst int) *RateLimited {
	return &RateLimited{
		provider: provider,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Embed waits for one token, then delegates.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Embed(ctx, text)
}

// EmbedBatch waits for one token per text, then delegates.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	remaining := len(texts)
	for remaining > 0 {
		n := remaining
		if n > r.limiter.Burst() {
			n = r.limiter.Burst()
		}
		if err := r.limiter.WaitN(ctx, n); err != nil {
			return nil, err
		}
		remaining -= n
	}
	return r.provider.EmbedBatch(ctx, texts)
}

// Dimensions delegates to the wrapped provider.
func (r *RateLimited) Dimensions() int { return r.provider.Dimensions() }
