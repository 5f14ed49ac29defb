package embedding

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"

	"github.com/hupe1980/wander/distance"
)

// Stub is a deterministic, offline Provider for tests and examples.
//
// Each text is hashed to seed a PRNG that fills a unit-length vector, so
// the same text always embeds to the same vector while distinct texts are
// near-orthogonal in expectation. It carries no semantic meaning.
type Stub struct {
	dimension int
}

var _ Provider = (*Stub)(nil)

// NewStub creates a stub provider with the given dimension.
func NewStub(dimension int) *Stub {
	return &Stub{dimension: dimension}
}

// Embed returns the deterministic pseudo-embedding for text.
func (s *Stub) Embed(_ context.Context, text string) ([]float32, error) {
	if s.dimension <= 0 {
		return nil, errors.New("embedding: stub dimension must be positive")
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec

	v := make([]float32, s.dimension)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	if !distance.NormalizeL2InPlace(v) {
		// All-zero draws are not possible with a normal distribution,
		// but fail loudly rather than return a zero vector.
		return nil, errors.New("embedding: stub produced zero vector")
	}
	return v, nil
}

// EmbedBatch embeds each text independently.
func (s *Stub) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the configured vector dimension.
func (s *Stub) Dimensions() int { return s.dimension }
