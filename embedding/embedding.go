// Package embedding defines the text-embedding provider contract consumed
// by the retrieval engine, plus a few provider implementations and wrappers.
//
// All vectors returned by a single Provider instance share the same
// dimensionality; the engine fixes its index dimension from Dimensions() at
// construction time.
package embedding

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// Implementations must be safe for concurrent use. Retry and timeout policy
// belongs to the provider (or a wrapper around it), not to the engine.
type Provider interface {
	// Embed computes the embedding vector for a single text string.
	// Returns a slice of length Dimensions(), or an error if the backend
	// call fails or ctx is cancelled.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes embedding vectors for a slice of texts in a
	// single backend call where the backend supports it. The i-th result
	// corresponds to texts[i]. On error no partial results are returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector produced by
	// this provider.
	Dimensions() int
}
