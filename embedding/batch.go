package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChunkSize is the number of texts sent per backend call when
	// embedding large ingestion batches.
	DefaultChunkSize = 64

	// DefaultParallelism bounds the number of concurrent backend calls.
	DefaultParallelism = 4
)

// EmbedAll embeds texts in chunks of chunkSize using at most parallelism
// concurrent EmbedBatch calls. The i-th result corresponds to texts[i].
//
// Any chunk failure cancels the remaining chunks and no partial results are
// returned; ingestion is all-or-nothing further up the stack, so there is
// no value in keeping half an embedding batch.
func EmbedAll(ctx context.Context, provider Provider, texts []string, chunkSize, parallelism int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	out := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for start := 0; start < len(texts); start += chunkSize {
		end := min(start+chunkSize, len(texts))
		g.Go(func() error {
			vecs, err := provider.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embedding: provider returned %d vectors for %d texts", len(vecs), end-start)
			}
			copy(out[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
