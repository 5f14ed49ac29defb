// Package wander is a semantic retrieval engine for travel attractions.
//
// Attractions are embedded from their descriptions and indexed in an
// exhaustive flat vector index; searches rank the entire catalog by cosine
// similarity before applying attribute filters, so a filtered search always
// returns the true top matches. State can be snapshotted to any
// blobstore.BlobStore as a binary vector blob plus a JSON sidecar.
package wander

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/wander/blobstore"
	"github.com/hupe1980/wander/catalog"
	"github.com/hupe1980/wander/embedding"
	"github.com/hupe1980/wander/index/flat"
	"github.com/hupe1980/wander/persistence"
)

// Engine ties the catalog, the flat index and an embedding provider
// together. Safe for concurrent use: reads share a lock, writes are
// exclusive, and the catalog and index always describe the same set of
// attractions.
type Engine struct {
	mu       sync.RWMutex
	provider embedding.Provider
	catalog  *catalog.Catalog
	index    *flat.Flat
	opts     options
}

// New creates an engine. The index dimension is fixed by the provider.
func New(provider embedding.Provider, optFns ...Option) (*Engine, error) {
	opts := applyOptions(optFns)

	idx, err := flat.New(provider.Dimensions())
	if err != nil {
		return nil, translateError(err)
	}

	return &Engine{
		provider: provider,
		catalog:  catalog.New(),
		index:    idx,
		opts:     opts,
	}, nil
}

// Add embeds and ingests a batch of attractions.
//
// The batch is atomic: on any error (duplicate id, embedding failure,
// dimension mismatch) no attraction from the batch is added. Descriptions
// are what gets embedded; the remaining fields are attribute metadata.
func (e *Engine) Add(ctx context.Context, attractions []catalog.Attraction) error {
	start := time.Now()
	err := e.add(ctx, attractions)
	e.opts.metricsCollector.RecordIngest(len(attractions), time.Since(start), err)
	e.opts.logger.LogIngest(ctx, len(attractions), e.Len(), time.Since(start), err)
	return translateError(err)
}

func (e *Engine) add(ctx context.Context, attractions []catalog.Attraction) error {
	if len(attractions) == 0 {
		return nil
	}

	// Reject bad batches before paying for embeddings.
	e.mu.RLock()
	err := e.catalog.CheckBatch(attractions)
	e.mu.RUnlock()
	if err != nil {
		return err
	}

	texts := make([]string, len(attractions))
	for i, a := range attractions {
		texts[i] = a.Description
	}

	vectors, err := embedding.EmbedAll(ctx, e.provider, texts, e.opts.embedChunkSize, e.opts.embedParallelism)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-check under the write lock; a concurrent Add may have taken an id.
	if err := e.catalog.CheckBatch(attractions); err != nil {
		return err
	}
	if err := e.index.Add(vectors); err != nil {
		return err
	}
	// Cannot fail after CheckBatch under the same lock, which keeps the
	// catalog and index in step.
	return e.catalog.Add(attractions)
}

// Search embeds the query, ranks the whole catalog by cosine similarity and
// returns up to limit results that pass the filter, best first. A nil
// filter matches everything. An empty catalog or non-positive limit yields
// no results and no embedding call.
func (e *Engine) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	start := time.Now()
	results, err := e.search(ctx, query, limit, filter)
	e.opts.metricsCollector.RecordSearch(limit, time.Since(start), err)
	e.opts.logger.LogSearch(ctx, limit, len(results), time.Since(start), err)
	return results, translateError(err)
}

func (e *Engine) search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	if e.Len() == 0 {
		return nil, nil
	}

	vec, err := e.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingProvider, err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	hits, err := e.index.RankAll(vec)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, limit)
	for _, hit := range hits {
		rec, ok := e.catalog.ByPosition(hit.Position)
		if !ok {
			continue
		}
		if !filter.Matches(&rec) {
			continue
		}
		results = append(results, SearchResult{Attraction: rec, Similarity: hit.Score})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// ByID returns the attraction with the given id, or ErrNotFound.
func (e *Engine) ByID(id string) (catalog.Attraction, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, err := e.catalog.ByID(id)
	return rec, translateError(err)
}

// ByCity returns all attractions in a city (case-insensitive), in
// insertion order.
func (e *Engine) ByCity(city string) []catalog.Attraction {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.catalog.ByCity(city)
}

// ByCategory returns all attractions in a category (case-insensitive), in
// insertion order.
func (e *Engine) ByCategory(category string) []catalog.Attraction {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.catalog.ByCategory(category)
}

// Statistics returns aggregate catalog statistics.
func (e *Engine) Statistics() catalog.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.catalog.Stats()
}

// Len returns the number of indexed attractions.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.catalog.Len()
}

// Dimension returns the fixed vector dimension of the index.
func (e *Engine) Dimension() int {
	return e.index.Dimension()
}

// SaveSnapshot persists the full engine state under the given snapshot
// name, as a vector blob plus JSON sidecar.
func (e *Engine) SaveSnapshot(ctx context.Context, name string) error {
	start := time.Now()
	err := e.saveSnapshot(ctx, name)
	e.opts.metricsCollector.RecordSnapshot(time.Since(start), err)
	e.opts.logger.LogSnapshot(ctx, name, e.Len(), err)
	return translateError(err)
}

func (e *Engine) saveSnapshot(ctx context.Context, name string) error {
	snap, err := e.snapshotter()
	if err != nil {
		return err
	}

	e.mu.RLock()
	state := &persistence.State{
		Dimension:    e.index.Dimension(),
		Vectors:      e.index.Vectors(),
		Attractions:  e.catalog.Records(),
		IDToPosition: e.catalog.IDToPosition(),
	}
	e.mu.RUnlock()

	return snap.Save(ctx, name, state)
}

// LoadSnapshot replaces the engine state with a previously saved snapshot.
//
// Loading fails closed: a corrupt or mismatched artifact pair leaves the
// current state untouched. The snapshot dimension must match the
// provider's.
func (e *Engine) LoadSnapshot(ctx context.Context, name string) error {
	start := time.Now()
	err := e.loadSnapshot(ctx, name)
	e.opts.metricsCollector.RecordRestore(time.Since(start), err)
	e.opts.logger.LogRestore(ctx, name, e.Len(), err)
	return translateError(err)
}

func (e *Engine) loadSnapshot(ctx context.Context, name string) error {
	snap, err := e.snapshotter()
	if err != nil {
		return err
	}

	state, err := snap.Load(ctx, name)
	if err != nil {
		return err
	}
	if state.Dimension != e.provider.Dimensions() {
		return &ErrDimensionMismatch{Expected: e.provider.Dimensions(), Actual: state.Dimension}
	}

	cat, err := catalog.Restore(state.Attractions, state.IDToPosition)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	idx, err := flat.Restore(state.Dimension, state.Vectors)
	if err != nil {
		return err
	}
	if cat.Len() != idx.Len() {
		return fmt.Errorf("%w: %d attractions for %d vectors", ErrCorruptSnapshot, cat.Len(), idx.Len())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.catalog = cat
	e.index = idx
	return nil
}

func (e *Engine) snapshotter() (*persistence.Snapshotter, error) {
	store := e.opts.store
	if store == nil {
		local, err := blobstore.NewLocalStore(".")
		if err != nil {
			return nil, err
		}
		store = local
	}
	return persistence.NewSnapshotter(store,
		persistence.WithCodec(e.opts.codec),
		persistence.WithCompression(e.opts.compression),
		persistence.WithVersioned(e.opts.versioned),
	), nil
}
