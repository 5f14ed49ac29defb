// Package flat provides an exhaustive (non-approximate) inner-product index
// over L2-normalized vectors.
//
// The index recomputes every similarity on each query. That is a deliberate
// design choice at the engine's intended scale (up to the low hundreds of
// thousands of vectors): downstream filtered top-k is only correct when the
// ranking covers the complete index, and an approximate scan could silently
// drop true matches that rank low before filtering.
package flat

import (
	"cmp"
	"slices"

	"github.com/hupe1980/wander/distance"
	"github.com/hupe1980/wander/index"
)

// Flat is an append-only flat index. Vectors are normalized to unit length
// on insert, so the inner product against a normalized query equals cosine
// similarity.
//
// Flat is not safe for concurrent use; the owning engine serializes access
// with a shared-read/exclusive-write discipline.
type Flat struct {
	dimension int
	vectors   [][]float32
}

// New creates a new flat index with the given fixed dimension.
// The dimension is immutable for the lifetime of the index.
func New(dimension int) (*Flat, error) {
	if dimension <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: dimension}
	}
	return &Flat{dimension: dimension}, nil
}

// Restore rebuilds a flat index from previously persisted vectors.
// The vectors are trusted to be unit length already and are stored verbatim,
// so a save/load round trip reproduces bit-identical rankings. Dimensions
// are still validated.
func Restore(dimension int, vectors [][]float32) (*Flat, error) {
	if dimension <= 0 {
		return nil, &index.ErrInvalidDimension{Dimension: dimension}
	}
	for _, v := range vectors {
		if len(v) != dimension {
			return nil, &index.ErrDimensionMismatch{Expected: dimension, Actual: len(v)}
		}
	}
	return &Flat{dimension: dimension, vectors: vectors}, nil
}

// Dimension returns the fixed vector dimensionality of the index.
func (f *Flat) Dimension() int { return f.dimension }

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Vector returns the stored (normalized) vector at the given position.
// The returned slice must not be modified.
func (f *Flat) Vector(position uint32) ([]float32, bool) {
	if int(position) >= len(f.vectors) {
		return nil, false
	}
	return f.vectors[position], true
}

// Vectors returns all stored vectors in insertion order.
// The returned slice and its contents must not be modified.
func (f *Flat) Vectors() [][]float32 { return f.vectors }

// Validate checks that every vector in the batch can be inserted.
// It reports the first offending vector without modifying the index.
func (f *Flat) Validate(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) == 0 {
			return index.ErrEmptyVector
		}
		if len(v) != f.dimension {
			return &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(v)}
		}
	}
	return nil
}

// Add normalizes and appends a batch of vectors in order.
//
// The batch is atomic: if any vector has the wrong dimension or zero norm,
// nothing is appended and the index is unchanged.
func (f *Flat) Add(vectors [][]float32) error {
	if err := f.Validate(vectors); err != nil {
		return err
	}

	normalized := make([][]float32, 0, len(vectors))
	for _, v := range vectors {
		n, ok := distance.NormalizeL2Copy(v)
		if !ok {
			return index.ErrZeroVector
		}
		normalized = append(normalized, n)
	}

	f.vectors = append(f.vectors, normalized...)
	return nil
}

// RankAll normalizes the query and ranks the entire index by cosine
// similarity, scores descending. Ties are broken by ascending position so
// the ranking is deterministic and reproducible.
func (f *Flat) RankAll(query []float32) ([]index.Hit, error) {
	if len(query) == 0 {
		return nil, index.ErrEmptyVector
	}
	if len(query) != f.dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.dimension, Actual: len(query)}
	}

	q, ok := distance.NormalizeL2Copy(query)
	if !ok {
		return nil, index.ErrZeroVector
	}

	hits := make([]index.Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = index.Hit{Position: uint32(i), Score: distance.Dot(q, v)}
	}

	slices.SortFunc(hits, func(a, b index.Hit) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}
		return cmp.Compare(a.Position, b.Position)
	})

	return hits, nil
}
