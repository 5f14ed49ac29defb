// Package index defines the types and errors shared by vector index
// implementations.
package index

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyVector is returned when an empty vector is inserted or queried.
	ErrEmptyVector = errors.New("index: empty vector")

	// ErrZeroVector is returned when a vector cannot be L2-normalized because
	// its norm is zero.
	ErrZeroVector = errors.New("index: cannot normalize zero vector")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// Hit pairs a catalog position with its similarity score.
type Hit struct {
	// Position is the dense, insertion-ordered identifier aligning the
	// vector with its catalog record.
	Position uint32

	// Score is the cosine similarity between the stored vector and the
	// query, in [-1, 1].
	Score float32
}
