package wander

import (
	"errors"
	"fmt"

	"github.com/hupe1980/wander/catalog"
	"github.com/hupe1980/wander/index"
	"github.com/hupe1980/wander/persistence"
)

var (
	// ErrNotFound is returned when an attraction ID does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCorruptSnapshot is returned when a snapshot fails validation on load.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	// ErrEmbeddingProvider wraps failures of the embedding backend.
	ErrEmbeddingProvider = errors.New("embedding provider")
)

// ErrDimensionMismatch indicates a vector/index dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrDuplicateID indicates an attraction ID that already exists, either in
// the catalog or earlier in the same batch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDuplicateID struct {
	ID    string
	cause error
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate id: %q", e.ID)
}

func (e *ErrDuplicateID) Unwrap() error { return e.cause }

// translateError normalizes internal package errors into the public
// error taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var dup *catalog.ErrDuplicateID
	if errors.As(err, &dup) {
		return &ErrDuplicateID{ID: dup.ID, cause: err}
	}

	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	if errors.Is(err, persistence.ErrCorruptSnapshot) ||
		errors.Is(err, persistence.ErrInvalidMagic) ||
		errors.Is(err, persistence.ErrInvalidVersion) {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	return err
}
