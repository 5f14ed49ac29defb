// Package blobstore abstracts the storage backend for snapshot artifacts.
//
// A snapshot is a pair of named blobs (a binary vector blob plus a JSON
// sidecar) and the store only needs whole-blob reads and atomic whole-blob
// writes. Local disk, in-memory, S3 and MinIO implementations are provided.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a named blob does not exist.
// It matches os.ErrNotExist so callers can use errors.Is either way.
var ErrNotFound = os.ErrNotExist

// BlobStore is the storage backend interface.
//
// Put must be atomic: readers never observe a partially written blob under
// the given name. Implementations are safe for concurrent use.
type BlobStore interface {
	// Open opens an existing blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create starts a streaming write. The blob becomes visible under name
	// only when Close returns nil.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put atomically writes data under name, replacing any previous blob.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only blob handle.
type Blob interface {
	// ReadAt reads len(p) bytes starting at off. Returns io.EOF when fewer
	// bytes than requested remain.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// Size returns the blob length in bytes.
	Size() int64

	// Close releases the handle.
	Close() error
}

// WritableBlob is a streaming write handle. Writes are buffered or staged;
// the blob is committed by Close.
type WritableBlob interface {
	io.Writer

	// Sync flushes staged data to durable storage where the backend
	// supports it.
	Sync() error

	// Close commits the blob. On error the blob is not visible.
	Close() error
}

// ReadAll reads the full content of the named blob.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data := make([]byte, blob.Size())
	if _, err := blob.ReadAt(ctx, data, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return data, nil
}
