package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]BlobStore {
	t.Helper()

	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	return map[string]BlobStore{
		"Memory": NewMemoryStore(),
		"Local":  local,
	}
}

func TestBlobStore(t *testing.T) {
	ctx := context.Background()

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("PutOpenRoundTrip", func(t *testing.T) {
				data := []byte("snapshot payload")
				require.NoError(t, store.Put(ctx, "trip.vec", data))

				got, err := ReadAll(ctx, store, "trip.vec")
				require.NoError(t, err)
				assert.Equal(t, data, got)
			})

			t.Run("OpenMissing", func(t *testing.T) {
				_, err := store.Open(ctx, "absent.vec")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("CreateCommitsOnClose", func(t *testing.T) {
				w, err := store.Create(ctx, "staged.json")
				require.NoError(t, err)
				_, err = w.Write([]byte(`{"a":`))
				require.NoError(t, err)

				// Not visible before Close.
				_, err = store.Open(ctx, "staged.json")
				assert.ErrorIs(t, err, ErrNotFound)

				_, err = w.Write([]byte(`1}`))
				require.NoError(t, err)
				require.NoError(t, w.Sync())
				require.NoError(t, w.Close())

				got, err := ReadAll(ctx, store, "staged.json")
				require.NoError(t, err)
				assert.Equal(t, []byte(`{"a":1}`), got)
			})

			t.Run("PutReplaces", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "replace.vec", []byte("old")))
				require.NoError(t, store.Put(ctx, "replace.vec", []byte("new")))

				got, err := ReadAll(ctx, store, "replace.vec")
				require.NoError(t, err)
				assert.Equal(t, []byte("new"), got)
			})

			t.Run("DeleteIsIdempotent", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "gone.vec", []byte("x")))
				require.NoError(t, store.Delete(ctx, "gone.vec"))
				require.NoError(t, store.Delete(ctx, "gone.vec"))

				_, err := store.Open(ctx, "gone.vec")
				assert.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("ListByPrefix", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "europe.vec", []byte("v")))
				require.NoError(t, store.Put(ctx, "europe.json", []byte("j")))
				require.NoError(t, store.Put(ctx, "asia.vec", []byte("v")))

				names, err := store.List(ctx, "europe")
				require.NoError(t, err)
				assert.Equal(t, []string{"europe.json", "europe.vec"}, names)
			})

			t.Run("ReadAtOffset", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, "offset.vec", []byte("0123456789")))

				blob, err := store.Open(ctx, "offset.vec")
				require.NoError(t, err)
				defer blob.Close()

				assert.Equal(t, int64(10), blob.Size())

				p := make([]byte, 4)
				n, err := blob.ReadAt(ctx, p, 3)
				require.NoError(t, err)
				assert.Equal(t, 4, n)
				assert.Equal(t, []byte("3456"), p)

				_, err = blob.ReadAt(ctx, p, 8)
				assert.ErrorIs(t, err, io.EOF)
			})
		})
	}
}
