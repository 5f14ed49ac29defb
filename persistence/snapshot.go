package persistence

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/wander/blobstore"
	"github.com/hupe1980/wander/catalog"
	"github.com/hupe1980/wander/codec"
)

// Artifact name suffixes. A snapshot named "europe" is stored as
// "europe.vec" plus "europe.json".
const (
	VectorSuffix  = ".vec"
	SidecarSuffix = ".json"
	currentSuffix = ".CURRENT"
)

// State is the full engine state captured by a snapshot.
type State struct {
	Dimension    int
	Vectors      [][]float32
	Attractions  []catalog.Attraction
	IDToPosition map[string]uint32
}

// Sidecar is the JSON document stored next to the vector blob. It carries
// everything needed to rebuild the catalog and to cross-check the blob.
type Sidecar struct {
	SchemaVersion int                  `json:"schema_version"`
	Dimension     int                  `json:"dimension"`
	RecordCount   int                  `json:"record_count"`
	SavedAt       time.Time            `json:"saved_at"`
	Attractions   []catalog.Attraction `json:"attractions"`
	IDToPosition  map[string]uint32    `json:"id_to_position"`
}

// Snapshotter saves and loads engine state through a BlobStore.
//
// Save writes the vector blob first and the sidecar last; each individual
// Put is atomic. Load fails closed: any header, checksum or cross-artifact
// inconsistency rejects the snapshot rather than returning partial state.
type Snapshotter struct {
	store       blobstore.BlobStore
	codec       codec.Codec
	compression CompressionType
	versioned   bool
	now         func() time.Time
}

// SnapshotterOption configures a Snapshotter.
type SnapshotterOption func(*Snapshotter)

// WithCodec overrides the sidecar codec.
func WithCodec(c codec.Codec) SnapshotterOption {
	return func(s *Snapshotter) { s.codec = c }
}

// WithCompression sets the vector payload compression.
func WithCompression(ctype CompressionType) SnapshotterOption {
	return func(s *Snapshotter) { s.compression = ctype }
}

// WithVersioned enables versioned snapshots: artifacts are written under
// unique names and a "<name>.CURRENT" pointer object is committed last.
// Paired with a commit store this gives an atomic publish on backends
// without rename, and readers never observe a torn artifact pair.
func WithVersioned(versioned bool) SnapshotterOption {
	return func(s *Snapshotter) { s.versioned = versioned }
}

// NewSnapshotter creates a Snapshotter on the given store.
func NewSnapshotter(store blobstore.BlobStore, opts ...SnapshotterOption) *Snapshotter {
	s := &Snapshotter{
		store:       store,
		codec:       codec.Default,
		compression: CompressionNone,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists state under the given snapshot name.
func (s *Snapshotter) Save(ctx context.Context, name string, state *State) error {
	if len(state.Vectors) != len(state.Attractions) {
		return fmt.Errorf("snapshot: %d vectors for %d attractions", len(state.Vectors), len(state.Attractions))
	}
	if len(state.IDToPosition) != len(state.Attractions) {
		return fmt.Errorf("snapshot: %d positions for %d attractions", len(state.IDToPosition), len(state.Attractions))
	}

	blob, err := s.encodeVectorBlob(state)
	if err != nil {
		return err
	}

	sidecar, err := s.codec.Marshal(&Sidecar{
		SchemaVersion: SchemaVersion,
		Dimension:     state.Dimension,
		RecordCount:   len(state.Attractions),
		SavedAt:       s.now().UTC(),
		Attractions:   state.Attractions,
		IDToPosition:  state.IDToPosition,
	})
	if err != nil {
		return fmt.Errorf("snapshot: marshal sidecar: %w", err)
	}

	base := name
	if s.versioned {
		base = fmt.Sprintf("%s-%d", name, s.now().UnixNano())
	}

	if err := s.store.Put(ctx, base+VectorSuffix, blob); err != nil {
		return fmt.Errorf("snapshot: write vector blob: %w", err)
	}
	if err := s.store.Put(ctx, base+SidecarSuffix, sidecar); err != nil {
		return fmt.Errorf("snapshot: write sidecar: %w", err)
	}

	if s.versioned {
		// Publishing the pointer is the commit point.
		if err := s.store.Put(ctx, name+currentSuffix, []byte(base)); err != nil {
			return fmt.Errorf("snapshot: commit pointer: %w", err)
		}
	}
	return nil
}

// Load restores state from the given snapshot name.
func (s *Snapshotter) Load(ctx context.Context, name string) (*State, error) {
	base := name
	if s.versioned {
		pointer, err := blobstore.ReadAll(ctx, s.store, name+currentSuffix)
		if err != nil {
			return nil, fmt.Errorf("snapshot: resolve pointer: %w", err)
		}
		base = string(pointer)
	}

	blob, err := blobstore.ReadAll(ctx, s.store, base+VectorSuffix)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read vector blob: %w", err)
	}
	header, vectors, err := s.decodeVectorBlob(blob)
	if err != nil {
		return nil, err
	}

	raw, err := blobstore.ReadAll(ctx, s.store, base+SidecarSuffix)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read sidecar: %w", err)
	}
	var sidecar Sidecar
	if err := s.codec.Unmarshal(raw, &sidecar); err != nil {
		return nil, fmt.Errorf("%w: unmarshal sidecar: %v", ErrCorruptSnapshot, err)
	}

	if sidecar.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: sidecar schema version %d", ErrCorruptSnapshot, sidecar.SchemaVersion)
	}
	if sidecar.Dimension != int(header.Dimension) {
		return nil, fmt.Errorf("%w: sidecar dimension %d, blob dimension %d", ErrCorruptSnapshot, sidecar.Dimension, header.Dimension)
	}
	if uint64(sidecar.RecordCount) != header.VectorCount ||
		sidecar.RecordCount != len(sidecar.Attractions) ||
		sidecar.RecordCount != len(sidecar.IDToPosition) {
		return nil, fmt.Errorf("%w: record count mismatch between artifacts", ErrCorruptSnapshot)
	}

	return &State{
		Dimension:    int(header.Dimension),
		Vectors:      vectors,
		Attractions:  sidecar.Attractions,
		IDToPosition: sidecar.IDToPosition,
	}, nil
}

// Delete removes the snapshot artifacts under name. Versioned artifacts
// reachable only through older pointers are left in place.
func (s *Snapshotter) Delete(ctx context.Context, name string) error {
	base := name
	if s.versioned {
		pointer, err := blobstore.ReadAll(ctx, s.store, name+currentSuffix)
		if err != nil {
			return err
		}
		base = string(pointer)
	}
	if err := s.store.Delete(ctx, base+VectorSuffix); err != nil {
		return err
	}
	return s.store.Delete(ctx, base+SidecarSuffix)
}

func (s *Snapshotter) encodeVectorBlob(state *State) ([]byte, error) {
	raw := make([]byte, 0, len(state.Vectors)*state.Dimension*4)
	for i, vec := range state.Vectors {
		if len(vec) != state.Dimension {
			return nil, fmt.Errorf("snapshot: vector %d has dimension %d, want %d", i, len(vec), state.Dimension)
		}
		for _, x := range vec {
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(x))
		}
	}

	payload, ctype, err := compress(raw, s.compression)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	header := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: uint8(ctype),
		VectorCount: uint64(len(state.Vectors)),
		Dimension:   uint32(state.Dimension),
		Checksum:    Checksum(payload),
		PayloadSize: uint64(len(payload)),
		RawSize:     uint64(len(raw)),
	}

	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(payload))
	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("snapshot: write header: %w", err)
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

func (s *Snapshotter) decodeVectorBlob(blob []byte) (*FileHeader, [][]float32, error) {
	if len(blob) < HeaderSize {
		return nil, nil, fmt.Errorf("%w: blob shorter than header", ErrCorruptSnapshot)
	}

	var header FileHeader
	if err := binary.Read(bytes.NewReader(blob[:HeaderSize]), binary.LittleEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("%w: read header: %v", ErrCorruptSnapshot, err)
	}
	if header.Magic != MagicNumber {
		return nil, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}

	payload := blob[HeaderSize:]
	if uint64(len(payload)) != header.PayloadSize {
		return nil, nil, fmt.Errorf("%w: payload truncated", ErrCorruptSnapshot)
	}
	if actual := Checksum(payload); actual != header.Checksum {
		return nil, nil, &ChecksumMismatchError{Expected: header.Checksum, Actual: actual}
	}

	raw, err := decompress(payload, CompressionType(header.Compression), header.RawSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	want := header.VectorCount * uint64(header.Dimension) * 4
	if uint64(len(raw)) != want {
		return nil, nil, fmt.Errorf("%w: %d payload bytes for %d x %d vectors", ErrCorruptSnapshot, len(raw), header.VectorCount, header.Dimension)
	}

	dim := int(header.Dimension)
	vectors := make([][]float32, header.VectorCount)
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			off := (i*dim + j) * 4
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
		}
		vectors[i] = vec
	}

	return &header, vectors, nil
}
