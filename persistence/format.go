package persistence

import "errors"

const (
	// MagicNumber identifies snapshot vector blobs (ASCII "WAND").
	MagicNumber = 0x57414E44
	// Version is the current blob format version (v1.0.0).
	Version = 0x00010000

	// SchemaVersion is the JSON sidecar schema version.
	SchemaVersion = 1

	// HeaderSize is the fixed size of FileHeader on the wire.
	HeaderSize = 64
)

var (
	ErrInvalidMagic    = errors.New("invalid magic number")
	ErrInvalidVersion  = errors.New("unsupported version")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// CompressionType selects the payload compression algorithm.
type CompressionType uint8

const (
	// CompressionNone stores the vector payload uncompressed.
	CompressionNone CompressionType = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD uses zstd block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

// FileHeader is the 64-byte header at the start of every vector blob.
// All integers are little-endian.
type FileHeader struct {
	Magic       uint32 // 0x57414E44 ("WAND")
	Version     uint32 // blob format version
	Compression uint8  // CompressionType of the payload
	Padding1    [3]byte
	VectorCount uint64 // number of vectors in the payload
	Dimension   uint32 // vector dimensionality
	Checksum    uint32 // CRC32 of the (compressed) payload
	PayloadSize uint64 // payload bytes following the header
	RawSize     uint64 // payload bytes after decompression
	Reserved    [16]byte
	Padding2    [4]byte
}
