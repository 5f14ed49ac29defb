package persistence

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress compresses the raw payload. Returns the payload bytes and the
// compression type actually used: an incompressible LZ4 payload falls back
// to CompressionNone rather than growing the blob.
func compress(raw []byte, ctype CompressionType) ([]byte, CompressionType, error) {
	if len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	switch ctype {
	case CompressionNone:
		return raw, CompressionNone, nil

	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(raw) {
			return raw, CompressionNone, nil
		}
		return buf[:n], CompressionLZ4, nil

	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)

		compressed := enc.EncodeAll(raw, nil)
		if len(compressed) >= len(raw) {
			return raw, CompressionNone, nil
		}
		return compressed, CompressionZSTD, nil

	default:
		return nil, 0, fmt.Errorf("unknown compression type %d", ctype)
	}
}

// decompress restores the raw payload. rawSize comes from the blob header.
func decompress(payload []byte, ctype CompressionType, rawSize uint64) ([]byte, error) {
	switch ctype {
	case CompressionNone:
		if uint64(len(payload)) != rawSize {
			return nil, fmt.Errorf("%w: payload size %d, header says %d", ErrCorruptSnapshot, len(payload), rawSize)
		}
		return payload, nil

	case CompressionLZ4:
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if uint64(n) != rawSize {
			return nil, errors.New("lz4 decompressed size mismatch")
		}
		return raw, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		raw, err := dec.DecodeAll(payload, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if uint64(len(raw)) != rawSize {
			return nil, errors.New("zstd decompressed size mismatch")
		}
		return raw, nil

	default:
		return nil, fmt.Errorf("unknown compression type %d", ctype)
	}
}
