package persistence

import (
	"fmt"
	"hash/crc32"
)

// CRC32 (IEEE polynomial) detects accidental storage corruption.
// It is not cryptographically secure and not meant for tamper detection.

// Checksum computes the CRC32 checksum of data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// Checksum failures mean the snapshot is unusable, so they unwrap to
// ErrCorruptSnapshot.
func (e *ChecksumMismatchError) Unwrap() error {
	return ErrCorruptSnapshot
}
