// Package persistence implements two-artifact snapshots of engine state.
//
// A snapshot is a binary vector blob plus a human-readable JSON sidecar.
// The blob carries a fixed 64-byte header (magic, version, compression,
// counts, CRC32) followed by the row-major little-endian float32 payload,
// optionally compressed with LZ4 or zstd. The sidecar carries the catalog
// records and the id-to-position mapping, and duplicates the dimension and
// record count so a mismatched artifact pair is detected at load time.
package persistence
