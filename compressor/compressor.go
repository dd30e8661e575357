// Package compressor provides the pluggable snapshot codecs used by
// cache.Cache.Snapshot/Restore: none for the fast path, lz4 for low-latency
// encoding, zstd for space-optimized bulk snapshots. Queue persistence does
// not use them.
package compressor

import "github.com/cockroachdb/errors"

// Compresser 圧縮系のインナーフェース
type Compresser interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

var ErrIncompressible = errors.New("compress error")
