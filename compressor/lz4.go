package compressor

import (
	"bytes"

	"github.com/pierrec/lz4"
)

// Lz4Compressor is the snapshot compressor for payloads where zstd's ratio
// isn't worth its CPU cost. It uses the frame format end to end
// (lz4.NewWriter/lz4.NewReader) so Compress and Decompress always agree on
// wire format.
type Lz4Compressor struct{}

// Compress frame-encodes src.
func (Lz4Compressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)

	if _, err := w.Write(src); err != nil {
		_ = w.Close()
		return nil, ErrIncompressible
	}
	if err := w.Close(); err != nil {
		return nil, ErrIncompressible
	}

	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func (Lz4Compressor) Decompress(src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
