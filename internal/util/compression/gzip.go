package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// GzipCompressor trades ratio for compatibility with stock tooling.
// A zero Level means gzip.DefaultCompression.
type GzipCompressor struct {
	Level int
}

func (g GzipCompressor) Compress(data []byte) ([]byte, error) {
	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}

	var b bytes.Buffer
	w, err := gzip.NewWriterLevel(&b, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (g GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, MaxDecodedSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxDecodedSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxDecodedSize)
	}
	return out, nil
}

func (g GzipCompressor) Extension() string { return ".gz" }
