// Package compression wraps the codecs used for draft snapshots.
package compression

import (
	"errors"
	"fmt"
	"strings"
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	// Extension is the file suffix for compressed output, including the dot.
	Extension() string
}

const (
	Zstd = "zstd"
	Gzip = "gzip"
)

// MaxDecodedSize bounds how much a single snapshot may inflate to.
const MaxDecodedSize = 256 << 20

var ErrTooLarge = errors.New("decompressed snapshot too large")

// ByName returns the codec registered under name.
func ByName(name string) (Compressor, error) {
	switch name {
	case Zstd, "":
		return &ZstdCompressor{}, nil
	case Gzip:
		return GzipCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

// ForKey picks the codec whose Extension ends key.
func ForKey(key string) (Compressor, bool) {
	for _, c := range []Compressor{&ZstdCompressor{}, GzipCompressor{}} {
		if strings.HasSuffix(key, c.Extension()) {
			return c, true
		}
	}
	return nil, false
}
