package compression

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat(`{"id":"d1","content":"Dear diary"}`, 50))

	for _, name := range []string{Zstd, Gzip} {
		t.Run(name, func(t *testing.T) {
			c, err := ByName(name)
			if err != nil {
				t.Fatalf("ByName failed: %v", err)
			}

			packed, err := c.Compress(payload)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if len(packed) >= len(payload) {
				t.Errorf("Expected repetitive payload to shrink, %d >= %d", len(packed), len(payload))
			}

			unpacked, err := c.Decompress(packed)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(unpacked, payload) {
				t.Error("Round trip changed the payload")
			}
		})
	}
}

func TestByName(t *testing.T) {
	if c, _ := ByName(""); c.Extension() != ".zst" {
		t.Errorf("Expected zstd by default, got %s", c.Extension())
	}
	if _, err := ByName("lz4"); err == nil {
		t.Error("Expected unknown codec to fail")
	}
}

func TestDecompressGarbage(t *testing.T) {
	if _, err := (&ZstdCompressor{}).Decompress([]byte("not zstd")); err == nil {
		t.Error("Expected zstd to reject garbage")
	}
	if _, err := (GzipCompressor{}).Decompress([]byte("not gzip")); err == nil {
		t.Error("Expected gzip to reject garbage")
	}
}

func TestCompressionLevels(t *testing.T) {
	payload := []byte(strings.Repeat("the quick brown fox ", 200))

	codecs := map[string]Compressor{
		"zstd best": &ZstdCompressor{Level: zstd.SpeedBestCompression},
		"gzip fast": GzipCompressor{Level: gzip.BestSpeed},
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			packed, err := c.Compress(payload)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			unpacked, err := c.Decompress(packed)
			if err != nil || !bytes.Equal(unpacked, payload) {
				t.Errorf("Round trip failed: %v", err)
			}
		})
	}
}

func TestGzipInvalidLevel(t *testing.T) {
	if _, err := (GzipCompressor{Level: 42}).Compress([]byte("x")); err == nil {
		t.Error("Expected an invalid gzip level to fail")
	}
}

func TestZstdReuse(t *testing.T) {
	c := &ZstdCompressor{}
	for i := 0; i < 3; i++ {
		packed, err := c.Compress([]byte("again"))
		if err != nil {
			t.Fatalf("Compress %d failed: %v", i, err)
		}
		if out, err := c.Decompress(packed); err != nil || string(out) != "again" {
			t.Fatalf("Decompress %d: %q, %v", i, out, err)
		}
	}
}

func TestForKey(t *testing.T) {
	testCases := []struct {
		key string
		ext string
		ok  bool
	}{
		{"stylus/drafts-20240101T000000Z-abc.json.zst", ".zst", true},
		{"drafts.json.gz", ".gz", true},
		{"drafts.json", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			c, ok := ForKey(tc.key)
			if ok != tc.ok {
				t.Fatalf("Expected ok=%v, got %v", tc.ok, ok)
			}
			if ok && c.Extension() != tc.ext {
				t.Errorf("Expected %s, got %s", tc.ext, c.Extension())
			}
		})
	}
}
