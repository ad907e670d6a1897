package compression

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor encodes whole snapshots in memory. The zero value uses the
// default level; encoder and decoder are built once and shared.
type ZstdCompressor struct {
	Level zstd.EncoderLevel

	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

func (z *ZstdCompressor) init() error {
	z.once.Do(func() {
		level := z.Level
		if level == 0 {
			level = zstd.SpeedDefault
		}
		z.enc, z.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if z.err != nil {
			return
		}
		z.dec, z.err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecodedSize))
	})
	return z.err
}

func (z *ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, err
	}
	return z.enc.EncodeAll(data, nil), nil
}

func (z *ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, err
	}
	return z.dec.DecodeAll(data, nil)
}

func (z *ZstdCompressor) Extension() string { return ".zst" }
