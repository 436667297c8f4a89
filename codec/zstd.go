package codec

import (
	"fmt"

	"github.com/go-audio/audio"
	"github.com/klauspost/compress/zstd"
)

// Zstd stores samples as zstd frames with a content checksum.
type Zstd struct{}

var _ Codec = Zstd{}

// NewZstd creates a zstd codec.
func NewZstd() Zstd {
	return Zstd{}
}

// Kind implements Codec.
func (Zstd) Kind() Kind { return KindZstd }

// Encode implements Encoder.
func (Zstd) Encode(buf *audio.Float32Buffer, quality float64) ([]byte, error) {
	raw, err := quantize(buf)
	if err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstdLevel(quality)),
		zstd.WithEncoderCRC(true),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrInit, err)
	}
	defer enc.Close()

	return enc.EncodeAll(raw, nil), nil
}

// Decode implements Decoder.
func (Zstd) Decode(data []byte) ([]int16, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", ErrInit, err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return pcmFromBytes(raw)
}

func zstdLevel(quality float64) zstd.EncoderLevel {
	switch q := clampQuality(quality); {
	case q < 0.25:
		return zstd.SpeedFastest
	case q < 0.5:
		return zstd.SpeedDefault
	case q < 0.75:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}
