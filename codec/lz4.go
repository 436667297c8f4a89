package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/pierrec/lz4/v4"
)

// LZ4 stores samples as an LZ4 frame with block and content checksums.
type LZ4 struct{}

var _ Codec = LZ4{}

// NewLZ4 creates an LZ4 codec.
func NewLZ4() LZ4 {
	return LZ4{}
}

// Kind implements Codec.
func (LZ4) Kind() Kind { return KindLZ4 }

var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1,
	lz4.Level2,
	lz4.Level3,
	lz4.Level4,
	lz4.Level5,
	lz4.Level6,
	lz4.Level7,
	lz4.Level8,
	lz4.Level9,
}

// Encode implements Encoder.
func (LZ4) Encode(buf *audio.Float32Buffer, quality float64) ([]byte, error) {
	raw, err := quantize(buf)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer

	w := lz4.NewWriter(&out)

	level := lz4Levels[int(clampQuality(quality)*float64(len(lz4Levels)-1))]
	if err := w.Apply(
		lz4.CompressionLevelOption(level),
		lz4.ChecksumOption(true),
		lz4.BlockChecksumOption(true),
		lz4.ConcurrencyOption(1),
	); err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", ErrInit, err)
	}

	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

	return out.Bytes(), nil
}

// Decode implements Decoder.
func (LZ4) Decode(data []byte) ([]int16, error) {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}

	return pcmFromBytes(raw)
}
