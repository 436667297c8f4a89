package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/klauspost/compress/s2"
)

// S2 stores samples as an S2 stream with per-block CRCs.
type S2 struct{}

var _ Codec = S2{}

// NewS2 creates an S2 codec.
func NewS2() S2 {
	return S2{}
}

// Kind implements Codec.
func (S2) Kind() Kind { return KindS2 }

// Encode implements Encoder.
func (S2) Encode(buf *audio.Float32Buffer, quality float64) ([]byte, error) {
	raw, err := quantize(buf)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer

	w := s2.NewWriter(&out, s2WriterOptions(quality)...)
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("s2 compression failed: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("s2 compression failed: %w", err)
	}

	return out.Bytes(), nil
}

// Decode implements Decoder.
func (S2) Decode(data []byte) ([]int16, error) {
	raw, err := io.ReadAll(s2.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}

	return pcmFromBytes(raw)
}

func s2WriterOptions(quality float64) []s2.WriterOption {
	opts := []s2.WriterOption{s2.WriterConcurrency(1)}

	switch q := clampQuality(quality); {
	case q >= 0.85:
		opts = append(opts, s2.WriterBestCompression())
	case q >= 0.5:
		opts = append(opts, s2.WriterBetterCompression())
	}

	return opts
}
