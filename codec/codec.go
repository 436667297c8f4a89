package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/audio"
)

// Kind names a stream format.
type Kind string

// Supported stream formats.
const (
	KindZstd Kind = "zstd"
	KindS2   Kind = "s2"
	KindLZ4  Kind = "lz4"
)

var (
	// ErrInit is returned when the underlying compressor could not be set up.
	ErrInit = errors.New("codec initialization failed")
	// ErrUnknownKind is returned for a format name or stream that matches no
	// supported codec.
	ErrUnknownKind = errors.New("unknown codec")

	errNilBuffer    = errors.New("can't encode a nil buffer")
	errNotMono      = errors.New("only mono buffers can be encoded")
	errOddPCMStream = errors.New("decoded stream has an odd number of bytes")
)

// Encoder turns a mono sample into a self-framed compressed stream. quality
// runs from 0 (fastest) to 1 (smallest).
type Encoder interface {
	Encode(buf *audio.Float32Buffer, quality float64) ([]byte, error)
}

// Decoder turns a stream produced by the matching Encoder back into PCM16.
type Decoder interface {
	Decode(data []byte) ([]int16, error)
}

// Codec combines both directions of one stream format.
type Codec interface {
	Encoder
	Decoder
	Kind() Kind
}

// Kinds lists the supported stream formats.
func Kinds() []Kind {
	return []Kind{KindZstd, KindS2, KindLZ4}
}

// ParseKind maps a format name to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == name {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// New returns the codec for kind.
func New(kind Kind) (Codec, error) {
	switch kind {
	case KindZstd:
		return NewZstd(), nil
	case KindS2:
		return NewS2(), nil
	case KindLZ4:
		return NewLZ4(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
	s2Magic   = []byte{0xff, 0x06, 0x00, 0x00, 'S', '2', 's', 'T', 'w', 'O'}
)

// Detect identifies the stream format of data from its magic bytes.
func Detect(data []byte) (Kind, error) {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return KindZstd, nil
	case bytes.HasPrefix(data, lz4Magic):
		return KindLZ4, nil
	case bytes.HasPrefix(data, s2Magic):
		return KindS2, nil
	default:
		return "", fmt.Errorf("%w: unrecognized stream header", ErrUnknownKind)
	}
}

// DecodeAny detects the stream format of data and decodes it.
func DecodeAny(data []byte) ([]int16, error) {
	if len(data) == 0 {
		return nil, nil
	}

	kind, err := Detect(data)
	if err != nil {
		return nil, err
	}

	c, err := New(kind)
	if err != nil {
		return nil, err
	}

	return c.Decode(data)
}

// quantize converts a mono float buffer to little-endian PCM16, clamping
// values outside [-1, 1).
func quantize(buf *audio.Float32Buffer) ([]byte, error) {
	if buf == nil {
		return nil, errNilBuffer
	}

	if buf.Format != nil && buf.Format.NumChannels > 1 {
		return nil, fmt.Errorf("%w: got %d channels", errNotMono, buf.Format.NumChannels)
	}

	out := make([]byte, len(buf.Data)*2)

	for i, v := range buf.Data {
		s := math.Round(float64(v) * 32768)
		s = max(math.MinInt16, min(math.MaxInt16, s))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
	}

	return out, nil
}

func pcmFromBytes(raw []byte) ([]int16, error) {
	if len(raw)%2 != 0 {
		return nil, errOddPCMStream
	}

	pcm := make([]int16, len(raw)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}

	return pcm, nil
}

// clampQuality keeps quality inside [0, 1].
func clampQuality(q float64) float64 {
	if math.IsNaN(q) {
		return 0
	}

	return max(0, min(1, q))
}
