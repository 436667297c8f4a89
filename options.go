package sfont

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cwbudde/sfont/internal/options"
)

// DefaultQuality is the encoder quality used when none is configured.
const DefaultQuality = 0.3

var errInvalidQuality = errors.New("quality must be within [0, 1]")

// DecoderOption configures a Decoder.
type DecoderOption = options.Option[*Decoder]

// EncoderOption configures an Encoder.
type EncoderOption = options.Option[*Encoder]

// WithDecoderLogger routes section traversal diagnostics to logger.
func WithDecoderLogger(logger *slog.Logger) DecoderOption {
	return options.NoError(func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	})
}

// WithSectionRegistry replaces the handlers used to decode sections.
func WithSectionRegistry(r *SectionRegistry) DecoderOption {
	return options.NoError(func(d *Decoder) {
		if r != nil {
			d.sections = r
		}
	})
}

// WithLogger routes write diagnostics to logger.
func WithLogger(logger *slog.Logger) EncoderOption {
	return options.NoError(func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	})
}

// WithCompressed selects compressed sample output. When false, PCM samples
// are copied unchanged.
func WithCompressed(compressed bool) EncoderOption {
	return options.NoError(func(e *Encoder) {
		e.Compressed = compressed
	})
}

// WithSampleEncoder sets the encoder used for compressed output.
func WithSampleEncoder(enc SampleEncoder) EncoderOption {
	return options.NoError(func(e *Encoder) {
		e.SampleEncoder = enc
	})
}

// WithQuality sets the encoder quality, from 0 (smallest) to 1 (best).
func WithQuality(q float64) EncoderOption {
	return options.New(func(e *Encoder) error {
		if q < 0 || q > 1 {
			return fmt.Errorf("%w: got %g", errInvalidQuality, q)
		}

		e.Quality = q

		return nil
	})
}

// WithGain sets the gain in decibels applied before encoding.
func WithGain(db float64) EncoderOption {
	return options.NoError(func(e *Encoder) {
		e.GainDB = db
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
