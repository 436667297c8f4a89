package sfont

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cwbudde/sfont/codec"
	"github.com/cwbudde/sfont/internal/options"
)

// Encoder writes a Bank as a sound bank file.
type Encoder struct {
	w        io.WriteSeeker
	cur      *cursor
	sections *SectionRegistry
	logger   *slog.Logger

	// Compressed selects compressed sample output.
	Compressed bool
	// Quality is handed to the sample encoder, from 0 to 1.
	Quality float64
	// GainDB is applied to every sample before it is encoded.
	GainDB float64
	// SampleEncoder encodes samples in compressed mode. A zstd encoder is
	// used when nil.
	SampleEncoder SampleEncoder

	// WrittenBytes is the size of the last bank written.
	WrittenBytes int64

	bank    *Bank
	columns [2]*layerColumns
	samples []Sample
	err     error
}

// NewEncoder creates an encoder writing to w at its current offset.
// Option errors are reported by Encode.
func NewEncoder(w io.WriteSeeker, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		w:        w,
		sections: newDefaultSectionRegistry(),
		logger:   discardLogger(),
		Quality:  DefaultQuality,
	}

	e.err = options.Apply(e, opts...)

	return e
}

// Encode writes b. Nothing is rolled back on failure; the caller should
// discard partial output.
func (e *Encoder) Encode(b *Bank) error {
	if e == nil || e.w == nil {
		return errNilWriter
	}

	if b == nil {
		return errNilBank
	}

	if e.err != nil {
		return e.err
	}

	if err := checkSampleEncodings(b, e.Compressed); err != nil {
		return err
	}

	if e.Compressed && e.SampleEncoder == nil {
		e.SampleEncoder = codec.NewZstd()
	}

	presetCols, err := flattenLayer(presetSpans(b), &b.PresetZones, "preset")
	if err != nil {
		return err
	}

	instCols, err := flattenLayer(instrumentSpans(b), &b.InstrumentZones, "instrument")
	if err != nil {
		return err
	}

	cur, err := newWriteCursor(e.w)
	if err != nil {
		return err
	}

	e.cur = cur
	e.bank = b
	e.columns = [2]*layerColumns{presetSide: presetCols, instrumentSide: instCols}
	e.samples = nil

	defer func() {
		e.bank = nil
		e.columns = [2]*layerColumns{}
	}()

	start := cur.tell()

	if err := e.writeContainer(); err != nil {
		return err
	}

	e.WrittenBytes = cur.tell() - start

	e.logger.Debug("bank encoded",
		"bytes", e.WrittenBytes,
		"compressed", e.compressedOutput(),
		"presets", len(b.Presets),
		"instruments", len(b.Instruments),
		"samples", len(b.Samples))

	if f, ok := e.w.(*os.File); ok {
		return f.Sync()
	}

	return nil
}

// Samples returns the sample headers as written by the last Encode.
func (e *Encoder) Samples() []Sample {
	return e.samples
}

// compressedOutput reports whether the written bank holds compressed
// samples.
func (e *Encoder) compressedOutput() bool {
	if e.Compressed {
		return true
	}

	return e.bank != nil && hasCompressedSamples(e.bank)
}

func presetSpans(b *Bank) []Span {
	spans := make([]Span, len(b.Presets))
	for i, p := range b.Presets {
		spans[i] = p.Zones
	}

	return spans
}

func instrumentSpans(b *Bank) []Span {
	spans := make([]Span, len(b.Instruments))
	for i, inst := range b.Instruments {
		spans[i] = inst.Zones
	}

	return spans
}

// WriteFile encodes b into a new file at path. The file is removed again if
// encoding fails.
func WriteFile(path string, b *Bank, opts ...EncoderOption) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	defer func() {
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}

		if err != nil {
			err = errors.Join(err, os.Remove(path))
		}
	}()

	if err = NewEncoder(f, opts...).Encode(b); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}
