package sfont

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cwbudde/sfont/internal/options"
	"github.com/edsrzf/mmap-go"
	"github.com/go-audio/riff"
)

// layerSide selects the preset or instrument half of the bank.
type layerSide int

const (
	presetSide layerSide = iota
	instrumentSide
)

func (s layerSide) String() string {
	if s == presetSide {
		return "preset"
	}

	return "instrument"
}

// layerState accumulates what bag resolution learned about one side until
// the generator and modulator lists arrive.
type layerState struct {
	gens int
	mods int
	bags bool
}

// Decoder reads a sound bank from a seekable byte store.
type Decoder struct {
	r        io.ReadSeeker
	cur      *cursor
	parser   *riff.Parser
	sections *SectionRegistry
	logger   *slog.Logger

	bank   *Bank
	layers [2]layerState
	err    error
}

// NewDecoder creates a decoder for the passed reader. Reading starts at the
// reader's current offset.
func NewDecoder(r io.ReadSeeker, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		r:        r,
		sections: newDefaultSectionRegistry(),
		logger:   discardLogger(),
	}

	d.err = options.Apply(d, opts...)

	return d
}

// Err returns the error that stopped the last Decode.
func (d *Decoder) Err() error {
	if d == nil {
		return errNilReader
	}

	return d.err
}

// Decode reads the whole bank in one pass. On failure no partial bank is
// returned.
func (d *Decoder) Decode() (*Bank, error) {
	if d == nil || d.r == nil {
		return nil, errNilReader
	}

	if d.err != nil {
		return nil, d.err
	}

	cur, err := newReadCursor(d.r)
	if err != nil {
		d.err = err
		return nil, err
	}

	d.cur = cur
	d.parser = riff.New(cur)
	d.bank = &Bank{}
	d.layers = [2]layerState{}

	defer func() { d.bank = nil }()

	if err := d.walk(); err != nil {
		d.err = err
		return nil, err
	}

	if err := d.checkLayers(); err != nil {
		d.err = err
		return nil, err
	}

	d.logger.Debug("bank decoded",
		"version", d.bank.Version.String(),
		"presets", len(d.bank.Presets),
		"instruments", len(d.bank.Instruments),
		"samples", len(d.bank.Samples))

	return d.bank, nil
}

// checkLayers verifies that every zone span resolved from the bag sections
// points into generator and modulator lists that were actually read.
func (d *Decoder) checkLayers() error {
	for _, side := range []layerSide{presetSide, instrumentSide} {
		arena := d.arena(side)
		st := d.layers[side]

		if len(arena.Zones) > 0 && !st.bags {
			return fmt.Errorf("%w: %d %s zones without a bag section", ErrSizeMismatch, len(arena.Zones), side)
		}

		if len(arena.Generators) != st.gens {
			return fmt.Errorf("%w: %s zones reference %d generators, %d read",
				ErrSizeMismatch, side, st.gens, len(arena.Generators))
		}

		if len(arena.Modulators) != st.mods {
			return fmt.Errorf("%w: %s zones reference %d modulators, %d read",
				ErrSizeMismatch, side, st.mods, len(arena.Modulators))
		}
	}

	return nil
}

func (d *Decoder) arena(side layerSide) *ZoneArena {
	if side == presetSide {
		return &d.bank.PresetZones
	}

	return &d.bank.InstrumentZones
}

// Decode reads a bank from r.
func Decode(r io.ReadSeeker, opts ...DecoderOption) (*Bank, error) {
	return NewDecoder(r, opts...).Decode()
}

// ReadFile decodes the bank at path. Non-empty files are memory-mapped for
// the duration of the decode; the returned bank does not reference the
// mapping.
func ReadFile(path string, opts ...DecoderOption) (b *Bank, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var r io.ReadSeeker = f

	if fi.Size() > 0 {
		m, merr := mmap.Map(f, mmap.RDONLY, 0)
		if merr != nil {
			return nil, fmt.Errorf("failed to map %s: %w", path, merr)
		}

		defer func() {
			if uerr := m.Unmap(); uerr != nil && err == nil {
				b, err = nil, fmt.Errorf("failed to unmap %s: %w", path, uerr)
			}
		}()

		r = bytes.NewReader(m)
	}

	b, err = Decode(r, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return b, nil
}
