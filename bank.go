package sfont

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

var errCompressedSample = errors.New("sample data is compressed")

// Span is a contiguous index range into one of the arenas of a Bank.
type Span struct {
	Start int
	Count int
}

// End returns the index one past the last element of the span.
func (s Span) End() int { return s.Start + s.Count }

// Zone groups the generators and modulators of one region of a preset or
// instrument. The spans index into the ZoneArena that owns the zone.
type Zone struct {
	Generators Span
	Modulators Span
}

// ZoneArena stores the zones of one side of the bank (presets or
// instruments) together with the generators and modulators they own.
//
// Zones appear in owner order and each zone's generator and modulator spans
// follow the previous zone's. Decode produces arenas in that shape and the
// Add* helpers keep it.
type ZoneArena struct {
	Zones      []Zone
	Generators []Generator
	Modulators []Modulator
}

// ZoneGenerators returns the generators owned by z.
func (a *ZoneArena) ZoneGenerators(z Zone) []Generator {
	return a.Generators[z.Generators.Start:z.Generators.End()]
}

// ZoneModulators returns the modulators owned by z.
func (a *ZoneArena) ZoneModulators(z Zone) []Modulator {
	return a.Modulators[z.Modulators.Start:z.Modulators.End()]
}

// insertZone inserts a zone at position pos, placing its generators and
// modulators right after those of the zone before it and shifting every
// later zone.
func (a *ZoneArena) insertZone(pos int, gens []Generator, mods []Modulator) {
	genAt, modAt := 0, 0
	if pos > 0 {
		genAt = a.Zones[pos-1].Generators.End()
		modAt = a.Zones[pos-1].Modulators.End()
	}

	a.Generators = insertSlice(a.Generators, genAt, gens)
	a.Modulators = insertSlice(a.Modulators, modAt, mods)

	for i := pos; i < len(a.Zones); i++ {
		a.Zones[i].Generators.Start += len(gens)
		a.Zones[i].Modulators.Start += len(mods)
	}

	zone := Zone{
		Generators: Span{Start: genAt, Count: len(gens)},
		Modulators: Span{Start: modAt, Count: len(mods)},
	}
	a.Zones = insertSlice(a.Zones, pos, []Zone{zone})
}

func insertSlice[T any](s []T, at int, items []T) []T {
	if len(items) == 0 {
		return s
	}

	out := make([]T, 0, len(s)+len(items))
	out = append(out, s[:at]...)
	out = append(out, items...)

	return append(out, s[at:]...)
}

// Preset is a playable program addressed by bank and program number.
type Preset struct {
	Name       string
	Program    uint16
	Bank       uint16
	Library    uint32
	Genre      uint32
	Morphology uint32
	Zones      Span
}

// Instrument is a named collection of zones referencing samples.
type Instrument struct {
	Name  string
	Zones Span
}

// Bank is the in-memory form of a sound bank. It owns every entity; presets
// and instruments address their zones through spans into PresetZones and
// InstrumentZones.
type Bank struct {
	Version Version
	Info    Info

	Presets     []Preset
	Instruments []Instrument
	Samples     []Sample

	PresetZones     ZoneArena
	InstrumentZones ZoneArena

	// SampleData is the raw smpl payload that sample offsets refer to.
	SampleData []byte
}

// NewBank returns an empty version 2.1 bank.
func NewBank(name string) *Bank {
	return &Bank{
		Version: Version{Major: 2, Minor: 1},
		Info:    Info{Name: name},
	}
}

// PresetZoneList returns the zones owned by preset i.
func (b *Bank) PresetZoneList(i int) []Zone {
	span := b.Presets[i].Zones
	return b.PresetZones.Zones[span.Start:span.End()]
}

// InstrumentZoneList returns the zones owned by instrument i.
func (b *Bank) InstrumentZoneList(i int) []Zone {
	span := b.Instruments[i].Zones
	return b.InstrumentZones.Zones[span.Start:span.End()]
}

// AddPreset appends p with no zones and returns its index.
func (b *Bank) AddPreset(p Preset) int {
	p.Zones = Span{Start: len(b.PresetZones.Zones)}
	b.Presets = append(b.Presets, p)

	return len(b.Presets) - 1
}

// AddInstrument appends inst with no zones and returns its index.
func (b *Bank) AddInstrument(inst Instrument) int {
	inst.Zones = Span{Start: len(b.InstrumentZones.Zones)}
	b.Instruments = append(b.Instruments, inst)

	return len(b.Instruments) - 1
}

// AddPresetZone appends a zone to preset i.
func (b *Bank) AddPresetZone(i int, gens []Generator, mods []Modulator) error {
	if i < 0 || i >= len(b.Presets) {
		return fmt.Errorf("preset %d: %w", i, errNoSuchItem)
	}

	pos := b.Presets[i].Zones.End()
	b.PresetZones.insertZone(pos, gens, mods)

	b.Presets[i].Zones.Count++
	for j := i + 1; j < len(b.Presets); j++ {
		b.Presets[j].Zones.Start++
	}

	return nil
}

// AddInstrumentZone appends a zone to instrument i.
func (b *Bank) AddInstrumentZone(i int, gens []Generator, mods []Modulator) error {
	if i < 0 || i >= len(b.Instruments) {
		return fmt.Errorf("instrument %d: %w", i, errNoSuchItem)
	}

	pos := b.Instruments[i].Zones.End()
	b.InstrumentZones.insertZone(pos, gens, mods)

	b.Instruments[i].Zones.Count++
	for j := i + 1; j < len(b.Instruments); j++ {
		b.Instruments[j].Zones.Start++
	}

	return nil
}

// AddSample appends PCM16 frames to the sample payload and registers s for
// them. Start and End are assigned; loop points are taken as relative to the
// first frame.
func (b *Bank) AddSample(s Sample, pcm []int16) int {
	start := len(b.SampleData) / bytesPerPCMSample

	raw := make([]byte, len(pcm)*bytesPerPCMSample)
	for i, v := range pcm {
		binary.LittleEndian.PutUint16(raw[i*bytesPerPCMSample:], uint16(v))
	}

	b.SampleData = append(b.SampleData, raw...)

	s.Start = uint32(start)
	s.End = uint32(start + len(pcm))
	s.Type &^= SampleCompressed
	b.Samples = append(b.Samples, s)

	return len(b.Samples) - 1
}

// SampleBytes returns the stored bytes of sample i: PCM16 little-endian
// frames, or the encoded stream for compressed samples.
func (b *Bank) SampleBytes(i int) ([]byte, error) {
	if i < 0 || i >= len(b.Samples) {
		return nil, fmt.Errorf("sample %d: %w", i, errNoSuchItem)
	}

	s := b.Samples[i]

	start, end := int64(s.Start), int64(s.End)
	if !s.Type.IsCompressed() {
		start *= bytesPerPCMSample
		end *= bytesPerPCMSample
	}

	if end < start || end > int64(len(b.SampleData)) {
		return nil, fmt.Errorf("%w: sample %d %q spans [%d,%d) of a %d byte payload",
			ErrStructuralInconsistency, i, s.Name, start, end, len(b.SampleData))
	}

	return b.SampleData[start:end], nil
}

// SamplePCM decodes the frames of an uncompressed sample.
func (b *Bank) SamplePCM(i int) ([]int16, error) {
	raw, err := b.SampleBytes(i)
	if err != nil {
		return nil, err
	}

	if b.Samples[i].Type.IsCompressed() {
		return nil, fmt.Errorf("sample %d %q: %w", i, b.Samples[i].Name, errCompressedSample)
	}

	pcm := make([]int16, len(raw)/bytesPerPCMSample)
	for j := range pcm {
		pcm[j] = int16(binary.LittleEndian.Uint16(raw[j*bytesPerPCMSample:]))
	}

	return pcm, nil
}

// SampleDigest returns the xxHash64 of the stored bytes of sample i.
func (b *Bank) SampleDigest(i int) (uint64, error) {
	raw, err := b.SampleBytes(i)
	if err != nil {
		return 0, err
	}

	return xxhash.Sum64(raw), nil
}

// DumpPresets writes one line per preset: index, bank, program and name.
func (b *Bank) DumpPresets(w io.Writer) error {
	for i, p := range b.Presets {
		if _, err := fmt.Fprintf(w, "%03d %04x-%02x %s\n", i, p.Bank, p.Program, p.Name); err != nil {
			return err
		}
	}

	return nil
}
