package sfont

import (
	"fmt"

	"github.com/go-audio/riff"
)

var (
	markerPhdr = [4]byte{'p', 'h', 'd', 'r'}
	markerPbag = [4]byte{'p', 'b', 'a', 'g'}
	markerPmod = [4]byte{'p', 'm', 'o', 'd'}
	markerPgen = [4]byte{'p', 'g', 'e', 'n'}
	markerInst = [4]byte{'i', 'n', 's', 't'}
	markerIbag = [4]byte{'i', 'b', 'a', 'g'}
	markerImod = [4]byte{'i', 'm', 'o', 'd'}
	markerIgen = [4]byte{'i', 'g', 'e', 'n'}
)

const (
	presetRecordSize     = 38
	instrumentRecordSize = 22

	presetTerminator     = "EOP"
	instrumentTerminator = "EOI"
)

// recordCount returns the number of whole records in a section and rejects
// lengths that are not a multiple of the record width.
func recordCount(ch *riff.Chunk, recordSize int) (int, error) {
	if ch.Size%recordSize != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a multiple of %d",
			ErrSizeMismatch, ch.Size, recordSize)
	}

	return ch.Size / recordSize, nil
}

// maxPrealloc caps the capacity reserved from a declared record count.
// Larger sections grow as their records are actually read.
const maxPrealloc = 4096

func preallocCap(n int) int {
	return min(max(n, 0), maxPrealloc)
}

// zoneTotal is the number of zones covered by spans.
func zoneTotal(spans []Span) int {
	if len(spans) == 0 {
		return 0
	}

	return spans[len(spans)-1].End()
}

type presetHeaderHandler struct{}

func (h *presetHeaderHandler) ListKind() [4]byte { return CIDPdta }

func (h *presetHeaderHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == markerPhdr && listKind == CIDPdta
}

func (h *presetHeaderHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	n, err := recordCount(ch, presetRecordSize)
	if err != nil {
		return err
	}

	presets := make([]Preset, 0, preallocCap(n))
	column := make([]uint16, 0, preallocCap(n))

	for range n {
		p, idx, err := readPresetHeader(d.cur)
		if err != nil {
			return err
		}

		presets = append(presets, p)
		column = append(column, idx)
	}

	spans, err := resolveOwnerSpans(column, "phdr")
	if err != nil {
		return err
	}

	presets = presets[:len(spans)]
	for i := range presets {
		presets[i].Zones = spans[i]
	}

	d.bank.Presets = presets
	d.bank.PresetZones.Zones = make([]Zone, zoneTotal(spans))

	return nil
}

func (h *presetHeaderHandler) Encode(e *Encoder) error {
	return e.writeChunk(markerPhdr, func() error {
		cols := e.columns[presetSide]
		for i, p := range e.bank.Presets {
			if err := writePresetHeader(e.cur, p, cols.owners[i]); err != nil {
				return err
			}
		}

		return writePresetHeader(e.cur, Preset{Name: presetTerminator}, cols.owners[len(cols.owners)-1])
	})
}

func readPresetHeader(c *cursor) (Preset, uint16, error) {
	var (
		p   Preset
		idx uint16
		err error
	)

	if p.Name, err = c.readString(nameFieldSize); err != nil {
		return p, 0, err
	}

	if p.Program, err = c.readU16(); err != nil {
		return p, 0, err
	}

	if p.Bank, err = c.readU16(); err != nil {
		return p, 0, err
	}

	if idx, err = c.readU16(); err != nil {
		return p, 0, err
	}

	for _, dst := range []*uint32{&p.Library, &p.Genre, &p.Morphology} {
		if *dst, err = c.readU32(); err != nil {
			return p, 0, err
		}
	}

	return p, idx, nil
}

func writePresetHeader(c *cursor, p Preset, idx uint16) error {
	if err := c.writeFixedString(p.Name, nameFieldSize); err != nil {
		return err
	}

	for _, v := range []uint16{p.Program, p.Bank, idx} {
		if err := c.writeU16(v); err != nil {
			return err
		}
	}

	for _, v := range []uint32{p.Library, p.Genre, p.Morphology} {
		if err := c.writeU32(v); err != nil {
			return err
		}
	}

	return nil
}

type instrumentHeaderHandler struct{}

func (h *instrumentHeaderHandler) ListKind() [4]byte { return CIDPdta }

func (h *instrumentHeaderHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == markerInst && listKind == CIDPdta
}

func (h *instrumentHeaderHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	n, err := recordCount(ch, instrumentRecordSize)
	if err != nil {
		return err
	}

	insts := make([]Instrument, 0, preallocCap(n))
	column := make([]uint16, 0, preallocCap(n))

	for range n {
		name, err := d.cur.readString(nameFieldSize)
		if err != nil {
			return err
		}

		idx, err := d.cur.readU16()
		if err != nil {
			return err
		}

		insts = append(insts, Instrument{Name: name})
		column = append(column, idx)
	}

	spans, err := resolveOwnerSpans(column, "inst")
	if err != nil {
		return err
	}

	insts = insts[:len(spans)]
	for i := range insts {
		insts[i].Zones = spans[i]
	}

	d.bank.Instruments = insts
	d.bank.InstrumentZones.Zones = make([]Zone, zoneTotal(spans))

	return nil
}

func (h *instrumentHeaderHandler) Encode(e *Encoder) error {
	return e.writeChunk(markerInst, func() error {
		cols := e.columns[instrumentSide]
		names := make([]string, 0, len(e.bank.Instruments)+1)

		for _, inst := range e.bank.Instruments {
			names = append(names, inst.Name)
		}

		names = append(names, instrumentTerminator)

		for i, name := range names {
			if err := e.cur.writeFixedString(name, nameFieldSize); err != nil {
				return err
			}

			if err := e.cur.writeU16(cols.owners[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

// bagHandler reads and writes pbag and ibag.
type bagHandler struct {
	id   [4]byte
	side layerSide
}

func (h *bagHandler) ListKind() [4]byte { return CIDPdta }

func (h *bagHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == h.id && listKind == CIDPdta
}

func (h *bagHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	n, err := recordCount(ch, bagRecordSize)
	if err != nil {
		return err
	}

	arena := d.arena(h.side)

	want := len(arena.Zones) + 1
	if len(arena.Zones) == 0 {
		want = min(n, 1)
	}

	if n < want {
		return fmt.Errorf("%w: %d records for %d zones", ErrSizeMismatch, n, len(arena.Zones))
	}

	bags := make([]bagRecord, want)
	for i := range bags {
		if bags[i].gen, err = d.cur.readU16(); err != nil {
			return err
		}

		if bags[i].mod, err = d.cur.readU16(); err != nil {
			return err
		}
	}

	if n > want {
		d.logger.Warn("skipping excess bag records", "tag", chunkName(h.id), "zones", len(arena.Zones), "records", n)

		if err := d.cur.skip(int64(n-want) * bagRecordSize); err != nil {
			return err
		}
	}

	gens, mods, err := resolveBagSpans(bags, arena.Zones, chunkName(h.id))
	if err != nil {
		return err
	}

	d.layers[h.side] = layerState{gens: gens, mods: mods, bags: true}

	return nil
}

func (h *bagHandler) Encode(e *Encoder) error {
	return e.writeChunk(h.id, func() error {
		for _, bag := range e.columns[h.side].bags {
			if err := e.cur.writeU16(bag.gen); err != nil {
				return err
			}

			if err := e.cur.writeU16(bag.mod); err != nil {
				return err
			}
		}

		return nil
	})
}

// modulatorListHandler reads and writes pmod and imod.
type modulatorListHandler struct {
	id   [4]byte
	side layerSide
}

func (h *modulatorListHandler) ListKind() [4]byte { return CIDPdta }

func (h *modulatorListHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == h.id && listKind == CIDPdta
}

func (h *modulatorListHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	total := d.layers[h.side].mods
	if err := checkListSize(ch.Size, total, modulatorRecordSize, chunkName(h.id)); err != nil {
		return err
	}

	mods := make([]Modulator, 0, preallocCap(total))
	for range total {
		m, err := readModulator(d.cur)
		if err != nil {
			return err
		}

		mods = append(mods, m)
	}

	d.arena(h.side).Modulators = mods

	// terminal record
	return d.cur.skip(modulatorRecordSize)
}

func (h *modulatorListHandler) Encode(e *Encoder) error {
	return e.writeChunk(h.id, func() error {
		for _, m := range e.columns[h.side].mods {
			if err := writeModulator(e.cur, m); err != nil {
				return err
			}
		}

		return writeModulator(e.cur, Modulator{})
	})
}

// generatorListHandler reads and writes pgen and igen.
type generatorListHandler struct {
	id   [4]byte
	side layerSide
}

func (h *generatorListHandler) ListKind() [4]byte { return CIDPdta }

func (h *generatorListHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == h.id && listKind == CIDPdta
}

func (h *generatorListHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	total := d.layers[h.side].gens
	if err := checkListSize(ch.Size, total, generatorRecordSize, chunkName(h.id)); err != nil {
		return err
	}

	gens := make([]Generator, 0, preallocCap(total))
	for range total {
		g, err := readGenerator(d.cur)
		if err != nil {
			return err
		}

		gens = append(gens, g)
	}

	d.arena(h.side).Generators = gens

	// terminal record
	return d.cur.skip(generatorRecordSize)
}

func (h *generatorListHandler) Encode(e *Encoder) error {
	return e.writeChunk(h.id, func() error {
		for _, g := range e.columns[h.side].gens {
			if err := writeGenerator(e.cur, g); err != nil {
				return err
			}
		}

		return writeGenerator(e.cur, Generator{})
	})
}
