package sfont

import (
	"fmt"
	"math"
)

// bagRecord is one entry of a pbag or ibag section.
type bagRecord struct {
	gen uint16
	mod uint16
}

const bagRecordSize = 4

// resolveOwnerSpans turns the next-index column of a header section into the
// zone span of every real record. The column includes the sentinel entry;
// record i owns column[i+1]-column[i] zones, and spans are numbered from zero
// whatever the first entry holds. A column with at most one entry holds no
// real records.
func resolveOwnerSpans(column []uint16, section string) ([]Span, error) {
	if len(column) <= 1 {
		return nil, nil
	}

	spans := make([]Span, 0, len(column)-1)
	start := 0

	for i := 1; i < len(column); i++ {
		if column[i] < column[i-1] {
			return nil, fmt.Errorf("%w: %s record %d index %d is below previous index %d",
				ErrStructuralInconsistency, section, i, column[i], column[i-1])
		}

		count := int(column[i] - column[i-1])
		spans = append(spans, Span{Start: start, Count: count})
		start += count
	}

	return spans, nil
}

// resolveBagSpans assigns generator and modulator spans to zones from the
// bag column. bags must hold at least len(zones)+1 records, the last one
// used being the sentinel. It returns the generator and modulator totals.
func resolveBagSpans(bags []bagRecord, zones []Zone, section string) (gens, mods int, err error) {
	if len(zones) == 0 {
		return 0, 0, nil
	}

	if len(bags) < len(zones)+1 {
		return 0, 0, fmt.Errorf("%w: %s has %d records for %d zones",
			ErrSizeMismatch, section, len(bags), len(zones))
	}

	for n := range zones {
		prev, next := bags[n], bags[n+1]

		if next.gen < prev.gen {
			return 0, 0, fmt.Errorf("%w: %s zone %d generator index %d is below previous index %d",
				ErrStructuralInconsistency, section, n, next.gen, prev.gen)
		}

		if next.mod < prev.mod {
			return 0, 0, fmt.Errorf("%w: %s zone %d modulator index %d is below previous index %d",
				ErrStructuralInconsistency, section, n, next.mod, prev.mod)
		}

		zones[n].Generators = Span{Start: gens, Count: int(next.gen - prev.gen)}
		zones[n].Modulators = Span{Start: mods, Count: int(next.mod - prev.mod)}

		gens += zones[n].Generators.Count
		mods += zones[n].Modulators.Count
	}

	return gens, mods, nil
}

// checkListSize verifies that a generator or modulator section holds exactly
// the resolved number of records plus the sentinel.
func checkListSize(size, records, recordSize int, section string) error {
	want := (records + 1) * recordSize
	if size != want {
		return fmt.Errorf("%w: %s is %d bytes, expected %d for %d records and the sentinel",
			ErrSizeMismatch, section, size, want, records)
	}

	return nil
}

// layerColumns is the flattened on-disk form of one side of the bank.
type layerColumns struct {
	// owners holds the next-index of every owner plus the sentinel total.
	owners []uint16
	// bags holds one record per zone plus the sentinel totals.
	bags []bagRecord
	gens []Generator
	mods []Modulator
}

// flattenLayer walks owners in order and emits the running zone, generator
// and modulator counts. The result inverts resolveOwnerSpans and
// resolveBagSpans.
func flattenLayer(owners []Span, arena *ZoneArena, side string) (*layerColumns, error) {
	cols := &layerColumns{owners: make([]uint16, 0, len(owners)+1)}

	zones := 0

	for i, span := range owners {
		if span.Start < 0 || span.Count < 0 || span.End() > len(arena.Zones) {
			return nil, fmt.Errorf("%w: %s %d zone span [%d,%d) outside %d zones",
				ErrStructuralInconsistency, side, i, span.Start, span.End(), len(arena.Zones))
		}

		idx, err := columnIndex(zones, side+" zones")
		if err != nil {
			return nil, err
		}

		cols.owners = append(cols.owners, idx)

		for _, z := range arena.Zones[span.Start:span.End()] {
			if err := cols.appendZone(arena, z, side); err != nil {
				return nil, err
			}
		}

		zones += span.Count
	}

	idx, err := columnIndex(zones, side+" zones")
	if err != nil {
		return nil, err
	}

	cols.owners = append(cols.owners, idx)

	gen, err := columnIndex(len(cols.gens), side+" generators")
	if err != nil {
		return nil, err
	}

	mod, err := columnIndex(len(cols.mods), side+" modulators")
	if err != nil {
		return nil, err
	}

	cols.bags = append(cols.bags, bagRecord{gen: gen, mod: mod})

	return cols, nil
}

func (cols *layerColumns) appendZone(arena *ZoneArena, z Zone, side string) error {
	if z.Generators.Start < 0 || z.Generators.Count < 0 || z.Generators.End() > len(arena.Generators) {
		return fmt.Errorf("%w: %s zone generator span [%d,%d) outside %d generators",
			ErrStructuralInconsistency, side, z.Generators.Start, z.Generators.End(), len(arena.Generators))
	}

	if z.Modulators.Start < 0 || z.Modulators.Count < 0 || z.Modulators.End() > len(arena.Modulators) {
		return fmt.Errorf("%w: %s zone modulator span [%d,%d) outside %d modulators",
			ErrStructuralInconsistency, side, z.Modulators.Start, z.Modulators.End(), len(arena.Modulators))
	}

	gen, err := columnIndex(len(cols.gens), side+" generators")
	if err != nil {
		return err
	}

	mod, err := columnIndex(len(cols.mods), side+" modulators")
	if err != nil {
		return err
	}

	cols.bags = append(cols.bags, bagRecord{gen: gen, mod: mod})
	cols.gens = append(cols.gens, arena.ZoneGenerators(z)...)
	cols.mods = append(cols.mods, arena.ZoneModulators(z)...)

	return nil
}

// columnIndex narrows a running count to the 16-bit on-disk index width.
func columnIndex(n int, what string) (uint16, error) {
	if n > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d %s exceed the 16-bit index range",
			ErrStructuralInconsistency, n, what)
	}

	return uint16(n), nil
}
