package sfont

// InstrumentReachable reports whether any zone of the given presets
// references instrument inst. A nil preset list means every preset.
func (b *Bank) InstrumentReachable(presets []int, inst int) bool {
	if presets == nil {
		presets = allIndices(len(b.Presets))
	}

	for _, p := range presets {
		if p < 0 || p >= len(b.Presets) {
			continue
		}

		for _, z := range b.PresetZoneList(p) {
			if zoneReferences(&b.PresetZones, z, GenInstrument, inst) {
				return true
			}
		}
	}

	return false
}

// SampleReachable reports whether sample is referenced by an instrument that
// one of the given presets reaches. A nil preset list means every preset.
func (b *Bank) SampleReachable(presets []int, sample int) bool {
	for i := range b.Instruments {
		if !b.InstrumentReachable(presets, i) {
			continue
		}

		for _, z := range b.InstrumentZoneList(i) {
			if zoneReferences(&b.InstrumentZones, z, GenSampleID, sample) {
				return true
			}
		}
	}

	return false
}

// UnreachableInstruments lists the instruments no preset references.
func (b *Bank) UnreachableInstruments() []int {
	var out []int

	for i := range b.Instruments {
		if !b.InstrumentReachable(nil, i) {
			out = append(out, i)
		}
	}

	return out
}

// UnreachableSamples lists the samples no preset reaches through an
// instrument.
func (b *Bank) UnreachableSamples() []int {
	used := make([]bool, len(b.Samples))

	for i := range b.Instruments {
		if !b.InstrumentReachable(nil, i) {
			continue
		}

		for _, z := range b.InstrumentZoneList(i) {
			for _, g := range b.InstrumentZones.ZoneGenerators(z) {
				if g.Kind == GenSampleID && int(g.Amount.Unsigned()) < len(used) {
					used[g.Amount.Unsigned()] = true
				}
			}
		}
	}

	var out []int

	for i, ok := range used {
		if !ok {
			out = append(out, i)
		}
	}

	return out
}

func zoneReferences(a *ZoneArena, z Zone, kind GeneratorKind, target int) bool {
	for _, g := range a.ZoneGenerators(z) {
		if g.Kind == kind && int(g.Amount.Unsigned()) == target {
			return true
		}
	}

	return false
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}
