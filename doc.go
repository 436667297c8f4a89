// Package sfont reads and writes SoundFont banks (sf2, and sf3 style banks
// with compressed samples).
//
// A bank is decoded in one pass into a Bank. Presets and instruments own
// their zones through spans into flat arenas, and every zone owns spans of
// generators and modulators:
//
//	b, err := sfont.ReadFile("piano.sf2")
//	if err != nil {
//		return err
//	}
//	for i := range b.Presets {
//		for _, z := range b.PresetZoneList(i) {
//			gens := b.PresetZones.ZoneGenerators(z)
//			...
//		}
//	}
//
// Writing regenerates the on-disk index columns from the arenas. Samples are
// either copied unchanged or re-encoded with a SampleEncoder:
//
//	err = sfont.WriteFile("piano.sf3", b,
//		sfont.WithCompressed(true),
//		sfont.WithQuality(0.5))
//
// Every error returned by the read and write paths wraps one of
// ErrTruncatedInput, ErrTagMismatch, ErrUnknownSection,
// ErrStructuralInconsistency or ErrEncoderInit.
package sfont
