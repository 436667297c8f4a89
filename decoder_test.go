package sfont

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

// twoPresetSections describes presets A and B owning zones [0,3) and [3,5),
// each zone holding one pan generator.
func twoPresetSections() map[string][]byte {
	sections := pdtaSections()

	sections["phdr"] = bytes.Join([][]byte{
		phdrRecord("A", 0, 0, 0),
		phdrRecord("B", 1, 0, 3),
		phdrRecord("EOP", 0, 0, 5),
	}, nil)
	sections["pbag"] = bagRecords(0, 0, 1, 0, 2, 0, 3, 0, 4, 0, 5, 0)

	gens := make([][]byte, 0, 6)
	for i := range 5 {
		gens = append(gens, genRecord(GenPan, uint16(i*10)))
	}

	gens = append(gens, genRecord(0, 0))
	sections["pgen"] = bytes.Join(gens, nil)

	return sections
}

func TestDecodeTwoPresets(t *testing.T) {
	b, err := decodeBytes(t, buildBank(twoPresetSections(), nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(b.Presets) != 2 {
		t.Fatalf("presets=%d, want 2", len(b.Presets))
	}

	if b.Presets[0].Name != "A" || b.Presets[1].Name != "B" || b.Presets[1].Program != 1 {
		t.Fatalf("preset headers: %+v", b.Presets)
	}

	if got := len(b.PresetZoneList(0)); got != 3 {
		t.Fatalf("preset A zones=%d, want 3", got)
	}

	if got := len(b.PresetZoneList(1)); got != 2 {
		t.Fatalf("preset B zones=%d, want 2", got)
	}

	if len(b.PresetZones.Generators) != 5 {
		t.Fatalf("generators=%d, want 5", len(b.PresetZones.Generators))
	}

	z := b.PresetZoneList(1)[1]

	gens := b.PresetZones.ZoneGenerators(z)
	if len(gens) != 1 || gens[0].Kind != GenPan || gens[0].Amount.Signed() != 40 {
		t.Fatalf("last zone generators=%v", gens)
	}

	if b.Version != (Version{Major: 2, Minor: 1}) {
		t.Fatalf("version=%v", b.Version)
	}
}

func TestDecodeMinimalBank(t *testing.T) {
	b, err := decodeBytes(t, buildBank(pdtaSections(), nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(b.Presets) != 0 || len(b.Instruments) != 0 || len(b.Samples) != 0 {
		t.Fatalf("expected an empty bank, got %d/%d/%d",
			len(b.Presets), len(b.Instruments), len(b.Samples))
	}
}

func TestDecodeTruncatedPresetHeaders(t *testing.T) {
	sections := pdtaSections()
	sections["phdr"] = append(phdrRecord("A", 0, 0, 0), phdrRecord("EOP", 0, 0, 0)...)

	data := buildBank(sections, nil)

	idx := bytes.Index(data, []byte("phdr"))
	if idx < 0 {
		t.Fatal("phdr not found")
	}

	data = data[:idx+chunkHeaderSize+presetRecordSize]

	_, err := decodeBytes(t, data)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("err=%v, want ErrTruncatedInput", err)
	}
}

func TestDecodeStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(map[string][]byte)
		want   error
	}{
		{
			name: "preset index decreases",
			modify: func(s map[string][]byte) {
				s["phdr"] = bytes.Join([][]byte{
					phdrRecord("A", 0, 0, 0),
					phdrRecord("B", 0, 0, 3),
					phdrRecord("EOP", 0, 0, 2),
				}, nil)
			},
			want: ErrStructuralInconsistency,
		},
		{
			name: "bag index decreases",
			modify: func(s map[string][]byte) {
				s["pbag"] = bagRecords(0, 0, 1, 0, 2, 0, 1, 0, 4, 0, 5, 0)
			},
			want: ErrStructuralInconsistency,
		},
		{
			name: "generator list too short",
			modify: func(s map[string][]byte) {
				s["pgen"] = s["pgen"][:2*generatorRecordSize]
			},
			want: ErrSizeMismatch,
		},
		{
			name: "generator list too long",
			modify: func(s map[string][]byte) {
				s["pgen"] = append(s["pgen"], genRecord(GenPan, 1)...)
			},
			want: ErrSizeMismatch,
		},
		{
			name: "modulator list too long",
			modify: func(s map[string][]byte) {
				s["pmod"] = make([]byte, 2*modulatorRecordSize)
			},
			want: ErrSizeMismatch,
		},
		{
			name: "preset generator list missing",
			modify: func(s map[string][]byte) {
				delete(s, "pgen")
			},
			want: ErrSizeMismatch,
		},
		{
			name: "preset bag list missing",
			modify: func(s map[string][]byte) {
				delete(s, "pbag")
			},
			want: ErrSizeMismatch,
		},
		{
			name: "too few bags",
			modify: func(s map[string][]byte) {
				s["pbag"] = bagRecords(0, 0, 1, 0)
			},
			want: ErrSizeMismatch,
		},
		{
			name: "preset headers not a multiple of the record size",
			modify: func(s map[string][]byte) {
				s["phdr"] = append(s["phdr"], 0, 0)
			},
			want: ErrSizeMismatch,
		},
		{
			name: "bag list not a multiple of the record size",
			modify: func(s map[string][]byte) {
				s["pbag"] = append(s["pbag"], 0, 0)
			},
			want: ErrSizeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections := twoPresetSections()
			tt.modify(sections)

			_, err := decodeBytes(t, buildBank(sections, nil))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err=%v, want %v", err, tt.want)
			}

			if !errors.Is(err, ErrStructuralInconsistency) {
				t.Fatalf("err=%v does not wrap ErrStructuralInconsistency", err)
			}
		})
	}
}

func TestDecodeToleratesExcessBags(t *testing.T) {
	sections := twoPresetSections()
	sections["pbag"] = append(sections["pbag"], bagRecords(5, 0, 5, 0)...)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	b, err := decodeBytes(t, buildBank(sections, nil), WithDecoderLogger(logger))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !strings.Contains(logs.String(), "skipping excess bag records") {
		t.Fatalf("no warning logged:\n%s", logs.String())
	}

	if len(b.PresetZones.Zones) != 5 {
		t.Fatalf("zones=%d, want 5", len(b.PresetZones.Zones))
	}
}

func TestDecodeUnknownSections(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "unknown tag in pdta",
			data: riffBytes(
				listBytes("INFO", chunkBytes("ifil", le16(2, 1))),
				listBytes("pdta", chunkBytes("zzzz", []byte{1, 2})),
			),
		},
		{
			name: "smpl under pdta",
			data: riffBytes(
				listBytes("pdta", chunkBytes("smpl", []byte{1, 2})),
			),
		},
		{
			name: "ifil under sdta",
			data: riffBytes(
				listBytes("sdta", chunkBytes("ifil", le16(2, 1))),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeBytes(t, tt.data)
			if !errors.Is(err, ErrUnknownSection) {
				t.Fatalf("err=%v, want ErrUnknownSection", err)
			}
		})
	}
}

func TestDecodeSkipsRecognizedOpaqueSections(t *testing.T) {
	data := riffBytes(
		listBytes("INFO",
			chunkBytes("ifil", le16(2, 4)),
			chunkBytes("irom", []byte("ROM\x00")),
			chunkBytes("iver", le16(1, 0)),
			chunkBytes("INAM", []byte("Skip\x00")),
		),
		listBytes("sdta",
			chunkBytes("smpl", le16(1, 2, 3)),
			chunkBytes("sm24", []byte{9, 9, 9}),
		),
		listBytes("pdta"),
	)

	b, err := decodeBytes(t, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if b.Info.Name != "Skip" {
		t.Fatalf("name=%q, want Skip", b.Info.Name)
	}

	if !bytes.Equal(b.SampleData, le16(1, 2, 3)) {
		t.Fatalf("sample data=%v", b.SampleData)
	}

	if b.Version.String() != "2.04" {
		t.Fatalf("version=%s", b.Version)
	}
}

func TestDecodeTagMismatch(t *testing.T) {
	valid := buildBank(pdtaSections(), nil)

	rifx := append([]byte("RIFX"), valid[4:]...)

	wave := append([]byte(nil), valid...)
	copy(wave[8:12], "WAVE")

	tests := []struct {
		name string
		data []byte
	}{
		{name: "RIFX envelope", data: rifx},
		{name: "WAVE form", data: wave},
		{name: "unexpected list kind", data: riffBytes(listBytes("abcd", chunkBytes("ifil", le16(2, 1))))},
		{name: "leaf at top level", data: riffBytes(chunkBytes("ifil", le16(2, 1)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeBytes(t, tt.data)
			if !errors.Is(err, ErrTagMismatch) {
				t.Fatalf("err=%v, want ErrTagMismatch", err)
			}
		})
	}
}

func TestDecodeOddLengthString(t *testing.T) {
	data := riffBytes(
		listBytes("INFO",
			chunkBytes("INAM", []byte("abcd\x00")),
			chunkBytes("ifil", le16(2, 1)),
			chunkBytes("ICMT", []byte("odd")),
		),
		listBytes("pdta"),
	)

	b, err := decodeBytes(t, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if b.Info.Name != "abcd" || b.Info.Comment != "odd" {
		t.Fatalf("info=%+v", b.Info)
	}
}

func TestDecodeShortVersion(t *testing.T) {
	data := riffBytes(listBytes("INFO", chunkBytes("ifil", le16(2))))

	_, err := decodeBytes(t, data)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("err=%v, want ErrSizeMismatch", err)
	}
}

func TestDecodeChunkOverrunsList(t *testing.T) {
	data := buildBank(pdtaSections(), nil)

	// Grow the declared ifil length past the end of its LIST.
	idx := bytes.Index(data, []byte("ifil"))
	copy(data[idx+4:idx+8], le32(64))

	_, err := decodeBytes(t, data)
	if !errors.Is(err, ErrStructuralInconsistency) {
		t.Fatalf("err=%v, want ErrStructuralInconsistency", err)
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	_, err := decodeBytes(t, nil)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("err=%v, want ErrTruncatedInput", err)
	}
}

func TestDecodeFailureReturnsNoBank(t *testing.T) {
	d := NewDecoder(bytes.NewReader(riffBytes(listBytes("pdta", chunkBytes("zzzz", nil)))))

	b, err := d.Decode()
	if err == nil || b != nil {
		t.Fatalf("Decode()=%v, %v; want nil bank and an error", b, err)
	}

	if !errors.Is(d.Err(), ErrUnknownSection) {
		t.Fatalf("Err()=%v", d.Err())
	}
}

func TestDecodeBagAccounting(t *testing.T) {
	b, err := decodeBytes(t, encodeBank(t, testBank(t)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, arena := range []*ZoneArena{&b.PresetZones, &b.InstrumentZones} {
		gens, mods := 0, 0
		for _, z := range arena.Zones {
			gens += z.Generators.Count
			mods += z.Modulators.Count
		}

		if gens != len(arena.Generators) || mods != len(arena.Modulators) {
			t.Fatalf("zones own %d/%d records, arena has %d/%d",
				gens, mods, len(arena.Generators), len(arena.Modulators))
		}
	}

	want := testBank(t)
	if !reflect.DeepEqual(b, want) {
		t.Fatalf("decoded bank differs:\n got %+v\nwant %+v", b, want)
	}
}

// modulatedInstrumentSections describes one instrument whose only zone holds
// a single modulator and no generators.
func modulatedInstrumentSections() map[string][]byte {
	sections := pdtaSections()

	sections["inst"] = bytes.Join([][]byte{
		instRecord("I", 0),
		instRecord("EOI", 1),
	}, nil)
	sections["ibag"] = bagRecords(0, 0, 0, 1)
	sections["imod"] = append(le16(2, uint16(GenPan), 100, 0, 0), make([]byte, modulatorRecordSize)...)

	return sections
}

func TestDecodeMissingInstrumentModulators(t *testing.T) {
	b, err := decodeBytes(t, buildBank(modulatedInstrumentSections(), nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	z := b.InstrumentZoneList(0)[0]
	if mods := b.InstrumentZones.ZoneModulators(z); len(mods) != 1 || mods[0].Amount != 100 {
		t.Fatalf("modulators=%+v", mods)
	}

	sections := modulatedInstrumentSections()
	delete(sections, "imod")

	d := NewDecoder(bytes.NewReader(buildBank(sections, nil)))

	b, err = d.Decode()
	if !errors.Is(err, ErrSizeMismatch) || b != nil {
		t.Fatalf("Decode()=%v, %v; want nil bank and ErrSizeMismatch", b, err)
	}

	if !errors.Is(d.Err(), ErrStructuralInconsistency) {
		t.Fatalf("Err()=%v", d.Err())
	}
}

// oversizedChunk returns a bank whose only leaf declares size bytes under
// list kind but carries a few bytes of payload. The parent lengths admit the
// declared size so the leaf handler starts reading.
func oversizedChunk(kind, id string, size uint32) []byte {
	payload := make([]byte, 16)

	out := []byte("RIFF")
	out = append(out, le32(4+8+4+8+size)...)
	out = append(out, "sfbk"...)
	out = append(out, "LIST"...)
	out = append(out, le32(4+8+size)...)
	out = append(out, kind...)
	out = append(out, id...)
	out = append(out, le32(size)...)

	return append(out, payload...)
}

func TestDecodeOversizedDeclaredLength(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"INAM of 1 GiB", oversizedChunk("INFO", "INAM", 1<<30)},
		{"phdr of 4e6 records", oversizedChunk("pdta", "phdr", presetRecordSize*4_000_000)},
		{"shdr of 4e6 records", oversizedChunk("pdta", "shdr", sampleRecordSize*4_000_000)},
		{"smpl of 1 GiB", oversizedChunk("sdta", "smpl", 1<<30)},
	}

	const limit = 16 << 20

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before, after runtime.MemStats

			runtime.GC()
			runtime.ReadMemStats(&before)

			_, err := decodeBytes(t, tt.data)

			runtime.ReadMemStats(&after)

			if !errors.Is(err, ErrTruncatedInput) {
				t.Fatalf("err=%v, want ErrTruncatedInput", err)
			}

			if got := after.TotalAlloc - before.TotalAlloc; got > limit {
				t.Fatalf("decoding %d bytes allocated %d bytes", len(tt.data), got)
			}
		})
	}
}
