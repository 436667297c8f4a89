package sfont

import (
	"bytes"
	"testing"
)

func roundTripGenerator(t *testing.T, g Generator) (Generator, []byte) {
	t.Helper()

	var out seekBuffer

	w, err := newWriteCursor(&out)
	if err != nil {
		t.Fatalf("write cursor: %v", err)
	}

	if err := writeGenerator(w, g); err != nil {
		t.Fatalf("writeGenerator(%v): %v", g, err)
	}

	r, err := newReadCursor(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("read cursor: %v", err)
	}

	got, err := readGenerator(r)
	if err != nil {
		t.Fatalf("readGenerator: %v", err)
	}

	return got, out.Bytes()
}

func TestGeneratorPayloadDispatch(t *testing.T) {
	for k := range numGeneratorKinds {
		kind := GeneratorKind(k)

		var amounts []Amount

		switch {
		case kind.IsRange():
			amounts = []Amount{RangeAmount(0, 127), RangeAmount(255, 0), RangeAmount(60, 60)}
		case kind.IsReference():
			amounts = []Amount{UnsignedAmount(0), UnsignedAmount(1), UnsignedAmount(65535), UnsignedAmount(32768)}
		default:
			amounts = []Amount{SignedAmount(-32768), SignedAmount(32767), SignedAmount(0), SignedAmount(1), SignedAmount(-1)}
		}

		for _, a := range amounts {
			g := Generator{Kind: kind, Amount: a}

			got, raw := roundTripGenerator(t, g)
			if got != g {
				t.Fatalf("%s: got %v, want %v", kind, got, g)
			}

			if len(raw) != generatorRecordSize {
				t.Fatalf("%s: record is %d bytes", kind, len(raw))
			}
		}
	}
}

func TestGeneratorRangeByteOrder(t *testing.T) {
	_, raw := roundTripGenerator(t, Generator{Kind: GenKeyRange, Amount: RangeAmount(36, 96)})

	want := []byte{43, 0, 36, 96}
	if !bytes.Equal(raw, want) {
		t.Fatalf("raw=%v, want %v", raw, want)
	}

	lo, hi := RangeAmount(36, 96).Range()
	if lo != 36 || hi != 96 {
		t.Fatalf("Range()=%d,%d", lo, hi)
	}
}

func TestGeneratorAmountViews(t *testing.T) {
	a := SignedAmount(-2)
	if a.Unsigned() != 0xfffe || a.Signed() != -2 {
		t.Fatalf("views of -2: %d %d", a.Unsigned(), a.Signed())
	}

	if UnsignedAmount(40000).Signed() != -25536 {
		t.Fatalf("unsigned 40000 as signed = %d", UnsignedAmount(40000).Signed())
	}
}

func TestGeneratorKindString(t *testing.T) {
	tests := []struct {
		kind GeneratorKind
		want string
	}{
		{GenStartAddrOffset, "StartAddrOfs"},
		{GenInstrument, "Instrument"},
		{GenKeyRange, "KeyRange"},
		{GenSampleID, "SampleId"},
		{GenEndOper, "EndOper"},
		{GeneratorKind(99), "Generator(99)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Fatalf("String(%d)=%q, want %q", uint16(tt.kind), got, tt.want)
		}
	}

	g := Generator{Kind: GenVelRange, Amount: RangeAmount(1, 100)}
	if g.String() != "VelRange 1-100" {
		t.Fatalf("String()=%q", g.String())
	}

	g = Generator{Kind: GenPan, Amount: SignedAmount(-500)}
	if g.String() != "Pan -500" {
		t.Fatalf("String()=%q", g.String())
	}
}

func TestModulatorRecordRoundTrip(t *testing.T) {
	m := Modulator{
		Source:       ModSource(0x80 | 0x200 | 7),
		Destination:  GenInitialAttenuation,
		Amount:       -960,
		AmountSource: SrcNoteOnKey,
		Transform:    TransformAbsoluteValue,
	}

	var out seekBuffer

	w, err := newWriteCursor(&out)
	if err != nil {
		t.Fatalf("write cursor: %v", err)
	}

	if err := writeModulator(w, m); err != nil {
		t.Fatalf("writeModulator: %v", err)
	}

	if len(out.Bytes()) != modulatorRecordSize {
		t.Fatalf("record is %d bytes", len(out.Bytes()))
	}

	r, err := newReadCursor(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("read cursor: %v", err)
	}

	got, err := readModulator(r)
	if err != nil {
		t.Fatalf("readModulator: %v", err)
	}

	if got != m {
		t.Fatalf("got %+v, want %+v", got, m)
	}

	if !got.Source.IsMIDIController() || !got.Source.IsBipolar() || got.Source.Index() != 7 {
		t.Fatalf("source bits not decoded: %v", got.Source)
	}

	if got.Source.String() != "CC7" || got.AmountSource.String() != "key" {
		t.Fatalf("source names %q %q", got.Source, got.AmountSource)
	}
}
