package sfont

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"testing"
)

type testChunk struct {
	list string
	id   string
	size uint32
	data []byte
}

var (
	errFileTooSmall         = errors.New("file too small")
	errInvalidRiffSfbkHdr   = errors.New("invalid riff/sfbk header")
	errChunkExceedsFileSize = errors.New("chunk exceeds file size")
)

// parseBankChunks lists the leaf chunks of a bank with the kind of the LIST
// that holds them.
func parseBankChunks(data []byte) ([]testChunk, error) {
	if len(data) < 12 {
		return nil, errFileTooSmall
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "sfbk" {
		return nil, errInvalidRiffSfbkHdr
	}

	var chunks []testChunk

	offset := 12
	for offset+12 <= len(data) {
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		kind := string(data[offset+8 : offset+12])

		end := offset + 8 + size
		if end > len(data) {
			return nil, fmt.Errorf("%w: LIST %q", errChunkExceedsFileSize, kind)
		}

		inner := offset + 12
		for inner+8 <= end {
			id := string(data[inner : inner+4])
			csize := binary.LittleEndian.Uint32(data[inner+4 : inner+8])
			inner += 8

			cend := inner + int(csize)
			if cend > end {
				return nil, fmt.Errorf("%w: %q", errChunkExceedsFileSize, id)
			}

			payload := append([]byte(nil), data[inner:cend]...)
			chunks = append(chunks, testChunk{list: kind, id: id, size: csize, data: payload})

			inner = cend + int(csize%2)
		}

		offset = end + size%2
	}

	return chunks, nil
}

func findChunk(chunks []testChunk, id string) (*testChunk, int) {
	for i := range chunks {
		if chunks[i].id == id {
			return &chunks[i], i
		}
	}

	return nil, -1
}

// chunkBytes frames data as a chunk, adding the pad byte for odd lengths.
func chunkBytes(id string, data []byte) []byte {
	out := make([]byte, 0, 8+len(data)+1)
	out = append(out, id...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)

	if len(data)%2 == 1 {
		out = append(out, 0)
	}

	return out
}

func listBytes(kind string, chunks ...[]byte) []byte {
	return chunkBytes("LIST", append([]byte(kind), bytes.Join(chunks, nil)...))
}

func riffBytes(lists ...[]byte) []byte {
	return chunkBytes("RIFF", append([]byte("sfbk"), bytes.Join(lists, nil)...))
}

func le16(vals ...uint16) []byte {
	out := make([]byte, 0, 2*len(vals))
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint16(out, v)
	}

	return out
}

func le32(vals ...uint32) []byte {
	out := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, v)
	}

	return out
}

func name20(name string) []byte {
	out := make([]byte, nameFieldSize)
	copy(out, name)

	return out
}

func phdrRecord(name string, program, bank, zoneIdx uint16) []byte {
	rec := name20(name)
	rec = append(rec, le16(program, bank, zoneIdx)...)

	return append(rec, le32(0, 0, 0)...)
}

func instRecord(name string, zoneIdx uint16) []byte {
	return append(name20(name), le16(zoneIdx)...)
}

// bagRecords takes generator and modulator start indices in pairs.
func bagRecords(idx ...uint16) []byte {
	return le16(idx...)
}

func genRecord(kind GeneratorKind, amount uint16) []byte {
	return le16(uint16(kind), amount)
}

func shdrRecord(name string, start, end, loopStart, loopEnd, rate uint32, typ SampleType) []byte {
	rec := name20(name)
	rec = append(rec, le32(start, end, loopStart, loopEnd, rate)...)
	rec = append(rec, 60, 0)

	return append(rec, le16(0, uint16(typ))...)
}

// pdtaSections returns the minimal valid pdta sections, to be overridden
// per test.
func pdtaSections() map[string][]byte {
	return map[string][]byte{
		"phdr": phdrRecord("EOP", 0, 0, 0),
		"pbag": bagRecords(0, 0),
		"pmod": make([]byte, modulatorRecordSize),
		"pgen": make([]byte, generatorRecordSize),
		"inst": instRecord("EOI", 0),
		"ibag": bagRecords(0, 0),
		"imod": make([]byte, modulatorRecordSize),
		"igen": make([]byte, generatorRecordSize),
		"shdr": shdrRecord("EOS", 0, 0, 0, 0, 0, 0),
	}
}

var pdtaOrder = []string{"phdr", "pbag", "pmod", "pgen", "inst", "ibag", "imod", "igen", "shdr"}

// buildBank assembles a bank from the given pdta sections, an ifil of 2.1
// and the given smpl payload.
func buildBank(sections map[string][]byte, smpl []byte) []byte {
	pdta := make([][]byte, 0, len(pdtaOrder))
	for _, id := range pdtaOrder {
		if data, ok := sections[id]; ok {
			pdta = append(pdta, chunkBytes(id, data))
		}
	}

	return riffBytes(
		listBytes("INFO", chunkBytes("ifil", le16(2, 1))),
		listBytes("sdta", chunkBytes("smpl", smpl)),
		listBytes("pdta", pdta...),
	)
}

func decodeBytes(t *testing.T, data []byte, opts ...DecoderOption) (*Bank, error) {
	t.Helper()

	return NewDecoder(bytes.NewReader(data), opts...).Decode()
}

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	buf []byte
	pos int64
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		s.buf = append(s.buf, make([]byte, end-int64(len(s.buf)))...)
	}

	copy(s.buf[s.pos:end], p)
	s.pos = end

	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = s.pos
	case io.SeekEnd:
		base = int64(len(s.buf))
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}

	if base+offset < 0 {
		return 0, fmt.Errorf("negative position %d", base+offset)
	}

	s.pos = base + offset

	return s.pos, nil
}

func (s *seekBuffer) Bytes() []byte {
	return s.buf
}

func encodeBank(t *testing.T, b *Bank, opts ...EncoderOption) []byte {
	t.Helper()

	var out seekBuffer
	if err := NewEncoder(&out, opts...).Encode(b); err != nil {
		t.Fatalf("encode: %v", err)
	}

	return out.Bytes()
}

// testBank builds a small bank through the construction API. Zones are
// added out of owner order to exercise span shifting.
func testBank(t *testing.T) *Bank {
	t.Helper()

	b := NewBank("Test Bank")
	b.Info.Engine = "EMU8000"
	b.Info.Software = "sfont"
	b.Info.Copyright = "public domain"

	sine := b.AddSample(Sample{
		Name: "sine", LoopStart: 2, LoopEnd: 6,
		SampleRate: 44100, OriginalPitch: 60, Type: SampleMono,
	}, []int16{0, 1000, 2000, -1000, -32768, 32767, 5, 6})
	saw := b.AddSample(Sample{
		Name: "saw", LoopStart: 1, LoopEnd: 3,
		SampleRate: 22050, OriginalPitch: 69, PitchCorrection: -5, Type: SampleMono,
	}, []int16{-3, -2, -1, 0, 1})

	lead := b.AddInstrument(Instrument{Name: "Lead"})
	pad := b.AddInstrument(Instrument{Name: "Pad"})

	mustAdd(t, b.AddInstrumentZone(pad, []Generator{
		{Kind: GenSampleID, Amount: UnsignedAmount(uint16(saw))},
	}, nil))
	mustAdd(t, b.AddInstrumentZone(lead, []Generator{
		{Kind: GenKeyRange, Amount: RangeAmount(0, 63)},
		{Kind: GenPan, Amount: SignedAmount(-500)},
		{Kind: GenSampleID, Amount: UnsignedAmount(uint16(sine))},
	}, nil))
	mustAdd(t, b.AddInstrumentZone(lead, []Generator{
		{Kind: GenKeyRange, Amount: RangeAmount(64, 127)},
		{Kind: GenSampleID, Amount: UnsignedAmount(uint16(saw))},
	}, []Modulator{
		{Source: SrcNoteOnVelocity, Destination: GenInitialAttenuation, Amount: 960},
	}))

	piano := b.AddPreset(Preset{Name: "Piano"})
	strings := b.AddPreset(Preset{Name: "Strings", Program: 48, Bank: 128, Library: 7, Genre: 8, Morphology: 9})

	mustAdd(t, b.AddPresetZone(strings, []Generator{
		{Kind: GenVelRange, Amount: RangeAmount(1, 100)},
		{Kind: GenInstrument, Amount: UnsignedAmount(uint16(pad))},
	}, []Modulator{
		{Source: ModSource(0x80 | 1), Destination: GenFineTune, Amount: -50, Transform: TransformAbsoluteValue},
	}))
	mustAdd(t, b.AddPresetZone(piano, []Generator{
		{Kind: GenInstrument, Amount: UnsignedAmount(uint16(lead))},
	}, nil))

	return b
}

func mustAdd(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("add zone: %v", err)
	}
}
