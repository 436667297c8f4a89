package sfont

// SampleType holds the channel role of a sample plus storage flags.
type SampleType uint16

// Sample type flags.
const (
	SampleMono       SampleType = 0x0001
	SampleRight      SampleType = 0x0002
	SampleLeft       SampleType = 0x0004
	SampleLinked     SampleType = 0x0008
	SampleCompressed SampleType = 0x0010
	SampleROM        SampleType = 0x8000
)

// IsCompressed reports whether the sample data is an encoded stream rather
// than raw PCM16 frames.
func (t SampleType) IsCompressed() bool { return t&SampleCompressed != 0 }

// Sample describes one range of the shared sample payload.
//
// For PCM samples Start and End are frame offsets into the smpl chunk. For
// compressed samples they are byte offsets. LoopStart and LoopEnd are always
// kept relative to Start; for compressed samples they are advisory only.
type Sample struct {
	Name            string
	Start           uint32
	End             uint32
	LoopStart       uint32
	LoopEnd         uint32
	SampleRate      uint32
	OriginalPitch   uint8
	PitchCorrection int8
	// Link is the index of the paired sample for stereo samples.
	Link uint16
	Type SampleType
}

// Frames returns the number of PCM frames of an uncompressed sample.
func (s Sample) Frames() int {
	if s.Type.IsCompressed() || s.End < s.Start {
		return 0
	}

	return int(s.End - s.Start)
}

const (
	nameFieldSize          = 20
	sampleRecordSize       = 46
	sampleTerminator       = "EOS"
	bytesPerPCMSample      = 2
	compressedMajorVersion = 3
)

func readSampleHeader(c *cursor) (Sample, error) {
	var (
		s   Sample
		err error
	)

	if s.Name, err = c.readString(nameFieldSize); err != nil {
		return s, err
	}

	for _, dst := range []*uint32{&s.Start, &s.End, &s.LoopStart, &s.LoopEnd, &s.SampleRate} {
		if *dst, err = c.readU32(); err != nil {
			return s, err
		}
	}

	if s.OriginalPitch, err = c.readU8(); err != nil {
		return s, err
	}

	if s.PitchCorrection, err = c.readI8(); err != nil {
		return s, err
	}

	if s.Link, err = c.readU16(); err != nil {
		return s, err
	}

	var typ uint16
	if typ, err = c.readU16(); err != nil {
		return s, err
	}

	s.Type = SampleType(typ)

	// Version 3 banks already store loop points relative to the sample.
	if !s.Type.IsCompressed() {
		s.LoopStart -= s.Start
		s.LoopEnd -= s.Start
	}

	return s, nil
}

// writeSampleHeader writes s as stored on disk. The caller is responsible
// for turning relative loop points back into absolute ones where needed.
func writeSampleHeader(c *cursor, s Sample) error {
	if err := c.writeFixedString(s.Name, nameFieldSize); err != nil {
		return err
	}

	for _, v := range []uint32{s.Start, s.End, s.LoopStart, s.LoopEnd, s.SampleRate} {
		if err := c.writeU32(v); err != nil {
			return err
		}
	}

	if err := c.writeU8(s.OriginalPitch); err != nil {
		return err
	}

	if err := c.writeI8(s.PitchCorrection); err != nil {
		return err
	}

	if err := c.writeU16(s.Link); err != nil {
		return err
	}

	return c.writeU16(uint16(s.Type))
}
