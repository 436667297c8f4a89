package sfont

import "fmt"

// ModSource describes a modulator's controller: a 7-bit index, a CC flag,
// direction, polarity and curve type packed into 16 bits.
type ModSource uint16

// General controller sources (CC flag clear).
const (
	SrcNoController          ModSource = 0
	SrcNoteOnVelocity        ModSource = 2
	SrcNoteOnKey             ModSource = 3
	SrcPolyPressure          ModSource = 10
	SrcChannelPressure       ModSource = 13
	SrcPitchWheel            ModSource = 14
	SrcPitchWheelSensitivity ModSource = 16
	SrcLink                  ModSource = 127
)

// Index returns the controller index.
func (s ModSource) Index() uint8 { return uint8(s & 0x7f) }

// IsMIDIController reports whether Index names a MIDI continuous controller.
func (s ModSource) IsMIDIController() bool { return s&0x80 != 0 }

// IsNegative reports whether the source runs from max to min.
func (s ModSource) IsNegative() bool { return s&0x100 != 0 }

// IsBipolar reports whether the source maps to -1..1 instead of 0..1.
func (s ModSource) IsBipolar() bool { return s&0x200 != 0 }

// Curve returns the source type (linear, concave, convex, switch).
func (s ModSource) Curve() uint8 { return uint8(s >> 10) }

func (s ModSource) String() string {
	if s.IsMIDIController() {
		return fmt.Sprintf("CC%d", s.Index())
	}

	switch s & 0x7f {
	case SrcNoController:
		return "none"
	case SrcNoteOnVelocity:
		return "velocity"
	case SrcNoteOnKey:
		return "key"
	case SrcPolyPressure:
		return "poly-pressure"
	case SrcChannelPressure:
		return "channel-pressure"
	case SrcPitchWheel:
		return "pitch-wheel"
	case SrcPitchWheelSensitivity:
		return "pitch-wheel-sensitivity"
	case SrcLink:
		return "link"
	default:
		return fmt.Sprintf("source(%d)", s.Index())
	}
}

// Transform is the output transform applied to a modulator.
type Transform uint16

// Transform kinds.
const (
	TransformLinear        Transform = 0
	TransformAbsoluteValue Transform = 2
)

// Modulator routes a controller to a generator.
type Modulator struct {
	Source       ModSource
	Destination  GeneratorKind
	Amount       int16
	AmountSource ModSource
	Transform    Transform
}

const modulatorRecordSize = 10

func readModulator(c *cursor) (Modulator, error) {
	var (
		m   Modulator
		v   uint16
		err error
	)

	if v, err = c.readU16(); err != nil {
		return m, err
	}

	m.Source = ModSource(v)

	if v, err = c.readU16(); err != nil {
		return m, err
	}

	m.Destination = GeneratorKind(v)

	if m.Amount, err = c.readI16(); err != nil {
		return m, err
	}

	if v, err = c.readU16(); err != nil {
		return m, err
	}

	m.AmountSource = ModSource(v)

	if v, err = c.readU16(); err != nil {
		return m, err
	}

	m.Transform = Transform(v)

	return m, nil
}

func writeModulator(c *cursor, m Modulator) error {
	for _, v := range []uint16{
		uint16(m.Source),
		uint16(m.Destination),
		uint16(m.Amount),
		uint16(m.AmountSource),
		uint16(m.Transform),
	} {
		if err := c.writeU16(v); err != nil {
			return err
		}
	}

	return nil
}
