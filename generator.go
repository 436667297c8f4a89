package sfont

import "fmt"

// GeneratorKind identifies the parameter a Generator overrides.
type GeneratorKind uint16

// Generator kinds, in wire order.
const (
	GenStartAddrOffset GeneratorKind = iota
	GenEndAddrOffset
	GenStartLoopAddrOffset
	GenEndLoopAddrOffset
	GenStartAddrCoarseOffset
	GenModLFOToPitch
	GenVibLFOToPitch
	GenModEnvToPitch
	GenInitialFilterFc
	GenInitialFilterQ
	GenModLFOToFilterFc
	GenModEnvToFilterFc
	GenEndAddrCoarseOffset
	GenModLFOToVolume
	GenUnused1
	GenChorusEffectsSend
	GenReverbEffectsSend
	GenPan
	GenUnused2
	GenUnused3
	GenUnused4
	GenDelayModLFO
	GenFreqModLFO
	GenDelayVibLFO
	GenFreqVibLFO
	GenDelayModEnv
	GenAttackModEnv
	GenHoldModEnv
	GenDecayModEnv
	GenSustainModEnv
	GenReleaseModEnv
	GenKeynumToModEnvHold
	GenKeynumToModEnvDecay
	GenDelayVolEnv
	GenAttackVolEnv
	GenHoldVolEnv
	GenDecayVolEnv
	GenSustainVolEnv
	GenReleaseVolEnv
	GenKeynumToVolEnvHold
	GenKeynumToVolEnvDecay
	GenInstrument
	GenReserved1
	GenKeyRange
	GenVelRange
	GenStartLoopAddrCoarseOffset
	GenKeynum
	GenVelocity
	GenInitialAttenuation
	GenReserved2
	GenEndLoopAddrCoarseOffset
	GenCoarseTune
	GenFineTune
	GenSampleID
	GenSampleModes
	GenReserved3
	GenScaleTuning
	GenExclusiveClass
	GenOverridingRootKey
	GenUnused5
	GenEndOper

	numGeneratorKinds = int(GenEndOper) + 1
)

var generatorNames = [numGeneratorKinds]string{
	"StartAddrOfs",
	"EndAddrOfs",
	"StartLoopAddrOfs",
	"EndLoopAddrOfs",
	"StartAddrCoarseOfs",
	"ModLFO2Pitch",
	"VibLFO2Pitch",
	"ModEnv2Pitch",
	"FilterFc",
	"FilterQ",
	"ModLFO2FilterFc",
	"ModEnv2FilterFc",
	"EndAddrCoarseOfs",
	"ModLFO2Vol",
	"Unused1",
	"ChorusSend",
	"ReverbSend",
	"Pan",
	"Unused2",
	"Unused3",
	"Unused4",
	"ModLFODelay",
	"ModLFOFreq",
	"VibLFODelay",
	"VibLFOFreq",
	"ModEnvDelay",
	"ModEnvAttack",
	"ModEnvHold",
	"ModEnvDecay",
	"ModEnvSustain",
	"ModEnvRelease",
	"Key2ModEnvHold",
	"Key2ModEnvDecay",
	"VolEnvDelay",
	"VolEnvAttack",
	"VolEnvHold",
	"VolEnvDecay",
	"VolEnvSustain",
	"VolEnvRelease",
	"Key2VolEnvHold",
	"Key2VolEnvDecay",
	"Instrument",
	"Reserved1",
	"KeyRange",
	"VelRange",
	"StartLoopAddrCoarseOfs",
	"Keynum",
	"Velocity",
	"Attenuation",
	"Reserved2",
	"EndLoopAddrCoarseOfs",
	"CoarseTune",
	"FineTune",
	"SampleId",
	"SampleModes",
	"Reserved3",
	"ScaleTune",
	"ExclusiveClass",
	"OverrideRootKey",
	"Unused5",
	"EndOper",
}

// String returns the generator's display name.
func (k GeneratorKind) String() string {
	if int(k) < numGeneratorKinds {
		return generatorNames[k]
	}

	return fmt.Sprintf("Generator(%d)", uint16(k))
}

// IsRange reports whether the amount is a lo/hi byte pair.
func (k GeneratorKind) IsRange() bool {
	return k == GenKeyRange || k == GenVelRange
}

// IsReference reports whether the amount is an unsigned index into the
// instrument or sample list.
func (k GeneratorKind) IsReference() bool {
	return k == GenInstrument || k == GenSampleID
}

// Amount is the 16-bit generator payload. How it is interpreted depends on
// the generator kind; see Generator.
type Amount uint16

// SignedAmount builds an Amount from a signed value.
func SignedAmount(v int16) Amount { return Amount(uint16(v)) }

// UnsignedAmount builds an Amount from an unsigned value.
func UnsignedAmount(v uint16) Amount { return Amount(v) }

// RangeAmount builds an Amount from a lo/hi byte pair. lo is stored first.
func RangeAmount(lo, hi uint8) Amount { return Amount(uint16(lo) | uint16(hi)<<8) }

// Signed returns the amount as a signed value.
func (a Amount) Signed() int16 { return int16(a) }

// Unsigned returns the amount as an unsigned value.
func (a Amount) Unsigned() uint16 { return uint16(a) }

// Range returns the amount as a lo/hi byte pair.
func (a Amount) Range() (lo, hi uint8) { return uint8(a), uint8(a >> 8) }

// Generator is a single parameter override inside a zone.
type Generator struct {
	Kind   GeneratorKind
	Amount Amount
}

// String renders the generator using the payload variant of its kind.
func (g Generator) String() string {
	switch {
	case g.Kind.IsRange():
		lo, hi := g.Amount.Range()
		return fmt.Sprintf("%s %d-%d", g.Kind, lo, hi)
	case g.Kind.IsReference():
		return fmt.Sprintf("%s #%d", g.Kind, g.Amount.Unsigned())
	default:
		return fmt.Sprintf("%s %d", g.Kind, g.Amount.Signed())
	}
}

const generatorRecordSize = 4

func readGenerator(c *cursor) (Generator, error) {
	kind, err := c.readU16()
	if err != nil {
		return Generator{}, err
	}

	g := Generator{Kind: GeneratorKind(kind)}

	switch {
	case g.Kind.IsRange():
		lo, err := c.readU8()
		if err != nil {
			return g, err
		}

		hi, err := c.readU8()
		if err != nil {
			return g, err
		}

		g.Amount = RangeAmount(lo, hi)
	case g.Kind.IsReference():
		v, err := c.readU16()
		if err != nil {
			return g, err
		}

		g.Amount = UnsignedAmount(v)
	default:
		v, err := c.readI16()
		if err != nil {
			return g, err
		}

		g.Amount = SignedAmount(v)
	}

	return g, nil
}

func writeGenerator(c *cursor, g Generator) error {
	if err := c.writeU16(uint16(g.Kind)); err != nil {
		return err
	}

	switch {
	case g.Kind.IsRange():
		lo, hi := g.Amount.Range()
		if err := c.writeU8(lo); err != nil {
			return err
		}

		return c.writeU8(hi)
	case g.Kind.IsReference():
		return c.writeU16(g.Amount.Unsigned())
	default:
		return c.writeI16(g.Amount.Signed())
	}
}
