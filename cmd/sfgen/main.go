// This tool generates a one-preset sound bank playing a looped sine wave.
package main

import (
	"errors"
	"flag"
	"log"
	"math"
	"os"

	"github.com/cwbudde/sfont"
)

var errInvalidSignal = errors.New("frequency and rate must be positive and length not negative")

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("sfgen", flag.ContinueOnError)

	output := flagSet.String("output", "output.sf2", "filename to write to")
	frequency := flagSet.Float64("frequency", 440, "frequency in hertz to generate")
	length := flagSet.Float64("length", 1, "length in seconds of the sample")
	sampleRate := flagSet.Int("rate", 44100, "sample rate in hertz")
	compressed := flagSet.Bool("compressed", false, "store the sample compressed")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	if *frequency <= 0 || *sampleRate <= 0 || *length < 0 {
		return errInvalidSignal
	}

	log.Printf("generating a %f sec sine bank at %f hz", *length, *frequency)

	b := sineBank(*frequency, *length, *sampleRate)

	return sfont.WriteFile(*output, b, sfont.WithCompressed(*compressed))
}

// sineBank builds a bank whose only preset plays the generated sample
// across the whole keyboard.
func sineBank(frequency, length float64, sampleRate int) *sfont.Bank {
	numSamples := int(math.Round(float64(sampleRate) * length))

	pcm := make([]int16, numSamples)
	for i := range pcm {
		fv := math.Sin(float64(i) / float64(sampleRate) * frequency * 2 * math.Pi)
		pcm[i] = int16(math.Round(fv * math.MaxInt16))
	}

	// Loop over the last whole period.
	period := int(math.Round(float64(sampleRate) / frequency))
	loopEnd := numSamples - numSamples%max(period, 1)
	loopStart := max(loopEnd-period, 0)

	b := sfont.NewBank("Sine")
	b.Info.Software = "sfgen"

	sample := b.AddSample(sfont.Sample{
		Name:          "sine",
		LoopStart:     uint32(loopStart),
		LoopEnd:       uint32(loopEnd),
		SampleRate:    uint32(sampleRate),
		OriginalPitch: midiKey(frequency),
		Type:          sfont.SampleMono,
	}, pcm)

	inst := b.AddInstrument(sfont.Instrument{Name: "Sine"})
	// A zone can only fail for an unknown owner; both owners were just added.
	_ = b.AddInstrumentZone(inst, []sfont.Generator{
		{Kind: sfont.GenKeyRange, Amount: sfont.RangeAmount(0, 127)},
		{Kind: sfont.GenSampleModes, Amount: sfont.SignedAmount(1)},
		{Kind: sfont.GenSampleID, Amount: sfont.UnsignedAmount(uint16(sample))},
	}, nil)

	preset := b.AddPreset(sfont.Preset{Name: "Sine"})
	_ = b.AddPresetZone(preset, []sfont.Generator{
		{Kind: sfont.GenInstrument, Amount: sfont.UnsignedAmount(uint16(inst))},
	}, nil)

	return b
}

// midiKey returns the nearest MIDI key for frequency, clamped to 0..127.
func midiKey(frequency float64) uint8 {
	if frequency <= 0 {
		return 60
	}

	key := math.Round(69 + 12*math.Log2(frequency/440))

	return uint8(min(max(key, 0), 127))
}
