// This tool prints the version, descriptive strings, presets and samples of
// the passed sound bank.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/cwbudde/sfont"
	"github.com/cwbudde/sfont/codec"
	"github.com/viterin/vek/vek32"
	"gopkg.in/yaml.v3"
)

const missingPathMessage = "You must pass the path of the bank to inspect"

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

var errMissingPath = errors.New("missing path argument")

type sampleReport struct {
	Name       string  `yaml:"name"`
	Rate       uint32  `yaml:"rate"`
	Bytes      int     `yaml:"bytes"`
	Compressed bool    `yaml:"compressed,omitempty"`
	Digest     string  `yaml:"digest"`
	PeakDBFS   float64 `yaml:"peak_dbfs"`
}

type presetReport struct {
	Name    string `yaml:"name"`
	Bank    uint16 `yaml:"bank"`
	Program uint16 `yaml:"program"`
	Zones   int    `yaml:"zones"`
}

type report struct {
	Path    string         `yaml:"path"`
	Version string         `yaml:"version"`
	Info    sfont.Info     `yaml:"info"`
	Presets []presetReport `yaml:"presets"`
	Samples []sampleReport `yaml:"samples"`

	UnreachableInstruments []string `yaml:"unreachable_instruments,omitempty"`
	UnreachableSamples     []string `yaml:"unreachable_samples,omitempty"`
}

func run(args []string, out io.Writer) error {
	flagSet := flag.NewFlagSet("sfinfo", flag.ContinueOnError)
	asYAML := flagSet.Bool("yaml", false, "print the report as YAML")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if flagSet.NArg() < 1 {
		return errMissingPath
	}

	path := flagSet.Arg(0)

	b, err := sfont.ReadFile(path)
	if err != nil {
		return err
	}

	r, err := buildReport(path, b)
	if err != nil {
		return err
	}

	if *asYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)

		if err := enc.Encode(r); err != nil {
			return err
		}

		return enc.Close()
	}

	return printReport(out, b, r)
}

func buildReport(path string, b *sfont.Bank) (*report, error) {
	r := &report{
		Path:    path,
		Version: b.Version.String(),
		Info:    b.Info,
	}

	for i, p := range b.Presets {
		r.Presets = append(r.Presets, presetReport{
			Name:    p.Name,
			Bank:    p.Bank,
			Program: p.Program,
			Zones:   len(b.PresetZoneList(i)),
		})
	}

	for i, s := range b.Samples {
		raw, err := b.SampleBytes(i)
		if err != nil {
			return nil, err
		}

		sum, err := b.SampleDigest(i)
		if err != nil {
			return nil, err
		}

		pcm, err := samplePCM(b, i, raw)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		r.Samples = append(r.Samples, sampleReport{
			Name:       s.Name,
			Rate:       s.SampleRate,
			Bytes:      len(raw),
			Compressed: s.Type.IsCompressed(),
			Digest:     fmt.Sprintf("%016x", sum),
			PeakDBFS:   peakDBFS(pcm),
		})
	}

	for _, i := range b.UnreachableInstruments() {
		r.UnreachableInstruments = append(r.UnreachableInstruments, b.Instruments[i].Name)
	}

	for _, i := range b.UnreachableSamples() {
		r.UnreachableSamples = append(r.UnreachableSamples, b.Samples[i].Name)
	}

	return r, nil
}

func samplePCM(b *sfont.Bank, i int, raw []byte) ([]int16, error) {
	if b.Samples[i].Type.IsCompressed() {
		return codec.DecodeAny(raw)
	}

	return b.SamplePCM(i)
}

// peakDBFS returns the sample peak relative to full scale, -Inf for silence.
func peakDBFS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return math.Inf(-1)
	}

	data := make([]float32, len(pcm))
	for i, v := range pcm {
		data[i] = float32(v)
	}

	vek32.Abs_Inplace(data)

	peak := vek32.Max(data)
	if peak == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(float64(peak)/32768)
}

func printReport(out io.Writer, b *sfont.Bank, r *report) error {
	fmt.Fprintf(out, "Version: %s\n", r.Version)
	fmt.Fprintf(out, "Name: %s\n", r.Info.Name)
	fmt.Fprintf(out, "Engine: %s\n", r.Info.Engine)
	fmt.Fprintf(out, "Product: %s\n", r.Info.Product)
	fmt.Fprintf(out, "Engineer: %s\n", r.Info.Engineer)
	fmt.Fprintf(out, "Software: %s\n", r.Info.Software)
	fmt.Fprintf(out, "CreationDate: %s\n", r.Info.CreationDate)
	fmt.Fprintf(out, "Comment: %s\n", r.Info.Comment)
	fmt.Fprintf(out, "Copyright: %s\n", r.Info.Copyright)

	fmt.Fprintf(out, "Presets (%d):\n", len(b.Presets))

	if err := b.DumpPresets(out); err != nil {
		return err
	}

	fmt.Fprintf(out, "Instruments: %d\n", len(b.Instruments))
	fmt.Fprintf(out, "Samples (%d):\n", len(r.Samples))

	for i, s := range r.Samples {
		kind := "pcm"
		if s.Compressed {
			kind = "compressed"
		}

		fmt.Fprintf(out, "\tsample [%d]:\t%s %d Hz %d bytes %s peak %.1f dBFS %s\n", i, s.Name, s.Rate, s.Bytes, kind, s.PeakDBFS, s.Digest)
	}

	for _, name := range r.UnreachableInstruments {
		fmt.Fprintf(out, "Unreachable instrument: %s\n", name)
	}

	for _, name := range r.UnreachableSamples {
		fmt.Fprintf(out, "Unreachable sample: %s\n", name)
	}

	return nil
}
