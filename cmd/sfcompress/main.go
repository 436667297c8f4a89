// This tool rewrites a sound bank, either copying its samples unchanged or
// compressing every sample into a self-framed stream.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cwbudde/sfont"
	"github.com/cwbudde/sfont/codec"
	"gopkg.in/yaml.v3"
)

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println("You must set the -in and -out flags")
		os.Exit(1)
	}

	log.Fatal(err)
}

var errMissingPath = errors.New("missing input or output path")

// settings can be loaded from a YAML or TOML file; flags set on the command
// line take precedence.
type settings struct {
	Codec   string  `yaml:"codec" toml:"codec"`
	Quality float64 `yaml:"quality" toml:"quality"`
	GainDB  float64 `yaml:"gain_db" toml:"gain_db"`
	Raw     bool    `yaml:"raw" toml:"raw"`
}

func defaultSettings() settings {
	return settings{
		Codec:   string(codec.KindZstd),
		Quality: sfont.DefaultQuality,
	}
}

func loadSettings(path string, s *settings) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, s); err != nil {
			return fmt.Errorf("failed to parse settings %s: %w", path, err)
		}

		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	return nil
}

func run(args []string, out io.Writer) error {
	flagSet := flag.NewFlagSet("sfcompress", flag.ContinueOnError)

	in := flagSet.String("in", "", "bank to read")
	output := flagSet.String("out", "", "bank to write")
	config := flagSet.String("config", "", "optional YAML or TOML settings file")
	kind := flagSet.String("codec", "", "sample codec: zstd, s2 or lz4")
	quality := flagSet.Float64("quality", 0, "encoder quality from 0 to 1")
	gain := flagSet.Float64("gain", 0, "gain in dB applied before encoding")
	raw := flagSet.Bool("raw", false, "copy samples unchanged")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if *in == "" || *output == "" {
		return errMissingPath
	}

	s := defaultSettings()
	if *config != "" {
		if err := loadSettings(*config, &s); err != nil {
			return err
		}
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "codec":
			s.Codec = *kind
		case "quality":
			s.Quality = *quality
		case "gain":
			s.GainDB = *gain
		case "raw":
			s.Raw = *raw
		}
	})

	opts, err := encoderOptions(s)
	if err != nil {
		return err
	}

	b, err := sfont.ReadFile(*in)
	if err != nil {
		return err
	}

	if err := sfont.WriteFile(*output, b, opts...); err != nil {
		return err
	}

	before, err := os.Stat(*in)
	if err != nil {
		return err
	}

	after, err := os.Stat(*output)
	if err != nil {
		return err
	}

	mode := "compressed with " + s.Codec
	if s.Raw {
		mode = "copied"
	}

	fmt.Fprintf(out, "%s: %d samples %s, %d -> %d bytes\n", *output, len(b.Samples), mode, before.Size(), after.Size())

	return nil
}

func encoderOptions(s settings) ([]sfont.EncoderOption, error) {
	if s.Raw {
		return []sfont.EncoderOption{sfont.WithCompressed(false)}, nil
	}

	kind, err := codec.ParseKind(s.Codec)
	if err != nil {
		return nil, err
	}

	c, err := codec.New(kind)
	if err != nil {
		return nil, err
	}

	return []sfont.EncoderOption{
		sfont.WithCompressed(true),
		sfont.WithSampleEncoder(c),
		sfont.WithQuality(s.Quality),
		sfont.WithGain(s.GainDB),
	}, nil
}
