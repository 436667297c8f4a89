// This tool exports the samples of a sound bank as 16-bit mono aiff or wav
// files, stored in a folder next to the bank unless -dir is set.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/cwbudde/sfont"
	"github.com/cwbudde/sfont/codec"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println("You must set the -path flag")
		os.Exit(1)
	}

	log.Fatal(err)
}

var (
	errMissingPath = errors.New("missing path argument")
	errNoSample    = errors.New("no such sample")
	errBadFormat   = errors.New("unsupported output format")
)

// sampleEncoder is what the aiff and wav encoders have in common.
type sampleEncoder interface {
	Write(buf *audio.IntBuffer) error
	Close() error
}

func run(args []string, out io.Writer) error {
	flagSet := flag.NewFlagSet("sfextract", flag.ContinueOnError)

	path := flagSet.String("path", "", "The path to the bank to extract samples from")
	dir := flagSet.String("dir", "", "Output folder, defaults to <bank name>_samples next to the bank")
	index := flagSet.Int("sample", -1, "Index of the sample to extract, all samples when negative")
	format := flagSet.String("format", "aiff", "Output format: aiff or wav")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return errMissingPath
	}

	if *format != "aiff" && *format != "wav" {
		return fmt.Errorf("%w: %q", errBadFormat, *format)
	}

	sourcePath, err := expandHome(*path)
	if err != nil {
		return err
	}

	b, err := sfont.ReadFile(sourcePath)
	if err != nil {
		return err
	}

	outDir := *dir
	if outDir == "" {
		outDir = sourcePath[:len(sourcePath)-len(filepath.Ext(sourcePath))] + "_samples"
	}

	if err := os.MkdirAll(outDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	indices := make([]int, 0, len(b.Samples))
	if *index >= 0 {
		if *index >= len(b.Samples) {
			return fmt.Errorf("%w: %d of %d", errNoSample, *index, len(b.Samples))
		}

		indices = append(indices, *index)
	} else {
		for i := range b.Samples {
			indices = append(indices, i)
		}
	}

	for _, i := range indices {
		outPath := filepath.Join(outDir, sampleFileName(i, b.Samples[i].Name, *format))
		if err := extractSample(b, i, outPath, *format); err != nil {
			return err
		}

		fmt.Fprintf(out, "Sample %d exported to %s\n", i, outPath)
	}

	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get the user home directory: %w", err)
	}

	return strings.Replace(path, "~", usr.HomeDir, 1), nil
}

// sampleFileName builds a file name that sorts by index and survives any
// characters the sample name holds.
func sampleFileName(i int, name, format string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(name))

	if clean == "" {
		clean = "sample"
	}

	ext := ".aif"
	if format == "wav" {
		ext = ".wav"
	}

	return fmt.Sprintf("%03d_%s%s", i, clean, ext)
}

func samplePCM(b *sfont.Bank, i int) ([]int16, error) {
	if !b.Samples[i].Type.IsCompressed() {
		return b.SamplePCM(i)
	}

	raw, err := b.SampleBytes(i)
	if err != nil {
		return nil, err
	}

	return codec.DecodeAny(raw)
}

func extractSample(b *sfont.Bank, i int, outPath, format string) (err error) {
	pcm, err := samplePCM(b, i)
	if err != nil {
		return fmt.Errorf("sample %d: %w", i, err)
	}

	rate := int(b.Samples[i].SampleRate)

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}

	defer func() {
		cerr := outFile.Close()
		if cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	var encoder sampleEncoder
	if format == "wav" {
		// 1 is the PCM format tag.
		encoder = wav.NewEncoder(outFile, rate, 16, 1, 1)
	} else {
		encoder = aiff.NewEncoder(outFile, rate, 16, 1)
	}

	if err := encoder.Write(int16ToIntBuffer(pcm, rate)); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	return encoder.Close()
}

func int16ToIntBuffer(pcm []int16, rate int) *audio.IntBuffer {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 16,
		Data:           make([]int, len(pcm)),
	}

	for i, v := range pcm {
		buf.Data[i] = int(v)
	}

	return buf
}
