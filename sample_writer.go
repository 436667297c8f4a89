package sfont

import (
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/viterin/vek/vek32"
)

// SampleEncoder turns one mono sample into a self-framed compressed stream.
// The buffer carries the sample rate and values scaled to [-1, 1].
type SampleEncoder interface {
	Encode(buf *audio.Float32Buffer, quality float64) ([]byte, error)
}

func hasCompressedSamples(b *Bank) bool {
	for _, s := range b.Samples {
		if s.Type.IsCompressed() {
			return true
		}
	}

	return false
}

// checkSampleEncodings rejects banks whose sample offsets cannot share one
// unit in the output: PCM offsets count frames, compressed offsets count
// bytes. Compressed output re-encodes every PCM sample, so only pass-through
// output can mix them.
func checkSampleEncodings(b *Bank, compressed bool) error {
	if compressed || !hasCompressedSamples(b) {
		return nil
	}

	for i, s := range b.Samples {
		if !s.Type.IsCompressed() {
			return fmt.Errorf("%w: sample %d %q is PCM in a bank of compressed samples",
				ErrStructuralInconsistency, i, s.Name)
		}
	}

	return nil
}

// writeSamples emits the smpl payload and records the rewritten sample
// headers for the shdr section.
func (e *Encoder) writeSamples() error {
	b := e.bank
	e.samples = make([]Sample, 0, len(b.Samples))

	var offset int64

	for i, s := range b.Samples {
		blob, out, err := e.sampleBlob(i, s)
		if err != nil {
			return err
		}

		end := offset + int64(len(blob))
		if end > math.MaxUint32 {
			return fmt.Errorf("%w: sample payload exceeds 4 GiB at sample %d %q",
				ErrStructuralInconsistency, i, s.Name)
		}

		if out.Type.IsCompressed() {
			out.Start = uint32(offset)
			out.End = uint32(end)
		} else {
			out.Start = uint32(offset / bytesPerPCMSample)
			out.End = uint32(end / bytesPerPCMSample)
			out.LoopStart += out.Start
			out.LoopEnd += out.Start
		}

		if err := e.cur.writeBytes(blob); err != nil {
			return err
		}

		e.samples = append(e.samples, out)
		offset = end
	}

	return nil
}

// sampleBlob returns the bytes to store for sample i and its header before
// offsets are assigned. Already compressed samples are copied verbatim.
func (e *Encoder) sampleBlob(i int, s Sample) ([]byte, Sample, error) {
	raw, err := e.bank.SampleBytes(i)
	if err != nil {
		return nil, s, err
	}

	if s.Type.IsCompressed() || !e.Compressed {
		return raw, s, nil
	}

	pcm, err := e.bank.SamplePCM(i)
	if err != nil {
		return nil, s, err
	}

	blob, err := e.SampleEncoder.Encode(gainBuffer(pcm, s.SampleRate, e.GainDB), e.Quality)
	if err != nil {
		return nil, s, fmt.Errorf("%w: sample %d %q: %w", ErrEncoderInit, i, s.Name, err)
	}

	e.logger.Debug("sample encoded", "index", i, "name", s.Name, "frames", len(pcm), "bytes", len(blob))

	s.Type |= SampleCompressed

	return blob, s, nil
}

// gainBuffer scales PCM16 values to [-1, 1] and applies gain in decibels.
func gainBuffer(pcm []int16, rate uint32, gainDB float64) *audio.Float32Buffer {
	data := make([]float32, len(pcm))
	for i, v := range pcm {
		data[i] = float32(v)
	}

	if len(data) > 0 {
		vek32.MulNumber_Inplace(data, float32(math.Pow(10, gainDB/20)/32768))
	}

	return &audio.Float32Buffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  int(rate),
		},
		Data:           data,
		SourceBitDepth: 16,
	}
}
