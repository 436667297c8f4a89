package sfont

import (
	"github.com/go-audio/riff"
)

var (
	markerSmpl = [4]byte{'s', 'm', 'p', 'l'}
	markerShdr = [4]byte{'s', 'h', 'd', 'r'}
	// 24-bit extension of the smpl payload, read past without interpretation.
	markerSm24 = [4]byte{'s', 'm', '2', '4'}
)

type sampleDataHandler struct{}

func (h *sampleDataHandler) ListKind() [4]byte { return CIDSdta }

func (h *sampleDataHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == markerSmpl && listKind == CIDSdta
}

func (h *sampleDataHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	data, err := d.cur.readBytes(int64(ch.Size))
	if err != nil {
		return err
	}

	d.bank.SampleData = data

	return nil
}

func (h *sampleDataHandler) Encode(e *Encoder) error {
	return e.writeChunk(markerSmpl, e.writeSamples)
}

type sampleHeaderHandler struct{}

func (h *sampleHeaderHandler) ListKind() [4]byte { return CIDPdta }

func (h *sampleHeaderHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == markerShdr && listKind == CIDPdta
}

func (h *sampleHeaderHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	n, err := recordCount(ch, sampleRecordSize)
	if err != nil {
		return err
	}

	if n == 0 {
		return nil
	}

	samples := make([]Sample, 0, preallocCap(n-1))
	for range n - 1 {
		smp, err := readSampleHeader(d.cur)
		if err != nil {
			return err
		}

		samples = append(samples, smp)
	}

	d.bank.Samples = samples

	// terminal record
	return d.cur.skip(sampleRecordSize)
}

func (h *sampleHeaderHandler) Encode(e *Encoder) error {
	return e.writeChunk(markerShdr, func() error {
		for _, s := range e.samples {
			if err := writeSampleHeader(e.cur, s); err != nil {
				return err
			}
		}

		return writeSampleHeader(e.cur, Sample{Name: sampleTerminator})
	})
}
