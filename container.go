package sfont

import (
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

var (
	// CIDList is the chunk ID for a LIST chunk.
	CIDList = [4]byte{'L', 'I', 'S', 'T'}
	// CIDSfbk is the RIFF form type of a sound bank.
	CIDSfbk = [4]byte{'s', 'f', 'b', 'k'}
	// CIDInfo is the list kind holding version and descriptive strings.
	CIDInfo = [4]byte{'I', 'N', 'F', 'O'}
	// CIDSdta is the list kind holding sample data.
	CIDSdta = [4]byte{'s', 'd', 't', 'a'}
	// CIDPdta is the list kind holding the preset, instrument and sample
	// tables.
	CIDPdta = [4]byte{'p', 'd', 't', 'a'}
)

// listOrder is the order in which list groups are written.
var listOrder = [][4]byte{CIDInfo, CIDSdta, CIDPdta}

const chunkHeaderSize = 8

// walk verifies the envelope and routes every leaf chunk to its section
// handler. Lengths declared at each level bound the level below.
func (d *Decoder) walk() error {
	id, size, err := d.parser.IDnSize()
	if err != nil {
		return fmt.Errorf("failed to read RIFF header: %w", truncated(err))
	}

	if id != riff.RiffID {
		return fmt.Errorf("%w: expected %q, got %q", ErrTagMismatch, chunkName(riff.RiffID), chunkName(id))
	}

	d.parser.ID, d.parser.Size = id, size

	format, err := d.cur.readTag()
	if err != nil {
		return fmt.Errorf("failed to read form type: %w", err)
	}

	if format != CIDSfbk {
		return fmt.Errorf("%w: expected form %q, got %q", ErrTagMismatch, chunkName(CIDSfbk), chunkName(format))
	}

	d.parser.Format = format

	remaining := int64(size) - 4
	if remaining < 0 {
		return fmt.Errorf("%w: RIFF length %d is shorter than its form type", ErrStructuralInconsistency, size)
	}

	for remaining > 0 {
		if remaining < chunkHeaderSize+4 {
			return fmt.Errorf("%w: %d trailing bytes in RIFF", ErrStructuralInconsistency, remaining)
		}

		id, size, err := d.parser.IDnSize()
		if err != nil {
			return fmt.Errorf("failed to read list header: %w", truncated(err))
		}

		if id != CIDList {
			return fmt.Errorf("%w: expected %q, got %q", ErrTagMismatch, chunkName(CIDList), chunkName(id))
		}

		total := chunkHeaderSize + padded(size)
		if total > remaining {
			return fmt.Errorf("%w: LIST of %d bytes overruns RIFF (%d left)", ErrStructuralInconsistency, size, remaining)
		}

		remaining -= total

		if err := d.walkList(size); err != nil {
			return err
		}
	}

	return nil
}

func (d *Decoder) walkList(size uint32) error {
	if size < 4 {
		return fmt.Errorf("%w: LIST length %d is shorter than its kind", ErrStructuralInconsistency, size)
	}

	kind, err := d.cur.readTag()
	if err != nil {
		return fmt.Errorf("failed to read list kind: %w", err)
	}

	if kind != CIDInfo && kind != CIDSdta && kind != CIDPdta {
		return fmt.Errorf("%w: unexpected list kind %q", ErrTagMismatch, chunkName(kind))
	}

	d.logger.Debug("list", "kind", chunkName(kind), "size", size)

	remaining := padded(size) - 4

	for remaining > 0 {
		if remaining < chunkHeaderSize {
			// A lone pad byte may trail the last chunk of an odd sized list.
			if size&1 == 1 && remaining == 1 {
				return d.cur.skip(1)
			}

			return fmt.Errorf("%w: %d trailing bytes in LIST %q", ErrStructuralInconsistency, remaining, chunkName(kind))
		}

		id, size, err := d.parser.IDnSize()
		if err != nil {
			return fmt.Errorf("failed to read chunk header in LIST %q: %w", chunkName(kind), truncated(err))
		}

		total := chunkHeaderSize + padded(size)
		if total > remaining {
			return fmt.Errorf("%w: %q of %d bytes overruns LIST %q (%d left)",
				ErrStructuralInconsistency, chunkName(id), size, chunkName(kind), remaining)
		}

		remaining -= total

		if err := d.decodeSection(kind, id, size); err != nil {
			return err
		}
	}

	return nil
}

// decodeSection hands one leaf chunk to its handler and leaves the cursor
// at the start of the next chunk.
func (d *Decoder) decodeSection(kind, id [4]byte, size uint32) error {
	d.logger.Debug("section", "list", chunkName(kind), "tag", chunkName(id), "size", size)

	start := d.cur.tell()
	chnk := &riff.Chunk{
		ID:   id,
		Size: int(size),
		R:    io.LimitReader(d.cur, int64(size)),
	}

	handled, err := d.sections.Decode(d, chnk, kind)
	if err != nil {
		return err
	}

	if !handled {
		return fmt.Errorf("%w: %q in LIST %q", ErrUnknownSection, chunkName(id), chunkName(kind))
	}

	used := d.cur.tell() - start
	if used > int64(size) {
		return fmt.Errorf("%w: %q handler read %d bytes of %d",
			ErrStructuralInconsistency, chunkName(id), used, size)
	}

	return d.cur.skip(padded(size) - used)
}

func padded(size uint32) int64 {
	return int64(size) + int64(size&1)
}

// beginChunk writes id and a length placeholder and returns the position of
// the placeholder.
func (e *Encoder) beginChunk(id [4]byte) (int64, error) {
	if err := e.cur.writeTag(id); err != nil {
		return 0, fmt.Errorf("failed to write %q header: %w", chunkName(id), err)
	}

	pos := e.cur.tell()
	if err := e.cur.writeU32(0); err != nil {
		return 0, fmt.Errorf("failed to write %q length: %w", chunkName(id), err)
	}

	return pos, nil
}

// endChunk pads an odd payload and patches the length reserved by
// beginChunk with the payload length actually written.
func (e *Encoder) endChunk(id [4]byte, lenPos int64) error {
	end := e.cur.tell()
	size := end - lenPos - 4

	if size > int64(^uint32(0)) {
		return fmt.Errorf("%w: %q payload of %d bytes exceeds the 32-bit length field",
			ErrStructuralInconsistency, chunkName(id), size)
	}

	if size&1 == 1 {
		if err := e.cur.writeU8(0); err != nil {
			return fmt.Errorf("failed to pad %q: %w", chunkName(id), err)
		}

		end++
	}

	if err := e.cur.seek(lenPos); err != nil {
		return err
	}

	if err := e.cur.writeU32(uint32(size)); err != nil {
		return fmt.Errorf("failed to patch %q length: %w", chunkName(id), err)
	}

	return e.cur.seek(end)
}

// writeChunk emits a leaf chunk whose payload is produced by body.
func (e *Encoder) writeChunk(id [4]byte, body func() error) error {
	lenPos, err := e.beginChunk(id)
	if err != nil {
		return err
	}

	if err := body(); err != nil {
		return fmt.Errorf("%s section: %w", chunkName(id), err)
	}

	return e.endChunk(id, lenPos)
}

// writeList emits a LIST group and all sections registered for kind.
func (e *Encoder) writeList(kind [4]byte) error {
	lenPos, err := e.beginChunk(CIDList)
	if err != nil {
		return err
	}

	if err := e.cur.writeTag(kind); err != nil {
		return fmt.Errorf("failed to write list kind %q: %w", chunkName(kind), err)
	}

	if err := e.sections.Encode(e, kind); err != nil {
		return err
	}

	return e.endChunk(CIDList, lenPos)
}

// writeContainer emits the envelope and every list group.
func (e *Encoder) writeContainer() error {
	lenPos, err := e.beginChunk(riff.RiffID)
	if err != nil {
		return err
	}

	if err := e.cur.writeTag(CIDSfbk); err != nil {
		return fmt.Errorf("failed to write form type: %w", err)
	}

	for _, kind := range listOrder {
		if err := e.writeList(kind); err != nil {
			return err
		}
	}

	return e.endChunk(riff.RiffID, lenPos)
}
