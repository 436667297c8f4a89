package sfont

import (
	"encoding/binary"
	"fmt"
	"io"
)

// cursor is sequential, seekable access to the underlying byte store. It is
// the only place that turns raw bytes into fixed-width little-endian values
// and back. It knows nothing about chunks.
type cursor struct {
	r   io.Reader
	w   io.Writer
	s   io.Seeker
	pos int64
	buf [4]byte
}

func newReadCursor(rs io.ReadSeeker) (*cursor, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to query start offset: %w", err)
	}

	return &cursor{r: rs, s: rs, pos: pos}, nil
}

func newWriteCursor(ws io.WriteSeeker) (*cursor, error) {
	pos, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to query start offset: %w", err)
	}

	return &cursor{w: ws, s: ws, pos: pos}, nil
}

// Read implements io.Reader so the RIFF parser can pull headers through the
// cursor without losing track of the offset.
func (c *cursor) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos += int64(n)

	return n, err
}

// Write implements io.Writer.
func (c *cursor) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.pos += int64(n)

	if err != nil {
		return n, fmt.Errorf("write error: %w", err)
	}

	return n, nil
}

func (c *cursor) tell() int64 {
	return c.pos
}

func (c *cursor) seek(offset int64) error {
	pos, err := c.s.Seek(offset, io.SeekStart)
	if err != nil {
		return fmt.Errorf("failed to seek to %d: %w", offset, err)
	}

	c.pos = pos

	return nil
}

// skip discards n bytes by reading them, so running past the end of the
// store is reported as truncation rather than silently seeking into nothing.
func (c *cursor) skip(n int64) error {
	if n <= 0 {
		return nil
	}

	_, err := io.CopyN(io.Discard, c, n)
	if err != nil {
		return truncated(err)
	}

	return nil
}

func (c *cursor) readFull(p []byte) error {
	_, err := io.ReadFull(c, p)
	if err != nil {
		return truncated(err)
	}

	return nil
}

func (c *cursor) readTag() ([4]byte, error) {
	var tag [4]byte

	err := c.readFull(tag[:])

	return tag, err
}

func (c *cursor) readU32() (uint32, error) {
	if err := c.readFull(c.buf[:4]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(c.buf[:4]), nil
}

func (c *cursor) readU16() (uint16, error) {
	if err := c.readFull(c.buf[:2]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(c.buf[:2]), nil
}

func (c *cursor) readI16() (int16, error) {
	v, err := c.readU16()

	return int16(v), err
}

func (c *cursor) readU8() (uint8, error) {
	if err := c.readFull(c.buf[:1]); err != nil {
		return 0, err
	}

	return c.buf[0], nil
}

func (c *cursor) readI8() (int8, error) {
	v, err := c.readU8()

	return int8(v), err
}

// readString reads exactly n bytes and returns the content up to the first
// NUL. A field without a terminator yields all n bytes.
func (c *cursor) readString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	raw, err := c.readBytes(int64(n))
	if err != nil {
		return "", err
	}

	return nullTermStr(raw), nil
}

// smallRead is the largest read that allocates its buffer up front.
const smallRead = 4096

// readBytes reads exactly n bytes. The buffer grows with the data actually
// read so a bogus declared length cannot force a huge allocation.
func (c *cursor) readBytes(n int64) ([]byte, error) {
	if n <= smallRead {
		raw := make([]byte, max(n, 0))
		if err := c.readFull(raw); err != nil {
			return nil, err
		}

		return raw, nil
	}

	raw, err := io.ReadAll(io.LimitReader(c, n))
	if err != nil {
		return nil, truncated(err)
	}

	if int64(len(raw)) < n {
		return nil, truncated(io.ErrUnexpectedEOF)
	}

	return raw, nil
}

func (c *cursor) writeTag(tag [4]byte) error {
	_, err := c.Write(tag[:])

	return err
}

func (c *cursor) writeU32(v uint32) error {
	binary.LittleEndian.PutUint32(c.buf[:4], v)
	_, err := c.Write(c.buf[:4])

	return err
}

func (c *cursor) writeU16(v uint16) error {
	binary.LittleEndian.PutUint16(c.buf[:2], v)
	_, err := c.Write(c.buf[:2])

	return err
}

func (c *cursor) writeI16(v int16) error {
	return c.writeU16(uint16(v))
}

func (c *cursor) writeU8(v uint8) error {
	c.buf[0] = v
	_, err := c.Write(c.buf[:1])

	return err
}

func (c *cursor) writeI8(v int8) error {
	return c.writeU8(uint8(v))
}

// writeFixedString writes s into a zero-filled field of exactly n bytes.
// Longer strings are truncated to the field width.
func (c *cursor) writeFixedString(s string, n int) error {
	raw := make([]byte, n)
	copy(raw, s)
	_, err := c.Write(raw)

	return err
}

func (c *cursor) writeBytes(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	_, err := c.Write(p)

	return err
}
