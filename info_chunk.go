package sfont

import (
	"fmt"

	"github.com/go-audio/riff"
)

var (
	markerIfil = [4]byte{'i', 'f', 'i', 'l'}
	markerINAM = [4]byte{'I', 'N', 'A', 'M'}
	markerIsng = [4]byte{'i', 's', 'n', 'g'}
	markerIPRD = [4]byte{'I', 'P', 'R', 'D'}
	markerIENG = [4]byte{'I', 'E', 'N', 'G'}
	markerISFT = [4]byte{'I', 'S', 'F', 'T'}
	markerICRD = [4]byte{'I', 'C', 'R', 'D'}
	markerICMT = [4]byte{'I', 'C', 'M', 'T'}
	markerICOP = [4]byte{'I', 'C', 'O', 'P'}
	// ROM descriptors, read past without interpretation.
	markerIrom = [4]byte{'i', 'r', 'o', 'm'}
	markerIver = [4]byte{'i', 'v', 'e', 'r'}
)

// Version is the format revision stored in the ifil chunk.
type Version struct {
	Major uint16
	Minor uint16
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%02d", v.Major, v.Minor)
}

// Info holds the descriptive strings of the INFO list.
type Info struct {
	Name         string `yaml:"name,omitempty"`
	Engine       string `yaml:"engine,omitempty"`
	Product      string `yaml:"product,omitempty"`
	Engineer     string `yaml:"engineer,omitempty"`
	Software     string `yaml:"software,omitempty"`
	CreationDate string `yaml:"creation_date,omitempty"`
	Comment      string `yaml:"comment,omitempty"`
	Copyright    string `yaml:"copyright,omitempty"`
}

type versionHandler struct{}

func (h *versionHandler) ListKind() [4]byte { return CIDInfo }

func (h *versionHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == markerIfil && listKind == CIDInfo
}

func (h *versionHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	if ch.Size < 4 {
		return fmt.Errorf("%w: ifil is %d bytes, expected 4", ErrSizeMismatch, ch.Size)
	}

	major, err := d.cur.readU16()
	if err != nil {
		return err
	}

	minor, err := d.cur.readU16()
	if err != nil {
		return err
	}

	d.bank.Version = Version{Major: major, Minor: minor}

	return nil
}

func (h *versionHandler) Encode(e *Encoder) error {
	v := e.bank.Version
	if e.compressedOutput() {
		v.Major = compressedMajorVersion
	}

	return e.writeChunk(markerIfil, func() error {
		if err := e.cur.writeU16(v.Major); err != nil {
			return err
		}

		return e.cur.writeU16(v.Minor)
	})
}

// infoStringHandler maps one INFO string chunk to a field of Info.
type infoStringHandler struct {
	id    [4]byte
	field func(*Info) *string
}

func (h *infoStringHandler) ListKind() [4]byte { return CIDInfo }

func (h *infoStringHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == h.id && listKind == CIDInfo
}

func (h *infoStringHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	s, err := d.cur.readString(ch.Size)
	if err != nil {
		return err
	}

	*h.field(&d.bank.Info) = s

	return nil
}

func (h *infoStringHandler) Encode(e *Encoder) error {
	s := *h.field(&e.bank.Info)
	if s == "" {
		return nil
	}

	// Strings carry their terminator and are padded inside the chunk, so
	// the declared size is always even.
	n := len(s) + 1
	n += n & 1

	return e.writeChunk(h.id, func() error {
		return e.cur.writeFixedString(s, n)
	})
}

func infoStringHandlers() []SectionHandler {
	fields := []struct {
		id    [4]byte
		field func(*Info) *string
	}{
		{markerINAM, func(i *Info) *string { return &i.Name }},
		{markerIsng, func(i *Info) *string { return &i.Engine }},
		{markerIPRD, func(i *Info) *string { return &i.Product }},
		{markerIENG, func(i *Info) *string { return &i.Engineer }},
		{markerISFT, func(i *Info) *string { return &i.Software }},
		{markerICRD, func(i *Info) *string { return &i.CreationDate }},
		{markerICMT, func(i *Info) *string { return &i.Comment }},
		{markerICOP, func(i *Info) *string { return &i.Copyright }},
	}

	handlers := make([]SectionHandler, 0, len(fields))
	for _, f := range fields {
		handlers = append(handlers, &infoStringHandler{id: f.id, field: f.field})
	}

	return handlers
}
