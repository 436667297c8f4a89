package sfont

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/go-audio/riff"
)

type testCustomHandler struct {
	id     [4]byte
	list   [4]byte
	called bool
	data   []byte
}

func (h *testCustomHandler) ListKind() [4]byte { return h.list }

func (h *testCustomHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == h.id && listKind == h.list
}

func (h *testCustomHandler) Decode(_ *Decoder, ch *riff.Chunk) error {
	h.called = true

	var err error
	h.data, err = io.ReadAll(ch.R)

	return err
}

func (h *testCustomHandler) Encode(_ *Encoder) error {
	return errChunkEncodeNotSupported
}

// greedyHandler reads past the end of its section.
type greedyHandler struct{}

func (greedyHandler) ListKind() [4]byte { return CIDInfo }

func (greedyHandler) CanHandle(chunkID, listKind [4]byte) bool {
	return chunkID == markerIfil && listKind == CIDInfo
}

func (greedyHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	_, err := d.cur.readBytes(int64(ch.Size) + 2)
	return err
}

func (greedyHandler) Encode(*Encoder) error { return errChunkEncodeNotSupported }

func TestSectionRegistrySupportsCustomHandler(t *testing.T) {
	h := &testCustomHandler{id: [4]byte{'x', 't', 'r', 'a'}, list: CIDInfo}

	registry := newDefaultSectionRegistry()
	registry.Register(h)

	data := riffBytes(
		listBytes("INFO",
			chunkBytes("ifil", le16(2, 1)),
			chunkBytes("xtra", []byte{1, 2, 3}),
		),
	)

	b, err := decodeBytes(t, data, WithSectionRegistry(registry))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !h.called {
		t.Fatal("expected custom handler to be called")
	}

	if !bytes.Equal(h.data, []byte{1, 2, 3}) {
		t.Fatalf("custom handler saw %v", h.data)
	}

	if b.Version.Major != 2 {
		t.Fatalf("version=%s", b.Version)
	}
}

func TestSectionRegistryUnhandledChunk(t *testing.T) {
	registry := &SectionRegistry{}

	ch := &riff.Chunk{ID: [4]byte{'t', 'e', 's', 't'}, Size: 3, R: bytes.NewReader([]byte{1, 2, 3})}

	handled, err := registry.Decode(NewDecoder(bytes.NewReader(nil)), ch, CIDPdta)
	if err != nil {
		t.Fatalf("decode chunk via registry: %v", err)
	}

	if handled {
		t.Fatal("expected chunk to be unhandled")
	}

	var nilRegistry *SectionRegistry
	if handled, err := nilRegistry.Decode(nil, ch, CIDPdta); handled || err != nil {
		t.Fatalf("nil registry: %v, %v", handled, err)
	}
}

func TestSectionRegistryRejectsOverRead(t *testing.T) {
	registry := &SectionRegistry{}
	registry.Register(greedyHandler{})

	data := riffBytes(
		listBytes("INFO",
			chunkBytes("ifil", le16(2, 1)),
			chunkBytes("INAM", []byte("abc\x00")),
		),
	)

	_, err := decodeBytes(t, data, WithSectionRegistry(registry))
	if !errors.Is(err, ErrStructuralInconsistency) {
		t.Fatalf("err=%v, want ErrStructuralInconsistency", err)
	}
}

func TestSectionRegistryEncodeSkipsReadOnlyHandlers(t *testing.T) {
	registry := &SectionRegistry{}
	registry.Register(&testCustomHandler{id: [4]byte{'x', 't', 'r', 'a'}, list: CIDInfo})
	registry.Register(&skippedHandler{list: CIDInfo, ids: [][4]byte{markerIrom}})

	if err := registry.Encode(&Encoder{}, CIDInfo); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestSectionRegistryHandlesEachLeafTag(t *testing.T) {
	registry := newDefaultSectionRegistry()

	tests := []struct {
		list [4]byte
		ids  [][4]byte
	}{
		{CIDInfo, [][4]byte{markerIfil, markerINAM, markerIsng, markerIPRD, markerIENG,
			markerISFT, markerICRD, markerICMT, markerICOP, markerIrom, markerIver}},
		{CIDSdta, [][4]byte{markerSmpl, markerSm24}},
		{CIDPdta, [][4]byte{markerPhdr, markerPbag, markerPmod, markerPgen,
			markerInst, markerIbag, markerImod, markerIgen, markerShdr}},
	}

	for _, tt := range tests {
		for _, id := range tt.ids {
			found := false

			for _, h := range registry.handlers {
				if h.CanHandle(id, tt.list) {
					found = true

					if h.ListKind() != tt.list {
						t.Fatalf("%q handler belongs to %q", chunkName(id), chunkName(h.ListKind()))
					}

					break
				}
			}

			if !found {
				t.Fatalf("no handler for %q in %q", chunkName(id), chunkName(tt.list))
			}
		}
	}
}
