package sfont

import (
	"errors"
	"fmt"

	"github.com/go-audio/riff"
)

var errChunkEncodeNotSupported = errors.New("chunk encode not supported")

// SectionHandler is a typed handler for the leaf chunks of one LIST kind.
// Decode reads the payload through the decoder's cursor; bytes it leaves
// unread are skipped by the walker. Encode writes the complete chunk and may
// return errChunkEncodeNotSupported for sections that are read but never
// written.
type SectionHandler interface {
	ListKind() [4]byte
	CanHandle(chunkID [4]byte, listKind [4]byte) bool
	Decode(d *Decoder, ch *riff.Chunk) error
	Encode(e *Encoder) error
}

// SectionRegistry resolves chunks to handlers. Handler order is also the
// order in which sections are written inside their LIST.
type SectionRegistry struct {
	handlers []SectionHandler
}

func newDefaultSectionRegistry() *SectionRegistry {
	r := &SectionRegistry{}

	r.Register(&versionHandler{})

	for _, h := range infoStringHandlers() {
		r.Register(h)
	}

	r.Register(&skippedHandler{list: CIDInfo, ids: [][4]byte{markerIrom, markerIver}})
	r.Register(&sampleDataHandler{})
	r.Register(&skippedHandler{list: CIDSdta, ids: [][4]byte{markerSm24}})
	r.Register(&presetHeaderHandler{})
	r.Register(&bagHandler{id: markerPbag, side: presetSide})
	r.Register(&modulatorListHandler{id: markerPmod, side: presetSide})
	r.Register(&generatorListHandler{id: markerPgen, side: presetSide})
	r.Register(&instrumentHeaderHandler{})
	r.Register(&bagHandler{id: markerIbag, side: instrumentSide})
	r.Register(&modulatorListHandler{id: markerImod, side: instrumentSide})
	r.Register(&generatorListHandler{id: markerIgen, side: instrumentSide})
	r.Register(&sampleHeaderHandler{})

	return r
}

// Register appends a handler to the registry.
func (r *SectionRegistry) Register(handler SectionHandler) {
	if r == nil || handler == nil {
		return
	}

	r.handlers = append(r.handlers, handler)
}

// Decode dispatches a chunk to the first matching handler.
func (r *SectionRegistry) Decode(dec *Decoder, chnk *riff.Chunk, listKind [4]byte) (bool, error) {
	if r == nil || chnk == nil {
		return false, nil
	}

	for _, handler := range r.handlers {
		if handler.CanHandle(chnk.ID, listKind) {
			err := handler.Decode(dec, chnk)
			if err != nil {
				return true, fmt.Errorf("%s section: %w", chunkName(chnk.ID), err)
			}

			return true, nil
		}
	}

	return false, nil
}

// Encode writes every section belonging to listKind in registration order.
func (r *SectionRegistry) Encode(enc *Encoder, listKind [4]byte) error {
	if r == nil {
		return nil
	}

	for _, handler := range r.handlers {
		if handler.ListKind() != listKind {
			continue
		}

		err := handler.Encode(enc)
		if errors.Is(err, errChunkEncodeNotSupported) {
			continue
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// skippedHandler accepts sections that are recognized but not modeled.
type skippedHandler struct {
	list [4]byte
	ids  [][4]byte
}

func (h *skippedHandler) ListKind() [4]byte { return h.list }

func (h *skippedHandler) CanHandle(chunkID, listKind [4]byte) bool {
	if listKind != h.list {
		return false
	}

	for _, id := range h.ids {
		if id == chunkID {
			return true
		}
	}

	return false
}

func (h *skippedHandler) Decode(d *Decoder, ch *riff.Chunk) error {
	d.logger.Debug("skipping section", "tag", chunkName(ch.ID), "size", ch.Size)

	return nil
}

func (h *skippedHandler) Encode(_ *Encoder) error {
	return errChunkEncodeNotSupported
}

func chunkName(id [4]byte) string {
	return string(id[:])
}
