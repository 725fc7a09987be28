// Package schema describes frame layouts: the ordered sequence of field tags
// that names what each byte position of a fixed-length frame carries.
//
// A Frame is immutable once constructed. The package provides normalization
// (rotating a frame so its sync run leads) and structural validation;
// validation is invoked once at processor construction time (see
// internal/processor), while normalization is a standalone helper.
package schema

import (
	"fmt"
	"math"
)

// FieldTag identifies a logical field within a frame. Four tags are
// reserved, each set to a sentinel near math.MaxInt so that every
// user-defined tag (required to be non-negative) is strictly less than any
// reserved tag.
type FieldTag int

const (
	// TagTerm marks positions whose bytes are ignored (padding/terminator).
	TagTerm FieldTag = math.MaxInt - 3
	// TagChecksum marks the positions that together encode, big-endian, the
	// transmitted checksum.
	TagChecksum FieldTag = math.MaxInt - 2
	// TagFrame marks the positions that together encode, big-endian, an
	// unsigned byte frame-id.
	TagFrame FieldTag = math.MaxInt - 1
	// TagSync marks the positions that together must equal the configured
	// sync sequence verbatim.
	TagSync FieldTag = math.MaxInt
)

// IsReserved reports whether tag is one of the four protocol-reserved tags.
func IsReserved(tag FieldTag) bool {
	return tag == TagSync || tag == TagFrame || tag == TagChecksum || tag == TagTerm
}

// IsUser reports whether tag identifies a user-defined field: non-negative
// and strictly less than every reserved tag.
func IsUser(tag FieldTag) bool {
	return tag >= 0 && tag < TagTerm
}

// Frame is an ordered sequence of field tags; position i names which
// logical field byte i of an on-wire message carries.
type Frame []FieldTag

// Len returns the frame's fixed on-wire length in bytes.
func (f Frame) Len() int { return len(f) }

// runOf returns the run of positions bearing tag, with found=false if tag
// does not appear and contiguous=false if its occurrences are not contiguous.
func (f Frame) runOf(tag FieldTag) (start, length int, contiguous bool, found bool) {
	for i, t := range f {
		if t != tag {
			continue
		}
		if !found {
			start = i
			found = true
		}
		length++
	}
	if !found {
		return 0, 0, true, false
	}
	// Contiguous iff every index in [start, start+length) carries tag.
	for i := start; i < start+length; i++ {
		if i >= len(f) || f[i] != tag {
			return start, length, false, true
		}
	}
	return start, length, true, true
}

// FrameID identifies which Frame in a FrameMap applies to a given message,
// decoded from the TagFrame run.
type FrameID uint8

// FrameMap maps a frame-id to the Frame layout it selects, used both to pick
// a schema while parsing and to select a layout when sending.
type FrameMap map[FrameID]Frame

// Validate checks structural invariants against m and defaultID:
//
//   - every frame has length >= 1
//   - TagSync appears at least once per frame and forms a single contiguous run
//   - TagFrame, when present, forms a single contiguous run no longer than
//     maxFrameIDBytes
//   - if len(m) > 1, every frame contains exactly one TagFrame run
//   - the byte offset of the sync run, and of the frame run, is identical
//     across every frame in the map
//   - syncLen equals the length of the sync run in every frame
//   - defaultID is present in m
//
// Validate returns a non-nil error describing the first violation found;
// callers should treat any returned error as fatal (construction must not
// proceed).
func (m FrameMap) Validate(defaultID FrameID, syncLen int, maxFrameIDBytes int) error {
	if len(m) == 0 {
		return fmt.Errorf("frame map is empty")
	}

	var (
		haveAlignment    bool
		syncOffset       int
		frameOffset      int
		frameRunRequired = len(m) > 1
	)

	// Iterate in a stable order so error messages are deterministic.
	for _, id := range sortedIDs(m) {
		frame := m[id]
		if frame.Len() < 1 {
			return fmt.Errorf("frame %d: length must be >= 1", id)
		}

		syncStart, syncRunLen, syncContig, syncFound := frame.runOf(TagSync)
		if !syncFound {
			return fmt.Errorf("frame %d: no sync field present", id)
		}
		if !syncContig {
			return fmt.Errorf("frame %d: sync positions are not contiguous", id)
		}
		if syncRunLen != syncLen {
			return fmt.Errorf("frame %d: sync run length %d does not match configured sync value length %d", id, syncRunLen, syncLen)
		}

		frameStart, frameRunLen, frameContig, frameFound := frame.runOf(TagFrame)
		if frameRunRequired && !frameFound {
			return fmt.Errorf("frame %d: frame-id field required (frame map has more than one entry) but absent", id)
		}
		if frameFound {
			if !frameContig {
				return fmt.Errorf("frame %d: frame-id positions are not contiguous", id)
			}
			if frameRunLen > maxFrameIDBytes {
				return fmt.Errorf("frame %d: frame-id run length %d exceeds %d bytes", id, frameRunLen, maxFrameIDBytes)
			}
		}

		if !haveAlignment {
			syncOffset = syncStart
			frameOffset = frameStart
			haveAlignment = true
			continue
		}
		if syncStart != syncOffset {
			return fmt.Errorf("frame %d: sync run offset %d does not match frame map alignment offset %d", id, syncStart, syncOffset)
		}
		if frameFound && frameStart != frameOffset {
			return fmt.Errorf("frame %d: frame-id run offset %d does not match frame map alignment offset %d", id, frameStart, frameOffset)
		}
	}

	if _, ok := m[defaultID]; !ok {
		return fmt.Errorf("default frame id %d is not present in the frame map", defaultID)
	}

	return nil
}

func sortedIDs(m FrameMap) []FrameID {
	ids := make([]FrameID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	// Small maps (frame ids are a single byte); insertion sort keeps this
	// dependency-free and avoids importing sort for at most 256 elements.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// Normalize returns a rotation of f whose first element is the first TagSync
// position of f. Normalization simplifies reasoning about frame layout but
// does not change decoded semantics.
func Normalize(f Frame) Frame {
	idx := -1
	for i, t := range f {
		if t == TagSync {
			idx = i
			break
		}
	}
	if idx <= 0 {
		out := make(Frame, len(f))
		copy(out, f)
		return out
	}
	out := make(Frame, 0, len(f))
	out = append(out, f[idx:]...)
	out = append(out, f[:idx]...)
	return out
}

// NormalizeMap normalizes every frame in m, returning a new FrameMap.
func NormalizeMap(m FrameMap) FrameMap {
	out := make(FrameMap, len(m))
	for id, f := range m {
		out[id] = Normalize(f)
	}
	return out
}
