// Package codec implements the byte-level primitives the frame processor
// uses to find sync sequences, convert between big-endian byte strings and
// unsigned integers, and gather/scatter a field's bytes out of (or into) a
// frame laid out according to a schema.Frame.
//
// Everything here is a linear scan over a byte slice with explicit bounds
// checks. ExtractField and InsertField work in caller-provided buffers;
// UintToBytes and DeleteChecksumRun return freshly allocated slices.
package codec

import (
	"bytes"

	"github.com/tripwire/framewire/internal/schema"
)

// MaxDataBytes is the maximum length, in bytes, of any single field payload.
const MaxDataBytes = 8

// MemStr returns the offset of the first occurrence of needle in
// haystack[:n], or -1 if it is not found. When len(needle) > n the search
// trivially fails and returns -1.
func MemStr(haystack []byte, n int, needle []byte) int {
	if n > len(haystack) {
		n = len(haystack)
	}
	if len(needle) > n {
		return -1
	}
	idx := bytes.Index(haystack[:n], needle)
	return idx
}

// BytesToUint treats b[0] as most significant and shifts in 8 bits per
// subsequent byte, truncating to MaxDataBytes worth of shifting (the caller
// is expected to pass at most sizeof(uint64) bytes). It returns 0 for an
// empty slice.
func BytesToUint(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	n := len(b)
	if n > 8 {
		n = 8
	}
	var val uint64
	val = uint64(b[0])
	for i := 1; i < n; i++ {
		val = val<<8 | uint64(b[i])
	}
	return val
}

// UintToBytes writes the big-endian bytes of value, sized to width bytes,
// into the first min(width, cap(dst-by-length)) bytes of dst, returning the
// number of bytes written. Bytes beyond len(dst) are silently dropped.
func UintToBytes(value uint64, width int, dst []byte) int {
	if width > 8 {
		width = 8
	}
	buf := make([]byte, width)
	v := value
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte(v & 0xFF)
		v >>= 8
	}
	n := copy(dst, buf)
	return n
}

// ExtractField walks schema in order; for every position whose tag equals
// fieldTag and whose index is < len(src), it appends src[index] to dst (a
// caller-provided buffer), stopping once dst is full. It returns the number
// of bytes written into dst.
func ExtractField(src []byte, schm schema.Frame, fieldTag schema.FieldTag, dst []byte) int {
	written := 0
	for i, tag := range schm {
		if written >= len(dst) {
			break
		}
		if tag != fieldTag {
			continue
		}
		if i < len(src) {
			dst[written] = src[i]
			written++
		}
	}
	return written
}

// InsertField walks schema in order; for each position whose tag equals
// fieldTag and whose index is < len(dst), it writes the next byte from src,
// advancing its cursor, stopping once src is exhausted.
func InsertField(dst []byte, schm schema.Frame, fieldTag schema.FieldTag, src []byte) {
	cursor := 0
	for i, tag := range schm {
		if cursor >= len(src) {
			break
		}
		if tag != fieldTag {
			continue
		}
		if i < len(dst) {
			dst[i] = src[cursor]
			cursor++
		}
	}
}

// DeleteChecksumRun removes the contiguous schema.TagChecksum run from buf
// (which must be exactly len(schm) bytes) and returns the shortened slice.
// It is the only field ever stripped this way.
func DeleteChecksumRun(buf []byte, schm schema.Frame) []byte {
	if len(buf) != len(schm) {
		panic("codec: DeleteChecksumRun: buffer length does not match schema length")
	}
	out := make([]byte, 0, len(buf))
	for i, tag := range schm {
		if tag == schema.TagChecksum {
			continue
		}
		out = append(out, buf[i])
	}
	return out
}
