package codec_test

import (
	"bytes"
	"testing"

	"github.com/tripwire/framewire/internal/codec"
	"github.com/tripwire/framewire/internal/schema"
)

const (
	f1 schema.FieldTag = 0
	f2 schema.FieldTag = 1
)

func TestMemStr(t *testing.T) {
	t.Parallel()

	haystack := []byte("hello frame world")

	cases := []struct {
		name   string
		n      int
		needle string
		want   int
	}{
		{"found at start", len(haystack), "hello", 0},
		{"found mid-buffer", len(haystack), "frame", 6},
		{"absent", len(haystack), "zebra", -1},
		{"needle longer than window", 3, "hello", -1},
		{"window excludes occurrence", 5, "frame", -1},
		{"empty window", 0, "h", -1},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := codec.MemStr(haystack, tc.n, []byte(tc.needle)); got != tc.want {
				t.Errorf("MemStr(%q[:%d], %q) = %d, want %d", haystack, tc.n, tc.needle, got, tc.want)
			}
		})
	}
}

func TestBytesToUint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   []byte
		want uint64
	}{
		{"empty", nil, 0},
		{"single byte", []byte{0x7F}, 0x7F},
		{"two bytes big-endian", []byte{0x01, 0x02}, 0x0102},
		{"eight bytes", []byte{1, 2, 3, 4, 5, 6, 7, 8}, 0x0102030405060708},
		{"ninth byte ignored", []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, 0x0102030405060708},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := codec.BytesToUint(tc.in); got != tc.want {
				t.Errorf("BytesToUint(%v) = %#x, want %#x", tc.in, got, tc.want)
			}
		})
	}
}

func TestUintToBytes(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 4)
	n := codec.UintToBytes(0x0102, 2, buf)
	if n != 2 || buf[0] != 0x01 || buf[1] != 0x02 {
		t.Errorf("UintToBytes(0x0102, 2) wrote %d bytes %v", n, buf[:n])
	}

	// Destination shorter than width: most-significant bytes are kept.
	short := make([]byte, 1)
	n = codec.UintToBytes(0x0102, 2, short)
	if n != 1 || short[0] != 0x01 {
		t.Errorf("UintToBytes into short buffer wrote %d bytes %v", n, short[:n])
	}
}

func TestUintToBytesRoundTrip(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 8)
	const value = uint64(0xDEADBEEF)
	n := codec.UintToBytes(value, 8, buf)
	if n != 8 {
		t.Fatalf("UintToBytes wrote %d bytes, want 8", n)
	}
	if got := codec.BytesToUint(buf[:n]); got != value {
		t.Errorf("round trip = %#x, want %#x", got, value)
	}
}

// interleaved carries f1 at positions 1 and 3, f2 at position 2: the layout
// exercises gather/scatter over non-adjacent positions.
var interleaved = schema.Frame{schema.TagSync, f1, f2, f1}

func TestExtractFieldGathersInSchemaOrder(t *testing.T) {
	t.Parallel()

	src := []byte{'A', 'x', 'y', 'z'}
	dst := make([]byte, 8)

	n := codec.ExtractField(src, interleaved, f1, dst)
	if n != 2 || !bytes.Equal(dst[:n], []byte("xz")) {
		t.Errorf("ExtractField(f1) = %q (%d bytes), want \"xz\"", dst[:n], n)
	}

	n = codec.ExtractField(src, interleaved, f2, dst)
	if n != 1 || dst[0] != 'y' {
		t.Errorf("ExtractField(f2) = %q (%d bytes), want \"y\"", dst[:n], n)
	}
}

func TestExtractFieldAbsentTagReturnsZero(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 8)
	if n := codec.ExtractField([]byte{'A', 'x', 'y', 'z'}, interleaved, 99, dst); n != 0 {
		t.Errorf("ExtractField for an absent tag = %d, want 0", n)
	}
}

func TestExtractFieldShortSrcCountsOnlyCopiedBytes(t *testing.T) {
	t.Parallel()

	// src covers only positions 0-2, so the second f1 position (index 3)
	// contributes nothing to the count or the destination.
	src := []byte{'A', 'x', 'y'}
	dst := make([]byte, 8)

	n := codec.ExtractField(src, interleaved, f1, dst)
	if n != 1 || dst[0] != 'x' {
		t.Errorf("ExtractField with short src = %q (%d bytes), want \"x\"", dst[:n], n)
	}
}

func TestExtractFieldStopsWhenDstFull(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 1)
	n := codec.ExtractField([]byte{'A', 'x', 'y', 'z'}, interleaved, f1, dst)
	if n != 1 || dst[0] != 'x' {
		t.Errorf("ExtractField into full dst = %q (%d bytes), want \"x\"", dst[:n], n)
	}
}

func TestInsertFieldScattersInSchemaOrder(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 4)
	codec.InsertField(dst, interleaved, f1, []byte("xz"))
	codec.InsertField(dst, interleaved, f2, []byte("y"))

	want := []byte{0, 'x', 'y', 'z'}
	if !bytes.Equal(dst, want) {
		t.Errorf("InsertField result = %v, want %v", dst, want)
	}
}

func TestInsertFieldStopsWhenSrcExhausted(t *testing.T) {
	t.Parallel()

	dst := make([]byte, 4)
	codec.InsertField(dst, interleaved, f1, []byte("x"))
	if dst[1] != 'x' || dst[3] != 0 {
		t.Errorf("InsertField with short src wrote %v, want only position 1 set", dst)
	}
}

func TestDeleteChecksumRun(t *testing.T) {
	t.Parallel()

	f := schema.Frame{schema.TagSync, f1, schema.TagChecksum, schema.TagChecksum, f2}
	buf := []byte{'A', 'x', 0xBE, 0xEF, 'y'}

	got := codec.DeleteChecksumRun(buf, f)
	if !bytes.Equal(got, []byte{'A', 'x', 'y'}) {
		t.Errorf("DeleteChecksumRun = %v, want [A x y]", got)
	}
}

func TestDeleteChecksumRunPanicsOnLengthMismatch(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for buffer/schema length mismatch")
		}
	}()
	codec.DeleteChecksumRun([]byte{1, 2}, schema.Frame{schema.TagSync})
}
