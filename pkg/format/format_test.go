package format

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	buf, err := EncodeHeader(Float64, []int64{20, 8})
	if err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}
	if !bytes.HasPrefix(buf, []byte(Magic)) {
		t.Fatalf("header does not start with magic: %q", buf[:len(Magic)])
	}

	hdr, err := DecodeHeader(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("DecodeHeader failed: %v", err)
	}
	if hdr.DType != Float64 {
		t.Errorf("DType = %q, want %q", hdr.DType, Float64)
	}
	if len(hdr.Shape) != 2 || hdr.Shape[0] != 20 || hdr.Shape[1] != 8 {
		t.Errorf("Shape = %v, want [20 8]", hdr.Shape)
	}
	if hdr.Len != len(buf) {
		t.Errorf("Len = %d, want %d", hdr.Len, len(buf))
	}
}

func TestSizeFieldIsEightAsciiDigits(t *testing.T) {
	buf, err := EncodeHeader(Int32, []int64{0, 3})
	if err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}
	field := string(buf[len(Magic) : len(Magic)+SizeFieldLen])
	size, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		t.Fatalf("size field %q is not a padded decimal: %v", field, err)
	}
	if want := len(buf) - len(Magic) - SizeFieldLen; size != want {
		t.Errorf("size field declares %d bytes, blob holds %d", size, want)
	}
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	_, err := DecodeHeader(strings.NewReader("notmagic     123garbage"))
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("DecodeHeader(bad magic) = %v, want ErrBadMagic", err)
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	buf, err := EncodeHeader(Float32, []int64{4, 4})
	if err != nil {
		t.Fatalf("EncodeHeader failed: %v", err)
	}
	for _, cut := range []int{3, len(Magic) + 2, len(buf) - 1} {
		_, err := DecodeHeader(bytes.NewReader(buf[:cut]))
		if !errors.Is(err, ErrHeaderCorrupt) {
			t.Errorf("DecodeHeader(cut at %d) = %v, want ErrHeaderCorrupt", cut, err)
		}
	}
}

func TestDecodeHeaderGarbledSizeField(t *testing.T) {
	buf := append([]byte(Magic), []byte("abcdefgh")...)
	_, err := DecodeHeader(bytes.NewReader(buf))
	if !errors.Is(err, ErrHeaderCorrupt) {
		t.Errorf("DecodeHeader(garbled size) = %v, want ErrHeaderCorrupt", err)
	}
}

func TestEncodeHeaderMetadataTooLarge(t *testing.T) {
	// A shape with hundreds of dimensions overflows the metadata cap.
	shape := make([]int64, 300)
	for i := range shape {
		shape[i] = 1000000 + int64(i)
	}
	_, err := EncodeHeader(Float64, shape)
	if !errors.Is(err, ErrMetadataTooLarge) {
		t.Errorf("EncodeHeader(huge shape) = %v, want ErrMetadataTooLarge", err)
	}
}

func TestDataOffsetAlignment(t *testing.T) {
	prefix := int64(len(Magic) + SizeFieldLen + MaxMetadataSize)
	for dtype, size := range itemSizes {
		off := DataOffset(dtype)
		if off%int64(size) != 0 {
			t.Errorf("DataOffset(%s) = %d, not a multiple of %d", dtype, off, size)
		}
		if off < prefix {
			t.Errorf("DataOffset(%s) = %d, below header prefix %d", dtype, off, prefix)
		}
		if off-prefix >= int64(size) {
			t.Errorf("DataOffset(%s) = %d, not the smallest aligned offset", dtype, off)
		}
	}
}

func TestDataOffsetStableAcrossRowCounts(t *testing.T) {
	// The offset depends only on dtype, so header rewrites never move data.
	off := DataOffset(Float64)
	for _, rows := range []int64{0, 1, 1 << 30} {
		buf, err := EncodeHeader(Float64, []int64{rows, 8})
		if err != nil {
			t.Fatalf("EncodeHeader(%d rows) failed: %v", rows, err)
		}
		if int64(len(buf)) > off {
			t.Errorf("header for %d rows is %d bytes, crosses data offset %d", rows, len(buf), off)
		}
	}
}
