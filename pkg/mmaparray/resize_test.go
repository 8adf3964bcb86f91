package mmaparray

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/eunmann/bigarray/pkg/format"
)

func TestResizeShrinkFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.mmap")
	w, err := OpenWriter(path, testOptions([]int64{10, 2}, format.Float64))
	if err != nil {
		t.Fatalf("OpenWriter failed: %v", err)
	}
	defer w.Close()

	if err := w.Resize(5); !errors.Is(err, ErrShrink) {
		t.Errorf("Resize(5) = %v, want ErrShrink", err)
	}
	if w.Rows() != 10 {
		t.Errorf("Rows after failed shrink = %d, want 10", w.Rows())
	}
}

func TestResizeEqualIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.mmap")
	w, err := OpenWriter(path, testOptions([]int64{10, 2}, format.Float64))
	if err != nil {
		t.Fatalf("OpenWriter failed: %v", err)
	}
	defer w.Close()

	before := w.FileSize()
	if err := w.Resize(10); err != nil {
		t.Fatalf("Resize(10) failed: %v", err)
	}
	if w.FileSize() != before {
		t.Errorf("file size changed on no-op resize: %d -> %d", before, w.FileSize())
	}
}

func TestResizeGrowthPreservesExistingBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.mmap")
	w, err := OpenWriter(path, testOptions([]int64{0, 4}, format.Float64))
	if err != nil {
		t.Fatalf("OpenWriter failed: %v", err)
	}

	written := rowData(16, 4, 0)
	if err := w.Write(Float64Block(written, 16, 4)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Resize(1000); err != nil {
		t.Fatalf("Resize(1000) failed: %v", err)
	}
	if w.Rows() != 1000 {
		t.Fatalf("Rows = %d, want 1000", w.Rows())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()
	if a.Rows() != 1000 {
		t.Fatalf("reader Rows = %d, want 1000", a.Rows())
	}
	got, err := a.Float64s()
	if err != nil {
		t.Fatalf("Float64s failed: %v", err)
	}
	for i, v := range written {
		if got[i] != v {
			t.Fatalf("element %d = %v after growth, want %v", i, got[i], v)
		}
	}
}

func TestResizeManyTimesKeepsOffsetsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.mmap")
	w, err := OpenWriter(path, testOptions([]int64{0, 1}, format.Int64))
	if err != nil {
		t.Fatalf("OpenWriter failed: %v", err)
	}

	for i := int64(0); i < 50; i++ {
		if err := w.Write(Int64Block([]int64{i}, 1, 1)); err != nil {
			t.Fatalf("Write(%d) failed: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()
	got, err := a.Int64s()
	if err != nil {
		t.Fatalf("Int64s failed: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("len = %d, want 50", len(got))
	}
	for i, v := range got {
		if v != int64(i) {
			t.Fatalf("element %d = %d, want %d", i, v, i)
		}
	}
}
