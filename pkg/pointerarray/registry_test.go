package pointerarray

import (
	"path/filepath"
	"testing"

	"github.com/eunmann/bigarray/pkg/format"
	"github.com/eunmann/bigarray/pkg/mmaparray"
)

func TestOpenWriterIsIdempotentPerPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.mmap")
	opts := testOptions([]int64{0, 2}, format.Float64)

	w1, err := OpenWriter(path, opts)
	if err != nil {
		t.Fatalf("first OpenWriter failed: %v", err)
	}
	defer w1.Close()

	// A second open, even with different options, returns the same handle.
	w2, err := OpenWriter(path, Options{
		Options:  mmaparray.Options{Shape: []int64{0, 9}, DType: format.Int32, Registry: opts.Options.Registry},
		Registry: opts.Registry,
	})
	if err != nil {
		t.Fatalf("second OpenWriter failed: %v", err)
	}
	if w1 != w2 {
		t.Error("second OpenWriter returned a distinct handle for the same path")
	}
	if opts.Registry.OpenCount() != 1 {
		t.Errorf("OpenCount = %d, want 1", opts.Registry.OpenCount())
	}
}

func TestCloseEvictsFromRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.mmap")
	opts := testOptions([]int64{0, 2}, format.Float64)

	w1, err := OpenWriter(path, opts)
	if err != nil {
		t.Fatalf("OpenWriter failed: %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if opts.Registry.OpenCount() != 0 {
		t.Fatalf("OpenCount after close = %d, want 0", opts.Registry.OpenCount())
	}

	w2, err := OpenWriter(path, opts)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer w2.Close()
	if w1 == w2 {
		t.Error("reopen after close returned the closed handle")
	}
}

func TestRegistriesAreIsolated(t *testing.T) {
	dir := t.TempDir()
	regA := NewRegistry()
	regB := NewRegistry()
	arrReg := mmaparray.NewRegistry(mmaparray.MaxOpenWriters)

	wA, err := OpenWriter(filepath.Join(dir, "a.mmap"), Options{
		Options:  mmaparray.Options{Shape: []int64{0, 2}, DType: format.Float64, Registry: arrReg},
		Registry: regA,
	})
	if err != nil {
		t.Fatalf("OpenWriter(a) failed: %v", err)
	}
	defer wA.Close()

	wB, err := OpenWriter(filepath.Join(dir, "b.mmap"), Options{
		Options:  mmaparray.Options{Shape: []int64{0, 2}, DType: format.Float64, Registry: arrReg},
		Registry: regB,
	})
	if err != nil {
		t.Fatalf("OpenWriter(b) failed: %v", err)
	}
	defer wB.Close()

	if regA.OpenCount() != 1 || regB.OpenCount() != 1 {
		t.Errorf("OpenCount = %d/%d, want 1/1", regA.OpenCount(), regB.OpenCount())
	}
	if DefaultRegistry.OpenCount() != 0 {
		t.Errorf("DefaultRegistry picked up %d writers from injected registries", DefaultRegistry.OpenCount())
	}
}
