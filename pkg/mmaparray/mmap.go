package mmaparray

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapShared maps [0, length) of f read-write and shared. The mapping always
// starts at file offset 0 (mmap offsets must be page-aligned, and the
// dtype-aligned data offset is not); callers slice off the header prefix.
func mapShared(f *os.File, length int64) ([]byte, error) {
	region, err := unix.Mmap(int(f.Fd()), 0, int(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", f.Name(), err)
	}
	return region, nil
}

func unmap(region []byte) error {
	if region == nil {
		return nil
	}
	if err := unix.Munmap(region); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// msync forces dirty pages of the mapping to the backing file.
func msync(region []byte) error {
	if region == nil {
		return nil
	}
	if err := unix.Msync(region, unix.MS_SYNC); err != nil {
		return fmt.Errorf("msync: %w", err)
	}
	return nil
}
