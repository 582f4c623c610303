//go:build unix

package mmapfile

import (
	"fmt"
	"os"
	"syscall"
)

// Open maps filename into memory for reading.
func Open(filename string) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	if size == 0 {
		// mmap rejects zero-length mappings
		return &File{data: []byte{}, release: f.Close}, nil
	}
	if int64(int(size)) != size {
		f.Close()
		return nil, fmt.Errorf("file too large to map: %d bytes", size)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}

	release := func() error {
		uerr := syscall.Munmap(data)
		cerr := f.Close()
		if uerr != nil {
			return uerr
		}
		return cerr
	}
	return &File{data: data, release: release}, nil
}
