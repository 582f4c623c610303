//go:build !unix

package mmapfile

import (
	"fmt"
	"os"
)

// Open reads filename into memory on platforms without mmap.
// The returned File behaves like the mapped one.
func Open(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return &File{data: data}, nil
}
