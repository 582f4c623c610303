package csv

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/shapestone/shape-csvstream/internal/mmapfile"
)

// Compression identifies the container format of an input file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionXZ
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// CompressionFromPath picks the compression from the file extension:
// .gz, .bz2, .xz, .zst or .zstd. Anything else is CompressionNone.
func CompressionFromPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".bz2":
		return CompressionBzip2
	case ".xz":
		return CompressionXZ
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Open opens path for reading, decompressing it according to its extension.
// The file itself is memory-mapped where the platform supports it.
// Close releases the decoder and the mapping.
//
// Example:
//
//	f, err := csv.Open("export.csv.zst")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	scanner := csv.NewScanner(f)
func Open(path string) (io.ReadCloser, error) {
	f, err := mmapfile.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	rc, err := Decompress(f, CompressionFromPath(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &source{ReadCloser: rc, file: f}, nil
}

// Decompress wraps r with the decoder for c. Closing the result releases the
// decoder but not r.
func Decompress(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create gzip reader: %w", ErrRead, err)
		}
		return gzReader, nil
	case CompressionBzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case CompressionXZ:
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create xz reader: %w", ErrRead, err)
		}
		return io.NopCloser(xzReader), nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create zstd reader: %w", ErrRead, err)
		}
		return decoder.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", c)
	}
}

// source closes the decoder first, then the underlying file.
type source struct {
	io.ReadCloser
	file io.Closer
}

func (s *source) Close() error {
	derr := s.ReadCloser.Close()
	ferr := s.file.Close()
	if derr != nil {
		return derr
	}
	return ferr
}
