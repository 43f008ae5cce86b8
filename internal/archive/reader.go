// Package archive reads and writes compressed tar bundles of translation
// files. It supports tar.xz, tar.gz and uncompressed tar.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	file         *os.File
	decompressor io.Closer
}

// NewReader creates a new archive reader for the given path.
// It automatically detects and handles .tar.gz and .tar.xz compression.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	switch DetectFormat(path) {
	case "tar.xz":
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case "tar.gz":
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		reader = gzr
		decompressor = gzr
	case "tar":
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported archive format: %s", path)
	}

	return &Reader{
		Reader:       tar.NewReader(reader),
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateBundle opens an archive and iterates through its entries.
func IterateBundle(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// stripBase removes the leading bundle directory from an entry name.
func stripBase(name string) string {
	if idx := strings.Index(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// ReadFile reads a specific file from the archive.
func ReadFile(archivePath, filename string) ([]byte, error) {
	var content []byte
	err := IterateBundle(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		// Handle archives with or without leading directory
		if stripBase(header.Name) == filename || header.Name == filename {
			var err error
			content, err = io.ReadAll(r)
			if content == nil {
				content = []byte{}
			}
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("file not found: %s", filename)
	}
	return content, nil
}

// ReadAll returns every regular file of the archive with the bundle
// directory removed from its name.
func ReadAll(archivePath string) ([]Entry, error) {
	var entries []Entry
	err := IterateBundle(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg {
			return false, nil
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return true, err
		}
		entries = append(entries, Entry{Name: stripBase(header.Name), Data: data})
		return false, nil
	})
	return entries, err
}

// DetectFormat detects the archive format from the file extension.
func DetectFormat(path string) string {
	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		return "tar.xz"
	case strings.HasSuffix(path, ".tar.gz"):
		return "tar.gz"
	case strings.HasSuffix(path, ".tar"):
		return "tar"
	default:
		return "unknown"
	}
}

// IsSupportedFormat returns true if the file has a supported archive extension.
func IsSupportedFormat(path string) bool {
	return DetectFormat(path) != "unknown"
}
