package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"
)

// Entry is one file stored in a bundle.
type Entry struct {
	Name string
	Data []byte
}

// Create writes entries to dstPath under the base directory baseDir. The
// compression follows the extension: .tar.xz, .tar.gz or plain .tar.
// If createParentDir is true, parent directories of dstPath are created.
func Create(dstPath, baseDir string, entries []Entry, createParentDir bool) (err error) {
	format := DetectFormat(dstPath)
	if format == "unknown" {
		return fmt.Errorf("unsupported archive format: %s", dstPath)
	}
	if createParentDir {
		if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}
	}

	outFile, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
	}()

	if err := Write(outFile, format, baseDir, entries); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}

// Write writes a tar stream of entries to w, compressed as format
// ("tar.xz", "tar.gz" or "tar").
func Write(w io.Writer, format, baseDir string, entries []Entry) error {
	var (
		compressor io.WriteCloser
		out        = w
	)
	switch format {
	case "tar.xz":
		xzw, err := xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
		compressor, out = xzw, xzw
	case "tar.gz":
		gzw := gzip.NewWriter(w)
		compressor, out = gzw, gzw
	case "tar":
	default:
		return fmt.Errorf("unsupported archive format: %s", format)
	}

	tw := tar.NewWriter(out)
	now := time.Now().UTC().Truncate(time.Second)
	for _, e := range entries {
		name := e.Name
		if baseDir != "" {
			name = baseDir + "/" + name
		}
		header := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     0644,
			Size:     int64(len(e.Data)),
			ModTime:  now,
			Format:   tar.FormatPAX,
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if _, err := tw.Write(e.Data); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if compressor != nil {
		return compressor.Close()
	}
	return nil
}
