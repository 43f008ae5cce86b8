// Package validation checks the paths and files handed to the polyglot
// command before anything is read or written.
package validation

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	perrors "github.com/FocuswithJustin/Polyglot/core/errors"
)

// Limits on user-supplied input.
const (
	// MaxFileSize is the largest document read (256 MB).
	MaxFileSize = 256 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNotRegular       = errors.New("not a regular file")
)

// ValidatePath checks length and characters of a path.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if r == 0 {
			return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// SanitizePath validates a relative path that must stay inside baseDir,
// as used for names stored in bundles. It returns the cleaned path with
// forward slashes.
func SanitizePath(baseDir, userPath string) (string, error) {
	if err := ValidatePath(userPath); err != nil {
		return "", err
	}

	cleanPath := filepath.Clean(userPath)
	if filepath.IsAbs(cleanPath) || strings.HasPrefix(cleanPath, string(filepath.Separator)) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return filepath.ToSlash(cleanPath), nil
}

// ValidateFilename checks a single path element.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	// Can be confused with command flags
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// ReadFile reads a regular file of at most MaxFileSize bytes.
func ReadFile(path string) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, perrors.NewIO("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, perrors.NewIO("stat", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
	}
	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, perrors.NewIO("read", path, err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, path)
	}
	return data, nil
}

// OutputPath derives the path written for input: the base name with its
// extension replaced by ext, placed in dir (the input's directory when
// dir is empty).
func OutputPath(input, dir, ext string) (string, error) {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + ext
	if err := ValidateFilename(base); err != nil {
		return "", err
	}
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base), nil
}
