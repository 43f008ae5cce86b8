// Package convert moves documents between their native formats and XLIFF.
//
// Native documents (HTML and plain text) are extracted into one
// transformation whose skeleton keeps the complete original, so a
// translated transformation can always be merged back without access to
// the source file.
package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/Polyglot/core/coded"
	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/errors"
	"github.com/FocuswithJustin/Polyglot/core/html"
	"github.com/FocuswithJustin/Polyglot/core/plaintext"
	"github.com/FocuswithJustin/Polyglot/core/xliff12"
	"github.com/FocuswithJustin/Polyglot/core/xliff2"
	pxml "github.com/FocuswithJustin/Polyglot/core/xml"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
)

// Format identifies a document format.
type Format string

const (
	FormatHTML    Format = "html"
	FormatText    Format = "text"
	FormatXLIFF12 Format = "xliff12"
	FormatXLIFF2  Format = "xliff2"
)

// IsXLIFF reports whether f is one of the XLIFF dialects.
func (f Format) IsXLIFF() bool {
	return f == FormatXLIFF12 || f == FormatXLIFF2
}

// ParseFormat parses a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return "", nil
	case "html", "htm":
		return FormatHTML, nil
	case "text", "txt", "plain":
		return FormatText, nil
	case "xliff12", "xliff1.2", "1.2":
		return FormatXLIFF12, nil
	case "xliff2", "xliff", "2":
		return FormatXLIFF2, nil
	}
	return "", errors.NewUnsupportedFormat(s, "unknown format name")
}

// SourceCategory is the metadata category recording where a
// transformation was extracted from.
const SourceCategory = content.ExtensionPrefix + ":source"

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	// htmlTag matches something that looks like an element or a doctype.
	htmlTag = regexp.MustCompile(`(?i)<(?:!doctype|/?[A-Za-z][A-Za-z0-9-]*(?:\s[^<>]*)?/?>)`)

	xmlExtensions = map[string]bool{".xlf": true, ".xliff": true, ".xml": true, ".sdlxliff": true}
)

// Detect guesses the format of data. name is only used for its extension.
func Detect(data []byte, name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return "", errors.NewUnsupportedFormat(ext, "input is not UTF-8 text")
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")

	if bytes.HasPrefix(trimmed, []byte("<")) {
		info, err := pxml.Probe(data)
		switch {
		case err == nil && info.Name == "xliff":
			switch info.Namespace {
			case xliff12.Namespace:
				return FormatXLIFF12, nil
			case xliff2.NamespaceCore20, xliff2.NamespaceCore22:
				return FormatXLIFF2, nil
			}
			return "", errors.NewUnsupportedFormat("xliff "+info.Version, "unknown namespace "+info.Namespace)
		case err == nil && xmlExtensions[ext]:
			return "", errors.NewUnsupportedFormat("xml", "unrecognized document element <"+info.Name+">")
		case err != nil && xmlExtensions[ext]:
			if verr := pxml.Validate(data); verr != nil {
				err = verr
			}
			return "", &errors.UnsupportedFormatError{Format: ext, Reason: "document is not well-formed", Err: err}
		}
	}

	if ext == ".html" || ext == ".htm" || ext == ".xhtml" || htmlTag.Match(trimmed) {
		return FormatHTML, nil
	}
	return FormatText, nil
}

// Options controls FromContent.
type Options struct {
	// Format skips detection when set.
	Format Format

	SourceLanguage string
	TargetLanguage string
}

// FromContent turns data into transformations. XLIFF input is parsed as
// is; native documents are extracted into a single transformation named
// after name.
func FromContent(data []byte, name string, opts Options) ([]*content.Transformation, Format, error) {
	format := opts.Format
	if format == "" {
		var err error
		if format, err = Detect(data, name); err != nil {
			return nil, "", err
		}
	}

	switch format {
	case FormatXLIFF12:
		files, err := xliff12.Unmarshal(data)
		return files, format, err
	case FormatXLIFF2:
		pkg, err := xliff2.Unmarshal(data)
		if err != nil {
			return nil, format, err
		}
		return pkg.Files, format, nil
	}

	src := string(bytes.TrimPrefix(data, utf8BOM))
	var contents []*coded.Content
	switch format {
	case FormatHTML:
		var err error
		if contents, err = html.Extract(src); err != nil {
			return nil, format, errors.Wrap(err, "extract html")
		}
	case FormatText:
		contents = plaintext.Extract(src)
	default:
		return nil, format, errors.NewUnsupportedFormat(string(format), "no extractor")
	}

	f := &content.Transformation{
		SourceLanguage:    opts.SourceLanguage,
		TargetLanguage:    opts.TargetLanguage,
		OriginalReference: name,
		Original:          src,
	}
	f.SetMetadata([]string{SourceCategory}, "format", string(format))

	ids := content.NewIDGen("u", nil)
	for _, u := range coded.ToUnits(contents) {
		u.ID = ids.Next()
		f.Children = append(f.Children, u)
	}
	logging.Debug("extracted document", "path", name, "format", string(format), "units", len(contents))
	return []*content.Transformation{f}, format, nil
}

// SerializeOptions controls Serialize.
type SerializeOptions struct {
	// Version is "1.2" or one of the XLIFF 2 versions. Empty selects the
	// latest XLIFF 2 version.
	Version string
	Indent  string
}

// Serialize writes files as XLIFF.
func Serialize(files []*content.Transformation, opts SerializeOptions) ([]byte, error) {
	if opts.Version == xliff12.Version {
		return xliff12.Marshal(files, xliff12.Options{Indent: opts.Indent})
	}
	version := xliff2.DefaultVersion
	if opts.Version != "" {
		v, err := xliff2.ParseVersion(opts.Version)
		if err != nil {
			return nil, err
		}
		version = v
	}
	return xliff2.Marshal(files, xliff2.Options{Version: version, Indent: opts.Indent})
}

// SourceFormat returns the native format recorded by FromContent, or
// empty when f did not come from an extraction.
func SourceFormat(f *content.Transformation) Format {
	v, _ := f.LookupMetadata([]string{SourceCategory}, "format")
	return Format(v)
}

// Merge rebuilds the native document of f with every unit's target
// applied. Units without a target keep their source text.
func Merge(f *content.Transformation) ([]byte, error) {
	if f.Original == "" {
		return nil, fmt.Errorf("%w: file %q carries no original document", errors.ErrInvalidInput, f.OriginalReference)
	}
	format := SourceFormat(f)
	if format == "" {
		var err error
		if format, err = Detect([]byte(f.Original), f.OriginalReference); err != nil {
			return nil, err
		}
	}

	var contents []*coded.Content
	for _, c := range coded.FromUnits(f.Units(), true) {
		if c.Reference == "" {
			logging.Debug("skipping unit without reference", "file", f.OriginalReference)
			continue
		}
		contents = append(contents, c)
	}

	var (
		out string
		err error
	)
	switch format {
	case FormatHTML:
		out, err = html.Reinject(f.Original, contents)
	case FormatText:
		out, err = plaintext.Reinject(f.Original, contents)
	default:
		return nil, errors.NewUnsupportedFormat(string(format), "cannot merge into this format")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "merge %s", f.OriginalReference)
	}
	return []byte(out), nil
}
