// Package xliff2 reads and writes XLIFF 2.0, 2.1 and 2.2 documents.
//
// The codec maps the core vocabulary (file, group, unit, segment,
// ignorable, inline codes and annotations, original data, notes) and the
// metadata, format style, size restriction and ITS provenance/quality
// modules onto the content model. Everything else is kept as passthrough
// attributes and extension elements so that it is written back unchanged.
//
// All working state (id registries, the original data table, pending tag
// matches) lives in per-call values; concurrent calls on different
// documents need no locking.
package xliff2

import (
	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/errors"
)

// Version is an XLIFF 2 dialect version.
type Version string

// Supported versions.
const (
	Version20 Version = "2.0"
	Version21 Version = "2.1"
	Version22 Version = "2.2"

	DefaultVersion = Version22
)

// Namespaces used by the codec.
const (
	NamespaceCore20          = "urn:oasis:names:tc:xliff:document:2.0"
	NamespaceCore22          = "urn:oasis:names:tc:xliff:document:2.2"
	NamespaceMetadata        = "urn:oasis:names:tc:xliff:metadata:2.0"
	NamespaceFormatStyle     = "urn:oasis:names:tc:xliff:fs:2.0"
	NamespaceSizeRestriction = "urn:oasis:names:tc:xliff:sizerestriction:2.0"
	NamespaceITS             = "http://www.w3.org/2005/11/its"
)

var prefixes = map[string]string{
	NamespaceMetadata:          "mda",
	NamespaceFormatStyle:       "fs",
	NamespaceSizeRestriction:   "slr",
	NamespaceITS:               "its",
	content.ExtensionNamespace: content.ExtensionPrefix,
}

// ParseVersion validates a version attribute value.
func ParseVersion(s string) (Version, error) {
	switch v := Version(s); v {
	case Version20, Version21, Version22:
		return v, nil
	}
	return "", errors.NewUnsupportedFormat("xliff "+s, "unsupported XLIFF 2 version")
}

// Namespace returns the core namespace of the version.
func (v Version) Namespace() string {
	if v == Version22 {
		return NamespaceCore22
	}
	return NamespaceCore20
}

// AtLeast reports whether v is other or newer.
func (v Version) AtLeast(other Version) bool {
	return v >= other
}

// Package is a decoded XLIFF 2 document.
type Package struct {
	Version Version
	Files   []*content.Transformation
}

// Options controls serialization.
type Options struct {
	// Version defaults to DefaultVersion.
	Version Version
	// Indent is the per-level indentation; empty writes one line.
	Indent string
}

func (o Options) version() (Version, error) {
	if o.Version == "" {
		return DefaultVersion, nil
	}
	return ParseVersion(string(o.Version))
}
