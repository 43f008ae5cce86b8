// Package xliff12 reads and writes XLIFF 1.2 documents against the content
// model.
//
// XLIFF 1.2 has no provenance or format-style modules and one segmentation
// mechanism (mrk mtype="seg" inside seg-source). Metadata is carried in
// prop-group elements named after the category path. Values with no 1.2
// equivalent are dropped on output. Values 1.2 has and the model
// does not, such as the legacy state vocabulary and the file datatype, are
// kept as attributes in content.ExtensionNamespace so they can be written
// back unchanged.
package xliff12

import (
	"github.com/FocuswithJustin/Polyglot/core/content"
)

// Namespace is the XLIFF 1.2 namespace.
const Namespace = "urn:oasis:names:tc:xliff:document:1.2"

// Version is the only version this package reads and writes.
const Version = "1.2"

// Passthrough attributes in content.ExtensionNamespace.
const (
	// AttrState holds the 1.2 target state as read.
	AttrState = "state12"
	// AttrDatatype holds the datatype of a file.
	AttrDatatype = "datatype"
	// AttrCtype holds the ctype of an inline code when it has no model type.
	AttrCtype = "ctype"
)

// undefinedDatatype is written when a file has no recorded datatype.
const undefinedDatatype = "x-undefined"

// states maps the 1.2 state vocabulary onto the canonical states.
var states = map[string]content.SegmentState{
	"new":                      content.StateInitial,
	"needs-translation":        content.StateInitial,
	"needs-adaptation":         content.StateInitial,
	"needs-l10n":               content.StateInitial,
	"translated":               content.StateTranslated,
	"needs-review-translation": content.StateTranslated,
	"needs-review-adaptation":  content.StateTranslated,
	"needs-review-l10n":        content.StateTranslated,
	"signed-off":               content.StateReviewed,
	"final":                    content.StateFinal,
}

// legacyStates is the state written for a canonical state when the
// recorded 1.2 state no longer agrees with it.
var legacyStates = map[content.SegmentState]string{
	content.StateInitial:    "needs-translation",
	content.StateTranslated: "translated",
	content.StateReviewed:   "signed-off",
	content.StateFinal:      "final",
}

// StateOf maps a 1.2 state onto the canonical set. Unknown values map to
// the unset state.
func StateOf(state12 string) content.SegmentState {
	return states[state12]
}

// LegacyState returns the 1.2 state to write for s. A recorded 1.2 state
// is kept when it maps onto s, so a custom x- state survives as long as the
// segment state stays unset.
func LegacyState(s content.SegmentState, recorded string) string {
	if recorded != "" && states[recorded] == s {
		return recorded
	}
	return legacyStates[s]
}

// Options controls Marshal.
type Options struct {
	// Indent is the per-level indentation; empty writes one line.
	Indent string
}

func polyAttr(name, value string) content.Attr {
	return content.Attr{
		Space:  content.ExtensionNamespace,
		Prefix: content.ExtensionPrefix,
		Name:   name,
		Value:  value,
	}
}

// lookupPoly returns the value of the poly attribute name in attrs.
func lookupPoly(attrs []content.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Space == content.ExtensionNamespace && a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
