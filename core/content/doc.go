// Package content provides the canonical translation-unit model shared by
// every format adapter.
//
// A document is held as a tree of translatable nodes:
//
//   - Transformation: one translatable file with its languages, the raw
//     original content and skeleton data, and an ordered list of children
//   - Group: a named folder of children
//   - Unit: a leaf holding an ordered list of segments
//   - Segment: one source/target pair plus its translation state
//
// # Inline markup
//
// Segment sides are Lines: ordered sequences of LineElement values.
// LineElement is a closed set of variants (PlainText, StartTag, EndTag,
// InlineTag, AnnotationStart, AnnotationEnd). Start and end elements are
// paired through indices into the owning Line rather than pointers, so a
// Line can be copied, compared and serialized without following cycles.
//
// Concatenating the literal value of each element of a Line reproduces the
// coded text of that side: plain text verbatim and, for tags, the raw Data
// payload captured from the original document.
//
// # Metadata
//
// Metadata is stored as flat (category path, type, value) triples. Entries
// whose category path starts with GlobalCategory belong to the whole
// package rather than to one file; codecs decide where to write them.
//
// # Example
//
//	unit := content.NewUnit("u1", "Hello World")
//	file := &content.Transformation{
//	    Node:           content.Node{ID: "f1"},
//	    SourceLanguage: "en",
//	    TargetLanguage: "nl",
//	    Children:       []content.UnitGrouping{unit},
//	}
//	unit.Segments[0].SetTargetText("Hallo Wereld")
package content
