package content

import "strings"

// GlobalCategory is the first category of metadata and notes that belong
// to the whole package instead of a single file.
const GlobalCategory = "poly:global"

// ExtensionNamespace is the namespace of attributes this module adds to
// carry values a dialect has no native slot for.
const ExtensionNamespace = "urn:polyglot:extensions:1.0"

// ExtensionPrefix is the preferred prefix for ExtensionNamespace.
const ExtensionPrefix = "poly"

// Metadata is one (category path, type, value) triple.
type Metadata struct {
	Category []string
	Type     string
	Value    string
}

// IsGlobal reports whether the entry belongs to package scope.
func (m Metadata) IsGlobal() bool {
	return len(m.Category) > 0 && m.Category[0] == GlobalCategory
}

// Path returns the category path joined with "/".
func (m Metadata) Path() string {
	return strings.Join(m.Category, "/")
}

// Note is a comment attached to a node.
type Note struct {
	ID       string
	Text     string
	Category string
	// Priority ranges from 1 (highest) to 10; 0 means unset.
	Priority int
	// AppliesTo is "source", "target" or empty.
	AppliesTo string
	Other     []Attr
}

// IsGlobal reports whether the note belongs to package scope.
func (n Note) IsGlobal() bool {
	return n.Category == GlobalCategory
}

// Provenance records who or what produced and revised a translation.
type Provenance struct {
	Person       string
	PersonRef    string
	Org          string
	OrgRef       string
	Tool         string
	ToolRef      string
	RevPerson    string
	RevPersonRef string
	RevOrg       string
	RevOrgRef    string
	RevTool      string
	RevToolRef   string
	ProvRef      string
}

// IsZero reports whether no field is set.
func (p *Provenance) IsZero() bool {
	return p == nil || *p == Provenance{}
}

// Quality records a quality assessment of a translation.
type Quality struct {
	RatingScore          string
	RatingScoreThreshold string
	RatingVote           string
	RatingVoteThreshold  string
	RatingProfileRef     string
	MTConfidence         string
}

// IsZero reports whether no field is set.
func (q *Quality) IsZero() bool {
	return q == nil || *q == Quality{}
}

// FormatStyle describes how to render a code: an HTML element name and
// its attributes in document order.
type FormatStyle struct {
	Name       string
	Attributes []StyleAttr
}

// StyleAttr is a name/value pair of a FormatStyle.
type StyleAttr struct {
	Name  string
	Value string
}

// Attr returns the value of the named attribute.
func (f *FormatStyle) Attr(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	for _, a := range f.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SizeRestrictions limits the storage or display size of a translation.
type SizeRestrictions struct {
	StorageRestriction string
	SizeRestriction    string
	EquivStorage       string
	SizeInfo           string
	SizeInfoRef        string
}

// IsZero reports whether no field is set.
func (s *SizeRestrictions) IsZero() bool {
	return s == nil || *s == SizeRestrictions{}
}

// Attr is a namespaced attribute kept for passthrough.
type Attr struct {
	// Space is the namespace URI, empty for unqualified attributes.
	Space string
	// Prefix is the prefix seen on input; writers may choose another.
	Prefix string
	Name   string
	Value  string
}

// Extension is an element kept verbatim for passthrough. An Extension with
// an empty Name is a text node holding Text.
type Extension struct {
	Space    string
	Prefix   string
	Name     string
	Attrs    []Attr
	Children []*Extension
	Text     string
}

// IsText reports whether the extension is a text node.
func (e *Extension) IsText() bool {
	return e.Name == ""
}

// InnerText concatenates the text of e and its descendants.
func (e *Extension) InnerText() string {
	if e.IsText() {
		return e.Text
	}
	var b strings.Builder
	for _, c := range e.Children {
		b.WriteString(c.InnerText())
	}
	return b.String()
}

func lookupAttr(attrs []Attr, space, name string) (string, bool) {
	for _, a := range attrs {
		if a.Space == space && a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func setAttr(attrs []Attr, a Attr) []Attr {
	for i := range attrs {
		if attrs[i].Space == a.Space && attrs[i].Name == a.Name {
			attrs[i] = a
			return attrs
		}
	}
	return append(attrs, a)
}
