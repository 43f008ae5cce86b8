package content

import "strings"

// types.go - translatable tree: Node, Transformation, Group, Unit, Segment.

// Flag is an optional yes/no attribute. The zero value means the attribute
// was not set and the inherited or dialect default applies.
type Flag uint8

// Flag values.
const (
	FlagUnset Flag = iota
	FlagYes
	FlagNo
)

// FlagOf converts a bool into a set Flag.
func FlagOf(b bool) Flag {
	if b {
		return FlagYes
	}
	return FlagNo
}

// ParseFlag parses "yes"/"no". Anything else is FlagUnset.
func ParseFlag(s string) Flag {
	switch s {
	case "yes":
		return FlagYes
	case "no":
		return FlagNo
	}
	return FlagUnset
}

// String returns "yes", "no" or "" for an unset flag.
func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "yes"
	case FlagNo:
		return "no"
	}
	return ""
}

// Or returns def when the flag is unset.
func (f Flag) Or(def bool) bool {
	if f == FlagUnset {
		return def
	}
	return f == FlagYes
}

// Direction is a text directionality hint.
type Direction string

// Direction constants.
const (
	DirUnset Direction = ""
	DirLTR   Direction = "ltr"
	DirRTL   Direction = "rtl"
	DirAuto  Direction = "auto"
)

// Whitespace is the whitespace-handling mode (xml:space).
type Whitespace string

// Whitespace constants.
const (
	WhitespaceUnset    Whitespace = ""
	WhitespaceDefault  Whitespace = "default"
	WhitespacePreserve Whitespace = "preserve"
)

// SegmentState is the translation state of a segment.
type SegmentState string

// Segment states, in workflow order.
const (
	StateUnset      SegmentState = ""
	StateInitial    SegmentState = "initial"
	StateTranslated SegmentState = "translated"
	StateReviewed   SegmentState = "reviewed"
	StateFinal      SegmentState = "final"
)

var stateRank = map[SegmentState]int{
	StateUnset:      0,
	StateInitial:    0,
	StateTranslated: 1,
	StateReviewed:   2,
	StateFinal:      3,
}

// IsValid returns true for the four canonical states and the unset state.
func (s SegmentState) IsValid() bool {
	_, ok := stateRank[s]
	return ok
}

// AtLeast reports whether s is at or beyond other in the workflow.
func (s SegmentState) AtLeast(other SegmentState) bool {
	return stateRank[s] >= stateRank[other]
}

// Node holds the attributes shared by Transformation, Group and Unit.
type Node struct {
	// ID is unique among siblings of the same kind within one file once assigned.
	// Empty IDs are synthesized by the serializer.
	ID string

	CanResegment Flag
	Translate    Flag
	SrcDir       Direction
	TrgDir       Direction

	// Whitespace is the explicit xml:space value written at this node.
	Whitespace Whitespace

	Notes    []Note
	Metadata []Metadata

	Provenance       *Provenance
	Quality          *Quality
	FormatStyle      *FormatStyle
	SizeRestrictions *SizeRestrictions

	// Other holds attributes no codec interprets; they are written back verbatim.
	Other []Attr

	// Extensions holds elements no codec interprets; they are written back verbatim.
	Extensions []*Extension
}

// Base returns the node itself. It lets Transformation, Group and Unit be
// handled through a common accessor.
func (n *Node) Base() *Node { return n }

// AddNote appends a note.
func (n *Node) AddNote(note Note) {
	n.Notes = append(n.Notes, note)
}

// SetMetadata sets the value for (category, typ), replacing an existing
// entry with the same category path and type.
func (n *Node) SetMetadata(category []string, typ, value string) {
	for i := range n.Metadata {
		if n.Metadata[i].Type == typ && sameCategory(n.Metadata[i].Category, category) {
			n.Metadata[i].Value = value
			return
		}
	}
	n.Metadata = append(n.Metadata, Metadata{
		Category: append([]string(nil), category...),
		Type:     typ,
		Value:    value,
	})
}

// LookupMetadata returns the value stored for (category, typ).
func (n *Node) LookupMetadata(category []string, typ string) (string, bool) {
	for _, m := range n.Metadata {
		if m.Type == typ && sameCategory(m.Category, category) {
			return m.Value, true
		}
	}
	return "", false
}

// RemoveMetadata deletes the entry for (category, typ), if present.
func (n *Node) RemoveMetadata(category []string, typ string) bool {
	for i, m := range n.Metadata {
		if m.Type == typ && sameCategory(m.Category, category) {
			n.Metadata = append(n.Metadata[:i], n.Metadata[i+1:]...)
			return true
		}
	}
	return false
}

// OtherAttr returns the passthrough attribute value for (space, name).
func (n *Node) OtherAttr(space, name string) (string, bool) {
	return lookupAttr(n.Other, space, name)
}

// SetOtherAttr sets or replaces a passthrough attribute.
func (n *Node) SetOtherAttr(a Attr) {
	n.Other = setAttr(n.Other, a)
}

func sameCategory(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UnitGrouping is a child of a Transformation or Group: either *Group or *Unit.
type UnitGrouping interface {
	Base() *Node
	unitGrouping()
}

// Transformation is one translatable file.
type Transformation struct {
	Node

	SourceLanguage string
	TargetLanguage string

	// OriginalReference names the original document (file@original).
	OriginalReference string

	// Original is the raw original content, kept as skeleton text.
	Original string

	// SkeletonHref points to an external skeleton.
	SkeletonHref string

	// Skeleton holds non-textual skeleton extension data.
	Skeleton []*Extension

	Children []UnitGrouping
}

// Group is a named folder of units and groups.
type Group struct {
	Node
	Name     string
	Type     string
	Children []UnitGrouping
}

func (*Group) unitGrouping() {}

// Unit is a leaf holding an ordered list of segments.
type Unit struct {
	Node

	// Name is the resource name. Document extractors store the location
	// reference of the extracted text here.
	Name string
	Type string

	Segments []*Segment
}

func (*Unit) unitGrouping() {}

// NewUnit creates a unit with one segment holding source as plain text.
func NewUnit(id, source string) *Unit {
	return &Unit{
		Node:     Node{ID: id},
		Segments: []*Segment{NewSegment(source)},
	}
}

// TranslatableSegments returns the non-ignorable segments in order.
func (u *Unit) TranslatableSegments() []*Segment {
	var out []*Segment
	for _, s := range u.Segments {
		if !s.Ignorable {
			out = append(out, s)
		}
	}
	return out
}

// SourceLine returns the concatenated source of all segments, ignorables included.
func (u *Unit) SourceLine() Line {
	var out Line
	for _, s := range u.Segments {
		out = out.Concat(s.Source)
	}
	return out
}

// TargetLine returns the concatenated target of all segments. A segment
// without a target contributes its source; ignorables always contribute
// their target when present.
func (u *Unit) TargetLine() Line {
	var out Line
	for _, s := range u.Segments {
		if s.HasTarget() {
			out = out.Concat(s.Target)
		} else {
			out = out.Concat(s.Source)
		}
	}
	return out
}

// SourceText returns the plain text of all source sides.
func (u *Unit) SourceText() string {
	var b strings.Builder
	for _, s := range u.Segments {
		b.WriteString(s.Source.Text())
	}
	return b.String()
}

// TargetText returns the plain text of all target sides.
func (u *Unit) TargetText() string {
	var b strings.Builder
	for _, s := range u.Segments {
		b.WriteString(s.Target.Text())
	}
	return b.String()
}

// Segment is the atomic translation record.
type Segment struct {
	// ID is optional in every supported dialect.
	ID string

	Source Line
	// Target is nil when the segment has no target.
	Target Line

	State    SegmentState
	SubState string

	// Ignorable marks inter-segment content (whitespace, codes) that is not
	// meant for translation.
	Ignorable bool

	CanResegment Flag

	// Order is the target display order, 0 when unset.
	Order int

	SourceWhitespace Whitespace
	TargetWhitespace Whitespace

	// SourceLang and TargetLang are explicit xml:lang overrides.
	SourceLang string
	TargetLang string

	SourceAttrs []Attr
	TargetAttrs []Attr
	Other       []Attr
}

// NewSegment creates a segment whose source is the given plain text.
func NewSegment(source string) *Segment {
	s := &Segment{}
	s.Source.AppendText(source)
	return s
}

// HasTarget reports whether the segment carries any target content.
func (s *Segment) HasTarget() bool {
	return len(s.Target) > 0
}

// EffectiveState returns the state a workflow engine should act on.
// A segment without target content is initial regardless of the recorded state.
func (s *Segment) EffectiveState() SegmentState {
	if !s.HasTarget() || s.State == StateUnset {
		return StateInitial
	}
	return s.State
}

// IsInitial reports whether the segment still needs translation.
func (s *Segment) IsInitial() bool {
	return s.EffectiveState() == StateInitial
}

// SetTargetText replaces the target with plain text. An initial or unset
// state is promoted to translated.
func (s *Segment) SetTargetText(text string) {
	s.Target = nil
	s.Target.AppendText(text)
	if s.Target == nil {
		s.Target = Line{}
	}
	if !s.State.AtLeast(StateTranslated) {
		s.State = StateTranslated
	}
}

// SetTarget replaces the target with a copy of line.
func (s *Segment) SetTarget(line Line) {
	s.Target = line.Clone()
	if !s.State.AtLeast(StateTranslated) {
		s.State = StateTranslated
	}
}

// SourceText returns the plain text of the source.
func (s *Segment) SourceText() string { return s.Source.Text() }

// TargetText returns the plain text of the target.
func (s *Segment) TargetText() string { return s.Target.Text() }

// OtherAttr returns the passthrough attribute value for (space, name).
func (s *Segment) OtherAttr(space, name string) (string, bool) {
	return lookupAttr(s.Other, space, name)
}

// SetOtherAttr sets or replaces a passthrough attribute on the segment.
func (s *Segment) SetOtherAttr(a Attr) {
	s.Other = setAttr(s.Other, a)
}
