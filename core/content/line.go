package content

import (
	"fmt"
	"strings"
)

// LineElement is one element of a segment side. The set of implementations
// is closed: *PlainText, *StartTag, *EndTag, *InlineTag, *AnnotationStart
// and *AnnotationEnd.
type LineElement interface {
	// Literal returns the element's contribution to the coded text.
	Literal() string
	lineElement()
}

// Tag holds the fields shared by every inline code.
type Tag struct {
	ID string

	CanCopy    Flag
	CanDelete  Flag
	CanOverlap Flag
	// CanReorder is "yes", "firstNo", "no" or empty.
	CanReorder string

	Dir     Direction
	Type    string
	SubType string

	// Data is the raw literal text needed to reconstruct the original markup.
	Data  string
	Disp  string
	Equiv string

	FormatStyle *FormatStyle

	// SubFlows references units whose content is nested inside this code.
	SubFlows []*Unit

	Other []Attr
}

// Annotation holds the fields of a semantic span (comment, term, match).
type Annotation struct {
	ID        string
	Translate Flag
	Type      string
	Value     string
	Ref       string
	Other     []Attr
}

// PlainText is a run of translatable text.
type PlainText struct {
	Text string
}

// StartTag opens a code span. End is the index of the matching EndTag in
// the same Line, or -1.
type StartTag struct {
	Tag
	End int
	// WellFormed marks spans guaranteed to nest properly.
	WellFormed bool
}

// EndTag closes a code span. Start is the index of the matching StartTag, or -1.
type EndTag struct {
	Tag
	Start int
}

// InlineTag is a standalone code.
type InlineTag struct {
	Tag
}

// AnnotationStart opens an annotation span. End is the index of the
// matching AnnotationEnd, or -1.
type AnnotationStart struct {
	Annotation
	End        int
	WellFormed bool
}

// AnnotationEnd closes an annotation span. Start is the index of the
// matching AnnotationStart, or -1. ID names the start of an unpaired end
// whose start lies in another line.
type AnnotationEnd struct {
	ID    string
	Start int
}

func (e *PlainText) Literal() string       { return e.Text }
func (e *StartTag) Literal() string        { return e.Data }
func (e *EndTag) Literal() string          { return e.Data }
func (e *InlineTag) Literal() string       { return e.Data }
func (e *AnnotationStart) Literal() string { return "" }
func (e *AnnotationEnd) Literal() string   { return "" }

func (*PlainText) lineElement()       {}
func (*StartTag) lineElement()        {}
func (*EndTag) lineElement()          {}
func (*InlineTag) lineElement()       {}
func (*AnnotationStart) lineElement() {}
func (*AnnotationEnd) lineElement()   {}

// Line is an ordered sequence of inline elements. Pair indices of start and
// end elements refer to positions in the same Line.
type Line []LineElement

// Literal returns the coded text of the line.
func (l Line) Literal() string {
	var b strings.Builder
	for _, e := range l {
		b.WriteString(e.Literal())
	}
	return b.String()
}

// Text returns the plain text of the line, codes excluded.
func (l Line) Text() string {
	var b strings.Builder
	for _, e := range l {
		if t, ok := e.(*PlainText); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// IsBlank reports whether the line carries no code and only whitespace text.
func (l Line) IsBlank() bool {
	for _, e := range l {
		t, ok := e.(*PlainText)
		if !ok || strings.TrimSpace(t.Text) != "" {
			return false
		}
	}
	return true
}

// Partner returns the index paired with element i, or -1.
func (l Line) Partner(i int) int {
	switch e := l[i].(type) {
	case *StartTag:
		return e.End
	case *EndTag:
		return e.Start
	case *AnnotationStart:
		return e.End
	case *AnnotationEnd:
		return e.Start
	}
	return -1
}

// AppendText appends text, merging with a trailing PlainText.
func (l *Line) AppendText(s string) {
	if s == "" {
		return
	}
	if n := len(*l); n > 0 {
		if t, ok := (*l)[n-1].(*PlainText); ok {
			t.Text += s
			return
		}
	}
	*l = append(*l, &PlainText{Text: s})
}

// AppendStart appends an unpaired StartTag and returns its index.
func (l *Line) AppendStart(t Tag, wellFormed bool) int {
	*l = append(*l, &StartTag{Tag: t, End: -1, WellFormed: wellFormed})
	return len(*l) - 1
}

// AppendEnd appends an EndTag paired with the StartTag at start, or
// unpaired when start is negative or does not name an open StartTag.
func (l *Line) AppendEnd(t Tag, start int) int {
	idx := len(*l)
	end := &EndTag{Tag: t, Start: -1}
	if start >= 0 && start < idx {
		if st, ok := (*l)[start].(*StartTag); ok && st.End < 0 {
			st.End = idx
			end.Start = start
		}
	}
	*l = append(*l, end)
	return idx
}

// AppendInline appends a standalone code and returns its index.
func (l *Line) AppendInline(t Tag) int {
	*l = append(*l, &InlineTag{Tag: t})
	return len(*l) - 1
}

// AppendAnnotationStart appends an unpaired AnnotationStart and returns its index.
func (l *Line) AppendAnnotationStart(a Annotation, wellFormed bool) int {
	*l = append(*l, &AnnotationStart{Annotation: a, End: -1, WellFormed: wellFormed})
	return len(*l) - 1
}

// AppendAnnotationEnd appends an AnnotationEnd paired with start when possible.
func (l *Line) AppendAnnotationEnd(start int) int {
	idx := len(*l)
	end := &AnnotationEnd{Start: -1}
	if start >= 0 && start < idx {
		if as, ok := (*l)[start].(*AnnotationStart); ok && as.End < 0 {
			as.End = idx
			end.Start = start
		}
	}
	*l = append(*l, end)
	return idx
}

// Concat returns l followed by a copy of other, with other's pair indices
// shifted. A nil result is returned only when both are empty.
func (l Line) Concat(other Line) Line {
	if len(other) == 0 {
		return l
	}
	out := make(Line, 0, len(l)+len(other))
	out = append(out, l.Clone()...)
	offset := len(l)
	for _, e := range other.Clone() {
		shiftPair(e, offset)
		out = append(out, e)
	}
	return out
}

func shiftPair(e LineElement, offset int) {
	switch v := e.(type) {
	case *StartTag:
		if v.End >= 0 {
			v.End += offset
		}
	case *EndTag:
		if v.Start >= 0 {
			v.Start += offset
		}
	case *AnnotationStart:
		if v.End >= 0 {
			v.End += offset
		}
	case *AnnotationEnd:
		if v.Start >= 0 {
			v.Start += offset
		}
	}
}

// Clone returns a copy of the line whose elements can be modified without
// affecting l. Sub-flow unit references are shared.
func (l Line) Clone() Line {
	if l == nil {
		return nil
	}
	out := make(Line, len(l))
	for i, e := range l {
		switch v := e.(type) {
		case *PlainText:
			c := *v
			out[i] = &c
		case *StartTag:
			c := *v
			out[i] = &c
		case *EndTag:
			c := *v
			out[i] = &c
		case *InlineTag:
			c := *v
			out[i] = &c
		case *AnnotationStart:
			c := *v
			out[i] = &c
		case *AnnotationEnd:
			c := *v
			out[i] = &c
		}
	}
	return out
}

// Validate checks that every pair index points at a partner of the right
// kind that points back.
func (l Line) Validate() error {
	for i, e := range l {
		switch v := e.(type) {
		case *StartTag:
			if v.End < 0 {
				continue
			}
			if v.End <= i || v.End >= len(l) {
				return fmt.Errorf("start tag %d: end index %d out of range", i, v.End)
			}
			end, ok := l[v.End].(*EndTag)
			if !ok || end.Start != i {
				return fmt.Errorf("start tag %d: element %d does not point back", i, v.End)
			}
		case *EndTag:
			if v.Start < 0 {
				continue
			}
			if v.Start >= i {
				return fmt.Errorf("end tag %d: start index %d out of range", i, v.Start)
			}
			start, ok := l[v.Start].(*StartTag)
			if !ok || start.End != i {
				return fmt.Errorf("end tag %d: element %d does not point back", i, v.Start)
			}
		case *AnnotationStart:
			if v.End < 0 {
				continue
			}
			if v.End <= i || v.End >= len(l) {
				return fmt.Errorf("annotation %d: end index %d out of range", i, v.End)
			}
			end, ok := l[v.End].(*AnnotationEnd)
			if !ok || end.Start != i {
				return fmt.Errorf("annotation %d: element %d does not point back", i, v.End)
			}
		case *AnnotationEnd:
			if v.Start < 0 {
				continue
			}
			if v.Start >= i {
				return fmt.Errorf("annotation end %d: start index %d out of range", i, v.Start)
			}
			start, ok := l[v.Start].(*AnnotationStart)
			if !ok || start.End != i {
				return fmt.Errorf("annotation end %d: element %d does not point back", i, v.Start)
			}
		}
	}
	return nil
}

// NestedPairs reports, per index, whether the pair opened at that index is
// well-formed and properly nested with every other well-formed pair, so it
// can be written as a single enclosing element. Indices of non-start
// elements are always false.
func (l Line) NestedPairs() []bool {
	nested := make([]bool, len(l))
	var stack []int
	closePair := func(start int) {
		if start < 0 || !nested[start] {
			return
		}
		for j := len(stack) - 1; j >= 0; j-- {
			if stack[j] != start {
				continue
			}
			if j != len(stack)-1 {
				for _, k := range stack[j:] {
					nested[k] = false
				}
			}
			stack = stack[:j]
			return
		}
	}
	for i, e := range l {
		switch v := e.(type) {
		case *StartTag:
			if v.End > i && v.WellFormed {
				nested[i] = true
				stack = append(stack, i)
			}
		case *AnnotationStart:
			if v.End > i && v.WellFormed {
				nested[i] = true
				stack = append(stack, i)
			}
		case *EndTag:
			closePair(v.Start)
		case *AnnotationEnd:
			closePair(v.Start)
		}
	}
	return nested
}
