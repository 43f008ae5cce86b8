// Package coded provides the coded-content vocabulary produced by document
// extractors and its conversion to and from the content model.
//
// Extractors emit Content values: a location reference into the source
// document plus an ordered list of parts that alternate text and codes.
// Opening and closing codes are linked by pointer. The content model uses
// index-linked LineElements instead; ToLine and FromLine translate between
// the two without losing literal text, pairing or sub-flow references.
package coded

import (
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/content"
)

// Part is one element of coded content: Text, *Code or *Mark.
type Part interface {
	part()
}

// Text is a run of plain text.
type Text string

func (Text) part() {}

// Kind distinguishes opening, closing and standalone codes.
type Kind int

// Code kinds.
const (
	Opening Kind = iota
	Closing
	Standalone
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	case Standalone:
		return "standalone"
	}
	return "unknown"
}

// Code is a piece of original markup kept verbatim.
type Code struct {
	Kind Kind
	// Data is the literal markup, e.g. `<b class="x">`.
	Data string
	// Type classifies the code ("fmt", "link", "image", "ui", "other").
	Type  string
	Style *content.FormatStyle
	// Pair links an opening code to its closing code and back.
	Pair *Code
	// SubFlows are contents nested inside this code.
	SubFlows []*Content
}

func (*Code) part() {}

// Mark delimits a semantic annotation. It carries no literal text.
type Mark struct {
	Kind  Kind
	Pair  *Mark
	Type  string
	Value string
}

func (*Mark) part() {}

// Content is one extracted text unit.
type Content struct {
	// Reference locates the text in the source document.
	Reference string
	Parts     []Part
	// SubFlow marks contents reachable only through a code's sub-flow list.
	SubFlow bool
}

// Literal returns the coded text: text and code data in order.
func (c *Content) Literal() string {
	var b strings.Builder
	for _, p := range c.Parts {
		switch v := p.(type) {
		case Text:
			b.WriteString(string(v))
		case *Code:
			b.WriteString(v.Data)
		}
	}
	return b.String()
}

// Text returns the plain text of the content, codes excluded.
func (c *Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		if t, ok := p.(Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

// IsBlank reports whether the content has no non-whitespace text.
func (c *Content) IsBlank() bool {
	return strings.TrimSpace(c.Text()) == ""
}

// Open appends an opening code and returns it.
func (c *Content) Open(data string, style *content.FormatStyle) *Code {
	code := &Code{Kind: Opening, Data: data, Type: "fmt", Style: style}
	c.Parts = append(c.Parts, code)
	return code
}

// Close appends a closing code paired with open.
func (c *Content) Close(open *Code, data string) *Code {
	code := &Code{Kind: Closing, Data: data, Type: open.Type, Pair: open}
	open.Pair = code
	c.Parts = append(c.Parts, code)
	return code
}

// Placeholder appends a standalone code.
func (c *Content) Placeholder(data string) *Code {
	code := &Code{Kind: Standalone, Data: data}
	c.Parts = append(c.Parts, code)
	return code
}

// AddText appends text, merging with a trailing Text part.
func (c *Content) AddText(s string) {
	if s == "" {
		return
	}
	if n := len(c.Parts); n > 0 {
		if t, ok := c.Parts[n-1].(Text); ok {
			c.Parts[n-1] = t + Text(s)
			return
		}
	}
	c.Parts = append(c.Parts, Text(s))
}

// TrimSpace removes leading whitespace of the first text part and trailing
// whitespace of the last text part, dropping parts that become empty.
func (c *Content) TrimSpace() {
	for len(c.Parts) > 0 {
		t, ok := c.Parts[0].(Text)
		if !ok {
			break
		}
		trimmed := strings.TrimLeft(string(t), " \t\r\n\f")
		if trimmed != "" {
			c.Parts[0] = Text(trimmed)
			break
		}
		c.Parts = c.Parts[1:]
	}
	for len(c.Parts) > 0 {
		n := len(c.Parts) - 1
		t, ok := c.Parts[n].(Text)
		if !ok {
			break
		}
		trimmed := strings.TrimRight(string(t), " \t\r\n\f")
		if trimmed != "" {
			c.Parts[n] = Text(trimmed)
			break
		}
		c.Parts = c.Parts[:n]
	}
}
