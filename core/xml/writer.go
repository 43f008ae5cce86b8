package xml

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/encoding"
)

// Child is a child of an Element: *Element, CharData or Comment.
type Child interface {
	child()
}

// CharData is escaped character data.
type CharData string

// Comment is an XML comment.
type Comment string

func (CharData) child() {}
func (Comment) child()  {}
func (*Element) child() {}

// WAttr is an attribute of an Element being written.
type WAttr struct {
	Space string
	// Prefix is a hint used when the namespace has no preferred prefix.
	Prefix string
	Name   string
	Value  string
}

// Element is an XML element under construction. Space is the namespace URI;
// prefixes are chosen by the writer.
type Element struct {
	Space    string
	Prefix   string
	Name     string
	Attrs    []WAttr
	Children []Child
	// Preserve writes the content without added indentation, for elements
	// whose whitespace is significant even when they hold no text.
	Preserve bool
}

// NewElement creates an element in the given namespace.
func NewElement(space, name string) *Element {
	return &Element{Space: space, Name: name}
}

// Elem appends and returns a new child element.
func (e *Element) Elem(space, name string) *Element {
	c := NewElement(space, name)
	e.Children = append(e.Children, c)
	return c
}

// Add appends children, skipping nil elements.
func (e *Element) Add(children ...Child) *Element {
	for _, c := range children {
		if el, ok := c.(*Element); ok && el == nil {
			continue
		}
		e.Children = append(e.Children, c)
	}
	return e
}

// AddText appends character data, merging with trailing character data.
func (e *Element) AddText(s string) {
	if s == "" {
		return
	}
	if n := len(e.Children); n > 0 {
		if t, ok := e.Children[n-1].(CharData); ok {
			e.Children[n-1] = t + CharData(s)
			return
		}
	}
	e.Children = append(e.Children, CharData(s))
}

// Set sets an unqualified attribute. Empty values are skipped.
func (e *Element) Set(name, value string) *Element {
	return e.SetNS("", name, value)
}

// SetNS sets a namespaced attribute, replacing an existing one. Empty values
// are skipped.
func (e *Element) SetNS(space, name, value string) *Element {
	if value == "" {
		return e
	}
	for i := range e.Attrs {
		if e.Attrs[i].Space == space && e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, WAttr{Space: space, Name: name, Value: value})
	return e
}

// AddAttrs appends passthrough attributes, skipping names already set.
func (e *Element) AddAttrs(attrs []content.Attr) *Element {
	for _, a := range attrs {
		if e.hasAttr(a.Space, a.Name) {
			continue
		}
		e.Attrs = append(e.Attrs, WAttr{Space: a.Space, Prefix: a.Prefix, Name: a.Name, Value: a.Value})
	}
	return e
}

func (e *Element) hasAttr(space, name string) bool {
	for _, a := range e.Attrs {
		if a.Space == space && a.Name == name {
			return true
		}
	}
	return false
}

// FromExtension converts a passthrough Extension back into an Element or
// character data.
func FromExtension(x *content.Extension) Child {
	if x.IsText() {
		return CharData(x.Text)
	}
	e := &Element{Space: x.Space, Prefix: x.Prefix, Name: x.Name}
	e.AddAttrs(x.Attrs)
	for _, c := range x.Children {
		e.Add(FromExtension(c))
	}
	return e
}

// WriteOptions controls serialization.
type WriteOptions struct {
	// Indent is the per-level indentation; empty writes everything on one line.
	Indent string
	// Prefixes maps namespace URIs to preferred prefixes.
	Prefixes map[string]string
	// Declaration writes the XML declaration first.
	Declaration bool
}

type nsDecl struct {
	prefix string
	uri    string
}

type writer struct {
	buf      bytes.Buffer
	opts     WriteOptions
	prefixes map[string]string
	used     map[string]bool
	decls    []nsDecl
}

// Write serializes root to w. Namespaces other than the root's default
// namespace are declared once on the root element. Elements holding
// character data are written without added whitespace.
func Write(w io.Writer, root *Element, opts WriteOptions) error {
	data, err := Marshal(root, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal serializes root.
func Marshal(root *Element, opts WriteOptions) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("nil root element")
	}
	wr := &writer{
		opts:     opts,
		prefixes: map[string]string{XMLNamespace: "xml"},
		used:     map[string]bool{"xml": true, "xmlns": true},
	}
	wr.collect(root, root.Space)

	if opts.Declaration {
		wr.buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		wr.buf.WriteString("\n")
	}
	wr.element(root, root.Space, 0, false, true)
	wr.buf.WriteString("\n")
	return wr.buf.Bytes(), nil
}

func (wr *writer) collect(e *Element, defaultNS string) {
	if e.Space != defaultNS && e.Space != "" {
		wr.declare(e.Space, e.Prefix)
	}
	for _, a := range e.Attrs {
		if a.Space != "" {
			wr.declare(a.Space, a.Prefix)
		}
	}
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			wr.collect(el, defaultNS)
		}
	}
}

func (wr *writer) declare(uri, hint string) {
	if _, ok := wr.prefixes[uri]; ok {
		return
	}
	prefix := wr.opts.Prefixes[uri]
	if prefix == "" || wr.used[prefix] {
		prefix = hint
	}
	for i := 1; prefix == "" || wr.used[prefix]; i++ {
		prefix = fmt.Sprintf("ns%d", i)
	}
	wr.prefixes[uri] = prefix
	wr.used[prefix] = true
	wr.decls = append(wr.decls, nsDecl{prefix: prefix, uri: uri})
}

func (wr *writer) qname(space, name, defaultNS string) string {
	if space == defaultNS {
		return name
	}
	return wr.prefixes[space] + ":" + name
}

func (wr *writer) attrName(a WAttr) string {
	if a.Space == "" {
		return a.Name
	}
	return wr.prefixes[a.Space] + ":" + a.Name
}

func (wr *writer) element(e *Element, defaultNS string, depth int, inline, root bool) {
	b := &wr.buf
	if !inline && !root && wr.opts.Indent != "" {
		b.WriteString("\n")
		b.WriteString(strings.Repeat(wr.opts.Indent, depth))
	}

	b.WriteString("<")
	space := e.Space
	if space == "" && defaultNS != "" {
		b.WriteString(e.Name)
		b.WriteString(` xmlns=""`)
		defaultNS = ""
	} else {
		b.WriteString(wr.qname(space, e.Name, defaultNS))
	}
	if root {
		if e.Space != "" {
			writeAttr(b, "xmlns", e.Space)
		}
		for _, d := range wr.decls {
			writeAttr(b, "xmlns:"+d.prefix, d.uri)
		}
	}
	for _, a := range e.Attrs {
		writeAttr(b, wr.attrName(a), a.Value)
	}

	if len(e.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteString(">")

	mixed := inline || e.Preserve || hasCharData(e)
	for _, c := range e.Children {
		switch v := c.(type) {
		case CharData:
			b.WriteString(encoding.EscapeXMLText(string(v)))
		case Comment:
			if !mixed && wr.opts.Indent != "" {
				b.WriteString("\n")
				b.WriteString(strings.Repeat(wr.opts.Indent, depth+1))
			}
			b.WriteString("<!--")
			b.WriteString(strings.ReplaceAll(string(v), "--", "- -"))
			b.WriteString("-->")
		case *Element:
			wr.element(v, defaultNS, depth+1, mixed, false)
		}
	}
	if !mixed && wr.opts.Indent != "" {
		b.WriteString("\n")
		b.WriteString(strings.Repeat(wr.opts.Indent, depth))
	}
	b.WriteString("</")
	if space == "" {
		b.WriteString(e.Name)
	} else {
		b.WriteString(wr.qname(space, e.Name, defaultNS))
	}
	b.WriteString(">")
}

func hasCharData(e *Element) bool {
	for _, c := range e.Children {
		if _, ok := c.(CharData); ok {
			return true
		}
	}
	return false
}

func writeAttr(b *bytes.Buffer, name, value string) {
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(encoding.EscapeXMLAttr(value))
	b.WriteString(`"`)
}
