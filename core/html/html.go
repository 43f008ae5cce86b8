// Package html extracts translatable text from HTML documents and writes
// translated text back into them.
//
// Extraction walks the parsed tree and emits one coded.Content per text
// unit. Each content carries a Locator string as its reference. Inline
// markup inside a unit becomes codes; block content nested in inline
// context, and translatable attributes of inline elements, become separate
// sub-flow contents reached through the code that holds them.
//
// Reinjection parses the same source again, resolves every locator and
// replaces the addressed attribute value or inner markup. A locator that no
// longer resolves fails with MalformedReferenceError.
package html

import (
	"bytes"
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/errors"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RoundTripMarker in an element's name attribute marks elements written by
// this package; their attributes are not extracted.
const RoundTripMarker = "polyglot-"

// TranslatableAttrs lists the attributes extracted as their own units, in
// extraction order.
var TranslatableAttrs = []string{"alt", "title", "content", "placeholder"}

// inlineElements are flattened into the enclosing unit as codes.
var inlineElements = map[string]bool{
	"a": true, "abbr": true, "acronym": true, "b": true, "bdi": true, "bdo": true,
	"big": true, "br": true, "button": true, "cite": true, "code": true, "data": true,
	"del": true, "dfn": true, "em": true, "font": true, "i": true, "img": true,
	"input": true, "ins": true, "kbd": true, "label": true, "mark": true, "q": true,
	"rp": true, "rt": true, "ruby": true, "s": true, "samp": true, "small": true,
	"span": true, "strike": true, "strong": true, "sub": true, "sup": true,
	"time": true, "tt": true, "u": true, "var": true, "wbr": true,
}

// voidElements never have content and are written as "<name/>".
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "keygen": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// skippedElements are never extracted and never suppress their siblings.
var skippedElements = map[string]bool{
	"script": true, "style": true, "template": true, "noscript": true,
}

// Document is a parsed HTML source. Fragments are held under a synthetic
// body element that serves as the root.
type Document struct {
	root     *xhtml.Node
	fragment bool
}

// Parse parses src. Sources containing an <html tag are parsed as full
// documents; anything else as a body fragment.
func Parse(src string) (*Document, error) {
	if strings.Contains(strings.ToLower(src), "<html") {
		root, err := xhtml.Parse(strings.NewReader(src))
		if err != nil {
			return nil, errors.NewParse("HTML", err.Error(), err)
		}
		return &Document{root: root}, nil
	}

	body := &xhtml.Node{Type: xhtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := xhtml.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, errors.NewParse("HTML", err.Error(), err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return &Document{root: body, fragment: true}, nil
}

// Root returns the root node: the document node, or the synthetic body of
// a fragment.
func (d *Document) Root() *xhtml.Node {
	return d.root
}

// IsFragment reports whether the source was parsed as a fragment.
func (d *Document) IsFragment() bool {
	return d.fragment
}

// Resolve returns the element addressed by loc. The attribute part, if
// any, must exist on the element.
func (d *Document) Resolve(loc Locator) (*xhtml.Node, error) {
	return loc.resolve(d.root)
}

// Render serializes the document. Fragments render without the synthetic
// root.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if !d.fragment {
		if err := xhtml.Render(&buf, d.root); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := xhtml.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func attr(n *xhtml.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *xhtml.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, xhtml.Attribute{Key: name, Val: value})
}

// skipped reports whether n and its subtree are left untouched.
func skipped(n *xhtml.Node) bool {
	if n.Type != xhtml.ElementNode {
		return false
	}
	if skippedElements[n.Data] {
		return true
	}
	v, _ := attr(n, "translate")
	return strings.EqualFold(v, "no")
}

func isInline(n *xhtml.Node) bool {
	return n.Type == xhtml.ElementNode && inlineElements[n.Data]
}

// marked reports whether n carries the round-trip marker.
func marked(n *xhtml.Node) bool {
	v, _ := attr(n, "name")
	return strings.Contains(v, RoundTripMarker)
}

// startTag renders the start tag of n the way the renderer writes it.
func startTag(n *xhtml.Node) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteString(" ")
		if a.Namespace != "" {
			b.WriteString(a.Namespace)
			b.WriteString(":")
		}
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(xhtml.EscapeString(a.Val))
		b.WriteString(`"`)
	}
	if voidElements[n.Data] {
		b.WriteString("/>")
	} else {
		b.WriteString(">")
	}
	return b.String()
}

func endTag(n *xhtml.Node) string {
	return "</" + n.Data + ">"
}

// outer renders n with its subtree.
func outer(n *xhtml.Node) string {
	var buf bytes.Buffer
	if err := xhtml.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// codeType classifies an inline element for the Type of its code.
func codeType(tag string) string {
	switch tag {
	case "a":
		return "link"
	case "img":
		return "image"
	case "button", "input", "label":
		return "ui"
	case "br", "wbr":
		return "other"
	}
	return "fmt"
}
