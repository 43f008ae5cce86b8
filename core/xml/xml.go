// Package xml provides the XML plumbing shared by the XLIFF codecs:
// xmlquery parsing, a well-formedness check, namespace-aware attribute
// access, XPath probing and a namespace-aware element writer.
//
// Parsing goes through encoding/xml, which never fetches external entities
// and rejects entities a document declares in its DTD.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// XMLNamespace is the namespace bound to the reserved xml prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// ValidationError locates the first well-formedness error of a document.
type ValidationError struct {
	Line    int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader parses XML from r.
func ParseReader(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Validate checks that data is well-formed XML. It returns nil or a
// *ValidationError for the first error found.
func Validate(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			verr := &ValidationError{Message: err.Error()}
			if se, ok := err.(*xml.SyntaxError); ok {
				verr.Line = se.Line
				verr.Message = se.Msg
			}
			return verr
		}
	}
}

// Root returns the document element, or nil.
func (d *Document) Root() *xmlquery.Node {
	if d == nil || d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}

// Eval evaluates an XPath expression and returns its string value. Node-set
// results yield the value of the first node.
func (d *Document) Eval(expr string) (string, error) {
	e, err := xpath.Compile(expr)
	if err != nil {
		return "", fmt.Errorf("invalid xpath: %w", err)
	}
	switch v := e.Evaluate(xmlquery.CreateXPathNavigator(d.root)).(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case *xpath.NodeIterator:
		if v.MoveNext() {
			return v.Current().Value(), nil
		}
	}
	return "", nil
}

// RootInfo describes the document element of an XML document.
type RootInfo struct {
	Name      string
	Namespace string
	Version   string
}

// Probe parses data and reports its document element and version attribute.
func Probe(data []byte) (RootInfo, error) {
	doc, err := Parse(data)
	if err != nil {
		return RootInfo{}, err
	}
	root := doc.Root()
	if root == nil {
		return RootInfo{}, fmt.Errorf("no document element")
	}
	version, err := doc.Eval("string(/*/@version)")
	if err != nil {
		return RootInfo{}, err
	}
	return RootInfo{Name: root.Data, Namespace: root.NamespaceURI, Version: version}, nil
}

// AttrSpace returns the namespace URI of an attribute, empty for
// unqualified attributes.
func AttrSpace(a xmlquery.Attr) string {
	switch {
	case a.Name.Space == "xml":
		return XMLNamespace
	case a.NamespaceURI != "":
		return a.NamespaceURI
	}
	return a.Name.Space
}

// IsNamespaceDecl reports whether a is an xmlns declaration.
func IsNamespaceDecl(a xmlquery.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

// Attr returns the value of the attribute (space, local) on n.
func Attr(n *xmlquery.Node, space, local string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Name.Local == local && !IsNamespaceDecl(a) && AttrSpace(a) == space {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue returns the attribute value or "".
func AttrValue(n *xmlquery.Node, space, local string) string {
	v, _ := Attr(n, space, local)
	return v
}

// Is reports whether n is an element named (space, local).
func Is(n *xmlquery.Node, space, local string) bool {
	return n != nil && n.Type == xmlquery.ElementNode && n.Data == local && n.NamespaceURI == space
}

// Elements returns the element children of n in document order.
func Elements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// ChildElement returns the first element child named (space, local), or nil.
func ChildElement(n *xmlquery.Node, space, local string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if Is(c, space, local) {
			return c
		}
	}
	return nil
}

// IsText reports whether n is character data.
func IsText(n *xmlquery.Node) bool {
	return n.Type == xmlquery.TextNode || n.Type == xmlquery.CharDataNode
}

// Text returns the concatenated character data of n's direct children.
func Text(n *xmlquery.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsText(c) {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// OtherAttrs returns the attributes of n not accepted by known, as
// passthrough attributes. Namespace declarations are never returned.
func OtherAttrs(n *xmlquery.Node, known func(space, local string) bool) []content.Attr {
	var out []content.Attr
	for _, a := range n.Attr {
		if IsNamespaceDecl(a) {
			continue
		}
		space := AttrSpace(a)
		if known != nil && known(space, a.Name.Local) {
			continue
		}
		out = append(out, content.Attr{
			Space:  space,
			Prefix: attrPrefix(a),
			Name:   a.Name.Local,
			Value:  a.Value,
		})
	}
	return out
}

func attrPrefix(a xmlquery.Attr) string {
	if a.Name.Space == "" || a.Name.Space == a.NamespaceURI || strings.Contains(a.Name.Space, ":") {
		return ""
	}
	return a.Name.Space
}

// ToExtension copies the subtree rooted at n into a passthrough Extension.
// Whitespace-only text between child elements is dropped.
func ToExtension(n *xmlquery.Node) *content.Extension {
	if IsText(n) {
		return &content.Extension{Text: n.Data}
	}
	ext := &content.Extension{
		Space:  n.NamespaceURI,
		Prefix: n.Prefix,
		Name:   n.Data,
		Attrs:  OtherAttrs(n, nil),
	}
	elementOnly := hasElementChild(n) && strings.TrimSpace(Text(n)) == ""
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == xmlquery.ElementNode:
			ext.Children = append(ext.Children, ToExtension(c))
		case IsText(c) && !elementOnly:
			ext.Children = append(ext.Children, &content.Extension{Text: c.Data})
		}
	}
	return ext
}

func hasElementChild(n *xmlquery.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return true
		}
	}
	return false
}
