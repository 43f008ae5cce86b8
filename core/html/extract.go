package html

import (
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/coded"
	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
	xhtml "golang.org/x/net/html"
)

// Extract parses src and returns its text units in document order.
func Extract(src string) ([]*coded.Content, error) {
	doc, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return doc.Extract(), nil
}

// Extract returns the text units of the document in document order. A
// content that owns sub-flows is followed by them.
func (d *Document) Extract() []*coded.Content {
	x := &extractor{}
	x.node(d.root, Locator{})
	logging.Debug("extracted html", "units", len(x.out), "fragment", d.fragment)
	return x.out
}

type extractor struct {
	out []*coded.Content
}

// node applies the boundary rule: n becomes a unit once it has text of its
// own, counting inline descendants; otherwise its children are visited.
func (x *extractor) node(n *xhtml.Node, loc Locator) {
	if skipped(n) {
		return
	}
	if n.Type == xhtml.ElementNode {
		x.out = append(x.out, attrUnits(n, loc, false)...)
	}

	if hasText(n) {
		c := &coded.Content{Reference: loc.String()}
		var subs []*coded.Content
		flatten(n, loc, c, &subs)
		c.TrimSpace()
		x.out = append(x.out, c)
		x.out = append(x.out, subs...)
		return
	}

	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == xhtml.ElementNode {
			x.node(ch, loc.Child(ch.Data, siblingIndex(ch)))
		}
	}
}

// attrUnits returns one unit per non-blank translatable attribute of n.
func attrUnits(n *xhtml.Node, loc Locator, subFlow bool) []*coded.Content {
	if marked(n) {
		return nil
	}
	var out []*coded.Content
	for _, name := range TranslatableAttrs {
		v, ok := attr(n, name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		c := &coded.Content{Reference: loc.WithAttr(name).String(), SubFlow: subFlow}
		c.AddText(v)
		out = append(out, c)
	}
	return out
}

// hasText reports whether n holds non-whitespace text directly or through
// inline descendants.
func hasText(n *xhtml.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == xhtml.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return true
			}
		case isInline(c) && !skipped(c):
			if hasText(c) {
				return true
			}
		}
	}
	return false
}

// flatten appends the children of n to c. Inline elements become codes;
// block elements become placeholders whose content is a sub-flow.
func flatten(n *xhtml.Node, loc Locator, c *coded.Content, subs *[]*coded.Content) {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.Type {
		case xhtml.TextNode:
			c.AddText(ch.Data)
			continue
		case xhtml.CommentNode:
			code := c.Placeholder("<!--" + ch.Data + "-->")
			code.Type = "other"
			continue
		case xhtml.ElementNode:
		default:
			continue
		}

		if skipped(ch) {
			code := c.Placeholder(outer(ch))
			code.Type = "other"
			continue
		}

		childLoc := loc.Child(ch.Data, siblingIndex(ch))
		attrs := attrUnits(ch, childLoc, true)
		*subs = append(*subs, attrs...)

		switch {
		case isInline(ch) && voidElements[ch.Data]:
			code := c.Placeholder(startTag(ch))
			code.Type = codeType(ch.Data)
			code.Style = formatStyle(ch)
			code.SubFlows = attrs

		case isInline(ch):
			open := c.Open(startTag(ch), formatStyle(ch))
			open.Type = codeType(ch.Data)
			open.SubFlows = attrs
			flatten(ch, childLoc, c, subs)
			c.Close(open, endTag(ch))

		default:
			sf := &coded.Content{Reference: childLoc.String(), SubFlow: true}
			var nested []*coded.Content
			flatten(ch, childLoc, sf, &nested)
			sf.TrimSpace()

			code := c.Placeholder(outer(ch))
			code.Type = "other"
			code.Style = formatStyle(ch)
			code.SubFlows = attrs
			if len(sf.Parts) > 0 {
				code.SubFlows = append(code.SubFlows, sf)
				*subs = append(*subs, sf)
			}
			*subs = append(*subs, nested...)
		}
	}
}

func formatStyle(n *xhtml.Node) *content.FormatStyle {
	fs := &content.FormatStyle{Name: n.Data}
	for _, a := range n.Attr {
		name := a.Key
		if a.Namespace != "" {
			name = a.Namespace + ":" + a.Key
		}
		fs.Attributes = append(fs.Attributes, content.StyleAttr{Name: name, Value: a.Val})
	}
	return fs
}
