package html

import (
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/coded"
	"github.com/FocuswithJustin/Polyglot/core/errors"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
	xhtml "golang.org/x/net/html"
)

// Assemble returns the coded text of c as HTML markup: text is escaped and
// codes are written literally.
func Assemble(c *coded.Content) string {
	var b strings.Builder
	for _, p := range c.Parts {
		switch v := p.(type) {
		case coded.Text:
			b.WriteString(xhtml.EscapeString(string(v)))
		case *coded.Code:
			b.WriteString(v.Data)
		}
	}
	return b.String()
}

// Reinject parses src, writes every content back at its reference and
// returns the rendered result. Sub-flow contents are written through the
// code that references them.
func Reinject(src string, contents []*coded.Content) (string, error) {
	doc, err := Parse(src)
	if err != nil {
		return "", err
	}
	if err := doc.Reinject(contents); err != nil {
		return "", err
	}
	return doc.Render()
}

// Reinject writes contents into the document in place.
func (d *Document) Reinject(contents []*coded.Content) error {
	r := &reinjector{doc: d, done: make(map[*coded.Content]bool)}
	for _, c := range contents {
		if c.SubFlow {
			continue
		}
		if err := r.apply(c); err != nil {
			return err
		}
	}
	logging.Debug("reinjected html", "units", len(r.done))
	return nil
}

// reinjector holds the state of one Reinject call.
type reinjector struct {
	doc  *Document
	done map[*coded.Content]bool
}

func (r *reinjector) resolve(ref string) (*xhtml.Node, *Locator, error) {
	loc, err := ParseLocator(ref)
	if err != nil {
		return nil, nil, &errors.MalformedReferenceError{Reference: ref, Reason: "cannot parse locator", Err: err}
	}
	n, err := r.doc.Resolve(*loc)
	if err != nil {
		return nil, nil, &errors.MalformedReferenceError{Reference: ref, Reason: err.Error(), Err: err}
	}
	return n, loc, nil
}

func (r *reinjector) apply(c *coded.Content) error {
	if r.done[c] {
		return nil
	}
	r.done[c] = true

	n, loc, err := r.resolve(c.Reference)
	if err != nil {
		return err
	}
	if loc.Attr != "" {
		setAttr(n, loc.Attr, c.Literal())
		return nil
	}
	if n.Type != xhtml.ElementNode {
		return errors.NewMalformedReference(c.Reference, "reference does not address an element")
	}

	markup, err := r.assemble(c)
	if err != nil {
		return err
	}
	nodes, err := xhtml.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return errors.NewParse("HTML", err.Error(), err)
	}
	for ch := n.FirstChild; ch != nil; ch = n.FirstChild {
		n.RemoveChild(ch)
	}
	for _, ch := range nodes {
		n.AppendChild(ch)
	}
	return nil
}

// assemble is Assemble with codes holding sub-flows rebuilt from the
// document after their sub-flows have been written.
func (r *reinjector) assemble(c *coded.Content) (string, error) {
	var b strings.Builder
	for _, p := range c.Parts {
		switch v := p.(type) {
		case coded.Text:
			b.WriteString(xhtml.EscapeString(string(v)))
		case *coded.Code:
			if len(v.SubFlows) == 0 || v.Kind == coded.Closing {
				b.WriteString(v.Data)
				continue
			}
			literal, err := r.rebuild(v)
			if err != nil {
				return "", err
			}
			b.WriteString(literal)
		}
	}
	return b.String(), nil
}

// rebuild writes the sub-flows of code into the element that owns them and
// renders that element again. Opening codes and void elements render as a
// start tag; any other placeholder stands for the whole element.
func (r *reinjector) rebuild(code *coded.Code) (string, error) {
	var owner *xhtml.Node
	for _, sf := range code.SubFlows {
		n, _, err := r.resolve(sf.Reference)
		if err != nil {
			return "", err
		}
		if owner == nil {
			owner = n
		}
		if err := r.apply(sf); err != nil {
			return "", err
		}
	}
	if code.Kind == coded.Opening || voidElements[owner.Data] {
		return startTag(owner), nil
	}
	return outer(owner), nil
}
