package html

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	xhtml "golang.org/x/net/html"
)

// Locator addresses an element, or one of its attributes, in a parsed
// document. Steps are resolved from the document root; each step selects
// the Index-th child element (1-based) named Tag.
type Locator struct {
	Steps []Step
	// Attr names an attribute of the selected element, empty for its body.
	Attr string
}

// Step is one path component of a Locator.
type Step struct {
	Tag   string
	Index int
}

// locatorGrammar is the participle grammar for locators.
// Examples: "/", "/p[2]", "/html[1]/body[1]/div[1]/img[1]@alt"
//
//nolint:govet // participle grammar tags are not standard struct tags
type locatorGrammar struct {
	Steps []*stepGrammar `"/" ( @@ ( "/" @@ )* )?`
	Attr  *string        `( "@" @Name )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type stepGrammar struct {
	Tag   string `@Name`
	Index int    `"[" @Int "]"`
}

var locatorLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Name", Pattern: `[A-Za-z_][-A-Za-z0-9_:.]*`},
	{Name: "Punct", Pattern: `[/\[\]@]`},
})

var locatorParser = participle.MustBuild[locatorGrammar](
	participle.Lexer(locatorLexer),
)

// ParseLocator parses a locator string.
func ParseLocator(s string) (*Locator, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty locator")
	}
	parsed, err := locatorParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid locator %q: %w", s, err)
	}

	loc := &Locator{}
	for _, st := range parsed.Steps {
		if st.Index < 1 {
			return nil, fmt.Errorf("invalid locator %q: index of %s must be at least 1", s, st.Tag)
		}
		loc.Steps = append(loc.Steps, Step{Tag: strings.ToLower(st.Tag), Index: st.Index})
	}
	if parsed.Attr != nil {
		loc.Attr = *parsed.Attr
	}
	return loc, nil
}

// String returns the canonical form of the locator.
func (l Locator) String() string {
	var b strings.Builder
	for _, st := range l.Steps {
		b.WriteString("/")
		b.WriteString(st.Tag)
		b.WriteString("[")
		b.WriteString(strconv.Itoa(st.Index))
		b.WriteString("]")
	}
	if b.Len() == 0 {
		b.WriteString("/")
	}
	if l.Attr != "" {
		b.WriteString("@")
		b.WriteString(l.Attr)
	}
	return b.String()
}

// Child returns the locator of the index-th child element named tag.
func (l Locator) Child(tag string, index int) Locator {
	steps := make([]Step, len(l.Steps), len(l.Steps)+1)
	copy(steps, l.Steps)
	return Locator{Steps: append(steps, Step{Tag: tag, Index: index})}
}

// WithAttr returns the locator of attribute name on the same element.
func (l Locator) WithAttr(name string) Locator {
	return Locator{Steps: l.Steps, Attr: name}
}

// Element returns the locator with any attribute part removed.
func (l Locator) Element() Locator {
	return Locator{Steps: l.Steps}
}

// resolve walks the locator steps from root.
func (l Locator) resolve(root *xhtml.Node) (*xhtml.Node, error) {
	n := root
	for depth, st := range l.Steps {
		next := nthChild(n, st.Tag, st.Index)
		if next == nil {
			return nil, fmt.Errorf("no <%s> number %d at depth %d", st.Tag, st.Index, depth+1)
		}
		n = next
	}
	if l.Attr != "" {
		if _, ok := attr(n, l.Attr); !ok {
			return nil, fmt.Errorf("element has no attribute %q", l.Attr)
		}
	}
	return n, nil
}

func nthChild(n *xhtml.Node, tag string, index int) *xhtml.Node {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.ElementNode && c.Data == tag {
			count++
			if count == index {
				return c
			}
		}
	}
	return nil
}

// siblingIndex returns the 1-based position of n among its parent's child
// elements of the same name.
func siblingIndex(n *xhtml.Node) int {
	i := 1
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		if c.Type == xhtml.ElementNode && c.Data == n.Data {
			i++
		}
	}
	return i
}
