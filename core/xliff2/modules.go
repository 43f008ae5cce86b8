package xliff2

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/encoding"
	pxml "github.com/FocuswithJustin/Polyglot/core/xml"
	"github.com/antchfx/xmlquery"
)

// Module attribute tables. Each entry binds an attribute name to a field.

var provenanceAttrs = []struct {
	name  string
	field func(*content.Provenance) *string
}{
	{"person", func(p *content.Provenance) *string { return &p.Person }},
	{"personRef", func(p *content.Provenance) *string { return &p.PersonRef }},
	{"org", func(p *content.Provenance) *string { return &p.Org }},
	{"orgRef", func(p *content.Provenance) *string { return &p.OrgRef }},
	{"tool", func(p *content.Provenance) *string { return &p.Tool }},
	{"toolRef", func(p *content.Provenance) *string { return &p.ToolRef }},
	{"revPerson", func(p *content.Provenance) *string { return &p.RevPerson }},
	{"revPersonRef", func(p *content.Provenance) *string { return &p.RevPersonRef }},
	{"revOrg", func(p *content.Provenance) *string { return &p.RevOrg }},
	{"revOrgRef", func(p *content.Provenance) *string { return &p.RevOrgRef }},
	{"revTool", func(p *content.Provenance) *string { return &p.RevTool }},
	{"revToolRef", func(p *content.Provenance) *string { return &p.RevToolRef }},
	{"provenanceRecordsRef", func(p *content.Provenance) *string { return &p.ProvRef }},
}

var qualityAttrs = []struct {
	name  string
	field func(*content.Quality) *string
}{
	{"locQualityRatingScore", func(q *content.Quality) *string { return &q.RatingScore }},
	{"locQualityRatingScoreThreshold", func(q *content.Quality) *string { return &q.RatingScoreThreshold }},
	{"locQualityRatingVote", func(q *content.Quality) *string { return &q.RatingVote }},
	{"locQualityRatingVoteThreshold", func(q *content.Quality) *string { return &q.RatingVoteThreshold }},
	{"locQualityRatingProfileRef", func(q *content.Quality) *string { return &q.RatingProfileRef }},
	{"mtConfidence", func(q *content.Quality) *string { return &q.MTConfidence }},
}

var sizeAttrs = []struct {
	name  string
	field func(*content.SizeRestrictions) *string
}{
	{"storageRestriction", func(s *content.SizeRestrictions) *string { return &s.StorageRestriction }},
	{"sizeRestriction", func(s *content.SizeRestrictions) *string { return &s.SizeRestriction }},
	{"equivStorage", func(s *content.SizeRestrictions) *string { return &s.EquivStorage }},
	{"sizeInfo", func(s *content.SizeRestrictions) *string { return &s.SizeInfo }},
	{"sizeInfoRef", func(s *content.SizeRestrictions) *string { return &s.SizeInfoRef }},
}

// isModuleAttr reports whether (space, local) is interpreted by readModules.
func isModuleAttr(space, local string) bool {
	switch space {
	case NamespaceFormatStyle:
		return local == "fs" || local == "subFs"
	case NamespaceITS:
		for _, a := range provenanceAttrs {
			if a.name == local {
				return true
			}
		}
		for _, a := range qualityAttrs {
			if a.name == local {
				return true
			}
		}
	case NamespaceSizeRestriction:
		for _, a := range sizeAttrs {
			if a.name == local {
				return true
			}
		}
	}
	return false
}

// readModules fills the module records of node from attributes of n.
func readModules(n *xmlquery.Node, node *content.Node) {
	var prov content.Provenance
	for _, a := range provenanceAttrs {
		*a.field(&prov) = pxml.AttrValue(n, NamespaceITS, a.name)
	}
	if !prov.IsZero() {
		node.Provenance = &prov
	}

	var q content.Quality
	for _, a := range qualityAttrs {
		*a.field(&q) = pxml.AttrValue(n, NamespaceITS, a.name)
	}
	if !q.IsZero() {
		node.Quality = &q
	}

	var sr content.SizeRestrictions
	for _, a := range sizeAttrs {
		*a.field(&sr) = pxml.AttrValue(n, NamespaceSizeRestriction, a.name)
	}
	if !sr.IsZero() {
		node.SizeRestrictions = &sr
	}

	node.FormatStyle = readFormatStyle(n)
}

func readFormatStyle(n *xmlquery.Node) *content.FormatStyle {
	name, ok := pxml.Attr(n, NamespaceFormatStyle, "fs")
	if !ok {
		return nil
	}
	return &content.FormatStyle{
		Name:       name,
		Attributes: parseSubFs(pxml.AttrValue(n, NamespaceFormatStyle, "subFs")),
	}
}

// writeModules writes the module records of node onto el.
func (e *encoder) writeModules(el *pxml.Element, node *content.Node) {
	if !node.Provenance.IsZero() {
		for _, a := range provenanceAttrs {
			e.setITS(el, a.name, *a.field(node.Provenance))
		}
	}
	if !node.Quality.IsZero() {
		for _, a := range qualityAttrs {
			e.setITS(el, a.name, *a.field(node.Quality))
		}
	}
	if !node.SizeRestrictions.IsZero() {
		for _, a := range sizeAttrs {
			el.SetNS(NamespaceSizeRestriction, a.name, clean(*a.field(node.SizeRestrictions)))
		}
	}
	writeFormatStyle(el, node.FormatStyle)
}

func (e *encoder) setITS(el *pxml.Element, name, value string) {
	if value == "" {
		return
	}
	e.usesITS = true
	el.SetNS(NamespaceITS, name, clean(value))
}

func writeFormatStyle(el *pxml.Element, fs *content.FormatStyle) {
	if fs == nil || fs.Name == "" {
		return
	}
	el.SetNS(NamespaceFormatStyle, "fs", clean(fs.Name))
	el.SetNS(NamespaceFormatStyle, "subFs", clean(formatSubFs(fs.Attributes)))
}

// parseSubFs decodes "name,value\name,value". A backslash escapes a comma
// or a backslash; a lone backslash separates pairs.
func parseSubFs(s string) []content.StyleAttr {
	if s == "" {
		return nil
	}
	var out []content.StyleAttr
	var field strings.Builder
	var name string
	haveName := false
	flush := func() {
		if haveName {
			out = append(out, content.StyleAttr{Name: name, Value: field.String()})
		} else if field.Len() > 0 {
			out = append(out, content.StyleAttr{Name: field.String()})
		}
		field.Reset()
		haveName = false
	}
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes) && (runes[i+1] == ',' || runes[i+1] == '\\'):
			field.WriteRune(runes[i+1])
			i++
		case r == '\\':
			flush()
		case r == ',' && !haveName:
			name = field.String()
			field.Reset()
			haveName = true
		default:
			field.WriteRune(r)
		}
	}
	flush()
	return out
}

func formatSubFs(attrs []content.StyleAttr) string {
	esc := strings.NewReplacer(`\`, `\\`, `,`, `\,`)
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, esc.Replace(a.Name)+","+esc.Replace(a.Value))
	}
	return strings.Join(parts, `\`)
}

// readNotes appends the notes of a <notes> element.
func readNotes(n *xmlquery.Node, ns string) []content.Note {
	var notes []content.Note
	for _, c := range pxml.Elements(n) {
		if !pxml.Is(c, ns, "note") {
			continue
		}
		note := content.Note{
			ID:        pxml.AttrValue(c, "", "id"),
			Text:      pxml.Text(c),
			Category:  pxml.AttrValue(c, "", "category"),
			AppliesTo: pxml.AttrValue(c, "", "appliesTo"),
			Other: pxml.OtherAttrs(c, func(space, local string) bool {
				return space == "" && (local == "id" || local == "category" || local == "appliesTo" || local == "priority")
			}),
		}
		if p, err := strconv.Atoi(pxml.AttrValue(c, "", "priority")); err == nil {
			note.Priority = p
		}
		notes = append(notes, note)
	}
	return notes
}

// noteCategoryAttr holds the category a package-scope note had before it
// was marked global.
const noteCategoryAttr = "category"

// globalNote marks a note read at package scope as global.
func globalNote(n content.Note) content.Note {
	if n.IsGlobal() {
		return n
	}
	if n.Category != "" {
		n.Other = append(append([]content.Attr(nil), n.Other...), content.Attr{
			Space:  content.ExtensionNamespace,
			Prefix: content.ExtensionPrefix,
			Name:   noteCategoryAttr,
			Value:  n.Category,
		})
	}
	n.Category = content.GlobalCategory
	return n
}

// packageNote is the inverse of globalNote.
func packageNote(n content.Note) content.Note {
	n.Category = ""
	var other []content.Attr
	for _, a := range n.Other {
		if a.Space == content.ExtensionNamespace && a.Name == noteCategoryAttr {
			n.Category = a.Value
			continue
		}
		other = append(other, a)
	}
	n.Other = other
	return n
}

// globalCategory returns the category path of metadata read at package
// scope.
func globalCategory(m content.Metadata) []string {
	if m.IsGlobal() {
		return m.Category
	}
	return append([]string{content.GlobalCategory}, m.Category...)
}

func writeNotes(parent *pxml.Element, ns string, notes []content.Note) {
	if len(notes) == 0 {
		return
	}
	el := parent.Elem(ns, "notes")
	for _, note := range notes {
		n := el.Elem(ns, "note")
		n.Set("id", clean(note.ID))
		n.Set("category", clean(note.Category))
		if note.Priority > 0 {
			n.Set("priority", strconv.Itoa(note.Priority))
		}
		n.Set("appliesTo", note.AppliesTo)
		n.AddAttrs(note.Other)
		n.AddText(clean(note.Text))
	}
}

// readMetadata flattens an mda:metadata tree into (category, type, value)
// triples on node. A metaGroup without a category does not extend the path.
func readMetadata(n *xmlquery.Node, node *content.Node) {
	var walk func(g *xmlquery.Node, path []string)
	walk = func(g *xmlquery.Node, path []string) {
		for _, c := range pxml.Elements(g) {
			switch {
			case pxml.Is(c, NamespaceMetadata, "metaGroup"):
				p := path
				if cat, ok := pxml.Attr(c, "", "category"); ok {
					p = append(append([]string(nil), path...), cat)
				}
				walk(c, p)
			case pxml.Is(c, NamespaceMetadata, "meta"):
				node.SetMetadata(path, pxml.AttrValue(c, "", "type"), pxml.Text(c))
			}
		}
	}
	walk(n, nil)
}

// metaTree is a category node; items keep first-seen order of entries and
// sub-categories.
type metaTree struct {
	name  string
	items []metaItem
}

type metaItem struct {
	entry *content.Metadata
	tree  *metaTree
}

func (t *metaTree) child(name string) *metaTree {
	for _, it := range t.items {
		if it.tree != nil && it.tree.name == name {
			return it.tree
		}
	}
	c := &metaTree{name: name}
	t.items = append(t.items, metaItem{tree: c})
	return c
}

// writeMetadata folds flat triples into nested metaGroups, creating
// intermediate groups on demand. Entries without a category go into a
// metaGroup without a category attribute.
func writeMetadata(parent *pxml.Element, entries []content.Metadata) {
	if len(entries) == 0 {
		return
	}
	root := &metaTree{}
	for i := range entries {
		t := root
		for _, cat := range entries[i].Category {
			t = t.child(cat)
		}
		t.items = append(t.items, metaItem{entry: &entries[i]})
	}

	md := parent.Elem(NamespaceMetadata, "metadata")
	var plain *pxml.Element
	for _, it := range root.items {
		if it.tree != nil {
			plain = nil
			writeMetaGroup(md, it.tree)
			continue
		}
		if plain == nil {
			plain = md.Elem(NamespaceMetadata, "metaGroup")
		}
		writeMeta(plain, it.entry)
	}
}

func writeMetaGroup(parent *pxml.Element, t *metaTree) {
	g := parent.Elem(NamespaceMetadata, "metaGroup")
	g.Set("category", clean(t.name))
	for _, it := range t.items {
		if it.tree != nil {
			writeMetaGroup(g, it.tree)
		} else {
			writeMeta(g, it.entry)
		}
	}
}

func writeMeta(g *pxml.Element, m *content.Metadata) {
	meta := g.Elem(NamespaceMetadata, "meta")
	meta.Set("type", clean(m.Type))
	meta.AddText(clean(m.Value))
}

// clean drops characters that cannot appear in XML outside inline content.
func clean(s string) string {
	return encoding.StripInvalidXML(s)
}
