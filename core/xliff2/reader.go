package xliff2

import (
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/errors"
	pxml "github.com/FocuswithJustin/Polyglot/core/xml"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
	"github.com/antchfx/xmlquery"
)

// Unmarshal decodes an XLIFF 2.x document.
func Unmarshal(data []byte) (*Package, error) {
	doc, err := pxml.Parse(data)
	if err != nil {
		return nil, errors.NewParse("XLIFF 2", err.Error(), err)
	}
	return decodeDocument(doc)
}

// Decode reads and decodes an XLIFF 2.x document from r.
func Decode(r io.Reader) (*Package, error) {
	doc, err := pxml.ParseReader(r)
	if err != nil {
		return nil, errors.NewParse("XLIFF 2", err.Error(), err)
	}
	return decodeDocument(doc)
}

// decoder holds the state of one Unmarshal call.
type decoder struct {
	version Version
	ns      string
	srcLang string
	trgLang string
}

// pendingFlow is a sub-flow reference resolved once the whole file is read.
type pendingFlow struct {
	tag *content.Tag
	ids []string
	// attr names the attribute the references came from, used to keep
	// unresolved references as passthrough.
	attr string
}

type fileState struct {
	units   map[string]*content.Unit
	pending []pendingFlow
}

func decodeDocument(doc *pxml.Document) (*Package, error) {
	root := doc.Root()
	if root == nil || root.Data != "xliff" {
		return nil, errors.NewUnsupportedFormat("xml", "document element is not <xliff>")
	}
	if root.NamespaceURI != NamespaceCore20 && root.NamespaceURI != NamespaceCore22 {
		return nil, errors.NewUnsupportedFormat("xliff", "unknown namespace "+root.NamespaceURI)
	}
	raw, ok := pxml.Attr(root, "", "version")
	if !ok {
		return nil, errors.NewRequiredAttribute("xliff", "version", 0)
	}
	version, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		version: version,
		ns:      root.NamespaceURI,
		srcLang: pxml.AttrValue(root, "", "srcLang"),
		trgLang: pxml.AttrValue(root, "", "trgLang"),
	}
	inherited := whitespaceOf(root, content.WhitespaceDefault)

	var global content.Node
	pkg := &Package{Version: version}
	for _, c := range pxml.Elements(root) {
		switch {
		case pxml.Is(c, d.ns, "file"):
			f, err := d.readFile(c, inherited)
			if err != nil {
				return nil, err
			}
			pkg.Files = append(pkg.Files, f)
		case version.AtLeast(Version22) && pxml.Is(c, d.ns, "notes"):
			for _, note := range readNotes(c, d.ns) {
				global.Notes = append(global.Notes, globalNote(note))
			}
		case version.AtLeast(Version22) && pxml.Is(c, NamespaceMetadata, "metadata"):
			var scope content.Node
			readMetadata(c, &scope)
			for _, m := range scope.Metadata {
				global.SetMetadata(globalCategory(m), m.Type, m.Value)
			}
		}
	}

	// Package-scope entries come first; file entries win on conflict.
	for _, f := range pkg.Files {
		var merged content.Node
		for _, note := range global.Notes {
			if !hasNote(f.Notes, note) {
				merged.AddNote(note)
			}
		}
		f.Notes = append(merged.Notes, f.Notes...)
		for _, m := range global.Metadata {
			merged.SetMetadata(m.Category, m.Type, m.Value)
		}
		for _, m := range f.Metadata {
			merged.SetMetadata(m.Category, m.Type, m.Value)
		}
		f.Metadata = merged.Metadata
	}
	logging.Debug("decoded xliff", "version", string(version), "files", len(pkg.Files))
	return pkg, nil
}

func hasNote(notes []content.Note, note content.Note) bool {
	for _, n := range notes {
		if n.ID == note.ID && n.Text == note.Text && n.Category == note.Category &&
			n.Priority == note.Priority && n.AppliesTo == note.AppliesTo {
			return true
		}
	}
	return false
}

func whitespaceOf(n *xmlquery.Node, inherited content.Whitespace) content.Whitespace {
	switch pxml.AttrValue(n, pxml.XMLNamespace, "space") {
	case "preserve":
		return content.WhitespacePreserve
	case "default":
		return content.WhitespaceDefault
	}
	return inherited
}

func explicitWhitespace(n *xmlquery.Node) content.Whitespace {
	return whitespaceOf(n, content.WhitespaceUnset)
}

// readNode reads the attributes shared by file, group and unit.
func (d *decoder) readNode(n *xmlquery.Node, node *content.Node, known map[string]bool) error {
	id, ok := pxml.Attr(n, "", "id")
	if !ok || id == "" {
		return errors.NewRequiredAttribute(n.Data, "id", 0)
	}
	node.ID = id
	node.CanResegment = content.ParseFlag(pxml.AttrValue(n, "", "canResegment"))
	node.Translate = content.ParseFlag(pxml.AttrValue(n, "", "translate"))
	node.SrcDir = content.Direction(pxml.AttrValue(n, "", "srcDir"))
	node.TrgDir = content.Direction(pxml.AttrValue(n, "", "trgDir"))
	node.Whitespace = explicitWhitespace(n)
	readModules(n, node)
	node.Other = pxml.OtherAttrs(n, func(space, local string) bool {
		switch space {
		case "":
			return known[local] || nodeAttrs[local]
		case pxml.XMLNamespace:
			return local == "space"
		case content.ExtensionNamespace:
			return known["poly:"+local]
		}
		return isModuleAttr(space, local)
	})
	return nil
}

var nodeAttrs = map[string]bool{
	"id": true, "canResegment": true, "translate": true, "srcDir": true, "trgDir": true,
}

// readNodeChild handles the children shared by file, group and unit.
// It returns false for elements the caller must handle itself.
func (d *decoder) readNodeChild(c *xmlquery.Node, node *content.Node) bool {
	switch {
	case pxml.Is(c, NamespaceMetadata, "metadata"):
		readMetadata(c, node)
	case pxml.Is(c, d.ns, "notes"):
		node.Notes = append(node.Notes, readNotes(c, d.ns)...)
	case c.NamespaceURI != d.ns:
		node.Extensions = append(node.Extensions, pxml.ToExtension(c))
	default:
		return false
	}
	return true
}

func (d *decoder) readFile(n *xmlquery.Node, inherited content.Whitespace) (*content.Transformation, error) {
	f := &content.Transformation{
		SourceLanguage: d.srcLang,
		TargetLanguage: d.trgLang,
	}
	err := d.readNode(n, &f.Node, map[string]bool{
		"original": true, "poly:srcLang": true, "poly:trgLang": true,
	})
	if err != nil {
		return nil, err
	}
	f.OriginalReference = pxml.AttrValue(n, "", "original")
	if v, ok := pxml.Attr(n, content.ExtensionNamespace, "srcLang"); ok {
		f.SourceLanguage = v
	}
	if v, ok := pxml.Attr(n, content.ExtensionNamespace, "trgLang"); ok {
		f.TargetLanguage = v
	}

	ws := whitespaceOf(n, inherited)
	fs := &fileState{units: make(map[string]*content.Unit)}
	for _, c := range pxml.Elements(n) {
		switch {
		case pxml.Is(c, d.ns, "skeleton"):
			f.SkeletonHref = pxml.AttrValue(c, "", "href")
			var text strings.Builder
			for k := c.FirstChild; k != nil; k = k.NextSibling {
				switch {
				case pxml.IsText(k):
					text.WriteString(k.Data)
				case k.Type == xmlquery.ElementNode:
					f.Skeleton = append(f.Skeleton, pxml.ToExtension(k))
				}
			}
			if len(f.Skeleton) == 0 || strings.TrimSpace(text.String()) != "" {
				f.Original = text.String()
			}
		case d.readNodeChild(c, &f.Node):
		default:
			child, err := d.readChild(c, ws, fs)
			if err != nil {
				return nil, err
			}
			if child != nil {
				f.Children = append(f.Children, child)
			}
		}
	}

	for _, p := range fs.pending {
		var unresolved []string
		for _, id := range p.ids {
			if u, ok := fs.units[id]; ok {
				p.tag.SubFlows = append(p.tag.SubFlows, u)
			} else {
				unresolved = append(unresolved, id)
			}
		}
		if len(unresolved) > 0 {
			logging.Debug("unresolved sub-flow reference", "file", f.ID, "ids", unresolved)
			p.tag.Other = append(p.tag.Other, content.Attr{Name: p.attr, Value: strings.Join(unresolved, " ")})
		}
	}
	return f, nil
}

// readChild reads a group or unit. Other core elements are ignored.
func (d *decoder) readChild(n *xmlquery.Node, ws content.Whitespace, fs *fileState) (content.UnitGrouping, error) {
	switch {
	case pxml.Is(n, d.ns, "group"):
		return d.readGroup(n, ws, fs)
	case pxml.Is(n, d.ns, "unit"):
		return d.readUnit(n, ws, fs)
	}
	return nil, nil
}

func (d *decoder) readGroup(n *xmlquery.Node, inherited content.Whitespace, fs *fileState) (*content.Group, error) {
	g := &content.Group{}
	if err := d.readNode(n, &g.Node, map[string]bool{"name": true, "type": true}); err != nil {
		return nil, err
	}
	g.Name = pxml.AttrValue(n, "", "name")
	g.Type = pxml.AttrValue(n, "", "type")

	ws := whitespaceOf(n, inherited)
	for _, c := range pxml.Elements(n) {
		if d.readNodeChild(c, &g.Node) {
			continue
		}
		child, err := d.readChild(c, ws, fs)
		if err != nil {
			return nil, err
		}
		if child != nil {
			g.Children = append(g.Children, child)
		}
	}
	return g, nil
}

func (d *decoder) readUnit(n *xmlquery.Node, inherited content.Whitespace, fs *fileState) (*content.Unit, error) {
	u := &content.Unit{}
	if err := d.readNode(n, &u.Node, map[string]bool{"name": true, "type": true}); err != nil {
		return nil, err
	}
	u.Name = pxml.AttrValue(n, "", "name")
	u.Type = pxml.AttrValue(n, "", "type")
	fs.units[u.ID] = u

	data := map[string]string{}
	if od := pxml.ChildElement(n, d.ns, "originalData"); od != nil {
		for _, c := range pxml.Elements(od) {
			if pxml.Is(c, d.ns, "data") {
				data[pxml.AttrValue(c, "", "id")] = d.inlineText(c)
			}
		}
	}

	ws := whitespaceOf(n, inherited)
	for _, c := range pxml.Elements(n) {
		switch {
		case pxml.Is(c, d.ns, "originalData"):
		case pxml.Is(c, d.ns, "segment"), pxml.Is(c, d.ns, "ignorable"):
			seg, err := d.readSegment(c, ws, &inlineReader{d: d, data: data, fs: fs})
			if err != nil {
				return nil, err
			}
			u.Segments = append(u.Segments, seg)
		case d.readNodeChild(c, &u.Node):
		}
	}
	return u, nil
}

func (d *decoder) readSegment(n *xmlquery.Node, ws content.Whitespace, ir *inlineReader) (*content.Segment, error) {
	s := &content.Segment{
		ID:        pxml.AttrValue(n, "", "id"),
		Ignorable: n.Data == "ignorable",
	}
	if !s.Ignorable {
		s.CanResegment = content.ParseFlag(pxml.AttrValue(n, "", "canResegment"))
		s.State = content.SegmentState(pxml.AttrValue(n, "", "state"))
		s.SubState = pxml.AttrValue(n, "", "subState")
	}
	s.Other = pxml.OtherAttrs(n, func(space, local string) bool {
		return space == "" && (local == "id" || local == "canResegment" || local == "state" || local == "subState")
	})

	sideKnown := func(space, local string) bool {
		return space == pxml.XMLNamespace && (local == "lang" || local == "space") ||
			space == "" && local == "order"
	}
	for _, c := range pxml.Elements(n) {
		switch {
		case pxml.Is(c, d.ns, "source"):
			s.SourceLang = pxml.AttrValue(c, pxml.XMLNamespace, "lang")
			s.SourceWhitespace = whitespaceOf(c, ws)
			s.SourceAttrs = pxml.OtherAttrs(c, sideKnown)
			line, err := ir.read(c)
			if err != nil {
				return nil, err
			}
			s.Source = line
		case pxml.Is(c, d.ns, "target"):
			s.TargetLang = pxml.AttrValue(c, pxml.XMLNamespace, "lang")
			s.TargetWhitespace = whitespaceOf(c, ws)
			s.TargetAttrs = pxml.OtherAttrs(c, sideKnown)
			if order, err := strconv.Atoi(pxml.AttrValue(c, "", "order")); err == nil {
				s.Order = order
			}
			line, err := ir.read(c)
			if err != nil {
				return nil, err
			}
			if line == nil {
				line = content.Line{}
			}
			s.Target = line
		}
	}
	return s, nil
}
