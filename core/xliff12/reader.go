package xliff12

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

// Unmarshal decodes an XLIFF 1.2 document.
func Unmarshal(data []byte) ([]*content.Transformation, error) {
	doc, err := pxml.Parse(data)
	if err != nil {
		return nil, errors.NewParse("XLIFF 1.2", err.Error(), err)
	}
	return decodeDocument(doc)
}

// Decode reads and decodes an XLIFF 1.2 document from r.
func Decode(r io.Reader) ([]*content.Transformation, error) {
	doc, err := pxml.ParseReader(r)
	if err != nil {
		return nil, errors.NewParse("XLIFF 1.2", err.Error(), err)
	}
	return decodeDocument(doc)
}

func decodeDocument(doc *pxml.Document) ([]*content.Transformation, error) {
	root := doc.Root()
	if root == nil || root.Data != "xliff" {
		return nil, errors.NewUnsupportedFormat("xml", "document element is not <xliff>")
	}
	if root.NamespaceURI != Namespace {
		return nil, errors.NewUnsupportedFormat("xliff", "unknown namespace "+root.NamespaceURI)
	}
	if v, ok := pxml.Attr(root, "", "version"); ok && v != Version {
		return nil, errors.NewUnsupportedFormat("xliff "+v, "unsupported XLIFF 1.x version")
	}

	var files []*content.Transformation
	for _, c := range pxml.Elements(root) {
		if !pxml.Is(c, Namespace, "file") {
			continue
		}
		f, err := readFile(c)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	logging.Debug("decoded xliff", "version", Version, "files", len(files))
	return files, nil
}

// passthrough returns the attributes of n outside known. xml:space is
// always interpreted; other attributes in the XML namespace are named
// "xml:local" in known.
func passthrough(n *xmlquery.Node, known ...string) []content.Attr {
	return pxml.OtherAttrs(n, func(space, local string) bool {
		switch space {
		case pxml.XMLNamespace:
			if local == "space" {
				return true
			}
			local = "xml:" + local
		case "":
		default:
			return false
		}
		for _, k := range known {
			if k == local {
				return true
			}
		}
		return false
	})
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

func readFile(n *xmlquery.Node) (*content.Transformation, error) {
	f := &content.Transformation{
		SourceLanguage:    pxml.AttrValue(n, "", "source-language"),
		TargetLanguage:    pxml.AttrValue(n, "", "target-language"),
		OriginalReference: pxml.AttrValue(n, "", "original"),
	}
	f.Whitespace = whitespaceOf(n, content.WhitespaceUnset)
	f.Other = passthrough(n, "original", "source-language", "target-language", "datatype")
	if dt := pxml.AttrValue(n, "", "datatype"); dt != "" && dt != undefinedDatatype {
		f.SetOtherAttr(polyAttr(AttrDatatype, dt))
	}

	ws := whitespaceOf(n, content.WhitespaceDefault)
	for _, c := range pxml.Elements(n) {
		switch {
		case pxml.Is(c, Namespace, "header"):
			readHeader(c, f)
		case pxml.Is(c, Namespace, "body"):
			children, err := readChildren(c, ws, &f.Node)
			if err != nil {
				return nil, err
			}
			f.Children = children
		default:
			f.Extensions = append(f.Extensions, pxml.ToExtension(c))
		}
	}
	return f, nil
}

func readHeader(n *xmlquery.Node, f *content.Transformation) {
	for _, c := range pxml.Elements(n) {
		switch {
		case pxml.Is(c, Namespace, "skl"):
			if in := pxml.ChildElement(c, Namespace, "internal-file"); in != nil {
				f.Original = pxml.Text(in)
			}
			if ext := pxml.ChildElement(c, Namespace, "external-file"); ext != nil {
				f.SkeletonHref = pxml.AttrValue(ext, "", "href")
			}
		case pxml.Is(c, Namespace, "note"):
			f.AddNote(readNote(c))
		case pxml.Is(c, Namespace, "prop-group"):
			readPropGroup(c, &f.Node)
		default:
			f.Extensions = append(f.Extensions, pxml.ToExtension(c))
		}
	}
}

func readNote(n *xmlquery.Node) content.Note {
	note := content.Note{
		Text:      pxml.Text(n),
		AppliesTo: pxml.AttrValue(n, "", "annotates"),
		ID:        pxml.AttrValue(n, content.ExtensionNamespace, "id"),
		Category:  pxml.AttrValue(n, content.ExtensionNamespace, "category"),
	}
	if p, err := strconv.Atoi(pxml.AttrValue(n, "", "priority")); err == nil {
		note.Priority = p
	}
	for _, a := range passthrough(n, "annotates", "priority") {
		if a.Space == content.ExtensionNamespace && (a.Name == "id" || a.Name == "category") {
			continue
		}
		note.Other = append(note.Other, a)
	}
	return note
}

// readPropGroup reads a prop-group as metadata. The group name is the
// category path, split at "/".
func readPropGroup(n *xmlquery.Node, node *content.Node) {
	var category []string
	if name := pxml.AttrValue(n, "", "name"); name != "" {
		category = strings.Split(name, "/")
	}
	for _, c := range pxml.Elements(n) {
		if pxml.Is(c, Namespace, "prop") {
			node.SetMetadata(category, pxml.AttrValue(c, "", "prop-type"), pxml.Text(c))
		}
	}
}

// readChildren reads the groups and trans-units below n. Notes and
// unknown elements are attached to parent.
func readChildren(n *xmlquery.Node, ws content.Whitespace, parent *content.Node) ([]content.UnitGrouping, error) {
	var out []content.UnitGrouping
	for _, c := range pxml.Elements(n) {
		switch {
		case pxml.Is(c, Namespace, "group"):
			g, err := readGroup(c, ws)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		case pxml.Is(c, Namespace, "trans-unit"):
			u, err := readUnit(c, ws)
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		case pxml.Is(c, Namespace, "bin-unit"):
			logging.Debug("skipping bin-unit", "id", pxml.AttrValue(c, "", "id"))
		case pxml.Is(c, Namespace, "note"):
			parent.AddNote(readNote(c))
		case pxml.Is(c, Namespace, "prop-group"):
			readPropGroup(c, parent)
		default:
			parent.Extensions = append(parent.Extensions, pxml.ToExtension(c))
		}
	}
	return out, nil
}

func readGroup(n *xmlquery.Node, inherited content.Whitespace) (*content.Group, error) {
	g := &content.Group{
		Node: content.Node{
			ID:         pxml.AttrValue(n, "", "id"),
			Translate:  content.ParseFlag(pxml.AttrValue(n, "", "translate")),
			Whitespace: whitespaceOf(n, content.WhitespaceUnset),
			Other:      passthrough(n, "id", "resname", "restype", "translate"),
		},
		Name: pxml.AttrValue(n, "", "resname"),
		Type: pxml.AttrValue(n, "", "restype"),
	}
	children, err := readChildren(n, whitespaceOf(n, inherited), &g.Node)
	if err != nil {
		return nil, err
	}
	g.Children = children
	return g, nil
}

func readUnit(n *xmlquery.Node, inherited content.Whitespace) (*content.Unit, error) {
	id := pxml.AttrValue(n, "", "id")
	if id == "" {
		return nil, errors.NewRequiredAttribute("trans-unit", "id", 0)
	}
	u := &content.Unit{
		Node: content.Node{
			ID:         id,
			Translate:  content.ParseFlag(pxml.AttrValue(n, "", "translate")),
			Whitespace: whitespaceOf(n, content.WhitespaceUnset),
			Other:      passthrough(n, "id", "resname", "restype", "translate"),
		},
		Name: pxml.AttrValue(n, "", "resname"),
		Type: pxml.AttrValue(n, "", "restype"),
	}
	ws := whitespaceOf(n, inherited)

	var src, segSrc, trg *xmlquery.Node
	for _, c := range pxml.Elements(n) {
		switch {
		case pxml.Is(c, Namespace, "source"):
			src = c
		case pxml.Is(c, Namespace, "seg-source"):
			segSrc = c
		case pxml.Is(c, Namespace, "target"):
			trg = c
		case pxml.Is(c, Namespace, "note"):
			u.AddNote(readNote(c))
		case pxml.Is(c, Namespace, "prop-group"):
			readPropGroup(c, &u.Node)
		default:
			u.Extensions = append(u.Extensions, pxml.ToExtension(c))
		}
	}
	if src == nil {
		return nil, errors.NewParse("XLIFF 1.2", "trans-unit "+id+" has no source", nil)
	}

	var err error
	if segSrc != nil && hasSegMarkers(segSrc) {
		u.Segments, err = readSegmented(segSrc, trg)
	} else {
		u.Segments, err = readSingle(src, trg)
	}
	if err != nil {
		return nil, err
	}

	state12 := pxml.AttrValue(trg, "", "state")
	for _, s := range u.Segments {
		s.SourceLang = pxml.AttrValue(src, pxml.XMLNamespace, "lang")
		s.SourceWhitespace = whitespaceOf(src, ws)
		s.SourceAttrs = passthrough(src, "xml:lang")
		if s.Target == nil {
			continue
		}
		s.TargetLang = pxml.AttrValue(trg, pxml.XMLNamespace, "lang")
		s.TargetWhitespace = whitespaceOf(trg, ws)
		s.TargetAttrs = passthrough(trg, "state", "xml:lang")
		if s.Ignorable {
			continue
		}
		s.State = StateOf(state12)
		if state12 != "" {
			s.SetOtherAttr(polyAttr(AttrState, state12))
		}
	}
	return u, nil
}

func isSegMarker(n *xmlquery.Node) bool {
	return pxml.Is(n, Namespace, "mrk") && pxml.AttrValue(n, "", "mtype") == "seg"
}

func hasSegMarkers(n *xmlquery.Node) bool {
	for _, c := range pxml.Elements(n) {
		if isSegMarker(c) {
			return true
		}
	}
	return false
}

func readSingle(src, trg *xmlquery.Node) ([]*content.Segment, error) {
	s := &content.Segment{}
	line, err := readLine(src.FirstChild, nil)
	if err != nil {
		return nil, err
	}
	s.Source = line
	if trg != nil {
		if s.Target, err = readLine(trg.FirstChild, nil); err != nil {
			return nil, err
		}
		if s.Target == nil {
			s.Target = content.Line{}
		}
	}
	return []*content.Segment{s}, nil
}

// readSegmented splits seg-source at its mrk mtype="seg" markers. Content
// between markers becomes ignorable segments. Target markers are matched
// by mid; target content between markers fills the ignorable segments in
// order.
func readSegmented(segSrc, trg *xmlquery.Node) ([]*content.Segment, error) {
	var segs []*content.Segment
	var ignorable []*content.Segment
	byMid := map[string]*content.Segment{}

	err := eachRun(segSrc, func(marker *xmlquery.Node, first, last *xmlquery.Node) error {
		if marker != nil {
			line, err := readLine(marker.FirstChild, nil)
			if err != nil {
				return err
			}
			s := &content.Segment{ID: pxml.AttrValue(marker, "", "mid"), Source: line}
			byMid[s.ID] = s
			segs = append(segs, s)
			return nil
		}
		line, err := readLine(first, last)
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return nil
		}
		s := &content.Segment{Ignorable: true, Source: line}
		ignorable = append(ignorable, s)
		segs = append(segs, s)
		return nil
	})
	if err != nil || trg == nil {
		return segs, err
	}

	next := 0
	err = eachRun(trg, func(marker *xmlquery.Node, first, last *xmlquery.Node) error {
		if marker != nil {
			line, err := readLine(marker.FirstChild, nil)
			if err != nil {
				return err
			}
			if s, ok := byMid[pxml.AttrValue(marker, "", "mid")]; ok {
				if line == nil {
					line = content.Line{}
				}
				s.Target = line
			}
			return nil
		}
		line, err := readLine(first, last)
		if err != nil || len(line) == 0 {
			return err
		}
		if next < len(ignorable) {
			ignorable[next].Target = line
			next++
		}
		return nil
	})
	return segs, err
}

// eachRun calls fn for every segment marker child of n, and for every run
// of sibling nodes between markers with the first and last node of the run.
func eachRun(n *xmlquery.Node, fn func(marker, first, last *xmlquery.Node) error) error {
	var first, last *xmlquery.Node
	flush := func() error {
		if first == nil {
			return nil
		}
		err := fn(nil, first, last)
		first, last = nil, nil
		return err
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isSegMarker(c) {
			if err := flush(); err != nil {
				return err
			}
			if err := fn(c, nil, nil); err != nil {
				return err
			}
			continue
		}
		if first == nil {
			first = c
		}
		last = c
	}
	return flush()
}

// readLine reads the sibling nodes from first through last, or to the end
// when last is nil, into one Line.
func readLine(first, last *xmlquery.Node) (content.Line, error) {
	r := &lineReader{open: map[string]int{}}
	for c := first; c != nil; c = c.NextSibling {
		if err := r.node(c); err != nil {
			return nil, err
		}
		if c == last {
			break
		}
	}
	r.settle()
	return r.line, nil
}

// lineReader decodes 1.2 inline content. bx/ex and bpt/ept are paired by
// rid, falling back to id.
type lineReader struct {
	line content.Line
	open map[string]int
	// bpt holds the indices of starts read from bpt.
	bpt []int
}

func pairKey(n *xmlquery.Node) string {
	if rid := pxml.AttrValue(n, "", "rid"); rid != "" {
		return rid
	}
	return pxml.AttrValue(n, "", "id")
}

func (r *lineReader) children(n *xmlquery.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := r.node(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *lineReader) node(c *xmlquery.Node) error {
	if pxml.IsText(c) {
		r.line.AppendText(c.Data)
		return nil
	}
	if c.Type != xmlquery.ElementNode {
		return nil
	}
	if c.NamespaceURI != Namespace {
		return r.children(c)
	}

	switch c.Data {
	case "g":
		tag, err := readTag(c, true)
		if err != nil {
			return err
		}
		end := tag
		end.Other = nil
		idx := r.line.AppendStart(tag, true)
		if err := r.children(c); err != nil {
			return err
		}
		r.line.AppendEnd(end, idx)

	case "x", "ph":
		tag, err := readTag(c, true)
		if err != nil {
			return err
		}
		if c.Data == "ph" {
			tag.Data = codeText(c)
		}
		r.line.AppendInline(tag)

	case "bx", "bpt":
		tag, err := readTag(c, true)
		if err != nil {
			return err
		}
		if c.Data == "bpt" {
			tag.Data = codeText(c)
		}
		idx := r.line.AppendStart(tag, false)
		r.open[pairKey(c)] = idx
		if c.Data == "bpt" {
			r.bpt = append(r.bpt, idx)
		}

	case "ex", "ept":
		tag, err := readTag(c, false)
		if err != nil {
			return err
		}
		if c.Data == "ept" {
			tag.Data = codeText(c)
		}
		key := pairKey(c)
		start, ok := r.open[key]
		if ok {
			delete(r.open, key)
			tag.ID = r.line[start].(*content.StartTag).ID
		} else {
			start = -1
			tag.ID = key
		}
		r.line.AppendEnd(tag, start)

	case "it":
		tag, err := readTag(c, true)
		if err != nil {
			return err
		}
		tag.Data = codeText(c)
		if pxml.AttrValue(c, "", "pos") == "close" {
			r.line.AppendEnd(tag, -1)
		} else {
			r.line.AppendStart(tag, false)
		}

	case "mrk":
		if pxml.AttrValue(c, "", "mtype") == "seg" {
			return r.children(c)
		}
		ann := content.Annotation{
			ID:    pxml.AttrValue(c, "", "mid"),
			Type:  pxml.AttrValue(c, "", "mtype"),
			Value: pxml.AttrValue(c, "", "comment"),
			Other: passthrough(c, "mid", "mtype", "comment"),
		}
		if ann.Type == unknownMarkType {
			ann.Type = ""
		}
		idx := r.line.AppendAnnotationStart(ann, true)
		if err := r.children(c); err != nil {
			return err
		}
		r.line.AppendAnnotationEnd(idx)

	default:
		return r.children(c)
	}
	return nil
}

// settle marks bpt/ept pairs well-formed when they nest with every other
// well-formed pair.
func (r *lineReader) settle() {
	if len(r.bpt) == 0 {
		return
	}
	for _, i := range r.bpt {
		st := r.line[i].(*content.StartTag)
		st.WellFormed = st.End > i
	}
	nested := r.line.NestedPairs()
	for _, i := range r.bpt {
		r.line[i].(*content.StartTag).WellFormed = nested[i]
	}
}

// unknownMarkType is written for annotations without a type, since mtype
// is mandatory in 1.2.
const unknownMarkType = "x-unknown"

// codeText returns the native code held by bpt, ept, ph or it, including
// the text of nested sub elements.
func codeText(n *xmlquery.Node) string {
	return n.InnerText()
}

func readTag(n *xmlquery.Node, idRequired bool) (content.Tag, error) {
	id := pxml.AttrValue(n, "", "id")
	if id == "" && idRequired {
		return content.Tag{}, errors.NewRequiredAttribute(n.Data, "id", 0)
	}
	tag := content.Tag{
		ID:    id,
		Equiv: pxml.AttrValue(n, "", "equiv-text"),
		Other: passthrough(n, "id", "rid", "ctype", "pos", "equiv-text"),
	}
	typ, keep := typeOfCtype(pxml.AttrValue(n, "", "ctype"))
	tag.Type = typ
	if keep {
		tag.Other = append(tag.Other, polyAttr(AttrCtype, pxml.AttrValue(n, "", "ctype")))
	}
	return tag, nil
}

// modelTypes are the inline code types of the content model.
var modelTypes = map[string]bool{
	"fmt": true, "ui": true, "quote": true, "link": true, "image": true, "other": true,
}

// typeOfCtype maps a 1.2 ctype onto a model type. keep reports whether the
// ctype must be kept as a passthrough value to be written back.
func typeOfCtype(ctype string) (typ string, keep bool) {
	switch {
	case ctype == "":
		return "", false
	case ctype == "link" || ctype == "image":
		return ctype, false
	case strings.HasPrefix(ctype, "x-") && modelTypes[ctype[2:]]:
		return ctype[2:], false
	case ctype == "bold" || ctype == "italic" || ctype == "underline":
		return "fmt", true
	}
	return "", true
}

// ctypeOf is the inverse of typeOfCtype.
func ctypeOf(t *content.Tag) string {
	if v, ok := lookupPoly(t.Other, AttrCtype); ok {
		return v
	}
	switch t.Type {
	case "":
		return ""
	case "link", "image":
		return t.Type
	}
	return "x-" + t.Type
}
