package xliff12

import (
	"io"
	"strconv"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/encoding"
	pxml "github.com/FocuswithJustin/Polyglot/core/xml"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
)

// Marshal encodes files as one XLIFF 1.2 document.
func Marshal(files []*content.Transformation, opts Options) ([]byte, error) {
	root := pxml.NewElement(Namespace, "xliff")
	root.Set("version", Version)

	seen := content.IDSet{}
	for _, f := range files {
		if f.OriginalReference != "" {
			seen[f.OriginalReference] = true
		}
	}
	originals := content.NewIDGen("f", seen)
	for _, f := range files {
		original := f.OriginalReference
		if original == "" {
			original = originals.Use(f.ID)
		}
		root.Add(writeFile(f, original))
	}

	logging.Debug("encoded xliff", "version", Version, "files", len(files))
	return pxml.Marshal(root, pxml.WriteOptions{
		Indent:      opts.Indent,
		Prefixes:    map[string]string{content.ExtensionNamespace: content.ExtensionPrefix},
		Declaration: true,
	})
}

// Encode writes files as one XLIFF 1.2 document to w.
func Encode(w io.Writer, files []*content.Transformation, opts Options) error {
	data, err := Marshal(files, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func clean(s string) string {
	return encoding.StripInvalidXML(s)
}

// withoutPoly returns attrs without the poly attributes in names.
func withoutPoly(attrs []content.Attr, names ...string) []content.Attr {
	var out []content.Attr
next:
	for _, a := range attrs {
		if a.Space == content.ExtensionNamespace {
			for _, n := range names {
				if a.Name == n {
					continue next
				}
			}
		}
		out = append(out, a)
	}
	return out
}

func effective(explicit, inherited content.Whitespace) content.Whitespace {
	if explicit != content.WhitespaceUnset {
		return explicit
	}
	return inherited
}

func writeFile(f *content.Transformation, original string) *pxml.Element {
	el := pxml.NewElement(Namespace, "file")
	el.Set("original", clean(original))
	el.Set("source-language", clean(f.SourceLanguage))
	el.Set("target-language", clean(f.TargetLanguage))
	datatype, ok := lookupPoly(f.Other, AttrDatatype)
	if !ok || datatype == "" {
		datatype = undefinedDatatype
	}
	el.Set("datatype", datatype)
	el.SetNS(pxml.XMLNamespace, "space", string(f.Whitespace))
	el.AddAttrs(withoutPoly(f.Other, AttrDatatype))

	if f.Original != "" || f.SkeletonHref != "" || len(f.Notes) > 0 || len(f.Metadata) > 0 || len(f.Extensions) > 0 {
		header := el.Elem(Namespace, "header")
		switch {
		case f.Original != "":
			in := header.Elem(Namespace, "skl").Elem(Namespace, "internal-file")
			in.Preserve = true
			in.AddText(clean(f.Original))
		case f.SkeletonHref != "":
			header.Elem(Namespace, "skl").Elem(Namespace, "external-file").Set("href", clean(f.SkeletonHref))
		}
		writeNodeChildren(header, &f.Node)
	}

	body := el.Elem(Namespace, "body")
	writeChildren(body, f.Children, newUnitIDs(f), effective(f.Whitespace, content.WhitespaceDefault))
	return el
}

// newUnitIDs assigns an id to every unit of f. Literal group and unit ids
// are never reused.
func newUnitIDs(f *content.Transformation) map[*content.Unit]string {
	seen := content.IDSet{}
	f.Walk(func(c content.UnitGrouping, _ int) bool {
		if id := c.Base().ID; id != "" {
			seen[id] = true
		}
		return true
	})
	gen := content.NewIDGen("u", seen)
	ids := map[*content.Unit]string{}
	for _, u := range f.Units() {
		ids[u] = gen.Use(u.ID)
	}
	return ids
}

func writeChildren(parent *pxml.Element, children []content.UnitGrouping, ids map[*content.Unit]string, inherited content.Whitespace) {
	for _, c := range children {
		switch v := c.(type) {
		case *content.Group:
			el := parent.Elem(Namespace, "group")
			el.Set("id", clean(v.ID))
			writeNodeAttrs(el, &v.Node, v.Name, v.Type)
			writeNodeChildren(el, &v.Node)
			writeChildren(el, v.Children, ids, effective(v.Whitespace, inherited))
		case *content.Unit:
			parent.Add(writeUnit(v, ids[v], effective(v.Whitespace, inherited)))
		}
	}
}

func writeNodeAttrs(el *pxml.Element, n *content.Node, name, typ string) {
	el.Set("resname", clean(name))
	el.Set("restype", clean(typ))
	el.Set("translate", n.Translate.String())
	el.SetNS(pxml.XMLNamespace, "space", string(n.Whitespace))
	el.AddAttrs(n.Other)
}

// writeNodeChildren writes metadata as prop-groups, then notes and
// extension elements.
func writeNodeChildren(el *pxml.Element, n *content.Node) {
	var paths []string
	groups := map[string]*pxml.Element{}
	for _, m := range n.Metadata {
		path := m.Path()
		pg, ok := groups[path]
		if !ok {
			pg = pxml.NewElement(Namespace, "prop-group")
			pg.Set("name", clean(path))
			groups[path] = pg
			paths = append(paths, path)
		}
		prop := pg.Elem(Namespace, "prop")
		prop.Set("prop-type", clean(m.Type))
		prop.AddText(clean(m.Value))
	}
	for _, p := range paths {
		el.Add(groups[p])
	}
	for _, note := range n.Notes {
		writeNote(el, note)
	}
	for _, x := range n.Extensions {
		el.Add(pxml.FromExtension(x))
	}
}

func writeNote(parent *pxml.Element, note content.Note) {
	el := parent.Elem(Namespace, "note")
	if note.Priority > 0 {
		el.Set("priority", strconv.Itoa(note.Priority))
	}
	el.Set("annotates", note.AppliesTo)
	el.SetNS(content.ExtensionNamespace, "id", clean(note.ID))
	el.SetNS(content.ExtensionNamespace, "category", clean(note.Category))
	el.AddAttrs(note.Other)
	el.AddText(clean(note.Text))
}

// segmented reports whether u needs seg-source to keep its segmentation.
func segmented(u *content.Unit) bool {
	if len(u.Segments) > 1 {
		return true
	}
	for _, s := range u.Segments {
		if s.ID != "" || s.Ignorable {
			return true
		}
	}
	return false
}

func writeUnit(u *content.Unit, id string, ws content.Whitespace) *pxml.Element {
	el := pxml.NewElement(Namespace, "trans-unit")
	el.Set("id", clean(id))
	writeNodeAttrs(el, &u.Node, u.Name, u.Type)

	var first, firstTarget *content.Segment
	var sources, targets []content.Line
	for _, s := range u.Segments {
		if first == nil {
			first = s
		}
		if s.Target != nil && firstTarget == nil {
			firstTarget = s
		}
		sources = append(sources, s.Source)
		targets = append(targets, s.Target)
	}

	src := el.Elem(Namespace, "source")
	src.Preserve = true
	if first != nil {
		sideAttrs(src, first.SourceLang, first.SourceWhitespace, ws, first.SourceAttrs)
	}
	srcIDs := newSideIDs(sources)
	lineIDs := make([][]string, len(u.Segments))
	for i, s := range u.Segments {
		lineIDs[i] = srcIDs.assign(s.Source)
		writeLine(src, s.Source, lineIDs[i])
	}

	if segmented(u) {
		segSrc := el.Elem(Namespace, "seg-source")
		segSrc.Preserve = true
		mids := segmentIDs(u.Segments)
		for i, s := range u.Segments {
			if s.Ignorable {
				writeLine(segSrc, s.Source, lineIDs[i])
				continue
			}
			mrk := segSrc.Elem(Namespace, "mrk")
			mrk.Set("mtype", "seg")
			mrk.Set("mid", mids[i])
			writeLine(mrk, s.Source, lineIDs[i])
		}

		if firstTarget != nil {
			trg := target(el, u, firstTarget, ws)
			trgIDs := newSideIDs(targets)
			for i, s := range u.Segments {
				switch {
				case s.Ignorable && s.Target != nil:
					writeLine(trg, s.Target, trgIDs.assign(s.Target))
				case s.Ignorable:
					writeLine(trg, s.Source, trgIDs.assign(s.Source))
				case s.Target != nil:
					mrk := trg.Elem(Namespace, "mrk")
					mrk.Set("mtype", "seg")
					mrk.Set("mid", mids[i])
					writeLine(mrk, s.Target, trgIDs.assign(s.Target))
				}
			}
		}
	} else if firstTarget != nil {
		trg := target(el, u, firstTarget, ws)
		writeLine(trg, firstTarget.Target, newSideIDs(targets).assign(firstTarget.Target))
	}

	writeNodeChildren(el, &u.Node)
	return el
}

func sideAttrs(el *pxml.Element, lang string, explicit, inherited content.Whitespace, other []content.Attr) {
	el.SetNS(pxml.XMLNamespace, "lang", clean(lang))
	if explicit != content.WhitespaceUnset && explicit != inherited {
		el.SetNS(pxml.XMLNamespace, "space", string(explicit))
	}
	el.AddAttrs(other)
}

// target adds the target element of u. Its state is the least advanced
// state among the translatable segments.
func target(el *pxml.Element, u *content.Unit, first *content.Segment, ws content.Whitespace) *pxml.Element {
	trg := el.Elem(Namespace, "target")
	trg.Preserve = true
	if state := unitState(u); state != "" {
		trg.Set("state", state)
	}
	sideAttrs(trg, first.TargetLang, first.TargetWhitespace, ws, first.TargetAttrs)
	return trg
}

func unitState(u *content.Unit) string {
	var least content.SegmentState
	var recorded string
	for _, s := range u.Segments {
		if s.Ignorable || s.Target == nil || s.State == content.StateUnset {
			continue
		}
		r, _ := lookupPoly(s.Other, AttrState)
		switch {
		case least == content.StateUnset || !s.State.AtLeast(least):
			least, recorded = s.State, r
		case s.State == least && recorded == "":
			recorded = r
		}
	}
	if least == content.StateUnset {
		return ""
	}
	return LegacyState(least, recorded)
}

// segmentIDs returns the mid of every segment, synthesizing missing ones.
func segmentIDs(segs []*content.Segment) []string {
	seen := content.IDSet{}
	for _, s := range segs {
		if s.ID != "" {
			seen[s.ID] = true
		}
	}
	gen := content.NewIDGen("", seen)
	ids := make([]string, len(segs))
	for i, s := range segs {
		if !s.Ignorable {
			ids[i] = gen.Use(s.ID)
		}
	}
	return ids
}

// sideIDs assigns inline ids on one side of a unit.
type sideIDs struct {
	tags  *content.IDGen
	marks *content.IDGen
}

func newSideIDs(lines []content.Line) *sideIDs {
	seen := content.IDSet{}
	for _, l := range lines {
		for _, e := range l {
			switch v := e.(type) {
			case *content.StartTag:
				seen[v.ID] = true
			case *content.EndTag:
				seen[v.ID] = true
			case *content.InlineTag:
				seen[v.ID] = true
			case *content.AnnotationStart:
				seen[v.ID] = true
			}
		}
	}
	delete(seen, "")
	return &sideIDs{tags: content.NewIDGen("", seen), marks: content.NewIDGen("m", seen)}
}

// assign returns the id of every code and annotation in l. Both halves of
// a pair share one id.
func (s *sideIDs) assign(l content.Line) []string {
	ids := make([]string, len(l))
	for i, e := range l {
		switch v := e.(type) {
		case *content.StartTag:
			ids[i] = s.tags.Use(v.ID)
			if v.End > i {
				ids[v.End] = ids[i]
			}
		case *content.EndTag:
			if v.Start < 0 {
				ids[i] = s.tags.Use(v.ID)
			}
		case *content.InlineTag:
			ids[i] = s.tags.Use(v.ID)
		case *content.AnnotationStart:
			ids[i] = s.marks.Use(v.ID)
			if v.End > i {
				ids[v.End] = ids[i]
			}
		}
	}
	return ids
}

// writeLine writes l into parent. Nested pairs without native data become
// g, pairs with data bpt/ept and pairs without bx/ex. Codes whose partner
// lies outside l become it when they carry data and bx or ex otherwise.
// Only nested annotations can be written; the others are dropped.
func writeLine(parent *pxml.Element, l content.Line, ids []string) {
	nested := l.NestedPairs()
	kind := make([]string, len(l))
	stack := []*pxml.Element{parent}
	top := func() *pxml.Element { return stack[len(stack)-1] }

	for i, e := range l {
		switch v := e.(type) {
		case *content.PlainText:
			top().AddText(clean(v.Text))

		case *content.StartTag:
			if v.End < 0 {
				if v.Data != "" {
					it := codeElement(top(), "it", &v.Tag, ids[i])
					it.Set("pos", "open")
					it.AddText(clean(v.Data))
				} else {
					codeElement(top(), "bx", &v.Tag, ids[i]).Set("rid", ids[i])
				}
				continue
			}
			end := l[v.End].(*content.EndTag)
			switch {
			case nested[i] && v.Data == "" && end.Data == "":
				kind[i] = "g"
				stack = append(stack, codeElement(top(), "g", &v.Tag, ids[i]))
			case v.Data != "" || end.Data != "":
				kind[i] = "bpt"
				codeElement(top(), "bpt", &v.Tag, ids[i]).AddText(clean(v.Data))
			default:
				kind[i] = "bx"
				codeElement(top(), "bx", &v.Tag, ids[i]).Set("rid", ids[i])
			}

		case *content.EndTag:
			k := ""
			if v.Start >= 0 {
				k = kind[v.Start]
			}
			switch {
			case k == "g":
				stack = stack[:len(stack)-1]
			case k == "bpt":
				codeElement(top(), "ept", &v.Tag, ids[i]).AddText(clean(v.Data))
			case k == "" && v.Data != "":
				it := codeElement(top(), "it", &v.Tag, ids[i])
				it.Set("pos", "close")
				it.AddText(clean(v.Data))
			default:
				codeElement(top(), "ex", &v.Tag, ids[i]).Set("rid", ids[i])
			}

		case *content.InlineTag:
			if v.Data == "" {
				codeElement(top(), "x", &v.Tag, ids[i])
			} else {
				codeElement(top(), "ph", &v.Tag, ids[i]).AddText(clean(v.Data))
			}

		case *content.AnnotationStart:
			if !nested[i] {
				continue
			}
			mrk := top().Elem(Namespace, "mrk")
			mtype := v.Type
			if mtype == "" {
				mtype = unknownMarkType
			}
			mrk.Set("mtype", clean(mtype))
			mrk.Set("mid", ids[i])
			mrk.Set("comment", clean(v.Value))
			mrk.AddAttrs(v.Other)
			stack = append(stack, mrk)

		case *content.AnnotationEnd:
			if v.Start >= 0 && nested[v.Start] {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

func codeElement(parent *pxml.Element, name string, t *content.Tag, id string) *pxml.Element {
	el := parent.Elem(Namespace, name)
	el.Set("id", clean(id))
	el.Set("ctype", clean(ctypeOf(t)))
	el.Set("equiv-text", clean(t.Equiv))
	el.AddAttrs(withoutPoly(t.Other, AttrCtype))
	return el
}
