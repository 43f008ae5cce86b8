package xliff2

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/encoding"
	pxml "github.com/FocuswithJustin/Polyglot/core/xml"
)

type dataEntry struct {
	id      string
	literal string
}

// unitScope holds the per-unit state of one Marshal call: the original
// data table and the inline identity registries of both sides.
type unitScope struct {
	data    []dataEntry
	dataIDs map[string]string
	dataGen *content.IDGen

	source *sideScope
	target *sideScope
}

// sideScope assigns inline identities on the source or target side of a
// unit. Codes get numeric ids and annotations "m" ids from one shared set.
type sideScope struct {
	tags  *content.IDGen
	marks *content.IDGen
	// open and closed hold the ids of unpaired starts and ends, so that a
	// split pair spanning two segments is written without isolated="yes".
	open   map[string]bool
	closed map[string]bool
}

func newUnitScope(u *content.Unit) *unitScope {
	us := &unitScope{
		dataIDs: make(map[string]string),
		dataGen: content.NewIDGen("d", nil),
	}
	var src, trg []content.Line
	for _, s := range u.Segments {
		src = append(src, s.Source)
		if s.Target != nil {
			trg = append(trg, s.Target)
		}
	}
	us.source = newSideScope(src)
	us.target = newSideScope(trg)
	return us
}

func newSideScope(lines []content.Line) *sideScope {
	seen := content.IDSet{}
	ss := &sideScope{open: map[string]bool{}, closed: map[string]bool{}}
	for _, l := range lines {
		for _, e := range l {
			switch v := e.(type) {
			case *content.StartTag:
				seen[v.ID] = true
				if v.End < 0 {
					ss.open[v.ID] = true
				}
			case *content.EndTag:
				seen[v.ID] = true
				if v.Start < 0 {
					ss.closed[v.ID] = true
				}
			case *content.InlineTag:
				seen[v.ID] = true
			case *content.AnnotationStart:
				seen[v.ID] = true
			}
		}
	}
	delete(seen, "")
	delete(ss.open, "")
	delete(ss.closed, "")
	ss.tags = content.NewIDGen("", seen)
	ss.marks = content.NewIDGen("m", seen)
	return ss
}

// dataRef returns the id of literal in the original data table, adding it
// on first use. Identical literals share one entry.
func (us *unitScope) dataRef(literal string) string {
	if literal == "" {
		return ""
	}
	if id, ok := us.dataIDs[literal]; ok {
		return id
	}
	id := us.dataGen.Next()
	us.dataIDs[literal] = id
	us.data = append(us.data, dataEntry{id: id, literal: literal})
	return id
}

// line writes the elements of l into parent. Well-formed pairs that nest
// properly become pc and mrk; every other pair is split into sc/ec or sm/em.
func (e *encoder) line(parent *pxml.Element, l content.Line, us *unitScope, side *sideScope, fs *fileScope) {
	ids := make([]string, len(l))
	for i, el := range l {
		switch v := el.(type) {
		case *content.StartTag:
			ids[i] = side.tags.Use(v.ID)
			if v.End > i {
				ids[v.End] = ids[i]
			}
		case *content.EndTag:
			if v.Start < 0 {
				ids[i] = side.tags.Use(v.ID)
			}
		case *content.InlineTag:
			ids[i] = side.tags.Use(v.ID)
		case *content.AnnotationStart:
			ids[i] = side.marks.Use(v.ID)
			if v.End > i {
				ids[v.End] = ids[i]
			}
		case *content.AnnotationEnd:
			if v.Start < 0 {
				ids[i] = side.marks.Use(v.ID)
			}
		}
	}

	nested := l.NestedPairs()
	stack := []*pxml.Element{parent}
	top := func() *pxml.Element { return stack[len(stack)-1] }

	for i, el := range l {
		switch v := el.(type) {
		case *content.PlainText:
			e.inlineText(top(), v.Text)

		case *content.StartTag:
			if nested[i] {
				end := l[v.End].(*content.EndTag)
				pc := top().Elem(e.ns, "pc")
				e.tagAttrs(pc, &v.Tag, ids[i], true, true)
				pc.Set("dataRefStart", us.dataRef(v.Data))
				pc.Set("dataRefEnd", us.dataRef(end.Data))
				pc.Set("dispStart", clean(v.Disp))
				pc.Set("dispEnd", clean(end.Disp))
				pc.Set("equivStart", clean(v.Equiv))
				pc.Set("equivEnd", clean(end.Equiv))
				pc.Set("subFlowsStart", subFlows(&v.Tag, "subFlowsStart", fs))
				pc.Set("subFlowsEnd", subFlows(&end.Tag, "subFlowsEnd", fs))
				stack = append(stack, pc)
				continue
			}
			sc := top().Elem(e.ns, "sc")
			e.tagAttrs(sc, &v.Tag, ids[i], true, true)
			e.codeAttrs(sc, &v.Tag, us, fs)
			if v.End < 0 && !side.closed[v.ID] {
				sc.Set("isolated", "yes")
			}

		case *content.EndTag:
			if v.Start >= 0 && nested[v.Start] {
				stack = stack[:len(stack)-1]
				continue
			}
			ec := top().Elem(e.ns, "ec")
			if v.Start >= 0 || side.open[v.ID] {
				ec.Set("startRef", ids[i])
				e.tagAttrs(ec, &v.Tag, "", true, true)
			} else {
				e.tagAttrs(ec, &v.Tag, ids[i], true, true)
				ec.Set("isolated", "yes")
			}
			e.codeAttrs(ec, &v.Tag, us, fs)

		case *content.InlineTag:
			ph := top().Elem(e.ns, "ph")
			e.tagAttrs(ph, &v.Tag, ids[i], false, false)
			e.codeAttrs(ph, &v.Tag, us, fs)

		case *content.AnnotationStart:
			name := "sm"
			if nested[i] {
				name = "mrk"
			}
			m := top().Elem(e.ns, name)
			m.Set("id", ids[i])
			m.Set("translate", v.Translate.String())
			m.Set("type", clean(v.Type))
			m.Set("value", clean(v.Value))
			m.Set("ref", clean(v.Ref))
			m.AddAttrs(v.Other)
			if nested[i] {
				stack = append(stack, m)
			}

		case *content.AnnotationEnd:
			if v.Start >= 0 && nested[v.Start] {
				stack = stack[:len(stack)-1]
				continue
			}
			top().Elem(e.ns, "em").Set("startRef", ids[i])
		}
	}
}

// tagAttrs writes the attributes shared by pc, sc, ec and ph.
func (e *encoder) tagAttrs(el *pxml.Element, t *content.Tag, id string, overlap, dir bool) {
	el.Set("id", clean(id))
	el.Set("canCopy", t.CanCopy.String())
	el.Set("canDelete", t.CanDelete.String())
	if overlap {
		el.Set("canOverlap", t.CanOverlap.String())
	}
	el.Set("canReorder", t.CanReorder)
	if dir {
		el.Set("dir", string(t.Dir))
	}
	el.Set("type", clean(t.Type))
	el.Set("subType", clean(t.SubType))
	writeFormatStyle(el, t.FormatStyle)
	el.AddAttrs(t.Other)
}

// codeAttrs writes the data reference, display and sub-flow attributes of
// sc, ec and ph.
func (e *encoder) codeAttrs(el *pxml.Element, t *content.Tag, us *unitScope, fs *fileScope) {
	el.Set("dataRef", us.dataRef(t.Data))
	el.Set("disp", clean(t.Disp))
	el.Set("equiv", clean(t.Equiv))
	el.Set("subFlows", subFlows(t, "subFlows", fs))
}

// subFlows lists the ids of the units t references, followed by any
// unresolved references kept as passthrough under attr.
func subFlows(t *content.Tag, attr string, fs *fileScope) string {
	var ids []string
	for _, u := range t.SubFlows {
		if id, ok := fs.ids[u]; ok {
			ids = append(ids, id)
		}
	}
	for _, a := range t.Other {
		if a.Space == "" && a.Name == attr {
			ids = append(ids, a.Value)
		}
	}
	return strings.Join(ids, " ")
}

// inlineText writes s into el, turning code points that XML cannot carry
// into cp elements.
func (e *encoder) inlineText(el *pxml.Element, s string) {
	for _, c := range encoding.SplitInvalidXML(s) {
		if c.IsValid {
			el.AddText(c.Text)
			continue
		}
		el.Elem(e.ns, "cp").Set("hex", fmt.Sprintf("%04X", c.Invalid))
	}
}
