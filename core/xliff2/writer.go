package xliff2

import (
	"io"
	"strconv"

	"github.com/FocuswithJustin/Polyglot/core/content"
	pxml "github.com/FocuswithJustin/Polyglot/core/xml"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
)

// Marshal encodes files as one XLIFF 2 document.
func Marshal(files []*content.Transformation, opts Options) ([]byte, error) {
	version, err := opts.version()
	if err != nil {
		return nil, err
	}
	e := &encoder{version: version, ns: version.Namespace()}
	root := e.document(files)
	logging.Debug("encoded xliff", "version", string(version), "files", len(files))
	return pxml.Marshal(root, pxml.WriteOptions{
		Indent:      opts.Indent,
		Prefixes:    prefixes,
		Declaration: true,
	})
}

// Encode writes files as one XLIFF 2 document to w.
func Encode(w io.Writer, files []*content.Transformation, opts Options) error {
	data, err := Marshal(files, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// encoder holds the state of one Marshal call.
type encoder struct {
	version Version
	ns      string
	usesITS bool
}

// fileScope assigns group and unit identities within one file. Both share
// one set of seen identities so that synthesized values never collide with
// any literal one.
type fileScope struct {
	ids map[content.UnitGrouping]string
}

func newFileScope(f *content.Transformation) *fileScope {
	seen := content.IDSet{}
	f.Walk(func(c content.UnitGrouping, _ int) bool {
		if id := c.Base().ID; id != "" {
			seen[id] = true
		}
		return true
	})
	groups := content.NewIDGen("g", seen)
	units := content.NewIDGen("u", seen)

	fs := &fileScope{ids: make(map[content.UnitGrouping]string)}
	f.Walk(func(c content.UnitGrouping, _ int) bool {
		switch c.(type) {
		case *content.Group:
			fs.ids[c] = groups.Use(c.Base().ID)
		case *content.Unit:
			fs.ids[c] = units.Use(c.Base().ID)
		}
		return true
	})
	return fs
}

func (e *encoder) document(files []*content.Transformation) *pxml.Element {
	root := pxml.NewElement(e.ns, "xliff")
	root.Set("version", string(e.version))

	var srcLang, trgLang string
	if len(files) > 0 {
		srcLang, trgLang = files[0].SourceLanguage, files[0].TargetLanguage
	}
	root.Set("srcLang", clean(srcLang))
	root.Set("trgLang", clean(trgLang))

	hoist := e.version.AtLeast(Version22)
	if hoist {
		var global content.Node
		for _, f := range files {
			for _, note := range f.Notes {
				if note.IsGlobal() && !hasNote(global.Notes, note) {
					global.AddNote(note)
				}
			}
			for _, m := range f.Metadata {
				if m.IsGlobal() {
					global.SetMetadata(m.Category[1:], m.Type, m.Value)
				}
			}
		}
		writeMetadata(root, global.Metadata)
		notes := make([]content.Note, len(global.Notes))
		for i, note := range global.Notes {
			notes[i] = packageNote(note)
		}
		writeNotes(root, e.ns, notes)
	}

	seen := content.IDSet{}
	for _, f := range files {
		if f.ID != "" {
			seen[f.ID] = true
		}
	}
	fileIDs := content.NewIDGen("f", seen)
	for _, f := range files {
		root.Add(e.file(f, fileIDs.Use(f.ID), hoist, srcLang, trgLang))
	}

	if e.usesITS {
		root.SetNS(NamespaceITS, "version", "2.0")
	}
	return root
}

func (e *encoder) file(f *content.Transformation, id string, hoist bool, srcLang, trgLang string) *pxml.Element {
	el := pxml.NewElement(e.ns, "file")
	el.Set("id", clean(id))
	el.Set("original", clean(f.OriginalReference))
	if f.SourceLanguage != srcLang {
		el.SetNS(content.ExtensionNamespace, "srcLang", clean(f.SourceLanguage))
	}
	if f.TargetLanguage != trgLang {
		el.SetNS(content.ExtensionNamespace, "trgLang", clean(f.TargetLanguage))
	}
	e.nodeAttrs(el, &f.Node)

	if f.Original != "" || f.SkeletonHref != "" || len(f.Skeleton) > 0 {
		sk := el.Elem(e.ns, "skeleton")
		sk.Preserve = true
		sk.Set("href", clean(f.SkeletonHref))
		sk.AddText(clean(f.Original))
		for _, x := range f.Skeleton {
			sk.Add(pxml.FromExtension(x))
		}
	}
	e.nodeChildren(el, &f.Node, hoist)

	ws := f.Whitespace
	if ws == content.WhitespaceUnset {
		ws = content.WhitespaceDefault
	}
	e.children(el, f.Children, newFileScope(f), ws)
	return el
}

func (e *encoder) children(parent *pxml.Element, children []content.UnitGrouping, fs *fileScope, inherited content.Whitespace) {
	for _, c := range children {
		switch v := c.(type) {
		case *content.Group:
			el := parent.Elem(e.ns, "group")
			el.Set("id", clean(fs.ids[v]))
			el.Set("name", clean(v.Name))
			el.Set("type", clean(v.Type))
			e.nodeAttrs(el, &v.Node)
			e.nodeChildren(el, &v.Node, false)
			e.children(el, v.Children, fs, effective(v.Whitespace, inherited))
		case *content.Unit:
			parent.Add(e.unit(v, fs, effective(v.Whitespace, inherited)))
		}
	}
}

func effective(explicit, inherited content.Whitespace) content.Whitespace {
	if explicit != content.WhitespaceUnset {
		return explicit
	}
	return inherited
}

func (e *encoder) nodeAttrs(el *pxml.Element, n *content.Node) {
	el.Set("canResegment", n.CanResegment.String())
	el.Set("translate", n.Translate.String())
	el.Set("srcDir", string(n.SrcDir))
	el.Set("trgDir", string(n.TrgDir))
	el.SetNS(pxml.XMLNamespace, "space", string(n.Whitespace))
	e.writeModules(el, n)
	el.AddAttrs(n.Other)
}

// nodeChildren writes metadata, extensions and notes. With hoist set,
// global entries are left out since they were written at package scope.
func (e *encoder) nodeChildren(el *pxml.Element, n *content.Node, hoist bool) {
	metadata, notes := n.Metadata, n.Notes
	if hoist {
		metadata, notes = nil, nil
		for _, m := range n.Metadata {
			if !m.IsGlobal() {
				metadata = append(metadata, m)
			}
		}
		for _, note := range n.Notes {
			if !note.IsGlobal() {
				notes = append(notes, note)
			}
		}
	}
	writeMetadata(el, metadata)
	for _, x := range n.Extensions {
		el.Add(pxml.FromExtension(x))
	}
	writeNotes(el, e.ns, notes)
}

func (e *encoder) unit(u *content.Unit, fs *fileScope, ws content.Whitespace) *pxml.Element {
	el := pxml.NewElement(e.ns, "unit")
	el.Set("id", clean(fs.ids[u]))
	el.Set("name", clean(u.Name))
	el.Set("type", clean(u.Type))
	e.nodeAttrs(el, &u.Node)
	e.nodeChildren(el, &u.Node, false)

	us := newUnitScope(u)
	var segments []*pxml.Element
	for _, s := range u.Segments {
		segments = append(segments, e.segment(s, us, fs, ws))
	}
	if len(us.data) > 0 {
		od := el.Elem(e.ns, "originalData")
		for _, d := range us.data {
			de := od.Elem(e.ns, "data")
			de.Preserve = true
			de.Set("id", d.id)
			e.inlineText(de, d.literal)
		}
	}
	for _, s := range segments {
		el.Add(s)
	}
	return el
}

func (e *encoder) segment(s *content.Segment, us *unitScope, fs *fileScope, ws content.Whitespace) *pxml.Element {
	name := "segment"
	if s.Ignorable {
		name = "ignorable"
	}
	el := pxml.NewElement(e.ns, name)
	el.Set("id", clean(s.ID))
	if !s.Ignorable {
		el.Set("canResegment", s.CanResegment.String())
		el.Set("state", string(s.State))
		el.Set("subState", clean(s.SubState))
	}
	el.AddAttrs(s.Other)

	src := el.Elem(e.ns, "source")
	src.Preserve = true
	src.SetNS(pxml.XMLNamespace, "lang", clean(s.SourceLang))
	if s.SourceWhitespace != ws {
		src.SetNS(pxml.XMLNamespace, "space", string(s.SourceWhitespace))
	}
	src.AddAttrs(s.SourceAttrs)
	e.line(src, s.Source, us, us.source, fs)

	if s.Target != nil {
		trg := el.Elem(e.ns, "target")
		trg.Preserve = true
		trg.SetNS(pxml.XMLNamespace, "lang", clean(s.TargetLang))
		if s.TargetWhitespace != ws {
			trg.SetNS(pxml.XMLNamespace, "space", string(s.TargetWhitespace))
		}
		if s.Order > 0 {
			trg.Set("order", strconv.Itoa(s.Order))
		}
		trg.AddAttrs(s.TargetAttrs)
		e.line(trg, s.Target, us, us.target, fs)
	}
	return el
}
