package xliff2

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/errors"
	"github.com/google/go-cmp/cmp"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" xmlns:mda="urn:oasis:names:tc:xliff:metadata:2.0"
  xmlns:fs="urn:oasis:names:tc:xliff:fs:2.0" xmlns:its="http://www.w3.org/2005/11/its"
  xmlns:slr="urn:oasis:names:tc:xliff:sizerestriction:2.0" xmlns:ext="urn:example:ext"
  version="2.1" srcLang="en" trgLang="de" its:version="2.0">
  <file id="f1" original="index.html" translate="yes" its:person="Ann" ext:flag="on">
    <skeleton>&lt;p&gt;skeleton&lt;/p&gt;</skeleton>
    <mda:metadata>
      <mda:metaGroup category="poly:global">
        <mda:meta type="project">Demo</mda:meta>
      </mda:metaGroup>
      <mda:metaGroup>
        <mda:meta type="Test">ok</mda:meta>
      </mda:metaGroup>
    </mda:metadata>
    <ext:custom a="1"><ext:item>kept</ext:item></ext:custom>
    <notes>
      <note id="n1" category="review" priority="2">Check this</note>
    </notes>
    <group id="g1" name="main" slr:sizeRestriction="40">
      <unit id="u1" name="/p[1]" fs:fs="p" fs:subFs="class,intro">
        <originalData>
          <data id="d1">&lt;b&gt;</data>
          <data id="d2">&lt;/b&gt;</data>
          <data id="d3">&lt;br/&gt;</data>
        </originalData>
        <segment id="s1" state="translated">
          <source>Hello <pc id="1" dataRefStart="d1" dataRefEnd="d2" type="fmt">bold</pc> text<ph id="2" dataRef="d3"/>.</source>
          <target>Hallo <pc id="1" dataRefStart="d1" dataRefEnd="d2" type="fmt">fett</pc> Text<ph id="2" dataRef="d3"/>.</target>
        </segment>
        <ignorable>
          <source> </source>
        </ignorable>
        <segment id="s2">
          <source><sc id="3" type="fmt"/>Split<mrk id="m1" type="comment" value="note">term</mrk><ec startRef="3"/> <sm id="m2" type="term"/>a<em startRef="m2"/><cp hex="0001"/></source>
        </segment>
      </unit>
    </group>
    <unit id="u2" xml:space="preserve">
      <segment>
        <source>  spaced  </source>
      </segment>
    </unit>
  </file>
</xliff>`

func mustUnmarshal(t *testing.T, data string) *Package {
	t.Helper()
	pkg, err := Unmarshal([]byte(data))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return pkg
}

func mustMarshal(t *testing.T, files []*content.Transformation, opts Options) string {
	t.Helper()
	out, err := Marshal(files, opts)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return string(out)
}

func TestUnmarshalSample(t *testing.T) {
	pkg := mustUnmarshal(t, sample)
	if pkg.Version != Version21 {
		t.Errorf("Version = %q, want 2.1", pkg.Version)
	}
	if len(pkg.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(pkg.Files))
	}
	f := pkg.Files[0]

	if f.SourceLanguage != "en" || f.TargetLanguage != "de" {
		t.Errorf("languages = %q/%q, want en/de", f.SourceLanguage, f.TargetLanguage)
	}
	if f.OriginalReference != "index.html" || f.Original != "<p>skeleton</p>" {
		t.Errorf("original = %q, skeleton = %q", f.OriginalReference, f.Original)
	}
	if f.Provenance == nil || f.Provenance.Person != "Ann" {
		t.Errorf("Provenance = %+v, want person Ann", f.Provenance)
	}
	if v, ok := f.OtherAttr("urn:example:ext", "flag"); !ok || v != "on" {
		t.Errorf("OtherAttr(ext:flag) = %q, %v", v, ok)
	}
	if len(f.Extensions) != 1 || f.Extensions[0].Name != "custom" || f.Extensions[0].InnerText() != "kept" {
		t.Errorf("Extensions = %+v", f.Extensions)
	}
	if v, ok := f.LookupMetadata([]string{content.GlobalCategory}, "project"); !ok || v != "Demo" {
		t.Errorf("global metadata = %q, %v", v, ok)
	}
	if v, ok := f.LookupMetadata(nil, "Test"); !ok || v != "ok" {
		t.Errorf("metadata Test = %q, %v", v, ok)
	}
	if len(f.Notes) != 1 || f.Notes[0].Priority != 2 || f.Notes[0].Text != "Check this" {
		t.Errorf("Notes = %+v", f.Notes)
	}

	g := f.Children[0].(*content.Group)
	if g.SizeRestrictions == nil || g.SizeRestrictions.SizeRestriction != "40" {
		t.Errorf("group SizeRestrictions = %+v", g.SizeRestrictions)
	}
	u := g.Children[0].(*content.Unit)
	if u.FormatStyle == nil || u.FormatStyle.Name != "p" {
		t.Fatalf("unit FormatStyle = %+v", u.FormatStyle)
	}
	if v, _ := u.FormatStyle.Attr("class"); v != "intro" {
		t.Errorf("FormatStyle class = %q, want intro", v)
	}
	if len(u.Segments) != 3 {
		t.Fatalf("len(Segments) = %d, want 3", len(u.Segments))
	}
	if !u.Segments[1].Ignorable {
		t.Error("second segment is not ignorable")
	}

	s1 := u.Segments[0]
	if got, want := s1.Source.Literal(), "Hello <b>bold</b> text<br/>."; got != want {
		t.Errorf("source literal = %q, want %q", got, want)
	}
	if got, want := s1.Target.Literal(), "Hallo <b>fett</b> Text<br/>."; got != want {
		t.Errorf("target literal = %q, want %q", got, want)
	}
	if s1.State != content.StateTranslated {
		t.Errorf("State = %q, want translated", s1.State)
	}

	s2 := u.Segments[2]
	if err := s2.Source.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	sc := s2.Source[0].(*content.StartTag)
	if sc.WellFormed || sc.End < 0 {
		t.Errorf("sc = {End: %d, WellFormed: %v}, want paired split", sc.End, sc.WellFormed)
	}
	if got, want := s2.Source.Text(), "Splitterm a\x01"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
	if s2.State != content.StateUnset || !s2.IsInitial() {
		t.Errorf("State = %q, IsInitial = %v", s2.State, s2.IsInitial())
	}

	u2 := f.Children[1].(*content.Unit)
	if u2.Whitespace != content.WhitespacePreserve || u2.Segments[0].SourceWhitespace != content.WhitespacePreserve {
		t.Errorf("whitespace = %q/%q, want preserve", u2.Whitespace, u2.Segments[0].SourceWhitespace)
	}
	if got := u2.Segments[0].SourceText(); got != "  spaced  " {
		t.Errorf("source = %q, want whitespace kept", got)
	}
	if s1.SourceWhitespace != content.WhitespaceDefault {
		t.Errorf("inherited whitespace = %q, want default", s1.SourceWhitespace)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, v := range []Version{Version20, Version21, Version22} {
		t.Run(string(v), func(t *testing.T) {
			first := mustUnmarshal(t, sample)
			out := mustMarshal(t, first.Files, Options{Version: v, Indent: "  "})
			second := mustUnmarshal(t, out)

			if second.Version != v {
				t.Errorf("Version = %q, want %q", second.Version, v)
			}
			if diff := cmp.Diff(first.Files, second.Files); diff != "" {
				t.Errorf("round trip mismatch (-first +second):\n%s", diff)
			}
		})
	}
}

func TestMarshalTwoSegments(t *testing.T) {
	u := &content.Unit{Node: content.Node{ID: "u1"}, Segments: []*content.Segment{
		content.NewSegment("First sentence."),
		content.NewSegment("Second sentence."),
	}}
	u.Segments[1].SetTargetText("Zweiter Satz.")
	u.Segments[1].Order = 1
	f := &content.Transformation{SourceLanguage: "en", Children: []content.UnitGrouping{u}}

	out := mustMarshal(t, []*content.Transformation{f}, Options{})
	if !strings.Contains(out, `order="1"`) {
		t.Errorf("missing target order\n%s", out)
	}
	if got := strings.Count(out, "<segment"); got != 2 {
		t.Errorf("segment elements = %d, want 2\n%s", got, out)
	}
	if got := strings.Count(out, "<unit "); got != 1 {
		t.Errorf("unit elements = %d, want 1", got)
	}

	back := mustUnmarshal(t, out).Files[0].Units()[0]
	if len(back.Segments) != 2 {
		t.Fatalf("len(Segments) = %d, want 2", len(back.Segments))
	}
	for i, want := range []string{"First sentence.", "Second sentence."} {
		if got := back.Segments[i].SourceText(); got != want {
			t.Errorf("segment %d = %q, want %q", i, got, want)
		}
	}
	if got := back.Segments[1].Order; got != 1 {
		t.Errorf("Order = %d, want 1", got)
	}
}

func TestPairedCodeStaysPaired(t *testing.T) {
	doc := `<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="2.0" srcLang="en">
<file id="f1"><unit id="u1"><segment><source>A <pc id="1">bold</pc> word</source></segment></unit></file></xliff>`

	pkg := mustUnmarshal(t, doc)
	line := pkg.Files[0].Units()[0].Segments[0].Source
	start, ok := line[1].(*content.StartTag)
	if !ok || !start.WellFormed || start.End != 3 {
		t.Fatalf("line[1] = %+v, want well-formed start paired with 3", line[1])
	}
	if end := line[3].(*content.EndTag); end.Start != 1 {
		t.Errorf("end.Start = %d, want 1", end.Start)
	}

	out := mustMarshal(t, pkg.Files, Options{Version: Version22})
	if !strings.Contains(out, `<pc id="1">bold</pc>`) {
		t.Errorf("output lacks pc:\n%s", out)
	}
	if strings.Contains(out, "<sc") || strings.Contains(out, "<ec") {
		t.Errorf("output split the pair:\n%s", out)
	}
	if !strings.Contains(out, NamespaceCore22) {
		t.Errorf("output lacks 2.2 namespace:\n%s", out)
	}
}

func TestSplitPairs(t *testing.T) {
	t.Run("not well-formed", func(t *testing.T) {
		var l content.Line
		i := l.AppendStart(content.Tag{ID: "1", Data: "<a>"}, false)
		l.AppendText("x")
		l.AppendEnd(content.Tag{ID: "1", Data: "</a>"}, i)
		f := &content.Transformation{Children: []content.UnitGrouping{
			&content.Unit{Node: content.Node{ID: "u1"}, Segments: []*content.Segment{{Source: l}}},
		}}
		out := mustMarshal(t, []*content.Transformation{f}, Options{})
		if !strings.Contains(out, `<sc id="1" dataRef="d1"/>x<ec startRef="1" dataRef="d2"/>`) {
			t.Errorf("output = %s", out)
		}
	})

	t.Run("across segments", func(t *testing.T) {
		doc := `<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="2.0" srcLang="en">
<file id="f1"><unit id="u1">
<segment><source><sc id="1"/>a</source></segment>
<segment><source>b<ec startRef="1"/></source></segment>
</unit></file></xliff>`
		pkg := mustUnmarshal(t, doc)
		segs := pkg.Files[0].Units()[0].Segments
		if st := segs[0].Source[0].(*content.StartTag); st.End != -1 {
			t.Errorf("start End = %d, want -1", st.End)
		}
		if et := segs[1].Source[1].(*content.EndTag); et.Start != -1 || et.ID != "1" {
			t.Errorf("end = {Start: %d, ID: %q}", et.Start, et.ID)
		}
		out := mustMarshal(t, pkg.Files, Options{})
		if strings.Contains(out, "isolated") {
			t.Errorf("cross-segment pair written as isolated:\n%s", out)
		}
		if !strings.Contains(out, `<ec startRef="1"/>`) {
			t.Errorf("output lacks ec startRef:\n%s", out)
		}
	})

	t.Run("isolated", func(t *testing.T) {
		var l content.Line
		l.AppendStart(content.Tag{Data: "<a>"}, true)
		l.AppendText("x")
		l.AppendEnd(content.Tag{Data: "</b>"}, -1)
		f := &content.Transformation{Children: []content.UnitGrouping{
			&content.Unit{Segments: []*content.Segment{{Source: l}}},
		}}
		out := mustMarshal(t, []*content.Transformation{f}, Options{})
		if got := strings.Count(out, `isolated="yes"`); got != 2 {
			t.Errorf("isolated count = %d, want 2\n%s", got, out)
		}
		back := mustUnmarshal(t, out).Files[0].Units()[0].Segments[0].Source
		if back.Literal() != "<a>x</b>" {
			t.Errorf("literal = %q", back.Literal())
		}
	})
}

func TestIDSynthesis(t *testing.T) {
	var l content.Line
	l.AppendInline(content.Tag{ID: "1", Data: "<br>"})
	i := l.AppendStart(content.Tag{Data: "<b>"}, true)
	l.AppendText("x")
	l.AppendEnd(content.Tag{Data: "</b>"}, i)
	a := l.AppendAnnotationStart(content.Annotation{Type: "comment"}, true)
	l.AppendText("y")
	l.AppendAnnotationEnd(a)

	first := &content.Unit{Segments: []*content.Segment{{Source: l}}}
	f := &content.Transformation{
		Children: []content.UnitGrouping{
			first,
			content.NewUnit("u1", "two"),
			&content.Group{Children: []content.UnitGrouping{content.NewUnit("", "three")}},
		},
	}
	literal := &content.Transformation{Node: content.Node{ID: "f1"}}

	out := mustMarshal(t, []*content.Transformation{f, literal}, Options{})
	for _, want := range []string{
		`<file id="f2"`, `<file id="f1"`,
		`<unit id="u2"`, `<unit id="u1"`, `<group id="g1"`, `<unit id="u3"`,
		`<ph id="1"`, `<pc id="2"`, `<mrk id="m1"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %s\n%s", want, out)
		}
	}

	// The model is not modified.
	if first.ID != "" || f.ID != "" {
		t.Error("Marshal() assigned ids in the caller's model")
	}

	pkg := mustUnmarshal(t, out)
	var ids []string
	for _, u := range pkg.Files[0].Units() {
		ids = append(ids, u.ID)
	}
	if diff := cmp.Diff([]string{"u2", "u1", "u3"}, ids); diff != "" {
		t.Errorf("unit ids mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidCharacters(t *testing.T) {
	var l content.Line
	l.AppendText("a\x01b")
	l.AppendInline(content.Tag{Data: "\x02"})
	u := &content.Unit{Name: "bad\x03name", Segments: []*content.Segment{{Source: l}}}
	f := &content.Transformation{Children: []content.UnitGrouping{u}}

	out := mustMarshal(t, []*content.Transformation{f}, Options{})
	for _, want := range []string{`a<cp hex="0001"/>b`, `<data id="d1"><cp hex="0002"/></data>`, `name="badname"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %s\n%s", want, out)
		}
	}

	back := mustUnmarshal(t, out).Files[0].Units()[0].Segments[0].Source
	if got, want := back.Literal(), "a\x01b\x02"; got != want {
		t.Errorf("literal = %q, want %q", got, want)
	}
}

func globalFile(id string) *content.Transformation {
	f := &content.Transformation{Node: content.Node{ID: id}, SourceLanguage: "en"}
	f.SetMetadata([]string{content.GlobalCategory}, "project", "Demo")
	f.SetMetadata(nil, "local", id)
	f.AddNote(content.Note{Text: "shared", Category: content.GlobalCategory})
	f.Children = []content.UnitGrouping{content.NewUnit("u1", "x")}
	return f
}

func TestGlobalHoisting(t *testing.T) {
	files := []*content.Transformation{globalFile("a"), globalFile("b")}

	tests := []struct {
		version Version
		count   int
	}{
		{Version20, 2},
		{Version21, 2},
		{Version22, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.version), func(t *testing.T) {
			out := mustMarshal(t, files, Options{Version: tt.version})
			if got := strings.Count(out, `type="project"`); got != tt.count {
				t.Errorf("project metadata written %d times, want %d\n%s", got, tt.count, out)
			}
			if got := strings.Count(out, `>shared</note>`); got != tt.count {
				t.Errorf("global note written %d times, want %d", got, tt.count)
			}
			if tt.version == Version22 && strings.Index(out, `type="project"`) > strings.Index(out, "<file") {
				t.Error("global metadata not written at package scope")
			}

			for _, f := range mustUnmarshal(t, out).Files {
				if v, ok := f.LookupMetadata([]string{content.GlobalCategory}, "project"); !ok || v != "Demo" {
					t.Errorf("file %s global metadata = %q, %v", f.ID, v, ok)
				}
				if v, _ := f.LookupMetadata(nil, "local"); v != f.ID {
					t.Errorf("file %s local metadata = %q", f.ID, v)
				}
				if len(f.Notes) != 1 {
					t.Errorf("file %s notes = %d, want 1", f.ID, len(f.Notes))
				}
			}
		})
	}
}

func TestPackageScopeRoundTrip(t *testing.T) {
	doc := `<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" xmlns:mda="urn:oasis:names:tc:xliff:metadata:2.0" version="2.2" srcLang="en">
<mda:metadata><mda:metaGroup category="project"><mda:meta type="name">Demo</mda:meta></mda:metaGroup></mda:metadata>
<notes><note>root note</note><note category="tips">read me</note></notes>
<file id="f1"><unit id="u1"><segment><source>a</source></segment></unit></file>
<file id="f2"><notes><note>local</note></notes><unit id="u1"><segment><source>b</source></segment></unit></file>
</xliff>`
	first := mustUnmarshal(t, doc)
	for _, f := range first.Files {
		if v, ok := f.LookupMetadata([]string{content.GlobalCategory, "project"}, "name"); !ok || v != "Demo" {
			t.Errorf("file %s package metadata = %q, %v", f.ID, v, ok)
		}
		if len(f.Notes) < 2 || !f.Notes[0].IsGlobal() || !f.Notes[1].IsGlobal() {
			t.Errorf("file %s notes = %+v, want package notes marked global", f.ID, f.Notes)
		}
	}

	out := mustMarshal(t, first.Files, Options{Version: Version22})
	fileAt := strings.Index(out, "<file")
	for _, want := range []string{`>root note</note>`, `category="tips"`, `type="name"`, `category="project"`} {
		if got := strings.Count(out, want); got != 1 {
			t.Errorf("%s written %d times, want 1\n%s", want, got, out)
		}
		if strings.Index(out, want) > fileAt {
			t.Errorf("%s not written at package scope\n%s", want, out)
		}
	}
	if strings.Contains(out, content.GlobalCategory) {
		t.Errorf("global marker leaked into output:\n%s", out)
	}
	if !strings.Contains(out, `>local</note>`) {
		t.Errorf("file note lost:\n%s", out)
	}

	second := mustUnmarshal(t, out)
	if diff := cmp.Diff(first.Files, second.Files); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
	if again := mustMarshal(t, second.Files, Options{Version: Version22}); again != out {
		t.Errorf("second serialization differs:\n%s\n---\n%s", out, again)
	}
}

func TestRootNotesIgnoredBefore22(t *testing.T) {
	doc := `<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="2.1" srcLang="en">
<notes><note category="poly:global">root</note></notes>
<file id="f1"><unit id="u1"><segment><source>x</source></segment></unit></file></xliff>`
	if notes := mustUnmarshal(t, doc).Files[0].Notes; len(notes) != 0 {
		t.Errorf("Notes = %+v, want none at 2.1", notes)
	}
}

func TestOriginalDataDeduplicated(t *testing.T) {
	var l content.Line
	l.AppendText("a")
	l.AppendInline(content.Tag{Data: "<br/>"})
	l.AppendText("b")
	l.AppendInline(content.Tag{Data: "<br/>"})
	l.AppendInline(content.Tag{Data: "<hr/>"})
	seg := &content.Segment{Source: l}
	seg.SetTarget(l)
	f := &content.Transformation{Children: []content.UnitGrouping{
		&content.Unit{Segments: []*content.Segment{seg}},
	}}

	out := mustMarshal(t, []*content.Transformation{f}, Options{})
	if got := strings.Count(out, "<data "); got != 2 {
		t.Errorf("data elements = %d, want 2\n%s", got, out)
	}
	if got := strings.Count(out, `dataRef="d1"`); got != 4 {
		t.Errorf(`dataRef="d1" count = %d, want 4`, got)
	}
}

func TestMetadataCategories(t *testing.T) {
	f := &content.Transformation{Children: []content.UnitGrouping{content.NewUnit("u1", "x")}}
	f.SetMetadata(nil, "Test", "ok")
	f.SetMetadata(nil, "Test", "ok 2")
	f.SetMetadata([]string{"Blackbird"}, "Test", "ok")
	f.SetMetadata([]string{"Blackbird"}, "Test", "ok 2")
	f.SetMetadata([]string{"Blackbird", "Wing"}, "Span", "2m")

	out := mustMarshal(t, []*content.Transformation{f}, Options{})
	if !strings.Contains(out, `<mda:metaGroup category="Blackbird"><mda:meta type="Test">ok 2</mda:meta><mda:metaGroup category="Wing">`) {
		t.Errorf("nested metaGroups missing:\n%s", out)
	}

	back := mustUnmarshal(t, out).Files[0]
	if diff := cmp.Diff(f.Metadata, back.Metadata); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestSubFlows(t *testing.T) {
	doc := `<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="2.0" srcLang="en">
<file id="f1">
<unit id="u1"><originalData><data id="d1">&lt;button&gt;Save&lt;/button&gt;</data></originalData>
<segment><source>Press <ph id="1" dataRef="d1" subFlows="u2 missing"/></source></segment></unit>
<unit id="u2"><segment><source>Save</source></segment></unit>
</file></xliff>`

	f := mustUnmarshal(t, doc).Files[0]
	units := f.Units()
	ph := units[0].Segments[0].Source[1].(*content.InlineTag)
	if len(ph.SubFlows) != 1 || ph.SubFlows[0] != units[1] {
		t.Fatalf("SubFlows = %v, want [u2]", ph.SubFlows)
	}
	if refs := f.SubFlowUnits(); !refs[units[1]] {
		t.Error("SubFlowUnits() misses u2")
	}

	out := mustMarshal(t, []*content.Transformation{f}, Options{})
	if !strings.Contains(out, `subFlows="u2 missing"`) {
		t.Errorf("output lacks subFlows:\n%s", out)
	}
}

func TestRequiredAttributes(t *testing.T) {
	wrap := func(body string) string {
		return `<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="2.0" srcLang="en">` + body + `</xliff>`
	}
	tests := []struct {
		name    string
		doc     string
		element string
	}{
		{"file", wrap(`<file><unit id="u1"><segment><source>x</source></segment></unit></file>`), "file"},
		{"group", wrap(`<file id="f1"><group><unit id="u1"><segment><source>x</source></segment></unit></group></file>`), "group"},
		{"unit", wrap(`<file id="f1"><unit><segment><source>x</source></segment></unit></file>`), "unit"},
		{"pc", wrap(`<file id="f1"><unit id="u1"><segment><source><pc>x</pc></source></segment></unit></file>`), "pc"},
		{"ph", wrap(`<file id="f1"><unit id="u1"><segment><source><ph/></source></segment></unit></file>`), "ph"},
		{"mrk", wrap(`<file id="f1"><unit id="u1"><segment><source><mrk>x</mrk></source></segment></unit></file>`), "mrk"},
		{"version", `<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0"/>`, "xliff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.doc))
			var missing *errors.RequiredAttributeMissingError
			if !errors.As(err, &missing) {
				t.Fatalf("Unmarshal() error = %v, want RequiredAttributeMissingError", err)
			}
			if missing.Element != tt.element {
				t.Errorf("Element = %q, want %q", missing.Element, tt.element)
			}
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Error("error does not unwrap to ErrInvalidInput")
			}
		})
	}

	t.Run("optional ids default", func(t *testing.T) {
		doc := wrap(`<file id="f1"><unit id="u1"><segment><source>x<ec isolated="yes"/></source></segment></unit></file>`)
		if _, err := Unmarshal([]byte(doc)); err != nil {
			t.Errorf("Unmarshal() error = %v", err)
		}
	})
}

func TestUnsupported(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"xliff 1.2", `<xliff xmlns="urn:oasis:names:tc:xliff:document:1.2" version="1.2"/>`},
		{"future version", `<xliff xmlns="urn:oasis:names:tc:xliff:document:2.0" version="3.0"/>`},
		{"html", `<html><body/></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.doc))
			var unsupported *errors.UnsupportedFormatError
			if !errors.As(err, &unsupported) {
				t.Errorf("Unmarshal() error = %v, want UnsupportedFormatError", err)
			}
		})
	}

	var parseErr *errors.ParseError
	if _, err := Unmarshal([]byte("<xliff><file></xliff>")); !errors.As(err, &parseErr) {
		t.Errorf("Unmarshal(malformed) error = %v, want ParseError", err)
	}
	if _, err := Marshal(nil, Options{Version: "1.2"}); err == nil {
		t.Error("Marshal() accepted version 1.2")
	}
}

func TestSubFs(t *testing.T) {
	tests := []struct {
		raw  string
		want []content.StyleAttr
	}{
		{`class,intro`, []content.StyleAttr{{Name: "class", Value: "intro"}}},
		{`href,a\,b\style,x\\y`, []content.StyleAttr{{Name: "href", Value: "a,b"}, {Name: "style", Value: `x\y`}}},
		{`disabled`, []content.StyleAttr{{Name: "disabled"}}},
	}
	for _, tt := range tests {
		got := parseSubFs(tt.raw)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseSubFs(%q) mismatch (-want +got):\n%s", tt.raw, diff)
		}
	}

	attrs := []content.StyleAttr{{Name: "href", Value: "a,b"}, {Name: "style", Value: `x\y`}}
	if got := parseSubFs(formatSubFs(attrs)); !cmp.Equal(attrs, got) {
		t.Errorf("formatSubFs() does not round trip: %v", got)
	}
}

func TestPerFileLanguages(t *testing.T) {
	a := &content.Transformation{SourceLanguage: "en", TargetLanguage: "de",
		Children: []content.UnitGrouping{content.NewUnit("u1", "x")}}
	b := &content.Transformation{SourceLanguage: "en", TargetLanguage: "fr",
		Children: []content.UnitGrouping{content.NewUnit("u1", "y")}}

	pkg := mustUnmarshal(t, mustMarshal(t, []*content.Transformation{a, b}, Options{}))
	if got := pkg.Files[1].TargetLanguage; got != "fr" {
		t.Errorf("second file TargetLanguage = %q, want fr", got)
	}
	if got := pkg.Files[0].TargetLanguage; got != "de" {
		t.Errorf("first file TargetLanguage = %q, want de", got)
	}
}
