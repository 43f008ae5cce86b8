package coded

import (
	"testing"

	"github.com/FocuswithJustin/Polyglot/core/content"
)

func italicBold() *Content {
	c := &Content{Reference: "/p[1]"}
	i := c.Open("<i>", &content.FormatStyle{Name: "i"})
	c.AddText("Hello")
	c.Close(i, "</i>")
	b := c.Open("<b>", &content.FormatStyle{Name: "b"})
	c.AddText("world")
	c.Close(b, "</b>")
	return c
}

func TestContentLiteral(t *testing.T) {
	c := italicBold()
	if len(c.Parts) != 6 {
		t.Fatalf("len(Parts) = %d, want 6", len(c.Parts))
	}
	if got, want := c.Literal(), "<i>Hello</i><b>world</b>"; got != want {
		t.Errorf("Literal() = %q, want %q", got, want)
	}
	if got, want := c.Text(), "Helloworld"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestToLinePreservesLiteral(t *testing.T) {
	c := italicBold()
	line := ToLine(c.Parts, nil)

	if len(line) != 6 {
		t.Fatalf("len(line) = %d, want 6", len(line))
	}
	if got := line.Literal(); got != c.Literal() {
		t.Errorf("Literal() = %q, want %q", got, c.Literal())
	}
	if err := line.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	for _, i := range []int{0, 3} {
		st, ok := line[i].(*content.StartTag)
		if !ok {
			t.Fatalf("line[%d] = %T, want *StartTag", i, line[i])
		}
		if st.End != i+2 || !st.WellFormed {
			t.Errorf("line[%d] = {End: %d, WellFormed: %v}, want {%d, true}", i, st.End, st.WellFormed, i+2)
		}
	}

	back := FromLine(line, nil)
	rebuilt := &Content{Parts: back}
	if got := rebuilt.Literal(); got != c.Literal() {
		t.Errorf("FromLine() literal = %q, want %q", got, c.Literal())
	}
	open, ok := back[0].(*Code)
	if !ok || open.Kind != Opening || open.Pair != back[2] {
		t.Errorf("FromLine()[0] not paired with [2]: %+v", back[0])
	}
	if open.Style == nil || open.Style.Name != "i" {
		t.Errorf("FromLine()[0].Style = %+v, want name i", open.Style)
	}
}

func TestToLineUnmatched(t *testing.T) {
	tests := []struct {
		name  string
		parts func() []Part
		kinds []string
	}{
		{
			name: "closing without opening",
			parts: func() []Part {
				return []Part{Text("a"), &Code{Kind: Closing, Data: "</b>"}}
			},
			kinds: []string{"text", "inline"},
		},
		{
			name: "opening never closed",
			parts: func() []Part {
				return []Part{&Code{Kind: Opening, Data: "<b>"}, Text("a")}
			},
			kinds: []string{"inline", "text"},
		},
		{
			name: "closing paired with foreign code",
			parts: func() []Part {
				other := &Code{Kind: Opening, Data: "<i>"}
				return []Part{Text("a"), &Code{Kind: Closing, Data: "</i>", Pair: other}}
			},
			kinds: []string{"text", "inline"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := tt.parts()
			line := ToLine(parts, nil)
			if len(line) != len(tt.kinds) {
				t.Fatalf("len(line) = %d, want %d", len(line), len(tt.kinds))
			}
			for i, want := range tt.kinds {
				if got := kindOf(line[i]); got != want {
					t.Errorf("line[%d] = %s, want %s", i, got, want)
				}
			}
			if got, want := line.Literal(), (&Content{Parts: parts}).Literal(); got != want {
				t.Errorf("Literal() = %q, want %q", got, want)
			}
		})
	}
}

func kindOf(e content.LineElement) string {
	switch e.(type) {
	case *content.PlainText:
		return "text"
	case *content.StartTag:
		return "start"
	case *content.EndTag:
		return "end"
	case *content.InlineTag:
		return "inline"
	}
	return "annotation"
}

func TestToLineCrossingPairsNotWellFormed(t *testing.T) {
	a := &Code{Kind: Opening, Data: "<a>"}
	b := &Code{Kind: Opening, Data: "<b>"}
	ae := &Code{Kind: Closing, Data: "</a>", Pair: a}
	be := &Code{Kind: Closing, Data: "</b>", Pair: b}
	a.Pair, b.Pair = ae, be

	line := ToLine([]Part{a, b, Text("x"), ae, be}, nil)
	if err := line.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	for _, i := range []int{0, 1} {
		if line[i].(*content.StartTag).WellFormed {
			t.Errorf("line[%d].WellFormed = true, want false for crossing pairs", i)
		}
	}
}

func TestMarks(t *testing.T) {
	m := &Mark{Kind: Opening, Type: "comment", Value: "check"}
	parts := []Part{m, Text("term"), &Mark{Kind: Closing, Pair: m}, &Mark{Kind: Closing}}
	line := ToLine(parts, nil)
	if len(line) != 3 {
		t.Fatalf("len(line) = %d, want 3 (stray closing mark dropped)", len(line))
	}
	as, ok := line[0].(*content.AnnotationStart)
	if !ok || as.End != 2 || as.Type != "comment" || as.Value != "check" {
		t.Errorf("line[0] = %+v", line[0])
	}

	back := FromLine(line, nil)
	if len(back) != 3 {
		t.Fatalf("len(FromLine()) = %d, want 3", len(back))
	}
	if open := back[0].(*Mark); open.Pair != back[2] {
		t.Error("FromLine() did not pair marks")
	}
}

func TestUnitsWithSubFlows(t *testing.T) {
	child := &Content{Reference: "/p[1]/button[1]", SubFlow: true}
	child.AddText("Save")
	parent := &Content{Reference: "/p[1]"}
	parent.AddText("Press ")
	ph := parent.Placeholder(`<button>Save</button>`)
	ph.SubFlows = []*Content{child}

	units := ToUnits([]*Content{parent, child})
	if len(units) != 2 {
		t.Fatalf("len(units) = %d, want 2", len(units))
	}
	if units[0].Name != "/p[1]" {
		t.Errorf("units[0].Name = %q, want /p[1]", units[0].Name)
	}
	tag, ok := units[0].Segments[0].Source[1].(*content.InlineTag)
	if !ok || len(tag.SubFlows) != 1 || tag.SubFlows[0] != units[1] {
		t.Fatalf("sub-flow not resolved: %+v", units[0].Segments[0].Source[1])
	}

	units[1].Segments[0].SetTargetText("Speichern")
	back := FromUnits(units, true)
	if back[0].SubFlow || !back[1].SubFlow {
		t.Errorf("SubFlow = %v, %v; want false, true", back[0].SubFlow, back[1].SubFlow)
	}
	code := back[0].Parts[1].(*Code)
	if len(code.SubFlows) != 1 || code.SubFlows[0] != back[1] {
		t.Fatal("FromUnits() did not resolve sub-flow")
	}
	if got := back[1].Text(); got != "Speichern" {
		t.Errorf("sub-flow text = %q, want Speichern", got)
	}
	if got := back[0].Text(); got != "Press " {
		t.Errorf("parent text = %q, want source fallback %q", got, "Press ")
	}
}

func TestTrimSpace(t *testing.T) {
	c := &Content{}
	c.AddText("  \n")
	open := c.Open("<b>", nil)
	c.AddText(" Hi ")
	c.Close(open, "</b>")
	c.AddText(" \t")
	c.TrimSpace()

	if got, want := c.Literal(), "<b> Hi </b>"; got != want {
		t.Errorf("Literal() = %q, want %q", got, want)
	}

	c = &Content{}
	c.AddText("  x  ")
	c.TrimSpace()
	if got := c.Literal(); got != "x" {
		t.Errorf("Literal() = %q, want %q", got, "x")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Opening, "opening"},
		{Closing, "closing"},
		{Standalone, "standalone"},
		{Kind(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
