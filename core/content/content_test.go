package content

import (
	"testing"
)

func TestSegmentInitialWithoutTarget(t *testing.T) {
	seg := NewSegment("Hello World")

	if seg.State != StateUnset {
		t.Errorf("State = %q, want unset", seg.State)
	}
	if got := seg.EffectiveState(); got != StateInitial {
		t.Errorf("EffectiveState() = %q, want %q", got, StateInitial)
	}
	if !seg.IsInitial() {
		t.Error("IsInitial() = false, want true")
	}
	if got := seg.SourceText(); got != "Hello World" {
		t.Errorf("SourceText() = %q, want %q", got, "Hello World")
	}
}

func TestSegmentEffectiveState(t *testing.T) {
	tests := []struct {
		name   string
		state  SegmentState
		target string
		want   SegmentState
	}{
		{"no target, recorded final", StateFinal, "", StateInitial},
		{"target, unset", StateUnset, "Hallo", StateInitial},
		{"target, reviewed", StateReviewed, "Hallo", StateReviewed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := NewSegment("Hello")
			if tt.target != "" {
				seg.Target.AppendText(tt.target)
			}
			seg.State = tt.state
			if got := seg.EffectiveState(); got != tt.want {
				t.Errorf("EffectiveState() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetTargetText(t *testing.T) {
	seg := NewSegment("Hello")
	seg.SetTargetText("Hallo")
	if got := seg.TargetText(); got != "Hallo" {
		t.Errorf("TargetText() = %q, want %q", got, "Hallo")
	}
	if seg.State != StateTranslated {
		t.Errorf("State = %q, want %q", seg.State, StateTranslated)
	}

	seg.State = StateFinal
	seg.SetTargetText("Hoi")
	if seg.State != StateFinal {
		t.Errorf("State = %q, want final to be kept", seg.State)
	}
}

func TestSetMetadataUpserts(t *testing.T) {
	var n Node
	n.SetMetadata(nil, "Test", "ok")
	n.SetMetadata(nil, "Test", "ok 2")
	n.SetMetadata([]string{"Blackbird"}, "Test", "ok")
	n.SetMetadata([]string{"Blackbird"}, "Test", "ok 2")

	if len(n.Metadata) != 2 {
		t.Fatalf("len(Metadata) = %d, want 2", len(n.Metadata))
	}
	for _, cat := range [][]string{nil, {"Blackbird"}} {
		v, ok := n.LookupMetadata(cat, "Test")
		if !ok || v != "ok 2" {
			t.Errorf("LookupMetadata(%v) = %q, %v; want %q, true", cat, v, ok, "ok 2")
		}
	}

	if !n.RemoveMetadata(nil, "Test") {
		t.Error("RemoveMetadata() = false, want true")
	}
	if len(n.Metadata) != 1 {
		t.Errorf("len(Metadata) = %d after remove, want 1", len(n.Metadata))
	}
}

func TestMetadataIsGlobal(t *testing.T) {
	if !(Metadata{Category: []string{GlobalCategory, "x"}}).IsGlobal() {
		t.Error("IsGlobal() = false for global category")
	}
	if (Metadata{Category: []string{"x"}}).IsGlobal() {
		t.Error("IsGlobal() = true for local category")
	}
	if !(Note{Category: GlobalCategory}).IsGlobal() {
		t.Error("Note.IsGlobal() = false for global category")
	}
}

func buildLine() Line {
	var l Line
	i := l.AppendStart(Tag{ID: "1", Data: "<b>"}, true)
	l.AppendText("Hello")
	l.AppendEnd(Tag{ID: "1", Data: "</b>"}, i)
	l.AppendText(" ")
	a := l.AppendAnnotationStart(Annotation{ID: "m1", Type: "comment"}, true)
	l.AppendText("world")
	l.AppendAnnotationEnd(a)
	l.AppendInline(Tag{ID: "2", Data: "<br>"})
	return l
}

func TestLineLiteralAndText(t *testing.T) {
	l := buildLine()
	if got, want := l.Literal(), "<b>Hello</b> world<br>"; got != want {
		t.Errorf("Literal() = %q, want %q", got, want)
	}
	if got, want := l.Text(), "Hello world"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if err := l.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if got := l.Partner(0); got != 2 {
		t.Errorf("Partner(0) = %d, want 2", got)
	}
	if got := l.Partner(4); got != 6 {
		t.Errorf("Partner(4) = %d, want 6", got)
	}
}

func TestAppendEndUnmatched(t *testing.T) {
	var l Line
	l.AppendText("x")
	idx := l.AppendEnd(Tag{Data: "</i>"}, 0)
	end := l[idx].(*EndTag)
	if end.Start != -1 {
		t.Errorf("Start = %d, want -1 for end without open start", end.Start)
	}
	if err := l.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestAppendTextMerges(t *testing.T) {
	var l Line
	l.AppendText("a")
	l.AppendText("b")
	l.AppendText("")
	if len(l) != 1 {
		t.Fatalf("len = %d, want 1", len(l))
	}
	if l.Literal() != "ab" {
		t.Errorf("Literal() = %q, want %q", l.Literal(), "ab")
	}
}

func TestLineConcatShiftsPairs(t *testing.T) {
	a := buildLine()
	b := buildLine()
	joined := a.Concat(b)
	if len(joined) != len(a)+len(b) {
		t.Fatalf("len = %d, want %d", len(joined), len(a)+len(b))
	}
	if err := joined.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if got := joined.Partner(len(a)); got != len(a)+2 {
		t.Errorf("Partner(%d) = %d, want %d", len(a), got, len(a)+2)
	}
	// The originals are untouched.
	if a.Partner(0) != 2 || b.Partner(0) != 2 {
		t.Error("Concat() modified its inputs")
	}
}

func TestValidateDetectsBrokenPair(t *testing.T) {
	l := Line{
		&StartTag{End: 1},
		&PlainText{Text: "x"},
	}
	if err := l.Validate(); err == nil {
		t.Error("Validate() = nil, want error for non-symmetric pair")
	}
}

func TestTransformationWalk(t *testing.T) {
	u1 := NewUnit("u1", "one")
	u2 := NewUnit("u2", "two")
	u3 := NewUnit("u3", "three")
	file := &Transformation{
		Children: []UnitGrouping{
			u1,
			&Group{Node: Node{ID: "g1"}, Children: []UnitGrouping{u2, &Group{Children: []UnitGrouping{u3}}}},
		},
	}

	units := file.Units()
	if len(units) != 3 || units[0] != u1 || units[1] != u2 || units[2] != u3 {
		t.Errorf("Units() returned wrong order: %v", units)
	}
	if got := len(file.Groups()); got != 2 {
		t.Errorf("len(Groups()) = %d, want 2", got)
	}
	if file.UnitByID("u2") != u2 {
		t.Error("UnitByID(u2) did not find unit")
	}
	if file.UnitByID("nope") != nil {
		t.Error("UnitByID(nope) != nil")
	}

	u2.Segments[0].SetTargetText("twee")
	p := file.Progress()
	if p.Segments != 3 || p.Initial != 2 || p.Translated != 1 {
		t.Errorf("Progress() = %+v", p)
	}
}

func TestUnitLines(t *testing.T) {
	u := &Unit{Segments: []*Segment{
		NewSegment("Hello."),
		{Source: Line{&PlainText{Text: " "}}, Ignorable: true},
		NewSegment("World."),
	}}
	u.Segments[0].SetTargetText("Hallo.")

	if got, want := u.SourceLine().Literal(), "Hello. World."; got != want {
		t.Errorf("SourceLine() = %q, want %q", got, want)
	}
	if got, want := u.TargetLine().Literal(), "Hallo. World."; got != want {
		t.Errorf("TargetLine() = %q, want %q", got, want)
	}
	if got := len(u.TranslatableSegments()); got != 2 {
		t.Errorf("len(TranslatableSegments()) = %d, want 2", got)
	}
}

func TestSubFlowUnits(t *testing.T) {
	child := NewUnit("u2", "Label")
	parent := &Unit{Node: Node{ID: "u1"}, Segments: []*Segment{{}}}
	parent.Segments[0].Source.AppendText("Press ")
	parent.Segments[0].Source.AppendInline(Tag{Data: "<button>Label</button>", SubFlows: []*Unit{child}})
	file := &Transformation{Children: []UnitGrouping{parent, child}}

	refs := file.SubFlowUnits()
	if !refs[child] || refs[parent] {
		t.Errorf("SubFlowUnits() = %v", refs)
	}
}

func TestFlag(t *testing.T) {
	if ParseFlag("yes") != FlagYes || ParseFlag("no") != FlagNo || ParseFlag("maybe") != FlagUnset {
		t.Error("ParseFlag() mismatch")
	}
	if FlagUnset.Or(true) != true || FlagNo.Or(true) != false {
		t.Error("Or() mismatch")
	}
	if FlagOf(true).String() != "yes" || FlagUnset.String() != "" {
		t.Error("String() mismatch")
	}
}

func TestNestedPairs(t *testing.T) {
	t.Run("proper nesting", func(t *testing.T) {
		l := buildLine()
		nested := l.NestedPairs()
		if !nested[0] || !nested[4] {
			t.Errorf("NestedPairs() = %v, want pairs at 0 and 4 nested", nested)
		}
	})

	t.Run("crossing pairs", func(t *testing.T) {
		var l Line
		a := l.AppendStart(Tag{Data: "<a>"}, true)
		b := l.AppendStart(Tag{Data: "<b>"}, true)
		l.AppendEnd(Tag{Data: "</a>"}, a)
		l.AppendEnd(Tag{Data: "</b>"}, b)
		nested := l.NestedPairs()
		if nested[a] || nested[b] {
			t.Errorf("NestedPairs() = %v, want crossing pairs not nested", nested)
		}
	})

	t.Run("split pair stays split", func(t *testing.T) {
		var l Line
		a := l.AppendStart(Tag{Data: "<a>"}, false)
		l.AppendEnd(Tag{Data: "</a>"}, a)
		if l.NestedPairs()[a] {
			t.Error("NestedPairs() reported a split pair as nested")
		}
	})
}
