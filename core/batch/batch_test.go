package batch

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/errors"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
	"github.com/google/go-cmp/cmp"
)

func sampleFile() *content.Transformation {
	skipped := &content.Group{Node: content.Node{ID: "g1", Translate: content.FlagNo}}
	skipped.Children = []content.UnitGrouping{
		content.NewUnit("u2", "inherited no"),
		&content.Unit{Node: content.Node{ID: "u3", Translate: content.FlagYes}, Segments: []*content.Segment{content.NewSegment("override yes")}},
	}

	done := content.NewUnit("u4", "done")
	done.Segments[0].SetTargetText("fertig")

	multi := &content.Unit{Node: content.Node{ID: "u5"}, Segments: []*content.Segment{
		content.NewSegment("First."),
		{Source: content.Line{&content.PlainText{Text: " "}}, Ignorable: true},
		content.NewSegment("Second."),
	}}

	coded := &content.Unit{Node: content.Node{ID: "u6"}}
	seg := &content.Segment{}
	seg.Source.AppendText("bold ")
	start := seg.Source.AppendStart(content.Tag{ID: "1", Data: "<b>"}, true)
	seg.Source.AppendText("text")
	seg.Source.AppendEnd(content.Tag{ID: "1", Data: "</b>"}, start)
	coded.Segments = []*content.Segment{seg}

	f := &content.Transformation{SourceLanguage: "en", TargetLanguage: "de"}
	f.Children = []content.UnitGrouping{
		content.NewUnit("u1", "Hello"),
		skipped,
		done,
		multi,
		coded,
		content.NewUnit("u7", "   "),
	}
	return f
}

func texts(items []Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Text())
	}
	return out
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all", filter: nil, want: []string{"Hello", "override yes", "done", "First.", "Second.", "bold text"}},
		{name: "untranslated", filter: Untranslated, want: []string{"Hello", "override yes", "First.", "Second.", "bold text"}},
		{name: "plain untranslated", filter: PlainOnly(Untranslated), want: []string{"Hello", "override yes", "First.", "Second."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(Collect([]*content.Transformation{sampleFile()}, tt.filter))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Collect() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollectFileTranslateNo(t *testing.T) {
	f := sampleFile()
	f.Translate = content.FlagNo
	got := texts(Collect([]*content.Transformation{f}, nil))
	if diff := cmp.Diff([]string{"override yes"}, got); diff != "" {
		t.Errorf("Collect() mismatch (-want +got):\n%s", diff)
	}
}

func itemsOf(ss ...string) []Item {
	var out []Item
	for _, s := range ss {
		out = append(out, Item{Segment: content.NewSegment(s)})
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		items  []Item
		limits Limits
		want   [][]string
	}{
		{name: "unbounded", items: itemsOf("a", "b", "c"), want: [][]string{{"a", "b", "c"}}},
		{name: "max items", items: itemsOf("a", "b", "c"), limits: Limits{MaxItems: 2}, want: [][]string{{"a", "b"}, {"c"}}},
		{name: "max chars", items: itemsOf("aaa", "bb", "c", "dddd"), limits: Limits{MaxChars: 4}, want: [][]string{{"aaa"}, {"bb", "c"}, {"dddd"}}},
		{name: "oversized item", items: itemsOf("a", "toolong", "b"), limits: Limits{MaxChars: 3}, want: [][]string{{"a"}, {"toolong"}, {"b"}}},
		{name: "runes not bytes", items: itemsOf("äöü", "ß"), limits: Limits{MaxChars: 4}, want: [][]string{{"äöü", "ß"}}},
		{name: "empty", items: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := Split(tt.items, tt.limits)
			var got [][]string
			ids := map[string]bool{}
			for _, b := range batches {
				got = append(got, b.Texts())
				if b.ID == "" || ids[b.ID] {
					t.Errorf("batch id %q is empty or repeated", b.ID)
				}
				ids[b.ID] = true
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Split() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun(t *testing.T) {
	f := sampleFile()
	items := Collect([]*content.Transformation{f}, PlainOnly(Untranslated))
	batches := Split(items, Limits{MaxItems: 1})

	var calls atomic.Int32
	upper := TranslatorFunc(func(_ context.Context, texts []string) ([]string, error) {
		calls.Add(1)
		out := make([]string, len(texts))
		for i, s := range texts {
			out[i] = strings.ToUpper(s)
		}
		return out, nil
	})

	n, err := Run(context.Background(), batches, 2, upper)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 4 || calls.Load() != 4 {
		t.Errorf("Run() = %d segments in %d calls, want 4 in 4", n, calls.Load())
	}

	u5 := f.UnitByID("u5")
	if got := u5.TargetLine().Text(); got != "FIRST. SECOND." {
		t.Errorf("u5 target = %q", got)
	}
	if s := u5.Segments[0]; s.State != content.StateTranslated {
		t.Errorf("state = %q, want translated", s.State)
	}
	if f.UnitByID("u6").Segments[0].HasTarget() {
		t.Error("coded segment was translated")
	}
}

func TestRunFailureAppliesNothing(t *testing.T) {
	f := sampleFile()
	batches := Split(Collect([]*content.Transformation{f}, Untranslated), Limits{MaxItems: 1})

	tests := []struct {
		name string
		tr   TranslatorFunc
		is   error
	}{
		{
			name: "translator error",
			tr: func(_ context.Context, texts []string) ([]string, error) {
				if texts[0] == "Second." {
					return nil, errors.ErrUnsupported
				}
				return texts, nil
			},
			is: errors.ErrUnsupported,
		},
		{
			name: "count mismatch",
			tr: func(_ context.Context, texts []string) ([]string, error) {
				return append(texts, "extra"), nil
			},
			is: errors.ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Run(context.Background(), batches, 0, tt.tr)
			if !errors.Is(err, tt.is) {
				t.Fatalf("Run() error = %v, want %v", err, tt.is)
			}
			if n != 0 {
				t.Errorf("Run() = %d, want 0", n)
			}
			if f.UnitByID("u1").Segments[0].HasTarget() {
				t.Error("target applied after failure")
			}
		})
	}
}

func TestDictionary(t *testing.T) {
	var n content.Node
	n.SetMetadata([]string{"project"}, "client", "Acme")
	n.SetMetadata([]string{"project", "review"}, "owner", "kim")
	n.SetMetadata(nil, "loose", "x")

	want := map[string]string{
		"project/client":       "Acme",
		"project/review/owner": "kim",
		"loose":                "x",
	}
	dict := Dictionary(&n)
	if diff := cmp.Diff(want, dict); diff != "" {
		t.Fatalf("Dictionary() mismatch (-want +got):\n%s", diff)
	}

	var back content.Node
	SetDictionary(&back, dict)
	if diff := cmp.Diff(want, Dictionary(&back)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if v, ok := back.LookupMetadata([]string{"project", "review"}, "owner"); !ok || v != "kim" {
		t.Errorf("LookupMetadata() = %q, %v", v, ok)
	}
}

func TestRunLogsRunID(t *testing.T) {
	var buf bytes.Buffer
	logging.InitLoggerTo(&buf, logging.LevelDebug, logging.FormatText)
	t.Cleanup(func() { logging.InitLoggerTo(os.Stderr, logging.LevelInfo, logging.FormatText) })

	batches := Split(Collect([]*content.Transformation{sampleFile()}, Untranslated), Limits{})
	ctx := logging.WithRunID(context.Background(), "run-42")
	fail := TranslatorFunc(func(context.Context, []string) ([]string, error) {
		return nil, errors.ErrUnsupported
	})
	if _, err := Run(ctx, batches, 1, fail); err == nil {
		t.Fatal("Run() error = nil")
	}

	out := buf.String()
	for _, want := range []string{"batch failed", "batch run aborted", "run_id=run-42"} {
		if !strings.Contains(out, want) {
			t.Errorf("log lacks %q:\n%s", want, out)
		}
	}
}
