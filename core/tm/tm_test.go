package tm

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/Polyglot/core/content"
)

func translated(id, source, target string, state content.SegmentState) *content.Unit {
	u := content.NewUnit(id, source)
	if target != "" {
		u.Segments[0].SetTargetText(target)
		u.Segments[0].State = state
	}
	return u
}

func learnedFile() *content.Transformation {
	coded := content.NewUnit("u4", "click ")
	coded.Segments[0].Source.AppendInline(content.Tag{ID: "1", Data: "<br>"})
	coded.Segments[0].SetTargetText("klick")

	f := &content.Transformation{SourceLanguage: "en", TargetLanguage: "de"}
	f.Children = []content.UnitGrouping{
		translated("u1", "Hello", "Hallo", content.StateTranslated),
		translated("u2", "Bye", "Tschüss", content.StateFinal),
		translated("u3", "Draft", "Entwurf", content.StateInitial),
		coded,
		translated("u5", "Untouched", "", ""),
	}
	return f
}

func openTemp(t *testing.T) (*Memory, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tm.db")
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return m, path
}

func TestLearnAndLookup(t *testing.T) {
	ctx := context.Background()
	m, _ := openTemp(t)
	defer m.Close()

	n, err := m.Learn(ctx, []*content.Transformation{learnedFile()})
	if err != nil {
		t.Fatalf("Learn() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Learn() = %d, want 2", n)
	}

	tests := []struct {
		src, trg, source string
		want             string
		found            bool
	}{
		{"en", "de", "Hello", "Hallo", true},
		{"EN", "De", "Bye", "Tschüss", true},
		{"en", "de", "Draft", "", false},
		{"en", "fr", "Hello", "", false},
		{"en", "de", "click ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.source+"/"+tt.trg, func(t *testing.T) {
			got, ok, err := m.Lookup(ctx, tt.src, tt.trg, tt.source)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if ok != tt.found || got != tt.want {
				t.Errorf("Lookup() = %q, %v, want %q, %v", got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestLearnUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	m, _ := openTemp(t)
	defer m.Close()

	f := &content.Transformation{SourceLanguage: "en", TargetLanguage: "de"}
	f.Children = []content.UnitGrouping{translated("u1", "Hello", "Hallo", content.StateTranslated)}
	if _, err := m.Learn(ctx, []*content.Transformation{f}); err != nil {
		t.Fatal(err)
	}
	f.Units()[0].Segments[0].SetTargetText("Servus")
	if _, err := m.Learn(ctx, []*content.Transformation{f}); err != nil {
		t.Fatal(err)
	}

	if n, err := m.Count(ctx); err != nil || n != 1 {
		t.Errorf("Count() = %d, %v, want 1", n, err)
	}
	if got, _, _ := m.Lookup(ctx, "en", "de", "Hello"); got != "Servus" {
		t.Errorf("Lookup() = %q, want Servus", got)
	}
}

func TestFill(t *testing.T) {
	ctx := context.Background()
	m, path := openTemp(t)
	if _, err := m.Learn(ctx, []*content.Transformation{learnedFile()}); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	m, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m.Close()

	f := &content.Transformation{SourceLanguage: "en", TargetLanguage: "de"}
	override := content.NewUnit("u3", "Hello")
	override.Segments[0].TargetLang = "fr"
	f.Children = []content.UnitGrouping{
		content.NewUnit("u1", "Hello"),
		translated("u2", "Bye", "Ciao", content.StateReviewed),
		override,
		content.NewUnit("u4", "Unknown"),
	}

	n, err := m.Fill(ctx, []*content.Transformation{f})
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Fill() = %d, want 1", n)
	}

	s := f.UnitByID("u1").Segments[0]
	if s.TargetText() != "Hallo" || s.State != content.StateTranslated {
		t.Errorf("u1 = %q (%s), want Hallo (translated)", s.TargetText(), s.State)
	}
	if got := f.UnitByID("u2").TargetText(); got != "Ciao" {
		t.Errorf("u2 target overwritten: %q", got)
	}
	if f.UnitByID("u3").Segments[0].HasTarget() || f.UnitByID("u4").Segments[0].HasTarget() {
		t.Error("segments without a match were filled")
	}
}

func TestKey(t *testing.T) {
	if Key("en", "de", "x") != Key("EN", "DE", "x") {
		t.Error("Key() depends on language case")
	}
	if Key("en", "de", "x") == Key("en", "fr", "x") {
		t.Error("Key() ignores target language")
	}
	if Key("en", "de", "x") == Key("en", "de", "X") {
		t.Error("Key() ignores source case")
	}
	if got := len(Key("", "", "")); got != 64 {
		t.Errorf("len(Key()) = %d, want 64", got)
	}
}

func TestLookupCache(t *testing.T) {
	ctx := context.Background()
	m, _ := openTemp(t)
	defer m.Close()

	if _, ok, _ := m.Lookup(ctx, "en", "de", "Hello"); ok {
		t.Fatal("Lookup() found an entry in an empty memory")
	}
	if _, err := m.Learn(ctx, []*content.Transformation{learnedFile()}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if got, ok, _ := m.Lookup(ctx, "en", "de", "Hello"); !ok || got != "Hallo" {
			t.Fatalf("Lookup() #%d = %q, %v after Learn", i, got, ok)
		}
	}

	s := m.CacheStats()
	if s.Hits != 2 || s.Misses != 2 || s.Size != 1 {
		t.Errorf("CacheStats() = %+v, want 2 hits, 2 misses, size 1", s)
	}
}

func TestOpenReadOnly(t *testing.T) {
	ctx := context.Background()
	m, path := openTemp(t)
	if _, err := m.Learn(ctx, []*content.Transformation{learnedFile()}); err != nil {
		t.Fatal(err)
	}
	m.Close()

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("OpenReadOnly() error = %v", err)
	}
	defer ro.Close()
	if n, err := ro.Count(ctx); err != nil || n != 2 {
		t.Errorf("Count() = %d, %v, want 2", n, err)
	}
	if _, err := ro.Learn(ctx, []*content.Transformation{learnedFile()}); err == nil {
		t.Error("Learn() on a read-only memory succeeded")
	}

	_, err = OpenReadOnly(filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("OpenReadOnly(missing) error = %v, want fs.ErrNotExist", err)
	}
}
