// Package batch groups segments into bounded batches for an external
// translation service and applies the returned translations.
//
// Batches only hold references into already parsed transformations.
// Translations are written back after every worker has finished, never
// while a request is in flight.
package batch

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/errors"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Item references one segment of a unit.
type Item struct {
	File    *content.Transformation
	Unit    *content.Unit
	Segment *content.Segment
}

// Text returns the plain source text sent for translation.
func (it Item) Text() string {
	return it.Segment.Source.Text()
}

// Filter selects segments for collection.
type Filter func(u *content.Unit, s *content.Segment) bool

// Untranslated selects segments that still need a translation.
func Untranslated(_ *content.Unit, s *content.Segment) bool {
	return s.IsInitial()
}

// PlainOnly wraps f to skip segments carrying inline codes, whose markup
// would be lost in a text-only round trip.
func PlainOnly(f Filter) Filter {
	return func(u *content.Unit, s *content.Segment) bool {
		if !isPlain(s.Source) {
			return false
		}
		return f == nil || f(u, s)
	}
}

func isPlain(l content.Line) bool {
	for _, e := range l {
		if _, ok := e.(*content.PlainText); !ok {
			return false
		}
	}
	return true
}

// Collect returns the translatable segments of files accepted by filter,
// in document order. Units excluded with translate="no", directly or via a
// group, ignorable segments, and blank sources are skipped. A nil filter
// accepts everything else.
func Collect(files []*content.Transformation, filter Filter) []Item {
	var items []Item
	for _, f := range files {
		collect(&items, f, f.Children, f.Translate.Or(true), filter)
	}
	return items
}

func collect(items *[]Item, f *content.Transformation, children []content.UnitGrouping, translate bool, filter Filter) {
	for _, c := range children {
		switch v := c.(type) {
		case *content.Group:
			collect(items, f, v.Children, v.Translate.Or(translate), filter)
		case *content.Unit:
			if !v.Translate.Or(translate) {
				continue
			}
			for _, s := range v.Segments {
				if s.Ignorable || s.Source.IsBlank() {
					continue
				}
				if filter != nil && !filter(v, s) {
					continue
				}
				*items = append(*items, Item{File: f, Unit: v, Segment: s})
			}
		}
	}
}

// Limits bounds a batch. Zero fields are unbounded.
type Limits struct {
	MaxItems int
	// MaxChars bounds the summed source length in runes.
	MaxChars int
}

// Batch is one request to the translation service.
type Batch struct {
	ID    string
	Items []Item
}

// Texts returns the source texts of the batch in order.
func (b Batch) Texts() []string {
	texts := make([]string, len(b.Items))
	for i, it := range b.Items {
		texts[i] = it.Text()
	}
	return texts
}

// Chars returns the summed source length in runes.
func (b Batch) Chars() int {
	n := 0
	for _, it := range b.Items {
		n += utf8.RuneCountInString(it.Text())
	}
	return n
}

// Split partitions items into consecutive batches within limits. An item
// longer than MaxChars gets a batch of its own.
func Split(items []Item, limits Limits) []Batch {
	var (
		out   []Batch
		cur   Batch
		chars int
	)
	flush := func() {
		if len(cur.Items) > 0 {
			out = append(out, cur)
		}
		cur, chars = Batch{}, 0
	}
	for _, it := range items {
		n := utf8.RuneCountInString(it.Text())
		full := limits.MaxItems > 0 && len(cur.Items) >= limits.MaxItems
		over := limits.MaxChars > 0 && len(cur.Items) > 0 && chars+n > limits.MaxChars
		if full || over {
			flush()
		}
		if cur.ID == "" {
			cur.ID = uuid.NewString()
		}
		cur.Items = append(cur.Items, it)
		chars += n
	}
	flush()
	return out
}

// Translator translates a list of texts, returning one result per input
// in the same order.
type Translator interface {
	Translate(ctx context.Context, texts []string) ([]string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, texts []string) ([]string, error)

// Translate calls fn.
func (fn TranslatorFunc) Translate(ctx context.Context, texts []string) ([]string, error) {
	return fn(ctx, texts)
}

// Run sends batches to tr using at most workers concurrent requests (0
// means one per batch). Translations are applied only when every batch
// succeeded; it returns the number of segments updated.
func Run(ctx context.Context, batches []Batch, workers int, tr Translator) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	results := make([][]string, len(batches))
	for i, b := range batches {
		g.Go(func() error {
			logging.BatchEvent(gctx, "start", b.ID, len(b.Items))
			out, err := tr.Translate(gctx, b.Texts())
			if err != nil {
				logging.WarnContext(gctx, "batch failed", "batch_id", b.ID, "error", err)
				return errors.Wrapf(err, "batch %s", b.ID)
			}
			if len(out) != len(b.Items) {
				logging.WarnContext(gctx, "batch size mismatch", "batch_id", b.ID, "got", len(out), "want", len(b.Items))
				return fmt.Errorf("%w: batch %s: got %d translations for %d segments",
					errors.ErrInvalidInput, b.ID, len(out), len(b.Items))
			}
			results[i] = out
			logging.BatchEvent(gctx, "done", b.ID, len(b.Items))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logging.ErrorContext(ctx, "batch run aborted", "batches", len(batches), "error", err)
		return 0, err
	}

	n := 0
	for i, b := range batches {
		for j, it := range b.Items {
			it.Segment.SetTargetText(results[i][j])
			n++
		}
	}
	logging.DebugContext(ctx, "batch run applied", "batches", len(batches), "segments", n)
	return n, nil
}
