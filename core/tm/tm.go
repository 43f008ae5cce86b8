// Package tm is a SQLite translation memory. It learns from translated
// segments and pre-fills targets of untranslated ones with exact matches.
//
// Only segments whose source and target are plain text are stored; a
// segment with inline codes is never learned or filled.
package tm

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/FocuswithJustin/Polyglot/core/batch"
	"github.com/FocuswithJustin/Polyglot/core/cache"
	"github.com/FocuswithJustin/Polyglot/core/content"
	"github.com/FocuswithJustin/Polyglot/core/sqlite"
	"github.com/FocuswithJustin/Polyglot/internal/logging"
	"github.com/zeebo/blake3"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	key        TEXT PRIMARY KEY,
	src_lang   TEXT NOT NULL,
	trg_lang   TEXT NOT NULL,
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_langs ON entries (src_lang, trg_lang);
`

const upsert = `
INSERT INTO entries (key, src_lang, trg_lang, source, target, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET target = excluded.target, updated_at = excluded.updated_at
`

// Memory is an open translation memory. Lookups are cached, misses
// included, until the next Learn.
type Memory struct {
	db      *sql.DB
	path    string
	lookups cache.Cache[string, match]
}

type match struct {
	target string
	found  bool
}

// Open opens or creates the memory at path.
func Open(path string) (*Memory, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tm: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("tm: create schema: %w", err)
	}
	return newMemory(db, path), nil
}

// OpenReadOnly opens an existing memory for lookups only.
func OpenReadOnly(path string) (*Memory, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("tm: open %s: %w", path, err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("tm: open %s: %w", path, err)
	}
	return newMemory(db, path), nil
}

func newMemory(db *sql.DB, path string) *Memory {
	return &Memory{
		db:      db,
		path:    path,
		lookups: cache.New(cache.Config[string, match]{MaxSize: cache.DefaultMaxSize}),
	}
}

// Close closes the database.
func (m *Memory) Close() error {
	return m.db.Close()
}

// Key returns the entry key of a source text in a language pair.
// Languages compare case-insensitively.
func Key(srcLang, trgLang, source string) string {
	h := blake3.Sum256([]byte(strings.ToLower(srcLang) + "\x00" + strings.ToLower(trgLang) + "\x00" + source))
	return hex.EncodeToString(h[:])
}

// Lookup returns the stored target for source.
func (m *Memory) Lookup(ctx context.Context, srcLang, trgLang, source string) (string, bool, error) {
	key := Key(srcLang, trgLang, source)
	if hit, ok := m.lookups.Get(key); ok {
		return hit.target, hit.found, nil
	}

	var target string
	err := m.db.QueryRowContext(ctx, `SELECT target FROM entries WHERE key = ?`, key).Scan(&target)
	if err == sql.ErrNoRows {
		m.lookups.Put(key, match{})
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("tm: lookup: %w", err)
	}
	m.lookups.Put(key, match{target: target, found: true})
	return target, true, nil
}

// CacheStats reports the lookup cache statistics.
func (m *Memory) CacheStats() cache.Stats {
	return m.lookups.Stats()
}

// Count returns the number of stored entries.
func (m *Memory) Count(ctx context.Context) (int, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("tm: count: %w", err)
	}
	return n, nil
}

// Learn stores every plain segment of files that has a target in state
// translated or later. It returns the number of segments stored.
func (m *Memory) Learn(ctx context.Context, files []*content.Transformation) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("tm: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return 0, fmt.Errorf("tm: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	n := 0
	for _, it := range batch.Collect(files, batch.PlainOnly(learnable)) {
		src, trg := languages(it)
		if src == "" || trg == "" {
			continue
		}
		source := it.Segment.Source.Text()
		if _, err := stmt.ExecContext(ctx, Key(src, trg, source), src, trg, source, it.Segment.Target.Text(), now); err != nil {
			return 0, fmt.Errorf("tm: store: %w", err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("tm: commit: %w", err)
	}
	m.lookups.Clear()
	logging.Debug("tm learned", "path", m.path, "segments", n)
	return n, nil
}

func learnable(_ *content.Unit, s *content.Segment) bool {
	if !s.HasTarget() || !s.EffectiveState().AtLeast(content.StateTranslated) {
		return false
	}
	for _, e := range s.Target {
		if _, ok := e.(*content.PlainText); !ok {
			return false
		}
	}
	return true
}

// Fill sets the target of every untranslated plain segment with an exact
// match. Filled segments become translated. It returns the number filled.
func (m *Memory) Fill(ctx context.Context, files []*content.Transformation) (int, error) {
	n := 0
	for _, it := range batch.Collect(files, batch.PlainOnly(batch.Untranslated)) {
		src, trg := languages(it)
		if src == "" || trg == "" {
			continue
		}
		target, ok, err := m.Lookup(ctx, src, trg, it.Segment.Source.Text())
		if err != nil {
			return n, err
		}
		if ok {
			it.Segment.SetTargetText(target)
			n++
		}
	}
	logging.Debug("tm filled", "path", m.path, "segments", n)
	return n, nil
}

// languages returns the effective language pair of an item.
func languages(it batch.Item) (string, string) {
	src, trg := it.File.SourceLanguage, it.File.TargetLanguage
	if it.Segment.SourceLang != "" {
		src = it.Segment.SourceLang
	}
	if it.Segment.TargetLang != "" {
		trg = it.Segment.TargetLang
	}
	return src, trg
}
