// Package bibstore keeps resolved bibliographic metadata and the set of
// papers with a full text in a SQLite database.
package bibstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tsawler/tabcite/format"
	"github.com/tsawler/tabcite/model"
)

// Store is a SQLite-backed bibliographic resolver.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("bibstore: ensure data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("bibstore: open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bibstore: pragma journal_mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bibstore: initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bib_entries (
		key TEXT PRIMARY KEY,
		corpus_id INTEGER NOT NULL,
		title TEXT,
		abstract TEXT
	);

	CREATE TABLE IF NOT EXISTS full_texts (
		corpus_id INTEGER PRIMARY KEY
	);

	CREATE INDEX IF NOT EXISTS idx_bib_entries_corpus_id ON bib_entries(corpus_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Resolve looks up a citation key or paper id.
func (s *Store) Resolve(ctx context.Context, key string) (model.BibEntry, bool, error) {
	var (
		e        model.BibEntry
		title    sql.NullString
		abstract sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT corpus_id, title, abstract FROM bib_entries WHERE key = ?
	`, key).Scan(&e.CorpusID, &title, &abstract)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BibEntry{}, false, nil
	}
	if err != nil {
		return model.BibEntry{}, false, fmt.Errorf("bibstore: resolve %s: %w", key, err)
	}
	e.Title = nullable(title)
	e.Abstract = nullable(abstract)
	return e, true, nil
}

// Put stores or replaces one entry.
func (s *Store) Put(ctx context.Context, key string, e model.BibEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO bib_entries (key, corpus_id, title, abstract)
		VALUES (?, ?, ?, ?)
	`, key, e.CorpusID, e.Title, e.Abstract)
	if err != nil {
		return fmt.Errorf("bibstore: put %s: %w", key, err)
	}
	return nil
}

// HasFullText reports whether a full text exists for the corpus id.
func (s *Store) HasFullText(ctx context.Context, corpusID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM full_texts WHERE corpus_id = ?
	`, corpusID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("bibstore: full text %d: %w", corpusID, err)
	}
	return n > 0, nil
}

// FullTexts loads every corpus id with a full text.
func (s *Store) FullTexts(ctx context.Context) (map[int64]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT corpus_id FROM full_texts`)
	if err != nil {
		return nil, fmt.Errorf("bibstore: list full texts: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("bibstore: scan full text: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// bibLine is one line of a bibliographic import file.
type bibLine struct {
	Key      string  `json:"key"`
	CorpusID int64   `json:"corpus_id"`
	Title    *string `json:"title"`
	Abstract *string `json:"abstract"`
}

// fullTextLine is one line of a full-text id file.
type fullTextLine struct {
	CorpusID *int64 `json:"corpusId"`
}

// ImportBib loads JSON lines of {"key", "corpus_id", "title", "abstract"}
// in one transaction and returns how many entries were written.
func (s *Store) ImportBib(ctx context.Context, r io.Reader) (int, error) {
	return s.importLines(ctx, r, `
		INSERT OR REPLACE INTO bib_entries (key, corpus_id, title, abstract)
		VALUES (?, ?, ?, ?)
	`, func(jr *format.Reader) ([]any, error) {
		var l bibLine
		if err := jr.Next(&l); err != nil {
			return nil, err
		}
		if l.Key == "" {
			return nil, fmt.Errorf("line %d: missing key", jr.Line())
		}
		return []any{l.Key, l.CorpusID, l.Title, l.Abstract}, nil
	})
}

// ImportFullTexts loads JSON lines of {"corpusId"} in one transaction and
// returns how many ids were read.
func (s *Store) ImportFullTexts(ctx context.Context, r io.Reader) (int, error) {
	return s.importLines(ctx, r, `
		INSERT OR IGNORE INTO full_texts (corpus_id) VALUES (?)
	`, func(jr *format.Reader) ([]any, error) {
		var l fullTextLine
		if err := jr.Next(&l); err != nil {
			return nil, err
		}
		if l.CorpusID == nil {
			return nil, fmt.Errorf("line %d: missing corpusId", jr.Line())
		}
		return []any{*l.CorpusID}, nil
	})
}

func (s *Store) importLines(ctx context.Context, r io.Reader, stmt string, next func(*format.Reader) ([]any, error)) (int, error) {
	jr, err := format.NewJSONLReader(r)
	if err != nil {
		return 0, fmt.Errorf("bibstore: import: %w", err)
	}
	defer jr.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("bibstore: begin transaction: %w", err)
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("bibstore: prepare: %w", err)
	}
	defer prepared.Close()

	n := 0
	for {
		args, err := next(jr)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("bibstore: import: %w", err)
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("bibstore: import line %d: %w", jr.Line(), err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("bibstore: commit: %w", err)
	}
	return n, nil
}

// Stats returns the number of stored entries and full-text ids.
func (s *Store) Stats(ctx context.Context) (entries, fullTexts int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM bib_entries), (SELECT COUNT(*) FROM full_texts)
	`).Scan(&entries, &fullTexts)
	if err != nil {
		err = fmt.Errorf("bibstore: stats: %w", err)
	}
	return entries, fullTexts, err
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
