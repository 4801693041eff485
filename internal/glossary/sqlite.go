package glossary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS keywords (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	term TEXT NOT NULL,
	translation TEXT NOT NULL,
	sourceLang TEXT NOT NULL,
	targetLang TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS keywords_pair ON keywords(sourceLang, targetLang);
`

// SQLiteStore persists entries in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" in tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create glossary dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// in-memory databases are per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Term, &e.Replacement, &e.SourceLang, &e.TargetLang); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `
		SELECT id, term, translation, sourceLang, targetLang
		FROM keywords
		ORDER BY seq ASC
	`)
}

func (s *SQLiteStore) Lookup(ctx context.Context, source, target string) ([]Entry, error) {
	return s.query(ctx, `
		SELECT id, term, translation, sourceLang, targetLang
		FROM keywords
		WHERE (sourceLang = ? AND targetLang = ?) OR (sourceLang = '*' AND targetLang = '*')
		ORDER BY seq ASC
	`, source, target)
}

func (s *SQLiteStore) Add(ctx context.Context, e Entry) (Entry, error) {
	e, err := prepare(e)
	if err != nil {
		return Entry{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO keywords (id, term, translation, sourceLang, targetLang)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Term, e.Replacement, e.SourceLang, e.TargetLang)
	if err != nil {
		return Entry{}, fmt.Errorf("insert keyword: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) get(ctx context.Context, id string) (Entry, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, term, translation, sourceLang, targetLang
		FROM keywords WHERE id = ?
	`, id).Scan(&e.ID, &e.Term, &e.Replacement, &e.SourceLang, &e.TargetLang)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("scan keyword: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, patch Patch) (Entry, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	updated, err := prepare(patch.apply(current))
	if err != nil {
		return Entry{}, err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE keywords SET term = ?, translation = ?, sourceLang = ?, targetLang = ?
		WHERE id = ?
	`, updated.Term, updated.Replacement, updated.SourceLang, updated.TargetLang, id)
	if err != nil {
		return Entry{}, fmt.Errorf("update keyword: %w", err)
	}
	return updated, nil
}

func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM keywords WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete keyword: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete keyword: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
