// Package store handles SQLite persistence of the custom word bank.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/keymaster/internal/model"
	"github.com/verte-zerg/keymaster/internal/wordlist"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for custom words.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS custom_words (
			difficulty TEXT NOT NULL,
			word TEXT NOT NULL,
			added_at TEXT NOT NULL,
			PRIMARY KEY (difficulty, word)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_custom_words_added_at ON custom_words(added_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddWords stores words for a difficulty and returns how many were new.
func (s *Store) AddWords(ctx context.Context, difficulty model.Difficulty, words []string) (n int, err error) {
	if !difficulty.Valid() {
		return 0, fmt.Errorf("unknown difficulty %q", difficulty)
	}
	words = wordlist.Filter(words, wordlist.Valid)
	if len(words) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO custom_words (difficulty, word, added_at) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	addedAt := s.now().UTC().Format(time.RFC3339Nano)
	for _, word := range words {
		res, err := stmt.ExecContext(ctx, string(difficulty), word, addedAt)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		n += int(affected)
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// RemoveWords deletes words from a difficulty and returns how many existed.
func (s *Store) RemoveWords(ctx context.Context, difficulty model.Difficulty, words []string) (n int, err error) {
	if !difficulty.Valid() {
		return 0, fmt.Errorf("unknown difficulty %q", difficulty)
	}
	words = wordlist.Filter(words, wordlist.Valid)
	if len(words) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	for _, word := range words {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM custom_words WHERE difficulty = ? AND word = ?`, string(difficulty), word)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		n += int(affected)
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// ListWords returns stored words ordered by difficulty and word. An empty difficulty
// lists every difficulty.
func (s *Store) ListWords(ctx context.Context, difficulty model.Difficulty) ([]model.CustomWord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT difficulty, word, added_at FROM custom_words
		WHERE (? = '' OR difficulty = ?)
		ORDER BY CASE difficulty WHEN 'easy' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, word`,
		string(difficulty), string(difficulty))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var words []model.CustomWord
	for rows.Next() {
		var cw model.CustomWord
		var difficultyName, addedAt string
		if err := rows.Scan(&difficultyName, &cw.Word, &addedAt); err != nil {
			return nil, err
		}
		cw.Difficulty = model.Difficulty(difficultyName)
		parsed, err := time.Parse(time.RFC3339Nano, addedAt)
		if err != nil {
			return nil, err
		}
		cw.AddedAt = parsed
		words = append(words, cw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// Lists groups every stored word by difficulty.
func (s *Store) Lists(ctx context.Context) (wordlist.Lists, error) {
	words, err := s.ListWords(ctx, "")
	if err != nil {
		return nil, err
	}
	lists := wordlist.Lists{}
	for _, cw := range words {
		lists[cw.Difficulty] = append(lists[cw.Difficulty], cw.Word)
	}
	return lists, nil
}
