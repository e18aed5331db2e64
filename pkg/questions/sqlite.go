package questions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource creates a question source backed by a local SQLite
// database, creating the schema if needed.
func NewSQLiteSource(ctx context.Context, path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	q := `
	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL UNIQUE
	);
	`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create questions table: %v", err)
	}

	return &SQLiteSource{
		db: db,
	}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) Draw(ctx context.Context) (string, error) {
	q := `
	SELECT text FROM questions ORDER BY RANDOM() LIMIT 1;
	`
	var text string
	if err := s.db.QueryRowContext(ctx, q).Scan(&text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FallbackQuestion, nil
		}
		return "", fmt.Errorf("failed to draw question: %v", err)
	}
	return text, nil
}

// Insert adds a prompt to the corpus, ignoring duplicates.
func (s *SQLiteSource) Insert(ctx context.Context, text string) error {
	q := `
	INSERT OR IGNORE INTO questions (text) VALUES (?);
	`
	if _, err := s.db.ExecContext(ctx, q, text); err != nil {
		return fmt.Errorf("failed to insert question: %v", err)
	}
	return nil
}
