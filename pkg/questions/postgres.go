package questions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type PostgresSource struct {
	conn *pgx.Conn
}

// NewPostgresSource creates a question source backed by Postgres.
// It panics if it is unable to connect to the database.
// The caller is responsible for calling Close() on the source.
func NewPostgresSource(ctx context.Context, connStr string) *PostgresSource {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("Unable to connect to database: %v\n", err))
	}

	q := `
	CREATE TABLE IF NOT EXISTS questions (
		id SERIAL PRIMARY KEY,
		text TEXT NOT NULL UNIQUE
	);
	`
	if _, err := conn.Exec(ctx, q); err != nil {
		panic(fmt.Sprintf("Unable to create questions table: %v\n", err))
	}

	return &PostgresSource{
		conn: conn,
	}
}

func (s *PostgresSource) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func (s *PostgresSource) Draw(ctx context.Context) (string, error) {
	q := `
	SELECT text FROM questions ORDER BY random() LIMIT 1;
	`
	var text string
	if err := s.conn.QueryRow(ctx, q).Scan(&text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FallbackQuestion, nil
		}
		return "", fmt.Errorf("failed to draw question: %v", err)
	}
	return text, nil
}

// Insert adds a prompt to the corpus, ignoring duplicates.
func (s *PostgresSource) Insert(ctx context.Context, text string) error {
	q := `
	INSERT INTO questions (text) VALUES ($1)
	ON CONFLICT (text) DO NOTHING;
	`
	if _, err := s.conn.Exec(ctx, q, text); err != nil {
		return fmt.Errorf("failed to insert question: %v", err)
	}
	return nil
}
