package questions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scythe504/skribblr-party/internal"
)

var ErrDatabaseURLRequired = errors.New("DATABASE_URL is required for the postgres question source")

const schema = `CREATE TABLE IF NOT EXISTS questions (
	id      SERIAL PRIMARY KEY,
	content TEXT NOT NULL UNIQUE
)`

// PostgresSource draws a random pool from the questions table.
type PostgresSource struct {
	pool *pgxpool.Pool
	size int
}

func NewPostgresSource(ctx context.Context, connString string, size int) (*PostgresSource, error) {
	if connString == "" {
		return nil, ErrDatabaseURLRequired
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect question store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping question store: %w", err)
	}
	if size <= 0 {
		size = internal.DefaultPoolSize
	}
	return &PostgresSource{pool: pool, size: size}, nil
}

func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create questions table: %w", err)
	}
	return nil
}

// Seed inserts contents, ignoring ones that are already stored. It returns
// the number of new rows.
func (s *PostgresSource) Seed(ctx context.Context, contents ...string) (int, error) {
	batch := &pgx.Batch{}
	for _, content := range contents {
		batch.Queue(`INSERT INTO questions(content) VALUES($1) ON CONFLICT (content) DO NOTHING`, content)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range contents {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("seed questions: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresSource) FetchPool(ctx context.Context) ([]internal.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, content FROM questions ORDER BY random() LIMIT $1`, s.size)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	pool := make([]internal.Question, 0, s.size)
	for rows.Next() {
		var q internal.Question
		if err := rows.Scan(&q.ID, &q.Content); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		pool = append(pool, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return pool, nil
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}
