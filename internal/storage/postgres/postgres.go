package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/ranchwatch/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS findings (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	date TEXT NOT NULL,
	nights INTEGER NOT NULL,
	found_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS findings_date_idx ON findings (date);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Append(ctx context.Context, f *storage.Finding) error {
	query := `INSERT INTO findings (id, date, nights, found_at) VALUES ($1, $2, $3, $4)`

	if _, err := b.pool.Exec(ctx, query, f.ID, f.Date, f.Nights, f.FoundAt); err != nil {
		return fmt.Errorf("postgres: insert finding: %w", err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Finding, error) {
	query := `SELECT id, date, nights, found_at FROM findings WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Date != "" {
		query += fmt.Sprintf(` AND date = $%d`, paramCount)
		args = append(args, filter.Date)
		paramCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND found_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY found_at DESC, seq DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query findings: %w", err)
	}
	defer rows.Close()

	results := []*storage.Finding{}
	for rows.Next() {
		var f storage.Finding
		if err := rows.Scan(&f.ID, &f.Date, &f.Nights, &f.FoundAt); err != nil {
			return nil, fmt.Errorf("postgres: scan finding: %w", err)
		}
		f.FoundAt = f.FoundAt.UTC()
		results = append(results, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query findings: %w", err)
	}
	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
