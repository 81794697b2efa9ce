package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FranksOps/ranchwatch/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS findings (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	date TEXT NOT NULL,
	nights INTEGER NOT NULL,
	found_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS findings_date_idx ON findings (date);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Append(ctx context.Context, f *storage.Finding) error {
	query := `INSERT INTO findings (id, date, nights, found_at) VALUES (?, ?, ?, ?)`

	if _, err := b.db.ExecContext(ctx, query, f.ID, f.Date, f.Nights, f.FoundAt.UTC()); err != nil {
		return fmt.Errorf("sqlite: insert finding: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Finding, error) {
	query := `SELECT id, date, nights, found_at FROM findings WHERE 1=1`
	args := []any{}

	if filter.Date != "" {
		query += ` AND date = ?`
		args = append(args, filter.Date)
	}
	if filter.Since != nil {
		query += ` AND found_at >= ?`
		args = append(args, filter.Since.UTC())
	}

	query += ` ORDER BY found_at DESC, seq DESC`

	// sqlite only accepts OFFSET after LIMIT; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query findings: %w", err)
	}
	defer rows.Close()

	results := []*storage.Finding{}
	for rows.Next() {
		var f storage.Finding
		var foundAt time.Time
		if err := rows.Scan(&f.ID, &f.Date, &f.Nights, &foundAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan finding: %w", err)
		}
		f.FoundAt = foundAt.UTC()
		results = append(results, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: query findings: %w", err)
	}
	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
