// Package postgres implements the remote data source against a direct
// Postgres connection, for deployments that bypass the REST gateway and
// talk to the database itself.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

// Store serves reads for the snapshot layer from Postgres. Rows come back
// as generic records so the transformers stay backend-agnostic.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Select runs the query against the given table and returns all rows.
func (s *Store) Select(ctx context.Context, table string, q remote.Query) ([]remote.Record, error) {
	suffix, args := q.SQL()
	query := fmt.Sprintf(`SELECT * FROM %s%s`, table, suffix)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}

	var out []remote.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row of %s: %w", table, err)
		}

		rec := make(remote.Record, len(cols))
		for i, col := range cols {
			rec[col] = normalize(values[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

// GetByID fetches a single row, returning remote.ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, table, id string) (remote.Record, error) {
	recs, err := s.Select(ctx, table, remote.NewQuery().Eq("id", id).WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", table, id, remote.ErrNotFound)
	}
	return recs[0], nil
}

// normalize maps driver-level values onto the value shapes the record
// helpers understand: numbers become float64, byte slices become strings,
// timestamps become RFC3339 strings.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int64:
		return float64(t)
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return v
	}
}
