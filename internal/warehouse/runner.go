// Package warehouse executes read-only report queries against the data
// warehouse. Reports treat it as an opaque `run query, get rows` boundary
// with its own timeout policy.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is one generic result row keyed by column name.
type Row map[string]any

// Runner executes warehouse queries.
type Runner interface {
	Query(ctx context.Context, sql string, args ...any) ([]Row, error)
	Ping(ctx context.Context) error
}

const queryTimeout = 30 * time.Second

// PGRunner implements Runner over a pgx connection pool.
type PGRunner struct {
	pool *pgxpool.Pool
}

// NewPGRunner connects to the warehouse and verifies the connection.
func NewPGRunner(ctx context.Context, dsn string) (*PGRunner, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("warehouse: parse config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("warehouse: new pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("warehouse: ping: %w", err)
	}
	return &PGRunner{pool: pool}, nil
}

// Query runs sql and materialises every row into a Row map.
func (r *PGRunner) Query(ctx context.Context, sql string, args ...any) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, classify(err)
		}
		row := make(Row, len(fields))
		for i, field := range fields {
			row[string(field.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Ping verifies the pool is alive.
func (r *PGRunner) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the pool.
func (r *PGRunner) Close() {
	r.pool.Close()
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("warehouse: query failed (%s): %w", pgErr.Code, err)
	}
	return fmt.Errorf("warehouse: query failed: %w", err)
}

var _ Runner = (*PGRunner)(nil)
