package readers

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Reader implements the PostgreSQL reader interface.
// Methods are split across files per entity kind.
type Reader struct {
	pool *pgxpool.Pool
	tx   pgx.Tx // optional transaction shared with a writer
	ctx  context.Context
}

// NewReader creates a new PostgreSQL reader instance
func NewReader(pool *pgxpool.Pool, tx pgx.Tx, ctx context.Context) *Reader {
	return &Reader{
		pool: pool,
		tx:   tx,
		ctx:  ctx,
	}
}

// Close closes the reader (connection returned to pool automatically)
func (r *Reader) Close() error {
	return nil
}

// query executes a query using either transaction or pool connection
func (r *Reader) query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if r.tx != nil {
		return r.tx.Query(ctx, query, args...)
	}
	return r.pool.Query(ctx, query, args...)
}

// queryRow executes a single-row query using either transaction or pool connection
func (r *Reader) queryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if r.tx != nil {
		return r.tx.QueryRow(ctx, query, args...)
	}
	return r.pool.QueryRow(ctx, query, args...)
}
