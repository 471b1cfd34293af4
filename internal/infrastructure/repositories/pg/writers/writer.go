package writers

import (
	"context"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Writer implements the PostgreSQL writer interface.
// Methods are split across files per entity kind.
type Writer struct {
	tx           pgx.Tx
	ctx          context.Context
	affectedRows atomic.Int64
	done         bool
}

// NewWriter creates a new PostgreSQL writer instance
func NewWriter(tx pgx.Tx, ctx context.Context) *Writer {
	return &Writer{
		tx:  tx,
		ctx: ctx,
	}
}

// exec executes a statement and tracks affected rows
func (w *Writer) exec(ctx context.Context, query string, args ...any) error {
	result, err := w.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	w.affectedRows.Add(result.RowsAffected())
	return nil
}

func (w *Writer) usable() error {
	if w.done {
		return errors.New("transaction already committed or aborted")
	}
	return nil
}

// Commit updates the sync status and commits the transaction
func (w *Writer) Commit() error {
	if err := w.usable(); err != nil {
		return err
	}
	w.done = true

	if affected := w.affectedRows.Load(); affected > 0 {
		syncStatusQuery := `
			INSERT INTO sync_status (id, updated_at, total_operations)
			VALUES (1, NOW(), $1)
			ON CONFLICT (id) DO UPDATE
			SET updated_at = NOW(), total_operations = sync_status.total_operations + $1`
		if _, err := w.tx.Exec(w.ctx, syncStatusQuery, affected); err != nil {
			_ = w.tx.Rollback(w.ctx)
			return errors.Wrap(err, "failed to update sync status")
		}
	}

	if err := w.tx.Commit(w.ctx); err != nil {
		return errors.Wrap(translate(err), "failed to commit transaction")
	}
	return nil
}

// Abort rolls back the transaction
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	_ = w.tx.Rollback(w.ctx)
}

// GetTx returns the underlying transaction (used by ReaderFromWriter)
func (w *Writer) GetTx() pgx.Tx {
	return w.tx
}
