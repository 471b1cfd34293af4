package readers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

// table describes how one entity kind is selected and scanned
type table[T any] struct {
	name    string
	kind    string
	columns []string
	scope   utils.ScopeColumns
	scan    func(pgx.Row) (T, error)
}

// list streams rows in id order. consume runs while the cursor is open, so a
// slow consumer slows the scan.
func list[T any](ctx context.Context, r *Reader, t table[T], scope ports.Scope, consume func(T) error) error {
	whereClause, args, err := utils.BuildScopeFilter(scope, "t", t.scope, 0)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("SELECT %s FROM %s t", utils.SelectList("t", t.columns), t.name)
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	query += " ORDER BY t.id"

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "failed to query %s", t.name)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := t.scan(rows)
		if err != nil {
			return errors.Wrapf(err, "failed to scan %s", t.kind)
		}
		if err := consume(item); err != nil {
			return err
		}
	}
	return rows.Err()
}

func get[T any](ctx context.Context, r *Reader, t table[T], id int64) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s t WHERE t.id = $1", utils.SelectList("t", t.columns), t.name)
	item, err := t.scan(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(ports.ErrNotFound, "%s id %d", t.kind, id)
		}
		return nil, errors.Wrapf(err, "failed to scan %s", t.kind)
	}
	return &item, nil
}
