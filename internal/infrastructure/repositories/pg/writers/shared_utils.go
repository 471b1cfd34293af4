package writers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

// table describes how one entity kind is written
type table[T any] struct {
	name    string
	kind    string
	columns []string // every column but id, in values order
	values  func(*T) []any
	id      func(*T) *int64
	scope   utils.ScopeColumns
	// naturalKey lists the columns of the unique provider-side key, if any
	naturalKey    []string
	hasNaturalKey func(*T) bool
}

func translate(err error) error {
	if utils.IsUniqueViolation(err) {
		return errors.Wrap(ports.ErrAlreadyExists, err.Error())
	}
	return err
}

func placeholders(from, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(out, ", ")
}

func assignments(columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	return strings.Join(out, ", ")
}

func excludedAssignments(columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
	}
	return strings.Join(out, ", ")
}

// writeRow applies one item according to op and stores the resulting id into it.
// It reports whether the row was written with a caller supplied id.
func writeRow[T any](ctx context.Context, w *Writer, t table[T], item *T, op models.SyncOp) (bool, error) {
	id := *t.id(item)
	vals := t.values(item)
	keyed := len(t.naturalKey) > 0 && t.hasNaturalKey(item)
	cols := strings.Join(t.columns, ", ")

	var query string
	var args []any
	explicit := false
	switch {
	case op == models.SyncOpUpdate:
		args = append(args, vals...)
		query = fmt.Sprintf("UPDATE %s SET %s WHERE ", t.name, assignments(t.columns))
		switch {
		case id != 0:
			query += fmt.Sprintf("id = $%d", len(args)+1)
			args = append(args, id)
		case keyed:
			conds := make([]string, 0, len(t.naturalKey))
			for _, key := range t.naturalKey {
				for i, c := range t.columns {
					if c == key {
						args = append(args, vals[i])
						conds = append(conds, fmt.Sprintf("%s = $%d", c, len(args)))
					}
				}
			}
			query += strings.Join(conds, " AND ")
		default:
			return false, errors.Wrapf(ports.ErrNotFound, "%s without id", t.kind)
		}
		query += " RETURNING id"
	case id == 0:
		args = vals
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, cols, placeholders(1, len(vals)))
		if op == models.SyncOpUpsert && keyed {
			query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
				strings.Join(t.naturalKey, ", "), excludedAssignments(t.columns))
		}
		query += " RETURNING id"
	default:
		explicit = true
		args = append([]any{id}, vals...)
		query = fmt.Sprintf("INSERT INTO %s (id, %s) VALUES (%s)", t.name, cols, placeholders(1, len(args)))
		if op == models.SyncOpUpsert {
			query += " ON CONFLICT (id) DO UPDATE SET " + excludedAssignments(t.columns)
		}
		query += " RETURNING id"
	}

	var newID int64
	if err := w.tx.QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, errors.Wrapf(ports.ErrNotFound, "%s id %d", t.kind, id)
		}
		return false, errors.Wrapf(translate(err), "failed to write %s", t.kind)
	}
	w.affectedRows.Add(1)
	*t.id(item) = newID
	return explicit, nil
}

// syncRows writes items in order. A non-empty scope turns the call into a full
// sync of that scope: rows in scope the batch does not carry are deleted.
func syncRows[T any](ctx context.Context, w *Writer, t table[T], items []T, scope ports.Scope, opts []ports.Option) error {
	if err := w.usable(); err != nil {
		return err
	}
	op := ports.SyncOpFromOptions(opts)

	ids := make([]int64, 0, len(items))
	bumpSequence := false
	for i := range items {
		explicit, err := writeRow(ctx, w, t, &items[i], op)
		if err != nil {
			return err
		}
		bumpSequence = bumpSequence || explicit
		ids = append(ids, *t.id(&items[i]))
	}

	if bumpSequence {
		query := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s`, t.name, t.name)
		if _, err := w.tx.Exec(ctx, query); err != nil {
			return errors.Wrapf(err, "failed to advance %s id sequence", t.name)
		}
	}

	if scope != nil && !scope.IsEmpty() {
		whereClause, args, err := utils.BuildScopeFilter(scope, "", t.scope, 0)
		if err != nil {
			return err
		}
		query := fmt.Sprintf("DELETE FROM %s WHERE %s", t.name, whereClause)
		if len(ids) > 0 {
			args = append(args, ids)
			query += fmt.Sprintf(" AND NOT (id = ANY($%d))", len(args))
		}
		if err := w.exec(ctx, query, args...); err != nil {
			return errors.Wrapf(err, "failed to delete %s in scope %s", t.kind, scope)
		}
	}
	return nil
}

func deleteRows(ctx context.Context, w *Writer, tableName string, ids []int64) error {
	if err := w.usable(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", tableName)
	return errors.Wrapf(w.exec(ctx, query, ids), "failed to delete from %s", tableName)
}
