package utils

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/ports"
)

// ScopeColumns names the columns a table can be scoped by. Empty means unsupported.
type ScopeColumns struct {
	Cloud      string
	Account    string
	Category   string
	ExternalID string
	Server     string
	Instance   string
}

// BuildScopeFilter builds WHERE clause and arguments for scope filtering.
// Placeholders are numbered after argOffset so the clause can follow other arguments.
func BuildScopeFilter(scope ports.Scope, tableAlias string, cols ScopeColumns, argOffset int) (string, []any, error) {
	if scope == nil || scope.IsEmpty() {
		return "", nil, nil
	}
	col := func(name string) string {
		if tableAlias == "" {
			return name
		}
		return tableAlias + "." + name
	}
	ph := func(n int) string { return fmt.Sprintf("$%d", argOffset+n) }
	unsupported := errors.Wrapf(ports.ErrInvalidArgument, "scope %s is not supported here", scope)

	switch s := scope.(type) {
	case ports.IDScope:
		return col("id") + " = ANY(" + ph(1) + ")", []any{s.IDs}, nil
	case ports.CloudScope:
		if cols.Cloud == "" {
			return "", nil, unsupported
		}
		return col(cols.Cloud) + " = " + ph(1), []any{s.CloudID}, nil
	case ports.CategoryScope:
		if cols.Cloud == "" || cols.Category == "" {
			return "", nil, unsupported
		}
		return col(cols.Cloud) + " = " + ph(1) + " AND " + col(cols.Category) + " = " + ph(2),
			[]any{s.CloudID, s.Category}, nil
	case ports.ExternalIDScope:
		if cols.ExternalID == "" {
			return "", nil, unsupported
		}
		return col(cols.ExternalID) + " = ANY(" + ph(1) + ")", []any{s.ExternalIDs}, nil
	case ports.AccountScope:
		if cols.Account == "" {
			return "", nil, unsupported
		}
		return col(cols.Account) + " = " + ph(1), []any{s.AccountID}, nil
	case ports.ServerScope:
		if cols.Server == "" {
			return "", nil, unsupported
		}
		return col(cols.Server) + " = " + ph(1), []any{s.ServerID}, nil
	case ports.InstanceScope:
		if cols.Instance == "" {
			return "", nil, unsupported
		}
		return col(cols.Instance) + " = " + ph(1), []any{s.InstanceID}, nil
	}
	return "", nil, unsupported
}

// SelectList renders columns qualified by tableAlias
func SelectList(tableAlias string, columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = tableAlias + "." + c
	}
	return strings.Join(out, ", ")
}

// IsUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
