package rdb

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"cloudsync-pg-backend/internal/domain/ports"
)

// scopeColumns names the columns a kind can be scoped by. Empty means unsupported.
type scopeColumns struct {
	cloud      string
	account    string
	category   string
	externalID string
	server     string
	instance   string
}

func applyScope(q *gorm.DB, name string, cols scopeColumns, scope ports.Scope) (*gorm.DB, error) {
	if scope == nil || scope.IsEmpty() {
		return q, nil
	}
	unsupported := errors.Wrapf(ports.ErrInvalidArgument, "scope %s is not supported for %s", scope, name)
	switch s := scope.(type) {
	case ports.IDScope:
		return q.Where("id IN ?", s.IDs), nil
	case ports.CloudScope:
		if cols.cloud == "" {
			return nil, unsupported
		}
		return q.Where(cols.cloud+" = ?", s.CloudID), nil
	case ports.CategoryScope:
		if cols.cloud == "" || cols.category == "" {
			return nil, unsupported
		}
		return q.Where(cols.cloud+" = ? AND "+cols.category+" = ?", s.CloudID, s.Category), nil
	case ports.ExternalIDScope:
		if cols.externalID == "" {
			return nil, unsupported
		}
		return q.Where(cols.externalID+" IN ?", s.ExternalIDs), nil
	case ports.AccountScope:
		if cols.account == "" {
			return nil, unsupported
		}
		return q.Where(cols.account+" = ?", s.AccountID), nil
	case ports.ServerScope:
		if cols.server == "" {
			return nil, unsupported
		}
		return q.Where(cols.server+" = ?", s.ServerID), nil
	case ports.InstanceScope:
		if cols.instance == "" {
			return nil, unsupported
		}
		return q.Where(cols.instance+" = ?", s.InstanceID), nil
	}
	return nil, unsupported
}
