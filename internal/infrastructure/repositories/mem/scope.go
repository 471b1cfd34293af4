package mem

import (
	"slices"

	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/ports"
)

// rowFields exposes the columns scopes filter on. A nil pointer means the kind
// has no such column and scopes on it are rejected.
type rowFields struct {
	id         int64
	cloudID    *int64
	accountID  *int64
	category   *string
	externalID *string
	serverID   *int64
	instanceID *int64
}

func matchScope(kind string, f rowFields, scope ports.Scope) (bool, error) {
	if scope == nil || scope.IsEmpty() {
		return true, nil
	}
	unsupported := func() (bool, error) {
		return false, errors.Wrapf(ports.ErrInvalidArgument, "scope %s is not supported for %s", scope, kind)
	}
	switch s := scope.(type) {
	case ports.IDScope:
		return slices.Contains(s.IDs, f.id), nil
	case ports.CloudScope:
		if f.cloudID == nil {
			return unsupported()
		}
		return *f.cloudID == s.CloudID, nil
	case ports.CategoryScope:
		if f.cloudID == nil || f.category == nil {
			return unsupported()
		}
		return *f.cloudID == s.CloudID && *f.category == s.Category, nil
	case ports.ExternalIDScope:
		if f.externalID == nil {
			return unsupported()
		}
		return slices.Contains(s.ExternalIDs, *f.externalID), nil
	case ports.AccountScope:
		if f.accountID == nil {
			return unsupported()
		}
		return *f.accountID == s.AccountID, nil
	case ports.ServerScope:
		if f.serverID == nil {
			return unsupported()
		}
		return *f.serverID == s.ServerID, nil
	case ports.InstanceScope:
		if f.instanceID == nil {
			return unsupported()
		}
		return *f.instanceID == s.InstanceID, nil
	}
	return unsupported()
}
