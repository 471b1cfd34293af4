package ports

import (
	"cloudsync-pg-backend/internal/domain/models"
)

// SyncOption selects the sync operation of a writer call
type SyncOption struct {
	Operation models.SyncOp
}

// WithSyncOp creates an option with the given sync operation
func WithSyncOp(op models.SyncOp) Option {
	return SyncOption{Operation: op}
}

// SyncOpFromOptions extracts the sync operation, defaulting to upsert
func SyncOpFromOptions(opts []Option) models.SyncOp {
	for _, opt := range opts {
		if so, ok := opt.(SyncOption); ok {
			return so.Operation
		}
	}
	return models.SyncOpUpsert
}
