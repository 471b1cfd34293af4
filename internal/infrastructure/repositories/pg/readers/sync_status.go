package readers

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/models"
)

// GetSyncStatus gets the sync status (singleton row). A store that was never
// written reports a zero status.
func (r *Reader) GetSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	query := `SELECT updated_at, total_operations FROM sync_status WHERE id = 1`

	var syncStatus models.SyncStatus
	err := r.queryRow(ctx, query).Scan(&syncStatus.UpdatedAt, &syncStatus.TotalOperations)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.SyncStatus{}, nil
		}
		return nil, errors.Wrap(err, "failed to scan sync status")
	}
	return &syncStatus, nil
}
