package writers

import (
	"context"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var cloudTable = table[models.Cloud]{
	name:    "clouds",
	kind:    "cloud",
	columns: []string{"name", "code", "account_id", "status", "status_message", "last_sync_at"},
	values: func(c *models.Cloud) []any {
		return []any{c.Name, c.Code, c.AccountID, string(c.Status), c.StatusMessage, c.LastSyncAt}
	},
	id:    func(c *models.Cloud) *int64 { return &c.ID },
	scope: utils.ScopeColumns{Cloud: "id", Account: "account_id"},
}

// SyncClouds syncs clouds to PostgreSQL
func (w *Writer) SyncClouds(ctx context.Context, clouds []models.Cloud, scope ports.Scope, opts ...ports.Option) error {
	return syncRows(ctx, w, cloudTable, clouds, scope, opts)
}
