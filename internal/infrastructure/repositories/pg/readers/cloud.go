package readers

import (
	"context"

	"github.com/jackc/pgx/v5"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var cloudTable = table[models.Cloud]{
	name:    "clouds",
	kind:    "cloud",
	columns: []string{"id", "name", "code", "account_id", "status", "status_message", "last_sync_at"},
	scope:   utils.ScopeColumns{Cloud: "id", Account: "account_id"},
	scan: func(row pgx.Row) (models.Cloud, error) {
		var c models.Cloud
		err := row.Scan(&c.ID, &c.Name, &c.Code, &c.AccountID, &c.Status, &c.StatusMessage, &c.LastSyncAt)
		return c, err
	},
}

// ListClouds lists clouds
func (r *Reader) ListClouds(ctx context.Context, consume func(models.Cloud) error, scope ports.Scope) error {
	return list(ctx, r, cloudTable, scope, consume)
}

// GetCloudByID gets a cloud by ID
func (r *Reader) GetCloudByID(ctx context.Context, id int64) (*models.Cloud, error) {
	return get(ctx, r, cloudTable, id)
}
