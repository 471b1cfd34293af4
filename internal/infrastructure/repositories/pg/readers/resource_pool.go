package readers

import (
	"context"

	"github.com/jackc/pgx/v5"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var resourcePoolTable = table[models.ResourcePool]{
	name:    "resource_pools",
	kind:    "resource pool",
	columns: []string{"id", "cloud_id", "category", "external_id", "name", "type", "active"},
	scope:   utils.ScopeColumns{Cloud: "cloud_id", Category: "category", ExternalID: "external_id"},
	scan: func(row pgx.Row) (models.ResourcePool, error) {
		var p models.ResourcePool
		err := row.Scan(&p.ID, &p.CloudID, &p.Category, &p.ExternalID, &p.Name, &p.Type, &p.Active)
		return p, err
	},
}

// ListResourcePools lists resource pools
func (r *Reader) ListResourcePools(ctx context.Context, consume func(models.ResourcePool) error, scope ports.Scope) error {
	return list(ctx, r, resourcePoolTable, scope, consume)
}
