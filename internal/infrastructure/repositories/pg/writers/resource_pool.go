package writers

import (
	"context"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var resourcePoolTable = table[models.ResourcePool]{
	name:    "resource_pools",
	kind:    "resource pool",
	columns: []string{"cloud_id", "category", "external_id", "name", "type", "active"},
	values: func(p *models.ResourcePool) []any {
		return []any{p.CloudID, p.Category, p.ExternalID, p.Name, p.Type, p.Active}
	},
	id:            func(p *models.ResourcePool) *int64 { return &p.ID },
	scope:         utils.ScopeColumns{Cloud: "cloud_id", Category: "category", ExternalID: "external_id"},
	naturalKey:    []string{"cloud_id", "category", "external_id"},
	hasNaturalKey: func(p *models.ResourcePool) bool { return p.ExternalID != "" },
}

// SyncResourcePools syncs resource pools to PostgreSQL
func (w *Writer) SyncResourcePools(ctx context.Context, pools []models.ResourcePool, scope ports.Scope, opts ...ports.Option) error {
	return syncRows(ctx, w, resourcePoolTable, pools, scope, opts)
}
