package writers

import (
	"context"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var instanceTable = table[models.Instance]{
	name:    "instances",
	kind:    "instance",
	columns: []string{"name", "cloud_id", "account_id", "status"},
	values: func(i *models.Instance) []any {
		return []any{i.Name, i.CloudID, i.AccountID, string(i.Status)}
	},
	id:    func(i *models.Instance) *int64 { return &i.ID },
	scope: utils.ScopeColumns{Cloud: "cloud_id", Account: "account_id"},
}

var containerTable = table[models.Container]{
	name:    "containers",
	kind:    "container",
	columns: []string{"name", "instance_id", "server_id", "status"},
	values: func(c *models.Container) []any {
		return []any{c.Name, c.InstanceID, c.ServerID, string(c.Status)}
	},
	id:    func(c *models.Container) *int64 { return &c.ID },
	scope: utils.ScopeColumns{Server: "server_id", Instance: "instance_id"},
}

// SyncInstances syncs instances to PostgreSQL
func (w *Writer) SyncInstances(ctx context.Context, instances []models.Instance, scope ports.Scope, opts ...ports.Option) error {
	return syncRows(ctx, w, instanceTable, instances, scope, opts)
}

// SyncContainers syncs containers to PostgreSQL
func (w *Writer) SyncContainers(ctx context.Context, containers []models.Container, scope ports.Scope, opts ...ports.Option) error {
	return syncRows(ctx, w, containerTable, containers, scope, opts)
}
