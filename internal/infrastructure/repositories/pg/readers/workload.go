package readers

import (
	"context"

	"github.com/jackc/pgx/v5"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var instanceTable = table[models.Instance]{
	name:    "instances",
	kind:    "instance",
	columns: []string{"id", "name", "cloud_id", "account_id", "status"},
	scope:   utils.ScopeColumns{Cloud: "cloud_id", Account: "account_id"},
	scan: func(row pgx.Row) (models.Instance, error) {
		var i models.Instance
		err := row.Scan(&i.ID, &i.Name, &i.CloudID, &i.AccountID, &i.Status)
		return i, err
	},
}

var containerTable = table[models.Container]{
	name:    "containers",
	kind:    "container",
	columns: []string{"id", "name", "instance_id", "server_id", "status"},
	scope:   utils.ScopeColumns{Server: "server_id", Instance: "instance_id"},
	scan: func(row pgx.Row) (models.Container, error) {
		var c models.Container
		err := row.Scan(&c.ID, &c.Name, &c.InstanceID, &c.ServerID, &c.Status)
		return c, err
	},
}

// ListInstances lists instances
func (r *Reader) ListInstances(ctx context.Context, consume func(models.Instance) error, scope ports.Scope) error {
	return list(ctx, r, instanceTable, scope, consume)
}

// GetInstanceByID gets an instance by ID
func (r *Reader) GetInstanceByID(ctx context.Context, id int64) (*models.Instance, error) {
	return get(ctx, r, instanceTable, id)
}

// ListContainers lists containers
func (r *Reader) ListContainers(ctx context.Context, consume func(models.Container) error, scope ports.Scope) error {
	return list(ctx, r, containerTable, scope, consume)
}

// GetContainerByID gets a container by ID
func (r *Reader) GetContainerByID(ctx context.Context, id int64) (*models.Container, error) {
	return get(ctx, r, containerTable, id)
}
