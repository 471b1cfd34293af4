package readers

import (
	"context"

	"github.com/jackc/pgx/v5"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var computeServerScope = utils.ScopeColumns{Cloud: "cloud_id", Account: "account_id", ExternalID: "external_id"}

var computeServerTable = table[models.ComputeServer]{
	name: "compute_servers",
	kind: "compute server",
	columns: []string{"id", "uuid", "cloud_id", "account_id", "external_id", "name", "hostname",
		"internal_ip", "external_ip", "power_state", "status", "max_cores", "max_memory",
		"resource_pool_id", "created_at", "updated_at"},
	scope: computeServerScope,
	scan: func(row pgx.Row) (models.ComputeServer, error) {
		var s models.ComputeServer
		err := row.Scan(&s.ID, &s.UUID, &s.CloudID, &s.AccountID, &s.ExternalID, &s.Name, &s.Hostname,
			&s.InternalIP, &s.ExternalIP, &s.PowerState, &s.Status, &s.MaxCores, &s.MaxMemory,
			&s.ResourcePoolID, &s.CreatedAt, &s.UpdatedAt)
		return s, err
	},
}

// computeServerIdentityTable selects only the identity columns
var computeServerIdentityTable = table[models.ComputeServerIdentityProjection]{
	name:    "compute_servers",
	kind:    "compute server",
	columns: []string{"id", "external_id", "name"},
	scope:   computeServerScope,
	scan: func(row pgx.Row) (models.ComputeServerIdentityProjection, error) {
		var p models.ComputeServerIdentityProjection
		err := row.Scan(&p.ID, &p.ExternalID, &p.Name)
		return p, err
	},
}

// ListComputeServers lists compute servers
func (r *Reader) ListComputeServers(ctx context.Context, consume func(models.ComputeServer) error, scope ports.Scope) error {
	return list(ctx, r, computeServerTable, scope, consume)
}

// ListComputeServerIdentities lists identity projections of compute servers
func (r *Reader) ListComputeServerIdentities(ctx context.Context, consume func(models.ComputeServerIdentityProjection) error, scope ports.Scope) error {
	return list(ctx, r, computeServerIdentityTable, scope, consume)
}

// GetComputeServerByID gets a compute server by ID
func (r *Reader) GetComputeServerByID(ctx context.Context, id int64) (*models.ComputeServer, error) {
	return get(ctx, r, computeServerTable, id)
}
