package writers

import (
	"context"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var computeServerTable = table[models.ComputeServer]{
	name: "compute_servers",
	kind: "compute server",
	columns: []string{"uuid", "cloud_id", "account_id", "external_id", "name", "hostname", "internal_ip",
		"external_ip", "power_state", "status", "max_cores", "max_memory", "resource_pool_id",
		"created_at", "updated_at"},
	values: func(s *models.ComputeServer) []any {
		return []any{s.UUID, s.CloudID, s.AccountID, s.ExternalID, s.Name, s.Hostname, s.InternalIP,
			s.ExternalIP, string(s.PowerState), s.Status, s.MaxCores, s.MaxMemory, s.ResourcePoolID,
			s.CreatedAt, s.UpdatedAt}
	},
	id:    func(s *models.ComputeServer) *int64 { return &s.ID },
	scope: utils.ScopeColumns{Cloud: "cloud_id", Account: "account_id", ExternalID: "external_id"},
}

// SyncComputeServers syncs compute servers to PostgreSQL
func (w *Writer) SyncComputeServers(ctx context.Context, servers []models.ComputeServer, scope ports.Scope, opts ...ports.Option) error {
	return syncRows(ctx, w, computeServerTable, servers, scope, opts)
}

// DeleteComputeServersByIDs deletes compute servers by IDs
func (w *Writer) DeleteComputeServersByIDs(ctx context.Context, ids []int64, opts ...ports.Option) error {
	return deleteRows(ctx, w, computeServerTable.name, ids)
}
