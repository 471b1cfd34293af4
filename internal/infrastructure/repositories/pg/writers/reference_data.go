package writers

import (
	"context"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var referenceDataTable = table[models.ReferenceData]{
	name: "reference_data",
	kind: "reference data",
	columns: []string{"cloud_id", "account_id", "category", "code", "external_id", "name", "keyname",
		"value", "type", "created_at", "updated_at"},
	values: func(e *models.ReferenceData) []any {
		return []any{e.CloudID, e.AccountID, e.Category, e.Code, e.ExternalID, e.Name, e.Keyname,
			e.Value, e.Type, e.CreatedAt, e.UpdatedAt}
	},
	id:            func(e *models.ReferenceData) *int64 { return &e.ID },
	scope:         utils.ScopeColumns{Cloud: "cloud_id", Account: "account_id", Category: "category", ExternalID: "external_id"},
	naturalKey:    []string{"cloud_id", "category", "external_id"},
	hasNaturalKey: func(e *models.ReferenceData) bool { return e.ExternalID != "" },
}

// SyncReferenceData syncs reference data entries to PostgreSQL. Entries without
// an id are matched on (cloud_id, category, external_id).
func (w *Writer) SyncReferenceData(ctx context.Context, entries []models.ReferenceData, scope ports.Scope, opts ...ports.Option) error {
	return syncRows(ctx, w, referenceDataTable, entries, scope, opts)
}

// DeleteReferenceDataByIDs deletes reference data entries by IDs
func (w *Writer) DeleteReferenceDataByIDs(ctx context.Context, ids []int64, opts ...ports.Option) error {
	return deleteRows(ctx, w, referenceDataTable.name, ids)
}
