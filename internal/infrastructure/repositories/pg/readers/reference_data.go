package readers

import (
	"context"

	"github.com/jackc/pgx/v5"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var referenceDataScope = utils.ScopeColumns{Cloud: "cloud_id", Account: "account_id", Category: "category", ExternalID: "external_id"}

var referenceDataTable = table[models.ReferenceData]{
	name: "reference_data",
	kind: "reference data",
	columns: []string{"id", "cloud_id", "account_id", "category", "code", "external_id", "name",
		"keyname", "value", "type", "created_at", "updated_at"},
	scope: referenceDataScope,
	scan: func(row pgx.Row) (models.ReferenceData, error) {
		var e models.ReferenceData
		err := row.Scan(&e.ID, &e.CloudID, &e.AccountID, &e.Category, &e.Code, &e.ExternalID, &e.Name,
			&e.Keyname, &e.Value, &e.Type, &e.CreatedAt, &e.UpdatedAt)
		return e, err
	},
}

var referenceDataProjectionTable = table[models.ReferenceDataSyncProjection]{
	name:    "reference_data",
	kind:    "reference data",
	columns: []string{"id", "external_id", "name"},
	scope:   referenceDataScope,
	scan: func(row pgx.Row) (models.ReferenceDataSyncProjection, error) {
		var p models.ReferenceDataSyncProjection
		err := row.Scan(&p.ID, &p.ExternalID, &p.Name)
		return p, err
	},
}

// ListReferenceData lists reference data entries
func (r *Reader) ListReferenceData(ctx context.Context, consume func(models.ReferenceData) error, scope ports.Scope) error {
	return list(ctx, r, referenceDataTable, scope, consume)
}

// ListReferenceDataProjections lists sync projections of reference data entries
func (r *Reader) ListReferenceDataProjections(ctx context.Context, consume func(models.ReferenceDataSyncProjection) error, scope ports.Scope) error {
	return list(ctx, r, referenceDataProjectionTable, scope, consume)
}
