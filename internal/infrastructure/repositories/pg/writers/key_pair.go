package writers

import (
	"context"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var keyPairTable = table[models.KeyPair]{
	name: "key_pairs",
	kind: "key pair",
	columns: []string{"account_id", "cloud_id", "name", "public_key", "private_key",
		"public_fingerprint", "external_id"},
	values: func(k *models.KeyPair) []any {
		return []any{k.AccountID, k.CloudID, k.Name, k.PublicKey, k.PrivateKey, k.PublicFingerprint, k.ExternalID}
	},
	id:    func(k *models.KeyPair) *int64 { return &k.ID },
	scope: utils.ScopeColumns{Cloud: "cloud_id", Account: "account_id", ExternalID: "external_id"},
}

// SyncKeyPairs syncs key pairs to PostgreSQL
func (w *Writer) SyncKeyPairs(ctx context.Context, keyPairs []models.KeyPair, scope ports.Scope, opts ...ports.Option) error {
	return syncRows(ctx, w, keyPairTable, keyPairs, scope, opts)
}
