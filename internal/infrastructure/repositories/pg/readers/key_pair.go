package readers

import (
	"context"

	"github.com/jackc/pgx/v5"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/internal/utils"
)

var keyPairTable = table[models.KeyPair]{
	name: "key_pairs",
	kind: "key pair",
	columns: []string{"id", "account_id", "cloud_id", "name", "public_key", "private_key",
		"public_fingerprint", "external_id"},
	scope: utils.ScopeColumns{Cloud: "cloud_id", Account: "account_id", ExternalID: "external_id"},
	scan: func(row pgx.Row) (models.KeyPair, error) {
		var k models.KeyPair
		err := row.Scan(&k.ID, &k.AccountID, &k.CloudID, &k.Name, &k.PublicKey, &k.PrivateKey,
			&k.PublicFingerprint, &k.ExternalID)
		return k, err
	},
}

// ListKeyPairs lists key pairs
func (r *Reader) ListKeyPairs(ctx context.Context, consume func(models.KeyPair) error, scope ports.Scope) error {
	return list(ctx, r, keyPairTable, scope, consume)
}
