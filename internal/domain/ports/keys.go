package ports

import "cloudsync-pg-backend/internal/domain/models"

// KeyGenerator creates a new key pair. The returned pair has no ID and no
// owner; callers fill AccountID before storing it.
type KeyGenerator interface {
	GenerateKeyPair(name string) (*models.KeyPair, error)
}
