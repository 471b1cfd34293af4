package keygen

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

var _ ports.KeyGenerator = (*Ed25519Generator)(nil)

// Ed25519Generator produces OpenSSH encoded ed25519 key pairs
type Ed25519Generator struct {
	// Rand defaults to crypto/rand
	Rand io.Reader
}

// NewEd25519Generator creates a generator reading from crypto/rand
func NewEd25519Generator() *Ed25519Generator {
	return &Ed25519Generator{Rand: rand.Reader}
}

// GenerateKeyPair returns a key pair with an authorized_keys public key, a
// PEM "OPENSSH PRIVATE KEY" private key and a SHA256 fingerprint
func (g *Ed25519Generator) GenerateKeyPair(name string) (*models.KeyPair, error) {
	random := g.Rand
	if random == nil {
		random = rand.Reader
	}
	pub, priv, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate ed25519 key")
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode public key")
	}
	block, err := ssh.MarshalPrivateKey(priv, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode private key")
	}
	return &models.KeyPair{
		Name:              name,
		PublicKey:         string(ssh.MarshalAuthorizedKey(sshPub)),
		PrivateKey:        string(pem.EncodeToMemory(block)),
		PublicFingerprint: ssh.FingerprintSHA256(sshPub),
	}, nil
}
