package models

// KeyPair holds the ssh credentials of an account
type KeyPair struct {
	ID                int64  `json:"id"`
	AccountID         int64  `json:"accountId"`
	CloudID           int64  `json:"cloudId,omitempty"`
	Name              string `json:"name"`
	PublicKey         string `json:"publicKey"`
	PrivateKey        string `json:"-"`
	PublicFingerprint string `json:"publicFingerprint"`
	// ExternalID is the identifier of the key in the provider API
	ExternalID string `json:"externalId,omitempty"`
}
