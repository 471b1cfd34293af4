package models

import "time"

// ReferenceData is a cached lookup entry (flavor, network, image, ...) of a cloud.
// ExternalID is unique within the (CloudID, Category) namespace.
type ReferenceData struct {
	ID         int64     `json:"id"`
	CloudID    int64     `json:"cloudId"`
	AccountID  int64     `json:"accountId"`
	Category   string    `json:"category"`
	Code       string    `json:"code"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	Keyname    string    `json:"keyname,omitempty"`
	Value      string    `json:"value,omitempty"`
	Type       string    `json:"type,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NamespaceKey identifies the entry within its (cloud, category) namespace
func (r *ReferenceData) NamespaceKey() ReferenceDataKey {
	return ReferenceDataKey{CloudID: r.CloudID, Category: r.Category, ExternalID: r.ExternalID}
}

// Projection returns the sync projection of the entry
func (r *ReferenceData) Projection() ReferenceDataSyncProjection {
	return ReferenceDataSyncProjection{ID: r.ID, ExternalID: r.ExternalID, Name: r.Name}
}

// ReferenceDataKey is the natural key of a reference data entry
type ReferenceDataKey struct {
	CloudID    int64
	Category   string
	ExternalID string
}

// ReferenceDataSyncProjection is the minimal identity of a reference data entry
type ReferenceDataSyncProjection struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
}
