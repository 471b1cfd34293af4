package models

// ResourcePool is a cloud-side grouping of compute (resource group, folder, VPC)
type ResourcePool struct {
	ID         int64  `json:"id"`
	CloudID    int64  `json:"cloudId"`
	Category   string `json:"category"`
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Active     bool   `json:"active"`
}
