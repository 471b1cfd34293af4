package models

import "time"

// PowerState of a compute server
type PowerState string

const (
	PowerStateOn      PowerState = "on"
	PowerStateOff     PowerState = "off"
	PowerStatePaused  PowerState = "paused"
	PowerStateUnknown PowerState = "unknown"
)

// IsValid reports whether p is one of the known power states
func (p PowerState) IsValid() bool {
	switch p {
	case PowerStateOn, PowerStateOff, PowerStatePaused, PowerStateUnknown:
		return true
	}
	return false
}

// ContainerStatus returns the workload status implied by the server power state
func (p PowerState) ContainerStatus() ContainerStatus {
	switch p {
	case PowerStateOn:
		return ContainerStatusRunning
	case PowerStateOff:
		return ContainerStatusStopped
	case PowerStatePaused:
		return ContainerStatusSuspended
	default:
		return ContainerStatusUnknown
	}
}

// ComputeServer is a host inventory record for a VM or bare-metal server
type ComputeServer struct {
	ID             int64      `json:"id"`
	UUID           string     `json:"uuid"`
	CloudID        int64      `json:"cloudId"`
	AccountID      int64      `json:"accountId"`
	ExternalID     string     `json:"externalId"`
	Name           string     `json:"name"`
	Hostname       string     `json:"hostname,omitempty"`
	InternalIP     string     `json:"internalIp,omitempty"`
	ExternalIP     string     `json:"externalIp,omitempty"`
	PowerState     PowerState `json:"powerState"`
	Status         string     `json:"status,omitempty"`
	MaxCores       int64      `json:"maxCores,omitempty"`
	MaxMemory      int64      `json:"maxMemory,omitempty"`
	ResourcePoolID int64      `json:"resourcePoolId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Projection returns the identity snapshot of the server
func (s *ComputeServer) Projection() ComputeServerIdentityProjection {
	return ComputeServerIdentityProjection{ID: s.ID, ExternalID: s.ExternalID, Name: s.Name}
}

// TouchOnCreate stamps creation and update times
func (s *ComputeServer) TouchOnCreate(now time.Time) {
	s.CreatedAt = now
	s.UpdatedAt = now
}

// ComputeServerIdentityProjection is the minimal identity of a server used for diffing
type ComputeServerIdentityProjection struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"externalId"`
	Name       string `json:"name"`
}
