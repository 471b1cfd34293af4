package models

// InstanceStatus is the lifecycle status of an instance
type InstanceStatus string

const (
	InstanceStatusProvisioning InstanceStatus = "provisioning"
	InstanceStatusRunning      InstanceStatus = "running"
	InstanceStatusStopped      InstanceStatus = "stopped"
	InstanceStatusSuspended    InstanceStatus = "suspended"
	InstanceStatusFailed       InstanceStatus = "failed"
	InstanceStatusUnknown      InstanceStatus = "unknown"
)

// IsValid reports whether s is one of the known statuses
func (s InstanceStatus) IsValid() bool {
	switch s {
	case InstanceStatusProvisioning, InstanceStatusRunning, InstanceStatusStopped,
		InstanceStatusSuspended, InstanceStatusFailed, InstanceStatusUnknown:
		return true
	}
	return false
}

// Instance groups one or more containers deployed together
type Instance struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	CloudID   int64          `json:"cloudId"`
	AccountID int64          `json:"accountId"`
	Status    InstanceStatus `json:"status"`
}

// ContainerStatus is the runtime status of a container (workload)
type ContainerStatus string

const (
	ContainerStatusRunning   ContainerStatus = "running"
	ContainerStatusStopped   ContainerStatus = "stopped"
	ContainerStatusSuspended ContainerStatus = "suspended"
	ContainerStatusUnknown   ContainerStatus = "unknown"
)

// Container is a workload of an instance placed on a compute server
type Container struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	InstanceID int64           `json:"instanceId"`
	ServerID   int64           `json:"serverId"`
	Status     ContainerStatus `json:"status"`
}
