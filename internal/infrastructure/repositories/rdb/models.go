package rdb

import (
	"time"

	"cloudsync-pg-backend/internal/domain/models"
)

// CloudRecord is the RDB persistence model for domain Cloud.
// Table name: clouds
type CloudRecord struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"`
	Name          string     `gorm:"type:text;not null"`
	Code          string     `gorm:"type:text"`
	AccountID     int64      `gorm:"index;not null"`
	Status        string     `gorm:"type:text;not null"`
	StatusMessage string     `gorm:"type:text"`
	LastSyncAt    *time.Time
}

func (CloudRecord) TableName() string { return "clouds" }

// ComputeServerRecord persistence model
type ComputeServerRecord struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	UUID           string    `gorm:"type:text"`
	CloudID        int64     `gorm:"index;not null"` // references Cloud
	AccountID      int64     `gorm:"index;not null"`
	ExternalID     string    `gorm:"type:text;index"`
	Name           string    `gorm:"type:text;not null"`
	Hostname       string    `gorm:"type:text"`
	InternalIP     string    `gorm:"type:text"`
	ExternalIP     string    `gorm:"type:text"`
	PowerState     string    `gorm:"type:text;not null"`
	Status         string    `gorm:"type:text"`
	MaxCores       int64
	MaxMemory      int64
	ResourcePoolID int64
	CreatedAt      time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (ComputeServerRecord) TableName() string { return "compute_servers" }

// InstanceRecord persistence model
type InstanceRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:text;not null"`
	CloudID   int64  `gorm:"index;not null"`
	AccountID int64  `gorm:"index;not null"`
	Status    string `gorm:"type:text;not null"`
}

func (InstanceRecord) TableName() string { return "instances" }

// ContainerRecord persistence model
type ContainerRecord struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"type:text;not null"`
	InstanceID int64  `gorm:"index;not null"` // references Instance
	ServerID   int64  `gorm:"index;not null"` // references ComputeServer
	Status     string `gorm:"type:text;not null"`
}

func (ContainerRecord) TableName() string { return "containers" }

// ReferenceDataRecord persistence model. ExternalID is unique per (cloud, category).
type ReferenceDataRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	CloudID    int64     `gorm:"not null;uniqueIndex:ux_reference_data_ns,priority:1"`
	AccountID  int64     `gorm:"index"`
	Category   string    `gorm:"type:text;not null;uniqueIndex:ux_reference_data_ns,priority:2"`
	Code       string    `gorm:"type:text"`
	ExternalID string    `gorm:"type:text;not null;uniqueIndex:ux_reference_data_ns,priority:3;index"`
	Name       string    `gorm:"type:text"`
	Keyname    string    `gorm:"type:text"`
	Value      string    `gorm:"type:text"`
	Type       string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (ReferenceDataRecord) TableName() string { return "reference_data" }

// ResourcePoolRecord persistence model
type ResourcePoolRecord struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	CloudID    int64  `gorm:"not null;uniqueIndex:ux_resource_pools_ns,priority:1"`
	Category   string `gorm:"type:text;not null;uniqueIndex:ux_resource_pools_ns,priority:2"`
	ExternalID string `gorm:"type:text;not null;uniqueIndex:ux_resource_pools_ns,priority:3"`
	Name       string `gorm:"type:text"`
	Type       string `gorm:"type:text"`
	Active     bool   `gorm:"not null"`
}

func (ResourcePoolRecord) TableName() string { return "resource_pools" }

// KeyPairRecord persistence model
type KeyPairRecord struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	AccountID         int64  `gorm:"index;not null"`
	CloudID           int64
	Name              string `gorm:"type:text;not null"`
	PublicKey         string `gorm:"type:text;not null"`
	PrivateKey        string `gorm:"type:text"`
	PublicFingerprint string `gorm:"type:text"`
	ExternalID        string `gorm:"type:text"`
}

func (KeyPairRecord) TableName() string { return "key_pairs" }

// SyncStatusRecord is a single row table tracking the last commit
type SyncStatusRecord struct {
	ID              int       `gorm:"primaryKey"`
	UpdatedAt       time.Time `gorm:"not null"`
	TotalOperations int64     `gorm:"not null"`
}

func (SyncStatusRecord) TableName() string { return "sync_status" }

func cloudToRecord(c *models.Cloud) *CloudRecord {
	return &CloudRecord{ID: c.ID, Name: c.Name, Code: c.Code, AccountID: c.AccountID,
		Status: string(c.Status), StatusMessage: c.StatusMessage, LastSyncAt: c.LastSyncAt}
}
func cloudToModel(r *CloudRecord) models.Cloud {
	return models.Cloud{ID: r.ID, Name: r.Name, Code: r.Code, AccountID: r.AccountID,
		Status: models.CloudStatus(r.Status), StatusMessage: r.StatusMessage, LastSyncAt: r.LastSyncAt}
}

func computeServerToRecord(s *models.ComputeServer) *ComputeServerRecord {
	return &ComputeServerRecord{ID: s.ID, UUID: s.UUID, CloudID: s.CloudID, AccountID: s.AccountID,
		ExternalID: s.ExternalID, Name: s.Name, Hostname: s.Hostname, InternalIP: s.InternalIP,
		ExternalIP: s.ExternalIP, PowerState: string(s.PowerState), Status: s.Status, MaxCores: s.MaxCores,
		MaxMemory: s.MaxMemory, ResourcePoolID: s.ResourcePoolID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}
func computeServerToModel(r *ComputeServerRecord) models.ComputeServer {
	return models.ComputeServer{ID: r.ID, UUID: r.UUID, CloudID: r.CloudID, AccountID: r.AccountID,
		ExternalID: r.ExternalID, Name: r.Name, Hostname: r.Hostname, InternalIP: r.InternalIP,
		ExternalIP: r.ExternalIP, PowerState: models.PowerState(r.PowerState), Status: r.Status, MaxCores: r.MaxCores,
		MaxMemory: r.MaxMemory, ResourcePoolID: r.ResourcePoolID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func instanceToRecord(i *models.Instance) *InstanceRecord {
	return &InstanceRecord{ID: i.ID, Name: i.Name, CloudID: i.CloudID, AccountID: i.AccountID, Status: string(i.Status)}
}
func instanceToModel(r *InstanceRecord) models.Instance {
	return models.Instance{ID: r.ID, Name: r.Name, CloudID: r.CloudID, AccountID: r.AccountID, Status: models.InstanceStatus(r.Status)}
}

func containerToRecord(c *models.Container) *ContainerRecord {
	return &ContainerRecord{ID: c.ID, Name: c.Name, InstanceID: c.InstanceID, ServerID: c.ServerID, Status: string(c.Status)}
}
func containerToModel(r *ContainerRecord) models.Container {
	return models.Container{ID: r.ID, Name: r.Name, InstanceID: r.InstanceID, ServerID: r.ServerID, Status: models.ContainerStatus(r.Status)}
}

func referenceDataToRecord(e *models.ReferenceData) *ReferenceDataRecord {
	return &ReferenceDataRecord{ID: e.ID, CloudID: e.CloudID, AccountID: e.AccountID, Category: e.Category,
		Code: e.Code, ExternalID: e.ExternalID, Name: e.Name, Keyname: e.Keyname, Value: e.Value, Type: e.Type,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}
func referenceDataToModel(r *ReferenceDataRecord) models.ReferenceData {
	return models.ReferenceData{ID: r.ID, CloudID: r.CloudID, AccountID: r.AccountID, Category: r.Category,
		Code: r.Code, ExternalID: r.ExternalID, Name: r.Name, Keyname: r.Keyname, Value: r.Value, Type: r.Type,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func resourcePoolToRecord(p *models.ResourcePool) *ResourcePoolRecord {
	return &ResourcePoolRecord{ID: p.ID, CloudID: p.CloudID, Category: p.Category, ExternalID: p.ExternalID,
		Name: p.Name, Type: p.Type, Active: p.Active}
}
func resourcePoolToModel(r *ResourcePoolRecord) models.ResourcePool {
	return models.ResourcePool{ID: r.ID, CloudID: r.CloudID, Category: r.Category, ExternalID: r.ExternalID,
		Name: r.Name, Type: r.Type, Active: r.Active}
}

func keyPairToRecord(k *models.KeyPair) *KeyPairRecord {
	return &KeyPairRecord{ID: k.ID, AccountID: k.AccountID, CloudID: k.CloudID, Name: k.Name, PublicKey: k.PublicKey,
		PrivateKey: k.PrivateKey, PublicFingerprint: k.PublicFingerprint, ExternalID: k.ExternalID}
}
func keyPairToModel(r *KeyPairRecord) models.KeyPair {
	return models.KeyPair{ID: r.ID, AccountID: r.AccountID, CloudID: r.CloudID, Name: r.Name, PublicKey: r.PublicKey,
		PrivateKey: r.PrivateKey, PublicFingerprint: r.PublicFingerprint, ExternalID: r.ExternalID}
}
