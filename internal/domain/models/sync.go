package models

import "time"

// SyncOp selects how a writer applies a batch
type SyncOp int

const (
	// SyncOpUpsert inserts new records and overwrites existing ones
	SyncOpUpsert SyncOp = iota
	// SyncOpInsert fails when a record already exists
	SyncOpInsert
	// SyncOpUpdate fails when a record does not exist
	SyncOpUpdate
)

func (op SyncOp) String() string {
	switch op {
	case SyncOpInsert:
		return "insert"
	case SyncOpUpdate:
		return "update"
	default:
		return "upsert"
	}
}

// SyncStatus tracks the last committed write
type SyncStatus struct {
	UpdatedAt       time.Time `json:"updatedAt"`
	TotalOperations int64     `json:"totalOperations"`
}
