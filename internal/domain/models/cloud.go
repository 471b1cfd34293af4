package models

import "time"

// CloudStatus is the sync health reported for a cloud (zone)
type CloudStatus string

const (
	CloudStatusOK      CloudStatus = "ok"
	CloudStatusSyncing CloudStatus = "syncing"
	CloudStatusWarning CloudStatus = "warning"
	CloudStatusError   CloudStatus = "error"
	CloudStatusOffline CloudStatus = "offline"
)

// IsValid reports whether s is one of the known statuses
func (s CloudStatus) IsValid() bool {
	switch s {
	case CloudStatusOK, CloudStatusSyncing, CloudStatusWarning, CloudStatusError, CloudStatusOffline:
		return true
	}
	return false
}

// Cloud is a cloud (zone) registered in the host inventory
type Cloud struct {
	ID            int64       `json:"id"`
	Name          string      `json:"name"`
	Code          string      `json:"code"`
	AccountID     int64       `json:"accountId"`
	Status        CloudStatus `json:"status"`
	StatusMessage string      `json:"statusMessage,omitempty"`
	LastSyncAt    *time.Time  `json:"lastSyncAt,omitempty"`
}

// Account owns clouds, servers and credentials. Only its identity is used here.
type Account struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
