package types

import "time"

// SyncOperation is what a reconcile pass does to one host record
type SyncOperation string

const (
	// SyncOperationAdd creates records discovered in the cloud
	SyncOperationAdd SyncOperation = "Add"

	// SyncOperationUpdate refreshes records known on both sides
	SyncOperationUpdate SyncOperation = "Update"

	// SyncOperationDelete removes records the cloud no longer reports
	SyncOperationDelete SyncOperation = "Delete"
)

// SyncSubjectType names the kind of record being reconciled
type SyncSubjectType string

const (
	SyncSubjectTypeComputeServers SyncSubjectType = "ComputeServers"
	SyncSubjectTypeReferenceData  SyncSubjectType = "ReferenceData"
	SyncSubjectTypeResourcePools  SyncSubjectType = "ResourcePools"
	SyncSubjectTypeKeyPairs       SyncSubjectType = "KeyPairs"
)

// RetryConfig defines caller-driven retry of facade calls
type RetryConfig struct {
	MaxRetries    int           `yaml:"max-retries" env:"CLOUDSYNC_SYNC_RETRY_MAX" env-default:"3"`
	InitialDelay  time.Duration `yaml:"initial-delay" env:"CLOUDSYNC_SYNC_RETRY_INITIAL_DELAY" env-default:"100ms"`
	MaxDelay      time.Duration `yaml:"max-delay" env:"CLOUDSYNC_SYNC_RETRY_MAX_DELAY" env-default:"5s"`
	BackoffFactor float64       `yaml:"backoff-factor" env:"CLOUDSYNC_SYNC_RETRY_BACKOFF_FACTOR" env-default:"2"`
}

// SyncStats are the counters of one subject type
type SyncStats struct {
	TotalRequests   int64
	SuccessfulSyncs int64
	FailedSyncs     int64
	LastSyncTime    time.Time
	AverageLatency  time.Duration
	// Records counts the records handled per operation
	Records map[SyncOperation]int64
}

// SyncResult summarizes one reconcile pass
type SyncResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}
