package config

import (
	"fmt"

	"cloudsync-pg-backend/internal/sync/types"
	"cloudsync-pg-backend/internal/sync/utils"
)

// SyncConfig holds configuration for reconcile passes driven by the CLI
type SyncConfig struct {
	// BatchSize bounds the records handed to one write call
	BatchSize int `yaml:"batch-size" env:"CLOUDSYNC_SYNC_BATCH_SIZE"`

	// Retry holds retry configuration
	Retry types.RetryConfig `yaml:"retry"`
}

// DefaultSyncConfig returns default synchronization configuration
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		BatchSize: 50,
		Retry:     utils.DefaultRetryConfig(),
	}
}

// Validate validates the synchronization configuration
func (c *SyncConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	if c.Retry.InitialDelay <= 0 {
		return fmt.Errorf("initial delay must be positive")
	}

	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		return fmt.Errorf("max delay must be greater than or equal to initial delay")
	}

	if c.Retry.BackoffFactor < 1 {
		return fmt.Errorf("backoff factor must be at least 1")
	}

	return nil
}
