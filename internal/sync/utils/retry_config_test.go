package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/sync/types"
)

func fastRetry(retries int) types.RetryConfig {
	return types.RetryConfig{MaxRetries: retries, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"invalid argument", fmt.Errorf("bad: %w", ports.ErrInvalidArgument), false},
		{"conflict", fmt.Errorf("insert: %w", ports.ErrAlreadyExists), false},
		{"not found", ports.ErrNotFound, false},
		{"closed", ports.ErrRegistryClosed, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"sqlite busy", errors.New("database is locked"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"duplicate key text", errors.New("duplicate key value violates unique constraint"), false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.err))
		})
	}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastRetry(3), logr.Discard(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastRetry(3), logr.Discard(), func(context.Context) error {
		calls++
		return fmt.Errorf("save: %w", ports.ErrInvalidArgument)
	})
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastRetry(2), logr.Discard(), func(context.Context) error {
		calls++
		return errors.New("temporary failure")
	})
	assert.ErrorContains(t, err, "temporary failure")
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ExecuteWithRetry(ctx, fastRetry(5), logr.Discard(), func(context.Context) error {
		return errors.New("timeout")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyncTracker(t *testing.T) {
	tracker := NewSyncTracker()
	tracker.Track(types.SyncSubjectTypeReferenceData, 10*time.Millisecond, nil)
	tracker.Track(types.SyncSubjectTypeReferenceData, 30*time.Millisecond, errors.New("boom"))
	tracker.TrackRecords(types.SyncSubjectTypeReferenceData, types.SyncOperationAdd, 3)
	tracker.TrackRecords(types.SyncSubjectTypeReferenceData, types.SyncOperationDelete, 0)

	stats := tracker.GetStats()[types.SyncSubjectTypeReferenceData]
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.SuccessfulSyncs)
	assert.Equal(t, int64(1), stats.FailedSyncs)
	assert.Equal(t, 20*time.Millisecond, stats.AverageLatency)
	assert.Equal(t, map[types.SyncOperation]int64{types.SyncOperationAdd: 3}, stats.Records)
	assert.False(t, stats.LastSyncTime.IsZero())
}
