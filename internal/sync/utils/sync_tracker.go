package utils

import (
	"sync"
	"time"

	"cloudsync-pg-backend/internal/sync/types"
)

// SyncTracker keeps per subject counters of reconcile passes
type SyncTracker struct {
	mu    sync.RWMutex
	stats map[types.SyncSubjectType]*syncStats
	now   func() time.Time
}

// syncStats holds statistics for a subject type
type syncStats struct {
	totalRequests   int64
	successfulSyncs int64
	failedSyncs     int64
	lastSyncTime    time.Time
	totalLatency    time.Duration
	records         map[types.SyncOperation]int64
}

// NewSyncTracker creates a new sync tracker
func NewSyncTracker() *SyncTracker {
	return &SyncTracker{
		stats: make(map[types.SyncSubjectType]*syncStats),
		now:   time.Now,
	}
}

func (st *SyncTracker) entry(subjectType types.SyncSubjectType) *syncStats {
	stats, exists := st.stats[subjectType]
	if !exists {
		stats = &syncStats{records: make(map[types.SyncOperation]int64)}
		st.stats[subjectType] = stats
	}
	return stats
}

// Track records the outcome of one pass
func (st *SyncTracker) Track(subjectType types.SyncSubjectType, latency time.Duration, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	stats := st.entry(subjectType)
	stats.totalRequests++
	stats.lastSyncTime = st.now()
	stats.totalLatency += latency
	if err == nil {
		stats.successfulSyncs++
	} else {
		stats.failedSyncs++
	}
}

// TrackRecords adds n records handled with operation
func (st *SyncTracker) TrackRecords(subjectType types.SyncSubjectType, operation types.SyncOperation, n int) {
	if n == 0 {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.entry(subjectType).records[operation] += int64(n)
}

// GetStats returns a copy of the statistics
func (st *SyncTracker) GetStats() map[types.SyncSubjectType]types.SyncStats {
	st.mu.RLock()
	defer st.mu.RUnlock()

	result := make(map[types.SyncSubjectType]types.SyncStats, len(st.stats))
	for subjectType, stats := range st.stats {
		var avgLatency time.Duration
		if stats.totalRequests > 0 {
			avgLatency = stats.totalLatency / time.Duration(stats.totalRequests)
		}
		records := make(map[types.SyncOperation]int64, len(stats.records))
		for op, n := range stats.records {
			records[op] = n
		}
		result[subjectType] = types.SyncStats{
			TotalRequests:   stats.totalRequests,
			SuccessfulSyncs: stats.successfulSyncs,
			FailedSyncs:     stats.failedSyncs,
			LastSyncTime:    stats.lastSyncTime,
			AverageLatency:  avgLatency,
			Records:         records,
		}
	}
	return result
}
