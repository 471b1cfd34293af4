package reconcile

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/multierr"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/sync/types"
	"cloudsync-pg-backend/internal/sync/utils"
)

const defaultBatchSize = 50

// Match pairs a host projection with the cloud item carrying the same key
type Match[P, C any] struct {
	Existing P
	Cloud    C
}

// Task diffs the projections the host knows against the items discovered
// in a cloud and hands the differences to its callbacks in batches.
//
// Projections are matched to cloud items by key. When several projections
// share a key the first one is matched and the others are deleted.
type Task[P, C any] struct {
	Subject types.SyncSubjectType
	// Existing lists the host projections, typically a facade stream
	Existing async.Stream[P]
	Cloud    []C

	ExistingKey func(P) string
	CloudKey    func(C) string

	OnAdd    func(ctx context.Context, items []C) error
	OnUpdate func(ctx context.Context, matches []Match[P, C]) error
	OnDelete func(ctx context.Context, stale []P) error

	// BatchSize bounds the slice passed to one callback; 50 when unset
	BatchSize int
	Logger    logr.Logger
	Tracker   *utils.SyncTracker
}

// Run performs one reconcile pass. A failed phase does not stop the others;
// all failures are returned together.
func (t *Task[P, C]) Run(ctx context.Context) (types.SyncResult, error) {
	start := time.Now()
	logger := t.Logger.WithValues("subject", t.Subject)
	var result types.SyncResult

	existing := make(map[string]P)
	var stale []P
	for p, err := range t.Existing {
		if err != nil {
			t.track(start, err)
			return result, err
		}
		key := t.ExistingKey(p)
		if _, dup := existing[key]; dup {
			stale = append(stale, p)
			continue
		}
		existing[key] = p
	}

	var adds []C
	var updates []Match[P, C]
	seen := make(map[string]struct{}, len(t.Cloud))
	for _, item := range t.Cloud {
		key := t.CloudKey(item)
		if _, dup := seen[key]; dup {
			logger.V(1).Info("Duplicate cloud item skipped", "key", key)
			continue
		}
		seen[key] = struct{}{}
		if p, ok := existing[key]; ok {
			updates = append(updates, Match[P, C]{Existing: p, Cloud: item})
			delete(existing, key)
			continue
		}
		adds = append(adds, item)
	}
	for _, p := range existing {
		stale = append(stale, p)
	}

	var errs error
	if t.OnDelete != nil {
		n, err := batches(ctx, t.batchSize(), stale, t.OnDelete)
		result.Removed = n
		errs = multierr.Append(errs, err)
		t.trackRecords(types.SyncOperationDelete, n)
	}
	if t.OnUpdate != nil {
		n, err := batches(ctx, t.batchSize(), updates, t.OnUpdate)
		result.Updated = n
		errs = multierr.Append(errs, err)
		t.trackRecords(types.SyncOperationUpdate, n)
	}
	if t.OnAdd != nil {
		n, err := batches(ctx, t.batchSize(), adds, t.OnAdd)
		result.Added = n
		errs = multierr.Append(errs, err)
		t.trackRecords(types.SyncOperationAdd, n)
	}

	t.track(start, errs)
	if errs != nil {
		logger.Error(errs, "Reconcile pass failed", "added", result.Added, "updated", result.Updated, "removed", result.Removed)
		return result, errs
	}
	logger.Info("Reconcile pass completed", "added", result.Added, "updated", result.Updated,
		"removed", result.Removed, "duration", time.Since(start))
	return result, nil
}

func (t *Task[P, C]) batchSize() int {
	if t.BatchSize > 0 {
		return t.BatchSize
	}
	return defaultBatchSize
}

func (t *Task[P, C]) track(start time.Time, err error) {
	if t.Tracker != nil {
		t.Tracker.Track(t.Subject, time.Since(start), err)
	}
}

func (t *Task[P, C]) trackRecords(op types.SyncOperation, n int) {
	if t.Tracker != nil {
		t.Tracker.TrackRecords(t.Subject, op, n)
	}
}

// batches calls fn on consecutive chunks of items and stops at the first
// failing chunk. It returns how many items were handed to successful calls.
func batches[T any](ctx context.Context, size int, items []T, fn func(context.Context, []T) error) (int, error) {
	done := 0
	for len(items) > 0 {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		n := min(size, len(items))
		if err := fn(ctx, items[:n]); err != nil {
			return done, err
		}
		done += n
		items = items[n:]
	}
	return done, nil
}
