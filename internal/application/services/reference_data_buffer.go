package services

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"cloudsync-pg-backend/internal/domain/models"
)

// BufferStats describes the write-behind buffer of reference data
type BufferStats struct {
	Pending       int
	Flushed       int64
	Failed        int64
	LastFlushAt   time.Time
	LastFlushErr  error
	LastFlushSize int
}

// FlushErrorHandler is told about entries a flush could not store. Those
// entries are dropped; the caller decides whether to save them again.
type FlushErrorHandler func(err error, entries []models.ReferenceData)

// bufferedEntry is a pending save and its position in the save order
type bufferedEntry struct {
	entry models.ReferenceData
	seq   uint64
}

// referenceDataBuffer coalesces buffered saves by namespace key and writes
// them in one transaction per flush. The latest save of a key wins.
type referenceDataBuffer struct {
	mu      sync.Mutex
	order   []models.ReferenceDataKey
	pending map[models.ReferenceDataKey]bufferedEntry
	seq     uint64
	stopped bool
	stats   BufferStats

	// flushMu serializes flushes and direct writes so a batch taken by a
	// flush never commits over a later direct write
	flushMu sync.Mutex
	store   func(ctx context.Context, entries []models.ReferenceData) error

	clock       clock.WithTicker
	interval    time.Duration
	maxBuffered int
	onError     FlushErrorHandler
	metrics     *Metrics

	kick     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newReferenceDataBuffer(config BufferConfig, clk clock.WithTicker, metrics *Metrics,
	onError FlushErrorHandler, store func(context.Context, []models.ReferenceData) error) *referenceDataBuffer {
	b := &referenceDataBuffer{
		pending:     make(map[models.ReferenceDataKey]bufferedEntry),
		store:       store,
		clock:       clk,
		interval:    config.FlushInterval,
		maxBuffered: config.MaxBuffered,
		onError:     onError,
		metrics:     metrics,
		kick:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *referenceDataBuffer) loop() {
	defer close(b.done)
	var tick <-chan time.Time
	if b.interval > 0 {
		ticker := b.clock.NewTicker(b.interval)
		defer ticker.Stop()
		tick = ticker.C()
	}
	for {
		select {
		case <-b.stop:
			return
		case <-tick:
		case <-b.kick:
		}
		_ = b.flush(context.Background())
	}
}

// add buffers entry and wakes the flusher when the buffer is full. It
// reports false once close has started.
func (b *referenceDataBuffer) add(entry models.ReferenceData) bool {
	key := entry.NamespaceKey()
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return false
	}
	if _, ok := b.pending[key]; !ok {
		b.order = append(b.order, key)
	}
	b.seq++
	b.pending[key] = bufferedEntry{entry: entry, seq: b.seq}
	n := len(b.pending)
	b.stats.Pending = n
	b.mu.Unlock()

	b.metrics.setBuffered(n)
	if b.maxBuffered > 0 && n >= b.maxBuffered {
		select {
		case b.kick <- struct{}{}:
		default:
		}
	}
	return true
}

// mark returns the position of the latest buffered save
func (b *referenceDataBuffer) mark() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// supersede runs a direct write that replaces buffered saves. Entries
// matched by superseded and buffered up to mark are dropped first; saves
// buffered after mark are kept and flushed later. No flush runs while
// write does.
func (b *referenceDataBuffer) supersede(mark uint64, superseded func(models.ReferenceData) bool, write func() error) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	b.discard(mark, superseded)
	return write()
}

func (b *referenceDataBuffer) discard(mark uint64, superseded func(models.ReferenceData) bool) {
	b.mu.Lock()
	order := b.order[:0]
	for _, key := range b.order {
		if e := b.pending[key]; e.seq <= mark && superseded(e.entry) {
			delete(b.pending, key)
			continue
		}
		order = append(order, key)
	}
	b.order = order
	n := len(b.pending)
	b.stats.Pending = n
	b.mu.Unlock()
	b.metrics.setBuffered(n)
}

func (b *referenceDataBuffer) take() []models.ReferenceData {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.order) == 0 {
		return nil
	}
	entries := make([]models.ReferenceData, 0, len(b.order))
	for _, key := range b.order {
		entries = append(entries, b.pending[key].entry)
	}
	b.order = nil
	b.pending = make(map[models.ReferenceDataKey]bufferedEntry)
	b.stats.Pending = 0
	return entries
}

// flush stores everything buffered so far in one transaction
func (b *referenceDataBuffer) flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	entries := b.take()
	b.metrics.setBuffered(0)
	if len(entries) == 0 {
		return nil
	}
	err := b.store(ctx, entries)
	b.metrics.flushed(err)

	b.mu.Lock()
	b.stats.LastFlushAt = b.clock.Now()
	b.stats.LastFlushErr = err
	b.stats.LastFlushSize = len(entries)
	if err != nil {
		b.stats.Failed += int64(len(entries))
	} else {
		b.stats.Flushed += int64(len(entries))
	}
	b.mu.Unlock()

	if err != nil {
		klog.ErrorS(err, "Failed to flush buffered reference data", "entries", len(entries))
		if b.onError != nil {
			b.onError(err, entries)
		}
		return errors.Wrapf(err, "failed to flush %d reference data entries", len(entries))
	}
	klog.V(2).InfoS("Flushed buffered reference data", "entries", len(entries))
	return nil
}

func (b *referenceDataBuffer) snapshot() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// close rejects further saves, stops the flusher and flushes what is left
func (b *referenceDataBuffer) close(ctx context.Context) error {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.done
	return b.flush(ctx)
}
