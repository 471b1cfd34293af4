package async

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

// ErrExecutorClosed is returned by futures submitted after Close
var ErrExecutorClosed = errors.New("executor is closed")

// ExecutorConfig sizes the worker pool
type ExecutorConfig struct {
	// Workers is the number of tasks running at once
	Workers int `yaml:"workers" env:"CLOUDSYNC_EXECUTOR_WORKERS" env-default:"8"`
	// RateLimit caps task starts per second; zero disables the limiter
	RateLimit float64 `yaml:"rate-limit" env:"CLOUDSYNC_EXECUTOR_RATE_LIMIT"`
	RateBurst int     `yaml:"rate-burst" env:"CLOUDSYNC_EXECUTOR_RATE_BURST" env-default:"10"`
}

// DefaultExecutorConfig returns a config with 8 workers and no rate limit
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{Workers: 8, RateBurst: 10}
}

// Executor runs submitted tasks on a bounded number of workers
type Executor struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

// NewExecutor creates an executor from config
func NewExecutor(config ExecutorConfig) *Executor {
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	e := &Executor{sem: semaphore.NewWeighted(int64(workers))}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return e
}

// Submit schedules fn and returns its future without blocking. A task still
// waiting for a worker when ctx ends is skipped and fails with ctx.Err().
// Once started, fn runs with a context detached from ctx cancellation.
func Submit[T any](e *Executor, ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return Failed[T](ErrExecutorClosed)
	}
	e.wg.Add(1)
	e.mu.RUnlock()

	f := newFuture[T]()
	go func() {
		defer e.wg.Done()
		var zero T
		if err := e.sem.Acquire(ctx, 1); err != nil {
			f.resolve(zero, err)
			return
		}
		defer e.sem.Release(1)
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				f.resolve(zero, err)
				return
			}
		}
		f.resolve(run(context.WithoutCancel(ctx), fn))
	}()
	return f
}

func run[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			klog.ErrorS(nil, "Task panicked", "panic", r)
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// Close stops accepting tasks and waits for submitted ones to finish
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}
