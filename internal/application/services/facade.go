package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/domain/ports"
)

// facade holds what both contexts share: the store, the executor and metrics
type facade struct {
	registry ports.Registry
	executor *async.Executor
	metrics  *Metrics
}

// submit runs fn on the executor and records the outcome under op
func submit[T any](f *facade, ctx context.Context, op string, fn func(ctx context.Context) (T, error)) *async.Future[T] {
	start := time.Now()
	return async.Submit(f.executor, ctx, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		f.metrics.observe(op, start, err)
		if err != nil {
			klog.ErrorS(err, "Facade operation failed", "operation", op)
		} else {
			klog.V(4).InfoS("Facade operation completed", "operation", op, "duration", time.Since(start))
		}
		return v, err
	})
}

// reject resolves a programmer error without touching the store
func reject[T any](f *facade, op string, err error) *async.Future[T] {
	f.metrics.observe(op, time.Now(), err)
	klog.V(2).InfoS("Facade call rejected", "operation", op, "error", err)
	return async.Failed[T](err)
}

// read runs fn with a fresh reader
func (f *facade) read(ctx context.Context, fn func(ports.Reader) error) error {
	reader, err := f.registry.Reader(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get reader")
	}
	defer reader.Close()
	return fn(reader)
}

// write runs fn in one writer transaction and commits when fn succeeds.
// fn gets a reader that sees the writer's pending changes.
func (f *facade) write(ctx context.Context, fn func(ports.Writer, ports.Reader) error) error {
	writer, err := f.registry.Writer(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get writer")
	}
	defer writer.Abort()

	reader, err := f.registry.ReaderFromWriter(ctx, writer)
	if err != nil {
		return errors.Wrap(err, "failed to get reader from writer")
	}
	defer reader.Close()

	if err := fn(writer, reader); err != nil {
		return err
	}
	return writer.Commit()
}

// stream adapts a reader scan into a lazy stream; each range opens a reader
func stream[T any](f *facade, ctx context.Context, scan func(ports.Reader, func(T) error) error) async.Stream[T] {
	return async.FromScan(func(consume func(T) error) error {
		return f.read(ctx, func(r ports.Reader) error {
			return scan(r, consume)
		})
	})
}

var errFound = errors.New("found")

// first returns the first row of a scan, or nil when it yields nothing
func first[T any](scan func(func(T) error) error) (*T, error) {
	var out *T
	err := scan(func(v T) error {
		out = &v
		return errFound
	})
	if err != nil && !errors.Is(err, errFound) {
		return nil, err
	}
	return out, nil
}

// collect gathers a scan into a slice that is never nil
func collect[T any](scan func(func(T) error) error) ([]T, error) {
	out := []T{}
	err := scan(func(v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// orNil maps ErrNotFound to a nil result
func orNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	return v, err
}
