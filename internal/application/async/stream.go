package async

import (
	"context"
	"errors"
	"iter"
)

// Stream is a lazy sequence of values. The producer runs only while the
// caller ranges over it; a non-nil error is the last element yielded.
type Stream[T any] = iter.Seq2[T, error]

var errStopped = errors.New("stream consumer stopped")

// FromScan adapts a callback-driven scan into a Stream. Every range over the
// result calls scan again.
func FromScan[T any](scan func(consume func(T) error) error) Stream[T] {
	return func(yield func(T, error) bool) {
		err := scan(func(v T) error {
			if !yield(v, nil) {
				return errStopped
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			var zero T
			yield(zero, err)
		}
	}
}

// StreamOf returns a Stream over items
func StreamOf[T any](items ...T) Stream[T] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Error returns a Stream yielding only err
func Error[T any](err error) Stream[T] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// Collect drains s into a slice, which is empty rather than nil for an
// empty stream. It stops at the first error or when ctx ends.
func Collect[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	out := []T{}
	for v, err := range s {
		if err != nil {
			return out, err
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
