package mem

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/ports"
)

// Registry is an in-memory implementation of the Registry interface
type Registry struct {
	db     *MemDB
	mu     sync.RWMutex
	closed bool
}

var _ ports.Registry = (*Registry)(nil)

// NewRegistry creates a new in-memory registry
func NewRegistry() *Registry {
	return &Registry{
		db: NewMemDB(),
	}
}

// Writer returns a new writer
func (r *Registry) Writer(ctx context.Context) (ports.Writer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ports.ErrRegistryClosed
	}
	return &writer{
		registry: r,
		ctx:      ctx,
	}, nil
}

// Reader returns a new reader
func (r *Registry) Reader(ctx context.Context) (ports.Reader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ports.ErrRegistryClosed
	}
	return &reader{
		registry: r,
		ctx:      ctx,
	}, nil
}

// ReaderFromWriter returns a reader that sees the uncommitted changes of w
func (r *Registry) ReaderFromWriter(ctx context.Context, w ports.Writer) (ports.Reader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ports.ErrRegistryClosed
	}
	memWriter, ok := w.(*writer)
	if !ok || memWriter.registry != r {
		return nil, errors.Wrap(ports.ErrInvalidArgument, "writer does not belong to this registry")
	}
	return &reader{
		registry: r,
		ctx:      ctx,
		writer:   memWriter,
	}, nil
}

// Close closes the registry
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
