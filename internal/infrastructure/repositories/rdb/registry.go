package rdb

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"cloudsync-pg-backend/internal/domain/ports"
)

// Registry implements ports.Registry on top of gorm
type Registry struct {
	db     *gorm.DB
	mu     sync.RWMutex
	closed bool
}

var _ ports.Registry = (*Registry)(nil)

// NewRegistry wraps an open and migrated gorm DB
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// NewRegistryFromURL opens the database named by dbURL and applies migrations
func NewRegistryFromURL(ctx context.Context, dbURL string) (*Registry, error) {
	db, err := OpenFromURL(dbURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", dbURL)
	}
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}
	klog.V(2).InfoS("Opened relational store", "url", dbURL)
	return NewRegistry(db), nil
}

// Writer begins a transaction
func (r *Registry) Writer(ctx context.Context) (ports.Writer, error) {
	if r.isClosed() {
		return nil, ports.ErrRegistryClosed
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "failed to begin transaction")
	}
	return &writer{registry: r, tx: tx, ctx: ctx}, nil
}

// Reader returns a reader over committed data
func (r *Registry) Reader(ctx context.Context) (ports.Reader, error) {
	if r.isClosed() {
		return nil, ports.ErrRegistryClosed
	}
	return &reader{db: r.db.WithContext(ctx)}, nil
}

// ReaderFromWriter returns a reader running inside the writer's transaction
func (r *Registry) ReaderFromWriter(ctx context.Context, w ports.Writer) (ports.Reader, error) {
	if r.isClosed() {
		return nil, ports.ErrRegistryClosed
	}
	rw, ok := w.(*writer)
	if !ok || rw.registry != r {
		return nil, errors.Wrap(ports.ErrInvalidArgument, "writer does not belong to this registry")
	}
	return &reader{db: rw.tx.WithContext(ctx)}, nil
}

// Close closes the underlying connection pool
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
