package pg

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/readers"
	"cloudsync-pg-backend/internal/infrastructure/repositories/pg/writers"
)

// Compile-time check that Registry implements ports.Registry
var _ ports.Registry = (*Registry)(nil)

// PostgreSQLWriter interface for accessing transaction from writer
type PostgreSQLWriter interface {
	ports.Writer
	GetTx() pgx.Tx
}

// Registry implements ports.Registry on a pgx connection pool
type Registry struct {
	conn   *ConnectionManager
	mu     sync.RWMutex
	closed bool
}

// NewRegistry connects using config and, when migrate is set, applies the
// embedded schema migrations.
func NewRegistry(ctx context.Context, config ConnectionConfig, migrate bool) (*Registry, error) {
	conn := NewConnectionManager(config)
	if err := conn.Connect(ctx); err != nil {
		return nil, errors.WithMessage(err, "failed to connect to PostgreSQL")
	}
	if migrate {
		if _, err := RunMigrations(ctx, conn.Pool()); err != nil {
			_ = conn.Close()
			return nil, errors.WithMessage(err, "failed to migrate PostgreSQL schema")
		}
	}
	klog.V(2).InfoS("PostgreSQL registry created", "health", conn.HealthStatus().String())
	return &Registry{conn: conn}, nil
}

// NewRegistryFromURI creates a PostgreSQL registry with default pool settings
func NewRegistryFromURI(ctx context.Context, uri string, migrate bool) (*Registry, error) {
	config := DefaultConnectionConfig()
	config.URI = uri
	return NewRegistry(ctx, config, migrate)
}

// Connection exposes the connection manager for health reporting
func (r *Registry) Connection() *ConnectionManager {
	return r.conn
}

// Writer begins a read-committed transaction
func (r *Registry) Writer(ctx context.Context) (ports.Writer, error) {
	if r.isClosed() {
		return nil, ports.ErrRegistryClosed
	}
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to begin transaction")
	}
	return writers.NewWriter(tx, ctx), nil
}

// Reader returns a reader on the pool
func (r *Registry) Reader(ctx context.Context) (ports.Reader, error) {
	if r.isClosed() {
		return nil, ports.ErrRegistryClosed
	}
	return readers.NewReader(r.conn.Pool(), nil, ctx), nil
}

// ReaderFromWriter creates a reader that uses the same transaction as the writer
func (r *Registry) ReaderFromWriter(ctx context.Context, w ports.Writer) (ports.Reader, error) {
	if r.isClosed() {
		return nil, ports.ErrRegistryClosed
	}
	pgWriter, ok := w.(PostgreSQLWriter)
	if !ok {
		return nil, errors.Wrap(ports.ErrInvalidArgument, "writer is not a PostgreSQL writer")
	}
	return readers.NewReader(r.conn.Pool(), pgWriter.GetTx(), ctx), nil
}

// Close closes the registry and its connections
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.conn.Close()
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
