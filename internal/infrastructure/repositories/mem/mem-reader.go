package mem

import (
	"context"

	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

type reader struct {
	registry *Registry
	ctx      context.Context
	// writer is set for readers created by ReaderFromWriter
	writer *writer
}

func (r *reader) Close() error {
	return nil
}

// listTable copies the matching rows under the read lock, then hands them to
// consume without holding it.
func listTable[T any](r *reader, t table[T], cs *changeSet[T], scope ports.Scope, consume func(T) error) error {
	if r.registry.isClosed() {
		return ports.ErrRegistryClosed
	}
	db := r.registry.db
	var matched []T
	db.mu.RLock()
	rows := t.rows(db)
	if cs != nil {
		rows = t.view(rows, cs)
	}
	err := t.scan(rows, scope, func(row T) error {
		matched = append(matched, row)
		return nil
	})
	db.mu.RUnlock()
	if err != nil {
		return err
	}
	for _, row := range matched {
		if err := consume(row); err != nil {
			return err
		}
	}
	return nil
}

func getFromTable[T any](r *reader, t table[T], cs *changeSet[T], id int64) (*T, error) {
	var found *T
	err := listTable(r, t, cs, ports.NewIDScope(id), func(row T) error {
		found = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errors.Wrapf(ports.ErrNotFound, "%s id %d", t.kind, id)
	}
	return found, nil
}

func pending[T any](w *writer, pick func(*writer) *changeSet[T]) *changeSet[T] {
	if w == nil {
		return nil
	}
	return pick(w)
}

func (r *reader) ListClouds(ctx context.Context, consume func(models.Cloud) error, scope ports.Scope) error {
	return listTable(r, cloudTable, r.cloudChanges(), scope, consume)
}

func (r *reader) ListComputeServers(ctx context.Context, consume func(models.ComputeServer) error, scope ports.Scope) error {
	return listTable(r, computeServerTable, r.computeServerChanges(), scope, consume)
}

func (r *reader) ListComputeServerIdentities(ctx context.Context, consume func(models.ComputeServerIdentityProjection) error, scope ports.Scope) error {
	return listTable(r, computeServerTable, r.computeServerChanges(), scope, func(s models.ComputeServer) error {
		return consume(s.Projection())
	})
}

func (r *reader) ListInstances(ctx context.Context, consume func(models.Instance) error, scope ports.Scope) error {
	return listTable(r, instanceTable, r.instanceChanges(), scope, consume)
}

func (r *reader) ListContainers(ctx context.Context, consume func(models.Container) error, scope ports.Scope) error {
	return listTable(r, containerTable, r.containerChanges(), scope, consume)
}

func (r *reader) ListReferenceData(ctx context.Context, consume func(models.ReferenceData) error, scope ports.Scope) error {
	return listTable(r, referenceDataTable, r.referenceDataChanges(), scope, consume)
}

func (r *reader) ListReferenceDataProjections(ctx context.Context, consume func(models.ReferenceDataSyncProjection) error, scope ports.Scope) error {
	return listTable(r, referenceDataTable, r.referenceDataChanges(), scope, func(e models.ReferenceData) error {
		return consume(e.Projection())
	})
}

func (r *reader) ListResourcePools(ctx context.Context, consume func(models.ResourcePool) error, scope ports.Scope) error {
	return listTable(r, resourcePoolTable, r.resourcePoolChanges(), scope, consume)
}

func (r *reader) ListKeyPairs(ctx context.Context, consume func(models.KeyPair) error, scope ports.Scope) error {
	return listTable(r, keyPairTable, r.keyPairChanges(), scope, consume)
}

func (r *reader) GetSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	if r.registry.isClosed() {
		return nil, ports.ErrRegistryClosed
	}
	status := r.registry.db.GetSyncStatus()
	return &status, nil
}

func (r *reader) GetCloudByID(ctx context.Context, id int64) (*models.Cloud, error) {
	return getFromTable(r, cloudTable, r.cloudChanges(), id)
}

func (r *reader) GetComputeServerByID(ctx context.Context, id int64) (*models.ComputeServer, error) {
	return getFromTable(r, computeServerTable, r.computeServerChanges(), id)
}

func (r *reader) GetInstanceByID(ctx context.Context, id int64) (*models.Instance, error) {
	return getFromTable(r, instanceTable, r.instanceChanges(), id)
}

func (r *reader) GetContainerByID(ctx context.Context, id int64) (*models.Container, error) {
	return getFromTable(r, containerTable, r.containerChanges(), id)
}

func (r *reader) cloudChanges() *changeSet[models.Cloud] {
	return pending(r.writer, func(w *writer) *changeSet[models.Cloud] { return w.clouds })
}

func (r *reader) computeServerChanges() *changeSet[models.ComputeServer] {
	return pending(r.writer, func(w *writer) *changeSet[models.ComputeServer] { return w.computeServers })
}

func (r *reader) instanceChanges() *changeSet[models.Instance] {
	return pending(r.writer, func(w *writer) *changeSet[models.Instance] { return w.instances })
}

func (r *reader) containerChanges() *changeSet[models.Container] {
	return pending(r.writer, func(w *writer) *changeSet[models.Container] { return w.containers })
}

func (r *reader) referenceDataChanges() *changeSet[models.ReferenceData] {
	return pending(r.writer, func(w *writer) *changeSet[models.ReferenceData] { return w.referenceData })
}

func (r *reader) resourcePoolChanges() *changeSet[models.ResourcePool] {
	return pending(r.writer, func(w *writer) *changeSet[models.ResourcePool] { return w.resourcePools })
}

func (r *reader) keyPairChanges() *changeSet[models.KeyPair] {
	return pending(r.writer, func(w *writer) *changeSet[models.KeyPair] { return w.keyPairs })
}
