package mem

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

type writer struct {
	registry *Registry
	ctx      context.Context
	done     bool

	clouds         *changeSet[models.Cloud]
	computeServers *changeSet[models.ComputeServer]
	instances      *changeSet[models.Instance]
	containers     *changeSet[models.Container]
	referenceData  *changeSet[models.ReferenceData]
	resourcePools  *changeSet[models.ResourcePool]
	keyPairs       *changeSet[models.KeyPair]
}

func (w *writer) usable() error {
	if w.done {
		return errors.New("writer is already committed or aborted")
	}
	if w.registry.isClosed() {
		return ports.ErrRegistryClosed
	}
	return nil
}

// syncTable stages items into cs. A non-empty scope turns the call into a full
// sync of that scope: rows in scope the batch does not carry are deleted.
func syncTable[T any](w *writer, t table[T], cs **changeSet[T], items []T, scope ports.Scope, opts []ports.Option) error {
	if err := w.usable(); err != nil {
		return err
	}
	if *cs == nil {
		*cs = newChangeSet[T]()
	}
	db := w.registry.db
	db.mu.RLock()
	current := t.view(t.rows(db), *cs)
	db.mu.RUnlock()

	var stale []int64
	if scope != nil && !scope.IsEmpty() {
		err := t.scan(current, scope, func(row T) error {
			stale = append(stale, *t.id(&row))
			return nil
		})
		if err != nil {
			return err
		}
	}
	if err := t.stage(db, current, *cs, items, ports.SyncOpFromOptions(opts)); err != nil {
		return errors.Wrapf(err, "failed to sync %s", t.kind)
	}
	if len(stale) > 0 {
		kept := make(map[int64]struct{}, len(items))
		for i := range items {
			kept[*t.id(&items[i])] = struct{}{}
		}
		var drop []int64
		for _, id := range stale {
			if _, ok := kept[id]; !ok {
				drop = append(drop, id)
			}
		}
		t.remove(current, *cs, drop)
	}
	return nil
}

func deleteFromTable[T any](w *writer, t table[T], cs **changeSet[T], ids []int64) error {
	if err := w.usable(); err != nil {
		return err
	}
	if *cs == nil {
		*cs = newChangeSet[T]()
	}
	t.remove(map[int64]T{}, *cs, ids)
	return nil
}

func (w *writer) SyncClouds(ctx context.Context, clouds []models.Cloud, scope ports.Scope, opts ...ports.Option) error {
	return syncTable(w, cloudTable, &w.clouds, clouds, scope, opts)
}

func (w *writer) SyncComputeServers(ctx context.Context, servers []models.ComputeServer, scope ports.Scope, opts ...ports.Option) error {
	return syncTable(w, computeServerTable, &w.computeServers, servers, scope, opts)
}

func (w *writer) SyncInstances(ctx context.Context, instances []models.Instance, scope ports.Scope, opts ...ports.Option) error {
	return syncTable(w, instanceTable, &w.instances, instances, scope, opts)
}

func (w *writer) SyncContainers(ctx context.Context, containers []models.Container, scope ports.Scope, opts ...ports.Option) error {
	return syncTable(w, containerTable, &w.containers, containers, scope, opts)
}

func (w *writer) SyncReferenceData(ctx context.Context, entries []models.ReferenceData, scope ports.Scope, opts ...ports.Option) error {
	return syncTable(w, referenceDataTable, &w.referenceData, entries, scope, opts)
}

func (w *writer) SyncResourcePools(ctx context.Context, pools []models.ResourcePool, scope ports.Scope, opts ...ports.Option) error {
	return syncTable(w, resourcePoolTable, &w.resourcePools, pools, scope, opts)
}

func (w *writer) SyncKeyPairs(ctx context.Context, keyPairs []models.KeyPair, scope ports.Scope, opts ...ports.Option) error {
	return syncTable(w, keyPairTable, &w.keyPairs, keyPairs, scope, opts)
}

// DeleteComputeServersByIDs deletes compute servers by IDs
func (w *writer) DeleteComputeServersByIDs(ctx context.Context, ids []int64, opts ...ports.Option) error {
	return deleteFromTable(w, computeServerTable, &w.computeServers, ids)
}

// DeleteReferenceDataByIDs deletes reference data entries by IDs
func (w *writer) DeleteReferenceDataByIDs(ctx context.Context, ids []int64, opts ...ports.Option) error {
	return deleteFromTable(w, referenceDataTable, &w.referenceData, ids)
}

func (w *writer) Commit() error {
	if err := w.usable(); err != nil {
		return err
	}
	db := w.registry.db
	db.mu.Lock()
	defer db.mu.Unlock()

	checks := []func() error{
		func() error { return cloudTable.check(db, w.clouds) },
		func() error { return computeServerTable.check(db, w.computeServers) },
		func() error { return instanceTable.check(db, w.instances) },
		func() error { return containerTable.check(db, w.containers) },
		func() error { return referenceDataTable.check(db, w.referenceData) },
		func() error { return resourcePoolTable.check(db, w.resourcePools) },
		func() error { return keyPairTable.check(db, w.keyPairs) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			w.done = true
			return errors.Wrap(err, "commit rejected")
		}
	}

	cloudTable.apply(db, w.clouds)
	computeServerTable.apply(db, w.computeServers)
	instanceTable.apply(db, w.instances)
	containerTable.apply(db, w.containers)
	referenceDataTable.apply(db, w.referenceData)
	resourcePoolTable.apply(db, w.resourcePools)
	keyPairTable.apply(db, w.keyPairs)

	ops := int64(w.clouds.size() + w.computeServers.size() + w.instances.size() + w.containers.size() +
		w.referenceData.size() + w.resourcePools.size() + w.keyPairs.size())
	db.syncStatus = models.SyncStatus{
		UpdatedAt:       time.Now(),
		TotalOperations: db.syncStatus.TotalOperations + ops,
	}
	w.done = true
	return nil
}

func (w *writer) Abort() {
	w.done = true
	w.clouds = nil
	w.computeServers = nil
	w.instances = nil
	w.containers = nil
	w.referenceData = nil
	w.resourcePools = nil
	w.keyPairs = nil
}
