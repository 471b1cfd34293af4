package rdb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

type writer struct {
	registry *Registry
	tx       *gorm.DB
	ctx      context.Context
	affected int64
	done     bool
}

func (w *writer) usable() error {
	if w.done {
		return errors.New("transaction already committed or aborted")
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(ports.ErrAlreadyExists, err.Error())
	}
	return err
}

// syncRecords writes items inside the writer transaction and assigns their ids.
// A non-empty scope turns the call into a full sync of that scope.
func syncRecords[M any, R any](ctx context.Context, w *writer, k kind[M, R], items []M, scope ports.Scope, opts []ports.Option) error {
	if err := w.usable(); err != nil {
		return err
	}
	tx := w.tx.WithContext(ctx)
	op := ports.SyncOpFromOptions(opts)
	ids := make([]int64, 0, len(items))

	for i := range items {
		m := &items[i]
		id := *k.id(m)

		var owner int64
		taken := false
		if k.naturalKey != nil {
			if cond, ok := k.naturalKey(m); ok {
				var found []int64
				if err := tx.Model(new(R)).Where(cond).Limit(1).Pluck("id", &found).Error; err != nil {
					return errors.Wrapf(err, "failed to look up %s", k.name)
				}
				if len(found) > 0 {
					owner, taken = found[0], true
				}
			}
		}
		if op == models.SyncOpInsert && taken {
			return errors.Wrapf(ports.ErrAlreadyExists, "%s external id is taken by id %d", k.name, owner)
		}
		if id == 0 && taken {
			id = owner
		}
		if taken && owner != id {
			return errors.Wrapf(ports.ErrAlreadyExists, "%s external id is held by id %d", k.name, owner)
		}

		exists := false
		if id != 0 {
			var n int64
			if err := tx.Model(new(R)).Where("id = ?", id).Count(&n).Error; err != nil {
				return errors.Wrapf(err, "failed to look up %s %d", k.name, id)
			}
			exists = n > 0
		}
		switch {
		case op == models.SyncOpInsert && exists:
			return errors.Wrapf(ports.ErrAlreadyExists, "%s id %d", k.name, id)
		case op == models.SyncOpUpdate && !exists:
			return errors.Wrapf(ports.ErrNotFound, "%s id %d", k.name, id)
		}

		rec := k.toRecord(m)
		*k.recordID(rec) = id
		var res *gorm.DB
		if exists {
			res = tx.Save(rec)
		} else {
			res = tx.Create(rec)
		}
		if res.Error != nil {
			return errors.Wrapf(translate(res.Error), "failed to write %s", k.name)
		}
		w.affected += res.RowsAffected
		*k.id(m) = *k.recordID(rec)
		ids = append(ids, *k.id(m))
	}

	if scope != nil && !scope.IsEmpty() {
		q, err := applyScope(tx.Model(new(R)), k.name, k.columns, scope)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			q = q.Where("id NOT IN ?", ids)
		}
		res := q.Delete(new(R))
		if res.Error != nil {
			return errors.Wrapf(res.Error, "failed to prune %s in scope %s", k.name, scope)
		}
		w.affected += res.RowsAffected
	}
	return nil
}

func deleteRecords[R any](ctx context.Context, w *writer, name string, ids []int64) error {
	if err := w.usable(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	res := w.tx.WithContext(ctx).Where("id IN ?", ids).Delete(new(R))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to delete %s", name)
	}
	w.affected += res.RowsAffected
	return nil
}

func (w *writer) SyncClouds(ctx context.Context, items []models.Cloud, scope ports.Scope, opts ...ports.Option) error {
	return syncRecords(ctx, w, clouds, items, scope, opts)
}

func (w *writer) SyncComputeServers(ctx context.Context, items []models.ComputeServer, scope ports.Scope, opts ...ports.Option) error {
	return syncRecords(ctx, w, computeServers, items, scope, opts)
}

func (w *writer) SyncInstances(ctx context.Context, items []models.Instance, scope ports.Scope, opts ...ports.Option) error {
	return syncRecords(ctx, w, instances, items, scope, opts)
}

func (w *writer) SyncContainers(ctx context.Context, items []models.Container, scope ports.Scope, opts ...ports.Option) error {
	return syncRecords(ctx, w, containers, items, scope, opts)
}

func (w *writer) SyncReferenceData(ctx context.Context, items []models.ReferenceData, scope ports.Scope, opts ...ports.Option) error {
	return syncRecords(ctx, w, referenceData, items, scope, opts)
}

func (w *writer) SyncResourcePools(ctx context.Context, items []models.ResourcePool, scope ports.Scope, opts ...ports.Option) error {
	return syncRecords(ctx, w, resourcePools, items, scope, opts)
}

func (w *writer) SyncKeyPairs(ctx context.Context, items []models.KeyPair, scope ports.Scope, opts ...ports.Option) error {
	return syncRecords(ctx, w, keyPairs, items, scope, opts)
}

func (w *writer) DeleteComputeServersByIDs(ctx context.Context, ids []int64, opts ...ports.Option) error {
	return deleteRecords[ComputeServerRecord](ctx, w, computeServers.name, ids)
}

func (w *writer) DeleteReferenceDataByIDs(ctx context.Context, ids []int64, opts ...ports.Option) error {
	return deleteRecords[ReferenceDataRecord](ctx, w, referenceData.name, ids)
}

// Commit updates the sync status and commits the transaction
func (w *writer) Commit() error {
	if err := w.usable(); err != nil {
		return err
	}
	w.done = true
	if w.affected > 0 {
		now := time.Now()
		res := w.tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"updated_at":       now,
				"total_operations": gorm.Expr("total_operations + ?", w.affected),
			}),
		}).Create(&SyncStatusRecord{ID: 1, UpdatedAt: now, TotalOperations: w.affected})
		if res.Error != nil {
			w.tx.Rollback()
			return errors.Wrap(res.Error, "failed to update sync status")
		}
	}
	if err := w.tx.Commit().Error; err != nil {
		return errors.Wrap(translate(err), "failed to commit transaction")
	}
	return nil
}

// Abort rolls back the transaction
func (w *writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.tx.Rollback()
}
