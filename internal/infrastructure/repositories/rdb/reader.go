package rdb

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

// listBatchSize bounds how many rows a list call holds between consume calls
const listBatchSize = 200

type reader struct {
	db *gorm.DB
}

func (r *reader) Close() error {
	return nil
}

// listRecords pages through the table by primary key; no cursor is held while consume runs
func listRecords[M any, R any](ctx context.Context, r *reader, k kind[M, R], scope ports.Scope, consume func(M) error) error {
	q, err := applyScope(r.db.WithContext(ctx).Model(new(R)), k.name, k.columns, scope)
	if err != nil {
		return err
	}
	var consumeErr error
	var batch []R
	res := q.FindInBatches(&batch, listBatchSize, func(_ *gorm.DB, _ int) error {
		for i := range batch {
			if err := consume(k.toModel(&batch[i])); err != nil {
				consumeErr = err
				return err
			}
		}
		return nil
	})
	if consumeErr != nil {
		return consumeErr
	}
	return errors.Wrapf(res.Error, "failed to list %s", k.name)
}

func getRecord[M any, R any](ctx context.Context, r *reader, k kind[M, R], id int64) (*M, error) {
	var rec R
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ports.ErrNotFound, "%s id %d", k.name, id)
		}
		return nil, errors.Wrapf(err, "failed to get %s %d", k.name, id)
	}
	m := k.toModel(&rec)
	return &m, nil
}

func (r *reader) ListClouds(ctx context.Context, consume func(models.Cloud) error, scope ports.Scope) error {
	return listRecords(ctx, r, clouds, scope, consume)
}

func (r *reader) ListComputeServers(ctx context.Context, consume func(models.ComputeServer) error, scope ports.Scope) error {
	return listRecords(ctx, r, computeServers, scope, consume)
}

func (r *reader) ListComputeServerIdentities(ctx context.Context, consume func(models.ComputeServerIdentityProjection) error, scope ports.Scope) error {
	return listRecords(ctx, r, computeServers, scope, func(s models.ComputeServer) error {
		return consume(s.Projection())
	})
}

func (r *reader) ListInstances(ctx context.Context, consume func(models.Instance) error, scope ports.Scope) error {
	return listRecords(ctx, r, instances, scope, consume)
}

func (r *reader) ListContainers(ctx context.Context, consume func(models.Container) error, scope ports.Scope) error {
	return listRecords(ctx, r, containers, scope, consume)
}

func (r *reader) ListReferenceData(ctx context.Context, consume func(models.ReferenceData) error, scope ports.Scope) error {
	return listRecords(ctx, r, referenceData, scope, consume)
}

func (r *reader) ListReferenceDataProjections(ctx context.Context, consume func(models.ReferenceDataSyncProjection) error, scope ports.Scope) error {
	return listRecords(ctx, r, referenceData, scope, func(e models.ReferenceData) error {
		return consume(e.Projection())
	})
}

func (r *reader) ListResourcePools(ctx context.Context, consume func(models.ResourcePool) error, scope ports.Scope) error {
	return listRecords(ctx, r, resourcePools, scope, consume)
}

func (r *reader) ListKeyPairs(ctx context.Context, consume func(models.KeyPair) error, scope ports.Scope) error {
	return listRecords(ctx, r, keyPairs, scope, consume)
}

func (r *reader) GetSyncStatus(ctx context.Context) (*models.SyncStatus, error) {
	var rec SyncStatusRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.SyncStatus{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sync status")
	}
	return &models.SyncStatus{UpdatedAt: rec.UpdatedAt, TotalOperations: rec.TotalOperations}, nil
}

func (r *reader) GetCloudByID(ctx context.Context, id int64) (*models.Cloud, error) {
	return getRecord(ctx, r, clouds, id)
}

func (r *reader) GetComputeServerByID(ctx context.Context, id int64) (*models.ComputeServer, error) {
	return getRecord(ctx, r, computeServers, id)
}

func (r *reader) GetInstanceByID(ctx context.Context, id int64) (*models.Instance, error) {
	return getRecord(ctx, r, instances, id)
}

func (r *reader) GetContainerByID(ctx context.Context, id int64) (*models.Container, error) {
	return getRecord(ctx, r, containers, id)
}
