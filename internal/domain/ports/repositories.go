package ports

import (
	"context"

	"cloudsync-pg-backend/internal/domain/models"
)

type (
	// Scope narrows a list operation
	Scope interface {
		IsEmpty() bool
		String() string
	}

	// Option defines options for write operations
	Option interface{}

	// ReaderNoClose defines read operations without close.
	// List methods stream rows into consume; an error returned by consume stops
	// the scan and is returned unchanged.
	ReaderNoClose interface {
		ListClouds(ctx context.Context, consume func(models.Cloud) error, scope Scope) error
		ListComputeServers(ctx context.Context, consume func(models.ComputeServer) error, scope Scope) error
		ListComputeServerIdentities(ctx context.Context, consume func(models.ComputeServerIdentityProjection) error, scope Scope) error
		ListInstances(ctx context.Context, consume func(models.Instance) error, scope Scope) error
		ListContainers(ctx context.Context, consume func(models.Container) error, scope Scope) error
		ListReferenceData(ctx context.Context, consume func(models.ReferenceData) error, scope Scope) error
		ListReferenceDataProjections(ctx context.Context, consume func(models.ReferenceDataSyncProjection) error, scope Scope) error
		ListResourcePools(ctx context.Context, consume func(models.ResourcePool) error, scope Scope) error
		ListKeyPairs(ctx context.Context, consume func(models.KeyPair) error, scope Scope) error
		GetSyncStatus(ctx context.Context) (*models.SyncStatus, error)

		GetCloudByID(ctx context.Context, id int64) (*models.Cloud, error)
		GetComputeServerByID(ctx context.Context, id int64) (*models.ComputeServer, error)
		GetInstanceByID(ctx context.Context, id int64) (*models.Instance, error)
		GetContainerByID(ctx context.Context, id int64) (*models.Container, error)
	}

	// Reader defines read operations
	Reader interface {
		ReaderNoClose
		Close() error
	}

	// Writer buffers changes until Commit. Sync methods assign ids to records
	// with a zero ID in place.
	Writer interface {
		SyncClouds(ctx context.Context, clouds []models.Cloud, scope Scope, opts ...Option) error
		SyncComputeServers(ctx context.Context, servers []models.ComputeServer, scope Scope, opts ...Option) error
		SyncInstances(ctx context.Context, instances []models.Instance, scope Scope, opts ...Option) error
		SyncContainers(ctx context.Context, containers []models.Container, scope Scope, opts ...Option) error
		SyncReferenceData(ctx context.Context, entries []models.ReferenceData, scope Scope, opts ...Option) error
		SyncResourcePools(ctx context.Context, pools []models.ResourcePool, scope Scope, opts ...Option) error
		SyncKeyPairs(ctx context.Context, keyPairs []models.KeyPair, scope Scope, opts ...Option) error

		// Delete methods ignore unknown ids
		DeleteComputeServersByIDs(ctx context.Context, ids []int64, opts ...Option) error
		DeleteReferenceDataByIDs(ctx context.Context, ids []int64, opts ...Option) error

		Commit() error
		Abort()
	}

	// Registry hands out readers and transactional writers
	Registry interface {
		Writer(ctx context.Context) (Writer, error)
		Reader(ctx context.Context) (Reader, error)
		// ReaderFromWriter returns a reader that can see changes made in the current transaction
		ReaderFromWriter(ctx context.Context, writer Writer) (Reader, error)
		Close() error
	}
)
