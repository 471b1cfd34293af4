package services

import (
	"context"
	"time"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/domain/models"
)

// ComputeServerContext reconciles compute servers of a cloud with the host
// inventory. Every method returns without blocking.
type ComputeServerContext interface {
	// Get returns the server or nil when it does not exist
	Get(ctx context.Context, id int64) *async.Future[*models.ComputeServer]
	// ListSyncProjections streams the identities of the servers of a cloud
	ListSyncProjections(ctx context.Context, cloudID int64) async.Stream[models.ComputeServerIdentityProjection]
	// ListByID streams the servers with the given ids, omitting unknown ids
	ListByID(ctx context.Context, ids []int64) async.Stream[models.ComputeServer]
	// Create stores all servers in one transaction and assigns their IDs
	Create(ctx context.Context, servers []*models.ComputeServer) *async.Future[bool]
	// Save updates already stored servers in one transaction
	Save(ctx context.Context, servers []*models.ComputeServer) *async.Future[bool]
	// Remove deletes servers by identity. Unknown servers are ignored.
	Remove(ctx context.Context, projections []models.ComputeServerIdentityProjection) *async.Future[bool]
	// UpdatePowerState sets the power state of a server and the status of
	// the containers placed on it
	UpdatePowerState(ctx context.Context, id int64, state models.PowerState) *async.Future[struct{}]
}

// SaveOptions scopes a reference data write. Zero fields keep the values
// carried by the entry.
type SaveOptions struct {
	CloudID  int64
	Category string
	// Flush commits before the future resolves instead of buffering
	Flush bool
}

// ReferenceDataNamespace is the (cloud, category) scope of reference data
type ReferenceDataNamespace struct {
	CloudID  int64
	Category string
}

// CloudContext is the per-cloud sync surface: reference data caching,
// resource pools, key pairs and status reporting
type CloudContext interface {
	SaveReferenceData(ctx context.Context, entry *models.ReferenceData, opts SaveOptions) *async.Future[*models.ReferenceData]
	SaveAllReferenceData(ctx context.Context, entries []models.ReferenceData, opts SaveOptions) *async.Future[bool]
	// RemoveMissingReferenceData deletes every entry of ns whose external id
	// is not in keepExternalIDs. An empty keep set empties the namespace.
	RemoveMissingReferenceData(ctx context.Context, ns ReferenceDataNamespace, keepExternalIDs []string) *async.Future[bool]
	ListReferenceDataByCategory(ctx context.Context, cloudID int64, category string) async.Stream[models.ReferenceDataSyncProjection]
	FindReferenceDataByExternalID(ctx context.Context, externalID string) *async.Future[*models.ReferenceData]
	ListReferenceDataByExternalIDs(ctx context.Context, externalIDs []string) *async.Future[[]models.ReferenceData]
	FindReferenceDataByCategory(ctx context.Context, cloudID int64, category string) *async.Future[[]models.ReferenceData]
	// Flush commits buffered reference data writes
	Flush(ctx context.Context) error

	UpdateZoneStatus(ctx context.Context, cloudID int64, status models.CloudStatus, message string, syncDate time.Time) *async.Future[struct{}]
	GetCloudByID(ctx context.Context, id int64) *async.Future[*models.Cloud]
	GetContainerByID(ctx context.Context, id int64) *async.Future[*models.Container]

	FindOrGenerateKeyPair(ctx context.Context, accountID int64) *async.Future[*models.KeyPair]
	UpdateKeyPair(ctx context.Context, keyPair *models.KeyPair, cloudID int64) *async.Future[struct{}]

	SaveResourcePool(ctx context.Context, pool *models.ResourcePool, cloudID int64, category string) *async.Future[*models.ResourcePool]
	ReadResourcePools(ctx context.Context, cloudID int64, category string) *async.Future[[]models.ResourcePool]

	UpdatePowerState(ctx context.Context, serverID int64, state models.PowerState) *async.Future[struct{}]
	UpdateInstanceStatus(ctx context.Context, ids []int64, status models.InstanceStatus) *async.Future[struct{}]
	GetStoppedContainerInstanceIDs(ctx context.Context, containerID int64) *async.Future[[]int64]
	GetInstance(ctx context.Context, server *models.ComputeServer) *async.Future[*models.Instance]
	GetContainer(ctx context.Context, server *models.ComputeServer) *async.Future[*models.Container]
}
