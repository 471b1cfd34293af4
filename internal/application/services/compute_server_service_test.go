package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

func newServers(cloudID int64, externalIDs ...string) []*models.ComputeServer {
	out := make([]*models.ComputeServer, 0, len(externalIDs))
	for _, id := range externalIDs {
		out = append(out, &models.ComputeServer{
			CloudID:    cloudID,
			AccountID:  1,
			ExternalID: id,
			Name:       "vm " + id,
			PowerState: models.PowerStateOn,
			MaxCores:   2,
		})
	}
	return out
}

func TestComputeServer_CreateThenListByID(t *testing.T) {
	f := newFixture(t, BufferConfig{})
	ctx := context.Background()

	servers := newServers(3, "vm-1", "vm-2")
	assert.True(t, await(t, f.servers.Create(ctx, servers)))

	ids := make([]int64, 0, len(servers))
	for _, s := range servers {
		require.NotZero(t, s.ID)
		assert.NotEmpty(t, s.UUID)
		assert.False(t, s.CreatedAt.IsZero())
		ids = append(ids, s.ID)
	}

	got := collectStream(t, f.servers.ListByID(ctx, ids))
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []models.ComputeServer{*servers[0], *servers[1]}, got)
}

func TestComputeServer_ListByIDOmitsUnknown(t *testing.T) {
	f := newFixture(t, BufferConfig{})
	ctx := context.Background()

	servers := newServers(3, "vm-1")
	await(t, f.servers.Create(ctx, servers))

	got := collectStream(t, f.servers.ListByID(ctx, []int64{servers[0].ID, 9999, servers[0].ID}))
	require.Len(t, got, 1)
	assert.Equal(t, "vm-1", got[0].ExternalID)

	assert.Empty(t, collectStream(t, f.servers.ListByID(ctx, nil)))
}

func TestComputeServer_ListSyncProjections(t *testing.T) {
	f := newFixture(t, BufferConfig{})
	ctx := context.Background()

	await(t, f.servers.Create(ctx, newServers(3, "vm-1", "vm-2", "vm-3")))
	await(t, f.servers.Create(ctx, newServers(4, "vm-9")))

	stream := f.servers.ListSyncProjections(ctx, 3)
	first := collectStream(t, stream)
	second := collectStream(t, stream)
	require.Len(t, first, 3)
	assert.ElementsMatch(t, first, second)
	for _, p := range first {
		assert.NotEqual(t, "vm-9", p.ExternalID)
	}

	assert.Empty(t, collectStream(t, f.servers.ListSyncProjections(ctx, 7)))
}

func TestComputeServer_ListSyncProjectionsRejectsBadCloud(t *testing.T) {
	f := newFixture(t, BufferConfig{})
	_, err := async.Collect(context.Background(), f.servers.ListSyncProjections(context.Background(), 0))
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)
}

func TestComputeServer_CreateIsAllOrNothing(t *testing.T) {
	f := newFixture(t, BufferConfig{})
	ctx := context.Background()

	existing := newServers(3, "vm-1")
	await(t, f.servers.Create(ctx, existing))

	batch := newServers(3, "vm-2", "vm-3")
	batch[1].ID = existing[0].ID
	ok, err := awaitErr(t, f.servers.Create(ctx, batch))
	assert.False(t, ok)
	require.Error(t, err)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, []int{1}, batchErr.FailedIndexes())
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)
	assert.Zero(t, batch[0].ID)

	projections := collectStream(t, f.servers.ListSyncProjections(ctx, 3))
	require.Len(t, projections, 1)
	assert.Equal(t, "vm-1", projections[0].ExternalID)
}

func TestComputeServer_Save(t *testing.T) {
	f := newFixture(t, BufferConfig{})
	ctx := context.Background()

	servers := newServers(3, "vm-1")
	await(t, f.servers.Create(ctx, servers))

	servers[0].Name = "renamed"
	servers[0].MaxMemory = 4096
	assert.True(t, await(t, f.servers.Save(ctx, servers)))

	got := await(t, f.servers.Get(ctx, servers[0].ID))
	require.NotNil(t, got)
	assert.Equal(t, *servers[0], *got)

	missing := newServers(3, "vm-2")
	missing[0].ID = 4242
	ok, err := awaitErr(t, f.servers.Save(ctx, missing))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestComputeServer_RejectsProgrammerErrors(t *testing.T) {
	f := newFixture(t, BufferConfig{})
	ctx := context.Background()

	_, err := awaitErr(t, f.servers.Create(ctx, []*models.ComputeServer{nil}))
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)

	_, err = awaitErr(t, f.servers.Create(ctx, newServers(0, "vm-1")))
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)

	_, err = awaitErr(t, f.servers.Save(ctx, newServers(3, "vm-1")))
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)

	_, err = awaitErr(t, f.servers.Remove(ctx, []models.ComputeServerIdentityProjection{{ExternalID: "vm-1"}}))
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)

	_, err = awaitErr(t, f.servers.UpdatePowerState(ctx, 1, "sleeping"))
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)
}

func TestComputeServer_RemoveIsIdempotent(t *testing.T) {
	f := newFixture(t, BufferConfig{})
	ctx := context.Background()

	await(t, f.servers.Create(ctx, newServers(3, "vm-1", "vm-2")))
	projections := collectStream(t, f.servers.ListSyncProjections(ctx, 3))
	require.Len(t, projections, 2)

	gone := projections[:1]
	assert.True(t, await(t, f.servers.Remove(ctx, gone)))
	assert.True(t, await(t, f.servers.Remove(ctx, gone)))

	left := collectStream(t, f.servers.ListSyncProjections(ctx, 3))
	assert.Equal(t, projections[1:], left)
	assert.Nil(t, await(t, f.servers.Get(ctx, gone[0].ID)))
}

func TestComputeServer_UpdatePowerState(t *testing.T) {
	f := newFixture(t, BufferConfig{})
	ctx := context.Background()

	servers := newServers(3, "vm-1", "vm-2")
	await(t, f.servers.Create(ctx, servers))
	f.seed(t, func(ctx context.Context, w ports.Writer) error {
		return w.SyncContainers(ctx, []models.Container{
			{ID: 1, Name: "web-1", InstanceID: 10, ServerID: servers[0].ID, Status: models.ContainerStatusRunning},
			{ID: 2, Name: "web-2", InstanceID: 10, ServerID: servers[1].ID, Status: models.ContainerStatusRunning},
		}, ports.EmptyScope{})
	})

	await(t, f.servers.UpdatePowerState(ctx, servers[0].ID, models.PowerStateOff))

	got := await(t, f.servers.Get(ctx, servers[0].ID))
	require.NotNil(t, got)
	assert.Equal(t, models.PowerStateOff, got.PowerState)

	stopped := await(t, f.cloud.GetContainerByID(ctx, 1))
	require.NotNil(t, stopped)
	assert.Equal(t, models.ContainerStatusStopped, stopped.Status)
	untouched := await(t, f.cloud.GetContainerByID(ctx, 2))
	require.NotNil(t, untouched)
	assert.Equal(t, models.ContainerStatusRunning, untouched.Status)

	// unknown server
	_, err := awaitErr(t, f.servers.UpdatePowerState(ctx, 9999, models.PowerStateOn))
	assert.NoError(t, err)
}

func TestComputeServer_TransientFailureIsReported(t *testing.T) {
	reg := &mockRegistry{}
	reg.On("Writer", mock.Anything).Return(nil, errors.New("connection reset by peer"))
	executor := async.NewExecutor(async.DefaultExecutorConfig())
	defer executor.Close()
	servers := NewComputeServerService(reg, executor, nil)

	ok, err := awaitErr(t, servers.Create(context.Background(), newServers(3, "vm-1")))
	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection reset by peer")

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Empty(t, batchErr.FailedIndexes())
	reg.AssertExpectations(t)
}
