package reconcile

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/application/services"
	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/infrastructure/repositories/mem"
	"cloudsync-pg-backend/internal/sync/types"
	"cloudsync-pg-backend/internal/sync/utils"
)

type cloudVM struct {
	ID   string
	Name string
}

func TestTask_DiffAndBatches(t *testing.T) {
	existing := []models.ComputeServerIdentityProjection{
		{ID: 1, ExternalID: "a", Name: "a"},
		{ID: 2, ExternalID: "b", Name: "b"},
		{ID: 3, ExternalID: "b", Name: "b-dup"},
		{ID: 4, ExternalID: "gone", Name: "gone"},
	}
	cloud := []cloudVM{{ID: "a", Name: "a2"}, {ID: "b", Name: "b"}, {ID: "c", Name: "c"}, {ID: "d"}, {ID: "d"}}

	var added []cloudVM
	var updated []int64
	var removed []int64
	calls := 0
	tracker := utils.NewSyncTracker()
	task := &Task[models.ComputeServerIdentityProjection, cloudVM]{
		Subject:     types.SyncSubjectTypeComputeServers,
		Existing:    async.StreamOf(existing...),
		Cloud:       cloud,
		ExistingKey: func(p models.ComputeServerIdentityProjection) string { return p.ExternalID },
		CloudKey:    func(c cloudVM) string { return c.ID },
		OnAdd: func(_ context.Context, items []cloudVM) error {
			calls++
			added = append(added, items...)
			return nil
		},
		OnUpdate: func(_ context.Context, matches []Match[models.ComputeServerIdentityProjection, cloudVM]) error {
			for _, m := range matches {
				updated = append(updated, m.Existing.ID)
			}
			return nil
		},
		OnDelete: func(_ context.Context, stale []models.ComputeServerIdentityProjection) error {
			for _, p := range stale {
				removed = append(removed, p.ID)
			}
			return nil
		},
		BatchSize: 1,
		Logger:    logr.Discard(),
		Tracker:   tracker,
	}

	result, err := task.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.SyncResult{Added: 2, Updated: 2, Removed: 2}, result)
	assert.Equal(t, []cloudVM{{ID: "c", Name: "c"}, {ID: "d"}}, added)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int64{1, 2}, updated)
	slices.Sort(removed)
	assert.Equal(t, []int64{3, 4}, removed)

	stats := tracker.GetStats()[types.SyncSubjectTypeComputeServers]
	assert.Equal(t, int64(1), stats.SuccessfulSyncs)
	assert.Equal(t, int64(2), stats.Records[types.SyncOperationAdd])
}

func TestTask_PhaseFailuresAreCombined(t *testing.T) {
	addErr := errors.New("add failed")
	deleteErr := errors.New("delete failed")
	updates := 0
	task := &Task[string, string]{
		Existing:    async.StreamOf("x", "y"),
		Cloud:       []string{"y", "z"},
		ExistingKey: func(s string) string { return s },
		CloudKey:    func(s string) string { return s },
		OnAdd:       func(context.Context, []string) error { return addErr },
		OnUpdate: func(_ context.Context, m []Match[string, string]) error {
			updates += len(m)
			return nil
		},
		OnDelete: func(context.Context, []string) error { return deleteErr },
	}
	result, err := task.Run(context.Background())
	assert.ErrorIs(t, err, addErr)
	assert.ErrorIs(t, err, deleteErr)
	assert.Equal(t, 1, updates)
	assert.Equal(t, types.SyncResult{Updated: 1}, result)
}

func TestTask_ListingFailureAborts(t *testing.T) {
	listErr := errors.New("list failed")
	called := false
	task := &Task[string, string]{
		Existing:    async.Error[string](listErr),
		ExistingKey: func(s string) string { return s },
		CloudKey:    func(s string) string { return s },
		OnAdd: func(context.Context, []string) error {
			called = true
			return nil
		},
	}
	_, err := task.Run(context.Background())
	assert.ErrorIs(t, err, listErr)
	assert.False(t, called)
}

// TestTask_ReconcilesComputeServers drives the compute server facade through
// two passes: the second one must only touch what changed in the cloud.
func TestTask_ReconcilesComputeServers(t *testing.T) {
	ctx := context.Background()
	reg := mem.NewRegistry()
	defer reg.Close()
	executor := async.NewExecutor(async.DefaultExecutorConfig())
	defer executor.Close()
	servers := services.NewComputeServerService(reg, executor, nil)
	const cloudID = 7

	pass := func(cloud []cloudVM) types.SyncResult {
		task := &Task[models.ComputeServerIdentityProjection, cloudVM]{
			Subject:     types.SyncSubjectTypeComputeServers,
			Existing:    servers.ListSyncProjections(ctx, cloudID),
			Cloud:       cloud,
			ExistingKey: func(p models.ComputeServerIdentityProjection) string { return p.ExternalID },
			CloudKey:    func(c cloudVM) string { return c.ID },
			OnAdd: func(ctx context.Context, items []cloudVM) error {
				batch := make([]*models.ComputeServer, 0, len(items))
				for _, item := range items {
					batch = append(batch, &models.ComputeServer{CloudID: cloudID, ExternalID: item.ID, Name: item.Name,
						PowerState: models.PowerStateOn})
				}
				_, err := servers.Create(ctx, batch).Await(ctx)
				return err
			},
			OnUpdate: func(ctx context.Context, matches []Match[models.ComputeServerIdentityProjection, cloudVM]) error {
				ids := make([]int64, 0, len(matches))
				names := make(map[int64]string, len(matches))
				for _, m := range matches {
					ids = append(ids, m.Existing.ID)
					names[m.Existing.ID] = m.Cloud.Name
				}
				records, err := async.Collect(ctx, servers.ListByID(ctx, ids))
				if err != nil {
					return err
				}
				var changed []*models.ComputeServer
				for i := range records {
					if records[i].Name != names[records[i].ID] {
						records[i].Name = names[records[i].ID]
						changed = append(changed, &records[i])
					}
				}
				if len(changed) == 0 {
					return nil
				}
				_, err = servers.Save(ctx, changed).Await(ctx)
				return err
			},
			OnDelete: func(ctx context.Context, stale []models.ComputeServerIdentityProjection) error {
				_, err := servers.Remove(ctx, stale).Await(ctx)
				return err
			},
			Logger: logr.Discard(),
		}
		result, err := task.Run(ctx)
		require.NoError(t, err)
		return result
	}

	assert.Equal(t, types.SyncResult{Added: 3}, pass([]cloudVM{{"i-1", "web"}, {"i-2", "db"}, {"i-3", "cache"}}))
	assert.Equal(t, types.SyncResult{Added: 1, Updated: 2, Removed: 1}, pass([]cloudVM{{"i-1", "web"}, {"i-2", "db-primary"}, {"i-4", "queue"}}))

	projections, err := async.Collect(ctx, servers.ListSyncProjections(ctx, cloudID))
	require.NoError(t, err)
	names := make([]string, 0, len(projections))
	for _, p := range projections {
		names = append(names, p.ExternalID+"="+p.Name)
	}
	assert.ElementsMatch(t, []string{"i-1=web", "i-2=db-primary", "i-4=queue"}, names)
}
