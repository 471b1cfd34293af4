package mem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

func listEntries(t *testing.T, r ports.Reader, scope ports.Scope) []models.ReferenceData {
	t.Helper()
	var out []models.ReferenceData
	require.NoError(t, r.ListReferenceData(context.Background(), func(e models.ReferenceData) error {
		out = append(out, e)
		return nil
	}, scope))
	return out
}

func commitEntries(t *testing.T, reg *Registry, entries []models.ReferenceData, opts ...ports.Option) []models.ReferenceData {
	t.Helper()
	ctx := context.Background()
	w, err := reg.Writer(ctx)
	require.NoError(t, err)
	defer w.Abort()
	require.NoError(t, w.SyncReferenceData(ctx, entries, ports.EmptyScope{}, opts...))
	require.NoError(t, w.Commit())
	return entries
}

func TestRegistry_CommitMakesChangesVisible(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	defer reg.Close()

	w, err := reg.Writer(ctx)
	require.NoError(t, err)
	servers := []models.ComputeServer{
		{CloudID: 1, ExternalID: "vm-1", Name: "web", PowerState: models.PowerStateOn},
		{CloudID: 1, ExternalID: "vm-2", Name: "db", PowerState: models.PowerStateOff},
	}
	require.NoError(t, w.SyncComputeServers(ctx, servers, ports.EmptyScope{}))
	assert.NotZero(t, servers[0].ID)
	assert.NotZero(t, servers[1].ID)
	assert.NotEqual(t, servers[0].ID, servers[1].ID)

	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.GetComputeServerByID(ctx, servers[0].ID)
	assert.ErrorIs(t, err, ports.ErrNotFound, "uncommitted rows must stay invisible")

	fromWriter, err := reg.ReaderFromWriter(ctx, w)
	require.NoError(t, err)
	got, err := fromWriter.GetComputeServerByID(ctx, servers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "web", got.Name)

	require.NoError(t, w.Commit())

	var identities []models.ComputeServerIdentityProjection
	require.NoError(t, r.ListComputeServerIdentities(ctx, func(p models.ComputeServerIdentityProjection) error {
		identities = append(identities, p)
		return nil
	}, ports.CloudScope{CloudID: 1}))
	assert.Equal(t, []models.ComputeServerIdentityProjection{
		{ID: servers[0].ID, ExternalID: "vm-1", Name: "web"},
		{ID: servers[1].ID, ExternalID: "vm-2", Name: "db"},
	}, identities)

	status, err := r.GetSyncStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), status.TotalOperations)
}

func TestRegistry_AbortDiscards(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	w, err := reg.Writer(ctx)
	require.NoError(t, err)
	require.NoError(t, w.SyncReferenceData(ctx, []models.ReferenceData{
		{CloudID: 1, Category: "flavor", ExternalID: "f1"},
	}, ports.EmptyScope{}))
	w.Abort()
	assert.Error(t, w.Commit())

	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	assert.Empty(t, listEntries(t, r, ports.EmptyScope{}))
}

func TestRegistry_SyncOps(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	saved := commitEntries(t, reg, []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1", Name: "small"}})

	t.Run("insert of existing id fails", func(t *testing.T) {
		w, err := reg.Writer(ctx)
		require.NoError(t, err)
		defer w.Abort()
		err = w.SyncReferenceData(ctx, []models.ReferenceData{saved[0]}, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpInsert))
		assert.ErrorIs(t, err, ports.ErrAlreadyExists)
	})

	t.Run("insert of taken natural key fails", func(t *testing.T) {
		w, err := reg.Writer(ctx)
		require.NoError(t, err)
		defer w.Abort()
		err = w.SyncReferenceData(ctx, []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1"}},
			ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpInsert))
		assert.ErrorIs(t, err, ports.ErrAlreadyExists)
	})

	t.Run("update of missing id fails", func(t *testing.T) {
		w, err := reg.Writer(ctx)
		require.NoError(t, err)
		defer w.Abort()
		err = w.SyncReferenceData(ctx, []models.ReferenceData{{ID: 999, CloudID: 1, Category: "flavor", ExternalID: "zz"}},
			ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpUpdate))
		assert.ErrorIs(t, err, ports.ErrNotFound)
	})

	t.Run("upsert without id reuses the natural key owner", func(t *testing.T) {
		entries := commitEntries(t, reg, []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1", Name: "tiny"}})
		assert.Equal(t, saved[0].ID, entries[0].ID)

		r, err := reg.Reader(ctx)
		require.NoError(t, err)
		got := listEntries(t, r, ports.CategoryScope{CloudID: 1, Category: "flavor"})
		require.Len(t, got, 1)
		assert.Equal(t, "tiny", got[0].Name)
	})
}

func TestRegistry_ScopedSyncReplacesScope(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	commitEntries(t, reg, []models.ReferenceData{
		{CloudID: 1, Category: "flavor", ExternalID: "f1"},
		{CloudID: 1, Category: "flavor", ExternalID: "f2"},
		{CloudID: 1, Category: "image", ExternalID: "i1"},
	})

	w, err := reg.Writer(ctx)
	require.NoError(t, err)
	defer w.Abort()
	require.NoError(t, w.SyncReferenceData(ctx, []models.ReferenceData{
		{CloudID: 1, Category: "flavor", ExternalID: "f2"},
		{CloudID: 1, Category: "flavor", ExternalID: "f3"},
	}, ports.CategoryScope{CloudID: 1, Category: "flavor"}))
	require.NoError(t, w.Commit())

	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	var externalIDs []string
	for _, e := range listEntries(t, r, ports.CloudScope{CloudID: 1}) {
		externalIDs = append(externalIDs, e.ExternalID)
	}
	assert.ElementsMatch(t, []string{"f2", "f3", "i1"}, externalIDs)
}

func TestRegistry_DeleteIgnoresUnknownIDs(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	entries := commitEntries(t, reg, []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1"}})

	for i := 0; i < 2; i++ {
		w, err := reg.Writer(ctx)
		require.NoError(t, err)
		require.NoError(t, w.DeleteReferenceDataByIDs(ctx, []int64{entries[0].ID, 12345}))
		require.NoError(t, w.Commit())
	}

	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	assert.Empty(t, listEntries(t, r, ports.EmptyScope{}))
}

func TestRegistry_ConflictingCommitsAreRejected(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	first, err := reg.Writer(ctx)
	require.NoError(t, err)
	second, err := reg.Writer(ctx)
	require.NoError(t, err)

	entry := []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1"}}
	require.NoError(t, first.SyncReferenceData(ctx, entry, ports.EmptyScope{}))
	other := []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1"}}
	require.NoError(t, second.SyncReferenceData(ctx, other, ports.EmptyScope{}))

	require.NoError(t, first.Commit())
	assert.ErrorIs(t, second.Commit(), ports.ErrAlreadyExists)

	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	assert.Len(t, listEntries(t, r, ports.EmptyScope{}), 1)
}

func TestRegistry_UnsupportedScope(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	commitEntries(t, reg, []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1"}})
	r, err := reg.Reader(ctx)
	require.NoError(t, err)

	err = r.ListReferenceData(ctx, func(models.ReferenceData) error { return nil }, ports.ServerScope{ServerID: 1})
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)
}

func TestRegistry_ConsumeErrorStopsScan(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	commitEntries(t, reg, []models.ReferenceData{
		{CloudID: 1, Category: "flavor", ExternalID: "f1"},
		{CloudID: 1, Category: "flavor", ExternalID: "f2"},
	})
	r, err := reg.Reader(ctx)
	require.NoError(t, err)

	stop := assert.AnError
	calls := 0
	err = r.ListReferenceData(ctx, func(models.ReferenceData) error {
		calls++
		return stop
	}, ports.EmptyScope{})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestRegistry_Closed(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Close())
	_, err := reg.Writer(context.Background())
	assert.ErrorIs(t, err, ports.ErrRegistryClosed)
	_, err = reg.Reader(context.Background())
	assert.ErrorIs(t, err, ports.ErrRegistryClosed)
}
