package rdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	url := "sqlite:" + filepath.Join(t.TempDir(), "cloudsync.db")
	reg, err := NewRegistryFromURL(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func writeEntries(t *testing.T, reg *Registry, entries []models.ReferenceData, scope ports.Scope, opts ...ports.Option) error {
	t.Helper()
	ctx := context.Background()
	w, err := reg.Writer(ctx)
	require.NoError(t, err)
	defer w.Abort()
	if err := w.SyncReferenceData(ctx, entries, scope, opts...); err != nil {
		return err
	}
	return w.Commit()
}

func externalIDs(t *testing.T, reg *Registry, scope ports.Scope) []string {
	t.Helper()
	ctx := context.Background()
	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	defer r.Close()
	var out []string
	require.NoError(t, r.ListReferenceData(ctx, func(e models.ReferenceData) error {
		out = append(out, e.ExternalID)
		return nil
	}, scope))
	return out
}

func TestOpenFromURL(t *testing.T) {
	_, err := OpenFromURL("mysql://localhost")
	assert.Error(t, err)

	db, err := OpenFromURL("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestWithDefaultParams(t *testing.T) {
	assert.Equal(t, "a.db?_busy_timeout=5000&_txlock=immediate", withDefaultParams("a.db"))
	assert.Equal(t, "a.db?_txlock=deferred&_busy_timeout=5000", withDefaultParams("a.db?_txlock=deferred"))
}

func TestRegistry_ComputeServersRoundTrip(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)

	w, err := reg.Writer(ctx)
	require.NoError(t, err)
	servers := []models.ComputeServer{
		{CloudID: 7, AccountID: 1, ExternalID: "vm-1", Name: "web", PowerState: models.PowerStateOn},
		{CloudID: 7, AccountID: 1, ExternalID: "vm-2", Name: "db", PowerState: models.PowerStateOff},
	}
	require.NoError(t, w.SyncComputeServers(ctx, servers, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpInsert)))
	require.NotZero(t, servers[0].ID)
	require.NotZero(t, servers[1].ID)

	fromWriter, err := reg.ReaderFromWriter(ctx, w)
	require.NoError(t, err)
	pending, err := fromWriter.GetComputeServerByID(ctx, servers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "web", pending.Name)

	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	_, err = r.GetComputeServerByID(ctx, servers[0].ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, w.Commit())

	var identities []models.ComputeServerIdentityProjection
	require.NoError(t, r.ListComputeServerIdentities(ctx, func(p models.ComputeServerIdentityProjection) error {
		identities = append(identities, p)
		return nil
	}, ports.CloudScope{CloudID: 7}))
	assert.ElementsMatch(t, []models.ComputeServerIdentityProjection{servers[0].Projection(), servers[1].Projection()}, identities)

	status, err := r.GetSyncStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), status.TotalOperations)

	w, err = reg.Writer(ctx)
	require.NoError(t, err)
	require.NoError(t, w.DeleteComputeServersByIDs(ctx, []int64{servers[0].ID, 9999}))
	require.NoError(t, w.Commit())
	_, err = r.GetComputeServerByID(ctx, servers[0].ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRegistry_ReferenceDataNaturalKey(t *testing.T) {
	reg := newTestRegistry(t)

	entries := []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1", Name: "small"}}
	require.NoError(t, writeEntries(t, reg, entries, ports.EmptyScope{}))
	first := entries[0].ID

	again := []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1", Name: "tiny"}}
	require.NoError(t, writeEntries(t, reg, again, ports.EmptyScope{}))
	assert.Equal(t, first, again[0].ID)

	dup := []models.ReferenceData{{CloudID: 1, Category: "flavor", ExternalID: "f1"}}
	err := writeEntries(t, reg, dup, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpInsert))
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)

	missing := []models.ReferenceData{{ID: 4242, CloudID: 1, Category: "flavor", ExternalID: "zz"}}
	err = writeEntries(t, reg, missing, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpUpdate))
	assert.ErrorIs(t, err, ports.ErrNotFound)

	assert.Equal(t, []string{"f1"}, externalIDs(t, reg, ports.CategoryScope{CloudID: 1, Category: "flavor"}))
}

func TestRegistry_ScopedSyncPrunes(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, writeEntries(t, reg, []models.ReferenceData{
		{CloudID: 1, Category: "flavor", ExternalID: "f1"},
		{CloudID: 1, Category: "flavor", ExternalID: "f2"},
		{CloudID: 1, Category: "image", ExternalID: "i1"},
	}, ports.EmptyScope{}))

	require.NoError(t, writeEntries(t, reg, []models.ReferenceData{
		{CloudID: 1, Category: "flavor", ExternalID: "f2"},
	}, ports.CategoryScope{CloudID: 1, Category: "flavor"}))

	assert.ElementsMatch(t, []string{"f2", "i1"}, externalIDs(t, reg, ports.CloudScope{CloudID: 1}))

	require.NoError(t, writeEntries(t, reg, nil, ports.CategoryScope{CloudID: 1, Category: "image"}))
	assert.Equal(t, []string{"f2"}, externalIDs(t, reg, ports.EmptyScope{}))
}

func TestRegistry_ListStopsOnConsumeError(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	var entries []models.ReferenceData
	for _, id := range []string{"a", "b", "c"} {
		entries = append(entries, models.ReferenceData{CloudID: 1, Category: "network", ExternalID: id})
	}
	require.NoError(t, writeEntries(t, reg, entries, ports.EmptyScope{}))

	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	calls := 0
	err = r.ListReferenceData(ctx, func(models.ReferenceData) error {
		calls++
		return assert.AnError
	}, ports.EmptyScope{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)

	err = r.ListReferenceData(ctx, func(models.ReferenceData) error { return nil }, ports.ServerScope{ServerID: 1})
	assert.ErrorIs(t, err, ports.ErrInvalidArgument)
}

func TestRegistry_Closed(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Close())
	_, err := reg.Writer(context.Background())
	assert.ErrorIs(t, err, ports.ErrRegistryClosed)
}
