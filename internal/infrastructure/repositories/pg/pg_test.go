package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

// newTestRegistry connects to the database named by CLOUDSYNC_PG_URI. The
// tests write rows under a cloud id derived from the clock so runs do not collide.
func newTestRegistry(t *testing.T) (*Registry, int64) {
	t.Helper()
	uri := os.Getenv("CLOUDSYNC_PG_URI")
	if uri == "" {
		t.Skip("CLOUDSYNC_PG_URI is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	reg, err := NewRegistryFromURI(ctx, uri, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg, time.Now().UnixNano() % 1_000_000_000
}

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()
	assert.Equal(t, int32(30), cfg.MaxConns)
	assert.Equal(t, time.Minute, cfg.ConnectRetryMaxElapsed)
}

func TestConnect_InvalidURI(t *testing.T) {
	cm := NewConnectionManager(ConnectionConfig{URI: "postgres://%zz"})
	assert.Error(t, cm.Connect(context.Background()))
	assert.False(t, cm.IsHealthy())
	assert.Contains(t, cm.HealthStatus().String(), "UNHEALTHY")
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "0001_init.sql", entries[0].Name())
}

func TestRegistry_ReferenceDataLifecycle(t *testing.T) {
	reg, cloudID := newTestRegistry(t)
	ctx := context.Background()

	w, err := reg.Writer(ctx)
	require.NoError(t, err)
	entries := []models.ReferenceData{
		{CloudID: cloudID, Category: "flavor", ExternalID: "f1", Name: "small"},
		{CloudID: cloudID, Category: "flavor", ExternalID: "f2", Name: "large"},
	}
	require.NoError(t, w.SyncReferenceData(ctx, entries, ports.EmptyScope{}))
	require.NoError(t, w.Commit())
	require.NotZero(t, entries[0].ID)

	w, err = reg.Writer(ctx)
	require.NoError(t, err)
	again := []models.ReferenceData{{CloudID: cloudID, Category: "flavor", ExternalID: "f1", Name: "tiny"}}
	require.NoError(t, w.SyncReferenceData(ctx, again, ports.EmptyScope{}))
	require.NoError(t, w.Commit())
	assert.Equal(t, entries[0].ID, again[0].ID)

	w, err = reg.Writer(ctx)
	require.NoError(t, err)
	dup := []models.ReferenceData{{CloudID: cloudID, Category: "flavor", ExternalID: "f2"}}
	err = w.SyncReferenceData(ctx, dup, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpInsert))
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)
	w.Abort()

	w, err = reg.Writer(ctx)
	require.NoError(t, err)
	require.NoError(t, w.DeleteReferenceDataByIDs(ctx, []int64{entries[1].ID, -1}))
	require.NoError(t, w.Commit())

	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	var got []models.ReferenceDataSyncProjection
	require.NoError(t, r.ListReferenceDataProjections(ctx, func(p models.ReferenceDataSyncProjection) error {
		got = append(got, p)
		return nil
	}, ports.CategoryScope{CloudID: cloudID, Category: "flavor"}))
	assert.Equal(t, []models.ReferenceDataSyncProjection{{ID: entries[0].ID, ExternalID: "f1", Name: "tiny"}}, got)
}

func TestRegistry_ComputeServerVisibility(t *testing.T) {
	reg, cloudID := newTestRegistry(t)
	ctx := context.Background()

	w, err := reg.Writer(ctx)
	require.NoError(t, err)
	defer w.Abort()
	servers := []models.ComputeServer{{CloudID: cloudID, AccountID: 1, ExternalID: "vm-1", Name: "web",
		PowerState: models.PowerStateOn, CreatedAt: time.Now(), UpdatedAt: time.Now()}}
	require.NoError(t, w.SyncComputeServers(ctx, servers, ports.EmptyScope{}))

	fromWriter, err := reg.ReaderFromWriter(ctx, w)
	require.NoError(t, err)
	_, err = fromWriter.GetComputeServerByID(ctx, servers[0].ID)
	require.NoError(t, err)

	r, err := reg.Reader(ctx)
	require.NoError(t, err)
	_, err = r.GetComputeServerByID(ctx, servers[0].ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, w.Commit())
	got, err := r.GetComputeServerByID(ctx, servers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.PowerStateOn, got.PowerState)
}
