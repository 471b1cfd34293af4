package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/repositories/mem"
)

type fixture struct {
	reg     *mem.Registry
	servers *ComputeServerService
	cloud   *CloudService
	clock   *clocktesting.FakeClock
	prom    *prometheus.Registry
}

func newFixture(t *testing.T, buffer BufferConfig, opts ...CloudServiceOption) *fixture {
	t.Helper()
	return newFixtureOn(t, nil, buffer, opts...)
}

// newFixtureOn runs the services on wrap(reg) while seeding goes to reg
func newFixtureOn(t *testing.T, wrap func(*mem.Registry) ports.Registry, buffer BufferConfig, opts ...CloudServiceOption) *fixture {
	t.Helper()
	f := &fixture{
		reg:   mem.NewRegistry(),
		clock: clocktesting.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		prom:  prometheus.NewRegistry(),
	}
	metrics, err := NewMetrics(f.prom)
	require.NoError(t, err)
	var store ports.Registry = f.reg
	if wrap != nil {
		store = wrap(f.reg)
	}
	executor := async.NewExecutor(async.ExecutorConfig{Workers: 4})
	f.servers = NewComputeServerService(store, executor, metrics)
	opts = append([]CloudServiceOption{WithClock(f.clock)}, opts...)
	f.cloud = NewCloudService(store, executor, f.servers, buffer, metrics, opts...)
	t.Cleanup(func() {
		_ = f.cloud.Close(context.Background())
		executor.Close()
		_ = f.reg.Close()
	})
	return f
}

func await[T any](t *testing.T, f *async.Future[T]) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := f.Await(ctx)
	require.NoError(t, err)
	return v
}

func awaitErr[T any](t *testing.T, f *async.Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Await(ctx)
}

func collectStream[T any](t *testing.T, s async.Stream[T]) []T {
	t.Helper()
	items, err := async.Collect(context.Background(), s)
	require.NoError(t, err)
	return items
}

// seed commits rows straight into the registry
func (f *fixture) seed(t *testing.T, fn func(ctx context.Context, w ports.Writer) error) {
	t.Helper()
	ctx := context.Background()
	w, err := f.reg.Writer(ctx)
	require.NoError(t, err)
	defer w.Abort()
	require.NoError(t, fn(ctx, w))
	require.NoError(t, w.Commit())
}

func (f *fixture) seedReferenceData(t *testing.T, entries ...models.ReferenceData) []models.ReferenceData {
	t.Helper()
	f.seed(t, func(ctx context.Context, w ports.Writer) error {
		return w.SyncReferenceData(ctx, entries, ports.EmptyScope{})
	})
	return entries
}

func flavor(cloudID int64, externalID string) models.ReferenceData {
	return models.ReferenceData{CloudID: cloudID, Category: "flavor", ExternalID: externalID, Name: "flavor " + externalID}
}

// mockRegistry fails on demand
type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) Writer(ctx context.Context) (ports.Writer, error) {
	args := m.Called(ctx)
	w, _ := args.Get(0).(ports.Writer)
	return w, args.Error(1)
}

func (m *mockRegistry) Reader(ctx context.Context) (ports.Reader, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(ports.Reader)
	return r, args.Error(1)
}

func (m *mockRegistry) ReaderFromWriter(ctx context.Context, w ports.Writer) (ports.Reader, error) {
	args := m.Called(ctx, w)
	r, _ := args.Get(0).(ports.Reader)
	return r, args.Error(1)
}

func (m *mockRegistry) Close() error {
	return m.Called().Error(0)
}

// mockKeyGenerator returns a fixed key pair
type mockKeyGenerator struct {
	mock.Mock
}

func (m *mockKeyGenerator) GenerateKeyPair(name string) (*models.KeyPair, error) {
	args := m.Called(name)
	kp, _ := args.Get(0).(*models.KeyPair)
	return kp, args.Error(1)
}

// gatedRegistry holds the commit of the next writer it hands out until
// release is closed. committing is closed once that commit has started.
type gatedRegistry struct {
	*mem.Registry
	armed      atomic.Bool
	committing chan struct{}
	release    chan struct{}
}

func newGatedRegistry(reg *mem.Registry) *gatedRegistry {
	return &gatedRegistry{
		Registry:   reg,
		committing: make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gatedRegistry) Writer(ctx context.Context) (ports.Writer, error) {
	w, err := g.Registry.Writer(ctx)
	if err != nil || !g.armed.CompareAndSwap(true, false) {
		return w, err
	}
	return &gatedWriter{Writer: w, gate: g}, nil
}

func (g *gatedRegistry) ReaderFromWriter(ctx context.Context, w ports.Writer) (ports.Reader, error) {
	if gw, ok := w.(*gatedWriter); ok {
		w = gw.Writer
	}
	return g.Registry.ReaderFromWriter(ctx, w)
}

type gatedWriter struct {
	ports.Writer
	gate *gatedRegistry
}

func (w *gatedWriter) Commit() error {
	close(w.gate.committing)
	<-w.gate.release
	return w.Writer.Commit()
}
