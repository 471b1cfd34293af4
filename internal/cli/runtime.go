package cli

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/application/services"
	"cloudsync-pg-backend/internal/config"
	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
	"cloudsync-pg-backend/internal/infrastructure/keygen"
	"cloudsync-pg-backend/internal/infrastructure/repositories"
)

// runtime is the facade stack one command works against
type runtime struct {
	cfg      *config.Config
	logger   logr.Logger
	registry ports.Registry
	executor *async.Executor
	servers  *services.ComputeServerService
	cloud    *services.CloudService
}

func openRuntime(ctx context.Context, g *globals) (*runtime, error) {
	registry, err := repositories.NewFactory(g.cfg.Storage).CreateRegistry(ctx)
	if err != nil {
		return nil, err
	}

	metrics, err := services.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		_ = registry.Close()
		return nil, errors.Wrap(err, "failed to register metrics")
	}

	logger := g.logger
	executor := async.NewExecutor(g.cfg.Executor)
	servers := services.NewComputeServerService(registry, executor, metrics)
	cloud := services.NewCloudService(registry, executor, servers, g.cfg.ReferenceData, metrics,
		services.WithKeyGenerator(keygen.NewEd25519Generator()),
		services.WithFlushErrorHandler(func(err error, entries []models.ReferenceData) {
			logger.Error(err, "Buffered reference data dropped", "entries", len(entries))
		}),
	)

	return &runtime{
		cfg:      g.cfg,
		logger:   logger,
		registry: registry,
		executor: executor,
		servers:  servers,
		cloud:    cloud,
	}, nil
}

// Close flushes buffered writes, drains the executor and closes storage
func (r *runtime) Close(ctx context.Context) error {
	err := r.cloud.Close(ctx)
	r.executor.Close()
	return multierr.Append(err, r.registry.Close())
}

// withRuntime opens a runtime for the duration of fn
func withRuntime(ctx context.Context, g *globals, fn func(context.Context, *runtime) error) (err error) {
	rt, err := openRuntime(ctx, g)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, rt.Close(context.WithoutCancel(ctx)))
	}()
	return fn(ctx, rt)
}
