package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

var _ ComputeServerContext = (*ComputeServerService)(nil)

// ComputeServerService implements ComputeServerContext on a ports.Registry
type ComputeServerService struct {
	facade
	now func() time.Time
}

// NewComputeServerService creates a new ComputeServerService. metrics may be nil.
func NewComputeServerService(registry ports.Registry, executor *async.Executor, metrics *Metrics) *ComputeServerService {
	return &ComputeServerService{
		facade: facade{registry: registry, executor: executor, metrics: metrics},
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Get returns the server with id or nil
func (s *ComputeServerService) Get(ctx context.Context, id int64) *async.Future[*models.ComputeServer] {
	if id <= 0 {
		return reject[*models.ComputeServer](&s.facade, "compute_server.get", invalidArgument("server id %d", id))
	}
	return submit(&s.facade, ctx, "compute_server.get", func(ctx context.Context) (*models.ComputeServer, error) {
		var server *models.ComputeServer
		err := s.read(ctx, func(r ports.Reader) (err error) {
			server, err = orNil(r.GetComputeServerByID(ctx, id))
			return err
		})
		return server, err
	})
}

// ListSyncProjections streams the identities of the servers of cloudID.
// An unknown cloud yields an empty stream.
func (s *ComputeServerService) ListSyncProjections(ctx context.Context, cloudID int64) async.Stream[models.ComputeServerIdentityProjection] {
	if cloudID <= 0 {
		return async.Error[models.ComputeServerIdentityProjection](invalidArgument("cloud id %d", cloudID))
	}
	return stream(&s.facade, ctx, func(r ports.Reader, consume func(models.ComputeServerIdentityProjection) error) error {
		return r.ListComputeServerIdentities(ctx, consume, ports.CloudScope{CloudID: cloudID})
	})
}

// ListByID streams the servers with the given ids. Unknown ids are omitted.
func (s *ComputeServerService) ListByID(ctx context.Context, ids []int64) async.Stream[models.ComputeServer] {
	wanted := sets.New(ids...)
	if wanted.Len() == 0 {
		return async.StreamOf[models.ComputeServer]()
	}
	return stream(&s.facade, ctx, func(r ports.Reader, consume func(models.ComputeServer) error) error {
		return r.ListComputeServers(ctx, consume, ports.NewIDScope(sets.List(wanted)...))
	})
}

// Create inserts servers in one transaction. On success the IDs, UUIDs and
// timestamps of the submitted records are filled in.
func (s *ComputeServerService) Create(ctx context.Context, servers []*models.ComputeServer) *async.Future[bool] {
	const op = "compute_server.create"
	if err := checkServers(servers, false); err != nil {
		return reject[bool](&s.facade, op, err)
	}
	batch := make([]models.ComputeServer, len(servers))
	now := s.now()
	for i, server := range servers {
		batch[i] = *server
		if batch[i].UUID == "" {
			batch[i].UUID = uuid.NewString()
		}
		if batch[i].CreatedAt.IsZero() {
			batch[i].TouchOnCreate(now)
		}
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (bool, error) {
		if err := s.syncServers(ctx, op, batch, models.SyncOpInsert); err != nil {
			return false, err
		}
		for i := range batch {
			*servers[i] = batch[i]
		}
		klog.V(2).InfoS("Compute servers created", "count", len(batch))
		return true, nil
	})
}

// Save updates stored servers in one transaction. A server that does not
// exist fails the whole batch.
func (s *ComputeServerService) Save(ctx context.Context, servers []*models.ComputeServer) *async.Future[bool] {
	const op = "compute_server.save"
	if err := checkServers(servers, true); err != nil {
		return reject[bool](&s.facade, op, err)
	}
	batch := make([]models.ComputeServer, len(servers))
	now := s.now()
	for i, server := range servers {
		batch[i] = *server
		batch[i].UpdatedAt = now
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (bool, error) {
		if err := s.syncServers(ctx, op, batch, models.SyncOpUpdate); err != nil {
			return false, err
		}
		for i := range batch {
			servers[i].UpdatedAt = batch[i].UpdatedAt
		}
		return true, nil
	})
}

// syncServers writes batch one record at a time so a failure names its entry
func (s *ComputeServerService) syncServers(ctx context.Context, op string, batch []models.ComputeServer, syncOp models.SyncOp) error {
	failures := &BatchError{Op: op}
	err := s.write(ctx, func(w ports.Writer, _ ports.Reader) error {
		for i := range batch {
			one := batch[i : i+1]
			if err := w.SyncComputeServers(ctx, one, ports.EmptyScope{}, ports.WithSyncOp(syncOp)); err != nil {
				failures.add(i, batch[i].ID, batch[i].ExternalID, err)
				return failures
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		return batchErr
	}
	failures.add(-1, 0, "", err)
	return failures
}

func checkServers(servers []*models.ComputeServer, stored bool) error {
	for i, server := range servers {
		switch {
		case server == nil:
			return invalidArgument("server %d is nil", i)
		case stored && server.ID <= 0:
			return invalidArgument("server %d has no id", i)
		case !stored && server.ID < 0:
			return invalidArgument("server %d has negative id %d", i, server.ID)
		case server.CloudID <= 0:
			return invalidArgument("server %d has no cloud id", i)
		case server.PowerState != "" && !server.PowerState.IsValid():
			return invalidArgument("server %d has unknown power state %q", i, server.PowerState)
		}
	}
	return nil
}

// Remove deletes the servers named by projections. Removing a server twice
// succeeds both times.
func (s *ComputeServerService) Remove(ctx context.Context, projections []models.ComputeServerIdentityProjection) *async.Future[bool] {
	const op = "compute_server.remove"
	ids := sets.New[int64]()
	for i, p := range projections {
		if p.ID <= 0 {
			return reject[bool](&s.facade, op, invalidArgument("projection %d has no id", i))
		}
		ids.Insert(p.ID)
	}
	if ids.Len() == 0 {
		return async.Resolved(true)
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (bool, error) {
		err := s.write(ctx, func(w ports.Writer, _ ports.Reader) error {
			return w.DeleteComputeServersByIDs(ctx, sets.List(ids))
		})
		if err != nil {
			return false, errors.Wrap(err, "failed to remove compute servers")
		}
		return true, nil
	})
}

// UpdatePowerState stores state on the server and moves the containers
// placed on it to the matching status. An unknown server is a no-op.
func (s *ComputeServerService) UpdatePowerState(ctx context.Context, id int64, state models.PowerState) *async.Future[struct{}] {
	const op = "compute_server.update_power_state"
	if id <= 0 {
		return reject[struct{}](&s.facade, op, invalidArgument("server id %d", id))
	}
	if !state.IsValid() {
		return reject[struct{}](&s.facade, op, invalidArgument("power state %q", state))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.write(ctx, func(w ports.Writer, r ports.Reader) error {
			return s.updatePowerState(ctx, w, r, id, state)
		})
	})
}

func (s *ComputeServerService) updatePowerState(ctx context.Context, w ports.Writer, r ports.Reader, id int64, state models.PowerState) error {
	server, err := orNil(r.GetComputeServerByID(ctx, id))
	if err != nil {
		return errors.Wrap(err, "failed to get compute server")
	}
	if server == nil {
		klog.V(2).InfoS("Power state update for unknown server ignored", "serverID", id)
		return nil
	}
	server.PowerState = state
	server.UpdatedAt = s.now()
	if err := w.SyncComputeServers(ctx, []models.ComputeServer{*server}, ports.EmptyScope{},
		ports.WithSyncOp(models.SyncOpUpdate)); err != nil {
		return errors.Wrap(err, "failed to update compute server")
	}

	containers, err := collect(func(consume func(models.Container) error) error {
		return r.ListContainers(ctx, consume, ports.ServerScope{ServerID: id})
	})
	if err != nil {
		return errors.Wrap(err, "failed to list containers")
	}
	if len(containers) == 0 {
		return nil
	}
	status := state.ContainerStatus()
	for i := range containers {
		containers[i].Status = status
	}
	if err := w.SyncContainers(ctx, containers, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpUpdate)); err != nil {
		return errors.Wrap(err, "failed to update containers")
	}
	return nil
}
