package services

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

var _ CloudContext = (*CloudService)(nil)

// ErrCloudServiceClosed is returned for buffered saves after Close
var ErrCloudServiceClosed = errors.New("cloud service is closed")

// BufferConfig tunes the write-behind buffer of reference data
type BufferConfig struct {
	// FlushInterval is the period of background flushes; zero disables them
	FlushInterval time.Duration `yaml:"flush-interval" env:"CLOUDSYNC_REFDATA_FLUSH_INTERVAL" env-default:"2s"`
	// MaxBuffered triggers a flush once this many entries wait
	MaxBuffered int `yaml:"max-buffered" env:"CLOUDSYNC_REFDATA_MAX_BUFFERED" env-default:"500"`
}

// DefaultBufferConfig flushes every two seconds or at 500 entries
func DefaultBufferConfig() BufferConfig {
	return BufferConfig{FlushInterval: 2 * time.Second, MaxBuffered: 500}
}

// CloudServiceOption customizes a CloudService
type CloudServiceOption func(*CloudService)

// WithClock replaces the clock driving background flushes
func WithClock(clk clock.WithTicker) CloudServiceOption {
	return func(s *CloudService) { s.clock = clk }
}

// WithKeyGenerator replaces the key pair generator
func WithKeyGenerator(gen ports.KeyGenerator) CloudServiceOption {
	return func(s *CloudService) { s.keys = gen }
}

// WithFlushErrorHandler registers a callback for entries a flush dropped
func WithFlushErrorHandler(fn FlushErrorHandler) CloudServiceOption {
	return func(s *CloudService) { s.onFlushError = fn }
}

// CloudService implements CloudContext on a ports.Registry
type CloudService struct {
	facade
	servers  *ComputeServerService
	buffer   *referenceDataBuffer
	clock    clock.WithTicker
	keys     ports.KeyGenerator
	keyCalls singleflight.Group
	closed   atomic.Bool

	onFlushError FlushErrorHandler
}

// NewCloudService creates a CloudService and starts its flusher. servers
// serves the power state updates; keys may be nil when key pairs are
// never generated.
func NewCloudService(registry ports.Registry, executor *async.Executor, servers *ComputeServerService,
	buffer BufferConfig, metrics *Metrics, opts ...CloudServiceOption) *CloudService {
	s := &CloudService{
		facade:  facade{registry: registry, executor: executor, metrics: metrics},
		servers: servers,
		clock:   clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.buffer = newReferenceDataBuffer(buffer, s.clock, metrics, s.onFlushError, s.storeReferenceData)
	return s
}

// Flush commits the buffered reference data
func (s *CloudService) Flush(ctx context.Context) error {
	return s.buffer.flush(ctx)
}

// BufferStats reports the state of the write-behind buffer
func (s *CloudService) BufferStats() BufferStats {
	return s.buffer.snapshot()
}

// Close stops background flushing and flushes what is still buffered
func (s *CloudService) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.buffer.close(ctx)
}

func (s *CloudService) storeReferenceData(ctx context.Context, entries []models.ReferenceData) error {
	return s.write(ctx, func(w ports.Writer, _ ports.Reader) error {
		return w.SyncReferenceData(ctx, entries, ports.EmptyScope{})
	})
}

// scopedEntry copies entry into the namespace named by opts. A copy moved to
// another namespace is a new record there.
func scopedEntry(entry models.ReferenceData, opts SaveOptions) (models.ReferenceData, error) {
	out := entry
	if opts.CloudID != 0 {
		out.CloudID = opts.CloudID
	}
	if opts.Category != "" {
		out.Category = opts.Category
	}
	if out.NamespaceKey() != entry.NamespaceKey() {
		out.ID = 0
	}
	switch {
	case out.CloudID <= 0:
		return out, invalidArgument("reference data %q has no cloud id", out.ExternalID)
	case out.Category == "":
		return out, invalidArgument("reference data %q has no category", out.ExternalID)
	case out.ExternalID == "":
		return out, invalidArgument("reference data in %d/%s has no external id", out.CloudID, out.Category)
	case out.ID < 0:
		return out, invalidArgument("reference data %q has negative id", out.ExternalID)
	}
	return out, nil
}

// SaveReferenceData upserts a copy of entry into the namespace selected by
// opts. Without Flush the copy is buffered and the future resolves once it
// is accepted; the returned entry then has no ID yet.
func (s *CloudService) SaveReferenceData(ctx context.Context, entry *models.ReferenceData, opts SaveOptions) *async.Future[*models.ReferenceData] {
	const op = "reference_data.save"
	if entry == nil {
		return reject[*models.ReferenceData](&s.facade, op, invalidArgument("reference data is nil"))
	}
	scoped, err := scopedEntry(*entry, opts)
	if err != nil {
		return reject[*models.ReferenceData](&s.facade, op, err)
	}
	now := s.clock.Now().UTC()
	if scoped.CreatedAt.IsZero() {
		scoped.CreatedAt = now
	}
	scoped.UpdatedAt = now

	if !opts.Flush {
		if !s.buffer.add(scoped) {
			return reject[*models.ReferenceData](&s.facade, op, ErrCloudServiceClosed)
		}
		s.metrics.observe(op+"_buffered", now, nil)
		return async.Resolved(&scoped)
	}

	key, mark := scoped.NamespaceKey(), s.buffer.mark()
	return submit(&s.facade, ctx, op, func(ctx context.Context) (*models.ReferenceData, error) {
		saved := []models.ReferenceData{scoped}
		err := s.buffer.supersede(mark, func(e models.ReferenceData) bool {
			return e.NamespaceKey() == key
		}, func() error {
			return s.write(ctx, func(w ports.Writer, _ ports.Reader) error {
				return w.SyncReferenceData(ctx, saved, ports.EmptyScope{})
			})
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to save reference data")
		}
		return &saved[0], nil
	})
}

// SaveAllReferenceData upserts entries in one transaction. The entries are
// not modified.
func (s *CloudService) SaveAllReferenceData(ctx context.Context, entries []models.ReferenceData, opts SaveOptions) *async.Future[bool] {
	const op = "reference_data.save_all"
	batch := make([]models.ReferenceData, 0, len(entries))
	keys := sets.New[models.ReferenceDataKey]()
	invalid := &BatchError{Op: op}
	now := s.clock.Now().UTC()
	for i, entry := range entries {
		scoped, err := scopedEntry(entry, opts)
		if err == nil && keys.Has(scoped.NamespaceKey()) {
			err = invalidArgument("reference data %q appears twice in %d/%s", scoped.ExternalID, scoped.CloudID, scoped.Category)
		}
		if err != nil {
			invalid.add(i, entry.ID, entry.ExternalID, err)
			continue
		}
		keys.Insert(scoped.NamespaceKey())
		if scoped.CreatedAt.IsZero() {
			scoped.CreatedAt = now
		}
		scoped.UpdatedAt = now
		batch = append(batch, scoped)
	}
	if len(invalid.Failures) > 0 {
		return reject[bool](&s.facade, op, invalid)
	}
	if len(batch) == 0 {
		return async.Resolved(true)
	}

	mark := s.buffer.mark()
	return submit(&s.facade, ctx, op, func(ctx context.Context) (bool, error) {
		failures := &BatchError{Op: op}
		err := s.buffer.supersede(mark, func(e models.ReferenceData) bool {
			return keys.Has(e.NamespaceKey())
		}, func() error {
			return s.write(ctx, func(w ports.Writer, _ ports.Reader) error {
				for i := range batch {
					if err := w.SyncReferenceData(ctx, batch[i:i+1], ports.EmptyScope{}); err != nil {
						failures.add(i, entries[i].ID, batch[i].ExternalID, err)
						return failures
					}
				}
				return nil
			})
		})
		if err != nil {
			if len(failures.Failures) == 0 {
				failures.add(-1, 0, "", err)
			}
			return false, failures
		}
		klog.V(2).InfoS("Reference data saved", "entries", len(batch))
		return true, nil
	})
}

// RemoveMissingReferenceData prunes ns down to keepExternalIDs
func (s *CloudService) RemoveMissingReferenceData(ctx context.Context, ns ReferenceDataNamespace, keepExternalIDs []string) *async.Future[bool] {
	const op = "reference_data.remove_missing"
	if ns.CloudID <= 0 || ns.Category == "" {
		return reject[bool](&s.facade, op, invalidArgument("namespace %d/%q", ns.CloudID, ns.Category))
	}
	keep := sets.New(keepExternalIDs...)
	mark := s.buffer.mark()
	stale := func(e models.ReferenceData) bool {
		return e.CloudID == ns.CloudID && e.Category == ns.Category && !keep.Has(e.ExternalID)
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (bool, error) {
		var removed int
		err := s.buffer.supersede(mark, stale, func() error {
			return s.prune(ctx, ns, keep, &removed)
		})
		if err != nil {
			return false, errors.Wrap(err, "failed to remove missing reference data")
		}
		klog.V(2).InfoS("Stale reference data removed", "cloudID", ns.CloudID, "category", ns.Category,
			"removed", removed, "kept", keep.Len())
		return true, nil
	})
}

func (s *CloudService) prune(ctx context.Context, ns ReferenceDataNamespace, keep sets.Set[string], removed *int) error {
	return s.write(ctx, func(w ports.Writer, r ports.Reader) error {
		var stale []int64
		err := r.ListReferenceDataProjections(ctx, func(p models.ReferenceDataSyncProjection) error {
			if !keep.Has(p.ExternalID) {
				stale = append(stale, p.ID)
			}
			return nil
		}, ports.CategoryScope{CloudID: ns.CloudID, Category: ns.Category})
		if err != nil {
			return errors.Wrap(err, "failed to list reference data")
		}
		*removed = len(stale)
		if *removed == 0 {
			return nil
		}
		return w.DeleteReferenceDataByIDs(ctx, stale)
	})
}

// ListReferenceDataByCategory streams the projections of one namespace
func (s *CloudService) ListReferenceDataByCategory(ctx context.Context, cloudID int64, category string) async.Stream[models.ReferenceDataSyncProjection] {
	if cloudID <= 0 || category == "" {
		return async.Error[models.ReferenceDataSyncProjection](invalidArgument("namespace %d/%q", cloudID, category))
	}
	return stream(&s.facade, ctx, func(r ports.Reader, consume func(models.ReferenceDataSyncProjection) error) error {
		return r.ListReferenceDataProjections(ctx, consume, ports.CategoryScope{CloudID: cloudID, Category: category})
	})
}

// FindReferenceDataByExternalID returns the entry with externalID or nil.
// When several namespaces hold externalID the entry with the lowest ID wins.
func (s *CloudService) FindReferenceDataByExternalID(ctx context.Context, externalID string) *async.Future[*models.ReferenceData] {
	const op = "reference_data.find_by_external_id"
	if externalID == "" {
		return reject[*models.ReferenceData](&s.facade, op, invalidArgument("external id is empty"))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (*models.ReferenceData, error) {
		var entry *models.ReferenceData
		err := s.read(ctx, func(r ports.Reader) (err error) {
			entry, err = first(func(consume func(models.ReferenceData) error) error {
				return r.ListReferenceData(ctx, consume, ports.NewExternalIDScope(externalID))
			})
			return err
		})
		return entry, err
	})
}

// ListReferenceDataByExternalIDs returns the entries matching any of externalIDs
func (s *CloudService) ListReferenceDataByExternalIDs(ctx context.Context, externalIDs []string) *async.Future[[]models.ReferenceData] {
	const op = "reference_data.list_by_external_ids"
	wanted := sets.New(externalIDs...)
	if wanted.Has("") {
		return reject[[]models.ReferenceData](&s.facade, op, invalidArgument("external id is empty"))
	}
	if wanted.Len() == 0 {
		return async.Resolved([]models.ReferenceData{})
	}
	return s.listReferenceData(ctx, op, ports.NewExternalIDScope(sets.List(wanted)...))
}

// FindReferenceDataByCategory returns the full entries of one namespace
func (s *CloudService) FindReferenceDataByCategory(ctx context.Context, cloudID int64, category string) *async.Future[[]models.ReferenceData] {
	const op = "reference_data.find_by_category"
	if cloudID <= 0 || category == "" {
		return reject[[]models.ReferenceData](&s.facade, op, invalidArgument("namespace %d/%q", cloudID, category))
	}
	return s.listReferenceData(ctx, op, ports.CategoryScope{CloudID: cloudID, Category: category})
}

func (s *CloudService) listReferenceData(ctx context.Context, op string, scope ports.Scope) *async.Future[[]models.ReferenceData] {
	return submit(&s.facade, ctx, op, func(ctx context.Context) ([]models.ReferenceData, error) {
		var entries []models.ReferenceData
		err := s.read(ctx, func(r ports.Reader) (err error) {
			entries, err = collect(func(consume func(models.ReferenceData) error) error {
				return r.ListReferenceData(ctx, consume, scope)
			})
			return err
		})
		return entries, err
	})
}

// UpdateZoneStatus records the sync status of a cloud. A zero syncDate keeps
// the previous one; an unknown cloud is a no-op.
func (s *CloudService) UpdateZoneStatus(ctx context.Context, cloudID int64, status models.CloudStatus, message string, syncDate time.Time) *async.Future[struct{}] {
	const op = "cloud.update_zone_status"
	if cloudID <= 0 {
		return reject[struct{}](&s.facade, op, invalidArgument("cloud id %d", cloudID))
	}
	if !status.IsValid() {
		return reject[struct{}](&s.facade, op, invalidArgument("cloud status %q", status))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.write(ctx, func(w ports.Writer, r ports.Reader) error {
			cloud, err := orNil(r.GetCloudByID(ctx, cloudID))
			if err != nil || cloud == nil {
				return err
			}
			cloud.Status = status
			cloud.StatusMessage = message
			if !syncDate.IsZero() {
				at := syncDate.UTC()
				cloud.LastSyncAt = &at
			}
			return w.SyncClouds(ctx, []models.Cloud{*cloud}, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpUpdate))
		})
	})
}

// GetCloudByID returns the cloud or nil
func (s *CloudService) GetCloudByID(ctx context.Context, id int64) *async.Future[*models.Cloud] {
	const op = "cloud.get"
	if id <= 0 {
		return reject[*models.Cloud](&s.facade, op, invalidArgument("cloud id %d", id))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (*models.Cloud, error) {
		var cloud *models.Cloud
		err := s.read(ctx, func(r ports.Reader) (err error) {
			cloud, err = orNil(r.GetCloudByID(ctx, id))
			return err
		})
		return cloud, err
	})
}

// GetContainerByID returns the container or nil
func (s *CloudService) GetContainerByID(ctx context.Context, id int64) *async.Future[*models.Container] {
	const op = "container.get"
	if id <= 0 {
		return reject[*models.Container](&s.facade, op, invalidArgument("container id %d", id))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (*models.Container, error) {
		var container *models.Container
		err := s.read(ctx, func(r ports.Reader) (err error) {
			container, err = orNil(r.GetContainerByID(ctx, id))
			return err
		})
		return container, err
	})
}

// FindOrGenerateKeyPair returns the first key pair of the account, generating
// and storing one when it has none. Concurrent calls for one account share
// a single lookup.
func (s *CloudService) FindOrGenerateKeyPair(ctx context.Context, accountID int64) *async.Future[*models.KeyPair] {
	const op = "key_pair.find_or_generate"
	if accountID <= 0 {
		return reject[*models.KeyPair](&s.facade, op, invalidArgument("account id %d", accountID))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (*models.KeyPair, error) {
		v, err, shared := s.keyCalls.Do(strconv.FormatInt(accountID, 10), func() (any, error) {
			return s.findOrGenerateKeyPair(ctx, accountID)
		})
		if err != nil {
			return nil, err
		}
		kp := *v.(*models.KeyPair)
		klog.V(4).InfoS("Key pair resolved", "accountID", accountID, "shared", shared)
		return &kp, nil
	})
}

func (s *CloudService) findOrGenerateKeyPair(ctx context.Context, accountID int64) (*models.KeyPair, error) {
	var found *models.KeyPair
	err := s.read(ctx, func(r ports.Reader) (err error) {
		found, err = first(func(consume func(models.KeyPair) error) error {
			return r.ListKeyPairs(ctx, consume, ports.AccountScope{AccountID: accountID})
		})
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up key pair")
	}
	if found != nil {
		return found, nil
	}
	if s.keys == nil {
		return nil, errors.New("no key generator configured")
	}

	kp, err := s.keys.GenerateKeyPair(fmt.Sprintf("cloudsync-account-%d", accountID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key pair")
	}
	kp.ID = 0
	kp.AccountID = accountID
	created := []models.KeyPair{*kp}
	err = s.write(ctx, func(w ports.Writer, _ ports.Reader) error {
		return w.SyncKeyPairs(ctx, created, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpInsert))
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to store key pair")
	}
	klog.InfoS("Generated key pair", "accountID", accountID, "fingerprint", created[0].PublicFingerprint)
	return &created[0], nil
}

// UpdateKeyPair stores the provider-side identity of keyPair for cloudID
func (s *CloudService) UpdateKeyPair(ctx context.Context, keyPair *models.KeyPair, cloudID int64) *async.Future[struct{}] {
	const op = "key_pair.update"
	switch {
	case keyPair == nil:
		return reject[struct{}](&s.facade, op, invalidArgument("key pair is nil"))
	case keyPair.ID <= 0:
		return reject[struct{}](&s.facade, op, invalidArgument("key pair has no id"))
	case cloudID < 0:
		return reject[struct{}](&s.facade, op, invalidArgument("cloud id %d", cloudID))
	}
	updated := *keyPair
	if cloudID > 0 {
		updated.CloudID = cloudID
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.write(ctx, func(w ports.Writer, _ ports.Reader) error {
			return w.SyncKeyPairs(ctx, []models.KeyPair{updated}, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpUpdate))
		})
	})
}

// SaveResourcePool upserts a copy of pool into (cloudID, category). Zero
// arguments keep the values carried by pool.
func (s *CloudService) SaveResourcePool(ctx context.Context, pool *models.ResourcePool, cloudID int64, category string) *async.Future[*models.ResourcePool] {
	const op = "resource_pool.save"
	if pool == nil {
		return reject[*models.ResourcePool](&s.facade, op, invalidArgument("resource pool is nil"))
	}
	saved := *pool
	if cloudID != 0 {
		saved.CloudID = cloudID
	}
	if category != "" {
		saved.Category = category
	}
	switch {
	case saved.CloudID <= 0:
		return reject[*models.ResourcePool](&s.facade, op, invalidArgument("resource pool %q has no cloud id", saved.ExternalID))
	case saved.Category == "":
		return reject[*models.ResourcePool](&s.facade, op, invalidArgument("resource pool %q has no category", saved.ExternalID))
	case saved.ExternalID == "":
		return reject[*models.ResourcePool](&s.facade, op, invalidArgument("resource pool has no external id"))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (*models.ResourcePool, error) {
		batch := []models.ResourcePool{saved}
		err := s.write(ctx, func(w ports.Writer, _ ports.Reader) error {
			return w.SyncResourcePools(ctx, batch, ports.EmptyScope{})
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to save resource pool")
		}
		return &batch[0], nil
	})
}

// ReadResourcePools returns the resource pools of (cloudID, category)
func (s *CloudService) ReadResourcePools(ctx context.Context, cloudID int64, category string) *async.Future[[]models.ResourcePool] {
	const op = "resource_pool.read"
	if cloudID <= 0 || category == "" {
		return reject[[]models.ResourcePool](&s.facade, op, invalidArgument("namespace %d/%q", cloudID, category))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) ([]models.ResourcePool, error) {
		var pools []models.ResourcePool
		err := s.read(ctx, func(r ports.Reader) (err error) {
			pools, err = collect(func(consume func(models.ResourcePool) error) error {
				return r.ListResourcePools(ctx, consume, ports.CategoryScope{CloudID: cloudID, Category: category})
			})
			return err
		})
		return pools, err
	})
}

// UpdatePowerState delegates to the compute server context
func (s *CloudService) UpdatePowerState(ctx context.Context, serverID int64, state models.PowerState) *async.Future[struct{}] {
	return s.servers.UpdatePowerState(ctx, serverID, state)
}

// UpdateInstanceStatus sets status on the instances with ids. Unknown ids
// are skipped.
func (s *CloudService) UpdateInstanceStatus(ctx context.Context, ids []int64, status models.InstanceStatus) *async.Future[struct{}] {
	const op = "instance.update_status"
	if !status.IsValid() {
		return reject[struct{}](&s.facade, op, invalidArgument("instance status %q", status))
	}
	wanted := sets.New(ids...)
	if wanted.Len() == 0 {
		return async.Resolved(struct{}{})
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.write(ctx, func(w ports.Writer, r ports.Reader) error {
			instances, err := collect(func(consume func(models.Instance) error) error {
				return r.ListInstances(ctx, consume, ports.NewIDScope(sets.List(wanted)...))
			})
			if err != nil || len(instances) == 0 {
				return err
			}
			for i := range instances {
				instances[i].Status = status
			}
			return w.SyncInstances(ctx, instances, ports.EmptyScope{}, ports.WithSyncOp(models.SyncOpUpdate))
		})
	})
}

// GetStoppedContainerInstanceIDs returns the ids of the stopped containers
// that belong to the same instance as containerID
func (s *CloudService) GetStoppedContainerInstanceIDs(ctx context.Context, containerID int64) *async.Future[[]int64] {
	const op = "container.stopped_in_instance"
	if containerID <= 0 {
		return reject[[]int64](&s.facade, op, invalidArgument("container id %d", containerID))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) ([]int64, error) {
		ids := []int64{}
		err := s.read(ctx, func(r ports.Reader) error {
			container, err := orNil(r.GetContainerByID(ctx, containerID))
			if err != nil || container == nil {
				return err
			}
			return r.ListContainers(ctx, func(c models.Container) error {
				if c.Status == models.ContainerStatusStopped {
					ids = append(ids, c.ID)
				}
				return nil
			}, ports.InstanceScope{InstanceID: container.InstanceID})
		})
		return ids, err
	})
}

// GetContainer returns the first container placed on server or nil
func (s *CloudService) GetContainer(ctx context.Context, server *models.ComputeServer) *async.Future[*models.Container] {
	const op = "container.get_by_server"
	if server == nil || server.ID <= 0 {
		return reject[*models.Container](&s.facade, op, invalidArgument("server without id"))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (*models.Container, error) {
		var container *models.Container
		err := s.read(ctx, func(r ports.Reader) (err error) {
			container, err = s.containerOn(ctx, r, server.ID)
			return err
		})
		return container, err
	})
}

// GetInstance returns the instance of the first container placed on server or nil
func (s *CloudService) GetInstance(ctx context.Context, server *models.ComputeServer) *async.Future[*models.Instance] {
	const op = "instance.get_by_server"
	if server == nil || server.ID <= 0 {
		return reject[*models.Instance](&s.facade, op, invalidArgument("server without id"))
	}
	return submit(&s.facade, ctx, op, func(ctx context.Context) (*models.Instance, error) {
		var instance *models.Instance
		err := s.read(ctx, func(r ports.Reader) error {
			container, err := s.containerOn(ctx, r, server.ID)
			if err != nil || container == nil {
				return err
			}
			instance, err = orNil(r.GetInstanceByID(ctx, container.InstanceID))
			return err
		})
		return instance, err
	})
}

func (s *CloudService) containerOn(ctx context.Context, r ports.Reader, serverID int64) (*models.Container, error) {
	return first(func(consume func(models.Container) error) error {
		return r.ListContainers(ctx, consume, ports.ServerScope{ServerID: serverID})
	})
}
