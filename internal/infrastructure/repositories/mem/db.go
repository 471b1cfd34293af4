package mem

import (
	"sync"
	"sync/atomic"

	"cloudsync-pg-backend/internal/domain/models"
)

// MemDB in-memory database. Every table is keyed by primary id.
type MemDB struct {
	clouds         map[int64]models.Cloud
	computeServers map[int64]models.ComputeServer
	instances      map[int64]models.Instance
	containers     map[int64]models.Container
	referenceData  map[int64]models.ReferenceData
	resourcePools  map[int64]models.ResourcePool
	keyPairs       map[int64]models.KeyPair
	syncStatus     models.SyncStatus
	seq            atomic.Int64
	mu             sync.RWMutex
}

// NewMemDB creates a new in-memory database
func NewMemDB() *MemDB {
	return &MemDB{
		clouds:         make(map[int64]models.Cloud),
		computeServers: make(map[int64]models.ComputeServer),
		instances:      make(map[int64]models.Instance),
		containers:     make(map[int64]models.Container),
		referenceData:  make(map[int64]models.ReferenceData),
		resourcePools:  make(map[int64]models.ResourcePool),
		keyPairs:       make(map[int64]models.KeyPair),
	}
}

// nextID hands out ids the way a database sequence does: aborted writers leave gaps
func (db *MemDB) nextID() int64 {
	return db.seq.Add(1)
}

// observeID keeps the sequence ahead of ids assigned by callers
func (db *MemDB) observeID(id int64) {
	for {
		cur := db.seq.Load()
		if id <= cur || db.seq.CompareAndSwap(cur, id) {
			return
		}
	}
}

// GetSyncStatus returns the sync status
func (db *MemDB) GetSyncStatus() models.SyncStatus {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.syncStatus
}

var (
	cloudTable = table[models.Cloud]{
		kind:   "cloud",
		rows:   func(db *MemDB) map[int64]models.Cloud { return db.clouds },
		id:     func(c *models.Cloud) *int64 { return &c.ID },
		fields: func(c *models.Cloud) rowFields { return rowFields{id: c.ID, cloudID: &c.ID, accountID: &c.AccountID} },
	}
	computeServerTable = table[models.ComputeServer]{
		kind: "compute server",
		rows: func(db *MemDB) map[int64]models.ComputeServer { return db.computeServers },
		id:   func(s *models.ComputeServer) *int64 { return &s.ID },
		fields: func(s *models.ComputeServer) rowFields {
			return rowFields{id: s.ID, cloudID: &s.CloudID, accountID: &s.AccountID, externalID: &s.ExternalID}
		},
	}
	instanceTable = table[models.Instance]{
		kind: "instance",
		rows: func(db *MemDB) map[int64]models.Instance { return db.instances },
		id:   func(i *models.Instance) *int64 { return &i.ID },
		fields: func(i *models.Instance) rowFields {
			return rowFields{id: i.ID, cloudID: &i.CloudID, accountID: &i.AccountID}
		},
	}
	containerTable = table[models.Container]{
		kind: "container",
		rows: func(db *MemDB) map[int64]models.Container { return db.containers },
		id:   func(c *models.Container) *int64 { return &c.ID },
		fields: func(c *models.Container) rowFields {
			return rowFields{id: c.ID, serverID: &c.ServerID, instanceID: &c.InstanceID}
		},
	}
	referenceDataTable = table[models.ReferenceData]{
		kind: "reference data",
		rows: func(db *MemDB) map[int64]models.ReferenceData { return db.referenceData },
		id:   func(r *models.ReferenceData) *int64 { return &r.ID },
		fields: func(r *models.ReferenceData) rowFields {
			return rowFields{id: r.ID, cloudID: &r.CloudID, accountID: &r.AccountID, category: &r.Category, externalID: &r.ExternalID}
		},
		naturalKey: func(r *models.ReferenceData) (any, bool) {
			return r.NamespaceKey(), r.ExternalID != ""
		},
	}
	resourcePoolTable = table[models.ResourcePool]{
		kind: "resource pool",
		rows: func(db *MemDB) map[int64]models.ResourcePool { return db.resourcePools },
		id:   func(p *models.ResourcePool) *int64 { return &p.ID },
		fields: func(p *models.ResourcePool) rowFields {
			return rowFields{id: p.ID, cloudID: &p.CloudID, category: &p.Category, externalID: &p.ExternalID}
		},
		naturalKey: func(p *models.ResourcePool) (any, bool) {
			return models.ReferenceDataKey{CloudID: p.CloudID, Category: p.Category, ExternalID: p.ExternalID}, p.ExternalID != ""
		},
	}
	keyPairTable = table[models.KeyPair]{
		kind: "key pair",
		rows: func(db *MemDB) map[int64]models.KeyPair { return db.keyPairs },
		id:   func(k *models.KeyPair) *int64 { return &k.ID },
		fields: func(k *models.KeyPair) rowFields {
			return rowFields{id: k.ID, cloudID: &k.CloudID, accountID: &k.AccountID, externalID: &k.ExternalID}
		},
	}
)
