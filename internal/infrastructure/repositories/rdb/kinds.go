package rdb

import (
	"cloudsync-pg-backend/internal/domain/models"
)

// kind maps one domain entity onto its record
type kind[M any, R any] struct {
	name     string
	toRecord func(*M) *R
	toModel  func(*R) M
	id       func(*M) *int64
	recordID func(*R) *int64
	columns  scopeColumns
	// naturalKey returns the where conditions of the unique provider-side key
	naturalKey func(*M) (map[string]any, bool)
}

var (
	clouds = kind[models.Cloud, CloudRecord]{
		name:     "cloud",
		toRecord: cloudToRecord,
		toModel:  cloudToModel,
		id:       func(m *models.Cloud) *int64 { return &m.ID },
		recordID: func(r *CloudRecord) *int64 { return &r.ID },
		columns:  scopeColumns{cloud: "id", account: "account_id"},
	}
	computeServers = kind[models.ComputeServer, ComputeServerRecord]{
		name:     "compute server",
		toRecord: computeServerToRecord,
		toModel:  computeServerToModel,
		id:       func(m *models.ComputeServer) *int64 { return &m.ID },
		recordID: func(r *ComputeServerRecord) *int64 { return &r.ID },
		columns:  scopeColumns{cloud: "cloud_id", account: "account_id", externalID: "external_id"},
	}
	instances = kind[models.Instance, InstanceRecord]{
		name:     "instance",
		toRecord: instanceToRecord,
		toModel:  instanceToModel,
		id:       func(m *models.Instance) *int64 { return &m.ID },
		recordID: func(r *InstanceRecord) *int64 { return &r.ID },
		columns:  scopeColumns{cloud: "cloud_id", account: "account_id"},
	}
	containers = kind[models.Container, ContainerRecord]{
		name:     "container",
		toRecord: containerToRecord,
		toModel:  containerToModel,
		id:       func(m *models.Container) *int64 { return &m.ID },
		recordID: func(r *ContainerRecord) *int64 { return &r.ID },
		columns:  scopeColumns{server: "server_id", instance: "instance_id"},
	}
	referenceData = kind[models.ReferenceData, ReferenceDataRecord]{
		name:     "reference data",
		toRecord: referenceDataToRecord,
		toModel:  referenceDataToModel,
		id:       func(m *models.ReferenceData) *int64 { return &m.ID },
		recordID: func(r *ReferenceDataRecord) *int64 { return &r.ID },
		columns: scopeColumns{cloud: "cloud_id", account: "account_id", category: "category",
			externalID: "external_id"},
		naturalKey: func(m *models.ReferenceData) (map[string]any, bool) {
			return map[string]any{"cloud_id": m.CloudID, "category": m.Category, "external_id": m.ExternalID}, m.ExternalID != ""
		},
	}
	resourcePools = kind[models.ResourcePool, ResourcePoolRecord]{
		name:     "resource pool",
		toRecord: resourcePoolToRecord,
		toModel:  resourcePoolToModel,
		id:       func(m *models.ResourcePool) *int64 { return &m.ID },
		recordID: func(r *ResourcePoolRecord) *int64 { return &r.ID },
		columns:  scopeColumns{cloud: "cloud_id", category: "category", externalID: "external_id"},
		naturalKey: func(m *models.ResourcePool) (map[string]any, bool) {
			return map[string]any{"cloud_id": m.CloudID, "category": m.Category, "external_id": m.ExternalID}, m.ExternalID != ""
		},
	}
	keyPairs = kind[models.KeyPair, KeyPairRecord]{
		name:     "key pair",
		toRecord: keyPairToRecord,
		toModel:  keyPairToModel,
		id:       func(m *models.KeyPair) *int64 { return &m.ID },
		recordID: func(r *KeyPairRecord) *int64 { return &r.ID },
		columns:  scopeColumns{cloud: "cloud_id", account: "account_id", externalID: "external_id"},
	}
)
