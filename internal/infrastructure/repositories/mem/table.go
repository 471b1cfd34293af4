package mem

import (
	"slices"

	"github.com/pkg/errors"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/domain/ports"
)

// table describes how one entity kind is stored in MemDB
type table[T any] struct {
	kind   string
	rows   func(db *MemDB) map[int64]T
	id     func(*T) *int64
	fields func(*T) rowFields
	// naturalKey is set for kinds with a unique provider-side key
	naturalKey func(*T) (any, bool)
}

// changeSet is what a writer buffered for one table
type changeSet[T any] struct {
	upserts map[int64]T
	deletes map[int64]struct{}
	// ids that must be absent (insert) or present (update) at commit
	mustBeNew map[int64]struct{}
	mustExist map[int64]struct{}
}

func newChangeSet[T any]() *changeSet[T] {
	return &changeSet[T]{
		upserts:   make(map[int64]T),
		deletes:   make(map[int64]struct{}),
		mustBeNew: make(map[int64]struct{}),
		mustExist: make(map[int64]struct{}),
	}
}

func (cs *changeSet[T]) empty() bool {
	return cs == nil || (len(cs.upserts) == 0 && len(cs.deletes) == 0)
}

func (cs *changeSet[T]) size() int {
	if cs == nil {
		return 0
	}
	return len(cs.upserts) + len(cs.deletes)
}

// view returns base with the change set applied. base is not modified.
func (t table[T]) view(base map[int64]T, cs *changeSet[T]) map[int64]T {
	out := make(map[int64]T, len(base))
	for k, v := range base {
		out[k] = v
	}
	if cs == nil {
		return out
	}
	for id := range cs.deletes {
		delete(out, id)
	}
	for id, v := range cs.upserts {
		out[id] = v
	}
	return out
}

func (t table[T]) keyIndex(rows map[int64]T) map[any]int64 {
	if t.naturalKey == nil {
		return nil
	}
	idx := make(map[any]int64, len(rows))
	for id, row := range rows {
		if k, ok := t.naturalKey(&row); ok {
			idx[k] = id
		}
	}
	return idx
}

// stage validates items against current and records them in cs.
// Ids are assigned into items in place.
func (t table[T]) stage(db *MemDB, current map[int64]T, cs *changeSet[T], items []T, op models.SyncOp) error {
	idx := t.keyIndex(current)
	for i := range items {
		item := &items[i]
		id := *t.id(item)

		var key any
		var owner int64
		var taken bool
		if t.naturalKey != nil {
			var ok bool
			if key, ok = t.naturalKey(item); ok {
				owner, taken = idx[key]
			} else {
				key = nil
			}
		}

		switch op {
		case models.SyncOpInsert:
			if _, exists := current[id]; id != 0 && exists {
				return errors.Wrapf(ports.ErrAlreadyExists, "%s id %d", t.kind, id)
			}
			if taken {
				return errors.Wrapf(ports.ErrAlreadyExists, "%s %v", t.kind, key)
			}
		case models.SyncOpUpdate:
			if id == 0 && taken {
				id = owner
			}
			if _, exists := current[id]; id == 0 || !exists {
				return errors.Wrapf(ports.ErrNotFound, "%s id %d", t.kind, id)
			}
		default:
			if id == 0 && taken {
				id = owner
			}
		}
		if taken && owner != id {
			return errors.Wrapf(ports.ErrAlreadyExists, "%s %v is held by id %d", t.kind, key, owner)
		}

		if id == 0 {
			id = db.nextID()
		} else {
			db.observeID(id)
		}
		*t.id(item) = id

		if prev, exists := current[id]; exists && t.naturalKey != nil {
			if k, ok := t.naturalKey(&prev); ok {
				delete(idx, k)
			}
		}
		if key != nil {
			idx[key] = id
		}

		switch op {
		case models.SyncOpInsert:
			cs.mustBeNew[id] = struct{}{}
		case models.SyncOpUpdate:
			if _, fresh := cs.mustBeNew[id]; !fresh {
				cs.mustExist[id] = struct{}{}
			}
		}
		delete(cs.deletes, id)
		cs.upserts[id] = *item
		current[id] = *item
	}
	return nil
}

func (t table[T]) remove(current map[int64]T, cs *changeSet[T], ids []int64) {
	for _, id := range ids {
		delete(cs.upserts, id)
		delete(cs.mustBeNew, id)
		delete(cs.mustExist, id)
		delete(current, id)
		cs.deletes[id] = struct{}{}
	}
}

// check re-validates cs against the committed rows. Called with db.mu held.
func (t table[T]) check(db *MemDB, cs *changeSet[T]) error {
	if cs.empty() {
		return nil
	}
	rows := t.rows(db)
	for id := range cs.mustBeNew {
		if _, ok := rows[id]; ok {
			return errors.Wrapf(ports.ErrAlreadyExists, "%s id %d", t.kind, id)
		}
	}
	for id := range cs.mustExist {
		if _, ok := rows[id]; !ok {
			return errors.Wrapf(ports.ErrNotFound, "%s id %d", t.kind, id)
		}
	}
	if t.naturalKey == nil {
		return nil
	}
	merged := t.view(rows, cs)
	seen := make(map[any]int64, len(merged))
	for id, row := range merged {
		k, ok := t.naturalKey(&row)
		if !ok {
			continue
		}
		if other, dup := seen[k]; dup {
			return errors.Wrapf(ports.ErrAlreadyExists, "%s %v is held by ids %d and %d", t.kind, k, other, id)
		}
		seen[k] = id
	}
	return nil
}

// apply writes cs into the committed rows. Called with db.mu held.
func (t table[T]) apply(db *MemDB, cs *changeSet[T]) {
	if cs.empty() {
		return
	}
	rows := t.rows(db)
	for id := range cs.deletes {
		delete(rows, id)
	}
	for id, v := range cs.upserts {
		rows[id] = v
	}
}

// scan streams the rows matching scope in id order
func (t table[T]) scan(rows map[int64]T, scope ports.Scope, consume func(T) error) error {
	ids := make([]int64, 0, len(rows))
	for id, row := range rows {
		ok, err := matchScope(t.kind, t.fields(&row), scope)
		if err != nil {
			return err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := consume(rows[id]); err != nil {
			return err
		}
	}
	return nil
}
