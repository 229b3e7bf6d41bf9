package tablestore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-memory Store used by tests and local
// development. Entities are copied on the way in and out so callers can never
// alias internal state.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]*Entity
	now    func() time.Time
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string]map[string]map[string]*Entity),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Get(ctx context.Context, table, partitionKey, rowKey string) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, ok := s.lookup(table, partitionKey, rowKey)
	if !ok {
		return nil, ErrNotFound
	}
	return copyEntity(entity), nil
}

func (s *MemoryStore) Insert(ctx context.Context, table string, entity *Entity) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(table, entity.PartitionKey, entity.RowKey); ok {
		return nil, ErrAlreadyExists
	}
	now := s.now()
	stored := copyEntity(entity)
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.put(table, stored)
	return copyEntity(stored), nil
}

func (s *MemoryStore) Upsert(ctx context.Context, table string, entity *Entity) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := copyEntity(entity)
	if existing, ok := s.lookup(table, entity.PartitionKey, entity.RowKey); ok {
		stored.Version = existing.Version + 1
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.Version = 1
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.put(table, stored)
	return copyEntity(stored), nil
}

func (s *MemoryStore) UpdateIfMatch(ctx context.Context, table string, entity *Entity, expectedVersion int64) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lookup(table, entity.PartitionKey, entity.RowKey)
	if !ok {
		return nil, ErrNotFound
	}
	if existing.Version != expectedVersion {
		return nil, ErrPreconditionFailed
	}
	stored := copyEntity(entity)
	stored.Version = existing.Version + 1
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = s.now()
	s.put(table, stored)
	return copyEntity(stored), nil
}

func (s *MemoryStore) Delete(ctx context.Context, table, partitionKey, rowKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	partitions, ok := s.tables[table]
	if !ok {
		return ErrNotFound
	}
	rows, ok := partitions[partitionKey]
	if !ok {
		return ErrNotFound
	}
	if _, ok := rows[rowKey]; !ok {
		return ErrNotFound
	}
	delete(rows, rowKey)
	return nil
}

func (s *MemoryStore) QueryByPartition(ctx context.Context, table, partitionKey string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.tables[table][partitionKey]
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entity, 0, len(keys))
	for _, k := range keys {
		out = append(out, *copyEntity(rows[k]))
	}
	return out, nil
}

func (s *MemoryStore) QueryAcrossPartitions(ctx context.Context, table string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	partitions := s.tables[table]
	pks := make([]string, 0, len(partitions))
	for pk := range partitions {
		pks = append(pks, pk)
	}
	sort.Strings(pks)

	out := make([]Entity, 0)
	for _, pk := range pks {
		rows := partitions[pk]
		rks := make([]string, 0, len(rows))
		for rk := range rows {
			rks = append(rks, rk)
		}
		sort.Strings(rks)
		for _, rk := range rks {
			out = append(out, *copyEntity(rows[rk]))
		}
	}
	return out, nil
}

func (s *MemoryStore) lookup(table, partitionKey, rowKey string) (*Entity, bool) {
	partitions, ok := s.tables[table]
	if !ok {
		return nil, false
	}
	rows, ok := partitions[partitionKey]
	if !ok {
		return nil, false
	}
	entity, ok := rows[rowKey]
	return entity, ok
}

func (s *MemoryStore) put(table string, entity *Entity) {
	partitions, ok := s.tables[table]
	if !ok {
		partitions = make(map[string]map[string]*Entity)
		s.tables[table] = partitions
	}
	rows, ok := partitions[entity.PartitionKey]
	if !ok {
		rows = make(map[string]*Entity)
		partitions[entity.PartitionKey] = rows
	}
	rows[entity.RowKey] = entity
}

func copyEntity(e *Entity) *Entity {
	clone := *e
	if e.Data != nil {
		clone.Data = append([]byte(nil), e.Data...)
	}
	return &clone
}
