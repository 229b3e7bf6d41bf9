package tablestore

import (
	"context"
	"time"
)

// Observer receives one callback per store operation.
type Observer interface {
	ObserveStoreOp(op, table string, duration time.Duration, err error)
}

// Instrument decorates a Store with per-operation observations. A nil
// observer returns the store unchanged.
func Instrument(next Store, obs Observer) Store {
	if obs == nil {
		return next
	}
	return &instrumentedStore{next: next, obs: obs}
}

type instrumentedStore struct {
	next Store
	obs  Observer
}

func (s *instrumentedStore) Get(ctx context.Context, table, partitionKey, rowKey string) (*Entity, error) {
	start := time.Now()
	entity, err := s.next.Get(ctx, table, partitionKey, rowKey)
	s.obs.ObserveStoreOp("get", table, time.Since(start), err)
	return entity, err
}

func (s *instrumentedStore) Insert(ctx context.Context, table string, entity *Entity) (*Entity, error) {
	start := time.Now()
	stored, err := s.next.Insert(ctx, table, entity)
	s.obs.ObserveStoreOp("insert", table, time.Since(start), err)
	return stored, err
}

func (s *instrumentedStore) Upsert(ctx context.Context, table string, entity *Entity) (*Entity, error) {
	start := time.Now()
	stored, err := s.next.Upsert(ctx, table, entity)
	s.obs.ObserveStoreOp("upsert", table, time.Since(start), err)
	return stored, err
}

func (s *instrumentedStore) UpdateIfMatch(ctx context.Context, table string, entity *Entity, expectedVersion int64) (*Entity, error) {
	start := time.Now()
	stored, err := s.next.UpdateIfMatch(ctx, table, entity, expectedVersion)
	s.obs.ObserveStoreOp("update_if_match", table, time.Since(start), err)
	return stored, err
}

func (s *instrumentedStore) Delete(ctx context.Context, table, partitionKey, rowKey string) error {
	start := time.Now()
	err := s.next.Delete(ctx, table, partitionKey, rowKey)
	s.obs.ObserveStoreOp("delete", table, time.Since(start), err)
	return err
}

func (s *instrumentedStore) QueryByPartition(ctx context.Context, table, partitionKey string) ([]Entity, error) {
	start := time.Now()
	entities, err := s.next.QueryByPartition(ctx, table, partitionKey)
	s.obs.ObserveStoreOp("query_partition", table, time.Since(start), err)
	return entities, err
}

func (s *instrumentedStore) QueryAcrossPartitions(ctx context.Context, table string) ([]Entity, error) {
	start := time.Now()
	entities, err := s.next.QueryAcrossPartitions(ctx, table)
	s.obs.ObserveStoreOp("query_scan", table, time.Since(start), err)
	return entities, err
}
