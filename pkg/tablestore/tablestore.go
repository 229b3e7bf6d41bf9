package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Entity is the stored row envelope. Data carries the JSON document; callers
// own its schema, the store only guarantees keys, ordering and versioning.
type Entity struct {
	PartitionKey string          `db:"partition_key" json:"partitionKey"`
	RowKey       string          `db:"row_key" json:"rowKey"`
	Version      int64           `db:"version" json:"version"`
	Data         json.RawMessage `db:"data" json:"data"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// Sentinel errors returned by Store implementations. Services translate these
// into API error codes; they never cross the HTTP boundary as-is.
var (
	ErrNotFound           = errors.New("tablestore: entity not found")
	ErrAlreadyExists      = errors.New("tablestore: entity already exists")
	ErrPreconditionFailed = errors.New("tablestore: version precondition failed")
	ErrRetryExhausted     = errors.New("tablestore: conflicting writes, retries exhausted")
)

// Store is a partitioned row store with optimistic concurrency. Query results
// are ordered by row key (and partition key for cross-partition scans) so
// callers observe a stable iteration order on every backend.
type Store interface {
	Get(ctx context.Context, table, partitionKey, rowKey string) (*Entity, error)
	Insert(ctx context.Context, table string, entity *Entity) (*Entity, error)
	Upsert(ctx context.Context, table string, entity *Entity) (*Entity, error)
	UpdateIfMatch(ctx context.Context, table string, entity *Entity, expectedVersion int64) (*Entity, error)
	Delete(ctx context.Context, table, partitionKey, rowKey string) error
	QueryByPartition(ctx context.Context, table, partitionKey string) ([]Entity, error)
	QueryAcrossPartitions(ctx context.Context, table string) ([]Entity, error)
}

// MutateFunc transforms the current entity into the next one. current is nil
// when the row does not exist yet; returning (nil, nil) aborts without a write.
// Implementations must be pure: they can run more than once per call.
type MutateFunc func(current *Entity) (*Entity, error)

// Mutate is the single read-modify-write primitive of the codebase. It reads
// the row, applies fn, and writes the result guarded by the read version,
// retrying on concurrent modification up to attempts times. All conditional
// update flows (slot booking, request approval, field-day ranges) go through
// here rather than hand-rolling their own loops.
func Mutate(ctx context.Context, s Store, table, partitionKey, rowKey string, attempts int, fn MutateFunc) (*Entity, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, err := s.Get(ctx, table, partitionKey, rowKey)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return current, nil
		}
		next.PartitionKey = partitionKey
		next.RowKey = rowKey

		if current == nil {
			stored, err := s.Insert(ctx, table, next)
			if err == nil {
				return stored, nil
			}
			if !errors.Is(err, ErrAlreadyExists) {
				return nil, err
			}
			lastErr = err
			continue
		}

		stored, err := s.UpdateIfMatch(ctx, table, next, current.Version)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, ErrPreconditionFailed) && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = ErrPreconditionFailed
	}
	return nil, errors.Join(ErrRetryExhausted, lastErr)
}

// Marshal encodes a document into an entity envelope.
func Marshal(partitionKey, rowKey string, doc interface{}) (*Entity, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return &Entity{PartitionKey: partitionKey, RowKey: rowKey, Data: data}, nil
}

// Unmarshal decodes an entity's document.
func Unmarshal(e *Entity, doc interface{}) error {
	if e == nil {
		return ErrNotFound
	}
	return json.Unmarshal(e.Data, doc)
}
