package tablestore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps every logical table in one physical relation keyed by
// (table_name, partition_key, row_key). Versions are bumped inside the
// statements themselves so concurrent writers serialize on the row.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = "partition_key, row_key, version, data, created_at, updated_at"

func (s *PostgresStore) Get(ctx context.Context, table, partitionKey, rowKey string) (*Entity, error) {
	const query = "SELECT " + selectColumns + " FROM table_rows WHERE table_name = $1 AND partition_key = $2 AND row_key = $3"

	var entity Entity
	err := s.db.GetContext(ctx, &entity, query, table, partitionKey, rowKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

func (s *PostgresStore) Insert(ctx context.Context, table string, entity *Entity) (*Entity, error) {
	const query = `INSERT INTO table_rows (table_name, partition_key, row_key, version, data, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, NOW(), NOW())
		ON CONFLICT (table_name, partition_key, row_key) DO NOTHING
		RETURNING ` + selectColumns

	var stored Entity
	err := s.db.QueryRowxContext(ctx, query, table, entity.PartitionKey, entity.RowKey, entity.Data).StructScan(&stored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &stored, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, table string, entity *Entity) (*Entity, error) {
	const query = `INSERT INTO table_rows (table_name, partition_key, row_key, version, data, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, NOW(), NOW())
		ON CONFLICT (table_name, partition_key, row_key)
		DO UPDATE SET data = EXCLUDED.data, version = table_rows.version + 1, updated_at = NOW()
		RETURNING ` + selectColumns

	var stored Entity
	err := s.db.QueryRowxContext(ctx, query, table, entity.PartitionKey, entity.RowKey, entity.Data).StructScan(&stored)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *PostgresStore) UpdateIfMatch(ctx context.Context, table string, entity *Entity, expectedVersion int64) (*Entity, error) {
	const query = `UPDATE table_rows
		SET data = $5, version = version + 1, updated_at = NOW()
		WHERE table_name = $1 AND partition_key = $2 AND row_key = $3 AND version = $4
		RETURNING ` + selectColumns

	var stored Entity
	err := s.db.QueryRowxContext(ctx, query, table, entity.PartitionKey, entity.RowKey, expectedVersion, entity.Data).StructScan(&stored)
	if err == nil {
		return &stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// No row matched: distinguish a stale version from a missing row.
	if _, getErr := s.Get(ctx, table, entity.PartitionKey, entity.RowKey); getErr != nil {
		if errors.Is(getErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, getErr
	}
	return nil, ErrPreconditionFailed
}

func (s *PostgresStore) Delete(ctx context.Context, table, partitionKey, rowKey string) error {
	const query = "DELETE FROM table_rows WHERE table_name = $1 AND partition_key = $2 AND row_key = $3"

	res, err := s.db.ExecContext(ctx, query, table, partitionKey, rowKey)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) QueryByPartition(ctx context.Context, table, partitionKey string) ([]Entity, error) {
	const query = "SELECT " + selectColumns + " FROM table_rows WHERE table_name = $1 AND partition_key = $2 ORDER BY row_key"

	entities := make([]Entity, 0)
	if err := s.db.SelectContext(ctx, &entities, query, table, partitionKey); err != nil {
		return nil, err
	}
	return entities, nil
}

func (s *PostgresStore) QueryAcrossPartitions(ctx context.Context, table string) ([]Entity, error) {
	const query = "SELECT " + selectColumns + " FROM table_rows WHERE table_name = $1 ORDER BY partition_key, row_key"

	entities := make([]Entity, 0)
	if err := s.db.SelectContext(ctx, &entities, query, table); err != nil {
		return nil, err
	}
	return entities, nil
}
