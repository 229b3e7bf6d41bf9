package tablestore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStoreMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewPostgresStore(sqlxDB), mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func entityColumns() []string {
	return []string{"partition_key", "row_key", "version", "data", "created_at", "updated_at"}
}

func TestPostgresStoreGet(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(entityColumns()).
		AddRow("league-1", "slot-1", int64(3), []byte(`{"slotId":"slot-1"}`), now, now)
	mock.ExpectQuery("SELECT partition_key, row_key, version").
		WithArgs("slots", "league-1", "slot-1").
		WillReturnRows(rows)

	entity, err := store.Get(context.Background(), "slots", "league-1", "slot-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), entity.Version)
	assert.JSONEq(t, `{"slotId":"slot-1"}`, string(entity.Data))
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT partition_key, row_key, version").
		WithArgs("slots", "league-1", "missing").
		WillReturnRows(sqlmock.NewRows(entityColumns()))

	_, err := store.Get(context.Background(), "slots", "league-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreInsertConflict(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("INSERT INTO table_rows").
		WithArgs("slots", "league-1", "slot-1", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows(entityColumns()))

	_, err := store.Insert(context.Background(), "slots", &Entity{
		PartitionKey: "league-1",
		RowKey:       "slot-1",
		Data:         json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestPostgresStoreUpdateIfMatchStaleVersion(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("UPDATE table_rows").
		WithArgs("slots", "league-1", "slot-1", int64(2), []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows(entityColumns()))

	now := time.Now()
	existing := sqlmock.NewRows(entityColumns()).
		AddRow("league-1", "slot-1", int64(5), []byte(`{}`), now, now)
	mock.ExpectQuery("SELECT partition_key, row_key, version").
		WithArgs("slots", "league-1", "slot-1").
		WillReturnRows(existing)

	_, err := store.UpdateIfMatch(context.Background(), "slots", &Entity{
		PartitionKey: "league-1",
		RowKey:       "slot-1",
		Data:         json.RawMessage(`{}`),
	}, 2)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestPostgresStoreUpdateIfMatchMissingRow(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("UPDATE table_rows").
		WithArgs("slots", "league-1", "gone", int64(1), []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows(entityColumns()))
	mock.ExpectQuery("SELECT partition_key, row_key, version").
		WithArgs("slots", "league-1", "gone").
		WillReturnRows(sqlmock.NewRows(entityColumns()))

	_, err := store.UpdateIfMatch(context.Background(), "slots", &Entity{
		PartitionKey: "league-1",
		RowKey:       "gone",
		Data:         json.RawMessage(`{}`),
	}, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreDeleteMissing(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM table_rows").
		WithArgs("slots", "league-1", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Delete(context.Background(), "slots", "league-1", "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreQueryByPartition(t *testing.T) {
	store, mock, cleanup := newPostgresStoreMock(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(entityColumns()).
		AddRow("league-1", "slot-1", int64(1), []byte(`{}`), now, now).
		AddRow("league-1", "slot-2", int64(1), []byte(`{}`), now, now)
	mock.ExpectQuery("SELECT partition_key, row_key, version").
		WithArgs("slots", "league-1").
		WillReturnRows(rows)

	entities, err := store.QueryByPartition(context.Background(), "slots", "league-1")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "slot-1", entities[0].RowKey)
	assert.Equal(t, "slot-2", entities[1].RowKey)
}
