package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterDoc struct {
	N int `json:"n"`
}

func TestMutateCreatesWhenAbsent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	stored, err := Mutate(ctx, store, "counters", "p", "r", 3, func(current *Entity) (*Entity, error) {
		require.Nil(t, current)
		return Marshal("p", "r", counterDoc{N: 1})
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
}

func TestMutateAppliesOnTopOfCurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, "counters", &Entity{PartitionKey: "p", RowKey: "r", Data: json.RawMessage(`{"n":5}`)})
	require.NoError(t, err)

	stored, err := Mutate(ctx, store, "counters", "p", "r", 3, func(current *Entity) (*Entity, error) {
		var doc counterDoc
		require.NoError(t, Unmarshal(current, &doc))
		doc.N++
		return Marshal("p", "r", doc)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)

	var doc counterDoc
	require.NoError(t, Unmarshal(stored, &doc))
	assert.Equal(t, 6, doc.N)
}

func TestMutateNilResultSkipsWrite(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, "counters", &Entity{PartitionKey: "p", RowKey: "r", Data: json.RawMessage(`{"n":1}`)})
	require.NoError(t, err)

	stored, err := Mutate(ctx, store, "counters", "p", "r", 3, func(current *Entity) (*Entity, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
}

func TestMutatePropagatesFnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := Mutate(ctx, store, "counters", "p", "r", 3, func(current *Entity) (*Entity, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestMutateRetriesOnConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, "counters", &Entity{PartitionKey: "p", RowKey: "r", Data: json.RawMessage(`{"n":0}`)})
	require.NoError(t, err)

	attempts := 0
	_, err = Mutate(ctx, store, "counters", "p", "r", 5, func(current *Entity) (*Entity, error) {
		attempts++
		if attempts == 1 {
			// Interleave a competing write between read and write.
			_, werr := store.UpdateIfMatch(ctx, "counters", &Entity{PartitionKey: "p", RowKey: "r", Data: json.RawMessage(`{"n":99}`)}, current.Version)
			require.NoError(t, werr)
		}
		var doc counterDoc
		require.NoError(t, Unmarshal(current, &doc))
		doc.N++
		return Marshal("p", "r", doc)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	final, err := store.Get(ctx, "counters", "p", "r")
	require.NoError(t, err)
	var doc counterDoc
	require.NoError(t, Unmarshal(final, &doc))
	assert.Equal(t, 100, doc.N)
}

func TestMutateExhaustsRetries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, "counters", &Entity{PartitionKey: "p", RowKey: "r", Data: json.RawMessage(`{"n":0}`)})
	require.NoError(t, err)

	_, err = Mutate(ctx, store, "counters", "p", "r", 3, func(current *Entity) (*Entity, error) {
		// Every attempt loses the race.
		_, werr := store.UpdateIfMatch(ctx, "counters", &Entity{PartitionKey: "p", RowKey: "r", Data: current.Data}, current.Version)
		require.NoError(t, werr)
		return Marshal("p", "r", counterDoc{N: 1})
	})
	assert.ErrorIs(t, err, ErrRetryExhausted)
}

func TestMutateConcurrentIncrements(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := Mutate(ctx, store, "counters", "p", "r", workers+1, func(current *Entity) (*Entity, error) {
				doc := counterDoc{}
				if current != nil {
					if err := Unmarshal(current, &doc); err != nil {
						return nil, err
					}
				}
				doc.N++
				return Marshal("p", "r", doc)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := store.Get(ctx, "counters", "p", "r")
	require.NoError(t, err)
	var doc counterDoc
	require.NoError(t, Unmarshal(final, &doc))
	assert.Equal(t, workers, doc.N)
}
