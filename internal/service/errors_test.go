package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtime/scheduler-api/internal/repository"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

func TestStoreErrorExhaustedRetriesWinOverLastAttempt(t *testing.T) {
	// Mutate reports exhaustion joined with the last attempt's failure; the
	// caller must see the retry budget, not the transient conflict.
	err := storeError(errors.Join(tablestore.ErrRetryExhausted, tablestore.ErrPreconditionFailed))

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrRetryExhausted.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrRetryExhausted.Status, appErr.Status)
}

func TestStoreErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		in   error
		code string
	}{
		{"overlap", repository.ErrOverlap, appErrors.ErrSlotConflict.Code},
		{"bad time range", repository.ErrBadTimeRange, appErrors.ErrBadRequest.Code},
		{"not found", tablestore.ErrNotFound, appErrors.ErrNotFound.Code},
		{"single conflict", tablestore.ErrPreconditionFailed, appErrors.ErrSlotConflict.Code},
		{"unknown", errors.New("backend down"), appErrors.ErrStorage.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var appErr *appErrors.Error
			require.ErrorAs(t, storeError(tc.in), &appErr)
			assert.Equal(t, tc.code, appErr.Code)
		})
	}
}

func TestStoreErrorPassesContextErrorsThrough(t *testing.T) {
	assert.ErrorIs(t, storeError(context.Canceled), context.Canceled)
	assert.NoError(t, storeError(nil))
}
