// Package service implements the application's use cases on top of the
// repositories. Services receive the resolved caller principal explicitly;
// nothing here reads ambient identity state.
package service

import (
	"context"
	"errors"

	"github.com/fieldtime/scheduler-api/internal/repository"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// storeError translates repository and table store failures into API errors.
// Sentinel domain errors pass through typed; anything else becomes a 502.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, repository.ErrOverlap):
		return appErrors.ErrSlotConflict
	case errors.Is(err, repository.ErrBadTimeRange):
		return appErrors.Clone(appErrors.ErrBadRequest, "invalid time range")
	case errors.Is(err, tablestore.ErrNotFound):
		return appErrors.ErrNotFound
	// Exhaustion is checked before the single-attempt precondition failure:
	// Mutate joins ErrRetryExhausted with the last attempt's error, so the
	// joined value matches both sentinels.
	case errors.Is(err, tablestore.ErrRetryExhausted):
		return appErrors.ErrRetryExhausted
	case errors.Is(err, tablestore.ErrPreconditionFailed):
		return appErrors.Clone(appErrors.ErrSlotConflict, "resource was modified concurrently, reload and retry")
	default:
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "storage backend error")
	}
}
