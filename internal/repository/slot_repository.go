package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/timeutil"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// Sentinel errors surfaced by the slot repository. Services translate them
// into API error codes.
var (
	// ErrOverlap means the slot's time range intersects an existing slot on
	// the same field and date. Touching boundaries do not overlap.
	ErrOverlap = errors.New("repository: slot overlaps an existing slot")
	// ErrBadTimeRange means the slot's minute range is inverted, empty or
	// outside the day.
	ErrBadTimeRange = errors.New("repository: invalid slot time range")
)

// SlotRepository persists slots and enforces per-(league, field, date)
// non-overlap. Concurrent writers racing on the same field-date serialize
// through the FieldDay summary row: whoever loses the version race re-reads
// and re-checks, and a genuine intersection surfaces as ErrOverlap without
// automatic retry.
type SlotRepository struct {
	store    tablestore.Store
	attempts int
}

// NewSlotRepository constructs a slot repository. attempts bounds the CAS
// retries on the summary row and the slot row.
func NewSlotRepository(store tablestore.Store, attempts int) *SlotRepository {
	if attempts <= 0 {
		attempts = 5
	}
	return &SlotRepository{store: store, attempts: attempts}
}

// Get loads one slot.
func (r *SlotRepository) Get(ctx context.Context, leagueID, slotID string) (*models.Slot, error) {
	entity, err := r.store.Get(ctx, TableSlots, leagueID, slotID)
	if err != nil {
		return nil, err
	}
	return decodeSlot(entity)
}

// List returns the league's slots matching the filter, ordered by slot id.
func (r *SlotRepository) List(ctx context.Context, leagueID string, filter models.SlotFilter) ([]models.Slot, error) {
	entities, err := r.store.QueryByPartition(ctx, TableSlots, leagueID)
	if err != nil {
		return nil, err
	}
	slots := make([]models.Slot, 0, len(entities))
	for i := range entities {
		slot, err := decodeSlot(&entities[i])
		if err != nil {
			return nil, err
		}
		if !filter.Matches(*slot) {
			continue
		}
		slots = append(slots, *slot)
	}
	return slots, nil
}

// Create reserves the slot's time range on its field-date and then inserts
// the slot row. A reservation that cannot be placed returns ErrOverlap and
// writes nothing else.
func (r *SlotRepository) Create(ctx context.Context, slot *models.Slot) (*models.Slot, error) {
	if !timeutil.ValidMinutes(slot.StartMin, slot.EndMin) {
		return nil, ErrBadTimeRange
	}
	if _, err := timeutil.ParseDate(slot.GameDate); err != nil {
		return nil, ErrBadTimeRange
	}

	if err := r.reserveRange(ctx, slot.LeagueID, slot.FieldKey, slot.GameDate, slot.SlotID, slot.StartMin, slot.EndMin); err != nil {
		return nil, err
	}

	entity, err := tablestore.Marshal(slot.LeagueID, slot.SlotID, slot)
	if err != nil {
		r.releaseRange(ctx, slot.LeagueID, slot.FieldKey, slot.GameDate, slot.SlotID)
		return nil, err
	}
	stored, err := r.store.Insert(ctx, TableSlots, entity)
	if err != nil {
		r.releaseRange(ctx, slot.LeagueID, slot.FieldKey, slot.GameDate, slot.SlotID)
		return nil, err
	}
	return decodeSlot(stored)
}

// Move changes a slot's field, date or time range, guarded by the caller's
// expected version. The new range is reserved before the slot row changes;
// the old range is released only after the slot write commits.
func (r *SlotRepository) Move(ctx context.Context, leagueID, slotID string, expectedVersion int64, fieldKey, gameDate string, startMin, endMin int) (*models.Slot, error) {
	if !timeutil.ValidMinutes(startMin, endMin) {
		return nil, ErrBadTimeRange
	}
	if _, err := timeutil.ParseDate(gameDate); err != nil {
		return nil, ErrBadTimeRange
	}

	current, err := r.Get(ctx, leagueID, slotID)
	if err != nil {
		return nil, err
	}
	if expectedVersion != 0 && current.Version != expectedVersion {
		return nil, tablestore.ErrPreconditionFailed
	}

	sameRange := current.FieldKey == fieldKey && current.GameDate == gameDate &&
		current.StartMin == startMin && current.EndMin == endMin
	if !sameRange {
		if err := r.reserveRange(ctx, leagueID, fieldKey, gameDate, slotID, startMin, endMin); err != nil {
			return nil, err
		}
	}

	next := *current
	next.FieldKey = fieldKey
	next.GameDate = gameDate
	next.StartMin = startMin
	next.EndMin = endMin

	entity, err := tablestore.Marshal(leagueID, slotID, &next)
	if err == nil {
		entity, err = r.store.UpdateIfMatch(ctx, TableSlots, entity, current.Version)
	}
	if err != nil {
		if !sameRange {
			r.releaseRange(ctx, leagueID, fieldKey, gameDate, slotID)
		}
		return nil, err
	}
	if !sameRange {
		r.releaseRange(ctx, leagueID, current.FieldKey, current.GameDate, slotID)
	}
	return decodeSlot(entity)
}

// Transition applies fn to the slot under optimistic concurrency. fn sees a
// fresh copy on every attempt; errors from fn abort without a write.
func (r *SlotRepository) Transition(ctx context.Context, leagueID, slotID string, fn func(slot *models.Slot) error) (*models.Slot, error) {
	stored, err := tablestore.Mutate(ctx, r.store, TableSlots, leagueID, slotID, r.attempts, func(current *tablestore.Entity) (*tablestore.Entity, error) {
		if current == nil {
			return nil, tablestore.ErrNotFound
		}
		slot, err := decodeSlot(current)
		if err != nil {
			return nil, err
		}
		if err := fn(slot); err != nil {
			return nil, err
		}
		return tablestore.Marshal(leagueID, slotID, slot)
	})
	if err != nil {
		return nil, err
	}
	return decodeSlot(stored)
}

// Cancel marks the slot Cancelled and frees its range on the field-day.
// Cancelling an already cancelled slot is a no-op.
func (r *SlotRepository) Cancel(ctx context.Context, leagueID, slotID string) (*models.Slot, error) {
	slot, err := r.Transition(ctx, leagueID, slotID, func(slot *models.Slot) error {
		slot.Status = models.SlotCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.releaseRange(ctx, leagueID, slot.FieldKey, slot.GameDate, slotID)
	return slot, nil
}

// reserveRange adds [startMin, endMin) for slotID to the field-day summary.
// The summary row is the single CAS point for a field-date: concurrent
// inserters retry on version conflicts and only a true intersection fails.
func (r *SlotRepository) reserveRange(ctx context.Context, leagueID, fieldKey, gameDate, slotID string, startMin, endMin int) error {
	rowKey := models.FieldDayRowKey(fieldKey, gameDate)
	_, err := tablestore.Mutate(ctx, r.store, TableFieldDays, leagueID, rowKey, r.attempts, func(current *tablestore.Entity) (*tablestore.Entity, error) {
		day := models.FieldDay{LeagueID: leagueID, FieldKey: fieldKey, GameDate: gameDate}
		if current != nil {
			if err := tablestore.Unmarshal(current, &day); err != nil {
				return nil, err
			}
		}
		for _, existing := range day.Ranges {
			if existing.SlotID == slotID {
				continue
			}
			if existing.Overlaps(startMin, endMin) {
				return nil, ErrOverlap
			}
		}
		day.Ranges = upsertRange(day.Ranges, models.TimeRange{SlotID: slotID, StartMin: startMin, EndMin: endMin})
		return tablestore.Marshal(leagueID, rowKey, &day)
	})
	return err
}

// releaseRange drops slotID's interval from the field-day summary. Best
// effort: a missing summary or range means there is nothing to free.
func (r *SlotRepository) releaseRange(ctx context.Context, leagueID, fieldKey, gameDate, slotID string) {
	rowKey := models.FieldDayRowKey(fieldKey, gameDate)
	_, _ = tablestore.Mutate(ctx, r.store, TableFieldDays, leagueID, rowKey, r.attempts, func(current *tablestore.Entity) (*tablestore.Entity, error) {
		if current == nil {
			return nil, nil
		}
		var day models.FieldDay
		if err := tablestore.Unmarshal(current, &day); err != nil {
			return nil, err
		}
		kept := day.Ranges[:0]
		removed := false
		for _, rng := range day.Ranges {
			if rng.SlotID == slotID {
				removed = true
				continue
			}
			kept = append(kept, rng)
		}
		if !removed {
			return nil, nil
		}
		day.Ranges = kept
		return tablestore.Marshal(leagueID, rowKey, &day)
	})
}

func upsertRange(ranges []models.TimeRange, next models.TimeRange) []models.TimeRange {
	out := make([]models.TimeRange, 0, len(ranges)+1)
	for _, rng := range ranges {
		if rng.SlotID == next.SlotID {
			continue
		}
		out = append(out, rng)
	}
	out = append(out, next)
	sort.Slice(out, func(i, j int) bool { return out[i].StartMin < out[j].StartMin })
	return out
}

func decodeSlot(entity *tablestore.Entity) (*models.Slot, error) {
	var slot models.Slot
	if err := tablestore.Unmarshal(entity, &slot); err != nil {
		return nil, err
	}
	slot.Version = entity.Version
	slot.CreatedAt = entity.CreatedAt
	slot.UpdatedAt = entity.UpdatedAt
	return &slot, nil
}
