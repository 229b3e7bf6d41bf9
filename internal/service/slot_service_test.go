package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
)

func TestSlotCreateAdminFreeSlot(t *testing.T) {
	f := newFixture(t)

	slot, err := f.slotSvc.Create(context.Background(), admin(), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 9 * 60, EndMin: 10 * 60,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SlotOpen, slot.Status)
	assert.Equal(t, models.GameTypeGame, slot.GameType)
	assert.Empty(t, slot.HomeTeamID)
}

func TestSlotCreateCoachMustOfferOwnTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A coach cannot create an unowned free slot.
	_, err := f.slotSvc.Create(ctx, coach("team-a"), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 9 * 60, EndMin: 10 * 60,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	// Nor offer on behalf of another team.
	_, err = f.slotSvc.Create(ctx, coach("team-a"), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 9 * 60, EndMin: 10 * 60, OfferingTeamID: "team-b",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	// Offering their own team works and puts the team on the home side.
	slot, err := f.slotSvc.Create(ctx, coach("team-a"), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 9 * 60, EndMin: 10 * 60, OfferingTeamID: "team-a",
	})
	require.NoError(t, err)
	assert.Equal(t, "team-a", slot.HomeTeamID)
}

func TestSlotCreateRejectsUnknownGameType(t *testing.T) {
	f := newFixture(t)

	_, err := f.slotSvc.Create(context.Background(), admin(), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 9 * 60, EndMin: 10 * 60, GameType: "Scrimmage",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBadRequest))
}

func TestSlotCreateOverlapIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.slotSvc.Create(ctx, admin(), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 18 * 60, EndMin: 19 * 60,
	})
	require.NoError(t, err)

	_, err = f.slotSvc.Create(ctx, admin(), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 18*60 + 30, EndMin: 19*60 + 30,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotConflict))

	// Touching ranges do not conflict.
	_, err = f.slotSvc.Create(ctx, admin(), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 19 * 60, EndMin: 20 * 60,
	})
	require.NoError(t, err)
}

func TestSlotUpdateStaleVersionIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slot, err := f.slotSvc.Create(ctx, admin(), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 9 * 60, EndMin: 10 * 60,
	})
	require.NoError(t, err)

	moved, err := f.slotSvc.Update(ctx, admin(), slot.SlotID, dto.UpdateSlotRequest{
		FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 10 * 60, EndMin: 11 * 60, ExpectedVersion: slot.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, 10*60, moved.StartMin)

	_, err = f.slotSvc.Update(ctx, admin(), slot.SlotID, dto.UpdateSlotRequest{
		FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 11 * 60, EndMin: 12 * 60, ExpectedVersion: slot.Version,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotConflict))
}

func TestSlotUpdatePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.offeredSlot(t, "team-a", models.GameTypeGame)

	// The offering coach may move their own offer.
	moved, err := f.slotSvc.Update(ctx, coach("team-a"), slot.SlotID, dto.UpdateSlotRequest{
		FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 19 * 60, EndMin: 20 * 60,
	})
	require.NoError(t, err)
	assert.Equal(t, 19*60, moved.StartMin)

	// Other coaches may not.
	_, err = f.slotSvc.Update(ctx, coach("team-b"), slot.SlotID, dto.UpdateSlotRequest{
		FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 20 * 60, EndMin: 21 * 60,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestSlotCancelConfirmedAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slot, err := f.slotSvc.Create(ctx, coach("team-a"), dto.CreateSlotRequest{
		Division: "U10", FieldKey: "park/1", GameDate: "2026-04-04",
		StartMin: 9 * 60, EndMin: 10 * 60, OfferingTeamID: "team-a",
	})
	require.NoError(t, err)
	_, err = f.slots.Transition(ctx, testLeague, slot.SlotID, func(s *models.Slot) error {
		s.Status = models.SlotConfirmed
		s.AwayTeamID = "team-b"
		return nil
	})
	require.NoError(t, err)

	// The offering coach cannot pull a confirmed booking.
	_, err = f.slotSvc.Cancel(ctx, coach("team-a"), slot.SlotID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	// An admin always can.
	cancelled, err := f.slotSvc.Cancel(ctx, admin(), slot.SlotID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotCancelled, cancelled.Status)
}

func TestSlotCancelIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.offeredSlot(t, "team-a", models.GameTypeGame)

	cancelled, err := f.slotSvc.Cancel(ctx, admin(), slot.SlotID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotCancelled, cancelled.Status)

	again, err := f.slotSvc.Cancel(ctx, admin(), slot.SlotID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotCancelled, again.Status)
}

func TestSlotCancelFreesRangeForNewSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slot := f.offeredSlot(t, "team-a", models.GameTypeGame)

	_, err := f.slotSvc.Cancel(ctx, admin(), slot.SlotID)
	require.NoError(t, err)

	_, err = f.slotSvc.Create(ctx, admin(), dto.CreateSlotRequest{
		Division: "U10", FieldKey: slot.FieldKey, GameDate: slot.GameDate,
		StartMin: slot.StartMin, EndMin: slot.EndMin,
	})
	require.NoError(t, err)
}

func TestSlotListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.offeredSlot(t, "team-a", models.GameTypeGame)

	_, err := f.slotSvc.Create(ctx, admin(), dto.CreateSlotRequest{
		Division: "U12", FieldKey: "park/2", GameDate: "2026-04-05",
		StartMin: 9 * 60, EndMin: 10 * 60,
	})
	require.NoError(t, err)

	all, err := f.slotSvc.List(ctx, admin(), dto.ListSlotsQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	u12, err := f.slotSvc.List(ctx, admin(), dto.ListSlotsQuery{Division: "U12"})
	require.NoError(t, err)
	require.Len(t, u12, 1)
	assert.Equal(t, "park/2", u12[0].FieldKey)
}
