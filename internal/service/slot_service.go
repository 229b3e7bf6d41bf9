package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
)

type slotStore interface {
	Get(ctx context.Context, leagueID, slotID string) (*models.Slot, error)
	List(ctx context.Context, leagueID string, filter models.SlotFilter) ([]models.Slot, error)
	Create(ctx context.Context, slot *models.Slot) (*models.Slot, error)
	Move(ctx context.Context, leagueID, slotID string, expectedVersion int64, fieldKey, gameDate string, startMin, endMin int) (*models.Slot, error)
	Cancel(ctx context.Context, leagueID, slotID string) (*models.Slot, error)
	Transition(ctx context.Context, leagueID, slotID string, fn func(slot *models.Slot) error) (*models.Slot, error)
}

// SlotService owns slot CRUD and the cancel transition. Request-driven
// transitions (pending, confirm) belong to RequestService.
type SlotService struct {
	slots  slotStore
	logger *zap.Logger
}

// NewSlotService constructs a slot service.
func NewSlotService(slots slotStore, logger *zap.Logger) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{slots: slots, logger: logger}
}

// List returns the league's slots matching the query. Any resolved member
// may list.
func (s *SlotService) List(ctx context.Context, principal models.Principal, query dto.ListSlotsQuery) ([]models.Slot, error) {
	filter := models.SlotFilter{
		From:     query.From,
		To:       query.To,
		FieldKey: query.FieldKey,
		Division: query.Division,
		Status:   models.SlotStatus(query.Status),
	}
	slots, err := s.slots.List(ctx, principal.LeagueID, filter)
	if err != nil {
		return nil, storeError(err)
	}
	return slots, nil
}

// Get loads one slot.
func (s *SlotService) Get(ctx context.Context, principal models.Principal, slotID string) (*models.Slot, error) {
	slot, err := s.slots.Get(ctx, principal.LeagueID, slotID)
	if err != nil {
		return nil, storeError(err)
	}
	return slot, nil
}

// Create adds a slot. Admins create free slots; a coach may create a slot
// only as an offer for their own team, which puts their team on the home
// side once the slot confirms.
func (s *SlotService) Create(ctx context.Context, principal models.Principal, req dto.CreateSlotRequest) (*models.Slot, error) {
	gameType := req.GameType
	if gameType == "" {
		gameType = models.GameTypeGame
	}
	if gameType != models.GameTypeGame && gameType != models.GameTypePractice {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "gameType must be Game or Practice")
	}

	if req.OfferingTeamID == "" {
		if !principal.IsLeagueAdmin() {
			return nil, appErrors.ErrForbidden
		}
	} else if !principal.IsLeagueAdmin() && !principal.CoachesTeam(req.Division, req.OfferingTeamID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "coaches may only offer slots for their own team")
	}

	slot := &models.Slot{
		SlotID:     uuid.NewString(),
		LeagueID:   principal.LeagueID,
		Division:   req.Division,
		FieldKey:   req.FieldKey,
		GameDate:   req.GameDate,
		StartMin:   req.StartMin,
		EndMin:     req.EndMin,
		Status:     models.SlotOpen,
		GameType:   gameType,
		HomeTeamID: req.OfferingTeamID,
	}

	created, err := s.slots.Create(ctx, slot)
	if err != nil {
		return nil, storeError(err)
	}
	s.logger.Sugar().Infow("slot created",
		"league_id", created.LeagueID, "slot_id", created.SlotID,
		"field_key", created.FieldKey, "game_date", created.GameDate)
	return created, nil
}

// Update moves or resizes a slot. Admins may edit any non-cancelled slot;
// the offering coach may edit their offer until it confirms.
func (s *SlotService) Update(ctx context.Context, principal models.Principal, slotID string, req dto.UpdateSlotRequest) (*models.Slot, error) {
	slot, err := s.slots.Get(ctx, principal.LeagueID, slotID)
	if err != nil {
		return nil, storeError(err)
	}
	if slot.Status == models.SlotCancelled {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "slot is cancelled")
	}
	if !principal.IsLeagueAdmin() {
		if !s.offeredBy(slot, principal) {
			return nil, appErrors.ErrForbidden
		}
		if slot.Status == models.SlotConfirmed {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "confirmed slots can only be edited by an admin")
		}
	}

	updated, err := s.slots.Move(ctx, principal.LeagueID, slotID, req.ExpectedVersion, req.FieldKey, req.GameDate, req.StartMin, req.EndMin)
	if err != nil {
		return nil, storeError(err)
	}
	return updated, nil
}

// Cancel marks a slot Cancelled. Admins may cancel anything not already
// cancelled; the offering coach may cancel their offer before it confirms.
// Cancelling twice is a no-op.
func (s *SlotService) Cancel(ctx context.Context, principal models.Principal, slotID string) (*models.Slot, error) {
	slot, err := s.slots.Get(ctx, principal.LeagueID, slotID)
	if err != nil {
		return nil, storeError(err)
	}
	if !principal.IsLeagueAdmin() {
		if !s.offeredBy(slot, principal) {
			return nil, appErrors.ErrForbidden
		}
		if slot.Status == models.SlotConfirmed {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "confirmed slots can only be cancelled by an admin")
		}
	}
	if slot.Status == models.SlotCancelled {
		return slot, nil
	}

	cancelled, err := s.slots.Cancel(ctx, principal.LeagueID, slotID)
	if err != nil {
		return nil, storeError(err)
	}
	s.logger.Sugar().Infow("slot cancelled", "league_id", principal.LeagueID, "slot_id", slotID)
	return cancelled, nil
}

func (s *SlotService) offeredBy(slot *models.Slot, principal models.Principal) bool {
	return slot.HomeTeamID != "" && principal.CoachesTeam(slot.Division, slot.HomeTeamID)
}
