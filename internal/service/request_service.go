package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
)

type requestStore interface {
	Get(ctx context.Context, leagueID, requestID string) (*models.Request, error)
	Create(ctx context.Context, request *models.Request) (*models.Request, error)
	ListBySlot(ctx context.Context, leagueID, slotID string) ([]models.Request, error)
	ListByLeague(ctx context.Context, leagueID string, status models.RequestStatus) ([]models.Request, error)
	Transition(ctx context.Context, leagueID, requestID string, fn func(request *models.Request) error) (*models.Request, error)
}

// errAlreadyApproved signals an idempotent re-approval inside a slot
// transition closure; it never leaves this file.
var errAlreadyApproved = errors.New("request already approved")

// RequestService drives the request/slot state machine: create, approve,
// reject, withdraw. The at-most-one-winner guarantee rests on the slot row's
// version counter, not on any request-level lock: the first approval to
// commit the slot CAS wins and every later attempt observes Confirmed.
type RequestService struct {
	requests requestStore
	slots    slotStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewRequestService constructs a request service.
func NewRequestService(requests requestStore, slots slotStore, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests: requests,
		slots:    slots,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Get loads one request.
func (s *RequestService) Get(ctx context.Context, principal models.Principal, requestID string) (*models.Request, error) {
	request, err := s.requests.Get(ctx, principal.LeagueID, requestID)
	if err != nil {
		return nil, storeError(err)
	}
	return request, nil
}

// List returns the league's requests, optionally narrowed by status.
func (s *RequestService) List(ctx context.Context, principal models.Principal, status models.RequestStatus) ([]models.Request, error) {
	requests, err := s.requests.ListByLeague(ctx, principal.LeagueID, status)
	if err != nil {
		return nil, storeError(err)
	}
	return requests, nil
}

// Create files a coach's claim on a slot. The slot must be Open or Pending
// and of the matching game type; a team holds at most one pending request
// per slot. The first request moves an Open slot to Pending.
func (s *RequestService) Create(ctx context.Context, principal models.Principal, req dto.CreateRequestRequest, kind models.RequestKind) (*models.Request, error) {
	slot, err := s.slots.Get(ctx, principal.LeagueID, req.SlotID)
	if err != nil {
		return nil, storeError(err)
	}

	if !principal.CoachesTeam(slot.Division, req.TeamID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the coach of the requesting team may file a request")
	}
	if !kindMatchesSlot(kind, slot.GameType) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "request kind does not match the slot's game type")
	}

	switch slot.Status {
	case models.SlotConfirmed:
		return nil, appErrors.ErrSlotAlreadyConfirmed
	case models.SlotCancelled:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "slot is cancelled")
	}
	if slot.HomeTeamID == req.TeamID {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "team already owns this slot")
	}

	existing, err := s.requests.ListBySlot(ctx, principal.LeagueID, req.SlotID)
	if err != nil {
		return nil, storeError(err)
	}
	for _, other := range existing {
		if other.Status == models.RequestPending && other.TeamID == req.TeamID {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "team already has a pending request for this slot")
		}
	}

	request := &models.Request{
		RequestID:   uuid.NewString(),
		LeagueID:    principal.LeagueID,
		SlotID:      req.SlotID,
		TeamID:      req.TeamID,
		Division:    slot.Division,
		Kind:        kind,
		Status:      models.RequestPending,
		RequestedBy: principal.UserID,
		Note:        req.Note,
	}
	created, err := s.requests.Create(ctx, request)
	if err != nil {
		return nil, storeError(err)
	}

	// First request advances Open to Pending. Idempotent: a concurrent
	// request may have done it already.
	_, err = s.slots.Transition(ctx, principal.LeagueID, req.SlotID, func(slot *models.Slot) error {
		if slot.Status == models.SlotOpen {
			slot.Status = models.SlotPending
		}
		return nil
	})
	if err != nil {
		s.logger.Sugar().Warnw("slot pending transition failed",
			"league_id", principal.LeagueID, "slot_id", req.SlotID, "error", err)
	}

	s.logger.Sugar().Infow("request created",
		"league_id", principal.LeagueID, "request_id", created.RequestID,
		"slot_id", created.SlotID, "kind", created.Kind)
	return created, nil
}

// Approve confirms a slot for the requesting team. The slot CAS is the
// serialization point: exactly one of any set of concurrent approvals
// commits; the rest observe Confirmed and fail with SLOT_ALREADY_CONFIRMED.
// The subsequent request-status writes are idempotent, so a cancelled or
// crashed approval leaves invariants restorable by the next call.
func (s *RequestService) Approve(ctx context.Context, principal models.Principal, requestID string, kind models.RequestKind, note string) (*models.Request, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}
	request, err := s.requests.Get(ctx, principal.LeagueID, requestID)
	if err != nil {
		return nil, storeError(err)
	}
	if request.Kind != kind {
		return nil, appErrors.ErrNotFound
	}
	switch request.Status {
	case models.RequestPending, models.RequestApproved:
		// proceed; re-approving the winner is a no-op
	case models.RequestSuperseded:
		return nil, appErrors.ErrSlotAlreadyConfirmed
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "request is not pending")
	}

	_, err = s.slots.Transition(ctx, principal.LeagueID, request.SlotID, func(slot *models.Slot) error {
		switch slot.Status {
		case models.SlotCancelled:
			return appErrors.Clone(appErrors.ErrBadRequest, "slot is cancelled")
		case models.SlotConfirmed:
			if slot.RequestID == requestID {
				return errAlreadyApproved
			}
			return appErrors.ErrSlotAlreadyConfirmed
		}
		slot.Status = models.SlotConfirmed
		slot.RequestID = requestID
		if slot.HomeTeamID != "" {
			// Offered slot: the offering team hosts.
			slot.AwayTeamID = request.TeamID
		} else {
			slot.HomeTeamID = request.TeamID
		}
		return nil
	})
	if err != nil && !errors.Is(err, errAlreadyApproved) {
		return nil, storeError(err)
	}

	decidedAt := s.now()
	approved, err := s.requests.Transition(ctx, principal.LeagueID, requestID, func(request *models.Request) error {
		if request.Status == models.RequestApproved {
			return nil
		}
		request.Status = models.RequestApproved
		request.DecidedBy = principal.UserID
		request.DecidedAt = &decidedAt
		if note != "" {
			request.Note = note
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.supersedeOthers(ctx, principal, approved)

	s.logger.Sugar().Infow("request approved",
		"league_id", principal.LeagueID, "request_id", requestID, "slot_id", approved.SlotID)
	return approved, nil
}

// Reject declines a pending request. When no other pending request remains
// the slot returns to Open.
func (s *RequestService) Reject(ctx context.Context, principal models.Principal, requestID string, kind models.RequestKind, note string) (*models.Request, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}
	return s.decline(ctx, principal, requestID, kind, note, models.RequestRejected)
}

// Withdraw lets the requesting coach pull a pending request back. Admins may
// withdraw on a coach's behalf.
func (s *RequestService) Withdraw(ctx context.Context, principal models.Principal, requestID string) (*models.Request, error) {
	request, err := s.requests.Get(ctx, principal.LeagueID, requestID)
	if err != nil {
		return nil, storeError(err)
	}
	if !principal.IsLeagueAdmin() && request.RequestedBy != principal.UserID &&
		!principal.CoachesTeam(request.Division, request.TeamID) {
		return nil, appErrors.ErrForbidden
	}
	return s.decline(ctx, principal, requestID, request.Kind, "", models.RequestWithdrawn)
}

func (s *RequestService) decline(ctx context.Context, principal models.Principal, requestID string, kind models.RequestKind, note string, terminal models.RequestStatus) (*models.Request, error) {
	request, err := s.requests.Get(ctx, principal.LeagueID, requestID)
	if err != nil {
		return nil, storeError(err)
	}
	if request.Kind != kind {
		return nil, appErrors.ErrNotFound
	}
	switch request.Status {
	case models.RequestPending:
	case terminal:
		return request, nil
	case models.RequestApproved:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "request is already approved")
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "request is not pending")
	}

	decidedAt := s.now()
	declined, err := s.requests.Transition(ctx, principal.LeagueID, requestID, func(request *models.Request) error {
		if request.Status != models.RequestPending {
			return appErrors.Clone(appErrors.ErrBadRequest, "request is not pending")
		}
		request.Status = terminal
		request.DecidedBy = principal.UserID
		request.DecidedAt = &decidedAt
		if note != "" {
			request.Note = note
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.releaseSlotIfIdle(ctx, principal, declined.SlotID)

	s.logger.Sugar().Infow("request declined",
		"league_id", principal.LeagueID, "request_id", requestID,
		"slot_id", declined.SlotID, "status", declined.Status)
	return declined, nil
}

// supersedeOthers marks every other pending request for the slot Superseded.
// Each write is idempotent; a failure here is repaired by the next approval
// or rejection touching the slot.
func (s *RequestService) supersedeOthers(ctx context.Context, principal models.Principal, winner *models.Request) {
	others, err := s.requests.ListBySlot(ctx, principal.LeagueID, winner.SlotID)
	if err != nil {
		s.logger.Sugar().Warnw("listing slot requests failed",
			"league_id", principal.LeagueID, "slot_id", winner.SlotID, "error", err)
		return
	}
	decidedAt := s.now()
	for _, other := range others {
		if other.RequestID == winner.RequestID || other.Status != models.RequestPending {
			continue
		}
		_, err := s.requests.Transition(ctx, principal.LeagueID, other.RequestID, func(request *models.Request) error {
			if request.Status != models.RequestPending {
				return nil
			}
			request.Status = models.RequestSuperseded
			request.DecidedBy = principal.UserID
			request.DecidedAt = &decidedAt
			return nil
		})
		if err != nil {
			s.logger.Sugar().Warnw("superseding request failed",
				"league_id", principal.LeagueID, "request_id", other.RequestID, "error", err)
		}
	}
}

// releaseSlotIfIdle returns a Pending slot to Open once no pending request
// remains.
func (s *RequestService) releaseSlotIfIdle(ctx context.Context, principal models.Principal, slotID string) {
	remaining, err := s.requests.ListBySlot(ctx, principal.LeagueID, slotID)
	if err != nil {
		s.logger.Sugar().Warnw("listing slot requests failed",
			"league_id", principal.LeagueID, "slot_id", slotID, "error", err)
		return
	}
	for _, request := range remaining {
		if request.Status == models.RequestPending {
			return
		}
	}
	_, err = s.slots.Transition(ctx, principal.LeagueID, slotID, func(slot *models.Slot) error {
		if slot.Status == models.SlotPending {
			slot.Status = models.SlotOpen
		}
		return nil
	})
	if err != nil {
		s.logger.Sugar().Warnw("slot release transition failed",
			"league_id", principal.LeagueID, "slot_id", slotID, "error", err)
	}
}

func kindMatchesSlot(kind models.RequestKind, gameType models.GameType) bool {
	switch kind {
	case models.RequestKindGame:
		return gameType == models.GameTypeGame
	case models.RequestKindPractice:
		return gameType == models.GameTypePractice
	default:
		return false
	}
}
