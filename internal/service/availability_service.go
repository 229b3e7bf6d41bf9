package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldtime/scheduler-api/internal/availability"
	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/repository"
	"github.com/fieldtime/scheduler-api/internal/timeutil"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
)

type leagueStore interface {
	Get(ctx context.Context, leagueID string) (*models.League, error)
}

type availabilityStore interface {
	GetRule(ctx context.Context, leagueID, ruleID string) (*models.AvailabilityRule, error)
	PutRule(ctx context.Context, rule *models.AvailabilityRule) (*models.AvailabilityRule, error)
	DeleteRule(ctx context.Context, leagueID, ruleID string) error
	ListRules(ctx context.Context, leagueID string) ([]models.AvailabilityRule, error)
	PutException(ctx context.Context, exception *models.AvailabilityException) (*models.AvailabilityException, error)
	DeleteException(ctx context.Context, leagueID, exceptionID string) error
	ListExceptions(ctx context.Context, leagueID string) ([]models.AvailabilityException, error)
}

// AvailabilityService manages rules and exceptions and runs the expansion
// that turns them into bookable slots. Rule writes are admin-only; the
// overlap guard in the slot repository decides which expanded drafts land.
type AvailabilityService struct {
	leagues      leagueStore
	availability availabilityStore
	slots        slotStore
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewAvailabilityService constructs an availability service. The validator
// re-reads the DTO binding tags so non-HTTP callers get the same field rules
// as bound requests.
func NewAvailabilityService(leagues leagueStore, avail availabilityStore, slots slotStore, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	validate.SetTagName("binding")
	return &AvailabilityService{
		leagues:      leagues,
		availability: avail,
		slots:        slots,
		validate:     validate,
		logger:       logger,
	}
}

// ListRules returns the league's availability rules.
func (s *AvailabilityService) ListRules(ctx context.Context, principal models.Principal) ([]models.AvailabilityRule, error) {
	rules, err := s.availability.ListRules(ctx, principal.LeagueID)
	if err != nil {
		return nil, storeError(err)
	}
	return rules, nil
}

// CreateRule adds a recurring availability rule.
func (s *AvailabilityService) CreateRule(ctx context.Context, principal models.Principal, req dto.CreateRuleRequest) (*models.AvailabilityRule, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid rule")
	}
	rule := &models.AvailabilityRule{
		RuleID:     uuid.NewString(),
		LeagueID:   principal.LeagueID,
		Division:   req.Division,
		FieldKey:   req.FieldKey,
		StartsOn:   req.StartsOn,
		EndsOn:     req.EndsOn,
		DaysOfWeek: req.DaysOfWeek,
		StartMin:   req.StartMin,
		EndMin:     req.EndMin,
	}
	if err := validateRuleInput(rule); err != nil {
		return nil, err
	}
	created, err := s.availability.PutRule(ctx, rule)
	if err != nil {
		return nil, storeError(err)
	}
	s.logger.Sugar().Infow("availability rule created",
		"league_id", principal.LeagueID, "rule_id", created.RuleID, "field_key", created.FieldKey)
	return created, nil
}

// DeleteRule removes a rule. Existing slots stay; only future expansions
// change.
func (s *AvailabilityService) DeleteRule(ctx context.Context, principal models.Principal, ruleID string) error {
	if !principal.IsLeagueAdmin() {
		return appErrors.ErrForbidden
	}
	if err := s.availability.DeleteRule(ctx, principal.LeagueID, ruleID); err != nil {
		return storeError(err)
	}
	return nil
}

// ListExceptions returns the league's availability exceptions.
func (s *AvailabilityService) ListExceptions(ctx context.Context, principal models.Principal) ([]models.AvailabilityException, error) {
	exceptions, err := s.availability.ListExceptions(ctx, principal.LeagueID)
	if err != nil {
		return nil, storeError(err)
	}
	return exceptions, nil
}

// CreateException carves a time range out of a rule's occurrences.
func (s *AvailabilityService) CreateException(ctx context.Context, principal models.Principal, req dto.CreateExceptionRequest) (*models.AvailabilityException, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid exception")
	}
	if _, err := s.availability.GetRule(ctx, principal.LeagueID, req.RuleID); err != nil {
		return nil, storeError(err)
	}
	if req.EndMin <= req.StartMin {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "endMin must be after startMin")
	}
	exception := &models.AvailabilityException{
		ExceptionID: uuid.NewString(),
		LeagueID:    principal.LeagueID,
		RuleID:      req.RuleID,
		DateFrom:    req.DateFrom,
		DateTo:      req.DateTo,
		StartMin:    req.StartMin,
		EndMin:      req.EndMin,
		Reason:      req.Reason,
	}
	created, err := s.availability.PutException(ctx, exception)
	if err != nil {
		return nil, storeError(err)
	}
	return created, nil
}

// DeleteException removes an exception.
func (s *AvailabilityService) DeleteException(ctx context.Context, principal models.Principal, exceptionID string) error {
	if !principal.IsLeagueAdmin() {
		return appErrors.ErrForbidden
	}
	if err := s.availability.DeleteException(ctx, principal.LeagueID, exceptionID); err != nil {
		return storeError(err)
	}
	return nil
}

// Expand runs the availability engine over a window. A dry run returns the
// drafts untouched; otherwise every draft is written through the slot
// repository, and drafts that collide with existing bookings are counted as
// skipped instead of failing the whole run.
func (s *AvailabilityService) Expand(ctx context.Context, principal models.Principal, req dto.ExpandRequest) (*dto.ExpandResponse, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}

	league, err := s.leagues.Get(ctx, principal.LeagueID)
	if err != nil {
		return nil, storeError(err)
	}
	rules, err := s.availability.ListRules(ctx, principal.LeagueID)
	if err != nil {
		return nil, storeError(err)
	}
	exceptions, err := s.availability.ListExceptions(ctx, principal.LeagueID)
	if err != nil {
		return nil, storeError(err)
	}

	drafts, err := availability.Expand(rules, exceptions, league.Season.Blackouts,
		availability.Window{From: req.From, To: req.To}, league.Season.GameLengthMinutes)
	if err != nil {
		var cfgErr *availability.InvalidConfigError
		if errors.As(err, &cfgErr) {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, cfgErr.Reason)
		}
		return nil, err
	}

	resp := &dto.ExpandResponse{
		Drafts: drafts,
		Total:  len(drafts),
		DryRun: req.DryRun,
	}
	if req.DryRun {
		return resp, nil
	}

	for _, draft := range drafts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slot := &models.Slot{
			SlotID:   uuid.NewString(),
			LeagueID: principal.LeagueID,
			Division: draft.Division,
			FieldKey: draft.FieldKey,
			GameDate: draft.GameDate,
			StartMin: draft.StartMin,
			EndMin:   draft.EndMin,
			Status:   models.SlotOpen,
			GameType: models.GameTypeGame,
		}
		_, err := s.slots.Create(ctx, slot)
		switch {
		case err == nil:
			resp.Persisted++
		case errors.Is(err, repository.ErrOverlap):
			resp.Skipped++
		default:
			return nil, storeError(err)
		}
	}

	s.logger.Sugar().Infow("availability expanded",
		"league_id", principal.LeagueID, "from", req.From, "to", req.To,
		"total", resp.Total, "persisted", resp.Persisted, "skipped", resp.Skipped)
	return resp, nil
}

func validateRuleInput(rule *models.AvailabilityRule) error {
	if rule.EndMin <= rule.StartMin || rule.StartMin < 0 || rule.EndMin > 24*60 {
		return appErrors.Clone(appErrors.ErrBadRequest, "invalid time range")
	}
	for _, day := range rule.DaysOfWeek {
		if day < 0 || day > 6 {
			return appErrors.Clone(appErrors.ErrBadRequest, "daysOfWeek entries must be 0..6")
		}
	}
	if _, err := timeutil.ParseDate(rule.StartsOn); err != nil {
		return appErrors.Clone(appErrors.ErrBadRequest, "startsOn must be YYYY-MM-DD")
	}
	if _, err := timeutil.ParseDate(rule.EndsOn); err != nil {
		return appErrors.Clone(appErrors.ErrBadRequest, "endsOn must be YYYY-MM-DD")
	}
	if rule.EndsOn < rule.StartsOn {
		return appErrors.Clone(appErrors.ErrBadRequest, "endsOn precedes startsOn")
	}
	return nil
}
