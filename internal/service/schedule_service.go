package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/schedule"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

type teamStore interface {
	ListByLeague(ctx context.Context, leagueID, division string) ([]models.Team, error)
}

// ScheduleService runs the round-robin generator over a division's open slots
// and, on apply, writes the resulting assignments back through the slot
// repository. Preview and apply share one code path so an applied schedule is
// exactly the previewed one.
type ScheduleService struct {
	slots   slotStore
	teams   teamStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewScheduleService constructs a schedule service. metrics may be nil.
func NewScheduleService(slots slotStore, teams teamStore, metrics *MetricsService, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{slots: slots, teams: teams, metrics: metrics, logger: logger}
}

// Preview generates a schedule without persisting anything.
func (s *ScheduleService) Preview(ctx context.Context, principal models.Principal, req dto.GenerateScheduleRequest) (*dto.ScheduleReport, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}
	start := time.Now()
	result, teams, err := s.generate(ctx, principal.LeagueID, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveGeneratorRun("preview", time.Since(start))
	return &dto.ScheduleReport{
		Result: result,
		Issues: schedule.Validate(result.Assignments, teams, req.Constraints()),
	}, nil
}

// Apply generates a schedule and persists it: assigned slots confirm with
// their home and away teams, external-offer slots are relabelled and stay
// open. A slot that moved out of Open since generation is skipped, not an
// error; the caller sees it in the validator output of the next preview.
func (s *ScheduleService) Apply(ctx context.Context, principal models.Principal, req dto.GenerateScheduleRequest) (*dto.ScheduleReport, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}
	start := time.Now()
	result, teams, err := s.generate(ctx, principal.LeagueID, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveGeneratorRun("apply", time.Since(start))
	issues := schedule.Validate(result.Assignments, teams, req.Constraints())
	for _, issue := range issues {
		if issue.Severity == schedule.SeverityError {
			// The full issue list rides in the error details so the caller
			// sees everything the validator flagged, not just the first hit.
			return nil, appErrors.WithDetails(appErrors.Clone(
				appErrors.ErrBadRequest, "generated schedule failed validation: "+issue.Message), issues)
		}
	}

	for _, assignment := range result.Assignments {
		assignment := assignment // captured by the transition closure
		_, err := s.slots.Transition(ctx, principal.LeagueID, assignment.SlotID, func(slot *models.Slot) error {
			if slot.Status != models.SlotOpen {
				return tablestore.ErrPreconditionFailed
			}
			slot.Status = models.SlotConfirmed
			slot.GameType = models.GameTypeGame
			slot.HomeTeamID = assignment.HomeTeamID
			slot.AwayTeamID = assignment.AwayTeamID
			return nil
		})
		if err != nil && !errors.Is(err, tablestore.ErrPreconditionFailed) {
			return nil, storeError(err)
		}
		if errors.Is(err, tablestore.ErrPreconditionFailed) {
			s.logger.Sugar().Warnw("slot no longer open, assignment skipped",
				"league_id", principal.LeagueID, "slot_id", assignment.SlotID)
		}
	}

	for _, offer := range result.ExternalOffers {
		offer := offer // captured by the transition closure
		_, err := s.slots.Transition(ctx, principal.LeagueID, offer.SlotID, func(slot *models.Slot) error {
			if slot.Status != models.SlotOpen {
				return tablestore.ErrPreconditionFailed
			}
			slot.GameType = models.GameTypeExternal
			slot.ExternalLabel = offer.Label
			return nil
		})
		if err != nil && !errors.Is(err, tablestore.ErrPreconditionFailed) {
			return nil, storeError(err)
		}
	}

	s.logger.Sugar().Infow("schedule applied",
		"league_id", principal.LeagueID, "division", req.Division,
		"assigned", result.Summary.Assigned, "external_offers", result.Summary.ExternalOffers)
	return &dto.ScheduleReport{Result: result, Issues: issues, Applied: true}, nil
}

func (s *ScheduleService) generate(ctx context.Context, leagueID string, req dto.GenerateScheduleRequest) (*schedule.Result, []models.Team, error) {
	teams, err := s.teams.ListByLeague(ctx, leagueID, req.Division)
	if err != nil {
		return nil, nil, storeError(err)
	}
	if len(teams) < 2 {
		return nil, nil, appErrors.Clone(appErrors.ErrBadRequest, "division needs at least two teams")
	}
	slots, err := s.slots.List(ctx, leagueID, models.SlotFilter{
		From:     req.From,
		To:       req.To,
		Division: req.Division,
		Status:   models.SlotOpen,
	})
	if err != nil {
		return nil, nil, storeError(err)
	}

	result, err := schedule.NewGenerator(req.Constraints()).Generate(slots, teams)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrBadRequest, err.Error())
	}
	return result, teams, nil
}
