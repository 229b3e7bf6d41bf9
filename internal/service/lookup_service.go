package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/fieldtime/scheduler-api/internal/models"
)

type lookupTeamStore interface {
	ListByLeague(ctx context.Context, leagueID, division string) ([]models.Team, error)
}

type lookupFieldStore interface {
	ListByLeague(ctx context.Context, leagueID string) ([]models.Field, error)
}

// LookupService serves the read-only reference listings the scheduling UI
// needs: teams and fields. Any authenticated league member may read them.
type LookupService struct {
	teams  lookupTeamStore
	fields lookupFieldStore
	logger *zap.Logger
}

func NewLookupService(teams lookupTeamStore, fields lookupFieldStore, logger *zap.Logger) *LookupService {
	return &LookupService{teams: teams, fields: fields, logger: logger}
}

// ListTeams returns the league's teams, optionally filtered by division.
func (s *LookupService) ListTeams(ctx context.Context, principal models.Principal, division string) ([]models.Team, error) {
	teams, err := s.teams.ListByLeague(ctx, principal.LeagueID, division)
	if err != nil {
		return nil, storeError(err)
	}
	return teams, nil
}

// ListFields returns the league's fields.
func (s *LookupService) ListFields(ctx context.Context, principal models.Principal) ([]models.Field, error) {
	fields, err := s.fields.ListByLeague(ctx, principal.LeagueID)
	if err != nil {
		return nil, storeError(err)
	}
	return fields, nil
}
