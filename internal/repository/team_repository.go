package repository

import (
	"context"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// TeamRepository reads and writes team rows, partitioned by league.
type TeamRepository struct {
	store tablestore.Store
}

// NewTeamRepository constructs a team repository.
func NewTeamRepository(store tablestore.Store) *TeamRepository {
	return &TeamRepository{store: store}
}

// Get loads one team.
func (r *TeamRepository) Get(ctx context.Context, leagueID, teamID string) (*models.Team, error) {
	entity, err := r.store.Get(ctx, TableTeams, leagueID, teamID)
	if err != nil {
		return nil, err
	}
	return decodeTeam(entity)
}

// Put inserts or replaces a team row.
func (r *TeamRepository) Put(ctx context.Context, team *models.Team) (*models.Team, error) {
	entity, err := tablestore.Marshal(team.LeagueID, team.TeamID, team)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Upsert(ctx, TableTeams, entity)
	if err != nil {
		return nil, err
	}
	return decodeTeam(stored)
}

// ListByLeague returns the league's teams ordered by team id, optionally
// narrowed to one division.
func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID, division string) ([]models.Team, error) {
	entities, err := r.store.QueryByPartition(ctx, TableTeams, leagueID)
	if err != nil {
		return nil, err
	}
	teams := make([]models.Team, 0, len(entities))
	for i := range entities {
		team, err := decodeTeam(&entities[i])
		if err != nil {
			return nil, err
		}
		if division != "" && team.Division != division {
			continue
		}
		teams = append(teams, *team)
	}
	return teams, nil
}

func decodeTeam(entity *tablestore.Entity) (*models.Team, error) {
	var team models.Team
	if err := tablestore.Unmarshal(entity, &team); err != nil {
		return nil, err
	}
	team.Version = entity.Version
	team.CreatedAt = entity.CreatedAt
	team.UpdatedAt = entity.UpdatedAt
	return &team, nil
}
