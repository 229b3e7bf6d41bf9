package repository

import (
	"context"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// LeagueRepository reads and writes league rows. Leagues live in a single
// partition because the service never scans them per-tenant.
type LeagueRepository struct {
	store tablestore.Store
}

// NewLeagueRepository constructs a league repository.
func NewLeagueRepository(store tablestore.Store) *LeagueRepository {
	return &LeagueRepository{store: store}
}

// Get loads one league by id.
func (r *LeagueRepository) Get(ctx context.Context, leagueID string) (*models.League, error) {
	entity, err := r.store.Get(ctx, TableLeagues, partitionLeagues, leagueID)
	if err != nil {
		return nil, err
	}
	return decodeLeague(entity)
}

// Put inserts or replaces a league row.
func (r *LeagueRepository) Put(ctx context.Context, league *models.League) (*models.League, error) {
	entity, err := tablestore.Marshal(partitionLeagues, league.LeagueID, league)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Upsert(ctx, TableLeagues, entity)
	if err != nil {
		return nil, err
	}
	return decodeLeague(stored)
}

// List returns every league, ordered by id.
func (r *LeagueRepository) List(ctx context.Context) ([]models.League, error) {
	entities, err := r.store.QueryByPartition(ctx, TableLeagues, partitionLeagues)
	if err != nil {
		return nil, err
	}
	leagues := make([]models.League, 0, len(entities))
	for i := range entities {
		league, err := decodeLeague(&entities[i])
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, *league)
	}
	return leagues, nil
}

func decodeLeague(entity *tablestore.Entity) (*models.League, error) {
	var league models.League
	if err := tablestore.Unmarshal(entity, &league); err != nil {
		return nil, err
	}
	league.Version = entity.Version
	league.CreatedAt = entity.CreatedAt
	league.UpdatedAt = entity.UpdatedAt
	return &league, nil
}
