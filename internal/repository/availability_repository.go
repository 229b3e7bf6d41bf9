package repository

import (
	"context"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// AvailabilityRepository persists availability rules and their exceptions,
// both partitioned by league.
type AvailabilityRepository struct {
	store tablestore.Store
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(store tablestore.Store) *AvailabilityRepository {
	return &AvailabilityRepository{store: store}
}

// GetRule loads one rule.
func (r *AvailabilityRepository) GetRule(ctx context.Context, leagueID, ruleID string) (*models.AvailabilityRule, error) {
	entity, err := r.store.Get(ctx, TableRules, leagueID, ruleID)
	if err != nil {
		return nil, err
	}
	return decodeRule(entity)
}

// PutRule inserts or replaces a rule row.
func (r *AvailabilityRepository) PutRule(ctx context.Context, rule *models.AvailabilityRule) (*models.AvailabilityRule, error) {
	entity, err := tablestore.Marshal(rule.LeagueID, rule.RuleID, rule)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Upsert(ctx, TableRules, entity)
	if err != nil {
		return nil, err
	}
	return decodeRule(stored)
}

// DeleteRule removes a rule row.
func (r *AvailabilityRepository) DeleteRule(ctx context.Context, leagueID, ruleID string) error {
	return r.store.Delete(ctx, TableRules, leagueID, ruleID)
}

// ListRules returns the league's rules ordered by rule id.
func (r *AvailabilityRepository) ListRules(ctx context.Context, leagueID string) ([]models.AvailabilityRule, error) {
	entities, err := r.store.QueryByPartition(ctx, TableRules, leagueID)
	if err != nil {
		return nil, err
	}
	rules := make([]models.AvailabilityRule, 0, len(entities))
	for i := range entities {
		rule, err := decodeRule(&entities[i])
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

// PutException inserts or replaces an exception row.
func (r *AvailabilityRepository) PutException(ctx context.Context, exception *models.AvailabilityException) (*models.AvailabilityException, error) {
	entity, err := tablestore.Marshal(exception.LeagueID, exception.ExceptionID, exception)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Upsert(ctx, TableExceptions, entity)
	if err != nil {
		return nil, err
	}
	return decodeException(stored)
}

// DeleteException removes an exception row.
func (r *AvailabilityRepository) DeleteException(ctx context.Context, leagueID, exceptionID string) error {
	return r.store.Delete(ctx, TableExceptions, leagueID, exceptionID)
}

// ListExceptions returns the league's exceptions ordered by exception id.
func (r *AvailabilityRepository) ListExceptions(ctx context.Context, leagueID string) ([]models.AvailabilityException, error) {
	entities, err := r.store.QueryByPartition(ctx, TableExceptions, leagueID)
	if err != nil {
		return nil, err
	}
	exceptions := make([]models.AvailabilityException, 0, len(entities))
	for i := range entities {
		exception, err := decodeException(&entities[i])
		if err != nil {
			return nil, err
		}
		exceptions = append(exceptions, *exception)
	}
	return exceptions, nil
}

func decodeRule(entity *tablestore.Entity) (*models.AvailabilityRule, error) {
	var rule models.AvailabilityRule
	if err := tablestore.Unmarshal(entity, &rule); err != nil {
		return nil, err
	}
	rule.Version = entity.Version
	rule.CreatedAt = entity.CreatedAt
	rule.UpdatedAt = entity.UpdatedAt
	return &rule, nil
}

func decodeException(entity *tablestore.Entity) (*models.AvailabilityException, error) {
	var exception models.AvailabilityException
	if err := tablestore.Unmarshal(entity, &exception); err != nil {
		return nil, err
	}
	exception.Version = entity.Version
	exception.CreatedAt = entity.CreatedAt
	exception.UpdatedAt = entity.UpdatedAt
	return &exception, nil
}
