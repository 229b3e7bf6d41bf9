package repository

import (
	"context"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// MembershipRepository binds users to leagues. Rows are partitioned by user
// so resolving "what may this caller do here" is a single point read.
type MembershipRepository struct {
	store tablestore.Store
}

// NewMembershipRepository constructs a membership repository.
func NewMembershipRepository(store tablestore.Store) *MembershipRepository {
	return &MembershipRepository{store: store}
}

// Get loads the caller's membership for one league.
func (r *MembershipRepository) Get(ctx context.Context, userID, leagueID string) (*models.Membership, error) {
	entity, err := r.store.Get(ctx, TableMemberships, userID, leagueID)
	if err != nil {
		return nil, err
	}
	return decodeMembership(entity)
}

// Put inserts or replaces a membership row.
func (r *MembershipRepository) Put(ctx context.Context, membership *models.Membership) (*models.Membership, error) {
	entity, err := tablestore.Marshal(membership.UserID, membership.LeagueID, membership)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Upsert(ctx, TableMemberships, entity)
	if err != nil {
		return nil, err
	}
	return decodeMembership(stored)
}

// ListByUser returns all of a user's memberships, ordered by league id.
func (r *MembershipRepository) ListByUser(ctx context.Context, userID string) ([]models.Membership, error) {
	entities, err := r.store.QueryByPartition(ctx, TableMemberships, userID)
	if err != nil {
		return nil, err
	}
	memberships := make([]models.Membership, 0, len(entities))
	for i := range entities {
		membership, err := decodeMembership(&entities[i])
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, *membership)
	}
	return memberships, nil
}

func decodeMembership(entity *tablestore.Entity) (*models.Membership, error) {
	var membership models.Membership
	if err := tablestore.Unmarshal(entity, &membership); err != nil {
		return nil, err
	}
	membership.Version = entity.Version
	membership.CreatedAt = entity.CreatedAt
	membership.UpdatedAt = entity.UpdatedAt
	return &membership, nil
}
