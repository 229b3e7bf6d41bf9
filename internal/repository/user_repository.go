package repository

import (
	"context"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// UserRepository reads and writes user rows. Users are identities referenced
// by edge-injected headers; the service stores the globalAdmin flag here and
// nothing security-sensitive.
type UserRepository struct {
	store tablestore.Store
}

// NewUserRepository constructs a user repository.
func NewUserRepository(store tablestore.Store) *UserRepository {
	return &UserRepository{store: store}
}

// Get loads one user by id.
func (r *UserRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	entity, err := r.store.Get(ctx, TableUsers, partitionUsers, userID)
	if err != nil {
		return nil, err
	}
	return decodeUser(entity)
}

// Put inserts or replaces a user row.
func (r *UserRepository) Put(ctx context.Context, user *models.User) (*models.User, error) {
	entity, err := tablestore.Marshal(partitionUsers, user.UserID, user)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Upsert(ctx, TableUsers, entity)
	if err != nil {
		return nil, err
	}
	return decodeUser(stored)
}

func decodeUser(entity *tablestore.Entity) (*models.User, error) {
	var user models.User
	if err := tablestore.Unmarshal(entity, &user); err != nil {
		return nil, err
	}
	user.Version = entity.Version
	user.CreatedAt = entity.CreatedAt
	user.UpdatedAt = entity.UpdatedAt
	return &user, nil
}
