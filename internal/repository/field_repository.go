package repository

import (
	"context"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// FieldRepository reads and writes field rows, partitioned by league and
// keyed by the "park/field" field key.
type FieldRepository struct {
	store tablestore.Store
}

// NewFieldRepository constructs a field repository.
func NewFieldRepository(store tablestore.Store) *FieldRepository {
	return &FieldRepository{store: store}
}

// Get loads one field.
func (r *FieldRepository) Get(ctx context.Context, leagueID, fieldKey string) (*models.Field, error) {
	entity, err := r.store.Get(ctx, TableFields, leagueID, fieldKey)
	if err != nil {
		return nil, err
	}
	return decodeField(entity)
}

// Put inserts or replaces a field row.
func (r *FieldRepository) Put(ctx context.Context, field *models.Field) (*models.Field, error) {
	entity, err := tablestore.Marshal(field.LeagueID, field.FieldKey, field)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Upsert(ctx, TableFields, entity)
	if err != nil {
		return nil, err
	}
	return decodeField(stored)
}

// ListByLeague returns the league's fields ordered by field key.
func (r *FieldRepository) ListByLeague(ctx context.Context, leagueID string) ([]models.Field, error) {
	entities, err := r.store.QueryByPartition(ctx, TableFields, leagueID)
	if err != nil {
		return nil, err
	}
	fields := make([]models.Field, 0, len(entities))
	for i := range entities {
		field, err := decodeField(&entities[i])
		if err != nil {
			return nil, err
		}
		fields = append(fields, *field)
	}
	return fields, nil
}

// DisplayNames builds the fieldKey to display name map used by exports.
func (r *FieldRepository) DisplayNames(ctx context.Context, leagueID string) (map[string]string, error) {
	fields, err := r.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(fields))
	for _, field := range fields {
		names[field.FieldKey] = field.DisplayName
	}
	return names, nil
}

func decodeField(entity *tablestore.Entity) (*models.Field, error) {
	var field models.Field
	if err := tablestore.Unmarshal(entity, &field); err != nil {
		return nil, err
	}
	field.Version = entity.Version
	field.CreatedAt = entity.CreatedAt
	field.UpdatedAt = entity.UpdatedAt
	return &field, nil
}
