package repository

import (
	"context"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// RequestRepository persists booking requests, partitioned by league.
type RequestRepository struct {
	store    tablestore.Store
	attempts int
}

// NewRequestRepository constructs a request repository.
func NewRequestRepository(store tablestore.Store, attempts int) *RequestRepository {
	if attempts <= 0 {
		attempts = 5
	}
	return &RequestRepository{store: store, attempts: attempts}
}

// Get loads one request.
func (r *RequestRepository) Get(ctx context.Context, leagueID, requestID string) (*models.Request, error) {
	entity, err := r.store.Get(ctx, TableRequests, leagueID, requestID)
	if err != nil {
		return nil, err
	}
	return decodeRequest(entity)
}

// Create inserts a new request row.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) (*models.Request, error) {
	entity, err := tablestore.Marshal(request.LeagueID, request.RequestID, request)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Insert(ctx, TableRequests, entity)
	if err != nil {
		return nil, err
	}
	return decodeRequest(stored)
}

// ListByLeague returns the league's requests ordered by request id,
// optionally narrowed by status.
func (r *RequestRepository) ListByLeague(ctx context.Context, leagueID string, status models.RequestStatus) ([]models.Request, error) {
	entities, err := r.store.QueryByPartition(ctx, TableRequests, leagueID)
	if err != nil {
		return nil, err
	}
	requests := make([]models.Request, 0, len(entities))
	for i := range entities {
		request, err := decodeRequest(&entities[i])
		if err != nil {
			return nil, err
		}
		if status != "" && request.Status != status {
			continue
		}
		requests = append(requests, *request)
	}
	return requests, nil
}

// ListBySlot returns every request targeting one slot, ordered by request id.
func (r *RequestRepository) ListBySlot(ctx context.Context, leagueID, slotID string) ([]models.Request, error) {
	entities, err := r.store.QueryByPartition(ctx, TableRequests, leagueID)
	if err != nil {
		return nil, err
	}
	requests := make([]models.Request, 0)
	for i := range entities {
		request, err := decodeRequest(&entities[i])
		if err != nil {
			return nil, err
		}
		if request.SlotID != slotID {
			continue
		}
		requests = append(requests, *request)
	}
	return requests, nil
}

// Transition applies fn to the request under optimistic concurrency.
func (r *RequestRepository) Transition(ctx context.Context, leagueID, requestID string, fn func(request *models.Request) error) (*models.Request, error) {
	stored, err := tablestore.Mutate(ctx, r.store, TableRequests, leagueID, requestID, r.attempts, func(current *tablestore.Entity) (*tablestore.Entity, error) {
		if current == nil {
			return nil, tablestore.ErrNotFound
		}
		request, err := decodeRequest(current)
		if err != nil {
			return nil, err
		}
		if err := fn(request); err != nil {
			return nil, err
		}
		return tablestore.Marshal(leagueID, requestID, request)
	})
	if err != nil {
		return nil, err
	}
	return decodeRequest(stored)
}

func decodeRequest(entity *tablestore.Entity) (*models.Request, error) {
	var request models.Request
	if err := tablestore.Unmarshal(entity, &request); err != nil {
		return nil, err
	}
	request.Version = entity.Version
	request.CreatedAt = entity.CreatedAt
	request.UpdatedAt = entity.UpdatedAt
	return &request, nil
}
