package repository

import (
	"context"
	"time"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

// UpdateExportJobParams carries the optional fields an export job update may
// touch. Nil pointers leave the stored value unchanged.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// ExportJobRepository persists asynchronous export jobs, partitioned by
// league.
type ExportJobRepository struct {
	store    tablestore.Store
	attempts int
}

// NewExportJobRepository constructs an export job repository.
func NewExportJobRepository(store tablestore.Store, attempts int) *ExportJobRepository {
	if attempts <= 0 {
		attempts = 5
	}
	return &ExportJobRepository{store: store, attempts: attempts}
}

// Create inserts a new job row.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) (*models.ExportJob, error) {
	entity, err := tablestore.Marshal(job.LeagueID, job.JobID, job)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Insert(ctx, TableExportJobs, entity)
	if err != nil {
		return nil, err
	}
	return decodeExportJob(stored)
}

// Get loads one job.
func (r *ExportJobRepository) Get(ctx context.Context, leagueID, jobID string) (*models.ExportJob, error) {
	entity, err := r.store.Get(ctx, TableExportJobs, leagueID, jobID)
	if err != nil {
		return nil, err
	}
	return decodeExportJob(entity)
}

// Update applies the non-nil fields to the stored job.
func (r *ExportJobRepository) Update(ctx context.Context, leagueID, jobID string, params UpdateExportJobParams) (*models.ExportJob, error) {
	stored, err := tablestore.Mutate(ctx, r.store, TableExportJobs, leagueID, jobID, r.attempts, func(current *tablestore.Entity) (*tablestore.Entity, error) {
		if current == nil {
			return nil, tablestore.ErrNotFound
		}
		job, err := decodeExportJob(current)
		if err != nil {
			return nil, err
		}
		if params.Status != nil {
			job.Status = *params.Status
		}
		if params.Progress != nil {
			job.Progress = *params.Progress
		}
		if params.ResultURL != nil {
			job.ResultURL = *params.ResultURL
		}
		if params.ErrorMessage != nil {
			job.ErrorMessage = *params.ErrorMessage
		}
		if params.FinishedAt != nil {
			job.FinishedAt = params.FinishedAt
		}
		return tablestore.Marshal(leagueID, jobID, job)
	})
	if err != nil {
		return nil, err
	}
	return decodeExportJob(stored)
}

// ListQueued scans for jobs still waiting for a worker, across leagues.
// Used once at boot to recover work lost to a restart.
func (r *ExportJobRepository) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	entities, err := r.store.QueryAcrossPartitions(ctx, TableExportJobs)
	if err != nil {
		return nil, err
	}
	jobs := make([]models.ExportJob, 0)
	for i := range entities {
		job, err := decodeExportJob(&entities[i])
		if err != nil {
			return nil, err
		}
		if job.Status != models.ExportStatusQueued {
			continue
		}
		jobs = append(jobs, *job)
		if limit > 0 && len(jobs) >= limit {
			break
		}
	}
	return jobs, nil
}

// ListFinishedBefore scans for terminal jobs older than cutoff; the cleanup
// loop deletes their stored artifacts.
func (r *ExportJobRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	entities, err := r.store.QueryAcrossPartitions(ctx, TableExportJobs)
	if err != nil {
		return nil, err
	}
	jobs := make([]models.ExportJob, 0)
	for i := range entities {
		job, err := decodeExportJob(&entities[i])
		if err != nil {
			return nil, err
		}
		if job.Status != models.ExportStatusFinished && job.Status != models.ExportStatusFailed {
			continue
		}
		if job.FinishedAt == nil || job.FinishedAt.After(cutoff) {
			continue
		}
		jobs = append(jobs, *job)
		if limit > 0 && len(jobs) >= limit {
			break
		}
	}
	return jobs, nil
}

func decodeExportJob(entity *tablestore.Entity) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := tablestore.Unmarshal(entity, &job); err != nil {
		return nil, err
	}
	job.Version = entity.Version
	job.CreatedAt = entity.CreatedAt
	job.UpdatedAt = entity.UpdatedAt
	return &job, nil
}
