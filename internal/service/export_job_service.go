package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/repository"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/export"
	"github.com/fieldtime/scheduler-api/pkg/jobs"
	"github.com/fieldtime/scheduler-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) (*models.ExportJob, error)
	Get(ctx context.Context, leagueID, jobID string) (*models.ExportJob, error)
	Update(ctx context.Context, leagueID, jobID string, params repository.UpdateExportJobParams) (*models.ExportJob, error)
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type fieldStore interface {
	DisplayNames(ctx context.Context, leagueID string) (map[string]string, error)
}

type exportPayload struct {
	LeagueID string
	JobID    string
}

// ExportJobService runs schedule exports asynchronously: jobs are persisted,
// processed by a worker pool, written to local storage and handed back
// through HMAC-signed download URLs. Queued jobs survive a restart via a
// boot-time recovery scan, and finished artifacts age out on a timer.
type ExportJobService struct {
	exportJobs exportJobStore
	slots      slotStore
	teams      teamStore
	fields     fieldStore
	files      *storage.LocalStorage
	signer     *storage.SignedURLSigner
	queue      *jobs.Queue
	retention  time.Duration
	metrics    *MetricsService
	logger     *zap.Logger
}

// ExportJobConfig tunes the worker pool and artifact retention.
type ExportJobConfig struct {
	Workers   int
	Retries   int
	Retention time.Duration
	Metrics   *MetricsService
}

// NewExportJobService constructs the service and its worker queue. Start must
// be called before jobs are accepted.
func NewExportJobService(exportJobs exportJobStore, slots slotStore, teams teamStore, fields fieldStore,
	files *storage.LocalStorage, signer *storage.SignedURLSigner, cfg ExportJobConfig, logger *zap.Logger) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	s := &ExportJobService{
		exportJobs: exportJobs,
		slots:      slots,
		teams:      teams,
		fields:     fields,
		files:      files,
		signer:     signer,
		retention:  cfg.Retention,
		metrics:    cfg.Metrics,
		logger:     logger,
	}
	s.queue = jobs.NewQueue("schedule-exports", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return s
}

// Start brings up the workers, re-enqueues jobs that were still queued when
// the previous process died, and launches the artifact cleanup loop.
func (s *ExportJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	s.recoverQueuedJobs(ctx)
	go s.cleanupLoop(ctx)
}

// Stop drains the worker pool.
func (s *ExportJobService) Stop() {
	s.queue.Stop()
}

// CreateJob validates the request, persists a queued job and hands it to the
// workers.
func (s *ExportJobService) CreateJob(ctx context.Context, principal models.Principal, req dto.CreateExportJobRequest) (*dto.ExportJobResponse, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}
	if !models.ValidExportFormat(req.Format) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "format must be csv or pdf")
	}
	dialect := req.Dialect
	if req.Format == models.ExportFormatCSV {
		if dialect == "" {
			dialect = models.DialectInternal
		}
		if !models.ValidExportDialect(dialect) {
			return nil, appErrors.Clone(appErrors.ErrBadRequest, "dialect must be internal, sportsengine or gamechanger")
		}
	} else {
		dialect = ""
	}

	job := &models.ExportJob{
		JobID:    uuid.NewString(),
		LeagueID: principal.LeagueID,
		Params: models.ExportJobParams{
			Format:   req.Format,
			Dialect:  dialect,
			Division: req.Division,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: principal.UserID,
	}
	created, err := s.exportJobs.Create(ctx, job)
	if err != nil {
		return nil, storeError(err)
	}

	if err := s.enqueue(created); err != nil {
		// The recovery scan picks the job up on next boot; report it queued.
		s.logger.Sugar().Warnw("export enqueue failed, job remains queued",
			"league_id", created.LeagueID, "job_id", created.JobID, "error", err)
	}

	s.logger.Sugar().Infow("export job created",
		"league_id", created.LeagueID, "job_id", created.JobID,
		"format", created.Params.Format, "dialect", created.Params.Dialect)
	return &dto.ExportJobResponse{JobID: created.JobID, Status: created.Status, Progress: created.Progress}, nil
}

// GetStatus reports job progress and, once finished, the signed download URL.
func (s *ExportJobService) GetStatus(ctx context.Context, principal models.Principal, jobID string) (*dto.ExportJobStatusResponse, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}
	job, err := s.exportJobs.Get(ctx, principal.LeagueID, jobID)
	if err != nil {
		return nil, storeError(err)
	}
	return &dto.ExportJobStatusResponse{
		JobID:     job.JobID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
		Error:     job.ErrorMessage,
	}, nil
}

// ResolveDownload validates a signed token against the job row and returns
// the artifact's absolute path plus the job for content-type and filename
// decisions. The token alone authorizes the download; possession implies the
// status call that minted it passed the admin gate.
func (s *ExportJobService) ResolveDownload(ctx context.Context, leagueID, jobID, token string) (string, *models.ExportJob, error) {
	tokenJobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	if tokenJobID != jobID {
		return "", nil, appErrors.Clone(appErrors.ErrForbidden, "token does not match job")
	}
	job, err := s.exportJobs.Get(ctx, leagueID, jobID)
	if err != nil {
		return "", nil, storeError(err)
	}
	if job.Status != models.ExportStatusFinished {
		return "", nil, appErrors.Clone(appErrors.ErrBadRequest, "export is not finished")
	}
	return s.files.Path(relPath), job, nil
}

// RenderScheduleCSV is the synchronous export path behind
// GET /schedule/export: render the requested dialect inline instead of
// queueing a job.
func (s *ExportJobService) RenderScheduleCSV(ctx context.Context, principal models.Principal, dialect models.ExportDialect, division string) ([]byte, error) {
	if !principal.IsLeagueAdmin() {
		return nil, appErrors.ErrForbidden
	}
	if dialect == "" {
		dialect = models.DialectInternal
	}
	if !models.ValidExportDialect(dialect) {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "dialect must be internal, sportsengine or gamechanger")
	}
	data, _, err := s.render(ctx, &models.ExportJob{
		LeagueID: principal.LeagueID,
		Params:   models.ExportJobParams{Format: models.ExportFormatCSV, Dialect: dialect, Division: division},
	})
	if err != nil {
		return nil, storeError(err)
	}
	return data, nil
}

func (s *ExportJobService) enqueue(job *models.ExportJob) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      job.JobID,
		Type:    "schedule-export",
		Payload: exportPayload{LeagueID: job.LeagueID, JobID: job.JobID},
	})
}

// handle is the queue worker body: render the export, store the artifact,
// mint the signed URL and finish the job. Failures mark the job FAILED; the
// queue's retry policy re-runs transient ones.
func (s *ExportJobService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		s.logger.Sugar().Errorw("export job with malformed payload dropped", "job_id", job.ID)
		return nil
	}

	record, err := s.exportJobs.Get(ctx, payload.LeagueID, payload.JobID)
	if err != nil {
		return err
	}
	if record.Status == models.ExportStatusFinished || record.Status == models.ExportStatusFailed {
		return nil
	}

	if err := s.setProgress(ctx, payload, models.ExportStatusProcessing, 10); err != nil {
		return err
	}

	data, ext, err := s.render(ctx, record)
	if err != nil {
		s.fail(ctx, payload, err)
		return nil
	}
	if err := s.setProgress(ctx, payload, models.ExportStatusProcessing, 70); err != nil {
		return err
	}

	relPath := fmt.Sprintf("%s/%s.%s", payload.LeagueID, payload.JobID, ext)
	if _, err := s.files.Save(relPath, data); err != nil {
		s.fail(ctx, payload, err)
		return nil
	}

	token, _, err := s.signer.Generate(payload.JobID, relPath)
	if err != nil {
		s.fail(ctx, payload, err)
		return nil
	}

	finished := models.ExportStatusFinished
	progress := 100
	resultURL := fmt.Sprintf("/api/v1/exports/%s/download?token=%s", payload.JobID, token)
	now := time.Now().UTC()
	_, err = s.exportJobs.Update(ctx, payload.LeagueID, payload.JobID, repository.UpdateExportJobParams{
		Status:     &finished,
		Progress:   &progress,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	})
	if err != nil {
		return err
	}
	s.metrics.CountExportJob(string(models.ExportStatusFinished))
	s.logger.Sugar().Infow("export job finished",
		"league_id", payload.LeagueID, "job_id", payload.JobID, "path", relPath)
	return nil
}

// render builds the denormalized schedule rows and encodes them in the
// requested format.
func (s *ExportJobService) render(ctx context.Context, job *models.ExportJob) ([]byte, string, error) {
	slots, err := s.slots.List(ctx, job.LeagueID, models.SlotFilter{
		Division: job.Params.Division,
		Status:   models.SlotConfirmed,
	})
	if err != nil {
		return nil, "", err
	}
	teams, err := s.teams.ListByLeague(ctx, job.LeagueID, "")
	if err != nil {
		return nil, "", err
	}
	teamNames := make(map[string]string, len(teams))
	for _, team := range teams {
		teamNames[team.TeamID] = team.Name
	}
	fieldNames, err := s.fields.DisplayNames(ctx, job.LeagueID)
	if err != nil {
		return nil, "", err
	}

	rows := make([]export.ScheduleRow, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, export.ScheduleRow{
			SlotID:       slot.SlotID,
			GameDate:     slot.GameDate,
			StartMin:     slot.StartMin,
			EndMin:       slot.EndMin,
			FieldKey:     slot.FieldKey,
			Division:     slot.Division,
			GameType:     string(slot.GameType),
			HomeTeamID:   slot.HomeTeamID,
			AwayTeamID:   slot.AwayTeamID,
			HomeTeamName: teamNames[slot.HomeTeamID],
			AwayTeamName: teamNames[slot.AwayTeamID],
			FieldName:    fieldNames[slot.FieldKey],
		})
	}

	if job.Params.Format == models.ExportFormatPDF {
		title := "Season Schedule"
		if job.Params.Division != "" {
			title = job.Params.Division + " Season Schedule"
		}
		data, err := export.SchedulePDF(rows, title)
		return data, "pdf", err
	}

	var data []byte
	switch job.Params.Dialect {
	case models.DialectSportsEngine:
		data, err = export.SportsEngineCSV(rows)
	case models.DialectGameChanger:
		data, err = export.GameChangerCSV(rows)
	default:
		data, err = export.InternalCSV(rows)
	}
	return data, "csv", err
}

func (s *ExportJobService) setProgress(ctx context.Context, payload exportPayload, status models.ExportStatus, progress int) error {
	_, err := s.exportJobs.Update(ctx, payload.LeagueID, payload.JobID, repository.UpdateExportJobParams{
		Status:   &status,
		Progress: &progress,
	})
	return err
}

func (s *ExportJobService) fail(ctx context.Context, payload exportPayload, cause error) {
	failed := models.ExportStatusFailed
	message := cause.Error()
	now := time.Now().UTC()
	_, err := s.exportJobs.Update(ctx, payload.LeagueID, payload.JobID, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	})
	if err != nil {
		s.logger.Sugar().Errorw("marking export job failed",
			"league_id", payload.LeagueID, "job_id", payload.JobID, "error", err)
	}
	s.metrics.CountExportJob(string(models.ExportStatusFailed))
	s.logger.Sugar().Warnw("export job failed",
		"league_id", payload.LeagueID, "job_id", payload.JobID, "cause", cause)
}

// recoverQueuedJobs re-enqueues jobs a previous process accepted but never
// ran.
func (s *ExportJobService) recoverQueuedJobs(ctx context.Context) {
	queued, err := s.exportJobs.ListQueued(ctx, 0)
	if err != nil {
		s.logger.Sugar().Warnw("export job recovery scan failed", "error", err)
		return
	}
	for i := range queued {
		if err := s.enqueue(&queued[i]); err != nil {
			s.logger.Sugar().Warnw("requeueing recovered export job failed",
				"job_id", queued[i].JobID, "error", err)
		}
	}
	if len(queued) > 0 {
		s.logger.Sugar().Infow("recovered queued export jobs", "count", len(queued))
	}
}

// cleanupLoop deletes artifacts past retention once an hour.
func (s *ExportJobService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.files.CleanupOlderThan(s.retention)
			if err != nil {
				s.logger.Sugar().Warnw("export artifact cleanup failed", "error", err)
				continue
			}
			if len(deleted) > 0 {
				s.logger.Sugar().Infow("export artifacts cleaned up", "count", len(deleted))
			}
		}
	}
}
