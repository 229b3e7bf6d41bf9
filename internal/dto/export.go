package dto

import "github.com/fieldtime/scheduler-api/internal/models"

// CreateExportJobRequest queues an asynchronous schedule export.
type CreateExportJobRequest struct {
	Format   models.ExportFormat  `json:"format" binding:"required"`
	Dialect  models.ExportDialect `json:"dialect,omitempty"`
	Division string               `json:"division,omitempty"`
}

// ExportJobResponse is returned on job creation.
type ExportJobResponse struct {
	JobID    string              `json:"jobId"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportJobStatusResponse reports job progress and, when finished, the
// signed download URL.
type ExportJobStatusResponse struct {
	JobID     string              `json:"jobId"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL string              `json:"resultUrl,omitempty"`
	Error     string              `json:"error,omitempty"`
}
