package models

import "time"

// ExportFormat enumerates supported export outputs.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportDialect selects the CSV column layout.
type ExportDialect string

const (
	DialectInternal     ExportDialect = "internal"
	DialectSportsEngine ExportDialect = "sportsengine"
	DialectGameChanger  ExportDialect = "gamechanger"
)

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is a persisted asynchronous schedule export.
type ExportJob struct {
	JobID        string          `json:"jobId"`
	LeagueID     string          `json:"leagueId"`
	Params       ExportJobParams `json:"params"`
	Status       ExportStatus    `json:"status"`
	Progress     int             `json:"progress"`
	ResultURL    string          `json:"resultUrl,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	CreatedBy    string          `json:"createdBy"`
	FinishedAt   *time.Time      `json:"finishedAt,omitempty"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ExportJobParams stores the requested output options.
type ExportJobParams struct {
	Format   ExportFormat  `json:"format"`
	Dialect  ExportDialect `json:"dialect,omitempty"`
	Division string        `json:"division,omitempty"`
}

// ValidExportFormat reports whether the format is supported.
func ValidExportFormat(f ExportFormat) bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

// ValidExportDialect reports whether the dialect is supported.
func ValidExportDialect(d ExportDialect) bool {
	switch d {
	case DialectInternal, DialectSportsEngine, DialectGameChanger:
		return true
	default:
		return false
	}
}
