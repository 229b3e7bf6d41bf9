package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/service"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/response"
)

// ExportHandler manages asynchronous export jobs and their downloads.
type ExportHandler struct {
	exports *service.ExportJobService
}

func NewExportHandler(exports *service.ExportJobService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create queues an export job and returns its id immediately.
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.CreateExportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	job, err := h.exports.CreateJob(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status reports job progress and, once finished, the signed download URL.
func (h *ExportHandler) Status(c *gin.Context) {
	status, err := h.exports.GetStatus(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download streams a finished artifact. The signed token in the query string
// authorizes access; it was minted by the admin-gated status endpoint.
func (h *ExportHandler) Download(c *gin.Context) {
	principal := principalFromContext(c)
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download token is required"))
		return
	}
	path, job, err := h.exports.ResolveDownload(c.Request.Context(), principal.LeagueID, c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("schedule-%s.%s", job.JobID, job.Params.Format)
	if job.Params.Format == models.ExportFormatCSV {
		c.Header("Content-Type", "text/csv; charset=utf-8")
	} else {
		c.Header("Content-Type", "application/pdf")
	}
	c.FileAttachment(path, filename)
}
