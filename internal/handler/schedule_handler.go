package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/service"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/response"
)

// ScheduleHandler serves the round-robin generator endpoints plus the
// synchronous CSV export.
type ScheduleHandler struct {
	schedule *service.ScheduleService
	exports  *service.ExportJobService
}

func NewScheduleHandler(schedule *service.ScheduleService, exports *service.ExportJobService) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule, exports: exports}
}

// Preview runs the generator and validator without persisting anything.
func (h *ScheduleHandler) Preview(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.schedule.Preview(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Apply runs the generator and confirms the assignments on their slots.
func (h *ScheduleHandler) Apply(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.schedule.Apply(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportCSV renders the confirmed schedule as a CSV attachment in the
// requested dialect.
func (h *ScheduleHandler) ExportCSV(c *gin.Context) {
	dialect := models.ExportDialect(c.Query("dialect"))
	division := c.Query("division")
	data, err := h.exports.RenderScheduleCSV(c.Request.Context(), principalFromContext(c), dialect, division)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("schedule-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
