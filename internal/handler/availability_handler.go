package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/service"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/response"
)

// AvailabilityHandler manages recurring availability rules, their exceptions
// and the expansion endpoint that turns both into draft slots.
type AvailabilityHandler struct {
	availability *service.AvailabilityService
}

func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// ListRules returns the league's availability rules.
func (h *AvailabilityHandler) ListRules(c *gin.Context) {
	rules, err := h.availability.ListRules(c.Request.Context(), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// CreateRule adds a recurring rule.
func (h *AvailabilityHandler) CreateRule(c *gin.Context) {
	var req dto.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.availability.CreateRule(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// DeleteRule removes a rule. Slots already expanded from it are untouched.
func (h *AvailabilityHandler) DeleteRule(c *gin.Context) {
	if err := h.availability.DeleteRule(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListExceptions returns the league's exceptions.
func (h *AvailabilityHandler) ListExceptions(c *gin.Context) {
	exceptions, err := h.availability.ListExceptions(c.Request.Context(), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exceptions, nil)
}

// CreateException carves a time range out of a rule's occurrences.
func (h *AvailabilityHandler) CreateException(c *gin.Context) {
	var req dto.CreateExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	exception, err := h.availability.CreateException(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exception)
}

// DeleteException removes an exception.
func (h *AvailabilityHandler) DeleteException(c *gin.Context) {
	if err := h.availability.DeleteException(c.Request.Context(), principalFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Expand materializes the rules over a window into open slots, or reports
// the drafts when dryRun is set.
func (h *AvailabilityHandler) Expand(c *gin.Context) {
	var req dto.ExpandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.availability.Expand(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
