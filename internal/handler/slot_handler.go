package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/service"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/response"
)

// SlotHandler exposes slot CRUD endpoints.
type SlotHandler struct {
	slots *service.SlotService
}

// NewSlotHandler constructs the handler.
func NewSlotHandler(slots *service.SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

// List returns the league's slots matching the query filters.
func (h *SlotHandler) List(c *gin.Context) {
	var query dto.ListSlotsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	slots, err := h.slots.List(c.Request.Context(), principalFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Get returns one slot.
func (h *SlotHandler) Get(c *gin.Context) {
	slot, err := h.slots.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Create adds a manual slot or a coach offer.
func (h *SlotHandler) Create(c *gin.Context) {
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.slots.Create(c.Request.Context(), principalFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Update moves or resizes a slot, guarded by the expected version.
func (h *SlotHandler) Update(c *gin.Context) {
	var req dto.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.slots.Update(c.Request.Context(), principalFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Cancel marks a slot cancelled.
func (h *SlotHandler) Cancel(c *gin.Context) {
	slot, err := h.slots.Cancel(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}
