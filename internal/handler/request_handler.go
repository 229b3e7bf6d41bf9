package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldtime/scheduler-api/internal/dto"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/service"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/response"
)

// RequestHandler serves game or practice requests depending on the kind it
// was constructed with; /requests and /practice-requests share the code.
type RequestHandler struct {
	requests *service.RequestService
	kind     models.RequestKind
}

func NewRequestHandler(requests *service.RequestService, kind models.RequestKind) *RequestHandler {
	return &RequestHandler{requests: requests, kind: kind}
}

// List returns the league's requests, optionally filtered by status.
func (h *RequestHandler) List(c *gin.Context) {
	status := models.RequestStatus(c.Query("status"))
	items, err := h.requests.List(c.Request.Context(), principalFromContext(c), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get returns one request.
func (h *RequestHandler) Get(c *gin.Context) {
	item, err := h.requests.Get(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create files a coach's bid for an open slot.
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.requests.Create(c.Request.Context(), principalFromContext(c), req, h.kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Approve confirms the request's slot for the requesting team.
func (h *RequestHandler) Approve(c *gin.Context) {
	note, ok := h.bindNote(c)
	if !ok {
		return
	}
	item, err := h.requests.Approve(c.Request.Context(), principalFromContext(c), c.Param("id"), h.kind, note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Reject declines the request.
func (h *RequestHandler) Reject(c *gin.Context) {
	note, ok := h.bindNote(c)
	if !ok {
		return
	}
	item, err := h.requests.Reject(c.Request.Context(), principalFromContext(c), c.Param("id"), h.kind, note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Withdraw lets the requester pull a still-pending request.
func (h *RequestHandler) Withdraw(c *gin.Context) {
	item, err := h.requests.Withdraw(c.Request.Context(), principalFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// bindNote reads the optional decision body. An empty body is fine.
func (h *RequestHandler) bindNote(c *gin.Context) (string, bool) {
	var req dto.DecideRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid payload"))
		return "", false
	}
	return req.Note, true
}
