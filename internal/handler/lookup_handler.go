package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldtime/scheduler-api/internal/service"
	"github.com/fieldtime/scheduler-api/pkg/response"
)

// LookupHandler serves read-only reference listings.
type LookupHandler struct {
	lookup *service.LookupService
}

func NewLookupHandler(lookup *service.LookupService) *LookupHandler {
	return &LookupHandler{lookup: lookup}
}

// Teams returns the league's teams, optionally filtered by ?division=.
func (h *LookupHandler) Teams(c *gin.Context) {
	teams, err := h.lookup.ListTeams(c.Request.Context(), principalFromContext(c), c.Query("division"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teams, nil)
}

// Fields returns the league's fields.
func (h *LookupHandler) Fields(c *gin.Context) {
	fields, err := h.lookup.ListFields(c.Request.Context(), principalFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fields, nil)
}
