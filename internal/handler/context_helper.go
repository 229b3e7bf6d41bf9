// Package handler exposes the HTTP endpoints. Handlers bind and validate
// payloads, pull the resolved principal off the context and delegate every
// decision to the services.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldtime/scheduler-api/internal/middleware"
	"github.com/fieldtime/scheduler-api/internal/models"
)

func principalFromContext(c *gin.Context) models.Principal {
	principal, _ := middleware.PrincipalFromContext(c)
	return principal
}
