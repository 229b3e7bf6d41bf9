// Package middleware contains the gin middleware chain: identity resolution,
// role guards and request metrics. CORS and request-id middleware live under
// pkg/middleware because they carry no domain knowledge.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/service"
	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/response"
)

// Identity header names injected by the edge proxy.
const (
	HeaderUserID   = "x-user-id"
	HeaderUserMail = "x-user-email"
	HeaderLeagueID = "x-league-id"
)

// ContextPrincipalKey is the gin context key storing the resolved principal.
const ContextPrincipalKey = "currentPrincipal"

// Identity resolves the edge-injected identity headers into a Principal and
// attaches it to the request context. Missing user headers are a 401; the
// league header is validated by RequireLeague on league-scoped routes.
func Identity(identity *service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		email := c.GetHeader(HeaderUserMail)
		if userID == "" || email == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		principal, err := identity.Resolve(c.Request.Context(), userID, email, c.GetHeader(HeaderLeagueID))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, *principal)
		c.Next()
	}
}

// PrincipalFromContext returns the principal attached by Identity.
func PrincipalFromContext(c *gin.Context) (models.Principal, bool) {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := value.(models.Principal)
	return principal, ok
}
