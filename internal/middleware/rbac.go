package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/fieldtime/scheduler-api/pkg/errors"
	"github.com/fieldtime/scheduler-api/pkg/response"
)

// RequireLeague rejects league-scoped requests missing the x-league-id
// header with a 400, per the edge contract.
func RequireLeague() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if principal.LeagueID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "x-league-id header is required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireLeagueAdmin allows only league admins (or global admins) through.
// Fine-grained rules such as coach-owns-team stay in the services, which see
// the full entity.
func RequireLeagueAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !principal.IsLeagueAdmin() {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
