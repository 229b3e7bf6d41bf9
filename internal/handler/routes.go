package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldtime/scheduler-api/internal/middleware"
	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/service"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Identity     *service.IdentityService
	Metrics      *service.MetricsService
	Slots        *service.SlotService
	Requests     *service.RequestService
	Availability *service.AvailabilityService
	Schedule     *service.ScheduleService
	Exports      *service.ExportJobService
	Lookup       *service.LookupService

	// Ready reports backend health for the readiness probe.
	Ready func() error
}

// Register mounts the probe endpoints and the versioned API.
func Register(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	slots := NewSlotHandler(d.Slots)
	gameRequests := NewRequestHandler(d.Requests, models.RequestKindGame)
	practiceRequests := NewRequestHandler(d.Requests, models.RequestKindPractice)
	availability := NewAvailabilityHandler(d.Availability)
	schedule := NewScheduleHandler(d.Schedule, d.Exports)
	exports := NewExportHandler(d.Exports)
	lookup := NewLookupHandler(d.Lookup)

	api := r.Group("/api/v1")
	api.Use(middleware.Metrics(d.Metrics))
	api.Use(middleware.Identity(d.Identity))
	api.Use(middleware.RequireLeague())

	api.GET("/slots", slots.List)
	api.POST("/slots", slots.Create)
	api.GET("/slots/:id", slots.Get)
	api.PATCH("/slots/:id", slots.Update)
	api.DELETE("/slots/:id", slots.Cancel)

	api.GET("/requests", gameRequests.List)
	api.POST("/requests", gameRequests.Create)
	api.GET("/requests/:id", gameRequests.Get)
	api.PATCH("/requests/:id/approve", gameRequests.Approve)
	api.PATCH("/requests/:id/reject", gameRequests.Reject)
	api.POST("/requests/:id/withdraw", gameRequests.Withdraw)

	api.POST("/practice-requests", practiceRequests.Create)
	api.PATCH("/practice-requests/:id/approve", practiceRequests.Approve)
	api.PATCH("/practice-requests/:id/reject", practiceRequests.Reject)
	api.POST("/practice-requests/:id/withdraw", practiceRequests.Withdraw)

	admin := api.Group("")
	admin.Use(middleware.RequireLeagueAdmin())

	admin.GET("/availability/rules", availability.ListRules)
	admin.POST("/availability/rules", availability.CreateRule)
	admin.DELETE("/availability/rules/:id", availability.DeleteRule)
	admin.GET("/availability/exceptions", availability.ListExceptions)
	admin.POST("/availability/exceptions", availability.CreateException)
	admin.DELETE("/availability/exceptions/:id", availability.DeleteException)
	admin.POST("/availability/expand", availability.Expand)

	admin.POST("/schedule/preview", schedule.Preview)
	admin.POST("/schedule/apply", schedule.Apply)
	admin.GET("/schedule/export", schedule.ExportCSV)

	admin.POST("/exports", exports.Create)
	admin.GET("/exports/:id", exports.Status)
	// The signed token in the query string authorizes the download, so no
	// admin gate here.
	api.GET("/exports/:id/download", exports.Download)

	api.GET("/teams", lookup.Teams)
	api.GET("/fields", lookup.Fields)
}
