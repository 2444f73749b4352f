package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler       *handler.TripHandler
	AssignmentHandler *handler.AssignmentHandler
	DriverHandler     *handler.DriverHandler
	VehicleHandler    *handler.VehicleHandler
	RedisClient       *redis.Client
	NewRelicApp       *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	router.Use(middleware.ActorMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.GET("", deps.DriverHandler.GetAll)
		}

		// Vehicle routes.
		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("/register", deps.VehicleHandler.Register)
			vehicles.GET("", deps.VehicleHandler.GetAll)
		}

		// Roster assignment routes.
		assignments := v1.Group("/assignments")
		{
			assignments.POST("", deps.AssignmentHandler.Create)
			assignments.GET("", deps.AssignmentHandler.GetAll)
			assignments.POST("/:id/end", deps.AssignmentHandler.End)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.CreateTrip)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/assign", deps.TripHandler.AssignDriver)
			trips.POST("/:id/unassign", deps.TripHandler.UnassignDriver)
			trips.POST("/:id/reassign", deps.TripHandler.ReassignDriver)
			trips.POST("/:id/detach", deps.TripHandler.DetachDriver)
			trips.POST("/:id/start", deps.TripHandler.Start)
			trips.POST("/:id/arrive", deps.TripHandler.Arrive)
			trips.POST("/:id/no-show", deps.TripHandler.NoShow)
			trips.POST("/:id/complete", deps.TripHandler.Complete)
			trips.POST("/:id/cancel", deps.TripHandler.Cancel)
			trips.POST("/:id/location", deps.TripHandler.UpdateLocation)
		}
	}

	return router
}
