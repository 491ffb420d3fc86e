package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/poolup/ride-sharing/internal/api/handlers"
	"github.com/poolup/ride-sharing/internal/api/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// WebSocket connection
		v1.GET("/ws", h.HandleWebSocket)

		// Public ride discovery
		v1.GET("/rides", h.ListRides)
		v1.GET("/rides/search", h.SearchRides)
		v1.GET("/rides/nearby", h.NearbyRides)
		v1.GET("/rides/:id", h.GetRide)

		// Public driver reputation
		v1.GET("/drivers/:id/reviews", h.DriverReviews)
		v1.GET("/drivers/:id/rating", h.DriverRating)

		authed := v1.Group("")
		authed.Use(middleware.Authenticated())
		{
			// Ride management (driver side)
			rides := authed.Group("/rides")
			{
				rides.POST("", middleware.RequireRole("driver"), h.CreateRide)
				rides.GET("/mine", h.MyRides)
				rides.PUT("/:id", h.UpdateRide)
				rides.PATCH("/:id/status", h.UpdateRideStatus)
				rides.DELETE("/:id", h.DeleteRide)
				rides.GET("/:id/bookings", h.RideBookings)
			}

			// Booking lifecycle
			bookings := authed.Group("/bookings")
			{
				bookings.POST("", h.CreateBooking)
				bookings.GET("", h.MyBookings)
				bookings.GET("/:id", h.GetBooking)
				bookings.POST("/:id/respond", h.RespondBooking)
				bookings.POST("/:id/cancel", h.CancelBooking)
				bookings.PATCH("/:id/status", h.UpdateBookingStatus)
				bookings.GET("/:id/can-review", h.CanReview)
			}

			// Review ledger
			reviews := authed.Group("/reviews")
			{
				reviews.POST("", h.CreateReview)
				reviews.PUT("/:id", h.UpdateReview)
				reviews.DELETE("/:id", h.DeleteReview)
			}

			// History and stats
			history := authed.Group("/history")
			{
				history.GET("/driver", middleware.RequireRole("driver"), h.DriverDashboard)
				history.GET("/passenger", h.PassengerHistory)
			}
		}
	}
}
