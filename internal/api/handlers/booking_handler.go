package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/api/dto"
	"github.com/poolup/ride-sharing/internal/api/middleware"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/pkg/logger"
)

// idempotencyTTL is how long a booking creation response is replayed for
// the same Idempotency-Key.
const idempotencyTTL = 24 * time.Hour

// CreateBooking handles POST /v1/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	ctx := c.Request.Context()
	principal, _ := middleware.CurrentPrincipal(c)

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	rideID, err := uuid.Parse(req.RideID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride ID"})
		return
	}

	// Replay the original response when the client retries with the same key
	idempotencyKey := c.GetHeader("Idempotency-Key")
	cacheKey := ""
	if idempotencyKey != "" && h.Redis != nil {
		cacheKey = fmt.Sprintf("booking:idempotency:%s:%s", principal.ID, idempotencyKey)
		if cached, err := h.Redis.Get(ctx, cacheKey).Result(); err == nil {
			h.Logger.Info("Returning cached booking response",
				logger.String("idempotency_key", idempotencyKey),
			)
			var b booking.Booking
			if err := json.Unmarshal([]byte(cached), &b); err == nil {
				c.JSON(http.StatusOK, &b)
				return
			}
		}
	}

	b, err := h.Bookings.Create(ctx, principal.ID, rideID, req.Seats)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if cacheKey != "" {
		if data, err := json.Marshal(b); err == nil {
			if err := h.Redis.Set(ctx, cacheKey, data, idempotencyTTL).Err(); err != nil {
				h.Logger.Warn("Failed to cache booking response", logger.Err(err))
			}
		}
	}

	c.JSON(http.StatusCreated, b)
}

// GetBooking handles GET /v1/bookings/:id
func (h *Handlers) GetBooking(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	b, err := h.Bookings.GetByID(c.Request.Context(), principal.ID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// MyBookings handles GET /v1/bookings
func (h *Handlers) MyBookings(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)
	ctx := c.Request.Context()

	var (
		list []*booking.Booking
		err  error
	)
	if c.Query("active") == "true" {
		list, err = h.Bookings.ListActive(ctx, principal.ID)
	} else {
		list, err = h.Bookings.ListMine(ctx, principal.ID)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": list, "count": len(list)})
}

// RideBookings handles GET /v1/rides/:id/bookings
func (h *Handlers) RideBookings(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride ID"})
		return
	}

	list, err := h.Bookings.ListForRide(c.Request.Context(), principal.ID, rideID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": list, "count": len(list)})
}

// RespondBooking handles POST /v1/bookings/:id/respond
func (h *Handlers) RespondBooking(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req dto.RespondBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	b, err := h.Bookings.Respond(c.Request.Context(), principal.ID, id, *req.Accept)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *Handlers) CancelBooking(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req dto.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	b, err := h.Bookings.Cancel(c.Request.Context(), principal.ID, id, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// UpdateBookingStatus handles PATCH /v1/bookings/:id/status
func (h *Handlers) UpdateBookingStatus(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	b, err := h.Bookings.UpdateStatus(c.Request.Context(), principal.ID, id, booking.Status(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}
