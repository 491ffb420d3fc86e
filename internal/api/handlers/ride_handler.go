package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/api/dto"
	"github.com/poolup/ride-sharing/internal/api/middleware"
	"github.com/poolup/ride-sharing/internal/domain/ride"
	"github.com/poolup/ride-sharing/internal/service/rides"
)

// CreateRide handles POST /v1/rides
func (h *Handlers) CreateRide(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	var req dto.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	rd, err := h.Rides.Create(c.Request.Context(), principal.ID, rideInput(req.Origin, req.Destination, req.DepartureTime, req.TotalSeats, req.FarePerSeat, req.VehicleNote))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rd)
}

// GetRide handles GET /v1/rides/:id
func (h *Handlers) GetRide(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride ID"})
		return
	}

	rd, err := h.Rides.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rd)
}

// ListRides handles GET /v1/rides
func (h *Handlers) ListRides(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.Rides.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rides": list, "count": len(list)})
}

// SearchRides handles GET /v1/rides/search
func (h *Handlers) SearchRides(c *gin.Context) {
	filter := ride.SearchFilter{
		FromCity: c.Query("from_city"),
		ToCity:   c.Query("to_city"),
	}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		filter.Date = &date
	}
	if raw := c.Query("min_seats"); raw != "" {
		minSeats, err := strconv.Atoi(raw)
		if err != nil || minSeats < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_seats"})
			return
		}
		filter.MinSeats = minSeats
	}

	list, err := h.Rides.Search(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rides": list, "count": len(list)})
}

// NearbyRides handles GET /v1/rides/nearby
func (h *Handlers) NearbyRides(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng query parameters are required"})
		return
	}
	radiusKM, _ := strconv.ParseFloat(c.Query("radius_km"), 64)

	list, err := h.Rides.SearchNearby(c.Request.Context(), lat, lng, radiusKM)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rides": list, "count": len(list)})
}

// MyRides handles GET /v1/rides/mine
func (h *Handlers) MyRides(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	list, err := h.Rides.ListByDriver(c.Request.Context(), principal.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rides": list, "count": len(list)})
}

// UpdateRide handles PUT /v1/rides/:id
func (h *Handlers) UpdateRide(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride ID"})
		return
	}

	var req dto.UpdateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	rd, err := h.Rides.Update(c.Request.Context(), principal.ID, id, rideInput(req.Origin, req.Destination, req.DepartureTime, req.TotalSeats, req.FarePerSeat, req.VehicleNote))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rd)
}

// UpdateRideStatus handles PATCH /v1/rides/:id/status
func (h *Handlers) UpdateRideStatus(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride ID"})
		return
	}

	var req dto.UpdateRideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	rd, err := h.Rides.UpdateStatus(c.Request.Context(), principal.ID, id, ride.Status(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rd)
}

// DeleteRide handles DELETE /v1/rides/:id
func (h *Handlers) DeleteRide(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride ID"})
		return
	}

	if err := h.Rides.Delete(c.Request.Context(), principal.ID, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Ride deleted"})
}

func rideInput(origin, destination dto.LocationRequest, departure time.Time, seats int, fare float64, note string) rides.RideInput {
	return rides.RideInput{
		Origin:        location(origin),
		Destination:   location(destination),
		DepartureTime: departure,
		TotalSeats:    seats,
		FarePerSeat:   fare,
		VehicleNote:   note,
	}
}

func location(l dto.LocationRequest) ride.Location {
	return ride.Location{
		Address:   l.Address,
		City:      l.City,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
	}
}
