package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/api/dto"
	"github.com/poolup/ride-sharing/internal/api/middleware"
	"github.com/poolup/ride-sharing/internal/domain/review"
	"github.com/poolup/ride-sharing/internal/service/reviews"
)

// CreateReview handles POST /v1/reviews
func (h *Handlers) CreateReview(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	rv, err := h.Reviews.Create(c.Request.Context(), principal.ID, bookingID, reviewInput(req.Rating, req.Comment, req.Aspects))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rv)
}

// UpdateReview handles PUT /v1/reviews/:id
func (h *Handlers) UpdateReview(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	rv, err := h.Reviews.Update(c.Request.Context(), principal.ID, id, reviewInput(req.Rating, req.Comment, req.Aspects))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rv)
}

// DeleteReview handles DELETE /v1/reviews/:id
func (h *Handlers) DeleteReview(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return
	}

	if err := h.Reviews.Delete(c.Request.Context(), principal.ID, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Review deleted"})
}

// DriverReviews handles GET /v1/drivers/:id/reviews
func (h *Handlers) DriverReviews(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID"})
		return
	}

	list, err := h.Reviews.ListForDriver(c.Request.Context(), driverID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": list, "count": len(list)})
}

// DriverRating handles GET /v1/drivers/:id/rating
func (h *Handlers) DriverRating(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver ID"})
		return
	}

	rating, err := h.Reviews.DriverRating(c.Request.Context(), driverID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DriverRatingResponse{DriverID: driverID.String(), Rating: rating})
}

// CanReview handles GET /v1/bookings/:id/can-review
func (h *Handlers) CanReview(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	ok, err := h.Reviews.CanReview(c.Request.Context(), principal.ID, bookingID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"can_review": ok})
}

func reviewInput(rating int, comment string, aspects dto.AspectRatingsRequest) reviews.ReviewInput {
	return reviews.ReviewInput{
		Rating:  rating,
		Comment: comment,
		Aspects: review.AspectRatings{
			Punctuality:   aspects.Punctuality,
			Driving:       aspects.Driving,
			Cleanliness:   aspects.Cleanliness,
			Communication: aspects.Communication,
		},
	}
}
