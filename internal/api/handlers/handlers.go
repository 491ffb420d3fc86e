package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/poolup/ride-sharing/internal/api/dto"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/internal/domain/driver"
	"github.com/poolup/ride-sharing/internal/domain/review"
	"github.com/poolup/ride-sharing/internal/domain/ride"
	"github.com/poolup/ride-sharing/internal/service/bookings"
	"github.com/poolup/ride-sharing/internal/service/history"
	"github.com/poolup/ride-sharing/internal/service/reviews"
	"github.com/poolup/ride-sharing/internal/service/rides"
	apperrors "github.com/poolup/ride-sharing/pkg/errors"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/poolup/ride-sharing/pkg/websocket"
	"github.com/redis/go-redis/v9"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Rides    *rides.Service
	Bookings *bookings.Service
	Reviews  *reviews.Service
	History  *history.Service
	Redis    *redis.Client
	Logger   *logger.Logger
	Hub      *websocket.Hub
}

// NewHandlers creates a new Handlers instance
func NewHandlers(rideSvc *rides.Service, bookingSvc *bookings.Service, reviewSvc *reviews.Service, historySvc *history.Service, redisClient *redis.Client, log *logger.Logger, hub *websocket.Hub) *Handlers {
	return &Handlers{
		Rides:    rideSvc,
		Bookings: bookingSvc,
		Reviews:  reviewSvc,
		History:  historySvc,
		Redis:    redisClient,
		Logger:   log,
		Hub:      hub,
	}
}

// respondError translates a service error into the HTTP error taxonomy:
// validation failures map to 400, missing resources to 404, role failures
// to 403, state and concurrency losses to 409, everything else to 500.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := h.mapDomainError(err)
	if appErr.Status >= 500 {
		h.Logger.Error("Unexpected error",
			logger.String("path", c.FullPath()),
			logger.Err(err),
		)
	}
	c.JSON(appErr.Status, dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}

func (h *Handlers) mapDomainError(err error) *apperrors.AppError {
	// A rejected transition keeps its detail (current status, allowed next)
	var te *booking.TransitionError
	if errors.As(err, &te) {
		return apperrors.Conflict(te.Error(), err)
	}

	switch {
	case errors.Is(err, ride.ErrRideNotFound):
		return apperrors.ErrRideNotFound
	case errors.Is(err, booking.ErrBookingNotFound):
		return apperrors.ErrBookingNotFound
	case errors.Is(err, review.ErrReviewNotFound):
		return apperrors.ErrReviewNotFound
	case errors.Is(err, driver.ErrDriverNotFound):
		return apperrors.ErrDriverNotFound

	case errors.Is(err, ride.ErrInsufficientSeats):
		return apperrors.ErrInsufficientCapacity
	case errors.Is(err, booking.ErrAlreadyBooked):
		return apperrors.ErrAlreadyBooked
	case errors.Is(err, booking.ErrInvalidTransition):
		return apperrors.ErrInvalidTransition
	case errors.Is(err, booking.ErrTransitionConflict):
		return apperrors.Conflict("Booking was modified concurrently, retry the request", err)
	case errors.Is(err, review.ErrDuplicateReview):
		return apperrors.ErrDuplicateReview
	case errors.Is(err, review.ErrNotCompleted):
		return apperrors.Conflict("Booking is not completed", err)
	case errors.Is(err, ride.ErrRideLocked):
		return apperrors.ErrRideLocked
	case errors.Is(err, ride.ErrRideHasBookings):
		return apperrors.ErrRideHasBookings

	case errors.Is(err, booking.ErrInvalidSeats),
		errors.Is(err, ride.ErrInvalidSeatCount):
		return apperrors.ErrInvalidSeats
	case errors.Is(err, booking.ErrOwnRide):
		return apperrors.BadRequest("Drivers cannot book seats on their own ride", err)
	case errors.Is(err, ride.ErrRideNotBookable):
		return apperrors.ErrRideNotBookable
	case errors.Is(err, ride.ErrInvalidStatus):
		return apperrors.ErrInvalidStatus
	case errors.Is(err, ride.ErrInvalidFare),
		errors.Is(err, ride.ErrDepartureInPast),
		errors.Is(err, ride.ErrInvalidLocation):
		return apperrors.BadRequest(err.Error(), err)
	case errors.Is(err, review.ErrInvalidRating):
		return apperrors.ErrInvalidRating

	case errors.Is(err, booking.ErrNotRideDriver):
		return apperrors.ErrNotRideDriver
	case errors.Is(err, booking.ErrNotBookingPassenger):
		return apperrors.Forbidden("Only the booking's passenger may perform this action", err)
	case errors.Is(err, booking.ErrNotParticipant),
		errors.Is(err, review.ErrNotParticipant):
		return apperrors.ErrNotParticipant
	case errors.Is(err, review.ErrNotReviewer):
		return apperrors.ErrNotReviewer
	case errors.Is(err, review.ErrEditWindowExpired):
		return apperrors.ErrEditWindowExpired
	case errors.Is(err, driver.ErrDriverNotApproved):
		return apperrors.ErrDriverNotApproved
	}

	return apperrors.GetAppError(err)
}
