package reviews

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/poolup/ride-sharing/internal/domain/booking"
	"github.com/poolup/ride-sharing/internal/domain/review"
	"github.com/poolup/ride-sharing/internal/domain/ride"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ratingCacheTTL bounds how long a cached driver rating may serve reads
const ratingCacheTTL = 10 * time.Minute

// ReviewInput carries the reviewer-controlled fields
type ReviewInput struct {
	Rating  int
	Comment string
	Aspects review.AspectRatings
}

// Service is the review ledger plus the rating aggregator. Creation gates
// on booking completion and participation; every write that can move a
// driver's visible passenger-to-driver set triggers a wholesale recompute.
type Service struct {
	reviews  review.Repository
	bookings booking.Repository
	rides    ride.Repository
	redis    *redis.Client
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates a new review service
func NewService(reviews review.Repository, bookings booking.Repository, rides ride.Repository, redisClient *redis.Client, log *logger.Logger) *Service {
	return &Service{
		reviews:  reviews,
		bookings: bookings,
		rides:    rides,
		redis:    redisClient,
		logger:   log,
		now:      time.Now,
	}
}

// Create records a review for a completed booking. The reviewer must be the
// booking's passenger or the ride's driver; that determines the direction
// and the reviewee. Duplicates per (booking, reviewer) are rejected.
func (s *Service) Create(ctx context.Context, reviewerID, bookingID uuid.UUID, input ReviewInput) (*review.Review, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != booking.StatusCompleted {
		return nil, review.ErrNotCompleted
	}

	rd, err := s.rides.GetByID(ctx, b.RideID)
	if err != nil {
		return nil, err
	}

	var reviewType review.Type
	var revieweeID uuid.UUID
	switch reviewerID {
	case b.PassengerID:
		reviewType = review.TypePassengerToDriver
		revieweeID = rd.DriverID
	case rd.DriverID:
		reviewType = review.TypeDriverToPassenger
		revieweeID = b.PassengerID
	default:
		return nil, review.ErrNotParticipant
	}

	rv := &review.Review{
		ID:         uuid.New(),
		BookingID:  bookingID,
		RideID:     b.RideID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Type:       reviewType,
		Rating:     input.Rating,
		Comment:    input.Comment,
		Aspects:    input.Aspects,
		Visible:    true,
		CreatedAt:  s.now(),
	}
	if err := rv.Validate(); err != nil {
		return nil, err
	}

	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}

	s.logger.Info("Review created",
		logger.String("review_id", rv.ID.String()),
		logger.String("booking_id", bookingID.String()),
		logger.String("review_type", string(reviewType)),
		logger.Int("rating", input.Rating),
	)

	if reviewType == review.TypePassengerToDriver {
		s.recompute(ctx, revieweeID)
	}

	return s.reviews.GetByID(ctx, rv.ID)
}

// Update edits a review. Only the original reviewer, only inside the edit
// window, and a passenger-to-driver edit re-triggers the aggregator.
func (s *Service) Update(ctx context.Context, reviewerID, reviewID uuid.UUID, input ReviewInput) (*review.Review, error) {
	rv, err := s.editable(ctx, reviewerID, reviewID)
	if err != nil {
		return nil, err
	}

	rv.Rating = input.Rating
	rv.Comment = input.Comment
	rv.Aspects = input.Aspects
	if err := rv.Validate(); err != nil {
		return nil, err
	}

	if err := s.reviews.Update(ctx, rv); err != nil {
		return nil, err
	}

	s.logger.Info("Review updated", logger.String("review_id", reviewID.String()))

	if rv.Type == review.TypePassengerToDriver {
		s.recompute(ctx, rv.RevieweeID)
	}
	return s.reviews.GetByID(ctx, reviewID)
}

// Delete removes a review under the same reviewer/window rules as Update
func (s *Service) Delete(ctx context.Context, reviewerID, reviewID uuid.UUID) error {
	rv, err := s.editable(ctx, reviewerID, reviewID)
	if err != nil {
		return err
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}

	s.logger.Info("Review deleted", logger.String("review_id", reviewID.String()))

	if rv.Type == review.TypePassengerToDriver {
		s.recompute(ctx, rv.RevieweeID)
	}
	return nil
}

// ListForDriver returns a driver's visible passenger-to-driver reviews
func (s *Service) ListForDriver(ctx context.Context, driverID uuid.UUID) ([]*review.Review, error) {
	return s.reviews.ListVisibleForDriver(ctx, driverID)
}

// DriverRating returns the driver's current aggregate rating, serving from
// cache when fresh. The recompute is idempotent, so a cold cache just runs
// it again.
func (s *Service) DriverRating(ctx context.Context, driverID uuid.UUID) (float64, error) {
	key := ratingCacheKey(driverID)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			if rating, err := strconv.ParseFloat(cached, 64); err == nil {
				return rating, nil
			}
		}
	}

	rating, err := s.reviews.RecomputeDriverRating(ctx, driverID)
	if err != nil {
		return 0, err
	}
	if s.redis != nil {
		s.redis.Set(ctx, key, fmt.Sprintf("%.1f", rating), ratingCacheTTL)
	}
	return rating, nil
}

// CanReview reports whether the user may still review the booking
func (s *Service) CanReview(ctx context.Context, userID, bookingID uuid.UUID) (bool, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if b.Status != booking.StatusCompleted {
		return false, nil
	}

	rd, err := s.rides.GetByID(ctx, b.RideID)
	if err != nil {
		return false, err
	}
	if userID != b.PassengerID && userID != rd.DriverID {
		return false, nil
	}

	exists, err := s.reviews.ExistsForBooking(ctx, bookingID, userID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *Service) editable(ctx context.Context, reviewerID, reviewID uuid.UUID) (*review.Review, error) {
	rv, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if rv.ReviewerID != reviewerID {
		return nil, review.ErrNotReviewer
	}
	if !rv.Editable(s.now()) {
		return nil, review.ErrEditWindowExpired
	}
	return rv, nil
}

// recompute refreshes the stored aggregate and drops the cached copy.
// Aggregation failures are logged, not surfaced: the review write already
// committed and the aggregate is a recomputable cache.
func (s *Service) recompute(ctx context.Context, driverID uuid.UUID) {
	rating, err := s.reviews.RecomputeDriverRating(ctx, driverID)
	if err != nil {
		s.logger.Error("Failed to recompute driver rating",
			logger.String("driver_id", driverID.String()),
			logger.Err(err),
		)
		return
	}
	if s.redis != nil {
		s.redis.Del(ctx, ratingCacheKey(driverID))
	}
	s.logger.Info("Driver rating recomputed",
		logger.String("driver_id", driverID.String()),
		logger.Float64("rating", rating),
	)
}

func ratingCacheKey(driverID uuid.UUID) string {
	return fmt.Sprintf("driver:%s:rating", driverID)
}
