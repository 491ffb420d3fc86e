package review

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type distinguishes which direction a review runs
type Type string

const (
	TypePassengerToDriver Type = "passenger-to-driver"
	TypeDriverToPassenger Type = "driver-to-passenger"
)

// EditWindow is how long after creation the reviewer may edit or delete.
const EditWindow = 24 * time.Hour

// AspectRatings are optional structured sub-ratings, each 1-5 when set
type AspectRatings struct {
	Punctuality   *int `json:"punctuality,omitempty"`
	Driving       *int `json:"driving,omitempty"`
	Cleanliness   *int `json:"cleanliness,omitempty"`
	Communication *int `json:"communication,omitempty"`
}

// Review is one party's rating of the other for a completed booking.
// At most one review exists per (booking, reviewer) pair.
type Review struct {
	ID         uuid.UUID     `json:"id"`
	BookingID  uuid.UUID     `json:"booking_id"`
	RideID     uuid.UUID     `json:"ride_id"`
	ReviewerID uuid.UUID     `json:"reviewer_id"`
	RevieweeID uuid.UUID     `json:"reviewee_id"`
	Type       Type          `json:"review_type"`
	Rating     int           `json:"rating"`
	Comment    string        `json:"comment,omitempty"`
	Aspects    AspectRatings `json:"aspects"`
	Visible    bool          `json:"visible"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Validate checks rating bounds, including the optional aspect sub-ratings
func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	for _, aspect := range []*int{r.Aspects.Punctuality, r.Aspects.Driving, r.Aspects.Cleanliness, r.Aspects.Communication} {
		if aspect != nil && (*aspect < 1 || *aspect > 5) {
			return ErrInvalidRating
		}
	}
	return nil
}

// Editable reports whether the reviewer is still inside the edit window
func (r *Review) Editable(now time.Time) bool {
	return now.Sub(r.CreatedAt) <= EditWindow
}

// Repository defines the interface for review data access
type Repository interface {
	// Create inserts a review. A second review for the same
	// (booking, reviewer) pair fails with ErrDuplicateReview.
	Create(ctx context.Context, r *Review) error

	// GetByID retrieves a review by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Review, error)

	// Update rewrites rating, comment and aspects
	Update(ctx context.Context, r *Review) error

	// Delete removes a review
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsForBooking reports whether the reviewer already reviewed the booking
	ExistsForBooking(ctx context.Context, bookingID, reviewerID uuid.UUID) (bool, error)

	// ListVisibleForDriver returns visible passenger-to-driver reviews, newest first
	ListVisibleForDriver(ctx context.Context, driverID uuid.UUID) ([]*Review, error)

	// RecomputeDriverRating recalculates the driver's mean rating over all
	// currently-visible passenger-to-driver reviews, rounded to 1 decimal,
	// and stores it on the driver profile. Wholesale recompute, so it is
	// idempotent and stays correct across edits and deletions.
	RecomputeDriverRating(ctx context.Context, driverID uuid.UUID) (float64, error)
}

var (
	ErrReviewNotFound    = errors.New("review not found")
	ErrDuplicateReview   = errors.New("booking already reviewed by this user")
	ErrNotCompleted      = errors.New("booking is not completed")
	ErrNotParticipant    = errors.New("user is not a participant of this booking")
	ErrNotReviewer       = errors.New("only the original reviewer may modify a review")
	ErrEditWindowExpired = errors.New("review can no longer be edited")
	ErrInvalidRating     = errors.New("rating must be an integer between 1 and 5")
)
