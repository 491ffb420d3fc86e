package dto

import "time"

// LocationRequest is one endpoint of a ride
type LocationRequest struct {
	Address   string  `json:"address" binding:"required"`
	City      string  `json:"city" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreateRideRequest represents a request to post a new ride
type CreateRideRequest struct {
	Origin        LocationRequest `json:"origin" binding:"required"`
	Destination   LocationRequest `json:"destination" binding:"required"`
	DepartureTime time.Time       `json:"departure_time" binding:"required"`
	TotalSeats    int             `json:"total_seats" binding:"required,min=1,max=8"`
	FarePerSeat   float64         `json:"fare_per_seat" binding:"min=0"`
	VehicleNote   string          `json:"vehicle_note"`
}

// UpdateRideRequest rewrites a ride's schedule, capacity and fare
type UpdateRideRequest struct {
	Origin        LocationRequest `json:"origin" binding:"required"`
	Destination   LocationRequest `json:"destination" binding:"required"`
	DepartureTime time.Time       `json:"departure_time" binding:"required"`
	TotalSeats    int             `json:"total_seats" binding:"required,min=1,max=8"`
	FarePerSeat   float64         `json:"fare_per_seat" binding:"min=0"`
	VehicleNote   string          `json:"vehicle_note"`
}

// UpdateRideStatusRequest moves a ride through its lifecycle
type UpdateRideStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=in-progress completed cancelled"`
}

// CreateBookingRequest represents a passenger requesting seats on a ride
type CreateBookingRequest struct {
	RideID string `json:"ride_id" binding:"required,uuid"`
	Seats  int    `json:"seats" binding:"required,min=1"`
}

// RespondBookingRequest is the driver's answer to a pending booking.
// Accept is a pointer so that an explicit false binds.
type RespondBookingRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// CancelBookingRequest carries the passenger's optional reason
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// UpdateBookingStatusRequest advances a booking along the progress chain
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=coming-for-pickup picked-up in-transit dropped-off completed"`
}

// AspectRatingsRequest are the optional structured sub-ratings
type AspectRatingsRequest struct {
	Punctuality   *int `json:"punctuality" binding:"omitempty,min=1,max=5"`
	Driving       *int `json:"driving" binding:"omitempty,min=1,max=5"`
	Cleanliness   *int `json:"cleanliness" binding:"omitempty,min=1,max=5"`
	Communication *int `json:"communication" binding:"omitempty,min=1,max=5"`
}

// CreateReviewRequest represents a review of a completed booking
type CreateReviewRequest struct {
	BookingID string               `json:"booking_id" binding:"required,uuid"`
	Rating    int                  `json:"rating" binding:"required,min=1,max=5"`
	Comment   string               `json:"comment" binding:"max=1000"`
	Aspects   AspectRatingsRequest `json:"aspects"`
}

// UpdateReviewRequest edits a review inside its edit window
type UpdateReviewRequest struct {
	Rating  int                  `json:"rating" binding:"required,min=1,max=5"`
	Comment string               `json:"comment" binding:"max=1000"`
	Aspects AspectRatingsRequest `json:"aspects"`
}

// Error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// DriverRatingResponse is the aggregate rating view for a driver
type DriverRatingResponse struct {
	DriverID string  `json:"driver_id"`
	Rating   float64 `json:"rating"`
}
