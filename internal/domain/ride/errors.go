package ride

import "errors"

var (
	ErrRideNotFound      = errors.New("ride not found")
	ErrRideNotBookable   = errors.New("ride is not open for booking")
	ErrInsufficientSeats = errors.New("not enough available seats")
	ErrInvalidSeatCount  = errors.New("total seats must be between 1 and 8")
	ErrInvalidFare       = errors.New("fare per seat must not be negative")
	ErrDepartureInPast   = errors.New("departure time must be in the future")
	ErrInvalidLocation   = errors.New("origin and destination require address and city")
	ErrInvalidStatus     = errors.New("invalid ride status transition")
	ErrRideLocked        = errors.New("ride has confirmed bookings and cannot be edited")
	ErrRideHasBookings   = errors.New("ride has bookings and cannot be deleted")
)
