package booking

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidSeats        = errors.New("seats booked must be at least 1")
	ErrAlreadyBooked       = errors.New("passenger already has an active booking on this ride")
	ErrOwnRide             = errors.New("drivers cannot book seats on their own ride")
	ErrInvalidTransition   = errors.New("invalid booking status transition")
	ErrTransitionConflict  = errors.New("booking status changed concurrently")
	ErrNotRideDriver       = errors.New("only the ride's driver may perform this action")
	ErrNotBookingPassenger = errors.New("only the booking's passenger may perform this action")
	ErrNotParticipant      = errors.New("user is not a participant of this booking")
)

// TransitionError reports a rejected transition together with the current
// status and the set of statuses that would have been legal from it.
type TransitionError struct {
	Current Status
	Target  Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s (allowed: %v)",
		e.Current, e.Target, e.Current.AllowedNext())
}

// Is lets errors.Is(err, ErrInvalidTransition) match a TransitionError
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewTransitionError builds the typed rejection for an illegal transition
func NewTransitionError(current, target Status) *TransitionError {
	return &TransitionError{Current: current, Target: target}
}
