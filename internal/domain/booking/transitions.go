package booking

// Status represents booking status
type Status string

const (
	StatusPending         Status = "pending"
	StatusConfirmed       Status = "confirmed"
	StatusComingForPickup Status = "coming-for-pickup"
	StatusPickedUp        Status = "picked-up"
	StatusInTransit       Status = "in-transit"
	StatusDroppedOff      Status = "dropped-off"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
	StatusRejected        Status = "rejected"
)

// forwardNext is the linear progression chain. Every forward transition
// has exactly one successor; anything else goes through a side exit.
var forwardNext = map[Status]Status{
	StatusPending:         StatusConfirmed,
	StatusConfirmed:       StatusComingForPickup,
	StatusComingForPickup: StatusPickedUp,
	StatusPickedUp:        StatusInTransit,
	StatusInTransit:       StatusDroppedOff,
	StatusDroppedOff:      StatusCompleted,
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusComingForPickup, StatusPickedUp,
		StatusInTransit, StatusDroppedOff, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is accepted from s
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// HoldsSeats reports whether the booking still counts against the ride's
// seat inventory. Only cancellation and rejection give seats back.
func (s Status) HoldsSeats() bool {
	return s != StatusCancelled && s != StatusRejected
}

// CanCancel reports whether a passenger may still cancel from s
func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo checks the full transition table: the linear chain plus
// the two side exits (pending|confirmed -> cancelled, pending -> rejected).
func (s Status) CanTransitionTo(target Status) bool {
	switch target {
	case StatusCancelled:
		return s.CanCancel()
	case StatusRejected:
		return s == StatusPending
	default:
		return forwardNext[s] == target
	}
}

// AllowedNext returns every status reachable from s in one transition,
// used to report the legal set alongside InvalidTransition errors.
func (s Status) AllowedNext() []Status {
	var next []Status
	if n, ok := forwardNext[s]; ok {
		next = append(next, n)
	}
	if s.CanCancel() {
		next = append(next, StatusCancelled)
	}
	if s == StatusPending {
		next = append(next, StatusRejected)
	}
	return next
}
