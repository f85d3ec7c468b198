package ride

import (
	"fmt"
	"strings"
)

// Status represents ride status
type Status string

const (
	StatusPending            Status = "pending"
	StatusAccepted           Status = "accepted"
	StatusInProgress         Status = "in_progress"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
	StatusNoDriversAvailable Status = "no_drivers_available"
)

// transitions lists every legal edge of the ride state machine.
// Creation produces pending or no_drivers_available and is not an edge.
var transitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoDriversAvailable:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves this status
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsActive reports whether a driver is engaged by a ride in this status
func (s Status) IsActive() bool {
	return s == StatusAccepted || s == StatusInProgress
}

// CanTransition reports whether from -> to is an edge of the state machine
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition is the single legality check shared by every lifecycle entry point
func ValidateTransition(from, to Status) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("%w: %q -> %q", ErrUnknownStatus, from, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ParseStatus accepts the canonical value as well as the CamelCase spelling used by older clients
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "inprogress":
		normalized = string(StatusInProgress)
	case "canceled":
		normalized = string(StatusCancelled)
	case "nodriversavailable", "no drivers available":
		normalized = string(StatusNoDriversAvailable)
	}
	s := Status(normalized)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, value)
	}
	return s, nil
}
