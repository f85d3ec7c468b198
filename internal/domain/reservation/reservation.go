package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status of a scheduled ride
type Status string

const (
	StatusScheduled Status = "scheduled"
)

// MinLeadTime is how far ahead a ride has to be scheduled
const MinLeadTime = 30 * time.Minute

// DefaultLeadTime is used when the client gives no time
const DefaultLeadTime = time.Hour

// Reservation is a ride booked for a later time
type Reservation struct {
	ID             uuid.UUID `json:"id"`
	RiderID        uuid.UUID `json:"rider_id"`
	PickupAddress  string    `json:"pickup_address"`
	DropoffAddress string    `json:"dropoff_address"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Status         Status    `json:"status"`
	EstimatedPrice float64   `json:"estimated_price"`
	VehicleType    string    `json:"vehicle_type,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

var (
	ErrTooSoon             = errors.New("scheduled time must be at least 30 minutes from now")
	ErrReservationNotFound = errors.New("reservation not found")
)

// Repository defines reservation persistence
type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	ListByRider(ctx context.Context, riderID uuid.UUID) ([]*Reservation, error)
}

// ResolveTime applies the default and checks the lead time
func ResolveTime(requested *time.Time, now time.Time) (time.Time, error) {
	if requested == nil {
		return now.Add(DefaultLeadTime), nil
	}
	if !requested.After(now.Add(MinLeadTime)) {
		return time.Time{}, ErrTooSoon
	}
	return *requested, nil
}
