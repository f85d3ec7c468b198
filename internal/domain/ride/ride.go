package ride

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ride represents a transport request from creation to a terminal status
type Ride struct {
	ID               uuid.UUID  `json:"id"`
	RiderID          uuid.UUID  `json:"rider_id"`
	DriverID         *uuid.UUID `json:"driver_id,omitempty"`
	Status           Status     `json:"status"`
	VehicleType      string     `json:"vehicle_type,omitempty"`
	PickupAddress    string     `json:"pickup_address"`
	DropoffAddress   string     `json:"dropoff_address"`
	PickupLatitude   *float64   `json:"pickup_latitude,omitempty"`
	PickupLongitude  *float64   `json:"pickup_longitude,omitempty"`
	DropoffLatitude  *float64   `json:"dropoff_latitude,omitempty"`
	DropoffLongitude *float64   `json:"dropoff_longitude,omitempty"`
	Price            float64    `json:"price"`
	IsPaid           bool       `json:"is_paid"`
	PaymentMethod    string     `json:"payment_method,omitempty"`
	DistanceKM       *float64   `json:"distance_km,omitempty"`
	DurationMinutes  *int       `json:"duration_minutes,omitempty"`
	Rating           *int       `json:"rating,omitempty"`
	Comment          string     `json:"comment,omitempty"`
	OrderedAt        time.Time  `json:"ordered_at"`
	PickupAt         *time.Time `json:"pickup_at,omitempty"`
	DropoffAt        *time.Time `json:"dropoff_at,omitempty"`
	Version          int64      `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Repository interface
type Repository interface {
	Create(ctx context.Context, ride *Ride) error
	// GetByID returns the ride; inside a transaction the row is locked for update
	GetByID(ctx context.Context, id uuid.UUID) (*Ride, error)
	// Update persists the ride if its Version still matches and bumps Version
	Update(ctx context.Context, ride *Ride) error
	ListByRider(ctx context.Context, riderID uuid.UUID, limit int) ([]*Ride, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]*Ride, error)
	ListByDriverAndStatus(ctx context.Context, driverID uuid.UUID, statuses ...Status) ([]*Ride, error)
	ListUnassigned(ctx context.Context, status Status) ([]*Ride, error)
}

// Errors
var (
	ErrRideNotFound       = errors.New("ride not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnknownStatus      = errors.New("unknown ride status")
	ErrVersionConflict    = errors.New("ride was modified concurrently")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrRideNotRateable    = errors.New("only completed rides can be rated")
	ErrDriverMismatch     = errors.New("ride is assigned to another driver")
	ErrEmptyPickupAddress = errors.New("pickup address is required")
	ErrEmptyDropoff       = errors.New("dropoff address is required")
)

const (
	MinRating = 1
	MaxRating = 5
)

// New creates a pending ride with zero price and no driver
func New(riderID uuid.UUID, pickup, dropoff string, now time.Time) *Ride {
	return &Ride{
		ID:             uuid.New(),
		RiderID:        riderID,
		Status:         StatusPending,
		PickupAddress:  pickup,
		DropoffAddress: dropoff,
		OrderedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TransitionTo moves the ride to the target status if the edge is legal
func (r *Ride) TransitionTo(target Status, now time.Time) error {
	if err := ValidateTransition(r.Status, target); err != nil {
		return err
	}
	r.Status = target
	r.UpdatedAt = now
	return nil
}

// AssignDriver records the accepted driver and price
func (r *Ride) AssignDriver(driverID uuid.UUID, price float64, now time.Time) error {
	if err := r.TransitionTo(StatusAccepted, now); err != nil {
		return err
	}
	r.DriverID = &driverID
	r.Price = price
	return nil
}

// MarkPickedUp sets the pickup time once
func (r *Ride) MarkPickedUp(now time.Time) {
	if r.PickupAt == nil {
		t := now
		r.PickupAt = &t
	}
}

// MarkDroppedOff sets the dropoff time once
func (r *Ride) MarkDroppedOff(now time.Time) {
	if r.DropoffAt == nil {
		t := now
		r.DropoffAt = &t
	}
}

// SetRating stores the post-trip rating; the ride must be completed
func (r *Ride) SetRating(rating int, comment string, now time.Time) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	if r.Status != StatusCompleted {
		return ErrRideNotRateable
	}
	r.Rating = &rating
	r.Comment = comment
	r.UpdatedAt = now
	return nil
}

// HasDriver reports whether the ride is assigned to the given driver
func (r *Ride) HasDriver(driverID uuid.UUID) bool {
	return r.DriverID != nil && *r.DriverID == driverID
}

// TripMinutes returns the dropoff minus pickup duration, or 0 if either is unset
func (r *Ride) TripMinutes() float64 {
	if r.PickupAt == nil || r.DropoffAt == nil {
		return 0
	}
	return r.DropoffAt.Sub(*r.PickupAt).Minutes()
}

// Clone returns a deep copy
func (r *Ride) Clone() *Ride {
	c := *r
	c.DriverID = cloneUUID(r.DriverID)
	c.PickupLatitude = cloneFloat(r.PickupLatitude)
	c.PickupLongitude = cloneFloat(r.PickupLongitude)
	c.DropoffLatitude = cloneFloat(r.DropoffLatitude)
	c.DropoffLongitude = cloneFloat(r.DropoffLongitude)
	c.DistanceKM = cloneFloat(r.DistanceKM)
	c.DurationMinutes = cloneInt(r.DurationMinutes)
	c.Rating = cloneInt(r.Rating)
	c.PickupAt = cloneTime(r.PickupAt)
	c.DropoffAt = cloneTime(r.DropoffAt)
	return &c
}

func cloneUUID(v *uuid.UUID) *uuid.UUID {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
