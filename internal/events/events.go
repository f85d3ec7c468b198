// Package events publishes committed ride lifecycle changes.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeRideRequested      = "ride.requested"
	TypeOfferAccepted      = "ride.offer_accepted"
	TypeStatusChanged      = "ride.status_changed"
	TypeRideCompleted      = "ride.completed"
	TypeRideCancelled      = "ride.cancelled"
	TypeRideRated          = "ride.rated"
	TypeDriverAvailability = "driver.availability_changed"
)

// Event is a lifecycle change that has already been committed
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	RideID     uuid.UUID      `json:"ride_id"`
	RiderID    uuid.UUID      `json:"rider_id"`
	DriverID   *uuid.UUID     `json:"driver_id,omitempty"`
	Status     string         `json:"status,omitempty"`
	Price      float64        `json:"price,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`

	// Recipients are extra users to notify directly, such as offered drivers
	Recipients []uuid.UUID `json:"-"`
}

// New creates an event with a fresh id
func New(eventType string, rideID uuid.UUID, now time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		RideID:     rideID,
		OccurredAt: now,
	}
}

// Publisher delivers events. Delivery is best-effort and happens after commit.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Nop discards events
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(context.Context, ...Event) error { return nil }

// Multi fans events out to several publishers and joins their errors
type Multi []Publisher

// Publish implements Publisher
func (m Multi) Publish(ctx context.Context, events ...Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory, for tests
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher
func (r *Recorder) Publish(_ context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in order
func (r *Recorder) Types() []string {
	evs := r.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}
