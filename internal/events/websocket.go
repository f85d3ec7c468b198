package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/pkg/websocket"
)

// TypeOpenRidesChanged tells connected drivers that the open ride board changed
const TypeOpenRidesChanged = "open_rides.changed"

// BoardChange is the payload of TypeOpenRidesChanged
type BoardChange struct {
	RideID uuid.UUID `json:"ride_id"`
	Reason string    `json:"reason"`
}

// WebSocketPublisher pushes events to connected riders and drivers
type WebSocketPublisher struct {
	hub *websocket.Hub
}

// NewWebSocketPublisher creates a publisher on top of the hub
func NewWebSocketPublisher(hub *websocket.Hub) *WebSocketPublisher {
	return &WebSocketPublisher{hub: hub}
}

// Publish implements Publisher. Each user gets an event once even if it
// matches several routes.
func (p *WebSocketPublisher) Publish(_ context.Context, events ...Event) error {
	for _, e := range events {
		msg := websocket.Message{Type: e.Type, Data: e}
		p.hub.BroadcastToRide(e.RideID.String(), msg)

		seen := map[uuid.UUID]bool{}
		targets := append([]uuid.UUID{e.RiderID}, e.Recipients...)
		if e.DriverID != nil {
			targets = append(targets, *e.DriverID)
		}
		for _, id := range targets {
			if id == uuid.Nil || seen[id] {
				continue
			}
			seen[id] = true
			p.hub.SendToUser(id.String(), msg)
		}

		if changesBoard(e.Type) {
			p.hub.BroadcastToType(websocket.UserTypeDriver, websocket.Message{
				Type: TypeOpenRidesChanged,
				Data: BoardChange{RideID: e.RideID, Reason: e.Type},
			})
		}
	}
	return nil
}

// changesBoard reports whether the event adds or removes a pending unassigned ride
func changesBoard(eventType string) bool {
	switch eventType {
	case TypeRideRequested, TypeOfferAccepted, TypeRideCancelled:
		return true
	}
	return false
}
