package lifecycle

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/service/geocoding"
)

// DriverCard is the assigned driver as shown to the rider
type DriverCard struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Rating    float64         `json:"rating"`
	Company   string          `json:"company"`
	Latitude  *float64        `json:"latitude,omitempty"`
	Longitude *float64        `json:"longitude,omitempty"`
	Vehicle   *driver.Vehicle `json:"vehicle,omitempty"`
}

// RideStatus is a ride snapshot with its driver, if any
type RideStatus struct {
	Ride   *ride.Ride  `json:"ride"`
	Driver *DriverCard `json:"driver,omitempty"`
}

// HistoryEntry is a past or current ride with its trip duration
type HistoryEntry struct {
	Ride        *ride.Ride `json:"ride"`
	TripMinutes int        `json:"trip_minutes"`
}

// Roles accepted by GetHistory
const (
	RoleRider  = "rider"
	RoleDriver = "driver"
)

// GetStatus returns the ride together with the assigned driver's card
func (m *Manager) GetStatus(ctx context.Context, rideID uuid.UUID) (status *RideStatus, err error) {
	defer m.observe("get_status", time.Now(), &err)

	r, err := m.store.Rides().GetByID(ctx, rideID)
	if err != nil {
		return nil, toAppError(err)
	}
	status = &RideStatus{Ride: r}
	if r.DriverID == nil {
		return status, nil
	}

	d, err := m.store.Drivers().GetByID(ctx, *r.DriverID)
	if err != nil {
		return nil, toAppError(err)
	}
	vehicle, err := m.directory.GetVehicle(ctx, d.ID)
	if err != nil {
		return nil, toAppError(err)
	}
	company, err := m.directory.CompanyName(ctx, d.CompanyID)
	if err != nil {
		return nil, toAppError(err)
	}
	status.Driver = &DriverCard{
		ID:        d.ID,
		Name:      d.Name,
		Phone:     d.Phone,
		Rating:    d.StarRating,
		Company:   company,
		Latitude:  d.CurrentLatitude,
		Longitude: d.CurrentLongitude,
		Vehicle:   vehicle,
	}
	return status, nil
}

// GetHistory returns the latest rides of a rider or a driver, newest first
func (m *Manager) GetHistory(ctx context.Context, userID uuid.UUID, role string) (entries []HistoryEntry, err error) {
	defer m.observe("get_history", time.Now(), &err)

	var rides []*ride.Ride
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleRider, "requester", "":
		if _, err = m.store.Riders().GetByID(ctx, userID); err != nil {
			return nil, toAppError(err)
		}
		rides, err = m.store.Rides().ListByRider(ctx, userID, m.historyLimit)
	case RoleDriver:
		if _, err = m.store.Drivers().GetByID(ctx, userID); err != nil {
			return nil, toAppError(err)
		}
		rides, err = m.store.Rides().ListByDriver(ctx, userID, m.historyLimit)
	default:
		return nil, toAppError(ErrInvalidRole)
	}
	if err != nil {
		return nil, toAppError(err)
	}

	entries = make([]HistoryEntry, 0, len(rides))
	for _, r := range rides {
		entries = append(entries, HistoryEntry{
			Ride:        r,
			TripMinutes: int(math.Round(r.TripMinutes())),
		})
	}
	return entries, nil
}

// OpenRides lists pending rides without a driver, oldest first
func (m *Manager) OpenRides(ctx context.Context) (rides []*ride.Ride, err error) {
	defer m.observe("open_rides", time.Now(), &err)

	rides, err = m.store.Rides().ListUnassigned(ctx, ride.StatusPending)
	if err != nil {
		return nil, toAppError(err)
	}
	return rides, nil
}

// ValidateAddress runs the geocoder; without one every non-empty address is accepted
func (m *Manager) ValidateAddress(ctx context.Context, address string) geocoding.Result {
	if m.geocoder != nil {
		return m.geocoder.Validate(ctx, address)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return geocoding.Result{Reason: "address is empty"}
	}
	return geocoding.Result{Valid: true, Address: address, HasAvailableDrivers: true}
}

// SuggestAddresses returns known addresses matching the query
func (m *Manager) SuggestAddresses(ctx context.Context, query string) []geocoding.Suggestion {
	if m.geocoder == nil {
		return []geocoding.Suggestion{}
	}
	return m.geocoder.Suggest(ctx, query)
}
