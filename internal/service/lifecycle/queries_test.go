package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/reservation"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	apperrors "github.com/taxiride/ride-hailing/pkg/errors"
)

// TestGetStatus tests the ride snapshot before and after a driver accepts
func TestGetStatus(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleComfort, 4.7)
	res := f.request()

	status, err := f.manager.GetStatus(f.ctx, res.RideID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusPending, status.Ride.Status)
	assert.Nil(t, status.Driver)

	_, err = f.manager.UpdateDriverLocation(f.ctx, d, 50.07, 19.93)
	require.NoError(t, err)
	_, err = f.manager.AcceptOffer(f.ctx, res.RideID, d)
	require.NoError(t, err)

	status, err = f.manager.GetStatus(f.ctx, res.RideID)
	require.NoError(t, err)
	require.NotNil(t, status.Driver)
	assert.Equal(t, "Jan", status.Driver.Name)
	assert.Equal(t, 4.7, status.Driver.Rating)
	assert.Equal(t, 50.07, *status.Driver.Latitude)
	assert.Equal(t, driver.VehicleComfort, status.Driver.Vehicle.Type)
	assert.Equal(t, driver.IndependentCompany, status.Driver.Company)

	_, err = f.manager.GetStatus(f.ctx, uuid.New())
	assertCode(t, err, apperrors.CodeNotFound)
}

// TestGetStatus_DriverCompany tests that the driver card names the driver's taxi company
func TestGetStatus_DriverCompany(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.7)
	require.NoError(t, f.store.Drivers().SaveCompany(f.ctx, &driver.Company{ID: 7, Name: "Radio Taxi 919", IsActive: true}))

	stored := f.driver(d)
	stored.CompanyID = 7
	require.NoError(t, f.store.Drivers().Update(f.ctx, stored))

	res := f.request()
	_, err := f.manager.AcceptOffer(f.ctx, res.RideID, d)
	require.NoError(t, err)

	status, err := f.manager.GetStatus(f.ctx, res.RideID)
	require.NoError(t, err)
	require.NotNil(t, status.Driver)
	assert.Equal(t, "Radio Taxi 919", status.Driver.Company)
}

// TestGetHistory tests rider and driver history, newest first
func TestGetHistory(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.8)

	first := f.acceptedRide(d)
	_, err := f.manager.StartTrip(f.ctx, first.ID, d)
	require.NoError(t, err)
	f.clock.Advance(12 * time.Minute)
	_, err = f.manager.CompleteRide(f.ctx, first.ID, Completion{FinalPrice: 30, PaymentMethod: "card"})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	second := f.request()

	history, err := f.manager.GetHistory(f.ctx, f.riderID, "rider")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.RideID, history[0].Ride.ID, "newest first")
	assert.Equal(t, 0, history[0].TripMinutes)
	assert.Equal(t, 12, history[1].TripMinutes)

	driverHistory, err := f.manager.GetHistory(f.ctx, d, "driver")
	require.NoError(t, err)
	require.Len(t, driverHistory, 1)
	assert.Equal(t, first.ID, driverHistory[0].Ride.ID)

	_, err = f.manager.GetHistory(f.ctx, d, "admin")
	assertCode(t, err, apperrors.CodeValidation)
}

// TestGetHistory_UnknownUser tests that history for an unregistered rider or driver is not found
func TestGetHistory_UnknownUser(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.8)

	tests := []struct {
		name   string
		userID uuid.UUID
		role   string
		code   string
	}{
		{name: "unknown rider", userID: uuid.New(), role: RoleRider, code: apperrors.CodeNotFound},
		{name: "unknown driver", userID: uuid.New(), role: RoleDriver, code: apperrors.CodeNotFound},
		{name: "driver id asked as rider", userID: d, role: RoleRider, code: apperrors.CodeNotFound},
		{name: "rider id asked as driver", userID: f.riderID, role: RoleDriver, code: apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.GetHistory(f.ctx, tt.userID, tt.role)
			assertCode(t, err, tt.code)
		})
	}

	history, err := f.manager.GetHistory(f.ctx, d, RoleDriver)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// TestOpenRides tests listing pending unassigned rides, oldest first
func TestOpenRides(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.8)
	f.addDriver("Ewa", driver.VehicleStandard, 4.9)

	older := f.request()
	f.clock.Advance(time.Minute)
	newer := f.request()
	f.clock.Advance(time.Minute)
	taken := f.request()
	_, err := f.manager.AcceptOffer(f.ctx, taken.RideID, d)
	require.NoError(t, err)

	open, err := f.manager.OpenRides(f.ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, older.RideID, open[0].ID)
	assert.Equal(t, newer.RideID, open[1].ID)
}

// TestCompareOffers tests quotes per vehicle type without creating a ride
func TestCompareOffers(t *testing.T) {
	f := newFixture(t)
	f.addDriver("Jan", driver.VehicleStandard, 4.9)
	f.addDriver("Piotr", driver.VehicleComfort, 4.1)
	f.addDriver("Ewa", driver.VehiclePremium, 4.5)

	quotes, err := f.manager.CompareOffers(f.ctx, CompareRequest{
		RiderID: f.riderID,
		Pickup:  pickup,
		Dropoff: dropoff,
		SortBy:  "rating",
	})
	require.NoError(t, err)
	require.Len(t, quotes, 3)
	assert.Equal(t, "Jan", quotes[0].DriverName)
	assert.Equal(t, "Skoda Octavia", quotes[0].VehicleModel)
	assert.Equal(t, driver.IndependentCompany, quotes[0].CompanyName)

	comfort, err := f.manager.CompareOffers(f.ctx, CompareRequest{
		Pickup:      pickup,
		Dropoff:     dropoff,
		ComfortOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, comfort, 2)
	assert.Equal(t, 17.4, comfort[0].Price)

	rides, err := f.store.Rides().ListByRider(f.ctx, f.riderID, 10)
	require.NoError(t, err)
	assert.Empty(t, rides, "comparison must not create rides")

	_, err = f.manager.CompareOffers(f.ctx, CompareRequest{Pickup: pickup, Dropoff: dropoff, SortBy: "distance"})
	assertCode(t, err, apperrors.CodeValidation)
}

// TestScheduleRide tests scheduling a future ride
func TestScheduleRide(t *testing.T) {
	f := newFixture(t)

	res, err := f.manager.ScheduleRide(f.ctx, ScheduleRequest{RiderID: f.riderID, Pickup: pickup, Dropoff: dropoff})
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(time.Hour), res.ScheduledAt)
	assert.Equal(t, reservation.StatusScheduled, res.Status)
	assert.Equal(t, standardFare, res.EstimatedPrice)

	later := f.clock.Now().Add(2 * time.Hour)
	premium, err := f.manager.ScheduleRide(f.ctx, ScheduleRequest{
		RiderID:     f.riderID,
		Pickup:      pickup,
		Dropoff:     dropoff,
		ScheduledAt: &later,
		VehicleType: "premium",
	})
	require.NoError(t, err)
	assert.Equal(t, later, premium.ScheduledAt)
	assert.Equal(t, 21.75, premium.EstimatedPrice)

	stored, err := f.store.Reservations().ListByRider(f.ctx, f.riderID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	tooSoon := f.clock.Now().Add(30 * time.Minute)
	_, err = f.manager.ScheduleRide(f.ctx, ScheduleRequest{RiderID: f.riderID, Pickup: pickup, Dropoff: dropoff, ScheduledAt: &tooSoon})
	assertCode(t, err, apperrors.CodeValidation)

	_, err = f.manager.ScheduleRide(f.ctx, ScheduleRequest{RiderID: uuid.New(), Pickup: pickup, Dropoff: dropoff})
	assertCode(t, err, apperrors.CodeNotFound)
}

// TestAddresses tests address validation and suggestions
func TestAddresses(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.manager.ValidateAddress(f.ctx, pickup).Valid)
	assert.False(t, f.manager.ValidateAddress(f.ctx, "").Valid)
	assert.NotEmpty(t, f.manager.SuggestAddresses(f.ctx, "krak"))
	assert.Empty(t, f.manager.SuggestAddresses(f.ctx, "k"))

	bare := newFixture(t, withoutGeocoder())
	assert.True(t, bare.manager.ValidateAddress(bare.ctx, "anywhere").Valid)
	assert.Empty(t, bare.manager.SuggestAddresses(bare.ctx, "krak"))
}
