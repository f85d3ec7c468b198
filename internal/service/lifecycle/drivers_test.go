package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/events"
	apperrors "github.com/taxiride/ride-hailing/pkg/errors"
)

// TestSetDriverAvailability tests toggling a driver on and off duty
func TestSetDriverAvailability(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.8)

	off, err := f.manager.SetDriverAvailability(f.ctx, d, false, &driver.Location{Latitude: 50.06, Longitude: 19.94})
	require.NoError(t, err)
	assert.False(t, off.IsAvailable)
	require.NotNil(t, off.CurrentLatitude)
	assert.Equal(t, 50.06, *off.CurrentLatitude)

	res := f.request()
	assert.False(t, res.HasDrivers, "offline drivers get no offers")

	on, err := f.manager.SetDriverAvailability(f.ctx, d, true, nil)
	require.NoError(t, err)
	assert.True(t, on.IsAvailable)
	assert.Equal(t, events.TypeDriverAvailability, f.published.Types()[len(f.published.Types())-1])
}

// TestSetDriverAvailability_ActiveRideKeepsDriverBusy tests that a driver with an active ride cannot go available
func TestSetDriverAvailability_ActiveRideKeepsDriverBusy(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.8)
	r := f.acceptedRide(d)

	_, err := f.manager.SetDriverAvailability(f.ctx, d, true, nil)
	assertCode(t, err, apperrors.CodeInvalidState)
	assert.ErrorIs(t, err, driver.ErrDriverHasActiveRide)
	f.assertAvailabilityMatchesRides(d)

	_, err = f.manager.CompleteRide(f.ctx, r.ID, Completion{FinalPrice: 20, PaymentMethod: "card"})
	require.NoError(t, err)

	_, err = f.manager.SetDriverAvailability(f.ctx, d, true, nil)
	require.NoError(t, err)
	f.assertAvailabilityMatchesRides(d)
}

// TestSetDriverAvailability_Errors tests an unknown driver and a rejected position
func TestSetDriverAvailability_Errors(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.8)

	_, err := f.manager.SetDriverAvailability(f.ctx, uuid.New(), true, nil)
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = f.manager.SetDriverAvailability(f.ctx, d, false, &driver.Location{Latitude: 91})
	assertCode(t, err, apperrors.CodeValidation)
	assert.True(t, f.driver(d).IsAvailable, "rejected toggle must not change the driver")
}

// TestUpdateDriverLocation tests storing a driver position and rejecting bad coordinates
func TestUpdateDriverLocation(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.8)

	tests := []struct {
		name     string
		lat, lng float64
		code     string
	}{
		{name: "Valid", lat: 50.0647, lng: 19.9450},
		{name: "Edge values", lat: -90, lng: 180},
		{name: "Latitude out of range", lat: 90.5, lng: 0, code: apperrors.CodeValidation},
		{name: "Longitude out of range", lat: 0, lng: -181, code: apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := f.manager.UpdateDriverLocation(f.ctx, d, tt.lat, tt.lng)
			if tt.code != "" {
				assertCode(t, err, tt.code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lat, *updated.CurrentLatitude)
			assert.Equal(t, tt.lng, *updated.CurrentLongitude)
			assert.Equal(t, f.clock.Now(), *updated.LocationUpdatedAt)
		})
	}
}

// TestDriverStats tests the aggregated ride stats of a driver
func TestDriverStats(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.8)

	first := f.completedRide(d, 40)
	f.completedRide(d, 25.5)
	cancelled := f.acceptedRide(d)
	_, err := f.manager.CancelRide(f.ctx, cancelled.ID)
	require.NoError(t, err)
	_, err = f.manager.RateRide(f.ctx, first.ID, 4, "")
	require.NoError(t, err)
	f.acceptedRide(d)

	stats, err := f.manager.DriverStats(f.ctx, d)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CompletedRides)
	assert.Equal(t, 1, stats.CancelledRides)
	assert.Equal(t, 3, stats.TotalRides)
	assert.Equal(t, 65.5, stats.TotalEarnings)
	assert.Equal(t, 4.0, stats.AverageRating)
	assert.Equal(t, 1, stats.RatingCount)
	assert.Equal(t, 1, stats.ActiveRideCount)
	assert.False(t, stats.IsAvailable)

	_, err = f.manager.DriverStats(f.ctx, uuid.New())
	assertCode(t, err, apperrors.CodeNotFound)
}

// TestDriverActiveRides tests listing the rides a driver currently holds
func TestDriverActiveRides(t *testing.T) {
	f := newFixture(t)
	d := f.addDriver("Jan", driver.VehicleStandard, 4.8)

	rides, err := f.manager.DriverActiveRides(f.ctx, d)
	require.NoError(t, err)
	assert.Empty(t, rides)

	r := f.acceptedRide(d)
	f.clock.Advance(time.Minute)
	_, err = f.manager.UpdateStatus(f.ctx, r.ID, "in_progress")
	require.NoError(t, err)

	rides, err = f.manager.DriverActiveRides(f.ctx, d)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, ride.StatusInProgress, rides[0].Status)

	_, err = f.manager.DriverActiveRides(f.ctx, uuid.New())
	assertCode(t, err, apperrors.CodeNotFound)
}
