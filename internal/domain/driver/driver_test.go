package driver

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestVehicleType_AllTypesValid tests all vehicle types
func TestVehicleType_AllTypesValid(t *testing.T) {
	for _, vt := range []VehicleType{VehicleStandard, VehicleComfort, VehicleVan, VehiclePremium} {
		assert.True(t, vt.IsValid(), "%s should be valid", vt)
	}
	assert.False(t, VehicleType("economy").IsValid())
}

func TestParseVehicleType(t *testing.T) {
	vt, err := ParseVehicleType("Comfort")
	assert.NoError(t, err)
	assert.Equal(t, VehicleComfort, vt)

	vt, err = ParseVehicleType("")
	assert.NoError(t, err)
	assert.Equal(t, VehicleType(""), vt)

	_, err = ParseVehicleType("limo")
	assert.ErrorIs(t, err, ErrInvalidVehicleType)
}

// TestDriver_LifecycleSideEffects tests engage, release and completion bookkeeping
func TestDriver_LifecycleSideEffects(t *testing.T) {
	now := time.Now()
	d := &Driver{ID: uuid.New(), IsAvailable: true, IsVerified: true}
	assert.True(t, d.CanAcceptRides())

	d.Engage(now)
	assert.False(t, d.IsAvailable)
	assert.False(t, d.CanAcceptRides())

	d.RecordCompletedRide(42.0, now)
	assert.True(t, d.IsAvailable)
	assert.Equal(t, 1, d.TotalRides)
	assert.Equal(t, 42.0, d.TotalEarnings)
	assert.Equal(t, now, d.LastActiveAt)

	d.Engage(now)
	d.Release(now)
	assert.True(t, d.IsAvailable)
	assert.Equal(t, 42.0, d.TotalEarnings, "release must not change earnings")
}

func TestDriver_SetLocation(t *testing.T) {
	d := &Driver{ID: uuid.New()}
	assert.ErrorIs(t, d.SetLocation(91, 0, time.Now()), ErrInvalidCoordinates)
	assert.ErrorIs(t, d.SetLocation(0, -181, time.Now()), ErrInvalidCoordinates)
	assert.Nil(t, d.GetLocation())

	assert.NoError(t, d.SetLocation(50.06, 19.94, time.Now()))
	loc := d.GetLocation()
	if assert.NotNil(t, loc) {
		assert.Equal(t, 50.06, loc.Latitude)
		assert.Equal(t, 19.94, loc.Longitude)
	}
}

func TestUnknownVehicle(t *testing.T) {
	v := UnknownVehicle(uuid.New())
	assert.Equal(t, VehicleStandard, v.Type)
	assert.Equal(t, UnknownVehicleValue, v.ModelName())
	assert.Equal(t, UnknownVehicleValue, v.Color)

	known := &Vehicle{Make: "Toyota", Model: "Corolla"}
	assert.Equal(t, "Toyota Corolla", known.ModelName())
}
