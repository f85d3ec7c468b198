package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/store/memory"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

func seed(t *testing.T) (*Service, map[string]uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	repo := s.Drivers()

	require.NoError(t, repo.SaveCompany(ctx, &driver.Company{ID: 7, Name: "Radio Taxi", IsActive: true}))
	require.NoError(t, repo.SaveCompany(ctx, &driver.Company{ID: 8, Name: "Closed Corp", IsActive: false}))

	ids := map[string]uuid.UUID{}
	add := func(name string, company int64, available bool, vt driver.VehicleType) {
		d := &driver.Driver{ID: uuid.New(), Name: name, CompanyID: company, StarRating: 4.5, IsAvailable: available, IsVerified: true}
		require.NoError(t, repo.Create(ctx, d))
		if vt != "" {
			require.NoError(t, repo.SaveVehicle(ctx, &driver.Vehicle{DriverID: d.ID, Type: vt, Make: "Skoda", Model: "Octavia", Color: "black", IsActive: true}))
		}
		ids[name] = d.ID
	}
	add("comfort", 7, true, driver.VehicleComfort)
	add("van", 8, true, driver.VehicleVan)
	add("nocar", 0, true, "")
	add("offline", 7, false, driver.VehicleComfort)

	return NewService(repo, logger.NewNop()), ids
}

// TestListAvailableDrivers_Filtering tests vehicle-type filtering and company resolution
func TestListAvailableDrivers_Filtering(t *testing.T) {
	svc, ids := seed(t)
	ctx := context.Background()

	all, err := svc.ListAvailableDrivers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byID := map[uuid.UUID]Candidate{}
	for _, c := range all {
		byID[c.DriverID] = c
	}
	assert.Equal(t, "Radio Taxi", byID[ids["comfort"]].CompanyName)
	assert.Equal(t, driver.IndependentCompany, byID[ids["van"]].CompanyName, "inactive companies are not resolved")
	assert.Equal(t, driver.IndependentCompany, byID[ids["nocar"]].CompanyName)
	assert.Equal(t, driver.VehicleStandard, byID[ids["nocar"]].VehicleType)

	comfort := driver.VehicleComfort
	filtered, err := svc.ListAvailableDrivers(ctx, &comfort)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, ids["comfort"], filtered[0].DriverID)
}

func TestGetVehicle_UnknownDefaults(t *testing.T) {
	svc, ids := seed(t)
	ctx := context.Background()

	v, err := svc.GetVehicle(ctx, ids["nocar"])
	require.NoError(t, err)
	assert.Equal(t, driver.UnknownVehicleValue, v.Make)
	assert.Equal(t, driver.UnknownVehicleValue, v.Model)
	assert.Equal(t, driver.UnknownVehicleValue, v.Color)

	v, err = svc.GetVehicle(ctx, ids["comfort"])
	require.NoError(t, err)
	assert.Equal(t, "Skoda Octavia", v.ModelName())

	name, err := svc.CompanyName(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Radio Taxi", name)
}
