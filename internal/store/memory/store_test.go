package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/offer"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/store"
)

func TestRides_VersionCheck(t *testing.T) {
	ctx := context.Background()
	s := New()

	rd := ride.New(uuid.New(), "Rynek Główny 1", "Floriańska 10", time.Now())
	require.NoError(t, s.Rides().Create(ctx, rd))
	assert.Equal(t, int64(1), rd.Version)

	first, err := s.Rides().GetByID(ctx, rd.ID)
	require.NoError(t, err)
	second, err := s.Rides().GetByID(ctx, rd.ID)
	require.NoError(t, err)

	require.NoError(t, first.TransitionTo(ride.StatusCancelled, time.Now()))
	require.NoError(t, s.Rides().Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	require.NoError(t, second.TransitionTo(ride.StatusCancelled, time.Now()))
	assert.ErrorIs(t, s.Rides().Update(ctx, second), ride.ErrVersionConflict)
}

func TestRides_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	rd := ride.New(uuid.New(), "a", "b", time.Now())
	require.NoError(t, s.Rides().Create(ctx, rd))

	got, err := s.Rides().GetByID(ctx, rd.ID)
	require.NoError(t, err)
	got.Status = ride.StatusCompleted

	again, err := s.Rides().GetByID(ctx, rd.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusPending, again.Status)
}

// TestWithinTx_RollbackOnError tests that no partial writes survive a failed transaction
func TestWithinTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	drv := &driver.Driver{ID: uuid.New(), IsAvailable: true, IsVerified: true}
	require.NoError(t, s.Drivers().Create(ctx, drv))

	rd := ride.New(uuid.New(), "a", "b", time.Now())
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.Rides().Create(ctx, rd))
		require.NoError(t, tx.Offers().CreateBatch(ctx, []*offer.Offer{{ID: uuid.New(), RideID: rd.ID, DriverID: drv.ID}}))

		d, err := tx.Drivers().GetByID(ctx, drv.ID)
		require.NoError(t, err)
		d.Engage(time.Now())
		require.NoError(t, tx.Drivers().Update(ctx, d))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Rides().GetByID(ctx, rd.ID)
	assert.ErrorIs(t, err, ride.ErrRideNotFound)

	offers, err := s.Offers().ListByRide(ctx, rd.ID)
	require.NoError(t, err)
	assert.Empty(t, offers)

	d, err := s.Drivers().GetByID(ctx, drv.ID)
	require.NoError(t, err)
	assert.True(t, d.IsAvailable)
}

func TestWithinTx_Commit(t *testing.T) {
	ctx := context.Background()
	s := New()
	rd := ride.New(uuid.New(), "a", "b", time.Now())

	err := s.WithinTx(ctx, func(tx store.Store) error {
		return tx.Rides().Create(ctx, rd)
	})
	require.NoError(t, err)

	_, err = s.Rides().GetByID(ctx, rd.ID)
	assert.NoError(t, err)
}

func TestOffers_DeleteByRideExcept(t *testing.T) {
	ctx := context.Background()
	s := New()
	rideID := uuid.New()
	keep := uuid.New()

	offers := []*offer.Offer{
		{ID: uuid.New(), RideID: rideID, DriverID: keep},
		{ID: uuid.New(), RideID: rideID, DriverID: uuid.New()},
		{ID: uuid.New(), RideID: rideID, DriverID: uuid.New()},
		{ID: uuid.New(), RideID: uuid.New(), DriverID: uuid.New()},
	}
	require.NoError(t, s.Offers().CreateBatch(ctx, offers))

	n, err := s.Offers().DeleteByRideExcept(ctx, rideID, keep)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := s.Offers().ListByRide(ctx, rideID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, keep, left[0].DriverID)

	n, err = s.Offers().DeleteByRideExcept(ctx, rideID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Offers().GetByRideAndDriver(ctx, rideID, keep)
	assert.ErrorIs(t, err, offer.ErrOfferNotFound)
}

func TestDrivers_AvailableAndVehicles(t *testing.T) {
	ctx := context.Background()
	s := New()

	top := &driver.Driver{ID: uuid.New(), StarRating: 4.9, IsAvailable: true, IsVerified: true}
	low := &driver.Driver{ID: uuid.New(), StarRating: 3.0, IsAvailable: true, IsVerified: true}
	unverified := &driver.Driver{ID: uuid.New(), IsAvailable: true}
	busy := &driver.Driver{ID: uuid.New(), IsVerified: true}
	for _, d := range []*driver.Driver{low, top, unverified, busy} {
		require.NoError(t, s.Drivers().Create(ctx, d))
	}

	avail, err := s.Drivers().GetAvailableDrivers(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.Equal(t, top.ID, avail[0].ID)

	v, err := s.Drivers().GetActiveVehicle(ctx, top.ID)
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.ErrorIs(t, s.Drivers().SaveVehicle(ctx, &driver.Vehicle{DriverID: top.ID, Type: "limo"}), driver.ErrInvalidVehicleType)
	require.NoError(t, s.Drivers().SaveVehicle(ctx, &driver.Vehicle{DriverID: top.ID, Type: driver.VehicleVan, IsActive: true}))
	v, err = s.Drivers().GetActiveVehicle(ctx, top.ID)
	require.NoError(t, err)
	assert.Equal(t, driver.VehicleVan, v.Type)

	_, err = s.Drivers().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, driver.ErrDriverNotFound)
}

func TestRides_ListingOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	riderID := uuid.New()
	driverID := uuid.New()
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		rd := ride.New(riderID, "a", "b", base.Add(time.Duration(i)*time.Minute))
		if i > 0 {
			require.NoError(t, rd.AssignDriver(driverID, 10, base))
		}
		require.NoError(t, s.Rides().Create(ctx, rd))
		ids = append(ids, rd.ID)
	}

	hist, err := s.Rides().ListByRider(ctx, riderID, 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, ids[2], hist[0].ID)
	assert.Equal(t, ids[1], hist[1].ID)

	active, err := s.Rides().ListByDriverAndStatus(ctx, driverID, ride.StatusAccepted, ride.StatusInProgress)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, ids[1], active[0].ID)

	open, err := s.Rides().ListUnassigned(ctx, ride.StatusPending)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, ids[0], open[0].ID)
}
