package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
)

const rideColumns = `id, rider_id, driver_id, status, vehicle_type, pickup_address, dropoff_address,
	pickup_latitude, pickup_longitude, dropoff_latitude, dropoff_longitude,
	price, is_paid, payment_method, distance_km, duration_minutes, rating, comment,
	ordered_at, pickup_at, dropoff_at, version, created_at, updated_at`

type rideRepo struct{ s *Store }

func scanRide(row rowScanner) (*ride.Ride, error) {
	var r ride.Ride
	err := row.Scan(
		&r.ID, &r.RiderID, &r.DriverID, &r.Status, &r.VehicleType, &r.PickupAddress, &r.DropoffAddress,
		&r.PickupLatitude, &r.PickupLongitude, &r.DropoffLatitude, &r.DropoffLongitude,
		&r.Price, &r.IsPaid, &r.PaymentMethod, &r.DistanceKM, &r.DurationMinutes, &r.Rating, &r.Comment,
		&r.OrderedAt, &r.PickupAt, &r.DropoffAt, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r rideRepo) Create(ctx context.Context, rd *ride.Ride) error {
	rd.Version = 1
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO rides (`+rideColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`,
		rd.ID, rd.RiderID, rd.DriverID, rd.Status, rd.VehicleType, rd.PickupAddress, rd.DropoffAddress,
		rd.PickupLatitude, rd.PickupLongitude, rd.DropoffLatitude, rd.DropoffLongitude,
		rd.Price, rd.IsPaid, rd.PaymentMethod, rd.DistanceKM, rd.DurationMinutes, rd.Rating, rd.Comment,
		rd.OrderedAt, rd.PickupAt, rd.DropoffAt, rd.Version, rd.CreatedAt, rd.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ride: %w", mapInsertError(err))
	}
	return nil
}

func (r rideRepo) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	row := r.s.q.QueryRowContext(ctx, r.s.forUpdate(`SELECT `+rideColumns+` FROM rides WHERE id = $1`), id)
	rd, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ride.ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}
	return rd, nil
}

func (r rideRepo) Update(ctx context.Context, rd *ride.Ride) error {
	res, err := r.s.q.ExecContext(ctx, `
		UPDATE rides SET
			driver_id = $3, status = $4, price = $5, is_paid = $6, payment_method = $7,
			distance_km = $8, duration_minutes = $9, rating = $10, comment = $11,
			pickup_at = $12, dropoff_at = $13, updated_at = $14, version = version + 1
		WHERE id = $1 AND version = $2
	`,
		rd.ID, rd.Version, rd.DriverID, rd.Status, rd.Price, rd.IsPaid, rd.PaymentMethod,
		rd.DistanceKM, rd.DurationMinutes, rd.Rating, rd.Comment,
		rd.PickupAt, rd.DropoffAt, rd.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}
	if n == 0 {
		return ride.ErrVersionConflict
	}
	rd.Version++
	return nil
}

func (r rideRepo) ListByRider(ctx context.Context, riderID uuid.UUID, limit int) ([]*ride.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE rider_id = $1 ORDER BY ordered_at DESC, id LIMIT $2`, riderID, limit)
}

func (r rideRepo) ListByDriver(ctx context.Context, driverID uuid.UUID, limit int) ([]*ride.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE driver_id = $1 ORDER BY ordered_at DESC, id LIMIT $2`, driverID, limit)
}

func (r rideRepo) ListByDriverAndStatus(ctx context.Context, driverID uuid.UUID, statuses ...ride.Status) ([]*ride.Ride, error) {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE driver_id = $1 AND status = ANY($2) ORDER BY ordered_at, id`,
		driverID, pq.Array(values))
}

func (r rideRepo) ListUnassigned(ctx context.Context, status ride.Status) ([]*ride.Ride, error) {
	return r.list(ctx, `SELECT `+rideColumns+` FROM rides WHERE driver_id IS NULL AND status = $1 ORDER BY ordered_at, id`, status)
}

func (r rideRepo) list(ctx context.Context, query string, args ...any) ([]*ride.Ride, error) {
	rows, err := r.s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rides: %w", err)
	}
	defer rows.Close()

	var rides []*ride.Ride
	for rows.Next() {
		rd, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride: %w", err)
		}
		rides = append(rides, rd)
	}
	return rides, rows.Err()
}
