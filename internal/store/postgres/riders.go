package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/reservation"
	"github.com/taxiride/ride-hailing/internal/domain/rider"
)

type riderRepo struct{ s *Store }

func (r riderRepo) Create(ctx context.Context, rd *rider.Rider) error {
	if err := rd.Validate(); err != nil {
		return err
	}
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO riders (id, name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rd.ID, rd.Name, rd.Email, rd.Phone, rd.CreatedAt, rd.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rider: %w", mapInsertError(err))
	}
	return nil
}

func (r riderRepo) GetByID(ctx context.Context, id uuid.UUID) (*rider.Rider, error) {
	var rd rider.Rider
	err := r.s.q.QueryRowContext(ctx, `
		SELECT id, name, email, phone, created_at, updated_at FROM riders WHERE id = $1
	`, id).Scan(&rd.ID, &rd.Name, &rd.Email, &rd.Phone, &rd.CreatedAt, &rd.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rider.ErrRiderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rider: %w", err)
	}
	return &rd, nil
}

type reservationRepo struct{ s *Store }

func (r reservationRepo) Create(ctx context.Context, res *reservation.Reservation) error {
	_, err := r.s.q.ExecContext(ctx, `
		INSERT INTO reservations (id, rider_id, pickup_address, dropoff_address, scheduled_at, status, estimated_price, vehicle_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, res.ID, res.RiderID, res.PickupAddress, res.DropoffAddress, res.ScheduledAt, res.Status,
		res.EstimatedPrice, res.VehicleType, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", mapInsertError(err))
	}
	return nil
}

func (r reservationRepo) ListByRider(ctx context.Context, riderID uuid.UUID) ([]*reservation.Reservation, error) {
	rows, err := r.s.q.QueryContext(ctx, `
		SELECT id, rider_id, pickup_address, dropoff_address, scheduled_at, status, estimated_price, vehicle_type, created_at
		FROM reservations WHERE rider_id = $1 ORDER BY scheduled_at
	`, riderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var out []*reservation.Reservation
	for rows.Next() {
		var res reservation.Reservation
		if err := rows.Scan(&res.ID, &res.RiderID, &res.PickupAddress, &res.DropoffAddress, &res.ScheduledAt,
			&res.Status, &res.EstimatedPrice, &res.VehicleType, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}
