package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/offer"
)

const offerColumns = `id, ride_id, driver_id, driver_name, price, estimated_time, vehicle_type,
	driver_rating, company_id, is_accepted, created_at, expires_at`

type offerRepo struct{ s *Store }

func scanOffer(row rowScanner) (*offer.Offer, error) {
	var o offer.Offer
	err := row.Scan(&o.ID, &o.RideID, &o.DriverID, &o.DriverName, &o.Price, &o.EstimatedTime, &o.VehicleType,
		&o.DriverRating, &o.CompanyID, &o.IsAccepted, &o.CreatedAt, &o.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r offerRepo) CreateBatch(ctx context.Context, offers []*offer.Offer) error {
	for _, o := range offers {
		_, err := r.s.q.ExecContext(ctx, `
			INSERT INTO offers (`+offerColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, o.ID, o.RideID, o.DriverID, o.DriverName, o.Price, o.EstimatedTime, o.VehicleType,
			o.DriverRating, o.CompanyID, o.IsAccepted, o.CreatedAt, o.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to insert offer: %w", mapInsertError(err))
		}
	}
	return nil
}

func (r offerRepo) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*offer.Offer, error) {
	rows, err := r.s.q.QueryContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE ride_id = $1 ORDER BY created_at, id`, rideID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var offers []*offer.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (r offerRepo) GetByRideAndDriver(ctx context.Context, rideID, driverID uuid.UUID) (*offer.Offer, error) {
	row := r.s.q.QueryRowContext(ctx, r.s.forUpdate(`SELECT `+offerColumns+` FROM offers WHERE ride_id = $1 AND driver_id = $2`), rideID, driverID)
	o, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, offer.ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	return o, nil
}

func (r offerRepo) Update(ctx context.Context, o *offer.Offer) error {
	res, err := r.s.q.ExecContext(ctx, `
		UPDATE offers SET price = $2, estimated_time = $3, is_accepted = $4, expires_at = $5
		WHERE id = $1
	`, o.ID, o.Price, o.EstimatedTime, o.IsAccepted, o.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", mapInsertError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return offer.ErrOfferNotFound
	}
	return nil
}

func (r offerRepo) DeleteByRideExcept(ctx context.Context, rideID, keepDriverID uuid.UUID) (int, error) {
	res, err := r.s.q.ExecContext(ctx, `DELETE FROM offers WHERE ride_id = $1 AND driver_id <> $2`, rideID, keepDriverID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete offers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete offers: %w", err)
	}
	return int(n), nil
}
