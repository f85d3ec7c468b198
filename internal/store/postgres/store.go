// Package postgres implements store.Store on PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/offer"
	"github.com/taxiride/ride-hailing/internal/domain/reservation"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/domain/rider"
	"github.com/taxiride/ride-hailing/internal/store"
)

//go:embed schema.sql
var Schema string

// uniqueViolation is the SQLSTATE for duplicate keys
const uniqueViolation = "23505"

// ErrDuplicate is returned when an insert hits a unique constraint
var ErrDuplicate = errors.New("record already exists")

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Store implements store.Store
type Store struct {
	db   *sql.DB
	q    querier
	inTx bool
}

var _ store.Store = (*Store)(nil)

// New wraps an open connection pool
func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

// Migrate creates the tables if they do not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) Rides() ride.Repository               { return rideRepo{s} }
func (s *Store) Offers() offer.Repository             { return offerRepo{s} }
func (s *Store) Drivers() driver.Repository           { return driverRepo{s} }
func (s *Store) Riders() rider.Repository             { return riderRepo{s} }
func (s *Store) Reservations() reservation.Repository { return reservationRepo{s} }

// WithinTx runs fn in one database transaction
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// forUpdate locks selected rows when running inside a transaction
func (s *Store) forUpdate(query string) string {
	if s.inTx {
		return query + " FOR UPDATE"
	}
	return query
}

func mapInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}
