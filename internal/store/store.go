// Package store defines the transactional persistence boundary of the lifecycle.
package store

import (
	"context"

	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/offer"
	"github.com/taxiride/ride-hailing/internal/domain/reservation"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/domain/rider"
)

// Store gives access to the repositories. Outside WithinTx every call
// commits on its own; inside, all calls share one transaction.
type Store interface {
	Rides() ride.Repository
	Offers() offer.Repository
	Drivers() driver.Repository
	Riders() rider.Repository
	Reservations() reservation.Repository

	// WithinTx runs fn in a transaction. A non-nil error from fn rolls
	// everything back; nil commits all writes at once.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	Close() error
}
