// Package memory is an in-process store.Store used by tests and local runs.
// Transactions are serialized and work on a copy of the data that is swapped
// in on commit, so a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/offer"
	"github.com/taxiride/ride-hailing/internal/domain/reservation"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/domain/rider"
	"github.com/taxiride/ride-hailing/internal/store"
)

type data struct {
	rides        map[uuid.UUID]*ride.Ride
	offers       map[uuid.UUID]*offer.Offer
	drivers      map[uuid.UUID]*driver.Driver
	vehicles     map[uuid.UUID]*driver.Vehicle
	companies    map[int64]*driver.Company
	riders       map[uuid.UUID]*rider.Rider
	reservations map[uuid.UUID]*reservation.Reservation
}

func newData() *data {
	return &data{
		rides:        make(map[uuid.UUID]*ride.Ride),
		offers:       make(map[uuid.UUID]*offer.Offer),
		drivers:      make(map[uuid.UUID]*driver.Driver),
		vehicles:     make(map[uuid.UUID]*driver.Vehicle),
		companies:    make(map[int64]*driver.Company),
		riders:       make(map[uuid.UUID]*rider.Rider),
		reservations: make(map[uuid.UUID]*reservation.Reservation),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.rides {
		c.rides[k] = v.Clone()
	}
	for k, v := range d.offers {
		c.offers[k] = v.Clone()
	}
	for k, v := range d.drivers {
		c.drivers[k] = v.Clone()
	}
	for k, v := range d.vehicles {
		vc := *v
		c.vehicles[k] = &vc
	}
	for k, v := range d.companies {
		cc := *v
		c.companies[k] = &cc
	}
	for k, v := range d.riders {
		rc := *v
		c.riders[k] = &rc
	}
	for k, v := range d.reservations {
		rc := *v
		c.reservations[k] = &rc
	}
	return c
}

// Store implements store.Store in memory
type Store struct {
	writeMu *sync.Mutex // held by transactions and standalone writes
	mu      *sync.RWMutex
	data    *data
	inTx    bool
}

var _ store.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		writeMu: &sync.Mutex{},
		mu:      &sync.RWMutex{},
		data:    newData(),
	}
}

func (s *Store) Rides() ride.Repository               { return rideRepo{s} }
func (s *Store) Offers() offer.Repository             { return offerRepo{s} }
func (s *Store) Drivers() driver.Repository           { return driverRepo{s} }
func (s *Store) Riders() rider.Repository             { return riderRepo{s} }
func (s *Store) Reservations() reservation.Repository { return reservationRepo{s} }

// WithinTx runs fn against a private copy and publishes it only if fn succeeds
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	tx := &Store{
		writeMu: s.writeMu,
		mu:      &sync.RWMutex{},
		data:    snapshot,
		inTx:    true,
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

func (s *Store) read(fn func(d *data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *data) error) error {
	if !s.inTx {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}
