// Package lifecycle owns the ride-offer lifecycle: ride creation, competing
// offers, acceptance, status transitions and the driver side effects of each.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/domain/offer"
	"github.com/taxiride/ride-hailing/internal/domain/reservation"
	"github.com/taxiride/ride-hailing/internal/domain/ride"
	"github.com/taxiride/ride-hailing/internal/domain/rider"
	"github.com/taxiride/ride-hailing/internal/events"
	"github.com/taxiride/ride-hailing/internal/service/directory"
	"github.com/taxiride/ride-hailing/internal/service/geocoding"
	"github.com/taxiride/ride-hailing/internal/service/pricing"
	"github.com/taxiride/ride-hailing/internal/store"
	apperrors "github.com/taxiride/ride-hailing/pkg/errors"
	"github.com/taxiride/ride-hailing/pkg/lock"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

// DefaultHistoryLimit is the number of rides returned by GetHistory
const DefaultHistoryLimit = 50

var (
	ErrRideNotPending        = errors.New("ride is not accepting offers")
	ErrInvalidPrice          = errors.New("final price must not be negative")
	ErrPaymentMethodRequired = errors.New("payment method is required")
	ErrStatusNotSettable     = errors.New("status cannot be set directly")
	ErrInvalidRole           = errors.New("role must be rider or driver")
	ErrInvalidAddress        = errors.New("address could not be validated")
)

// Directory is the read side of drivers used to build offers
type Directory interface {
	ListAvailableDrivers(ctx context.Context, filter *driver.VehicleType) ([]directory.Candidate, error)
	GetVehicle(ctx context.Context, driverID uuid.UUID) (*driver.Vehicle, error)
	CompanyName(ctx context.Context, companyID int64) (string, error)
}

// Metrics receives lifecycle measurements. monitoring.Recorder implements it.
type Metrics interface {
	RideRequested(vehicleType string, offers int, hasDrivers bool)
	StatusChanged(rideID, from, to string)
	RideCompleted(rideID string, fare, distance float64, duration int)
	OperationFinished(operation string, d time.Duration, errCode string)
}

// Deps are the collaborators of a Manager. Store, Directory and Pricing are required.
type Deps struct {
	Store     store.Store
	Directory Directory
	Pricing   pricing.Policy
	Geocoder  geocoding.Geocoder // optional; nil skips pickup validation
	Locker    lock.Locker        // defaults to an in-process locker
	Publisher events.Publisher   // defaults to events.Nop
	Metrics   Metrics
	Logger    *logger.Logger
	Clock     func() time.Time

	// OfferTTL bounds how long an offer can be accepted; 0 disables expiry
	OfferTTL     time.Duration
	HistoryLimit int
}

// Manager runs every lifecycle operation under the ride's lock and inside one store transaction
type Manager struct {
	store        store.Store
	directory    Directory
	pricing      pricing.Policy
	geocoder     geocoding.Geocoder
	locker       lock.Locker
	publisher    events.Publisher
	metrics      Metrics
	logger       *logger.Logger
	now          func() time.Time
	offerTTL     time.Duration
	historyLimit int
}

// NewManager creates a new lifecycle manager
func NewManager(deps Deps) (*Manager, error) {
	if deps.Store == nil || deps.Directory == nil || deps.Pricing == nil {
		return nil, fmt.Errorf("lifecycle: store, directory and pricing are required")
	}
	if deps.OfferTTL < 0 {
		return nil, fmt.Errorf("lifecycle: negative offer TTL %s", deps.OfferTTL)
	}

	m := &Manager{
		store:        deps.Store,
		directory:    deps.Directory,
		pricing:      deps.Pricing,
		geocoder:     deps.Geocoder,
		locker:       deps.Locker,
		publisher:    deps.Publisher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		now:          deps.Clock,
		offerTTL:     deps.OfferTTL,
		historyLimit: deps.HistoryLimit,
	}
	if m.locker == nil {
		m.locker = lock.NewLocalLocker()
	}
	if m.publisher == nil {
		m.publisher = events.Nop{}
	}
	if m.metrics == nil {
		m.metrics = nopMetrics{}
	}
	if m.logger == nil {
		m.logger = logger.NewNop()
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	if m.historyLimit <= 0 {
		m.historyLimit = DefaultHistoryLimit
	}
	return m, nil
}

func rideLockKey(id uuid.UUID) string {
	return "ride:" + id.String()
}

// mutateRide loads the ride inside a transaction held under the ride lock,
// lets fn change it and the related rows, then persists the ride.
func (m *Manager) mutateRide(ctx context.Context, rideID uuid.UUID, fn func(tx store.Store, r *ride.Ride, now time.Time) error) (*ride.Ride, error) {
	release, err := m.locker.Acquire(ctx, rideLockKey(rideID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock ride: %w", err)
	}
	defer release()

	var out *ride.Ride
	err = m.store.WithinTx(ctx, func(tx store.Store) error {
		r, err := tx.Rides().GetByID(ctx, rideID)
		if err != nil {
			return err
		}
		now := m.now()
		if err := fn(tx, r, now); err != nil {
			return err
		}
		if err := tx.Rides().Update(ctx, r); err != nil {
			return fmt.Errorf("failed to update ride: %w", err)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// observe records latency and outcome of an operation; call it deferred with a pointer to the named error
func (m *Manager) observe(operation string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	m.metrics.OperationFinished(operation, time.Since(start), apperrors.CodeOf(err))
	if err != nil {
		code := apperrors.CodeOf(err)
		if code == apperrors.CodePersistenceFailure || code == apperrors.CodeInternal {
			m.logger.Error("Lifecycle operation failed",
				logger.String("operation", operation),
				logger.Err(err),
			)
		} else {
			m.logger.Debug("Lifecycle operation rejected",
				logger.String("operation", operation),
				logger.String("code", code),
				logger.Err(err),
			)
		}
	}
}

// publish delivers committed events; failures are logged and never undo the commit
func (m *Manager) publish(ctx context.Context, evs ...events.Event) {
	if len(evs) == 0 {
		return
	}
	if err := m.publisher.Publish(ctx, evs...); err != nil {
		m.logger.Warn("Failed to publish lifecycle events",
			logger.Int("count", len(evs)),
			logger.String("type", evs[0].Type),
			logger.Err(err),
		)
	}
}

func (m *Manager) statusChanged(ctx context.Context, r *ride.Ride, from ride.Status, extra ...events.Event) {
	m.metrics.StatusChanged(r.ID.String(), string(from), string(r.Status))

	ev := events.New(events.TypeStatusChanged, r.ID, r.UpdatedAt)
	ev.RiderID = r.RiderID
	ev.DriverID = r.DriverID
	ev.Status = string(r.Status)
	ev.Price = r.Price
	ev.Data = map[string]any{"from": string(from)}
	m.publish(ctx, append([]events.Event{ev}, extra...)...)
}

// toAppError classifies domain errors into the lifecycle taxonomy
func toAppError(err error) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, ride.ErrRideNotFound),
		errors.Is(err, offer.ErrOfferNotFound),
		errors.Is(err, driver.ErrDriverNotFound),
		errors.Is(err, driver.ErrCompanyNotFound),
		errors.Is(err, rider.ErrRiderNotFound),
		errors.Is(err, reservation.ErrReservationNotFound):
		return apperrors.NotFound(err.Error(), err)

	case errors.Is(err, ride.ErrInvalidTransition),
		errors.Is(err, ride.ErrRideNotRateable),
		errors.Is(err, ride.ErrDriverMismatch),
		errors.Is(err, ErrRideNotPending),
		errors.Is(err, offer.ErrOfferExpired),
		errors.Is(err, driver.ErrDriverNotAvailable),
		errors.Is(err, driver.ErrDriverHasActiveRide):
		return apperrors.InvalidState(err.Error(), err)

	case errors.Is(err, ride.ErrUnknownStatus),
		errors.Is(err, ride.ErrInvalidRating),
		errors.Is(err, ride.ErrEmptyPickupAddress),
		errors.Is(err, ride.ErrEmptyDropoff),
		errors.Is(err, driver.ErrInvalidVehicleType),
		errors.Is(err, driver.ErrInvalidCoordinates),
		errors.Is(err, offer.ErrInvalidSortBy),
		errors.Is(err, reservation.ErrTooSoon),
		errors.Is(err, rider.ErrInvalidRider),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrPaymentMethodRequired),
		errors.Is(err, ErrStatusNotSettable),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInvalidAddress):
		return apperrors.Validation(err.Error(), err)
	}

	return apperrors.PersistenceFailure("failed to persist ride changes", err)
}

type nopMetrics struct{}

func (nopMetrics) RideRequested(string, int, bool)                 {}
func (nopMetrics) StatusChanged(string, string, string)            {}
func (nopMetrics) RideCompleted(string, float64, float64, int)     {}
func (nopMetrics) OperationFinished(string, time.Duration, string) {}
