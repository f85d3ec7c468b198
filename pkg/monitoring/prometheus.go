package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ride_lifecycle"

// Metrics are the Prometheus collectors of the service
type Metrics struct {
	RidesRequested   *prometheus.CounterVec
	OffersCreated    prometheus.Counter
	Transitions      *prometheus.CounterVec
	Rejections       *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPLatency      *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RidesRequested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rides_requested_total", Help: "Ride requests by outcome",
		}, []string{"outcome"}),
		OffersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "offers_created_total", Help: "Offers generated for ride requests",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "status_transitions_total", Help: "Committed ride status transitions",
		}, []string{"from", "to"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operations_rejected_total", Help: "Operations that returned an error, by code",
		}, []string{"operation", "code"}),
		OperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "operation_duration_seconds", Help: "Lifecycle operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled",
		}, []string{"method", "route", "status"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Recorder fans lifecycle measurements out to Prometheus and New Relic.
// Either side may be nil.
type Recorder struct {
	metrics  *Metrics
	newRelic *NewRelicApp
}

// NewRecorder creates a recorder
func NewRecorder(metrics *Metrics, nr *NewRelicApp) *Recorder {
	return &Recorder{metrics: metrics, newRelic: nr}
}

// RideRequested implements the lifecycle metrics sink
func (r *Recorder) RideRequested(vehicleType string, offers int, hasDrivers bool) {
	if r.metrics != nil {
		outcome := "offered"
		if !hasDrivers {
			outcome = "no_drivers"
		}
		r.metrics.RidesRequested.WithLabelValues(outcome).Inc()
		r.metrics.OffersCreated.Add(float64(offers))
	}
	r.newRelic.RecordRideRequested(vehicleType, offers, hasDrivers)
}

// StatusChanged records a committed transition
func (r *Recorder) StatusChanged(rideID, from, to string) {
	if r.metrics != nil {
		r.metrics.Transitions.WithLabelValues(from, to).Inc()
	}
	r.newRelic.RecordStatusChange(rideID, from, to)
}

// RideCompleted records the completion economics
func (r *Recorder) RideCompleted(rideID string, fare, distance float64, duration int) {
	r.newRelic.RecordRideCompleted(rideID, fare, distance, duration)
}

// OperationFinished records latency and, for failures, the error code
func (r *Recorder) OperationFinished(operation string, d time.Duration, errCode string) {
	if r.metrics != nil {
		r.metrics.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
		if errCode != "" {
			r.metrics.Rejections.WithLabelValues(operation, errCode).Inc()
		}
	}
	r.newRelic.RecordOperationLatency(operation, d)
}
