package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledWithoutLicense(t *testing.T) {
	app, err := New(Config{Enabled: true})
	require.NoError(t, err)
	assert.False(t, app.IsEnabled())

	// no-ops on a disabled app
	app.RecordRideCompleted("r", 1, 1, 1)
	app.RecordRedisPoolStats(nil)
	app.Shutdown(time.Second)

	var nilApp *NewRelicApp
	assert.False(t, nilApp.IsEnabled())
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	return pb.GetCounter().GetValue()
}

// TestRecorder_Prometheus tests counters driven through the recorder
func TestRecorder_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	app, err := New(Config{})
	require.NoError(t, err)
	rec := NewRecorder(m, app)

	rec.RideRequested("standard", 3, true)
	rec.RideRequested("", 0, false)
	rec.StatusChanged("r1", "pending", "accepted")
	rec.OperationFinished("accept_offer", 5*time.Millisecond, "")
	rec.OperationFinished("cancel_ride", time.Millisecond, "INVALID_STATE")

	assert.Equal(t, 1.0, counterValue(t, m.RidesRequested.WithLabelValues("offered")))
	assert.Equal(t, 1.0, counterValue(t, m.RidesRequested.WithLabelValues("no_drivers")))
	assert.Equal(t, 3.0, counterValue(t, m.OffersCreated))
	assert.Equal(t, 1.0, counterValue(t, m.Transitions.WithLabelValues("pending", "accepted")))
	assert.Equal(t, 1.0, counterValue(t, m.Rejections.WithLabelValues("cancel_ride", "INVALID_STATE")))
	assert.Equal(t, 0.0, counterValue(t, m.Rejections.WithLabelValues("accept_offer", "")))
}

func TestRecorder_NilSinks(t *testing.T) {
	rec := NewRecorder(nil, nil)
	rec.RideRequested("van", 1, true)
	rec.StatusChanged("r", "a", "b")
	rec.RideCompleted("r", 1, 2, 3)
	rec.OperationFinished("op", time.Second, "X")
}
