package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taxiride/ride-hailing/internal/api/handlers"
	"github.com/taxiride/ride-hailing/internal/api/middleware"
	"github.com/taxiride/ride-hailing/pkg/monitoring"
)

// Options carries the optional observability wiring of the router
type Options struct {
	NewRelic    *newrelic.Application // nil disables APM
	Metrics     *monitoring.Metrics   // nil disables request metrics
	Gatherer    prometheus.Gatherer   // served on MetricsPath when set
	MetricsPath string
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, opts Options) {
	// Add New Relic middleware if enabled
	if opts.NewRelic != nil {
		r.Use(nrgin.Middleware(opts.NewRelic))
	}
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}

	r.GET("/health", h.Health)

	if opts.Gatherer != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// WebSocket connection
		v1.GET("/ws", h.HandleWebSocket)

		// Ride lifecycle endpoints
		rides := v1.Group("/rides")
		{
			rides.POST("", h.CreateRide)
			rides.GET("/open", h.ListOpenRides)
			rides.GET("/:id", h.GetRide)
			rides.GET("/:id/offers", h.ListOffers)
			rides.POST("/:id/accept-offer", h.AcceptOffer)
			rides.POST("/:id/start", h.StartTrip)
			rides.POST("/:id/complete", h.CompleteRide)
			rides.POST("/:id/cancel", h.CancelRide)
			rides.POST("/:id/status", h.UpdateRideStatus)
			rides.POST("/:id/rate", h.RateRide)
		}

		v1.GET("/history", h.GetHistory)
		v1.POST("/offers/compare", h.CompareOffers)
		v1.POST("/reservations", h.ScheduleRide)

		// Driver endpoints
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/:id/availability", h.SetDriverAvailability)
			drivers.POST("/:id/location", h.UpdateDriverLocation)
			drivers.GET("/:id/stats", h.GetDriverStats)
			drivers.GET("/:id/active-rides", h.GetDriverActiveRides)
		}

		// Address helpers
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/validate", h.ValidateAddress)
			addresses.GET("/suggestions", h.SuggestAddresses)
		}
	}
}
