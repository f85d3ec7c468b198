package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taxiride/ride-hailing/internal/api/dto"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	apperrors "github.com/taxiride/ride-hailing/pkg/errors"
)

// SetDriverAvailability handles POST /v1/drivers/:id/availability
func (h *Handlers) SetDriverAvailability(c *gin.Context) {
	driverID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetAvailabilityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	var location *driver.Location
	switch {
	case req.Latitude != nil && req.Longitude != nil:
		location = &driver.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	case req.Latitude != nil || req.Longitude != nil:
		h.respondError(c, apperrors.Validation("latitude and longitude must be sent together", driver.ErrInvalidCoordinates))
		return
	}

	d, err := h.Lifecycle.SetDriverAvailability(c.Request.Context(), driverID, *req.Available, location)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"driver_id":    d.ID,
		"is_available": d.IsAvailable,
	})
}

// UpdateDriverLocation handles POST /v1/drivers/:id/location
func (h *Handlers) UpdateDriverLocation(c *gin.Context) {
	driverID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLocationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	d, err := h.Lifecycle.UpdateDriverLocation(c.Request.Context(), driverID, *req.Latitude, *req.Longitude)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"driver_id":  d.ID,
		"latitude":   d.CurrentLatitude,
		"longitude":  d.CurrentLongitude,
		"updated_at": d.LocationUpdatedAt,
	})
}

// GetDriverStats handles GET /v1/drivers/:id/stats
func (h *Handlers) GetDriverStats(c *gin.Context) {
	driverID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	stats, err := h.Lifecycle.DriverStats(c.Request.Context(), driverID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetDriverActiveRides handles GET /v1/drivers/:id/active-rides
func (h *Handlers) GetDriverActiveRides(c *gin.Context) {
	driverID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	rides, err := h.Lifecycle.DriverActiveRides(c.Request.Context(), driverID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: rides, Count: len(rides)})
}
