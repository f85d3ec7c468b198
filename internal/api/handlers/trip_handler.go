package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taxiride/ride-hailing/internal/api/dto"
	"github.com/taxiride/ride-hailing/internal/service/lifecycle"
)

// StartTrip handles POST /v1/rides/:id/start
func (h *Handlers) StartTrip(c *gin.Context) {
	rideID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.StartTripRequest
	if !h.bindJSON(c, &req) {
		return
	}
	driverID, ok := h.parseID(c, "driver_id", req.DriverID)
	if !ok {
		return
	}

	r, err := h.Lifecycle.StartTrip(c.Request.Context(), rideID, driverID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": r, "message": "Trip started"})
}

// CompleteRide handles POST /v1/rides/:id/complete
func (h *Handlers) CompleteRide(c *gin.Context) {
	rideID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CompleteRideRequest
	if !h.bindJSON(c, &req) {
		return
	}

	r, err := h.Lifecycle.CompleteRide(c.Request.Context(), rideID, lifecycle.Completion{
		FinalPrice:      *req.FinalPrice,
		PaymentMethod:   req.PaymentMethod,
		DistanceKM:      req.DistanceKM,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ride":    r,
		"fare":    r.Price,
		"message": "Ride completed",
	})
}
