package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taxiride/ride-hailing/internal/api/dto"
	"github.com/taxiride/ride-hailing/internal/service/lifecycle"
	"github.com/taxiride/ride-hailing/pkg/cache"
	apperrors "github.com/taxiride/ride-hailing/pkg/errors"
	"github.com/taxiride/ride-hailing/pkg/logger"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	createRideScope   = "create_ride"
)

// CreateRide handles POST /v1/rides
func (h *Handlers) CreateRide(c *gin.Context) {
	ctx := c.Request.Context()
	key := c.GetHeader(idempotencyHeader)
	reserved := false
	if key != "" && h.Idempotency != nil {
		cached, err := h.Idempotency.Reserve(ctx, createRideScope, key)
		switch {
		case errors.Is(err, cache.ErrInProgress):
			h.respondError(c, apperrors.InvalidState("A request with this Idempotency-Key is in progress", err))
			return
		case err != nil:
			h.Logger.Warn("Idempotency reservation failed", logger.Err(err))
		case cached != nil:
			c.Header(replayedHeader, "true")
			c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
			return
		default:
			reserved = true
		}
	}

	// a reservation without a ride is dropped so the client can retry
	created := false
	if reserved {
		defer func() {
			if created {
				return
			}
			if err := h.Idempotency.Release(context.WithoutCancel(ctx), createRideScope, key); err != nil {
				h.Logger.Warn("Failed to release idempotency key", logger.Err(err))
			}
		}()
	}

	var req dto.CreateRideRequest
	if !h.bindJSON(c, &req) {
		return
	}
	riderID, ok := h.parseID(c, "rider_id", req.RiderID)
	if !ok {
		return
	}

	result, err := h.Lifecycle.RequestRide(ctx, lifecycle.RideRequest{
		RiderID:     riderID,
		Pickup:      req.PickupAddress,
		Dropoff:     req.DropoffAddress,
		VehicleType: req.VehicleType,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	created = true

	message := "Offers are waiting for your choice"
	if !result.HasDrivers {
		message = "No drivers are available right now"
	}
	body, err := json.Marshal(gin.H{
		"ride_id":     result.RideID,
		"status":      result.Status,
		"has_drivers": result.HasDrivers,
		"offers":      result.Offers,
		"message":     message,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if reserved {
		resp := cache.CachedResponse{Status: http.StatusCreated, Body: body}
		if err := h.Idempotency.Save(ctx, createRideScope, key, resp); err != nil {
			h.Logger.Warn("Failed to store idempotent response",
				logger.String("ride_id", result.RideID.String()),
				logger.Err(err),
			)
		}
	}
	c.Data(http.StatusCreated, "application/json; charset=utf-8", body)
}

// GetRide handles GET /v1/rides/:id
func (h *Handlers) GetRide(c *gin.Context) {
	rideID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.Lifecycle.GetStatus(c.Request.Context(), rideID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListOpenRides handles GET /v1/rides/open
func (h *Handlers) ListOpenRides(c *gin.Context) {
	rides, err := h.Lifecycle.OpenRides(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: rides, Count: len(rides)})
}

// ListOffers handles GET /v1/rides/:id/offers?sort=
func (h *Handlers) ListOffers(c *gin.Context) {
	rideID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	offers, err := h.Lifecycle.ListOffers(c.Request.Context(), rideID, c.Query("sort"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: offers, Count: len(offers)})
}

// AcceptOffer handles POST /v1/rides/:id/accept-offer
func (h *Handlers) AcceptOffer(c *gin.Context) {
	rideID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.AcceptOfferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	driverID, ok := h.parseID(c, "driver_id", req.DriverID)
	if !ok {
		return
	}

	r, err := h.Lifecycle.AcceptOffer(c.Request.Context(), rideID, driverID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": r, "message": "Offer accepted"})
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *Handlers) CancelRide(c *gin.Context) {
	rideID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	r, err := h.Lifecycle.CancelRide(c.Request.Context(), rideID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": r, "message": "Ride cancelled"})
}

// UpdateRideStatus handles POST /v1/rides/:id/status
func (h *Handlers) UpdateRideStatus(c *gin.Context) {
	rideID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	r, err := h.Lifecycle.UpdateStatus(c.Request.Context(), rideID, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": r})
}

// RateRide handles POST /v1/rides/:id/rate
func (h *Handlers) RateRide(c *gin.Context) {
	rideID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RateRideRequest
	if !h.bindJSON(c, &req) {
		return
	}

	r, err := h.Lifecycle.RateRide(c.Request.Context(), rideID, req.Rating, req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": r, "message": "Thank you for rating the ride"})
}
