package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taxiride/ride-hailing/internal/api/dto"
	"github.com/taxiride/ride-hailing/internal/service/lifecycle"
	apperrors "github.com/taxiride/ride-hailing/pkg/errors"
)

// GetHistory handles GET /v1/history?user_id=&role=
func (h *Handlers) GetHistory(c *gin.Context) {
	userID, ok := h.parseID(c, "user_id", c.Query("user_id"))
	if !ok {
		return
	}

	entries, err := h.Lifecycle.GetHistory(c.Request.Context(), userID, c.DefaultQuery("role", lifecycle.RoleRider))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: entries, Count: len(entries)})
}

// CompareOffers handles POST /v1/offers/compare
func (h *Handlers) CompareOffers(c *gin.Context) {
	var req dto.CompareOffersRequest
	if !h.bindJSON(c, &req) {
		return
	}
	var riderID uuid.UUID
	if req.RiderID != "" {
		var ok bool
		if riderID, ok = h.parseID(c, "rider_id", req.RiderID); !ok {
			return
		}
	}

	quotes, err := h.Lifecycle.CompareOffers(c.Request.Context(), lifecycle.CompareRequest{
		RiderID:     riderID,
		Pickup:      req.PickupAddress,
		Dropoff:     req.DropoffAddress,
		VehicleType: req.VehicleType,
		ComfortOnly: req.ComfortOnly,
		SortBy:      req.SortBy,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse{Items: quotes, Count: len(quotes)})
}

// ScheduleRide handles POST /v1/reservations
func (h *Handlers) ScheduleRide(c *gin.Context) {
	var req dto.ScheduleRideRequest
	if !h.bindJSON(c, &req) {
		return
	}
	riderID, ok := h.parseID(c, "rider_id", req.RiderID)
	if !ok {
		return
	}

	res, err := h.Lifecycle.ScheduleRide(c.Request.Context(), lifecycle.ScheduleRequest{
		RiderID:     riderID,
		Pickup:      req.PickupAddress,
		Dropoff:     req.DropoffAddress,
		ScheduledAt: req.ScheduledAt,
		VehicleType: req.VehicleType,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reservation": res, "message": "Ride scheduled"})
}

// ValidateAddress handles POST /v1/addresses/validate
func (h *Handlers) ValidateAddress(c *gin.Context) {
	var req dto.ValidateAddressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result := h.Lifecycle.ValidateAddress(c.Request.Context(), req.Address)
	if !result.Valid {
		h.respondError(c, apperrors.Validation(result.Reason, lifecycle.ErrInvalidAddress))
		return
	}
	c.JSON(http.StatusOK, result)
}

// SuggestAddresses handles GET /v1/addresses/suggestions?q=
func (h *Handlers) SuggestAddresses(c *gin.Context) {
	suggestions := h.Lifecycle.SuggestAddresses(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, dto.ListResponse{Items: suggestions, Count: len(suggestions)})
}
