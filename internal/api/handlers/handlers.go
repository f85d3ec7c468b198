package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/taxiride/ride-hailing/internal/api/dto"
	"github.com/taxiride/ride-hailing/internal/service/lifecycle"
	"github.com/taxiride/ride-hailing/pkg/cache"
	apperrors "github.com/taxiride/ride-hailing/pkg/errors"
	"github.com/taxiride/ride-hailing/pkg/logger"
	"github.com/taxiride/ride-hailing/pkg/websocket"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Lifecycle   *lifecycle.Manager
	Idempotency *cache.Idempotency // nil disables Idempotency-Key replay
	Hub         *websocket.Hub
	Logger      *logger.Logger
	Upgrader    gorilla.Upgrader
}

// NewHandlers creates a new Handlers instance
func NewHandlers(manager *lifecycle.Manager, idempotency *cache.Idempotency, hub *websocket.Hub, logger *logger.Logger) *Handlers {
	return &Handlers{
		Lifecycle:   manager,
		Idempotency: idempotency,
		Hub:         hub,
		Logger:      logger,
		Upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
	}
}

// respondError renders err as {"code","message"} with the AppError status
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed",
			logger.String("path", c.FullPath()),
			logger.String("code", appErr.Code),
			logger.Err(err),
		)
	}
	c.JSON(appErr.Status, dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}

// bindJSON decodes the body; failures are rendered as validation errors
func (h *Handlers) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.respondError(c, apperrors.Validation("Invalid request payload: "+err.Error(), err))
		return false
	}
	return true
}

// pathID parses a uuid path parameter
func (h *Handlers) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.respondError(c, apperrors.Validation("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// parseID parses a uuid taken from a body or query value
func (h *Handlers) parseID(c *gin.Context, field, value string) (uuid.UUID, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		h.respondError(c, apperrors.Validation("invalid "+field, err))
		return uuid.Nil, false
	}
	return id, true
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	connections, riders, drivers := 0, 0, 0
	if h.Hub != nil {
		connections = h.Hub.GetActiveConnections()
		riders = h.Hub.GetClientsByUserType(websocket.UserTypeRider)
		drivers = h.Hub.GetClientsByUserType(websocket.UserTypeDriver)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                "healthy",
		"websocket_connections": connections,
		"websocket_riders":      riders,
		"websocket_drivers":     drivers,
	})
}
