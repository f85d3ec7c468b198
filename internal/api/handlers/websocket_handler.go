package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/taxiride/ride-hailing/pkg/errors"
	"github.com/taxiride/ride-hailing/pkg/logger"
	"github.com/taxiride/ride-hailing/pkg/websocket"
)

// HandleWebSocket handles GET /v1/ws?user_id=&user_type=
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	userID := c.Query("user_id")
	userType := c.Query("user_type")

	if _, err := uuid.Parse(userID); err != nil {
		h.respondError(c, apperrors.Validation("user_id must be a uuid", err))
		return
	}
	if userType != websocket.UserTypeRider && userType != websocket.UserTypeDriver {
		h.respondError(c, apperrors.Validation("user_type must be rider or driver", nil))
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, userID, userType, h.Logger)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
