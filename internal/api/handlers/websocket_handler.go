package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/poolup/ride-sharing/pkg/websocket"
)

var allowedUserTypes = map[string]bool{
	"passenger": true,
	"driver":    true,
	"dashboard": true,
}

// HandleWebSocket handles GET /v1/ws
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	upgrader := gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // origin checks happen at the gateway
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	userID := c.Query("user_id")
	userType := c.Query("user_type")

	if _, err := uuid.Parse(userID); err != nil || !allowedUserTypes[userType] {
		h.Logger.Warn("Rejected WebSocket connection",
			logger.String("user_id", userID),
			logger.String("user_type", userType),
		)
		conn.Close()
		return
	}

	client := websocket.NewClient(h.Hub, conn, userID, userType, h.Logger)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
