package handlers

import (
	"net/http"

	"space-service/internal/websocket"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	hub *websocket.Hub
}

func NewWSHandler(hub *websocket.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket upgrades the connection after the WSAuth middleware has
// attached a verified identity.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	websocket.ServeWS(h.hub, c.Writer, c.Request, userID)
}
