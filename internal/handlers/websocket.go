package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/surimakeskilled/carrental/internal/services"
)

// WebSocketHandler upgrades the connection and registers it with the hub
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		services.HandleWebSocket(hub, c.Writer, c.Request, userID)
	}
}
