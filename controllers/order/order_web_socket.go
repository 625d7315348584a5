package orderControllers

import (
	"github.com/gin-gonic/gin"

	"github.com/junaidrashid-git/technoworld-api/realtime"
)

// GET /api/order/ws streams order events to admin dashboards.
func OrderWebSocketHandler(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		realtime.ServeWS(hub, c.Writer, c.Request)
	}
}
