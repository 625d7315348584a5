package deviceControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

// DELETE /api/device/:id
func DeleteDevice(store *catalog.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		if err := store.DeleteDevice(c.Request.Context(), id); err != nil {
			respond.Error(c, log, err)
			return
		}
		respond.Message(c, http.StatusOK, "Device deleted successfully")
	}
}
