package deviceControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

type StockInput struct {
	Stock *int `json:"stock"`
}

// POST /api/device
func CreateDevice(store *catalog.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input catalog.NewDevice
		if err := respond.Bind(c, &input); err != nil {
			respond.Error(c, log, err)
			return
		}
		device, err := store.CreateDevice(c.Request.Context(), input)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, device)
	}
}

// PUT /api/device/:id/stock
func SetStock(store *catalog.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		var input StockInput
		if err := c.ShouldBindJSON(&input); err != nil || input.Stock == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock is required"})
			return
		}
		if err := store.SetStock(c.Request.Context(), id, *input.Stock); err != nil {
			respond.Error(c, log, err)
			return
		}
		respond.Message(c, http.StatusOK, "Stock updated")
	}
}
