package routes

import (
	"github.com/gin-gonic/gin"

	deviceControllers "github.com/junaidrashid-git/technoworld-api/controllers/device"
	ratingControllers "github.com/junaidrashid-git/technoworld-api/controllers/rating"
	"github.com/junaidrashid-git/technoworld-api/middleware"
	"github.com/junaidrashid-git/technoworld-api/models"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

// SetupCatalogRoutes registers devices, lookups and ratings. Reads are
// public; writes need an ADMIN token, spreadsheet endpoints the API key.
func SetupCatalogRoutes(api *gin.RouterGroup, s Services) {
	auth := middleware.ValidateToken(s.Accounts.Tokens())
	admin := middleware.RequireRole(models.RoleAdmin)
	apiKey := middleware.ValidateAPIKey(s.AdminAPIKey)

	// ─────────── Devices ───────────
	devices := api.Group("/device")
	{
		devices.GET("", deviceControllers.GetDevices(s.Catalog, s.Log))
		devices.GET("/sold-out", auth, admin, deviceControllers.GetSoldOut(s.Catalog, s.Log))
		devices.GET("/export", apiKey, deviceControllers.ExportDevicesToExcel(s.Catalog, s.Log))
		devices.POST("/import-stock", apiKey, deviceControllers.ImportStockFromExcel(s.Catalog, s.Log))
		devices.GET("/:id", deviceControllers.GetDeviceByID(s.Catalog, s.Log))
		devices.POST("", auth, admin, deviceControllers.CreateDevice(s.Catalog, s.Log))
		devices.DELETE("/:id", auth, admin, deviceControllers.DeleteDevice(s.Catalog, s.Log))
		devices.POST("/:id/image", auth, admin, deviceControllers.UploadImage(s.Catalog, s.UploadsDir, s.Log))
		devices.PUT("/:id/stock", auth, admin, deviceControllers.SetStock(s.Catalog, s.Log))
		devices.PUT("/:id/rating", auth, admin, ratingControllers.RecomputeRating(s.Ratings, s.Log))
	}

	// ─────────── Ratings ───────────
	api.POST("/rating", auth, ratingControllers.SubmitRating(s.Ratings, s.Log))

	// ─────────── Lookups ───────────
	for _, kind := range []catalog.NamedKind{
		catalog.Brands, catalog.Types, catalog.Colors, catalog.Materials, catalog.WirelessTypes,
	} {
		group := api.Group("/" + string(kind))
		group.GET("", deviceControllers.ListNamed(s.Catalog, kind, s.Log))
		group.GET("/:id", deviceControllers.GetNamed(s.Catalog, kind, s.Log))
		group.POST("", auth, admin, deviceControllers.CreateNamed(s.Catalog, kind, s.Log))
		group.PUT("/:id", auth, admin, deviceControllers.UpdateNamed(s.Catalog, kind, s.Log))
		group.DELETE("/:id", auth, admin, deviceControllers.DeleteNamed(s.Catalog, kind, s.Log))
	}
}
