package deviceControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.InvalidInput("device.List", "invalid %s", name)
	}
	return n, nil
}

// GET /api/device?typeId=&brandId=&limit=&page=
func GetDevices(store *catalog.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter catalog.DeviceFilter
		for name, dst := range map[string]*int{"limit": &filter.Limit, "page": &filter.Page} {
			n, err := queryInt(c, name)
			if err != nil {
				respond.Error(c, log, err)
				return
			}
			*dst = n
		}
		for name, dst := range map[string]*uint{"typeId": &filter.TypeID, "brandId": &filter.BrandID} {
			n, err := queryInt(c, name)
			if err != nil {
				respond.Error(c, log, err)
				return
			}
			*dst = uint(n)
		}

		page, err := store.ListDevices(c.Request.Context(), filter)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GET /api/device/:id
func GetDeviceByID(store *catalog.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		device, err := store.GetDeviceDetail(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, device)
	}
}

// GET /api/device/sold-out
func GetSoldOut(store *catalog.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		devices, err := store.FindDevicesWithZeroStock(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, devices)
	}
}
