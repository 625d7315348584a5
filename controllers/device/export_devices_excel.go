package deviceControllers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/models"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

var exportHeaders = []string{
	"ID", "Name", "Price", "Stock", "Rating", "Type", "Brand", "WirelessTypeIDs", "CreatedAt", "UpdatedAt",
}

// GET /api/device/export
func ExportDevicesToExcel(store *catalog.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		devices, err := store.ExportDevices(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}

		file, err := devicesWorkbook(devices)
		if err != nil {
			respond.Error(c, log, apperror.Internal("device.Export", err))
			return
		}

		c.Header("Content-Disposition", "attachment; filename=devices.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			log.Error("write xlsx", zap.Error(err))
		}
	}
}

func devicesWorkbook(devices []models.Device) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Devices")
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, d := range devices {
		row := sheet.AddRow()
		row.AddCell().SetValue(d.ID)
		row.AddCell().SetValue(d.Name)
		row.AddCell().SetValue(d.Price.StringFixed(2))
		row.AddCell().SetValue(d.Stock)
		row.AddCell().SetValue(d.Rating)

		typeName, brandName := "", ""
		if d.Type != nil {
			typeName = d.Type.Name
		}
		if d.Brand != nil {
			brandName = d.Brand.Name
		}
		row.AddCell().SetValue(typeName)
		row.AddCell().SetValue(brandName)

		var tagIDs []string
		for _, tag := range d.WirelessTypes {
			tagIDs = append(tagIDs, strconv.Itoa(int(tag.ID)))
		}
		row.AddCell().SetValue(strings.Join(tagIDs, ","))

		row.AddCell().SetValue(d.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(d.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}
