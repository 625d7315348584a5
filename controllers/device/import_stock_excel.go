package deviceControllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

// POST /api/device/import-stock
//
// Reads the first sheet of an uploaded workbook. Row one is a header, then
// column A holds the device id and column B the new stock count. Rows that do
// not parse or name unknown devices are skipped and counted; any other
// failure aborts the import.
func ImportStockFromExcel(store *catalog.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}
		if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or missing header row"})
			return
		}

		sheet := xlFile.Sheets[0]
		updatedCount, skippedCount := 0, 0
		for i := 1; i < sheet.MaxRow; i++ {
			row := sheet.Rows[i]
			if row == nil || len(row.Cells) < 2 {
				skippedCount++
				continue
			}
			id, err1 := strconv.ParseUint(strings.TrimSpace(row.Cells[0].String()), 10, 64)
			stock, err2 := strconv.Atoi(strings.TrimSpace(row.Cells[1].String()))
			if err1 != nil || err2 != nil || id == 0 {
				skippedCount++
				continue
			}
			if err := store.SetStock(c.Request.Context(), uint(id), stock); err != nil {
				if !apperror.Is(err, apperror.KindInvalidInput) && !apperror.Is(err, apperror.KindNotFound) {
					respond.Error(c, log, err)
					return
				}
				log.Warn("stock import row skipped", zap.Int("row", i+1), zap.Error(err))
				skippedCount++
				continue
			}
			updatedCount++
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"updated_count": updatedCount,
			"skipped_count": skippedCount,
		})
	}
}
