package deviceControllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// POST /api/device/:id/image (multipart: image, main)
//
// The file lands in <uploads>/devices under a random name and is served from
// /uploads/devices/<name>.
func UploadImage(store *catalog.Store, uploadsDir string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No image uploaded"})
			return
		}
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if !imageExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type " + ext})
			return
		}
		if _, err := store.GetDevice(c.Request.Context(), id); err != nil {
			respond.Error(c, log, err)
			return
		}

		dir := filepath.Join(uploadsDir, "devices")
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			respond.Error(c, log, apperror.Internal("device.UploadImage", err))
			return
		}
		name := uuid.NewString() + ext
		savePath := filepath.Join(dir, name)
		if err := c.SaveUploadedFile(fileHeader, savePath); err != nil {
			respond.Error(c, log, apperror.Internal("device.UploadImage", err))
			return
		}

		image, err := store.AddImage(c.Request.Context(), id, "devices/"+name, c.PostForm("main") == "true")
		if err != nil {
			_ = os.Remove(savePath)
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, image)
	}
}
