// Package respond holds the response helpers shared by every controller.
package respond

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/apperror"
)

// Error writes {"error": message} with the status of err's kind. Internal
// failures are logged with their cause and reach the client as a generic text.
func Error(c *gin.Context, log *zap.Logger, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"error": apperror.PublicMessage(err)})
}

// Message writes {"message": text}.
func Message(c *gin.Context, status int, text string) {
	c.JSON(status, gin.H{"message": text})
}

// ID parses a positive integer path parameter.
func ID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.InvalidInput("respond.ID", "invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// Bind decodes the JSON body into v, turning decode failures into InvalidInput.
func Bind(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperror.InvalidInput("respond.Bind", "invalid request body: %v", err)
	}
	return nil
}
