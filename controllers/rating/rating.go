package ratingControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/middleware"
	"github.com/junaidrashid-git/technoworld-api/services/rating"
)

// POST /api/rating
func SubmitRating(agg *rating.Aggregator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req rating.SubmitRequest
		if err := respond.Bind(c, &req); err != nil {
			respond.Error(c, log, err)
			return
		}
		// a missing userId means the caller rates as themselves
		claims := middleware.Claims(c)
		if claims != nil && req.UserID == 0 {
			req.UserID = claims.UserID
		}
		if claims == nil || (claims.UserID != req.UserID && !middleware.IsAdmin(c)) {
			respond.Error(c, log, apperror.Forbidden("rating.Submit", "you can only rate as yourself"))
			return
		}

		res, err := agg.SubmitRating(c.Request.Context(), req)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		msg := "Rating updated"
		if res.Created {
			msg = "Rating added"
		}
		c.JSON(http.StatusOK, gin.H{"message": msg, "rating": res.Rating})
	}
}

// PUT /api/device/:id/rating
func RecomputeRating(agg *rating.Aggregator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		value, err := agg.RecomputeDeviceRating(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Rating recomputed", "rating": value})
	}
}
