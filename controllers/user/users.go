package userControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/middleware"
	"github.com/junaidrashid-git/technoworld-api/services/account"
)

// POST /api/user/registration
func Registration(svc *account.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input account.Registration
		if err := respond.Bind(c, &input); err != nil {
			respond.Error(c, log, err)
			return
		}
		token, err := svc.Register(c.Request.Context(), input)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// POST /api/user/login
func Login(svc *account.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input account.Credentials
		if err := respond.Bind(c, &input); err != nil {
			respond.Error(c, log, err)
			return
		}
		token, err := svc.Login(c.Request.Context(), input)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// GET /api/user/auth
func Check(svc *account.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := svc.Check(middleware.Claims(c))
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// PUT /api/user/update/:id
func UpdateUser(svc *account.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		claims := middleware.Claims(c)
		if claims == nil || (claims.UserID != id && !middleware.IsAdmin(c)) {
			respond.Error(c, log, apperror.Forbidden("user.Update", "you can only update your own profile"))
			return
		}

		var input account.ProfileUpdate
		if err := respond.Bind(c, &input); err != nil {
			respond.Error(c, log, err)
			return
		}
		token, err := svc.UpdateProfile(c.Request.Context(), id, input)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// GET /api/user
func GetAllUsers(svc *account.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		customers, err := svc.ListCustomers(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}
