package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/junaidrashid-git/technoworld-api/controllers/cart"
	userControllers "github.com/junaidrashid-git/technoworld-api/controllers/user"
	"github.com/junaidrashid-git/technoworld-api/middleware"
	"github.com/junaidrashid-git/technoworld-api/models"
)

// SetupUserRoutes registers /api/user/*.
func SetupUserRoutes(api *gin.RouterGroup, s Services) {
	auth := middleware.ValidateToken(s.Accounts.Tokens())

	userGroup := api.Group("/user")
	{
		userGroup.POST("/registration", userControllers.Registration(s.Accounts, s.Log))
		userGroup.POST("/login", userControllers.Login(s.Accounts, s.Log))
		userGroup.GET("/auth", auth, userControllers.Check(s.Accounts, s.Log))
		userGroup.PUT("/update/:id", auth, userControllers.UpdateUser(s.Accounts, s.Log))
		userGroup.GET("", auth, middleware.RequireRole(models.RoleAdmin), userControllers.GetAllUsers(s.Accounts, s.Log))
	}
}

// SetupCartRoutes registers /api/cart/*. Every route needs a token.
func SetupCartRoutes(api *gin.RouterGroup, s Services) {
	cartGroup := api.Group("/cart")
	cartGroup.Use(middleware.ValidateToken(s.Accounts.Tokens()))
	{
		cartGroup.GET("/:cartId", cartControllers.GetCart(s.Cart, s.Log))
		cartGroup.POST("", cartControllers.AddToCart(s.Cart, s.Log))
		cartGroup.PUT("", cartControllers.UpdateQuantity(s.Cart, s.Log))
		cartGroup.DELETE("/:cartId/:deviceId", cartControllers.DeleteCartLine(s.Cart, s.Log))
		cartGroup.DELETE("/:cartId", cartControllers.ClearCart(s.Cart, s.Log))
	}
}
