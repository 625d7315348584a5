package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/junaidrashid-git/technoworld-api/controllers/order"
	"github.com/junaidrashid-git/technoworld-api/middleware"
	"github.com/junaidrashid-git/technoworld-api/models"
)

func SetupOrderRoutes(api *gin.RouterGroup, s Services) {
	admin := middleware.RequireRole(models.RoleAdmin)

	orders := api.Group("/order")
	orders.Use(middleware.ValidateToken(s.Accounts.Tokens()))
	{
		// Check out the caller's cart
		orders.POST("", orderControllers.PlaceOrderHandler(s.Orders, s.Log))

		// Status catalogue (admins extend it)
		orders.GET("/statuses", orderControllers.ListStatusesHandler(s.Orders, s.Log))
		orders.POST("/statuses/delivery", admin, orderControllers.CreateDeliveryStatusHandler(s.Orders, s.Log))
		orders.POST("/statuses/payment", admin, orderControllers.CreatePaymentStatusHandler(s.Orders, s.Log))

		// Move an order to another delivery status
		orders.PUT("/status", admin, orderControllers.UpdateOrderStatusHandler(s.Orders, s.Log))

		// websocket endpoint for real-time order updates
		orders.GET("/ws", admin, orderControllers.OrderWebSocketHandler(s.Hub))

		orders.GET("/user/:userId", orderControllers.GetUserOrdersHandler(s.Orders, s.Log))
		orders.GET("/:id", admin, orderControllers.GetOrderByIDHandler(s.Orders, s.Log))
	}
}
