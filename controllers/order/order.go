package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/middleware"
	"github.com/junaidrashid-git/technoworld-api/services/orders"
)

type PlaceOrderRequest struct {
	CartID          uint            `json:"cartId"`
	PaymentStatusID uint            `json:"paymentStatusId"`
	OrderPrice      decimal.Decimal `json:"orderPrice"`
}

type StatusRequest struct {
	Name string `json:"name"`
}

// POST /api/order
func PlaceOrderHandler(w *orders.Workflow, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest
		if err := respond.Bind(c, &req); err != nil {
			respond.Error(c, log, err)
			return
		}
		checkout := orders.CheckoutRequest{
			CartID:          req.CartID,
			PaymentStatusID: req.PaymentStatusID,
			OrderPrice:      req.OrderPrice,
		}
		if err := checkout.Validate(); err != nil {
			respond.Error(c, log, err)
			return
		}
		claims := middleware.Claims(c)
		if claims == nil || (claims.CartID != req.CartID && !middleware.IsAdmin(c)) {
			respond.Error(c, log, apperror.Forbidden("order.Place", "cart %d does not belong to you", req.CartID))
			return
		}

		res, err := w.Checkout(c.Request.Context(), checkout)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		if res.Empty {
			respond.Message(c, http.StatusOK, res.Message)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": res.Message,
			"orderId": res.OrderID,
			"ref":     res.Ref,
			"soldOut": res.SoldOut,
		})
	}
}

// PUT /api/order/status
func UpdateOrderStatusHandler(w *orders.Workflow, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orders.StatusUpdate
		if err := respond.Bind(c, &req); err != nil {
			respond.Error(c, log, err)
			return
		}
		if err := w.UpdateDeliveryStatus(c.Request.Context(), req.OrderID, req.DeliveryStatusID); err != nil {
			respond.Error(c, log, err)
			return
		}
		respond.Message(c, http.StatusOK, "Order status updated successfully")
	}
}

// GET /api/order/user/:userId
func GetUserOrdersHandler(w *orders.Workflow, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := respond.ID(c, "userId")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		claims := middleware.Claims(c)
		if claims == nil || (claims.UserID != userID && !middleware.IsAdmin(c)) {
			respond.Error(c, log, apperror.Forbidden("order.ListForUser", "no access to orders of user %d", userID))
			return
		}
		list, err := w.ListOrdersForUser(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GET /api/order/:id
func GetOrderByIDHandler(w *orders.Workflow, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := respond.ID(c, "id")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		order, err := w.GetOrder(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /api/order/statuses
func ListStatusesHandler(w *orders.Workflow, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := w.ListStatuses(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, statuses)
	}
}

// POST /api/order/statuses/delivery
func CreateDeliveryStatusHandler(w *orders.Workflow, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StatusRequest
		if err := respond.Bind(c, &req); err != nil {
			respond.Error(c, log, err)
			return
		}
		status, err := w.CreateDeliveryStatus(c.Request.Context(), req.Name)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, status)
	}
}

// POST /api/order/statuses/payment
func CreatePaymentStatusHandler(w *orders.Workflow, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StatusRequest
		if err := respond.Bind(c, &req); err != nil {
			respond.Error(c, log, err)
			return
		}
		status, err := w.CreatePaymentStatus(c.Request.Context(), req.Name)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, status)
	}
}
