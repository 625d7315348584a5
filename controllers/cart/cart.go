package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/controllers/respond"
	"github.com/junaidrashid-git/technoworld-api/middleware"
	"github.com/junaidrashid-git/technoworld-api/services/cart"
)

type LineInput struct {
	CartID   uint `json:"cartId"`
	DeviceID uint `json:"deviceId"`
}

type QuantityInput struct {
	CartID   uint `json:"cartId"`
	DeviceID uint `json:"deviceId"`
	Quantity int  `json:"quantity"`
}

func (in LineInput) validate() error {
	if in.CartID == 0 {
		return apperror.InvalidInput("cart", "invalid cart id")
	}
	if in.DeviceID == 0 {
		return apperror.InvalidInput("cart", "invalid device id")
	}
	return nil
}

// owns rejects callers touching a cart that is not theirs. Admins may touch any cart.
func owns(c *gin.Context, cartID uint) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return apperror.Unauthorized("cart", "not authorized")
	}
	if claims.CartID != cartID && !middleware.IsAdmin(c) {
		return apperror.Forbidden("cart", "cart %d does not belong to you", cartID)
	}
	return nil
}

// GET /api/cart/:cartId
func GetCart(ledger *cart.Ledger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, err := respond.ID(c, "cartId")
		if err == nil {
			err = owns(c, cartID)
		}
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		lines, err := ledger.ListLines(c.Request.Context(), cartID)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, lines)
	}
}

// POST /api/cart
func AddToCart(ledger *cart.Ledger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LineInput
		err := respond.Bind(c, &input)
		if err == nil {
			err = input.validate()
		}
		if err == nil {
			err = owns(c, input.CartID)
		}
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		line, err := ledger.AddLine(c.Request.Context(), input.CartID, input.DeviceID)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Device added to cart", "quantity": line.Quantity})
	}
}

// PUT /api/cart
func UpdateQuantity(ledger *cart.Ledger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input QuantityInput
		err := respond.Bind(c, &input)
		if err == nil {
			err = LineInput{CartID: input.CartID, DeviceID: input.DeviceID}.validate()
		}
		if err == nil {
			err = owns(c, input.CartID)
		}
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		if _, err := ledger.UpdateQuantity(c.Request.Context(), input.CartID, input.DeviceID, input.Quantity); err != nil {
			respond.Error(c, log, err)
			return
		}
		respond.Message(c, http.StatusOK, "Quantity updated")
	}
}

// DELETE /api/cart/:cartId/:deviceId
func DeleteCartLine(ledger *cart.Ledger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, err := respond.ID(c, "cartId")
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		deviceID, err := respond.ID(c, "deviceId")
		if err == nil {
			err = owns(c, cartID)
		}
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		if err := ledger.RemoveLine(c.Request.Context(), cartID, deviceID); err != nil {
			respond.Error(c, log, err)
			return
		}
		respond.Message(c, http.StatusOK, "Cart line deleted")
	}
}

// DELETE /api/cart/:cartId
func ClearCart(ledger *cart.Ledger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, err := respond.ID(c, "cartId")
		if err == nil {
			err = owns(c, cartID)
		}
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		if err := ledger.Clear(c.Request.Context(), cartID); err != nil {
			respond.Error(c, log, err)
			return
		}
		respond.Message(c, http.StatusOK, "Cart cleared")
	}
}
