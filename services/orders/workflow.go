package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/models"
	"github.com/junaidrashid-git/technoworld-api/realtime"
	"github.com/junaidrashid-git/technoworld-api/services/cart"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

const (
	MessagePlaced    = "Thank you for choosing us! Your order has been placed."
	MessageCartEmpty = "cart is empty"
)

// Workflow turns carts into orders. Stock decrements, order creation and cart
// cleanup commit together or not at all.
type Workflow struct {
	db            *gorm.DB
	catalog       *catalog.Store
	ledger        *cart.Ledger
	events        realtime.Publisher
	initialStatus string
	log           *zap.Logger
	now           func() time.Time
}

type Option func(*Workflow)

// WithClock replaces time.Now for order timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithInitialStatus names the delivery status new orders start in.
func WithInitialStatus(name string) Option {
	return func(w *Workflow) { w.initialStatus = name }
}

func NewWorkflow(db *gorm.DB, store *catalog.Store, ledger *cart.Ledger, events realtime.Publisher, log *zap.Logger, opts ...Option) *Workflow {
	if events == nil {
		events = realtime.Discard{}
	}
	w := &Workflow{
		db:            db,
		catalog:       store,
		ledger:        ledger,
		events:        events,
		initialStatus: models.DeliveryStatusPlaced,
		log:           log.Named("orders"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type CheckoutRequest struct {
	CartID          uint            `json:"cartId"`
	PaymentStatusID uint            `json:"paymentStatusId"`
	OrderPrice      decimal.Decimal `json:"orderPrice"`
}

// Validate checks the request shape before anything touches the store.
func (r CheckoutRequest) Validate() error {
	const op = "orders.Checkout"
	if r.CartID == 0 {
		return apperror.InvalidInput(op, "invalid cart id")
	}
	if r.PaymentStatusID == 0 {
		return apperror.InvalidInput(op, "invalid payment status id")
	}
	if !r.OrderPrice.IsPositive() {
		return apperror.InvalidInput(op, "invalid order price")
	}
	return nil
}

type CheckoutResult struct {
	Empty   bool   `json:"empty"`
	OrderID uint   `json:"orderId,omitempty"`
	Ref     string `json:"ref,omitempty"`
	SoldOut []uint `json:"soldOut,omitempty"`
	Message string `json:"message"`
}

// Checkout places an order for every line in the cart.
//
// An empty cart is not an error: the result has Empty set and nothing changes.
// If any line asks for more than its device has in stock the whole checkout
// fails with Conflict and no stock, order or cart row is modified.
func (w *Workflow) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	const op = "orders.Checkout"
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		order   models.Order
		soldOut []uint
		empty   bool
	)
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := w.ledger.LockCart(tx, req.CartID)
		if err != nil {
			return err
		}
		if err := exists(tx, &models.PaymentStatus{}, req.PaymentStatusID, "payment status"); err != nil {
			return err
		}

		lines, err := w.ledger.Lines(tx, c.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			empty = true
			return nil
		}

		deviceIDs := make([]uint, 0, len(lines))
		for _, line := range lines {
			if _, err := w.catalog.TryDecrement(tx, line.DeviceID, line.Quantity); err != nil {
				return err
			}
			deviceIDs = append(deviceIDs, line.DeviceID)
		}

		soldOut, err = w.catalog.SoldOutAmong(tx, deviceIDs)
		if err != nil {
			return err
		}

		statusID, err := w.initialStatusID(tx)
		if err != nil {
			return err
		}

		order = models.Order{
			Ref:              generateOrderRef(w.now()),
			UserID:           c.UserID,
			Price:            req.OrderPrice,
			DeliveryStatusID: statusID,
			PaymentStatusID:  req.PaymentStatusID,
			CreatedAt:        w.now(),
		}
		if err := tx.Omit("Lines").Create(&order).Error; err != nil {
			return apperror.Internal(op, err)
		}

		orderLines := make([]models.OrderLine, 0, len(lines))
		for _, line := range lines {
			orderLines = append(orderLines, models.OrderLine{
				OrderID:  order.ID,
				DeviceID: line.DeviceID,
				Quantity: line.Quantity,
			})
		}
		if err := tx.Create(&orderLines).Error; err != nil {
			return apperror.Internal(op, err)
		}
		order.Lines = orderLines

		if _, err := w.ledger.DeleteLines(tx, lines); err != nil {
			return err
		}
		purged, err := w.ledger.PurgeDevices(tx, soldOut)
		if err != nil {
			return err
		}
		if purged > 0 {
			w.log.Info("sold out devices purged from carts",
				zap.Uints("device_ids", soldOut), zap.Int64("lines", purged))
		}
		return nil
	})
	if err != nil {
		if apperror.Is(err, apperror.KindInternal) {
			w.log.Error("checkout failed", zap.Uint("cart_id", req.CartID), zap.Error(err))
		}
		return nil, err
	}
	if empty {
		return &CheckoutResult{Empty: true, Message: MessageCartEmpty}, nil
	}

	w.log.Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.String("ref", order.Ref),
		zap.Uint("user_id", order.UserID),
		zap.Int("lines", len(order.Lines)))

	w.publish(ctx, realtime.Event{
		Type:             realtime.EventOrderPlaced,
		OrderID:          order.ID,
		Ref:              order.Ref,
		UserID:           order.UserID,
		DeliveryStatusID: order.DeliveryStatusID,
		At:               order.CreatedAt,
	})
	if len(soldOut) > 0 {
		w.publish(ctx, realtime.Event{Type: realtime.EventDevicesSoldOut, DeviceIDs: soldOut, At: order.CreatedAt})
	}

	return &CheckoutResult{
		OrderID: order.ID,
		Ref:     order.Ref,
		SoldOut: soldOut,
		Message: MessagePlaced,
	}, nil
}

func (w *Workflow) initialStatusID(tx *gorm.DB) (uint, error) {
	var status models.DeliveryStatus
	if err := tx.Where("name = ?", w.initialStatus).First(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.Internal("orders.initialStatus",
				errors.New("initial delivery status "+w.initialStatus+" is not configured"))
		}
		return 0, apperror.Internal("orders.initialStatus", err)
	}
	return status.ID, nil
}

// publish is best effort: the order is already committed.
func (w *Workflow) publish(ctx context.Context, ev realtime.Event) {
	if err := w.events.Publish(ctx, ev); err != nil {
		w.log.Warn("order event not published", zap.String("type", ev.Type), zap.Error(err))
	}
}

// generateOrderRef builds a sortable unique reference, e.g. 20250908130500-<uuid4>.
func generateOrderRef(at time.Time) string {
	return at.Format("20060102150405") + "-" + uuid.NewString()
}

func exists(tx *gorm.DB, model interface{}, id uint, label string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperror.Internal("orders.exists", err)
	}
	if count == 0 {
		return apperror.NotFound("orders", "%s %d not found", label, id)
	}
	return nil
}
