package orders

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/models"
	"github.com/junaidrashid-git/technoworld-api/realtime"
)

type StatusUpdate struct {
	OrderID          uint `json:"orderId"`
	DeliveryStatusID uint `json:"deliveryStatusId"`
}

// UpdateDeliveryStatus moves an order to any known delivery status.
func (w *Workflow) UpdateDeliveryStatus(ctx context.Context, orderID, statusID uint) error {
	const op = "orders.UpdateDeliveryStatus"
	if orderID == 0 {
		return apperror.InvalidInput(op, "invalid order id")
	}
	if statusID == 0 {
		return apperror.InvalidInput(op, "invalid delivery status id")
	}

	var order models.Order
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(op, "order %d not found", orderID)
			}
			return apperror.Internal(op, err)
		}
		if err := exists(tx, &models.DeliveryStatus{}, statusID, "delivery status"); err != nil {
			return err
		}
		if err := tx.Model(&order).UpdateColumn("delivery_status_id", statusID).Error; err != nil {
			return apperror.Internal(op, err)
		}
		order.DeliveryStatusID = statusID
		return nil
	})
	if err != nil {
		return err
	}

	w.log.Info("delivery status updated", zap.Uint("order_id", orderID), zap.Uint("status_id", statusID))
	w.publish(ctx, realtime.Event{
		Type:             realtime.EventOrderStatus,
		OrderID:          order.ID,
		Ref:              order.Ref,
		UserID:           order.UserID,
		DeliveryStatusID: statusID,
		At:               w.now(),
	})
	return nil
}

type Statuses struct {
	Delivery []models.DeliveryStatus `json:"delivery"`
	Payment  []models.PaymentStatus  `json:"payment"`
}

func (w *Workflow) ListStatuses(ctx context.Context) (*Statuses, error) {
	const op = "orders.ListStatuses"
	out := &Statuses{Delivery: []models.DeliveryStatus{}, Payment: []models.PaymentStatus{}}
	db := w.db.WithContext(ctx)
	if err := db.Order("id ASC").Find(&out.Delivery).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}
	if err := db.Order("id ASC").Find(&out.Payment).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}
	return out, nil
}

func (w *Workflow) CreateDeliveryStatus(ctx context.Context, name string) (*models.DeliveryStatus, error) {
	status := &models.DeliveryStatus{Name: strings.TrimSpace(name)}
	if err := w.createStatus(ctx, "orders.CreateDeliveryStatus", status, &models.DeliveryStatus{}, status.Name); err != nil {
		return nil, err
	}
	return status, nil
}

func (w *Workflow) CreatePaymentStatus(ctx context.Context, name string) (*models.PaymentStatus, error) {
	status := &models.PaymentStatus{Name: strings.TrimSpace(name)}
	if err := w.createStatus(ctx, "orders.CreatePaymentStatus", status, &models.PaymentStatus{}, status.Name); err != nil {
		return nil, err
	}
	return status, nil
}

func (w *Workflow) createStatus(ctx context.Context, op string, row, model interface{}, name string) error {
	if name == "" {
		return apperror.InvalidInput(op, "status name is required")
	}
	db := w.db.WithContext(ctx)
	var count int64
	if err := db.Model(model).Where("name = ?", name).Count(&count).Error; err != nil {
		return apperror.Internal(op, err)
	}
	if count > 0 {
		return apperror.Conflict(op, "status %q already exists", name)
	}
	if err := db.Create(row).Error; err != nil {
		return apperror.Internal(op, err)
	}
	return nil
}
