package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/models"
)

// OrderView is an order with its lines resolved to device summaries.
type OrderView struct {
	models.Order
	Items []ItemView `json:"items"`
}

type ItemView struct {
	DeviceID uint   `json:"deviceId"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"img"`
	Quantity int    `json:"quantity"`
}

// ListOrdersForUser returns the user's orders, oldest first. A user with no
// orders gets an empty slice.
func (w *Workflow) ListOrdersForUser(ctx context.Context, userID uint) ([]OrderView, error) {
	const op = "orders.ListOrdersForUser"
	if userID == 0 {
		return nil, apperror.InvalidInput(op, "invalid user id")
	}
	db := w.db.WithContext(ctx)
	if err := exists(db, &models.User{}, userID, "user"); err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := db.Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Lines.Device").
		Preload("DeliveryStatus").
		Preload("PaymentStatus").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&orders).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}
	return w.views(ctx, orders)
}

// GetOrder loads a single order by id.
func (w *Workflow) GetOrder(ctx context.Context, orderID uint) (*OrderView, error) {
	const op = "orders.GetOrder"
	var order models.Order
	err := w.db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Lines.Device").
		Preload("DeliveryStatus").
		Preload("PaymentStatus").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(op, "order %d not found", orderID)
		}
		return nil, apperror.Internal(op, err)
	}
	views, err := w.views(ctx, []models.Order{order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (w *Workflow) views(ctx context.Context, orders []models.Order) ([]OrderView, error) {
	var ids []uint
	for _, o := range orders {
		for _, line := range o.Lines {
			ids = append(ids, line.DeviceID)
		}
	}
	images, err := w.catalog.MainImages(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		view := OrderView{Order: o, Items: make([]ItemView, 0, len(o.Lines))}
		for _, line := range o.Lines {
			item := ItemView{DeviceID: line.DeviceID, Quantity: line.Quantity, Image: images[line.DeviceID]}
			if line.Device != nil {
				item.Name = line.Device.Name
				item.Price = line.Device.Price.StringFixed(2)
			}
			view.Items = append(view.Items, item)
		}
		out = append(out, view)
	}
	return out, nil
}
