package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default status names seeded on migration. The set is open: admins can add more.
const (
	DeliveryStatusPlaced    = "placed"
	DeliveryStatusShipped   = "shipped"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusCancelled = "cancelled"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

type DeliveryStatus struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type PaymentStatus struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Ref              string          `gorm:"uniqueIndex;not null" json:"ref"`
	UserID           uint            `gorm:"index;not null" json:"user_id"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	DeliveryStatusID uint            `gorm:"not null" json:"delivery_status_id"`
	PaymentStatusID  uint            `gorm:"not null" json:"payment_status_id"`
	DeliveryStatus   *DeliveryStatus `json:"delivery_status,omitempty"`
	PaymentStatus    *PaymentStatus  `json:"payment_status,omitempty"`
	Lines            []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt        time.Time       `json:"created_at"`
}

type OrderLine struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	OrderID  uint    `gorm:"index;not null" json:"order_id"`
	DeviceID uint    `gorm:"index;not null" json:"device_id"`
	Quantity int     `gorm:"not null;default:1" json:"quantity"`
	Device   *Device `json:"device,omitempty"`
}
