package models

import "time"

type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"` // Enforces ONE cart per user
	Lines     []CartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartLine holds a quantity of one device in one cart. The composite
// unique index keeps a single row per (cart, device).
type CartLine struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_device" json:"cart_id"`
	DeviceID  uint      `gorm:"not null;uniqueIndex:idx_cart_device;index" json:"device_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity >= 1" json:"quantity"`
	Device    *Device   `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
