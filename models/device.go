package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Device struct {
	ID            uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"uniqueIndex;not null" json:"name"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Description   string          `gorm:"type:text;not null" json:"description"`
	Stock         int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Rating        int             `gorm:"not null;default:0" json:"rating"` // cached mean of Ratings
	TypeID        *uint           `json:"type_id"`
	BrandID       *uint           `json:"brand_id"`
	ColorID       *uint           `json:"color_id"`
	MaterialID    *uint           `json:"material_id"`
	Type          *Type           `json:"type,omitempty"`
	Brand         *Brand          `json:"brand,omitempty"`
	Color         *Color          `json:"color,omitempty"`
	Material      *Material       `json:"material,omitempty"`
	WirelessTypes []WirelessType  `gorm:"many2many:device_wireless_types;" json:"wireless_types,omitempty"`
	Info          []DeviceInfo    `gorm:"foreignKey:DeviceID" json:"info,omitempty"`
	Images        []DeviceImage   `gorm:"foreignKey:DeviceID" json:"images,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type DeviceInfo struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	DeviceID    uint   `gorm:"index;not null" json:"device_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
}

// DeviceImage is a stored image path. IsMain marks the one shown in lists.
type DeviceImage struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	DeviceID uint   `gorm:"index;not null" json:"device_id"`
	Path     string `gorm:"type:text;not null" json:"path"`
	IsMain   bool   `gorm:"not null;default:false" json:"is_main"`
}
