package models

import "time"

// Rating is one user's mark for one device, 1..5.
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_device" json:"user_id"`
	DeviceID  uint      `gorm:"not null;uniqueIndex:idx_user_device;index" json:"device_id"`
	Rate      int       `gorm:"not null" json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}
