package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/models"
)

// Store is the only writer of Device.Stock. Every stock change goes through
// a single conditional UPDATE so concurrent checkouts cannot oversell.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log.Named("catalog")}
}

// DB exposes the handle so callers can run catalog calls inside their own transaction.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) GetDevice(ctx context.Context, id uint) (*models.Device, error) {
	return getDevice(s.db.WithContext(ctx), id)
}

// GetDeviceTx is GetDevice read through an open transaction.
func (s *Store) GetDeviceTx(tx *gorm.DB, id uint) (*models.Device, error) {
	return getDevice(tx, id)
}

func getDevice(db *gorm.DB, id uint) (*models.Device, error) {
	const op = "catalog.GetDevice"
	var device models.Device
	if err := db.First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(op, "device %d not found", id)
		}
		return nil, apperror.Internal(op, err)
	}
	return &device, nil
}

// SetStock overwrites the stock count of a device.
func (s *Store) SetStock(ctx context.Context, id uint, count int) error {
	const op = "catalog.SetStock"
	if count < 0 {
		return apperror.InvalidInput(op, "stock cannot be negative")
	}
	res := s.db.WithContext(ctx).Model(&models.Device{}).Where("id = ?", id).Update("stock", count)
	if res.Error != nil {
		return apperror.Internal(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(op, "device %d not found", id)
	}
	s.log.Info("stock set", zap.Uint("device_id", id), zap.Int("stock", count))
	return nil
}

// TryDecrement takes amount units of device id using tx and returns what is left.
// It fails with Conflict when fewer than amount units are in stock and leaves
// the row untouched.
func (s *Store) TryDecrement(tx *gorm.DB, id uint, amount int) (int, error) {
	const op = "catalog.TryDecrement"
	if amount < 1 {
		return 0, apperror.InvalidInput(op, "quantity must be positive")
	}

	res := tx.Model(&models.Device{}).
		Where("id = ? AND stock >= ?", id, amount).
		UpdateColumn("stock", gorm.Expr("stock - ?", amount))
	if res.Error != nil {
		return 0, apperror.Internal(op, res.Error)
	}

	device, err := getDevice(tx, id)
	if err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 {
		return device.Stock, apperror.Conflict(op,
			"insufficient stock for %q: available %d, requested %d, reduce quantity",
			device.Name, device.Stock, amount)
	}
	return device.Stock, nil
}

// FindDevicesWithZeroStock lists every sold out device.
func (s *Store) FindDevicesWithZeroStock(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := s.db.WithContext(ctx).Where("stock = 0").Order("id").Find(&devices).Error; err != nil {
		return nil, apperror.Internal("catalog.FindDevicesWithZeroStock", err)
	}
	return devices, nil
}

// SoldOutAmong returns which of ids have no stock left, read through tx.
func (s *Store) SoldOutAmong(tx *gorm.DB, ids []uint) ([]uint, error) {
	soldOut := []uint{}
	if len(ids) == 0 {
		return soldOut, nil
	}
	if err := tx.Model(&models.Device{}).
		Where("id IN ? AND stock = 0", ids).
		Order("id").
		Pluck("id", &soldOut).Error; err != nil {
		return nil, apperror.Internal("catalog.SoldOutAmong", err)
	}
	return soldOut, nil
}

// MainImages maps device id to the path of its main image. A device without a
// flagged image falls back to its oldest image; devices without images are absent.
func (s *Store) MainImages(ctx context.Context, ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var images []models.DeviceImage
	if err := s.db.WithContext(ctx).
		Where("device_id IN ?", ids).
		Order("is_main DESC, id ASC").
		Find(&images).Error; err != nil {
		return nil, apperror.Internal("catalog.MainImages", err)
	}
	for _, img := range images {
		if _, seen := out[img.DeviceID]; !seen {
			out[img.DeviceID] = img.Path
		}
	}
	return out, nil
}
