package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/models"
)

type InfoInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type ImageInput struct {
	Path   string `json:"path" binding:"required"`
	IsMain bool   `json:"is_main"`
}

type NewDevice struct {
	Name            string          `json:"name" binding:"required"`
	Price           decimal.Decimal `json:"price"`
	Description     string          `json:"description" binding:"required"`
	Stock           int             `json:"stock"`
	TypeID          *uint           `json:"type_id"`
	BrandID         *uint           `json:"brand_id"`
	ColorID         *uint           `json:"color_id"`
	MaterialID      *uint           `json:"material_id"`
	WirelessTypeIDs []uint          `json:"wireless_type_ids"`
	Info            []InfoInput     `json:"info"`
	Images          []ImageInput    `json:"images"`
}

// Validate checks the fields that need no database access.
func (n NewDevice) Validate() error {
	const op = "catalog.CreateDevice"
	if strings.TrimSpace(n.Name) == "" {
		return apperror.InvalidInput(op, "device name is required")
	}
	if strings.TrimSpace(n.Description) == "" {
		return apperror.InvalidInput(op, "device description is required")
	}
	if !n.Price.IsPositive() {
		return apperror.InvalidInput(op, "device price must be positive")
	}
	if n.Stock < 0 {
		return apperror.InvalidInput(op, "stock cannot be negative")
	}
	return nil
}

// CreateDevice stores a device with its info entries, images and wireless tags.
func (s *Store) CreateDevice(ctx context.Context, in NewDevice) (*models.Device, error) {
	const op = "catalog.CreateDevice"
	if err := in.Validate(); err != nil {
		return nil, err
	}

	device := models.Device{
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: in.Description,
		Stock:       in.Stock,
		TypeID:      in.TypeID,
		BrandID:     in.BrandID,
		ColorID:     in.ColorID,
		MaterialID:  in.MaterialID,
	}
	for _, info := range in.Info {
		device.Info = append(device.Info, models.DeviceInfo{Title: info.Title, Description: info.Description})
	}
	hasMain := false
	for _, img := range in.Images {
		isMain := img.IsMain && !hasMain
		hasMain = hasMain || isMain
		device.Images = append(device.Images, models.DeviceImage{Path: img.Path, IsMain: isMain})
	}
	if !hasMain && len(device.Images) > 0 {
		device.Images[0].IsMain = true
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Device{}).Where("name = ?", device.Name).Count(&count).Error; err != nil {
			return apperror.Internal(op, err)
		}
		if count > 0 {
			return apperror.Conflict(op, "device %q already exists", device.Name)
		}

		refs := []struct {
			id    *uint
			model interface{}
			label string
		}{
			{in.TypeID, &models.Type{}, "type"},
			{in.BrandID, &models.Brand{}, "brand"},
			{in.ColorID, &models.Color{}, "color"},
			{in.MaterialID, &models.Material{}, "material"},
		}
		for _, ref := range refs {
			if ref.id == nil {
				continue
			}
			if err := mustExist(tx, ref.model, *ref.id, ref.label); err != nil {
				return err
			}
		}

		if len(in.WirelessTypeIDs) > 0 {
			var tags []models.WirelessType
			if err := tx.Where("id IN ?", in.WirelessTypeIDs).Find(&tags).Error; err != nil {
				return apperror.Internal(op, err)
			}
			if len(tags) != len(uniq(in.WirelessTypeIDs)) {
				return apperror.NotFound(op, "unknown wireless type in %v", in.WirelessTypeIDs)
			}
			device.WirelessTypes = tags
		}

		if err := tx.Create(&device).Error; err != nil {
			return apperror.Internal(op, err)
		}
		if in.TypeID != nil && in.BrandID != nil {
			typ := models.Type{ID: *in.TypeID}
			brand := models.Brand{ID: *in.BrandID}
			if err := tx.Model(&typ).Omit("Brands.*").Association("Brands").Append(&brand); err != nil {
				return apperror.Internal(op, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("device created", zap.Uint("device_id", device.ID), zap.String("name", device.Name))
	return &device, nil
}

func mustExist(tx *gorm.DB, model interface{}, id uint, label string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperror.Internal("catalog.mustExist", err)
	}
	if count == 0 {
		return apperror.NotFound("catalog.CreateDevice", "%s %d not found", label, id)
	}
	return nil
}

func uniq(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

type DeviceFilter struct {
	TypeID  uint
	BrandID uint
	Limit   int
	Page    int
}

type DevicePage struct {
	Count int64           `json:"count"`
	Rows  []models.Device `json:"rows"`
}

// ListDevices pages through devices ordered by id, optionally filtered by type and brand.
func (s *Store) ListDevices(ctx context.Context, f DeviceFilter) (*DevicePage, error) {
	const op = "catalog.ListDevices"
	if f.Limit < 0 || f.Page < 0 {
		return nil, apperror.InvalidInput(op, "limit and page must not be negative")
	}

	query := s.db.WithContext(ctx).Model(&models.Device{})
	if f.TypeID != 0 {
		query = query.Where("type_id = ?", f.TypeID)
	}
	if f.BrandID != 0 {
		query = query.Where("brand_id = ?", f.BrandID)
	}

	page := &DevicePage{Rows: []models.Device{}}
	if err := query.Count(&page.Count).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}

	if f.Limit > 0 {
		query = query.Limit(f.Limit)
		if f.Page > 1 {
			query = query.Offset((f.Page - 1) * f.Limit)
		}
	}
	if err := query.Preload("Images").Order("id ASC").Find(&page.Rows).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}
	return page, nil
}

// GetDeviceDetail loads a device with its lookups, info entries, images and tags.
func (s *Store) GetDeviceDetail(ctx context.Context, id uint) (*models.Device, error) {
	const op = "catalog.GetDeviceDetail"
	var device models.Device
	err := s.db.WithContext(ctx).
		Preload("Type").
		Preload("Brand").
		Preload("Color").
		Preload("Material").
		Preload("WirelessTypes").
		Preload("Info").
		Preload("Images").
		First(&device, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(op, "device %d not found", id)
		}
		return nil, apperror.Internal(op, err)
	}
	return &device, nil
}

// DeleteDevice removes a device that no order references. Dependent rows go
// first: cart lines, ratings, info entries, images, tags, then the device.
func (s *Store) DeleteDevice(ctx context.Context, id uint) error {
	const op = "catalog.DeleteDevice"
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		device, err := getDevice(tx, id)
		if err != nil {
			return err
		}

		var ordered int64
		if err := tx.Model(&models.OrderLine{}).Where("device_id = ?", id).Count(&ordered).Error; err != nil {
			return apperror.Internal(op, err)
		}
		if ordered > 0 {
			return apperror.Conflict(op, "device %q is referenced by %d order lines", device.Name, ordered)
		}

		for _, dep := range []interface{}{&models.CartLine{}, &models.Rating{}, &models.DeviceInfo{}, &models.DeviceImage{}} {
			if err := tx.Where("device_id = ?", id).Delete(dep).Error; err != nil {
				return apperror.Internal(op, err)
			}
		}
		if err := tx.Model(device).Association("WirelessTypes").Clear(); err != nil {
			return apperror.Internal(op, err)
		}
		if err := tx.Delete(device).Error; err != nil {
			return apperror.Internal(op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("device deleted", zap.Uint("device_id", id))
	return nil
}

// ExportDevices loads every device with the relations shown in spreadsheet exports.
func (s *Store) ExportDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := s.db.WithContext(ctx).
		Preload("Type").
		Preload("Brand").
		Preload("WirelessTypes").
		Order("id ASC").
		Find(&devices).Error; err != nil {
		return nil, apperror.Internal("catalog.ExportDevices", err)
	}
	return devices, nil
}

// AddImage records an uploaded image for the device. A main image demotes the
// previous one; the first image of a device is always main.
func (s *Store) AddImage(ctx context.Context, deviceID uint, path string, isMain bool) (*models.DeviceImage, error) {
	const op = "catalog.AddImage"
	if strings.TrimSpace(path) == "" {
		return nil, apperror.InvalidInput(op, "image path is required")
	}

	image := models.DeviceImage{DeviceID: deviceID, Path: path, IsMain: isMain}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getDevice(tx, deviceID); err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&models.DeviceImage{}).Where("device_id = ?", deviceID).Count(&existing).Error; err != nil {
			return apperror.Internal(op, err)
		}
		if existing == 0 {
			image.IsMain = true
		}
		if image.IsMain && existing > 0 {
			if err := tx.Model(&models.DeviceImage{}).
				Where("device_id = ?", deviceID).
				UpdateColumn("is_main", false).Error; err != nil {
				return apperror.Internal(op, err)
			}
		}
		if err := tx.Create(&image).Error; err != nil {
			return apperror.Internal(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &image, nil
}
