package catalog

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/models"
)

// NamedKind selects one of the flat catalog lookups.
type NamedKind string

const (
	Brands        NamedKind = "brand"
	Types         NamedKind = "type"
	Colors        NamedKind = "color"
	Materials     NamedKind = "material"
	WirelessTypes NamedKind = "wireless-type"
)

var namedTables = map[NamedKind]string{
	Brands:        "brands",
	Types:         "types",
	Colors:        "colors",
	Materials:     "materials",
	WirelessTypes: "wireless_types",
}

// namedRefs names where devices point at an entry of each kind.
var namedRefs = map[NamedKind]struct{ table, column string }{
	Brands:        {"devices", "brand_id"},
	Types:         {"devices", "type_id"},
	Colors:        {"devices", "color_id"},
	Materials:     {"devices", "material_id"},
	WirelessTypes: {"device_wireless_types", "wireless_type_id"},
}

type NamedEntry struct {
	ID     uint         `json:"id"`
	Name   string       `json:"name"`
	Brands []NamedEntry `json:"brands,omitempty" gorm:"-"`
}

func (k NamedKind) table() (string, bool) {
	t, ok := namedTables[k]
	return t, ok
}

func newNamed(kind NamedKind, name string) (interface{}, func() uint) {
	switch kind {
	case Brands:
		m := &models.Brand{Name: name}
		return m, func() uint { return m.ID }
	case Types:
		m := &models.Type{Name: name}
		return m, func() uint { return m.ID }
	case Colors:
		m := &models.Color{Name: name}
		return m, func() uint { return m.ID }
	case Materials:
		m := &models.Material{Name: name}
		return m, func() uint { return m.ID }
	default:
		m := &models.WirelessType{Name: name}
		return m, func() uint { return m.ID }
	}
}

// CreateNamed adds a lookup entry. Names are unique per kind.
func (s *Store) CreateNamed(ctx context.Context, kind NamedKind, name string) (*NamedEntry, error) {
	const op = "catalog.CreateNamed"
	table, ok := kind.table()
	if !ok {
		return nil, apperror.InvalidInput(op, "unknown catalog kind %q", kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.InvalidInput(op, "%s name is required", kind)
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Table(table).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}
	if count > 0 {
		return nil, apperror.Conflict(op, "%s %q already exists", kind, name)
	}

	row, id := newNamed(kind, name)
	if err := db.Create(row).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}
	s.log.Info("catalog entry created", zap.String("kind", string(kind)), zap.String("name", name))
	return &NamedEntry{ID: id(), Name: name}, nil
}

// ListNamed returns all entries of a kind ordered by id.
func (s *Store) ListNamed(ctx context.Context, kind NamedKind) ([]NamedEntry, error) {
	const op = "catalog.ListNamed"
	table, ok := kind.table()
	if !ok {
		return nil, apperror.InvalidInput(op, "unknown catalog kind %q", kind)
	}
	entries := []NamedEntry{}
	if err := s.db.WithContext(ctx).Table(table).Select("id, name").Order("id ASC").Scan(&entries).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}
	return entries, nil
}

// GetNamed loads one entry. Types come with the brands linked to them.
func (s *Store) GetNamed(ctx context.Context, kind NamedKind, id uint) (*NamedEntry, error) {
	const op = "catalog.GetNamed"
	table, ok := kind.table()
	if !ok {
		return nil, apperror.InvalidInput(op, "unknown catalog kind %q", kind)
	}
	db := s.db.WithContext(ctx)
	var entries []NamedEntry
	if err := db.Table(table).Select("id, name").Where("id = ?", id).Limit(1).Scan(&entries).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}
	if len(entries) == 0 {
		return nil, apperror.NotFound(op, "%s %d not found", kind, id)
	}
	entry := entries[0]
	if kind == Types {
		entry.Brands = []NamedEntry{}
		if err := db.Table("brands").
			Select("brands.id, brands.name").
			Joins("JOIN type_brands ON type_brands.brand_id = brands.id").
			Where("type_brands.type_id = ?", id).
			Order("brands.id ASC").
			Scan(&entry.Brands).Error; err != nil {
			return nil, apperror.Internal(op, err)
		}
	}
	return &entry, nil
}

// UpdateNamed renames an entry. The new name must stay unique per kind.
func (s *Store) UpdateNamed(ctx context.Context, kind NamedKind, id uint, name string) (*NamedEntry, error) {
	const op = "catalog.UpdateNamed"
	table, ok := kind.table()
	if !ok {
		return nil, apperror.InvalidInput(op, "unknown catalog kind %q", kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.InvalidInput(op, "%s name is required", kind)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := namedExists(tx, kind, table, id, op); err != nil {
			return err
		}
		var taken int64
		if err := tx.Table(table).Where("name = ? AND id <> ?", name, id).Count(&taken).Error; err != nil {
			return apperror.Internal(op, err)
		}
		if taken > 0 {
			return apperror.Conflict(op, "%s %q already exists", kind, name)
		}
		if err := tx.Table(table).Where("id = ?", id).Update("name", name).Error; err != nil {
			return apperror.Internal(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("catalog entry renamed", zap.String("kind", string(kind)), zap.Uint("id", id), zap.String("name", name))
	return &NamedEntry{ID: id, Name: name}, nil
}

// DeleteNamed removes an entry no device refers to. Type/brand links go with it.
func (s *Store) DeleteNamed(ctx context.Context, kind NamedKind, id uint) error {
	const op = "catalog.DeleteNamed"
	table, ok := kind.table()
	if !ok {
		return apperror.InvalidInput(op, "unknown catalog kind %q", kind)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := namedExists(tx, kind, table, id, op); err != nil {
			return err
		}
		ref := namedRefs[kind]
		var used int64
		if err := tx.Table(ref.table).Where(ref.column+" = ?", id).Count(&used).Error; err != nil {
			return apperror.Internal(op, err)
		}
		if used > 0 {
			return apperror.Conflict(op, "%s %d is used by %d devices", kind, id, used)
		}
		switch kind {
		case Brands:
			if err := tx.Exec("DELETE FROM type_brands WHERE brand_id = ?", id).Error; err != nil {
				return apperror.Internal(op, err)
			}
		case Types:
			if err := tx.Exec("DELETE FROM type_brands WHERE type_id = ?", id).Error; err != nil {
				return apperror.Internal(op, err)
			}
		}
		row, _ := newNamed(kind, "")
		if err := tx.Delete(row, id).Error; err != nil {
			return apperror.Internal(op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("catalog entry deleted", zap.String("kind", string(kind)), zap.Uint("id", id))
	return nil
}

func namedExists(tx *gorm.DB, kind NamedKind, table string, id uint, op string) error {
	var count int64
	if err := tx.Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperror.Internal(op, err)
	}
	if count == 0 {
		return apperror.NotFound(op, "%s %d not found", kind, id)
	}
	return nil
}
