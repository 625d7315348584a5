// Package databasetest opens migrated in-memory databases for tests.
package databasetest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/junaidrashid-git/technoworld-api/database"
	"github.com/junaidrashid-git/technoworld-api/models"
)

// New returns an isolated, migrated in-memory database that lives for the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db, zap.NewNop()))
	return db
}

// Device inserts a device with the given stock and a main image.
func Device(t testing.TB, db *gorm.DB, name string, stock int) models.Device {
	t.Helper()
	d := models.Device{
		Name:        name,
		Price:       decimal.NewFromInt(100),
		Description: name + " description",
		Stock:       stock,
		Images:      []models.DeviceImage{{Path: name + ".jpg", IsMain: true}},
	}
	require.NoError(t, db.Create(&d).Error)
	return d
}

// User inserts a user together with its cart.
func User(t testing.TB, db *gorm.DB, name string) (models.User, models.Cart) {
	t.Helper()
	u := models.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(&u).Error)
	c := models.Cart{UserID: u.ID}
	require.NoError(t, db.Create(&c).Error)
	return u, c
}

// Line puts quantity units of device into cart directly.
func Line(t testing.TB, db *gorm.DB, cartID, deviceID uint, quantity int) models.CartLine {
	t.Helper()
	l := models.CartLine{CartID: cartID, DeviceID: deviceID, Quantity: quantity}
	require.NoError(t, db.Create(&l).Error)
	return l
}

// Stock reads the current stock of a device.
func Stock(t testing.TB, db *gorm.DB, deviceID uint) int {
	t.Helper()
	var d models.Device
	require.NoError(t, db.First(&d, deviceID).Error)
	return d.Stock
}

// Status returns the id of a seeded delivery or payment status.
func Status(t testing.TB, db *gorm.DB, model interface{}, name string) uint {
	t.Helper()
	var row struct{ ID uint }
	require.NoError(t, db.Model(model).Select("id").Where("name = ?", name).Take(&row).Error)
	return row.ID
}
