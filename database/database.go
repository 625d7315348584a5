package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/junaidrashid-git/technoworld-api/models"
)

// Connect opens the postgres database behind dsn.
func Connect(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Migrate creates the schema and seeds the default order statuses.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	for _, name := range []string{
		models.DeliveryStatusPlaced,
		models.DeliveryStatusShipped,
		models.DeliveryStatusDelivered,
		models.DeliveryStatusCancelled,
	} {
		status := models.DeliveryStatus{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&status).Error; err != nil {
			return fmt.Errorf("seed delivery status %q: %w", name, err)
		}
	}
	for _, name := range []string{
		models.PaymentStatusPending,
		models.PaymentStatusPaid,
		models.PaymentStatusRefunded,
	} {
		status := models.PaymentStatus{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&status).Error; err != nil {
			return fmt.Errorf("seed payment status %q: %w", name, err)
		}
	}

	log.Info("database migrated", zap.Int("models", len(models.All())))
	return nil
}
