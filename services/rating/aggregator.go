package rating

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/models"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

const (
	MinRate = 1
	MaxRate = 5
)

// Aggregator stores per-user marks and keeps Device.Rating equal to the
// rounded mean of all marks for the device.
type Aggregator struct {
	db      *gorm.DB
	catalog *catalog.Store
	log     *zap.Logger
}

func NewAggregator(db *gorm.DB, store *catalog.Store, log *zap.Logger) *Aggregator {
	return &Aggregator{db: db, catalog: store, log: log.Named("rating")}
}

type SubmitRequest struct {
	UserID   uint `json:"userId"`
	DeviceID uint `json:"deviceId"`
	Rate     int  `json:"rate"`
}

// Validate rejects malformed ids with InvalidInput and marks outside
// [MinRate, MaxRate] with Conflict.
func (r SubmitRequest) Validate() error {
	const op = "rating.Submit"
	if r.UserID == 0 {
		return apperror.InvalidInput(op, "invalid user id")
	}
	if r.DeviceID == 0 {
		return apperror.InvalidInput(op, "invalid device id")
	}
	if r.Rate < MinRate || r.Rate > MaxRate {
		return apperror.Conflict(op, "rate must be between %d and %d", MinRate, MaxRate)
	}
	return nil
}

type SubmitResult struct {
	Created bool `json:"created"`
	Rating  int  `json:"rating"` // device rating after the submit
}

// SubmitRating inserts or overwrites the user's mark for the device and
// refreshes the device rating in the same transaction.
func (a *Aggregator) SubmitRating(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	const op = "rating.Submit"
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &SubmitResult{}
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Where("id = ?", req.UserID).Count(&users).Error; err != nil {
			return apperror.Internal(op, err)
		}
		if users == 0 {
			return apperror.NotFound(op, "user %d not found", req.UserID)
		}
		if _, err := a.catalog.GetDeviceTx(tx, req.DeviceID); err != nil {
			return err
		}

		var existing models.Rating
		err := tx.Where("user_id = ? AND device_id = ?", req.UserID, req.DeviceID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.Rating{UserID: req.UserID, DeviceID: req.DeviceID, Rate: req.Rate}
			if err := tx.Create(&row).Error; err != nil {
				return apperror.Internal(op, err)
			}
			result.Created = true
		case err != nil:
			return apperror.Internal(op, err)
		default:
			if err := tx.Model(&existing).Update("rate", req.Rate).Error; err != nil {
				return apperror.Internal(op, err)
			}
		}

		rating, err := recompute(tx, req.DeviceID)
		if err != nil {
			return err
		}
		result.Rating = rating
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.log.Info("rating submitted",
		zap.Uint("user_id", req.UserID),
		zap.Uint("device_id", req.DeviceID),
		zap.Int("rate", req.Rate),
		zap.Bool("created", result.Created))
	return result, nil
}

// RecomputeDeviceRating sets Device.Rating to round(mean(rate)).
// A device nobody has rated is a Conflict.
func (a *Aggregator) RecomputeDeviceRating(ctx context.Context, deviceID uint) (int, error) {
	var rating int
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := a.catalog.GetDeviceTx(tx, deviceID); err != nil {
			return err
		}
		var err error
		rating, err = recompute(tx, deviceID)
		return err
	})
	return rating, err
}

func recompute(tx *gorm.DB, deviceID uint) (int, error) {
	const op = "rating.Recompute"
	var agg struct {
		Total int64
		Count int64
	}
	if err := tx.Model(&models.Rating{}).
		Select("COALESCE(SUM(rate), 0) AS total, COUNT(*) AS count").
		Where("device_id = ?", deviceID).
		Scan(&agg).Error; err != nil {
		return 0, apperror.Internal(op, err)
	}
	if agg.Count == 0 {
		return 0, apperror.Conflict(op, "device %d has never been rated", deviceID)
	}

	rating := MeanRounded(agg.Total, agg.Count)
	if err := tx.Model(&models.Device{}).Where("id = ?", deviceID).Update("rating", rating).Error; err != nil {
		return 0, apperror.Internal(op, err)
	}
	return rating, nil
}

// MeanRounded is total/count rounded half away from zero.
func MeanRounded(total, count int64) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(count)))
}
