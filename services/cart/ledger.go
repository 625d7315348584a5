package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/models"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
)

// Ledger manages cart lines. There is at most one line per (cart, device);
// adding a device again raises the quantity of the existing line.
type Ledger struct {
	db      *gorm.DB
	catalog *catalog.Store
	log     *zap.Logger
}

func NewLedger(db *gorm.DB, store *catalog.Store, log *zap.Logger) *Ledger {
	return &Ledger{db: db, catalog: store, log: log.Named("cart")}
}

// LineView is a cart line joined with the device summary shown to shoppers.
type LineView struct {
	ID       uint            `json:"id"`
	DeviceID uint            `json:"device_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// CartOf returns the cart owned by userID.
func (l *Ledger) CartOf(ctx context.Context, userID uint) (*models.Cart, error) {
	const op = "cart.CartOf"
	var cart models.Cart
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(op, "cart for user %d not found", userID)
		}
		return nil, apperror.Internal(op, err)
	}
	return &cart, nil
}

// Cart loads a cart by id through db, which may be a transaction.
func (l *Ledger) Cart(db *gorm.DB, cartID uint) (*models.Cart, error) {
	const op = "cart.Cart"
	var cart models.Cart
	if err := db.First(&cart, cartID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(op, "cart %d not found", cartID)
		}
		return nil, apperror.Internal(op, err)
	}
	return &cart, nil
}

// LockCart loads a cart and holds its row lock until tx ends, so checkout and
// line edits on the same cart run one after another.
func (l *Ledger) LockCart(tx *gorm.DB, cartID uint) (*models.Cart, error) {
	return l.Cart(tx.Clauses(clause.Locking{Strength: "UPDATE"}), cartID)
}

// AddLine puts one more unit of deviceID into the cart. The resulting
// quantity may never exceed the device stock.
func (l *Ledger) AddLine(ctx context.Context, cartID, deviceID uint) (*models.CartLine, error) {
	const op = "cart.AddLine"
	var line models.CartLine

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := l.LockCart(tx, cartID); err != nil {
			return err
		}
		device, err := l.catalog.GetDeviceTx(tx, deviceID)
		if err != nil {
			return err
		}

		err = tx.Where("cart_id = ? AND device_id = ?", cartID, deviceID).First(&line).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if device.Stock < 1 {
				return apperror.Conflict(op, "device %q is out of stock", device.Name)
			}
			line = models.CartLine{CartID: cartID, DeviceID: deviceID, Quantity: 1}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&line)
			if res.Error != nil {
				return apperror.Internal(op, res.Error)
			}
			if res.RowsAffected == 1 {
				return nil
			}
			// a concurrent add created the row first; continue as an increment
			err = tx.Where("cart_id = ? AND device_id = ?", cartID, deviceID).First(&line).Error
		}
		if err != nil {
			return apperror.Internal(op, err)
		}

		res := tx.Model(&models.CartLine{}).
			Where("id = ? AND quantity + 1 <= (SELECT stock FROM devices WHERE id = ?)", line.ID, deviceID).
			UpdateColumn("quantity", gorm.Expr("quantity + 1"))
		if res.Error != nil {
			return apperror.Internal(op, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.Conflict(op,
				"only %d of %q in stock, reduce quantity", device.Stock, device.Name)
		}
		if err := tx.First(&line, line.ID).Error; err != nil {
			return apperror.Internal(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Debug("line added",
		zap.Uint("cart_id", cartID), zap.Uint("device_id", deviceID), zap.Int("quantity", line.Quantity))
	return &line, nil
}

// RemoveLine deletes the line of deviceID from the cart.
func (l *Ledger) RemoveLine(ctx context.Context, cartID, deviceID uint) error {
	const op = "cart.RemoveLine"
	res := l.db.WithContext(ctx).
		Where("cart_id = ? AND device_id = ?", cartID, deviceID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return apperror.Internal(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(op, "device %d is not in cart %d", deviceID, cartID)
	}
	return nil
}

// Clear empties the cart. Clearing an empty cart is a Conflict, every time.
func (l *Ledger) Clear(ctx context.Context, cartID uint) error {
	const op = "cart.Clear"
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := l.Cart(tx, cartID); err != nil {
			return err
		}
		removed, err := l.DeleteAllForCart(tx, cartID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return apperror.Conflict(op, "cart %d is already empty", cartID)
		}
		return nil
	})
}

// UpdateQuantity overwrites the quantity of the cart's line for deviceID.
func (l *Ledger) UpdateQuantity(ctx context.Context, cartID, deviceID uint, quantity int) (*models.CartLine, error) {
	const op = "cart.UpdateQuantity"
	if quantity < 1 {
		return nil, apperror.InvalidInput(op, "quantity must be at least 1")
	}

	var line models.CartLine
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := l.LockCart(tx, cartID); err != nil {
			return err
		}
		if err := tx.Where("cart_id = ? AND device_id = ?", cartID, deviceID).First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(op, "device %d is not in cart %d", deviceID, cartID)
			}
			return apperror.Internal(op, err)
		}
		device, err := l.catalog.GetDeviceTx(tx, deviceID)
		if err != nil {
			return err
		}
		if quantity > device.Stock {
			return apperror.Conflict(op,
				"only %d of %q in stock, reduce quantity", device.Stock, device.Name)
		}
		if err := tx.Model(&line).Update("quantity", quantity).Error; err != nil {
			return apperror.Internal(op, err)
		}
		line.Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ListLines returns the cart's lines with device summaries, oldest first.
// An empty cart yields an empty slice.
func (l *Ledger) ListLines(ctx context.Context, cartID uint) ([]LineView, error) {
	const op = "cart.ListLines"
	db := l.db.WithContext(ctx)
	if _, err := l.Cart(db, cartID); err != nil {
		return nil, err
	}

	var lines []models.CartLine
	if err := db.Preload("Device").Where("cart_id = ?", cartID).Order("id ASC").Find(&lines).Error; err != nil {
		return nil, apperror.Internal(op, err)
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.DeviceID)
	}
	images, err := l.catalog.MainImages(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]LineView, 0, len(lines))
	for _, line := range lines {
		view := LineView{
			ID:       line.ID,
			DeviceID: line.DeviceID,
			Quantity: line.Quantity,
			Image:    images[line.DeviceID],
		}
		if line.Device != nil {
			view.Name = line.Device.Name
			view.Price = line.Device.Price
		}
		views = append(views, view)
	}
	return views, nil
}

// Lines reads the raw lines of a cart through tx.
func (l *Ledger) Lines(tx *gorm.DB, cartID uint) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := tx.Where("cart_id = ?", cartID).Order("id ASC").Find(&lines).Error; err != nil {
		return nil, apperror.Internal("cart.Lines", err)
	}
	return lines, nil
}

// DeleteAllForCart removes every line of one cart and reports how many went.
func (l *Ledger) DeleteAllForCart(tx *gorm.DB, cartID uint) (int64, error) {
	res := tx.Where("cart_id = ?", cartID).Delete(&models.CartLine{})
	if res.Error != nil {
		return 0, apperror.Internal("cart.DeleteAllForCart", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteLines removes exactly the given lines. Rows added after they were read stay.
func (l *Ledger) DeleteLines(tx *gorm.DB, lines []models.CartLine) (int64, error) {
	if len(lines) == 0 {
		return 0, nil
	}
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ID)
	}
	res := tx.Where("id IN ?", ids).Delete(&models.CartLine{})
	if res.Error != nil {
		return 0, apperror.Internal("cart.DeleteLines", res.Error)
	}
	return res.RowsAffected, nil
}

// PurgeDevices removes the given devices from every cart in one statement.
func (l *Ledger) PurgeDevices(tx *gorm.DB, deviceIDs []uint) (int64, error) {
	if len(deviceIDs) == 0 {
		return 0, nil
	}
	res := tx.Where("device_id IN ?", deviceIDs).Delete(&models.CartLine{})
	if res.Error != nil {
		return 0, apperror.Internal("cart.PurgeDevices", res.Error)
	}
	return res.RowsAffected, nil
}
