package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/database/databasetest"
	"github.com/junaidrashid-git/technoworld-api/models"
)

func newStore(t *testing.T) (*Store, *gorm.DB) {
	db := databasetest.New(t)
	return NewStore(db, zap.NewNop()), db
}

func TestTryDecrement(t *testing.T) {
	store, db := newStore(t)
	d := databasetest.Device(t, db, "phone", 3)

	left, err := store.TryDecrement(db, d.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	left, err = store.TryDecrement(db, d.ID, 2)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Contains(t, err.Error(), "available 1, requested 2")
	assert.Equal(t, 1, left)
	assert.Equal(t, 1, databasetest.Stock(t, db, d.ID), "failed decrement must not change stock")

	_, err = store.TryDecrement(db, d.ID, 0)
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	_, err = store.TryDecrement(db, 999, 1)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestTryDecrementNeverGoesNegative(t *testing.T) {
	store, db := newStore(t)
	d := databasetest.Device(t, db, "watch", 5)

	for i := 0; i < 10; i++ {
		_, _ = store.TryDecrement(db, d.ID, 1)
	}
	assert.Equal(t, 0, databasetest.Stock(t, db, d.ID))
}

func TestTryDecrementConcurrent(t *testing.T) {
	store, db := newStore(t)
	d := databasetest.Device(t, db, "console", 3)

	const buyers = 8
	errs := make([]error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.Transaction(func(tx *gorm.DB) error {
				_, err := store.TryDecrement(tx, d.ID, 1)
				return err
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.Is(err, apperror.KindConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 0, databasetest.Stock(t, db, d.ID))
}

func TestSetStock(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()
	d := databasetest.Device(t, db, "tablet", 1)

	require.NoError(t, store.SetStock(ctx, d.ID, 7))
	assert.Equal(t, 7, databasetest.Stock(t, db, d.ID))

	err := store.SetStock(ctx, d.ID, -1)
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	err = store.SetStock(ctx, 404, 1)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestSoldOutDetection(t *testing.T) {
	store, db := newStore(t)
	a := databasetest.Device(t, db, "a", 0)
	b := databasetest.Device(t, db, "b", 2)
	c := databasetest.Device(t, db, "c", 0)

	zero, err := store.FindDevicesWithZeroStock(context.Background())
	require.NoError(t, err)
	require.Len(t, zero, 2)
	assert.Equal(t, a.ID, zero[0].ID)
	assert.Equal(t, c.ID, zero[1].ID)

	ids, err := store.SoldOutAmong(db, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, ids)

	ids, err = store.SoldOutAmong(db, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMainImages(t *testing.T) {
	store, db := newStore(t)
	d := databasetest.Device(t, db, "laptop", 1)
	require.NoError(t, db.Create(&models.DeviceImage{DeviceID: d.ID, Path: "side.jpg"}).Error)

	bare := models.Device{Name: "bare", Price: decimal.NewFromInt(5), Description: "x", Stock: 1}
	require.NoError(t, db.Create(&bare).Error)

	images, err := store.MainImages(context.Background(), []uint{d.ID, bare.ID})
	require.NoError(t, err)
	assert.Equal(t, "laptop.jpg", images[d.ID])
	_, ok := images[bare.ID]
	assert.False(t, ok)
}

func TestCreateDevice(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	brand, err := store.CreateNamed(ctx, Brands, "Acme")
	require.NoError(t, err)
	tag, err := store.CreateNamed(ctx, WirelessTypes, "Bluetooth")
	require.NoError(t, err)

	in := NewDevice{
		Name:            "Acme Buds",
		Price:           decimal.RequireFromString("49.90"),
		Description:     "earbuds",
		Stock:           4,
		BrandID:         &brand.ID,
		WirelessTypeIDs: []uint{tag.ID, tag.ID},
		Info:            []InfoInput{{Title: "battery", Description: "6h"}},
		Images:          []ImageInput{{Path: "front.jpg"}, {Path: "back.jpg"}},
	}
	device, err := store.CreateDevice(ctx, in)
	require.NoError(t, err)

	detail, err := store.GetDeviceDetail(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Buds", detail.Name)
	assert.True(t, decimal.RequireFromString("49.90").Equal(detail.Price))
	require.NotNil(t, detail.Brand)
	assert.Equal(t, "Acme", detail.Brand.Name)
	assert.Len(t, detail.WirelessTypes, 1)
	assert.Len(t, detail.Info, 1)
	require.Len(t, detail.Images, 2)

	images, err := store.MainImages(ctx, []uint{device.ID})
	require.NoError(t, err)
	assert.Equal(t, "front.jpg", images[device.ID], "first image is main by default")

	_, err = store.CreateDevice(ctx, in)
	assert.True(t, apperror.Is(err, apperror.KindConflict), "duplicate name")

	missing := uint(77)
	in.Name = "Other"
	in.BrandID = &missing
	_, err = store.CreateDevice(ctx, in)
	assert.True(t, apperror.Is(err, apperror.KindNotFound), "unknown brand")

	in.BrandID = nil
	in.Price = decimal.Zero
	_, err = store.CreateDevice(ctx, in)
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
}

func TestListDevices(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()
	brand, err := store.CreateNamed(ctx, Brands, "Zed")
	require.NoError(t, err)

	for _, name := range []string{"one", "two", "three"} {
		databasetest.Device(t, db, name, 1)
	}
	branded := databasetest.Device(t, db, "four", 1)
	require.NoError(t, db.Model(&branded).Update("brand_id", brand.ID).Error)

	page, err := store.ListDevices(ctx, DeviceFilter{Limit: 2, Page: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Count)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "three", page.Rows[0].Name)

	page, err = store.ListDevices(ctx, DeviceFilter{BrandID: brand.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Count)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, branded.ID, page.Rows[0].ID)
}

func TestDeleteDevice(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()
	d := databasetest.Device(t, db, "gone", 2)
	_, cart := databasetest.User(t, db, "ann")
	databasetest.Line(t, db, cart.ID, d.ID, 1)

	require.NoError(t, store.DeleteDevice(ctx, d.ID))

	var lines int64
	require.NoError(t, db.Model(&models.CartLine{}).Count(&lines).Error)
	assert.Zero(t, lines)
	_, err := store.GetDevice(ctx, d.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	err = store.DeleteDevice(ctx, d.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDeleteDeviceReferencedByOrder(t *testing.T) {
	store, db := newStore(t)
	d := databasetest.Device(t, db, "sold", 2)
	user, _ := databasetest.User(t, db, "bob")
	order := models.Order{
		Ref:              "r1",
		UserID:           user.ID,
		Price:            decimal.NewFromInt(100),
		DeliveryStatusID: databasetest.Status(t, db, &models.DeliveryStatus{}, models.DeliveryStatusPlaced),
		PaymentStatusID:  databasetest.Status(t, db, &models.PaymentStatus{}, models.PaymentStatusPaid),
		Lines:            []models.OrderLine{{DeviceID: d.ID, Quantity: 1}},
	}
	require.NoError(t, db.Create(&order).Error)

	err := store.DeleteDevice(context.Background(), d.ID)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestNamedEntries(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.CreateNamed(ctx, Colors, "black")
	require.NoError(t, err)
	_, err = store.CreateNamed(ctx, Colors, "white")
	require.NoError(t, err)

	_, err = store.CreateNamed(ctx, Colors, "black")
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	_, err = store.CreateNamed(ctx, Colors, "  ")
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
	_, err = store.CreateNamed(ctx, NamedKind("shape"), "round")
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	entries, err := store.ListNamed(ctx, Colors)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "black", entries[0].Name)

	empty, err := store.ListNamed(ctx, Materials)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestUpdateAndDeleteNamed(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()

	black, err := store.CreateNamed(ctx, Colors, "black")
	require.NoError(t, err)
	white, err := store.CreateNamed(ctx, Colors, "white")
	require.NoError(t, err)

	renamed, err := store.UpdateNamed(ctx, Colors, black.ID, "graphite")
	require.NoError(t, err)
	assert.Equal(t, "graphite", renamed.Name)
	got, err := store.GetNamed(ctx, Colors, black.ID)
	require.NoError(t, err)
	assert.Equal(t, "graphite", got.Name)

	_, err = store.UpdateNamed(ctx, Colors, black.ID, "graphite")
	assert.NoError(t, err, "keeping its own name is fine")
	_, err = store.UpdateNamed(ctx, Colors, black.ID, "white")
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	_, err = store.UpdateNamed(ctx, Colors, 404, "red")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = store.UpdateNamed(ctx, Colors, black.ID, " ")
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	device := models.Device{Name: "painted", Price: decimal.NewFromInt(5), Description: "x", Stock: 1, ColorID: &white.ID}
	require.NoError(t, db.Create(&device).Error)
	err = store.DeleteNamed(ctx, Colors, white.ID)
	assert.True(t, apperror.Is(err, apperror.KindConflict), "still used by a device")

	require.NoError(t, store.DeleteNamed(ctx, Colors, black.ID))
	_, err = store.GetNamed(ctx, Colors, black.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	err = store.DeleteNamed(ctx, Colors, black.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDeleteWirelessTypeInUse(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	tag, err := store.CreateNamed(ctx, WirelessTypes, "bluetooth")
	require.NoError(t, err)
	_, err = store.CreateDevice(ctx, NewDevice{
		Name: "buds", Price: decimal.NewFromInt(50), Description: "earbuds", Stock: 1,
		WirelessTypeIDs: []uint{tag.ID},
	})
	require.NoError(t, err)

	err = store.DeleteNamed(ctx, WirelessTypes, tag.ID)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestCreateDeviceLinksTypeAndBrand(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	phones, err := store.CreateNamed(ctx, Types, "phone")
	require.NoError(t, err)
	acme, err := store.CreateNamed(ctx, Brands, "Acme")
	require.NoError(t, err)

	for _, name := range []string{"Acme One", "Acme Two"} {
		_, err := store.CreateDevice(ctx, NewDevice{
			Name: name, Price: decimal.NewFromInt(100), Description: "phone", Stock: 1,
			TypeID: &phones.ID, BrandID: &acme.ID,
		})
		require.NoError(t, err)
	}

	typ, err := store.GetNamed(ctx, Types, phones.ID)
	require.NoError(t, err)
	require.Len(t, typ.Brands, 1, "one link per pair")
	assert.Equal(t, "Acme", typ.Brands[0].Name)
}

func TestAddImage(t *testing.T) {
	store, db := newStore(t)
	ctx := context.Background()
	bare := models.Device{Name: "bare", Price: decimal.NewFromInt(5), Description: "x", Stock: 1}
	require.NoError(t, db.Create(&bare).Error)

	first, err := store.AddImage(ctx, bare.ID, "devices/a.jpg", false)
	require.NoError(t, err)
	assert.True(t, first.IsMain, "first image becomes main")

	_, err = store.AddImage(ctx, bare.ID, "devices/b.jpg", false)
	require.NoError(t, err)
	images, err := store.MainImages(ctx, []uint{bare.ID})
	require.NoError(t, err)
	assert.Equal(t, "devices/a.jpg", images[bare.ID])

	_, err = store.AddImage(ctx, bare.ID, "devices/c.jpg", true)
	require.NoError(t, err)
	images, err = store.MainImages(ctx, []uint{bare.ID})
	require.NoError(t, err)
	assert.Equal(t, "devices/c.jpg", images[bare.ID])

	_, err = store.AddImage(ctx, 404, "devices/x.jpg", false)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = store.AddImage(ctx, bare.ID, " ", false)
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
}
