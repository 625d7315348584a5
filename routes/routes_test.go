package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/database/databasetest"
	"github.com/junaidrashid-git/technoworld-api/models"
	"github.com/junaidrashid-git/technoworld-api/realtime"
	"github.com/junaidrashid-git/technoworld-api/services/account"
	"github.com/junaidrashid-git/technoworld-api/services/cart"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
	"github.com/junaidrashid-git/technoworld-api/services/orders"
	"github.com/junaidrashid-git/technoworld-api/services/rating"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const apiKey = "test-key"

type harness struct {
	t       *testing.T
	db      *gorm.DB
	router  *gin.Engine
	tokens  *account.Tokens
	uploads string
}

func newHarness(t *testing.T) *harness {
	db := databasetest.New(t)
	log := zap.NewNop()
	tokens := account.NewTokens("secret", time.Hour)
	store := catalog.NewStore(db, log)
	ledger := cart.NewLedger(db, store, log)
	hub := realtime.NewHub(log)

	uploads := t.TempDir()
	r := gin.New()
	SetupRoutes(r, Services{
		Accounts:    account.NewService(db, tokens, log),
		Catalog:     store,
		Cart:        ledger,
		Orders:      orders.NewWorkflow(db, store, ledger, realtime.Discard{}, log),
		Ratings:     rating.NewAggregator(db, store, log),
		Hub:         hub,
		AdminAPIKey: apiKey,
		UploadsDir:  uploads,
		Log:         log,
	})
	return &harness{t: t, db: db, router: r, tokens: tokens, uploads: uploads}
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) admin() string {
	h.t.Helper()
	token, err := h.tokens.Issue(account.Claims{UserID: 1000, Role: models.RoleAdmin})
	require.NoError(h.t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func (h *harness) register(name string) (string, *account.Claims) {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/user/registration", "", gin.H{
		"userName": name, "userEmail": name + "@example.com", "userPassword": "Secret#123",
	})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var out struct{ Token string }
	decode(h.t, w, &out)
	claims, err := h.tokens.Verify(out.Token)
	require.NoError(h.t, err)
	return out.Token, claims
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterLoginCheck(t *testing.T) {
	h := newHarness(t)
	token, claims := h.register("ann")
	assert.NotZero(t, claims.CartID)

	w := h.do(http.MethodPost, "/api/user/login", "", gin.H{"userEmail": "ann@example.com", "userPassword": "Secret#123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodPost, "/api/user/login", "", gin.H{"userEmail": "ann@example.com", "userPassword": "Wrong#1234"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/user/registration", "", gin.H{
		"userName": "ann", "userEmail": "x@example.com", "userPassword": "Secret#123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodGet, "/api/user/auth", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodGet, "/api/user/auth", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	fio := "Ann Smith"
	w = h.do(http.MethodPut, fmt.Sprintf("/api/user/update/%d", claims.UserID), token, gin.H{"userFio": fio})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, other := h.register("bob")
	w = h.do(http.MethodPut, fmt.Sprintf("/api/user/update/%d", other.UserID), token, gin.H{"userFio": fio})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/api/user", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = h.do(http.MethodGet, "/api/user", h.admin(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var customers []account.Customer
	decode(t, w, &customers)
	assert.Len(t, customers, 2)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	h := newHarness(t)
	token, claims := h.register("ann")
	otherToken, other := h.register("bob")
	d := databasetest.Device(t, h.db, "phone", 2)

	add := gin.H{"cartId": claims.CartID, "deviceId": d.ID}
	for i := 0; i < 2; i++ {
		w := h.do(http.MethodPost, "/api/cart", token, add)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w := h.do(http.MethodPost, "/api/cart", token, add)
	assert.Equal(t, http.StatusConflict, w.Code, "quantity would exceed stock")

	w = h.do(http.MethodPost, "/api/cart", otherToken, gin.H{"cartId": other.CartID, "deviceId": d.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/cart/%d", claims.CartID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "foreign cart")

	w = h.do(http.MethodGet, fmt.Sprintf("/api/cart/%d", claims.CartID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lines []cart.LineView
	decode(t, w, &lines)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	paid := databasetest.Status(t, h.db, &models.PaymentStatus{}, models.PaymentStatusPaid)
	w = h.do(http.MethodPost, "/api/order", token, gin.H{"cartId": claims.CartID, "paymentStatusId": paid, "orderPrice": "200.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var placed struct {
		Message string
		OrderID uint `json:"orderId"`
		Ref     string
	}
	decode(t, w, &placed)
	assert.Equal(t, orders.MessagePlaced, placed.Message)
	assert.NotEmpty(t, placed.Ref)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/cart/%d", other.CartID), otherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &lines)
	assert.Empty(t, lines, "sold out device purged from the other cart")

	w = h.do(http.MethodPost, "/api/order", token, gin.H{"cartId": claims.CartID, "paymentStatusId": paid, "orderPrice": "200.00"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), orders.MessageCartEmpty)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/order/user/%d", claims.UserID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []orders.OrderView
	decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, placed.OrderID, history[0].ID)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/order/user/%d", claims.UserID), otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	shipped := databasetest.Status(t, h.db, &models.DeliveryStatus{}, models.DeliveryStatusShipped)
	update := gin.H{"orderId": placed.OrderID, "deliveryStatusId": shipped}
	w = h.do(http.MethodPut, "/api/order/status", token, update)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = h.do(http.MethodPut, "/api/order/status", h.admin(), update)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/order/%d", placed.OrderID), h.admin(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckoutErrors(t *testing.T) {
	h := newHarness(t)
	token, claims := h.register("ann")
	d := databasetest.Device(t, h.db, "phone", 1)
	databasetest.Line(t, h.db, claims.CartID, d.ID, 2)
	paid := databasetest.Status(t, h.db, &models.PaymentStatus{}, models.PaymentStatusPaid)

	w := h.do(http.MethodPost, "/api/order", token, gin.H{"cartId": claims.CartID, "paymentStatusId": paid, "orderPrice": "0"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/order", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	w = h.do(http.MethodPost, "/api/order", token, gin.H{"cartId": 0, "paymentStatusId": paid, "orderPrice": "10"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = h.do(http.MethodPost, "/api/order", token, gin.H{"cartId": claims.CartID, "paymentStatusId": 999, "orderPrice": "10"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodPost, "/api/order", token, gin.H{"cartId": claims.CartID, "paymentStatusId": paid, "orderPrice": "10"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "phone")
	assert.Equal(t, 1, databasetest.Stock(t, h.db, d.ID))
}

func TestCartClearTwice(t *testing.T) {
	h := newHarness(t)
	token, claims := h.register("ann")
	d := databasetest.Device(t, h.db, "phone", 3)
	databasetest.Line(t, h.db, claims.CartID, d.ID, 1)

	path := fmt.Sprintf("/api/cart/%d", claims.CartID)
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodDelete, path, token, nil).Code)

	databasetest.Line(t, h.db, claims.CartID, d.ID, 1)
	w := h.do(http.MethodPut, "/api/cart", token, gin.H{"cartId": claims.CartID, "deviceId": d.ID, "quantity": 3})
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodDelete, fmt.Sprintf("/api/cart/%d/%d", claims.CartID, d.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodDelete, fmt.Sprintf("/api/cart/%d/%d", claims.CartID, d.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRatingRoutes(t *testing.T) {
	h := newHarness(t)
	token, claims := h.register("ann")
	d := databasetest.Device(t, h.db, "phone", 3)

	w := h.do(http.MethodPost, "/api/rating", token, gin.H{"userId": claims.UserID, "deviceId": d.ID, "rate": 6})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/api/rating", token, gin.H{"deviceId": d.ID, "rate": 4})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodPut, fmt.Sprintf("/api/device/%d/rating", d.ID), h.admin(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rating":4`)
}

func TestCatalogRoutes(t *testing.T) {
	h := newHarness(t)
	admin := h.admin()

	w := h.do(http.MethodPost, "/api/brand", admin, gin.H{"name": "Acme"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = h.do(http.MethodPost, "/api/brand", admin, gin.H{"name": "Acme"})
	assert.Equal(t, http.StatusConflict, w.Code)
	userToken, _ := h.register("ann")
	w = h.do(http.MethodPost, "/api/brand", userToken, gin.H{"name": "Other"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPost, "/api/device", admin, gin.H{
		"name": "Acme Phone", "price": "499.99", "description": "phone", "stock": 0,
		"images": []gin.H{{"path": "acme.jpg"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var device models.Device
	decode(t, w, &device)

	w = h.do(http.MethodGet, "/api/device?limit=10&page=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page catalog.DevicePage
	decode(t, w, &page)
	assert.EqualValues(t, 1, page.Count)

	w = h.do(http.MethodGet, "/api/device?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/device/sold-out", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme Phone")

	w = h.do(http.MethodPut, fmt.Sprintf("/api/device/%d/stock", device.ID), admin, gin.H{"stock": 5})
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodPut, fmt.Sprintf("/api/device/%d/stock", device.ID), admin, gin.H{"stock": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/device/%d", device.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodDelete, fmt.Sprintf("/api/device/%d", device.ID), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodGet, fmt.Sprintf("/api/device/%d", device.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportDevices(t *testing.T) {
	h := newHarness(t)
	databasetest.Device(t, h.db, "phone", 3)

	req := httptest.NewRequest(http.MethodGet, "/api/device/export", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/device/export", nil)
	req.Header.Set("X-API-KEY", apiKey)
	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	file, err := xlsx.OpenBinary(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	require.Equal(t, 2, sheet.MaxRow)
	assert.Equal(t, "phone", sheet.Rows[1].Cells[1].String())
}

func TestWebsocketRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	token, _ := h.register("ann")

	w := h.do(http.MethodGet, "/api/order/ws?token="+token, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUploadImage(t *testing.T) {
	h := newHarness(t)
	d := databasetest.Device(t, h.db, "phone", 1)

	upload := func(filename string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image"))
		require.NoError(t, err)
		require.NoError(t, mw.WriteField("main", "true"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/device/%d/image", d.ID), &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+h.admin())
		w := httptest.NewRecorder()
		h.router.ServeHTTP(w, req)
		return w
	}

	w := upload("front.png")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var image models.DeviceImage
	decode(t, w, &image)
	assert.True(t, image.IsMain)

	data, err := os.ReadFile(filepath.Join(h.uploads, filepath.FromSlash(image.Path)))
	require.NoError(t, err)
	assert.Equal(t, "fake image", string(data))

	w = upload("notes.txt")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (h *harness) importStock(rows [][]string) *httptest.ResponseRecorder {
	h.t.Helper()
	book := xlsx.NewFile()
	sheet, err := book.AddSheet("Stock")
	require.NoError(h.t, err)
	for _, values := range append([][]string{{"id", "stock"}}, rows...) {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	var sheetBytes bytes.Buffer
	require.NoError(h.t, book.Write(&sheetBytes))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "stock.xlsx")
	require.NoError(h.t, err)
	_, err = part.Write(sheetBytes.Bytes())
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/device/import-stock", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-KEY", apiKey)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestImportStock(t *testing.T) {
	h := newHarness(t)
	d := databasetest.Device(t, h.db, "phone", 1)

	w := h.importStock([][]string{
		{fmt.Sprint(d.ID), "7"},
		{"abc", "5"},
		{"999", "3"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Updated int `json:"updated_count"`
		Skipped int `json:"skipped_count"`
	}
	decode(t, w, &out)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 2, out.Skipped)
	assert.Equal(t, 7, databasetest.Stock(t, h.db, d.ID))
}

func TestImportStockAbortsOnStoreFailure(t *testing.T) {
	h := newHarness(t)
	d := databasetest.Device(t, h.db, "phone", 1)
	sqlDB, err := h.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := h.importStock([][]string{{fmt.Sprint(d.ID), "7"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "Import completed")
}

func TestLookupRoutes(t *testing.T) {
	h := newHarness(t)
	admin := h.admin()

	w := h.do(http.MethodPost, "/api/material", admin, gin.H{"name": "aluminium"})
	require.Equal(t, http.StatusCreated, w.Code)
	var alu catalog.NamedEntry
	decode(t, w, &alu)
	w = h.do(http.MethodPost, "/api/material", admin, gin.H{"name": "glass"})
	require.Equal(t, http.StatusCreated, w.Code)

	path := fmt.Sprintf("/api/material/%d", alu.ID)
	w = h.do(http.MethodPut, path, admin, gin.H{"name": "titanium"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "titanium")

	w = h.do(http.MethodPut, path, admin, gin.H{"name": "glass"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = h.do(http.MethodPut, "/api/material/999", admin, gin.H{"name": "steel"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	userToken, _ := h.register("ann")
	w = h.do(http.MethodDelete, path, userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	device := models.Device{Name: "frame", Price: decimal.NewFromInt(10), Description: "x", Stock: 1, MaterialID: &alu.ID}
	require.NoError(t, h.db.Create(&device).Error)
	w = h.do(http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, h.db.Delete(&device).Error)
	w = h.do(http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
