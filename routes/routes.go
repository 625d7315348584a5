package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/realtime"
	"github.com/junaidrashid-git/technoworld-api/services/account"
	"github.com/junaidrashid-git/technoworld-api/services/cart"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
	"github.com/junaidrashid-git/technoworld-api/services/orders"
	"github.com/junaidrashid-git/technoworld-api/services/rating"
)

// Services is everything the HTTP layer needs.
type Services struct {
	Accounts    *account.Service
	Catalog     *catalog.Store
	Cart        *cart.Ledger
	Orders      *orders.Workflow
	Ratings     *rating.Aggregator
	Hub         *realtime.Hub
	AdminAPIKey string
	UploadsDir  string
	Log         *zap.Logger
}

// SetupRoutes is the single entry point that wires every /api group.
func SetupRoutes(r *gin.Engine, s Services) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// 1️⃣ Accounts (registration and login are public)
	SetupUserRoutes(api, s)

	// 2️⃣ Cart ledger (JWT)
	SetupCartRoutes(api, s)

	// 3️⃣ Orders, statuses and the live feed
	SetupOrderRoutes(api, s)

	// 4️⃣ Catalog, ratings and the API key protected spreadsheet endpoints
	SetupCatalogRoutes(api, s)
}
