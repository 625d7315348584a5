package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/technoworld-api/backup"
	"github.com/junaidrashid-git/technoworld-api/config"
	"github.com/junaidrashid-git/technoworld-api/database"
	"github.com/junaidrashid-git/technoworld-api/middleware"
	"github.com/junaidrashid-git/technoworld-api/realtime"
	"github.com/junaidrashid-git/technoworld-api/routes"
	"github.com/junaidrashid-git/technoworld-api/services/account"
	"github.com/junaidrashid-git/technoworld-api/services/cart"
	"github.com/junaidrashid-git/technoworld-api/services/catalog"
	"github.com/junaidrashid-git/technoworld-api/services/orders"
	"github.com/junaidrashid-git/technoworld-api/services/rating"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	os.Exit(serve(cfg, log))
}

// serve runs the server and returns the exit code once the logger is flushed.
func serve(cfg *config.Config, log *zap.Logger) int {
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting application", zap.String("environment", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	hub := realtime.NewHub(log)
	go hub.Run(ctx)

	var events realtime.Publisher = hub
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		client := redis.NewClient(opts)
		defer client.Close()

		relay := realtime.NewRelay(client, realtime.DefaultChannel, hub, log)
		go func() {
			if err := relay.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("order relay stopped", zap.Error(err))
			}
		}()
		events = relay
		log.Info("order events relayed through redis", zap.String("channel", realtime.DefaultChannel))
	}

	store := catalog.NewStore(db, log)
	ledger := cart.NewLedger(db, store, log)
	accounts := account.NewService(db, account.NewTokens(cfg.JWTSecret, cfg.TokenTTL), log)
	accounts.AllowAdminSignup = cfg.AllowAdminSignup

	services := routes.Services{
		Accounts:    accounts,
		Catalog:     store,
		Cart:        ledger,
		Orders:      orders.NewWorkflow(db, store, ledger, events, log, orders.WithInitialStatus(cfg.InitialDeliveryStatus)),
		Ratings:     rating.NewAggregator(db, store, log),
		Hub:         hub,
		AdminAPIKey: cfg.AdminAPIKey,
		UploadsDir:  cfg.UploadsDir,
		Log:         log,
	}

	if cfg.BackupDir != "" {
		scheduler := backup.NewScheduler(cfg.UploadsDir, cfg.BackupDir, cfg.BackupRetention, cfg.BackupHour, 0, log)
		go scheduler.Run(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           newRouter(cfg, services, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(cfg *config.Config, services routes.Services, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Allow image and spreadsheet uploads up to 64 MB
	r.MaxMultipartMemory = 64 << 20

	allowAll := len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*"
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  allowAll,
		AllowOrigins:     corsOrigins(allowAll, cfg.CORSOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: !allowAll,
		MaxAge:           12 * time.Hour,
	}))

	// Serve uploaded device images
	r.Static("/uploads", cfg.UploadsDir)

	routes.SetupRoutes(r, services)
	return r
}

func corsOrigins(allowAll bool, origins []string) []string {
	if allowAll {
		return nil
	}
	return origins
}
