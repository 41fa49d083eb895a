package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/analytics"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/config"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/database"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/deviceauth"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/handlers"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/ledger"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/middleware"
	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/notify"
)

type app struct {
	db          *sql.DB
	cfg         config.Config
	ledger      *ledger.Service
	analytics   *analytics.Aggregator
	gate        *deviceauth.Gate
	dispatcher  *notify.Dispatcher
	rateLimiter *middleware.RateLimiter
}

func newApp(ctx context.Context, db *sql.DB, cfg config.Config, n notify.Notifier) *app {
	dispatcher := notify.NewDispatcher(n, 0)
	return &app{
		db:         db,
		cfg:        cfg,
		ledger:     ledger.NewService(db, dispatcher, cfg.BusinessEmail),
		analytics:  analytics.NewAggregator(db),
		dispatcher: dispatcher,
		gate: deviceauth.NewGate(db, deviceauth.Config{
			JWTSecret:     cfg.JWTSecret,
			AccessTTL:     cfg.AccessTokenTTL,
			BootstrapCode: cfg.BootstrapCode,
			CodeTTL:       cfg.DeviceCodeTTL,
			AllowLegacy:   cfg.AllowLegacySessions,
		}),
		rateLimiter: middleware.NewRateLimiter(ctx, cfg.RateLimitWindow),
	}
}

func setupRouter(a *app) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	limited := a.rateLimiter.Middleware()

	r.GET("/", handlers.Home())
	r.GET("/healthz", handlers.Health(a.db))

	r.GET("/products", handlers.GetProducts(a.db))
	r.GET("/categories", handlers.GetCategories(a.db))
	r.GET("/themes/active", handlers.GetActiveThemes(a.db))

	r.POST("/orders", limited, handlers.CreateOrder(a.ledger))
	r.GET("/orders/:orderNumber", handlers.GetOrder(a.ledger))
	r.POST("/orders/:orderNumber/deposit", limited, handlers.RecordDeposit(a.ledger))
	r.POST("/orders/:orderNumber/pay-balance", limited, handlers.PayBalance(a.ledger))
	r.POST("/pay-balance/:orderNumber", limited, handlers.PayBalance(a.ledger))
	r.POST("/contact", limited, handlers.SubmitContact(a.db, a.dispatcher, a.cfg.BusinessEmail))

	r.POST("/auth/login", limited, handlers.AdminLogin(a.gate))
	r.POST("/auth/register-device", limited, handlers.RegisterDevice(a.gate))

	auth := r.Group("/auth")
	auth.Use(middleware.AdminAuth(a.gate))
	{
		auth.GET("/verify", handlers.VerifySession(a.gate))
		auth.GET("/devices", handlers.ListDevices(a.gate))
		auth.POST("/devices/generate-code", handlers.GenerateDeviceCode(a.gate))
		auth.DELETE("/devices/:id", handlers.RevokeDevice(a.gate))
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuth(a.gate))
	{
		admin.GET("/orders", handlers.GetAllOrders(a.ledger))
		admin.GET("/orders/:id", handlers.GetOrderByID(a.ledger))
		admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(a.ledger))
		admin.PATCH("/orders/:id/payment-status", handlers.UpdatePaymentStatus(a.ledger))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(a.ledger))

		admin.POST("/maintenance/cleanup", handlers.CleanupOrders(a.analytics))
		admin.GET("/analytics/historical", handlers.HistoricalAnalytics(a.analytics))
		admin.GET("/analytics/summary", handlers.AnalyticsSummary(a.analytics))

		admin.GET("/products", handlers.GetAllProducts(a.db))
		admin.POST("/products", handlers.CreateProduct(a.db))
		admin.PUT("/products/:id", handlers.UpdateProduct(a.db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(a.db))

		admin.GET("/categories", handlers.GetAllCategories(a.db))
		admin.POST("/categories", handlers.CreateCategory(a.db))
		admin.PUT("/categories/:slug", handlers.UpdateCategory(a.db))
		admin.DELETE("/categories/:slug", handlers.DeleteCategory(a.db))

		admin.GET("/themes", handlers.GetAllThemes(a.db))
		admin.PUT("/themes/:slug", handlers.UpsertTheme(a.db))
		admin.DELETE("/themes/:slug", handlers.DeleteTheme(a.db))

		admin.GET("/contact", handlers.ListContactMessages(a.db))
		admin.PATCH("/contact/:id/read", handlers.MarkContactRead(a.db))
	}

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("[CONFIG] [ERROR] ", err)
	}

	db, err := database.Connect(cfg.DBPath)
	if err != nil {
		log.Fatal("[DB] [ERROR] ", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("[DB] [ERROR] ", err)
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := database.EnsureAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			log.Fatal("[DB] [ERROR] ", err)
		}
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	a := newApp(ctx, db, cfg, notify.LogNotifier{})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Println("[HTTP] [INFO] listening on", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("[HTTP] [ERROR] ", err)
		}
	}()

	<-ctx.Done()
	log.Println("[HTTP] [INFO] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("[HTTP] [ERROR] shutdown:", err)
	}
	a.dispatcher.Wait()
	log.Println("[HTTP] [INFO] server stopped")
}
