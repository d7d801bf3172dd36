package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	gorillahandlers "github.com/gorilla/handlers"

	"github.com/ridebook/ride-booking/internal/api/handlers"
	"github.com/ridebook/ride-booking/internal/api/middleware"
	"github.com/ridebook/ride-booking/internal/api/routes"
	"github.com/ridebook/ride-booking/internal/config"
	"github.com/ridebook/ride-booking/internal/domain/trip"
	"github.com/ridebook/ride-booking/internal/notify"
	"github.com/ridebook/ride-booking/internal/service/pricing"
	"github.com/ridebook/ride-booking/internal/service/trips"
	"github.com/ridebook/ride-booking/pkg/cache"
	"github.com/ridebook/ride-booking/pkg/logger"
	"github.com/ridebook/ride-booking/pkg/monitoring"
	"github.com/ridebook/ride-booking/pkg/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting RideBook API",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
		logger.String("store", cfg.Store.Driver),
	)

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
		nrApp = monitoring.Disabled()
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName),
			logger.Bool("enabled", true))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Initialize trip and location stores
	stores, err := openStores(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize store", logger.Err(err), logger.String("driver", cfg.Store.Driver))
	}
	defer stores.Close()

	// Idempotency responses live in Redis when available
	var responses cache.ResponseStore = cache.NewMemoryResponseStore()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cache.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			MaxRetries:  cfg.Redis.MaxRetries,
			PoolSize:    cfg.Redis.PoolSize,
			MinIdleConn: cfg.Redis.MinIdleConn,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
		}
		defer cache.Close(redisClient)

		responses = cache.NewRedisResponseStore(redisClient, "ridebook")
		appLogger.Info("Connected to Redis successfully")
	}

	// Initialize WebSocket hub
	var wsHub *websocket.Hub
	var notifier *notify.Notifier
	if cfg.Features.EnableRealTimeUpdates {
		wsHub = websocket.NewHub(appLogger)
		defer wsHub.Close()
		notifier = notify.New(wsHub, nrApp, appLogger)
	} else {
		notifier = notify.New(nil, nrApp, appLogger)
	}

	calculator := pricing.NewCalculator(pricingConfig(cfg.Pricing))
	tripService := trips.NewService(stores.Trips, stores.Locations, calculator, appLogger, trips.WithNotifier(notifier))

	// Initialize handlers with dependencies
	h := handlers.NewHandlers(tripService, responses, cfg.Cache.TTLIdempotency, wsHub, appLogger)
	h.Upgrader.ReadBufferSize = cfg.WebSocket.ReadBufferSize
	h.Upgrader.WriteBufferSize = cfg.WebSocket.WriteBufferSize
	h.Upgrader.CheckOrigin = originChecker(cfg.CORS.AllowedOrigins)
	if wsHub != nil {
		wsHub.SetSubscriptionCheck(h.CanSubscribe)
	}

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	routeOpts := routes.Options{JWTSecret: []byte(cfg.JWT.Secret)}
	if nrApp.IsEnabled() {
		routeOpts.NewRelic = nrApp.Application
	}
	if cfg.RateLimit.Enabled {
		routeOpts.BookingLimiter = middleware.NewRateLimiter(cfg.RateLimit.BookingsPerMinute)
		routeOpts.GeneralLimiter = middleware.NewRateLimiter(cfg.RateLimit.GeneralPerMinute)
	}
	routes.SetupRoutes(router, h, routeOpts)

	appLogger.Info("Routes configured successfully")

	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		gorillahandlers.AllowedMethods(cfg.CORS.AllowedMethods),
		gorillahandlers.AllowedHeaders(cfg.CORS.AllowedHeaders),
		gorillahandlers.AllowCredentials(),
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        cors(router),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}

func pricingConfig(p config.PricingConfig) pricing.Config {
	cfg := pricing.Config{
		BaseFare:  make(map[trip.RideClass]float64),
		PerKMRate: make(map[trip.RideClass]float64),
	}
	for class, tariff := range p.PricingTable() {
		cfg.BaseFare[trip.RideClass(class)] = tariff.BaseFare
		cfg.PerKMRate[trip.RideClass(class)] = tariff.PerKMRate
	}
	return cfg
}

// originChecker accepts WebSocket upgrades from the configured CORS origins
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
