package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poolup/ride-sharing/internal/api/handlers"
	"github.com/poolup/ride-sharing/internal/api/routes"
	"github.com/poolup/ride-sharing/internal/config"
	"github.com/poolup/ride-sharing/internal/notify"
	"github.com/poolup/ride-sharing/internal/repository/postgres"
	"github.com/poolup/ride-sharing/internal/service/bookings"
	"github.com/poolup/ride-sharing/internal/service/history"
	"github.com/poolup/ride-sharing/internal/service/reviews"
	"github.com/poolup/ride-sharing/internal/service/rides"
	"github.com/poolup/ride-sharing/pkg/cache"
	"github.com/poolup/ride-sharing/pkg/database"
	"github.com/poolup/ride-sharing/pkg/logger"
	"github.com/poolup/ride-sharing/pkg/monitoring"
	"github.com/poolup/ride-sharing/pkg/websocket"
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

	appLogger.Info("Starting PoolUp Ride-Sharing Application",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
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
		nrApp = &monitoring.NewRelicApp{}
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName),
			logger.Bool("enabled", true))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Initialize Redis
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

	appLogger.Info("Connected to Redis successfully")

	// Initialize PostgreSQL
	dbPort, err := strconv.Atoi(cfg.Database.Port)
	if err != nil {
		dbPort = 5432
	}
	postgresDB, err := database.NewPostgresDB(database.Config{
		Host:        cfg.Database.Host,
		Port:        dbPort,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		DBName:      cfg.Database.Name,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConnections,
		MaxIdle:     cfg.Database.MaxIdleConns,
		MaxLifetime: cfg.Database.MaxLifetime,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}
	defer postgresDB.Close()

	appLogger.Info("Connected to PostgreSQL successfully")

	// Periodically ship pool stats to APM
	if nrApp.IsEnabled() {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				nrApp.RecordRedisPoolStats(cache.GetClientStats(redisClient))
				stats := postgresDB.Stats()
				nrApp.RecordDatabasePoolStats(map[string]interface{}{
					"total_connections":    int32(stats.OpenConnections),
					"idle_connections":     int32(stats.Idle),
					"acquired_connections": int32(stats.InUse),
				})
			}
		}()
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(appLogger)
	go wsHub.Run()

	// Wire repositories and services
	rideRepo := postgres.NewRideRepository(postgresDB)
	bookingRepo := postgres.NewBookingRepository(postgresDB)
	reviewRepo := postgres.NewReviewRepository(postgresDB)
	driverRepo := postgres.NewDriverRepository(postgresDB)
	statsRepo := postgres.NewStatsRepository(postgresDB)

	notifier := notify.NewHubNotifier(wsHub, appLogger)

	rideSvc := rides.NewService(rideRepo, driverRepo, redisClient, notifier, appLogger, rides.Config{
		NearbyRadiusKM: cfg.Search.NearbyRadiusKM,
		NearbyLimit:    cfg.Search.NearbyLimit,
	})
	bookingSvc := bookings.NewService(bookingRepo, rideRepo, notifier, appLogger)
	reviewSvc := reviews.NewService(reviewRepo, bookingRepo, rideRepo, redisClient, appLogger)
	historySvc := history.NewService(statsRepo, bookingRepo, redisClient, appLogger, cfg.Cache.TTLDashboard)

	// Initialize handlers with dependencies
	h := handlers.NewHandlers(rideSvc, bookingSvc, reviewSvc, historySvc, redisClient, appLogger, wsHub)

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Setup all routes
	if nrApp.IsEnabled() {
		routes.SetupRoutes(router, h, nrApp.Application)
	} else {
		routes.SetupRoutes(router, h, nil)
	}

	appLogger.Info("Routes configured successfully")

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
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
