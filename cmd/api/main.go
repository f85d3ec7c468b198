package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/taxiride/ride-hailing/internal/api/handlers"
	"github.com/taxiride/ride-hailing/internal/api/middleware"
	"github.com/taxiride/ride-hailing/internal/api/routes"
	"github.com/taxiride/ride-hailing/internal/config"
	"github.com/taxiride/ride-hailing/internal/domain/driver"
	"github.com/taxiride/ride-hailing/internal/events"
	"github.com/taxiride/ride-hailing/internal/service/directory"
	"github.com/taxiride/ride-hailing/internal/service/geocoding"
	"github.com/taxiride/ride-hailing/internal/service/lifecycle"
	"github.com/taxiride/ride-hailing/internal/service/pricing"
	"github.com/taxiride/ride-hailing/internal/store"
	"github.com/taxiride/ride-hailing/internal/store/memory"
	"github.com/taxiride/ride-hailing/internal/store/postgres"
	"github.com/taxiride/ride-hailing/pkg/cache"
	"github.com/taxiride/ride-hailing/pkg/database"
	"github.com/taxiride/ride-hailing/pkg/lock"
	"github.com/taxiride/ride-hailing/pkg/logger"
	"github.com/taxiride/ride-hailing/pkg/monitoring"
	"github.com/taxiride/ride-hailing/pkg/websocket"
)

const poolStatsInterval = 30 * time.Second

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

	appLogger.Info("Starting ride lifecycle service",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
		logger.String("store", cfg.Store.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName),
			logger.Bool("enabled", true))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Prometheus
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cache.Config{
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
	}

	// Initialize persistence
	st, db, err := openStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to open store", logger.Err(err))
	}
	defer st.Close()
	appLogger.Info("Store ready", logger.String("driver", cfg.Store.Driver))

	if nrApp.IsEnabled() {
		go recordPoolStats(ctx, nrApp, db, redisClient)
	}

	// Locking
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Lifecycle.LockBackend == "redis" {
		locker = lock.NewRedisLocker(redisClient, lock.RedisConfig{
			Prefix:      "lock:",
			TTL:         cfg.Lifecycle.LockTTL,
			WaitTimeout: cfg.Lifecycle.LockWaitTimeout,
		}, appLogger)
	}

	// Pricing
	policy, err := buildPricing(cfg.Pricing, redisClient)
	if err != nil {
		appLogger.Fatal("Invalid pricing configuration", logger.Err(err))
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(appLogger)
	go wsHub.Run(ctx)

	// Event fan-out
	publishers := events.Multi{events.NewWebSocketPublisher(wsHub)}
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.WriteTimeout)
		defer kafkaPublisher.Close()
		publishers = append(publishers, kafkaPublisher)
		appLogger.Info("Publishing lifecycle events to Kafka",
			logger.String("topic", cfg.Kafka.Topic))
	}

	var geocoder geocoding.Geocoder
	if cfg.Lifecycle.GeocodePickup {
		geocoder = geocoding.NewStubGeocoder()
	}

	manager, err := lifecycle.NewManager(lifecycle.Deps{
		Store:        st,
		Directory:    directory.NewService(st.Drivers(), appLogger),
		Pricing:      policy,
		Geocoder:     geocoder,
		Locker:       locker,
		Publisher:    publishers,
		Metrics:      monitoring.NewRecorder(metrics, nrApp),
		Logger:       appLogger,
		OfferTTL:     cfg.Lifecycle.OfferTTL,
		HistoryLimit: cfg.Lifecycle.HistoryLimit,
	})
	if err != nil {
		appLogger.Fatal("Failed to create lifecycle manager", logger.Err(err))
	}

	var idempotency *cache.Idempotency
	if redisClient != nil {
		idempotency = cache.NewIdempotency(redisClient, cfg.Cache.TTLIdempotency)
	}

	// Initialize handlers with dependencies
	h := handlers.NewHandlers(manager, idempotency, wsHub, appLogger)
	h.Upgrader.ReadBufferSize = cfg.WebSocket.ReadBufferSize
	h.Upgrader.WriteBufferSize = cfg.WebSocket.WriteBufferSize

	// Initialize Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(appLogger))

	opts := routes.Options{}
	if nrApp.IsEnabled() {
		opts.NewRelic = nrApp.Application
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = metrics
		opts.Gatherer = registry
		opts.MetricsPath = cfg.Metrics.Path
	}
	routes.SetupRoutes(router, h, opts)

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
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}

	appLogger.Info("Server stopped gracefully")
}

// openStore returns the configured store; db is nil for the memory backend
func openStore(ctx context.Context, cfg *config.Config) (store.Store, *sql.DB, error) {
	if cfg.Store.Driver == "memory" {
		return memory.New(), nil, nil
	}

	db, err := database.NewPostgresDB(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		DBName:      cfg.Database.Name,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConnections,
		MaxIdle:     cfg.Database.MaxIdleConns,
		MaxLifetime: cfg.Database.MaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}

	st := postgres.New(db)
	if cfg.Store.Migrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return st, db, nil
}

func buildPricing(cfg config.PricingConfig, client *redis.Client) (pricing.Policy, error) {
	flat, err := pricing.NewFlatRatePolicy(pricing.Config{
		BaseFare:          cfg.BaseFare,
		PerKMRate:         cfg.PerKMRate,
		AssumedDistanceKM: cfg.AssumedDistanceKM,
		Multipliers: map[driver.VehicleType]float64{
			driver.VehicleStandard: cfg.StandardMultiplier,
			driver.VehicleComfort:  cfg.ComfortMultiplier,
			driver.VehicleVan:      cfg.VanMultiplier,
			driver.VehiclePremium:  cfg.PremiumMultiplier,
		},
		MinETAMinutes: cfg.MinETAMinutes,
		MaxETAMinutes: cfg.MaxETAMinutes,
	})
	if err != nil {
		return nil, err
	}
	if !cfg.SurgeEnabled {
		return flat, nil
	}
	source := pricing.NewRedisSurge(client, cfg.SurgeRegion)
	return pricing.NewSurgePolicy(flat, source, cfg.MinSurgeMultiplier, cfg.MaxSurgeMultiplier), nil
}

func recordPoolStats(ctx context.Context, nr *monitoring.NewRelicApp, db *sql.DB, client *redis.Client) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if db != nil {
				nr.RecordDatabasePoolStats(db.Stats())
			}
			if client != nil {
				nr.RecordRedisPoolStats(client.PoolStats())
			}
		}
	}
}
