package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Metrics   MetricsConfig
	Pricing   PricingConfig
	Lifecycle LifecycleConfig
	Kafka     KafkaConfig
	WebSocket WebSocketConfig
	Cache     CacheConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string
	Env             string
	Host            string
	ShutdownTimeout time.Duration
}

// StoreConfig selects the persistence backend: "postgres" or "memory"
type StoreConfig struct {
	Driver  string
	Migrate bool
}

type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConnections int
	MaxIdleConns   int
	MaxLifetime    time.Duration
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type NewRelicConfig struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type PricingConfig struct {
	BaseFare           float64
	PerKMRate          float64
	AssumedDistanceKM  float64
	StandardMultiplier float64
	ComfortMultiplier  float64
	VanMultiplier      float64
	PremiumMultiplier  float64
	MinETAMinutes      int
	MaxETAMinutes      int
	SurgeEnabled       bool
	SurgeRegion        string
	MaxSurgeMultiplier float64
	MinSurgeMultiplier float64
}

// LifecycleConfig tunes the ride lifecycle manager. OfferTTL 0 disables offer expiry.
type LifecycleConfig struct {
	OfferTTL        time.Duration
	HistoryLimit    int
	LockBackend     string
	LockTTL         time.Duration
	LockWaitTimeout time.Duration
	GeocodePickup   bool
}

type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
}

type CacheConfig struct {
	TTLIdempotency time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("SERVER_ENV", "development"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: parseDuration(getEnv("SERVER_SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		},
		Store: StoreConfig{
			Driver:  strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
			Migrate: getEnvAsBool("STORE_MIGRATE", true),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			Name:           getEnv("DB_NAME", "taxiride"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			MaxLifetime:    time.Duration(getEnvAsInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Enabled:     getEnvAsBool("REDIS_ENABLED", true),
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 50),
			MinIdleConn: 5,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		},
		NewRelic: NewRelicConfig{
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "TaxiRide-Lifecycle"),
			Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", false),
			LogLevel:   getEnv("NEW_RELIC_LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Pricing: PricingConfig{
			BaseFare:           getEnvAsFloat64("PRICING_BASE_FARE", 3.50),
			PerKMRate:          getEnvAsFloat64("PRICING_PER_KM_RATE", 2.20),
			AssumedDistanceKM:  getEnvAsFloat64("PRICING_ASSUMED_DISTANCE_KM", 5),
			StandardMultiplier: getEnvAsFloat64("PRICING_MULTIPLIER_STANDARD", 1.0),
			ComfortMultiplier:  getEnvAsFloat64("PRICING_MULTIPLIER_COMFORT", 1.2),
			VanMultiplier:      getEnvAsFloat64("PRICING_MULTIPLIER_VAN", 1.3),
			PremiumMultiplier:  getEnvAsFloat64("PRICING_MULTIPLIER_PREMIUM", 1.5),
			MinETAMinutes:      getEnvAsInt("PRICING_MIN_ETA_MINUTES", 10),
			MaxETAMinutes:      getEnvAsInt("PRICING_MAX_ETA_MINUTES", 45),
			SurgeEnabled:       getEnvAsBool("ENABLE_SURGE_PRICING", false),
			SurgeRegion:        getEnv("SURGE_REGION", "krakow"),
			MaxSurgeMultiplier: getEnvAsFloat64("MAX_SURGE_MULTIPLIER", 3.0),
			MinSurgeMultiplier: getEnvAsFloat64("MIN_SURGE_MULTIPLIER", 1.0),
		},
		Lifecycle: LifecycleConfig{
			OfferTTL:        parseDuration(getEnv("LIFECYCLE_OFFER_TTL", "0s"), 0),
			HistoryLimit:    getEnvAsInt("LIFECYCLE_HISTORY_LIMIT", 50),
			LockBackend:     strings.ToLower(getEnv("LIFECYCLE_LOCK_BACKEND", "local")),
			LockTTL:         parseDuration(getEnv("LIFECYCLE_LOCK_TTL", "10s"), 10*time.Second),
			LockWaitTimeout: parseDuration(getEnv("LIFECYCLE_LOCK_WAIT", "5s"), 5*time.Second),
			GeocodePickup:   getEnvAsBool("LIFECYCLE_GEOCODE_PICKUP", true),
		},
		Kafka: KafkaConfig{
			Enabled:      getEnvAsBool("KAFKA_ENABLED", false),
			Brokers:      getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:        getEnv("KAFKA_TOPIC", "ride-lifecycle"),
			WriteTimeout: parseDuration(getEnv("KAFKA_WRITE_TIMEOUT", "2s"), 2*time.Second),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
		},
		Cache: CacheConfig{
			TTLIdempotency: time.Duration(getEnvAsInt("CACHE_TTL_IDEMPOTENCY", 86400)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	switch c.Store.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.Store.Driver)
	}
	switch c.Lifecycle.LockBackend {
	case "local":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("LIFECYCLE_LOCK_BACKEND=redis requires REDIS_ENABLED")
		}
	default:
		return fmt.Errorf("LIFECYCLE_LOCK_BACKEND must be local or redis, got %q", c.Lifecycle.LockBackend)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.Pricing.SurgeEnabled && !c.Redis.Enabled {
		return fmt.Errorf("ENABLE_SURGE_PRICING requires REDIS_ENABLED")
	}
	if c.Lifecycle.OfferTTL < 0 {
		return fmt.Errorf("LIFECYCLE_OFFER_TTL must not be negative")
	}
	if c.Lifecycle.HistoryLimit <= 0 {
		return fmt.Errorf("LIFECYCLE_HISTORY_LIMIT must be positive")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when Kafka is enabled")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
