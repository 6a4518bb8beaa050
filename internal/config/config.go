// backend-go/internal/config/config.go
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Intent   IntentConfig
	Forecast ForecastConfig
	Storage  StorageConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// IntentConfig describes where live cart/wishlist counters live.
type IntentConfig struct {
	CartKeyPrefix       string
	WishlistKeyPrefix   string
	LookupTimeout       time.Duration
	BreakerFailureRatio float64
	BreakerMinRequests  uint32
	BreakerOpenTimeout  time.Duration
}

// ForecastConfig tunes runs. The threshold fields are the classifier's
// coverage cut-offs in days and the deprecation return rate in percent.
type ForecastConfig struct {
	Workers             int
	RestockBelowDays    float64
	DiscountAboveDays   float64
	DeprecateAboveDays  float64
	DeprecateReturnRate float64
	RunTimeout          time.Duration
	LockTTL             time.Duration
	PersistRuns         bool
	UploadSnapshots     bool
	SnapshotKeyPrefix   string
}

// StorageConfig is an S3-compatible bucket for forecast snapshots.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment (and .env if present).
// Each call returns a fresh Config.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "inventory_dashboard")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FORECAST_TTL_SECONDS", 900)
	v.SetDefault("INTENT_CART_PREFIX", "cart:")
	v.SetDefault("INTENT_WISHLIST_PREFIX", "wishlist:")
	v.SetDefault("INTENT_LOOKUP_TIMEOUT", "2s")
	v.SetDefault("INTENT_BREAKER_FAILURE_RATIO", 0.6)
	v.SetDefault("INTENT_BREAKER_MIN_REQUESTS", 20)
	v.SetDefault("INTENT_BREAKER_OPEN_TIMEOUT", "30s")
	v.SetDefault("FORECAST_WORKERS", 8)
	v.SetDefault("FORECAST_RESTOCK_BELOW_DAYS", 7)
	v.SetDefault("FORECAST_DISCOUNT_ABOVE_DAYS", 60)
	v.SetDefault("FORECAST_DEPRECATE_ABOVE_DAYS", 90)
	v.SetDefault("FORECAST_DEPRECATE_RETURN_RATE", 15)
	v.SetDefault("FORECAST_RUN_TIMEOUT", "2m")
	v.SetDefault("FORECAST_LOCK_TTL", "5m")
	v.SetDefault("FORECAST_PERSIST_RUNS", false)
	v.SetDefault("FORECAST_UPLOAD_SNAPSHOTS", false)
	v.SetDefault("FORECAST_SNAPSHOT_PREFIX", "forecasts/")
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			ForecastTTLSeconds: v.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Intent: IntentConfig{
			CartKeyPrefix:       v.GetString("INTENT_CART_PREFIX"),
			WishlistKeyPrefix:   v.GetString("INTENT_WISHLIST_PREFIX"),
			LookupTimeout:       v.GetDuration("INTENT_LOOKUP_TIMEOUT"),
			BreakerFailureRatio: v.GetFloat64("INTENT_BREAKER_FAILURE_RATIO"),
			BreakerMinRequests:  v.GetUint32("INTENT_BREAKER_MIN_REQUESTS"),
			BreakerOpenTimeout:  v.GetDuration("INTENT_BREAKER_OPEN_TIMEOUT"),
		},
		Forecast: ForecastConfig{
			Workers:             v.GetInt("FORECAST_WORKERS"),
			RestockBelowDays:    v.GetFloat64("FORECAST_RESTOCK_BELOW_DAYS"),
			DiscountAboveDays:   v.GetFloat64("FORECAST_DISCOUNT_ABOVE_DAYS"),
			DeprecateAboveDays:  v.GetFloat64("FORECAST_DEPRECATE_ABOVE_DAYS"),
			DeprecateReturnRate: v.GetFloat64("FORECAST_DEPRECATE_RETURN_RATE"),
			RunTimeout:          v.GetDuration("FORECAST_RUN_TIMEOUT"),
			LockTTL:             v.GetDuration("FORECAST_LOCK_TTL"),
			PersistRuns:         v.GetBool("FORECAST_PERSIST_RUNS"),
			UploadSnapshots:     v.GetBool("FORECAST_UPLOAD_SNAPSHOTS"),
			SnapshotKeyPrefix:   v.GetString("FORECAST_SNAPSHOT_PREFIX"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
