package config

import (
	"os"
	"strconv"
	"time"

	"theatre/internal/cache"
	"theatre/internal/database"
	"theatre/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	CORSOrigin     string
	RequestTimeout time.Duration
	// BookingTimeout bounds one placeOrder transaction, including lock waits.
	BookingTimeout time.Duration
	// StatsReconcileInterval is how often consumers rebuild session stats.
	StatsReconcileInterval time.Duration

	Admin AdminConfig

	Database      database.Config
	NATS          messaging.Config
	NATSEnabled   bool
	Redis         cache.Config
	RedisEnabled  bool
	Elasticsearch ElasticsearchConfig
}

// AdminConfig holds the basic auth credentials of the admin console.
// The console is disabled unless both are set.
type AdminConfig struct {
	User     string
	Password string
}

func (a AdminConfig) Enabled() bool {
	return a.User != "" && a.Password != ""
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "4000"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		CORSOrigin:     getEnv("CORS_ORIGIN", "*"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		BookingTimeout: time.Duration(getEnvInt("BOOKING_TIMEOUT_MS", 5000)) * time.Millisecond,

		StatsReconcileInterval: getEnvDuration("STATS_RECONCILE_INTERVAL", 5*time.Minute),

		Admin: AdminConfig{
			User:     os.Getenv("ADMIN_USER"),
			Password: os.Getenv("ADMIN_PASS"),
		},

		Database: database.Config{
			URL:                os.Getenv("DATABASE_URL"),
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "theatre"),
			Password:           getEnv("DB_PASSWORD", "theatre"),
			DBName:             getEnv("DB_NAME", "theatre"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATSEnabled: getEnvBool("NATS_ENABLED", false),
		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "theatre"),
			ClientID:  getEnv("NATS_CLIENT_ID", "theatre-api"),
		},

		RedisEnabled: getEnvBool("REDIS_ENABLED", false),
		Redis: cache.Config{
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         getEnvInt("REDIS_DB", 0),
			CatalogTTL: time.Duration(getEnvInt("CATALOG_CACHE_TTL_SEC", 60)) * time.Second,
		},

		Elasticsearch: LoadElasticsearchConfig(),
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings such as "30s" or "5m".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
