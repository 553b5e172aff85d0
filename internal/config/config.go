package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	RabbitMQ     RabbitMQConfig
	Keycloak     KeycloakConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Cache        CacheConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MongoConfig holds read store connection values.
type MongoConfig struct {
	URI      string
	Database string
}

// RabbitMQConfig holds message bus values. An empty URL selects the
// in-process bus.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// KeycloakConfig describes the identity provider admin API.
type KeycloakConfig struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
	TimeoutSec   int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWKSURL                 string
	Audience                string
	ConfirmationTTLMinutes  int
	RecoveryTokenTTLMinutes int
	BcryptCost              int
}

// CacheConfig controls the user document cache.
type CacheConfig struct {
	Enabled    bool
	TTLSeconds int
	Prefix     string
}

// NotificationConfig points at the notification service.
type NotificationConfig struct {
	BaseURL    string
	TimeoutSec int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	keycloakURL := getEnv("KEYCLOAK_URL", "http://localhost:8180")
	realm := getEnv("KEYCLOAK_REALM", "subastas")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "user-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DATABASE", "usuarios_db"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "usuarios_exchange"),
		},
		Keycloak: KeycloakConfig{
			BaseURL:      keycloakURL,
			Realm:        realm,
			ClientID:     getEnv("KEYCLOAK_CLIENT_ID", "user-service"),
			ClientSecret: os.Getenv("KEYCLOAK_CLIENT_SECRET"),
			TimeoutSec:   getEnvAsInt("KEYCLOAK_TIMEOUT_SECONDS", 10),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWKSURL:                 getEnv("AUTH_JWKS_URL", keycloakURL+"/realms/"+realm+"/protocol/openid-connect/certs"),
			Audience:                os.Getenv("AUTH_AUDIENCE"),
			ConfirmationTTLMinutes:  getEnvAsInt("AUTH_CONFIRMATION_TTL_MINUTES", 24*60),
			RecoveryTokenTTLMinutes: getEnvAsInt("AUTH_RECOVERY_TTL_MINUTES", 24*60),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Cache: CacheConfig{
			Enabled:    getEnvAsBool("CACHE_ENABLED", true),
			TTLSeconds: getEnvAsInt("CACHE_TTL_SECONDS", 60),
			Prefix:     getEnv("CACHE_PREFIX", "users"),
		},
		Notification: NotificationConfig{
			BaseURL:    getEnv("NOTIFY_BASE_URL", "http://localhost:5050"),
			TimeoutSec: getEnvAsInt("NOTIFY_TIMEOUT_SECONDS", 10),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenURL is the client-credentials endpoint of the realm.
func (k KeycloakConfig) TokenURL() string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", k.BaseURL, k.Realm)
}

// AdminURL is the admin API root of the realm.
func (k KeycloakConfig) AdminURL() string {
	return fmt.Sprintf("%s/admin/realms/%s", k.BaseURL, k.Realm)
}

// Timeout returns the per-request timeout for admin calls.
func (k KeycloakConfig) Timeout() time.Duration {
	return seconds(k.TimeoutSec, 10)
}

// Timeout returns the per-request timeout for notification calls.
func (n NotificationConfig) Timeout() time.Duration {
	return seconds(n.TimeoutSec, 10)
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return seconds(c.TTLSeconds, 60)
}

// ConfirmationTTL returns how long a confirmation code stays valid.
func (a AuthConfig) ConfirmationTTL() time.Duration {
	return minutes(a.ConfirmationTTLMinutes, 24*60)
}

// RecoveryTokenTTL returns how long a recovery token stays valid.
func (a AuthConfig) RecoveryTokenTTL() time.Duration {
	return minutes(a.RecoveryTokenTTLMinutes, 24*60)
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

func minutes(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
