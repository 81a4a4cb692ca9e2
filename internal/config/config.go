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
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Relay    RelayConfig
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

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int
	BcryptCost    int

	// HeaderFallbackEnabled keeps the legacy identifier+email header path alive.
	HeaderFallbackEnabled bool
	HeaderID              string
	HeaderEmail           string

	RevocationEnabled bool
}

// RelayConfig tunes websocket chat connections.
type RelayConfig struct {
	SendBuffer         int
	WriteTimeoutSecond int
	PongTimeoutSecond  int
	MaxMessageBytes    int64
	RedisFanout        bool
	RedisChannel       string
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

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "campusmatch"),
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
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLHours:         getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 30*24),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			HeaderFallbackEnabled: getEnvAsBool("AUTH_HEADER_FALLBACK_ENABLED", true),
			HeaderID:              getEnv("AUTH_HEADER_ID", "X-User-Id"),
			HeaderEmail:           getEnv("AUTH_HEADER_EMAIL", "X-User-Email"),
			RevocationEnabled:     getEnvAsBool("AUTH_REVOCATION_ENABLED", true),
		},
		Relay: RelayConfig{
			SendBuffer:         getEnvAsInt("RELAY_SEND_BUFFER", 32),
			WriteTimeoutSecond: getEnvAsInt("RELAY_WRITE_TIMEOUT_SECONDS", 10),
			PongTimeoutSecond:  getEnvAsInt("RELAY_PONG_TIMEOUT_SECONDS", 60),
			MaxMessageBytes:    int64(getEnvAsInt("RELAY_MAX_MESSAGE_BYTES", 16*1024)),
			RedisFanout:        getEnvAsBool("RELAY_REDIS_FANOUT", false),
			RedisChannel:       getEnv("RELAY_REDIS_CHANNEL", "campusmatch:chat"),
		},
	}

	if cfg.App.Env == "production" && cfg.Auth.JWTSecret == "dev-secret" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set in production")
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

// TokenTTL returns the bearer token validity window.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLHours <= 0 {
		return 0
	}
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// WriteTimeout returns the per-frame websocket write deadline.
func (r RelayConfig) WriteTimeout() time.Duration {
	return time.Duration(r.WriteTimeoutSecond) * time.Second
}

// PongTimeout returns how long a socket may stay silent before it is dropped.
func (r RelayConfig) PongTimeout() time.Duration {
	return time.Duration(r.PongTimeoutSecond) * time.Second
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
