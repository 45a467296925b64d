package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultDBDriver        = "sqlite"
	defaultDatabaseDSN     = "food_delivery.db"
	defaultJWTSecret       = "food_delivery_super_secret_2024"
	defaultTokenTTL        = 24 * time.Hour
	defaultCourierCacheTTL = 30 * time.Second
	defaultAMQPExchange    = "order_events"
)

type Config struct {
	Port            string
	GinMode         string
	LogLevel        string
	DBDriver        string
	DatabaseDSN     string
	JWTSecret       []byte
	TokenTTL        time.Duration
	RedisAddr       string
	CourierCacheTTL time.Duration
	AMQPURL         string
	AMQPExchange    string
	AdminName       string
	AdminEmail      string
	AdminPassword   string
}

// Load reads the configuration from the environment. When envFile is set and exists it is
// loaded first; variables already present in the environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:         getEnv("PORT", defaultPort),
		GinMode:      os.Getenv("GIN_MODE"),
		LogLevel:     getEnv("LOG_LEVEL", defaultLogLevel),
		DBDriver:     getEnv("DB_DRIVER", defaultDBDriver),
		DatabaseDSN:  getEnv("DATABASE_DSN", defaultDatabaseDSN),
		JWTSecret:    []byte(getEnv("JWT_SECRET", defaultJWTSecret)),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", defaultAMQPExchange),

		AdminName:     os.Getenv("ADMIN_NAME"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", defaultTokenTTL); err != nil {
		return nil, err
	}
	if cfg.CourierCacheTTL, err = getDuration("COURIER_CACHE_TTL", defaultCourierCacheTTL); err != nil {
		return nil, err
	}

	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts Go duration strings ("30s") or plain seconds ("30").
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return time.Duration(secs) * time.Second, nil
}
