package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads .env, the optional CONFIG_PATH yaml file and the environment.
// It panics when a required setting is missing.
func Load() App {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env", "err", err)
	}
	cfg, err := LoadFrom(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("config load failed", "err", err)
		panic(err)
	}
	return cfg
}

// LoadFrom builds the config from defaults, then the yaml file at path (if any),
// then environment overrides.
func LoadFrom(path string) (App, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return App{}, fmt.Errorf("read config %s: %w", path, err)
		}
		expanded := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return App{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = getenv("APP_PORT", cfg.Port)
	if p := os.Getenv("PORT"); p != "" {
		cfg.Port = p
	}
	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MigrationsDir = getenv("MIGRATIONS_DIR", cfg.MigrationsDir)

	cfg.JWT.Secret = getenv("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.TTLHours = getenvInt("JWT_TTL_HOURS", cfg.JWT.TTLHours)

	cfg.Redis.Address = getenv("REDIS_ADDR", cfg.Redis.Address)
	cfg.Redis.Password = getenv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getenvInt("REDIS_DB", cfg.Redis.DB)

	cfg.RabbitMQ.URL = getenv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.Exchange = getenv("RABBITMQ_EXCHANGE", cfg.RabbitMQ.Exchange)

	cfg.Payment.GatewayURL = getenv("PAYMENT_GATEWAY_URL", cfg.Payment.GatewayURL)
	cfg.Payment.APIKey = getenv("PAYMENT_GATEWAY_KEY", cfg.Payment.APIKey)
	cfg.Payment.Timeout = getenvDuration("PAYMENT_GATEWAY_TIMEOUT", cfg.Payment.Timeout)

	cfg.Admin.Email = getenv("ADMIN_EMAIL", cfg.Admin.Email)
	cfg.Admin.Password = getenv("ADMIN_PASSWORD", cfg.Admin.Password)

	cfg.Rental.PendingTTL = getenvDuration("RENTAL_PENDING_TTL", cfg.Rental.PendingTTL)
	cfg.Rental.CleanupInterval = getenvDuration("RENTAL_CLEANUP_INTERVAL", cfg.Rental.CleanupInterval)
	cfg.Rental.LockTTL = getenvDuration("BOOKING_LOCK_TTL", cfg.Rental.LockTTL)

	if cfg.DatabaseURL == "" {
		return App{}, errors.New("missing env DATABASE_URL")
	}
	if cfg.JWT.Secret == "" {
		if cfg.Env == "prod" {
			return App{}, errors.New("missing env JWT_SECRET")
		}
		cfg.JWT.Secret = "local_dev_secret"
	}
	return cfg, nil
}

func defaults() App {
	return App{
		Port:          "8080",
		Env:           "dev",
		MigrationsDir: "migrations",
		JWT:           JWTConfig{TTLHours: 24},
		RabbitMQ:      RabbitConfig{Exchange: "bike_rental"},
		Payment:       PaymentConfig{Timeout: 10 * time.Second},
		Rental: RentalConfig{
			PendingTTL:      30 * time.Minute,
			CleanupInterval: time.Minute,
			LockTTL:         10 * time.Second,
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		slog.Warn("ignoring malformed int env", "key", k, "value", v)
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("ignoring malformed duration env", "key", k, "value", v)
	}
	return def
}
