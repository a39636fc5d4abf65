package config

import "time"

type App struct {
	Port          string        `yaml:"port" env:"APP_PORT" default:"8080"`
	Env           string        `yaml:"env" env:"APP_ENV" default:"dev"`
	DatabaseURL   string        `yaml:"database_url" env:"DATABASE_URL,required"`
	MigrationsDir string        `yaml:"migrations_dir" env:"MIGRATIONS_DIR" default:"migrations"`
	JWT           JWTConfig     `yaml:"jwt"`
	Redis         RedisConfig   `yaml:"redis"`
	RabbitMQ      RabbitConfig  `yaml:"rabbitmq"`
	Payment       PaymentConfig `yaml:"payment"`
	Admin         AdminConfig   `yaml:"admin"`
	Rental        RentalConfig  `yaml:"rental"`
}

type JWTConfig struct {
	Secret   string `yaml:"secret" env:"JWT_SECRET,required"`
	TTLHours int    `yaml:"ttl_hours" env:"JWT_TTL_HOURS" default:"24"`
}

// RedisConfig enables the booking lock when Address is set.
type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// RabbitConfig enables event publishing when URL is set.
type RabbitConfig struct {
	URL      string `yaml:"url" env:"RABBITMQ_URL"`
	Exchange string `yaml:"exchange" env:"RABBITMQ_EXCHANGE" default:"bike_rental"`
}

type PaymentConfig struct {
	GatewayURL string        `yaml:"gateway_url" env:"PAYMENT_GATEWAY_URL"`
	APIKey     string        `yaml:"api_key" env:"PAYMENT_GATEWAY_KEY"`
	Timeout    time.Duration `yaml:"timeout" env:"PAYMENT_GATEWAY_TIMEOUT" default:"10s"`
}

type AdminConfig struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

type RentalConfig struct {
	PendingTTL      time.Duration `yaml:"pending_ttl" env:"RENTAL_PENDING_TTL" default:"30m"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RENTAL_CLEANUP_INTERVAL" default:"1m"`
	LockTTL         time.Duration `yaml:"lock_ttl" env:"BOOKING_LOCK_TTL" default:"10s"`
}
