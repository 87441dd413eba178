package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Queue    QueueConfig
	API      APIConfig
	Pricing  PricingConfig
	Gateway  GatewayConfig
	Checkout CheckoutConfig
	Log      LogConfig
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"campaign_manager"`
	Password string `env:"DB_PASSWORD" envDefault:"campaign_manager"`
	DBName   string `env:"DB_NAME" envDefault:"campaign_manager"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// QueueConfig holds queue configuration (Redis)
type QueueConfig struct {
	RedisURL  string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	QueueName string `env:"QUEUE_NAME" envDefault:"campaign_committed"`
}

// APIConfig holds API server configuration
type APIConfig struct {
	Port int `env:"API_PORT" envDefault:"8080"`
}

// PricingConfig holds the campaign price list
type PricingConfig struct {
	UnitPrice decimal.Decimal `env:"PRICE_PER_RECIPIENT" envDefault:"5.00"`
	Currency  string          `env:"PRICE_CURRENCY" envDefault:"USD"`
}

// GatewayConfig holds the simulated payment gateway settings
type GatewayConfig struct {
	MinLatency time.Duration `env:"GATEWAY_MIN_LATENCY" envDefault:"50ms"`
	MaxLatency time.Duration `env:"GATEWAY_MAX_LATENCY" envDefault:"200ms"`
}

// CheckoutConfig holds the checkout CLI settings
type CheckoutConfig struct {
	APIURL  string        `env:"CHECKOUT_API_URL" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"CHECKOUT_TIMEOUT" envDefault:"15s"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Database.Port <= 0 {
		return nil, fmt.Errorf("invalid DB_PORT: %d", cfg.Database.Port)
	}
	if cfg.API.Port <= 0 {
		return nil, fmt.Errorf("invalid API_PORT: %d", cfg.API.Port)
	}
	if !cfg.Pricing.UnitPrice.IsPositive() {
		return nil, fmt.Errorf("invalid PRICE_PER_RECIPIENT: %s", cfg.Pricing.UnitPrice)
	}
	cfg.Pricing.Currency = strings.ToUpper(strings.TrimSpace(cfg.Pricing.Currency))
	if !currencyPattern.MatchString(cfg.Pricing.Currency) {
		return nil, fmt.Errorf("invalid PRICE_CURRENCY: %q", cfg.Pricing.Currency)
	}
	if cfg.Gateway.MaxLatency < cfg.Gateway.MinLatency {
		return nil, fmt.Errorf("GATEWAY_MAX_LATENCY must not be below GATEWAY_MIN_LATENCY")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
