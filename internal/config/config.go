package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Locations LocationsConfig
	Gateway   GatewayConfig
	Courier   CourierConfig
	Pickup    PickupConfig
}

type AppConfig struct {
	Port      string
	ReturnURL string // where the gateway sends the customer back after payment
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// LocationsConfig points at the third-party address reference service.
type LocationsConfig struct {
	BaseURL string
	Timeout time.Duration
}

type GatewayConfig struct {
	BaseURL string
	Timeout time.Duration
}

type CourierConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// PickupConfig is the fixed pickup profile sent with every courier shipment.
type PickupConfig struct {
	Name  string
	Phone string
	Line  string
	Lat   float64
	Lon   float64
}

func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.ReturnURL = getEnv("PAYMENT_RETURN_URL", "http://localhost:8080/payments/callback")

	cfg.Postgres.Host = getEnv("DB_HOST", "localhost")
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.User = getEnv("DB_USER", "postgres")
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	cfg.Postgres.DBName = getEnv("DB_NAME", "fulfillment")
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MaxConns = int32(getEnvInt("DB_MAX_CONNS", 10))
	cfg.Postgres.MinConns = int32(getEnvInt("DB_MIN_CONNS", 2))
	cfg.Postgres.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)

	cfg.Locations.BaseURL = getEnv("LOCATIONS_BASE_URL", "")
	cfg.Locations.Timeout = getEnvDuration("LOCATIONS_TIMEOUT", 3*time.Second)

	cfg.Gateway.BaseURL = os.Getenv("GATEWAY_BASE_URL")
	if cfg.Gateway.BaseURL == "" {
		return nil, fmt.Errorf("GATEWAY_BASE_URL is required")
	}
	cfg.Gateway.Timeout = getEnvDuration("GATEWAY_TIMEOUT", 5*time.Second)

	cfg.Courier.BaseURL = os.Getenv("COURIER_BASE_URL")
	if cfg.Courier.BaseURL == "" {
		return nil, fmt.Errorf("COURIER_BASE_URL is required")
	}
	cfg.Courier.Token = os.Getenv("COURIER_TOKEN")
	cfg.Courier.Timeout = getEnvDuration("COURIER_TIMEOUT", 5*time.Second)

	cfg.Pickup.Name = getEnv("PICKUP_NAME", "Central Kitchen")
	cfg.Pickup.Phone = getEnv("PICKUP_PHONE", "")
	cfg.Pickup.Line = getEnv("PICKUP_LINE", "")
	cfg.Pickup.Lat = getEnvFloat("PICKUP_LAT", 21.0278)
	cfg.Pickup.Lon = getEnvFloat("PICKUP_LON", 105.8342)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
