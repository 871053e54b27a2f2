package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Log     LogConfig
	Link    LinkConfig
	Admin   AdminConfig
	Gateway GatewayConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// In production, always set DB_PASSWORD via environment variable and
// DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"quicklink"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// RedisConfig holds the redirect-cache configuration. The cache is optional:
// an empty Addr disables it and redirects go straight to the database.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:""`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	TTL      int    `envconfig:"REDIS_TTL" default:"3600"` // seconds
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// LinkConfig holds short-link settings.
type LinkConfig struct {
	BaseURL     string `envconfig:"BASE_URL" default:"http://localhost:3000"`
	AliasLength int    `envconfig:"ALIAS_LENGTH" default:"7"`
}

// AdminConfig guards the admin endpoints. An empty token disables them.
type AdminConfig struct {
	Token string `envconfig:"ADMIN_TOKEN" default:""`
}

// GatewayConfig holds payment-gateway credentials.
type GatewayConfig struct {
	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID" default:""`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET" default:""`
	CashfreeAppID     string `envconfig:"CASHFREE_APP_ID" default:""`
	CashfreeSecretKey string `envconfig:"CASHFREE_SECRET_KEY" default:""`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
