package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds the server configuration read from the environment
type Config struct {
	ServerPort        string `env:"SERVER_PORT" envDefault:"8080"`
	StoreDriver       string `env:"STORE_DRIVER" envDefault:"mongo"`
	InitialAdminEmail string `env:"INITIAL_ADMIN_EMAIL"`
	GinMode           string `env:"GIN_MODE" envDefault:"debug"`

	Log      LogConfig
	JWT      JWTConfig
	Mongo    MongoConfig
	Postgres DBConfig
}

// LogConfig controls the zerolog output
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// JWTConfig holds token signing parameters
type JWTConfig struct {
	SecretKey       string `env:"JWT_SECRET_KEY"`
	ExpirationHours int64  `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
	Issuer          string `env:"JWT_ISSUER" envDefault:"study-dashboard"`
}

// MongoConfig holds MongoDB connection parameters
type MongoConfig struct {
	URI      string `env:"MONGODB_URI"`
	Database string `env:"MONGODB_DATABASE" envDefault:"selfie"`
}

// DBConfig holds PostgreSQL connection parameters
type DBConfig struct {
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
}

// DSN builds the pgx connection string
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// Load parses the environment into a Config and validates it
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY not set in environment")
	}
	if c.JWT.ExpirationHours <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be positive, got %d", c.JWT.ExpirationHours)
	}

	switch c.StoreDriver {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGODB_URI not set in environment")
		}
	case StorePostgres:
		if c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.Name == "" {
			return fmt.Errorf("database environment variables not set (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want %q, %q or %q)", c.StoreDriver, StoreMongo, StorePostgres, StoreMemory)
	}
	return nil
}
