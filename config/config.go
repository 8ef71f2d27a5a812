package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string `env:"ENV"          envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT"         envDefault:"4568"  validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"  validate:"oneof=debug info warn error"`

	Store       string `env:"STORE"        envDefault:"sqlite"     validate:"required,oneof=postgres sqlite"`
	DatabaseURL string `env:"DATABASE_URL"                         validate:"required_if=Store postgres"`
	SQLitePath  string `env:"SQLITE_PATH"  envDefault:"shortly.db" validate:"required_if=Store sqlite"`

	TokenTTL       time.Duration `env:"TOKEN_TTL"        envDefault:"24h" validate:"min=1s"`
	TokenPurgeCron string        `env:"TOKEN_PURGE_CRON" envDefault:"@hourly" validate:"required"`
	CookieSecure   bool          `env:"COOKIE_SECURE"    envDefault:"false"`
	BcryptCost     int           `env:"BCRYPT_COST"      envDefault:"10" validate:"min=4,max=31"`

	CodeLength        int           `env:"CODE_LENGTH"         envDefault:"6"  validate:"min=5,max=7"`
	TitleFetchTimeout time.Duration `env:"TITLE_FETCH_TIMEOUT" envDefault:"5s" validate:"min=100ms"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// .env is a local-dev convenience; a missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
