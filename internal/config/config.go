// internal/config/config.go
//
// Process configuration for the engine server.
//
// Values come from the environment; a .env file in the working directory is
// loaded first when present (development convenience, never required).
// Defaults match a local single-node setup.

package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends accepted by STORE.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
	StoreSQLite = "sqlite"
)

// Config is the full server configuration.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Store        string `env:"STORE" envDefault:"memory"`
	BoltPath     string `env:"BOLT_PATH" envDefault:"data/sessions.db"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/app.db"`

	// WordsDir overrides the embedded word lists when set.
	WordsDir  string `env:"WORDS_DIR"`
	WordPick  string `env:"WORD_PICK" envDefault:"random"`
	DailySalt string `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"wordle_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	Production     bool   `env:"PRODUCTION" envDefault:"false"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load(dotenv ...string) (Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreBolt, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}
	switch c.WordPick {
	case "random", "daily":
	default:
		return fmt.Errorf("config: unknown WORD_PICK %q", c.WordPick)
	}
	if c.JWTExpiresDays <= 0 {
		return errors.New("config: JWT_EXPIRES_DAYS must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("config: rate limits must be positive")
	}
	if c.Production && c.JWTSecret == "dev_secret_change_me" {
		return errors.New("config: JWT_SECRET must be set in production")
	}
	return nil
}
