// Package config loads client and server settings from RUBRICA_* variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"
)

// Prefix of every environment variable read here.
const Prefix = "RUBRICA_"

// Client configures the rb front-end.
type Client struct {
	APIURL      string        `env:"API_URL" envDefault:"http://localhost:3001"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"warn"`
	ScrollDelay time.Duration `env:"SCROLL_DELAY" envDefault:"1s"`
	Locale      string        `env:"LOCALE" envDefault:"it"`
	PageSize    int           `env:"PAGE_SIZE" envDefault:"15"`
}

// Server configures rubrica-server. An empty DSN selects the in-memory
// repository.
type Server struct {
	Addr            string        `env:"ADDR" envDefault:":3001"`
	DSN             string        `env:"DSN"`
	Migrate         bool          `env:"MIGRATE" envDefault:"true"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// LoadClient reads the client configuration.
func LoadClient() (*Client, error) {
	cfg := Client{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.Language(); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("failed to parse config: page size must be positive, got %d", cfg.PageSize)
	}
	return &cfg, nil
}

// Language returns the collation locale.
func (c *Client) Language() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("locale %q: %w", c.Locale, err)
	}
	return tag, nil
}

// LoadServer reads the server configuration.
func LoadServer() (*Server, error) {
	cfg := Server{}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
