// Package config loads the vhnotify YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvLogFile       = "VHNOTIFY_LOGFILE"
	EnvTelegramToken = "VHNOTIFY_TELEGRAM_TOKEN"
)

// Identity store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	Language        string         `yaml:"language"`
	LogFile         string         `yaml:"log_file"`
	Timeout         time.Duration  `yaml:"timeout"`
	Identity        IdentityConfig `yaml:"identity"`
	Telegram        TelegramConfig `yaml:"telegram"`
	Nats            NatsConfig     `yaml:"nats"`
	DryRun          bool           `yaml:"dry_run"`
	ReplayFromStart bool           `yaml:"replay_from_start"`
	Poll            bool           `yaml:"poll"`
}

// IdentityConfig selects where display names are cached and looked up
type IdentityConfig struct {
	Driver     string `yaml:"driver"`
	Path       string `yaml:"path"`
	ProfileURL string `yaml:"profile_url"`
}

// TelegramConfig holds Bot API settings
type TelegramConfig struct {
	Token     string  `yaml:"token"`
	ChatID    string  `yaml:"chat_id"`
	RateLimit float64 `yaml:"rate_limit"`
	APIURL    string  `yaml:"api_url"`
}

// Enabled reports whether any Telegram setting is present.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" || t.ChatID != ""
}

// NatsConfig holds NATS publishing settings
type NatsConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Enabled reports whether a NATS server is configured.
func (n NatsConfig) Enabled() bool {
	return n.URL != ""
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Identity.Driver == "" {
		c.Identity.Driver = DriverJSON
	}
	if c.Identity.Path == "" {
		switch c.Identity.Driver {
		case DriverSQLite:
			c.Identity.Path = "users.db"
		default:
			c.Identity.Path = "users.json"
		}
	}
	// Note: Telegram.RateLimit, ProfileURL and Nats.Subject are left empty;
	// the packages that use them own their defaults
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv(EnvTelegramToken); v != "" {
		c.Telegram.Token = v
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	el := errors.NewErrorList()
	if c.Timeout < 0 {
		el.Add(fmt.Errorf("timeout: must be positive, got %v", c.Timeout))
	}
	el.Add(c.Identity.validate("identity"))
	if c.Telegram.Enabled() {
		el.Add(c.Telegram.validate("telegram"))
	}
	if !c.DryRun && !c.Telegram.Enabled() && !c.Nats.Enabled() {
		el.Add(fmt.Errorf("no delivery configured: set telegram, nats or dry_run"))
	}
	return el.Err()
}

func (c *IdentityConfig) validate(name string) error {
	el := errors.NewErrorList()
	switch c.Driver {
	case DriverJSON, DriverSQLite:
	default:
		el.Add(fmt.Errorf("%s: unknown driver %q", name, c.Driver))
	}
	if c.Path == "" {
		el.Add(fmt.Errorf("%s: path is required", name))
	}
	return el.Err()
}

func (c *TelegramConfig) validate(name string) error {
	el := errors.NewErrorList()
	if c.Token == "" {
		el.Add(fmt.Errorf("%s: token is required (or set %s)", name, EnvTelegramToken))
	}
	if c.ChatID == "" {
		el.Add(fmt.Errorf("%s: chat_id is required", name))
	}
	if c.RateLimit < 0 {
		el.Add(fmt.Errorf("%s: rate_limit must not be negative", name))
	}
	return el.Err()
}
