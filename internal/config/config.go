// Package config loads the settings of the parley commands.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverDynamoDB = "dynamodb"
)

// Config is the file layout shared by every command.
type Config struct {
	// Templates is a directory of dialogue templates. Empty means the
	// templates embedded in each dialogue.
	Templates string `yaml:"templates" json:"templates" toml:"templates"`

	LogLevel string `yaml:"log_level" json:"log_level" toml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// LogFormat is text or json.
	LogFormat string `yaml:"log_format" json:"log_format" toml:"log_format" validate:"omitempty,oneof=text json"`

	// ExpirationSeconds overrides the idle timeout of every template when positive.
	ExpirationSeconds int `yaml:"expiration_seconds" json:"expiration_seconds" toml:"expiration_seconds" validate:"gte=0"`

	Store    StoreConfig    `yaml:"store" json:"store" toml:"store"`
	HTTP     HTTPConfig     `yaml:"http" json:"http" toml:"http"`
	Security SecurityConfig `yaml:"security" json:"security" toml:"security"`
}

// StoreConfig selects and configures the snapshot store.
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver" toml:"driver" validate:"oneof=memory file sqlite redis dynamodb"`

	// Path is the directory (file) or database file (sqlite).
	Path string `yaml:"path" json:"path" toml:"path"`

	Address  string `yaml:"address" json:"address" toml:"address"`
	Password string `yaml:"password" json:"password" toml:"password"`
	DB       int    `yaml:"db" json:"db" toml:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix" json:"prefix" toml:"prefix"`
	// Lock serializes turns across replicas through Redis.
	Lock bool `yaml:"lock" json:"lock" toml:"lock"`

	Table   string `yaml:"table" json:"table" toml:"table"`
	Region  string `yaml:"region" json:"region" toml:"region"`
	Profile string `yaml:"profile" json:"profile" toml:"profile"`

	// TTLSeconds lets redis and dynamodb expire idle snapshots on their own.
	TTLSeconds int `yaml:"ttl_seconds" json:"ttl_seconds" toml:"ttl_seconds" validate:"gte=0"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr    string `yaml:"addr" json:"addr" toml:"addr" validate:"required"`
	Metrics bool   `yaml:"metrics" json:"metrics" toml:"metrics"`
}

// SecurityConfig configures snapshot protection at rest.
type SecurityConfig struct {
	// EncryptionKey is a 32-byte AES key, hex or base64 encoded.
	EncryptionKey string   `yaml:"encryption_key" json:"encryption_key" toml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" json:"fallback_keys" toml:"fallback_keys"`
	// PIIPatterns are regular expressions matched against extras keys.
	PIIPatterns []string `yaml:"pii_patterns" json:"pii_patterns" toml:"pii_patterns"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Store: StoreConfig{
			Driver: DriverMemory,
			Prefix: "parley:",
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load reads a YAML, JSON or TOML file over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalid is returned for settings that fail validation.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks field constraints and the settings each driver needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	missing := func(field string) error {
		return fmt.Errorf("%w: store.%s is required for the %s driver", ErrInvalid, field, c.Store.Driver)
	}
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
		if c.Store.Path == "" {
			return missing("path")
		}
	case DriverRedis:
		if c.Store.Address == "" {
			return missing("address")
		}
	case DriverDynamoDB:
		if c.Store.Table == "" {
			return missing("table")
		}
	}
	if c.Store.Lock && c.Store.Driver != DriverRedis {
		return fmt.Errorf("%w: store.lock needs the redis driver", ErrInvalid)
	}
	if len(c.Security.FallbackKeys) > 0 && c.Security.EncryptionKey == "" {
		return fmt.Errorf("%w: security.fallback_keys without security.encryption_key", ErrInvalid)
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Expiration returns the expiration override, zero when unset.
func (c *Config) Expiration() time.Duration {
	return time.Duration(c.ExpirationSeconds) * time.Second
}

// TTL returns the store-side expiry, zero when unset.
func (c *StoreConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
