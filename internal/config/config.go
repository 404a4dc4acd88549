// Package config reads process settings from FORMSCHEMA_* environment
// variables. Command line flags override what is read here.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds every process level setting.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"FORMSCHEMA_ADDR,default=:8080"`
	// BaseURL resolves relative async option URLs. Empty means the server's
	// own address.
	BaseURL string `env:"FORMSCHEMA_BASE_URL"`

	// SchemaPath, RulesPath and ValuesPath point at form documents. An empty
	// SchemaPath serves the embedded demo form.
	SchemaPath string `env:"FORMSCHEMA_SCHEMA"`
	RulesPath  string `env:"FORMSCHEMA_RULES"`
	ValuesPath string `env:"FORMSCHEMA_VALUES"`
	// TemplatesDir layers template overrides over the embedded set.
	TemplatesDir string `env:"FORMSCHEMA_TEMPLATES_DIR"`
	// Locale selects translations for renderer chrome.
	Locale string `env:"FORMSCHEMA_LOCALE,default=en"`

	LogLevel  string `env:"FORMSCHEMA_LOG_LEVEL,default=info"`
	LogFormat string `env:"FORMSCHEMA_LOG_FORMAT,default=text"`

	// OptionsTimeout bounds each async option fetch.
	OptionsTimeout time.Duration `env:"FORMSCHEMA_OPTIONS_TIMEOUT,default=10s"`
	// CacheTTL bounds how long fetched options are reused. Zero keeps them
	// for the life of the process.
	CacheTTL time.Duration `env:"FORMSCHEMA_CACHE_TTL,default=5m"`

	// RedisAddr switches the option cache to Redis when set.
	RedisAddr   string `env:"FORMSCHEMA_REDIS_ADDR"`
	RedisPrefix string `env:"FORMSCHEMA_REDIS_PREFIX,default=formschema:options:"`

	// Watch reloads the schema and rules documents when they change.
	Watch bool `env:"FORMSCHEMA_WATCH,default=false"`
	// SessionTTL expires idle form sessions.
	SessionTTL time.Duration `env:"FORMSCHEMA_SESSION_TTL,default=30m"`
}

// Load decodes the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return Config{}, fmt.Errorf("config: decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the process cannot start with.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.LogFormat)
	}
	if c.Addr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.OptionsTimeout < 0 || c.CacheTTL < 0 || c.SessionTTL < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	if c.SchemaPath == "" && (c.RulesPath != "" || c.ValuesPath != "") {
		return fmt.Errorf("config: rules and values documents require a schema document")
	}
	return nil
}
