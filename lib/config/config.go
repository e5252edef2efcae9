// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/discordia-project/discordia/lib/snowflake"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "DISCORDIA_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Bounds for message settings.
const (
	MaxContextLimit  = 100
	MaxMessageLength = 2000
)

// Config is the complete discordia configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// ServerID is the guild the bot manages.
	ServerID snowflake.ID `yaml:"server_id"`

	Discord   DiscordConfig   `yaml:"discord"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Messages  MessagesConfig  `yaml:"messages"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`

	// Per-environment overrides, applied after the base file is read.
	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the sections an environment block may replace.
// Empty fields leave the base value alone.
type Overrides struct {
	Reconcile *ReconcileConfig `yaml:"reconcile,omitempty"`
	Log       *LogConfig       `yaml:"log,omitempty"`
}

// DiscordConfig configures the REST client.
type DiscordConfig struct {
	// APIURL is the versioned REST base URL.
	// Default: https://discord.com/api/v10
	APIURL string `yaml:"api_url"`

	// TokenFile holds the bot token. The token is never accepted
	// inline in the config file.
	TokenFile string `yaml:"token_file"`

	// Timeout bounds each HTTP request. Zero means no limit.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ReconcileConfig configures template reconciliation.
type ReconcileConfig struct {
	// Auto runs one reconcile at startup.
	Auto *bool `yaml:"auto,omitempty"`

	// Interval between periodic reconciles. Zero disables the loop.
	Interval time.Duration `yaml:"interval"`

	// Template is the server template file (.yaml, .yml, .json, .jsonc).
	Template string `yaml:"template"`

	// Timezone decides what "today" means for date patterns. An IANA
	// name, "UTC", or "Local".
	// Default: Local
	Timezone string `yaml:"timezone"`
}

// AutoEnabled reports whether a startup reconcile should run.
func (r ReconcileConfig) AutoEnabled() bool { return r.Auto == nil || *r.Auto }

// MessagesConfig configures message ingestion.
type MessagesConfig struct {
	// ContextLimit is the default history depth handlers see.
	// Default: 20
	ContextLimit int `yaml:"context_limit"`

	// MaxLength truncates stored message content.
	// Default: 2000
	MaxLength int `yaml:"max_length"`

	// PollInterval enables REST polling for new messages. Zero
	// disables it.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// StorageConfig configures durable entity storage. An empty path
// disables that store.
type StorageConfig struct {
	// Directory is the base for the other paths, exported to them as
	// ${DISCORDIA_STATE}.
	Directory string `yaml:"directory"`

	Database  string `yaml:"database"`
	AppendLog string `yaml:"append_log"`
	Snapshot  string `yaml:"snapshot"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`
}

// Default returns the configuration used as the base before a file is
// loaded.
func Default() *Config {
	homeDirectory, _ := os.UserHomeDir()
	stateDirectory := filepath.Join(homeDirectory, ".local", "state", "discordia")

	return &Config{
		Environment: Development,
		Discord: DiscordConfig{
			APIURL:  "https://discord.com/api/v10",
			Timeout: 30 * time.Second,
		},
		Reconcile: ReconcileConfig{
			Timezone: "Local",
		},
		Messages: MessagesConfig{
			ContextLimit: 20,
			MaxLength:    MaxMessageLength,
		},
		Storage: StorageConfig{
			Directory: stateDirectory,
			Database:  "${DISCORDIA_STATE}/discordia.db",
			AppendLog: "${DISCORDIA_STATE}/entities.log",
			Snapshot:  "${DISCORDIA_STATE}/cache.snapshot",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load loads configuration from the file named by DISCORDIA_CONFIG.
// It fails if the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your discordia.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults, applies
// environment overrides, and expands path variables. It does not
// validate; call Validate.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
	if reconcile := overrides.Reconcile; reconcile != nil {
		if reconcile.Auto != nil {
			c.Reconcile.Auto = reconcile.Auto
		}
		if reconcile.Interval != 0 {
			c.Reconcile.Interval = reconcile.Interval
		}
		if reconcile.Template != "" {
			c.Reconcile.Template = reconcile.Template
		}
		if reconcile.Timezone != "" {
			c.Reconcile.Timezone = reconcile.Timezone
		}
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Storage.Directory = expandVars(c.Storage.Directory, vars)
	vars["DISCORDIA_STATE"] = c.Storage.Directory

	c.Storage.Database = expandVars(c.Storage.Database, vars)
	c.Storage.AppendLog = expandVars(c.Storage.AppendLog, vars)
	c.Storage.Snapshot = expandVars(c.Storage.Snapshot, vars)
	c.Discord.TokenFile = expandVars(c.Discord.TokenFile, vars)
	c.Reconcile.Template = expandVars(c.Reconcile.Template, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}
	if c.ServerID.IsZero() {
		errs = append(errs, fmt.Errorf("server_id is required"))
	}

	if c.Discord.APIURL == "" {
		errs = append(errs, fmt.Errorf("discord.api_url is required"))
	} else if parsed, err := url.Parse(c.Discord.APIURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("discord.api_url %q is not an absolute URL", c.Discord.APIURL))
	}
	if c.Discord.TokenFile == "" {
		errs = append(errs, fmt.Errorf("discord.token_file is required"))
	}
	if c.Discord.Timeout < 0 {
		errs = append(errs, fmt.Errorf("discord.timeout must be non-negative"))
	}

	if c.Reconcile.Interval < 0 {
		errs = append(errs, fmt.Errorf("reconcile.interval must be non-negative"))
	}
	if c.Reconcile.Template == "" && (c.Reconcile.AutoEnabled() || c.Reconcile.Interval > 0) {
		errs = append(errs, fmt.Errorf("reconcile.template is required when reconcile.auto or reconcile.interval is set"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if c.Messages.ContextLimit < 1 || c.Messages.ContextLimit > MaxContextLimit {
		errs = append(errs, fmt.Errorf("messages.context_limit must be between 1 and %d, got %d", MaxContextLimit, c.Messages.ContextLimit))
	}
	if c.Messages.MaxLength < 1 || c.Messages.MaxLength > MaxMessageLength {
		errs = append(errs, fmt.Errorf("messages.max_length must be between 1 and %d, got %d", MaxMessageLength, c.Messages.MaxLength))
	}
	if c.Messages.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("messages.poll_interval must be non-negative"))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves reconcile.timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Reconcile.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	location, err := time.LoadLocation(c.Reconcile.Timezone)
	if err != nil {
		return nil, fmt.Errorf("reconcile.timezone: %w", err)
	}
	return location, nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
}

// EnsureDirectories creates the parent directories of every enabled
// storage path.
func (c *Config) EnsureDirectories() error {
	for _, path := range []string{c.Storage.Database, c.Storage.AppendLog, c.Storage.Snapshot} {
		if path == "" {
			continue
		}
		directory := filepath.Dir(path)
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return nil
}
