package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/metacrate/internal/crate"
)

// Settings backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	Settings  SettingsConfig    `yaml:"settings"`
	Crate     CrateConfig       `yaml:"crate"`
	Push      PushConfig        `yaml:"push"`
	Watch     WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if err := c.Crate.Validate(); err != nil {
		return err
	}
	if err := c.Push.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds ingestion server configuration.
type HTTPConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkspaceConfig identifies the directory being described.
type WorkspaceConfig struct {
	Path     string `yaml:"path"`
	PluginID string `yaml:"plugin_id"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.PluginID, validation.Required),
	)
}

// SettingsConfig selects where field values and tag selections persist.
type SettingsConfig struct {
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Redis   RedisConfig  `yaml:"redis"`
}

// Validate validates the settings configuration.
func (c *SettingsConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendSQLite, BackendRedis, BackendMemory)),
	); err != nil {
		return err
	}
	switch c.Backend {
	case BackendSQLite:
		return c.SQLite.Validate()
	case BackendRedis:
		return c.Redis.Validate()
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration. The database also
// stores crates received by the ingestion server.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RedisConfig holds the Redis settings backend configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Validate validates the Redis configuration.
func (c *RedisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DB, validation.Min(0)),
	)
}

// CrateConfig controls document generation.
type CrateConfig struct {
	ContextURL          string        `yaml:"context_url"`
	VocabularyCacheSize int           `yaml:"vocabulary_cache_size"`
	HTTPTimeout         time.Duration `yaml:"http_timeout"`
}

// Validate validates the crate configuration.
func (c *CrateConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ContextURL, validation.Required),
		validation.Field(&c.VocabularyCacheSize, validation.Min(1)),
		validation.Field(&c.HTTPTimeout, validation.Required),
	)
}

// PushConfig holds the ingestion endpoint exports are pushed to.
type PushConfig struct {
	URL string `yaml:"url"`
}

// Validate validates the push configuration.
func (c *PushConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
	)
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Push     bool          `yaml:"push"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 5000,
			},
		},
		Workspace: WorkspaceConfig{
			Path:     ".",
			PluginID: "metacrate:plugin",
		},
		Settings: SettingsConfig{
			Backend: BackendSQLite,
			SQLite: SQLiteConfig{
				Path: "./metacrate.db",
			},
		},
		Crate: CrateConfig{
			ContextURL:          crate.ContextURL,
			VocabularyCacheSize: 8,
			HTTPTimeout:         15 * time.Second,
		},
		Push: PushConfig{
			URL: "http://localhost:5000/api/insert",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}
