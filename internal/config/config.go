// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	apperrors "github.com/zorak1103/bootguard/internal/errors"
	"github.com/zorak1103/bootguard/internal/logging"
	"github.com/zorak1103/bootguard/internal/version"
)

// Common errors
var (
	Err = errors.New("config error")
)

// Packaging modes accepted by app.packaged.
const (
	PackagedAuto  = "auto"
	PackagedTrue  = "true"
	PackagedFalse = "false"
)

// Config represents the launcher configuration
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Env          EnvConfig          `mapstructure:"env"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
	Notification NotificationConfig `mapstructure:"notification"`
	Crash        CrashConfig        `mapstructure:"crash"`
	Log          LogConfig          `mapstructure:"log"`

	// ConfigFilePath stores the path to the loaded config file (not marshaled from YAML)
	ConfigFilePath string `mapstructure:"-"`
}

// AppConfig identifies the hosted application
type AppConfig struct {
	Name     string `mapstructure:"name"`
	ID       string `mapstructure:"id"`
	Title    string `mapstructure:"title"`
	Packaged string `mapstructure:"packaged"`
}

// EnvConfig contains native library and module search path settings
type EnvConfig struct {
	ModulePathVar string   `mapstructure:"module_path_var"`
	ModulePaths   []string `mapstructure:"module_paths"`
	GLLibrary     string   `mapstructure:"gl_library"`
	MeshLibrary   string   `mapstructure:"mesh_library"`
}

// TelemetryConfig contains crash-reporting client settings
type TelemetryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	DSN        string `mapstructure:"dsn"`
	ServerName string `mapstructure:"server_name"`
}

// NotificationConfig contains crash notification settings
type NotificationConfig struct {
	ShoutrrURL string `mapstructure:"shoutrrr_url"` // Shoutrrr URL format
	Enabled    bool   `mapstructure:"enabled"`
}

// CrashConfig contains crash interception settings
type CrashConfig struct {
	FlushTimeout time.Duration `mapstructure:"flush_timeout"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// IsPackaged resolves app.packaged against the build-time flag.
func (c *Config) IsPackaged() bool {
	switch strings.ToLower(c.App.Packaged) {
	case PackagedTrue:
		return true
	case PackagedFalse:
		return false
	default:
		return version.IsPackaged()
	}
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/bootguard")
		v.AddConfigPath("/etc/bootguard")
	}

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			configFile := v.ConfigFileUsed()
			if configFile == "" {
				configFile = configPath
			}
			return nil, fmt.Errorf("error reading config file from %s: %w", configFile, err)
		}
		// Config file not found; using defaults and env vars
	}

	v.SetEnvPrefix("BOOTGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("error unmarshaling config from %s: %w", configFile, err)
	}

	cfg.ConfigFilePath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("config validation failed for %s: %w", configFile, err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment override exists.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults are static and always decode.
	_ = v.Unmarshal(&cfg) // nolint:errcheck
	return &cfg
}

func setDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("app.name", "cura")
	v.SetDefault("app.id", "com.ultimaker.cura")
	v.SetDefault("app.title", "Ultimaker Cura")
	v.SetDefault("app.packaged", PackagedAuto)

	// Environment defaults
	v.SetDefault("env.module_path_var", "PYTHONPATH")
	v.SetDefault("env.module_paths", []string{"."})
	v.SetDefault("env.gl_library", "GL")
	v.SetDefault("env.mesh_library", "openctm")

	// Telemetry defaults (empty DSN keeps the client disabled)
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.dsn", "") // Required for AutomaticEnv to work
	v.SetDefault("telemetry.server_name", "cura")

	// Notification defaults
	v.SetDefault("notification.shoutrrr_url", "") // Required for AutomaticEnv to work
	v.SetDefault("notification.enabled", false)

	// Crash defaults
	v.SetDefault("crash.flush_timeout", 2*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
}

// Validate ensures all required fields are set and values are within valid ranges.
func (c *Config) Validate() error {
	configSource := c.ConfigFilePath
	if configSource == "" {
		configSource = "(defaults/environment)"
	}

	checks := []struct {
		key string
		err error
	}{
		{"app.name", c.validateAppName()},
		{"app.packaged", c.validatePackaged()},
		{"log.level", c.validateLogLevel()},
		{"crash.flush_timeout", c.validateFlushTimeout()},
		{"notification.shoutrrr_url", c.validateNotification()},
	}

	for _, check := range checks {
		if check.err != nil {
			return &apperrors.ConfigurationError{ConfigPath: configSource, Key: check.key, Err: check.err}
		}
	}
	return nil
}

func (c *Config) validateAppName() error {
	if strings.TrimSpace(c.App.Name) == "" {
		return fmt.Errorf("%w: app.name is required", Err)
	}
	if strings.ContainsAny(c.App.Name, `/\`) {
		return fmt.Errorf("%w: app.name %q must not contain path separators", Err, c.App.Name)
	}
	return nil
}

func (c *Config) validatePackaged() error {
	switch strings.ToLower(c.App.Packaged) {
	case PackagedAuto, PackagedTrue, PackagedFalse, "":
		return nil
	default:
		return fmt.Errorf("%w: app.packaged must be auto, true or false, got %q", Err, c.App.Packaged)
	}
}

func (c *Config) validateLogLevel() error {
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: unknown log.level %q", Err, c.Log.Level)
	}
	return nil
}

func (c *Config) validateFlushTimeout() error {
	if c.Crash.FlushTimeout <= 0 {
		return fmt.Errorf("%w: crash.flush_timeout must be positive, got %s", Err, c.Crash.FlushTimeout)
	}
	return nil
}

func (c *Config) validateNotification() error {
	if c.Notification.Enabled && strings.TrimSpace(c.Notification.ShoutrrURL) == "" {
		return fmt.Errorf("%w: notification enabled but shoutrrr_url not configured", Err)
	}
	return nil
}
