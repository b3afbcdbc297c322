package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rocketship-ai/shortcuts/internal/pipeline"
	"github.com/rocketship-ai/shortcuts/internal/platform"
	"github.com/rocketship-ai/shortcuts/internal/request"
	"github.com/rocketship-ai/shortcuts/internal/script"
	"github.com/rocketship-ai/shortcuts/internal/store"
)

const envPrefix = "SHORTCUTS"

// Config holds the resolved CLI configuration
type Config struct {
	Store        StoreConfig
	HTTP         HTTPConfig
	Scripts      ScriptsConfig
	Interaction  InteractionConfig
	Retry        RetryConfig
	Connectivity ConnectivityConfig
	Triggers     TriggersConfig
}

type StoreConfig struct {
	Driver string // sqlite, postgres, pgx or mysql
	DSN    string
}

type HTTPConfig struct {
	MaxBodyBytes int64
}

type ScriptsConfig struct {
	MaxWait time.Duration
}

type InteractionConfig struct {
	Timeout time.Duration
}

type RetryConfig struct {
	MinInterval time.Duration
	MaxWait     time.Duration
}

type ConnectivityConfig struct {
	ProbeAddress string
	Interval     time.Duration
}

type TriggersConfig struct {
	MaxDepth int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.dsn", "")
	v.SetDefault("http.max_body_bytes", request.DefaultMaxBodyBytes)
	v.SetDefault("scripts.max_wait", script.DefaultMaxWait)
	v.SetDefault("interaction.timeout", 5*time.Minute)
	v.SetDefault("retry.min_interval", 5*time.Second)
	v.SetDefault("retry.max_wait", 10*time.Minute)
	v.SetDefault("connectivity.probe_address", platform.DefaultProbeAddress)
	v.SetDefault("connectivity.interval", platform.DefaultProbeInterval)
	v.SetDefault("triggers.max_depth", pipeline.DefaultMaxTriggerDepth)
}

// LoadConfig resolves configuration.
// Priority (highest to lowest):
// 1. Command line flags bound to v
// 2. Environment variables with SHORTCUTS_ prefix (e.g., SHORTCUTS_STORE_DSN), including a .env file
// 3. The config file (shortcuts.yaml in the user config dir or the working directory)
// 4. Built-in defaults
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("shortcuts")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "shortcuts"))
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Store: StoreConfig{
			Driver: v.GetString("store.driver"),
			DSN:    v.GetString("store.dsn"),
		},
		HTTP:        HTTPConfig{MaxBodyBytes: v.GetInt64("http.max_body_bytes")},
		Scripts:     ScriptsConfig{MaxWait: v.GetDuration("scripts.max_wait")},
		Interaction: InteractionConfig{Timeout: v.GetDuration("interaction.timeout")},
		Retry: RetryConfig{
			MinInterval: v.GetDuration("retry.min_interval"),
			MaxWait:     v.GetDuration("retry.max_wait"),
		},
		Connectivity: ConnectivityConfig{
			ProbeAddress: v.GetString("connectivity.probe_address"),
			Interval:     v.GetDuration("connectivity.interval"),
		},
		Triggers: TriggersConfig{MaxDepth: v.GetInt("triggers.max_depth")},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case store.DriverSQLite, store.DriverPostgres, store.DriverPgx, store.DriverMySQL:
	default:
		return fmt.Errorf("store.driver must be one of sqlite, postgres, pgx, mysql; got %q", c.Store.Driver)
	}
	if c.Store.Driver != store.DriverSQLite && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for driver %s", c.Store.Driver)
	}
	if c.Triggers.MaxDepth < 0 {
		return fmt.Errorf("triggers.max_depth must not be negative")
	}
	return nil
}

// storeDSN returns the configured DSN, defaulting sqlite to a database in
// the user config directory
func (c *Config) storeDSN() (string, error) {
	if c.Store.DSN != "" || c.Store.Driver != store.DriverSQLite {
		return c.Store.DSN, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	dir = filepath.Join(dir, "shortcuts")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return "file:" + filepath.Join(dir, "shortcuts.db") + "?_pragma=busy_timeout(5000)", nil
}

// engineConfig returns the engine settings
func (c *Config) engineConfig() pipeline.Config {
	return pipeline.Config{
		InteractionTimeout: c.Interaction.Timeout,
		RetryMinInterval:   c.Retry.MinInterval,
		RetryMaxWait:       c.Retry.MaxWait,
		MaxTriggerDepth:    c.Triggers.MaxDepth,
	}
}
