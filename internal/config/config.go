// Package config loads cmdengine host settings from defaults, a .env file, a
// config file, CMDENGINE_* environment variables and bound command-line flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cmdengine/internal/version"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CMDENGINE"

// Coordinator names.
const (
	CoordinatorSync     = "sync"
	CoordinatorDeferred = "deferred"
)

// Keys understood by Load. Flag names match keys.
const (
	KeyLogLevel        = "log-level"
	KeyLogFile         = "log-file"
	KeyTestMode        = "test-mode"
	KeyCoordinator     = "coordinator"
	KeyWorkers         = "workers"
	KeyQueueSize       = "queue-size"
	KeyCaptionsFile    = "captions-file"
	KeyCaptionsVersion = "captions-version"
	KeyRateLimit       = "rate-limit"
	KeyRateBurst       = "rate-burst"
	KeySender          = "sender"
	KeyPermissions     = "permissions"
	KeyOutputMode      = "output-mode"
)

// Config holds host settings.
type Config struct {
	LogLevel    string
	LogFile     string
	TestMode    bool
	Coordinator string
	Workers     int
	QueueSize   int
	// CaptionsFile is an optional YAML file of caption overrides.
	CaptionsFile string
	// CaptionsVersion is a semver constraint the running engine must satisfy
	// for CaptionsFile to be loaded.
	CaptionsVersion string
	// RateLimit is invocations per second per sender. Zero disables limiting.
	RateLimit float64
	RateBurst int
	// Sender names the sender used by the demo host.
	Sender string
	// Permissions lists permissions granted to Sender. "*" grants everything.
	Permissions []string
	// OutputMode is plain, styled or json.
	OutputMode string
}

// Options controls where Load looks for settings.
type Options struct {
	// ConfigFile is an explicit config file. When empty, cmdengine.{yaml,toml,json}
	// is searched in the working directory and $HOME/.config/cmdengine.
	ConfigFile string
	// DotEnvFile is a .env file. Missing files are ignored.
	DotEnvFile string
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyTestMode, false)
	v.SetDefault(KeyCoordinator, CoordinatorSync)
	v.SetDefault(KeyWorkers, 4)
	v.SetDefault(KeyQueueSize, 64)
	v.SetDefault(KeyCaptionsFile, "")
	v.SetDefault(KeyCaptionsVersion, "")
	v.SetDefault(KeyRateLimit, 0.0)
	v.SetDefault(KeyRateBurst, 5)
	v.SetDefault(KeySender, "console")
	v.SetDefault(KeyPermissions, []string{"*"})
	v.SetDefault(KeyOutputMode, "plain")
}

// Load reads the configuration into a Config. Flags must already be bound to v.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	SetDefaults(v)
	if err := loadDotEnv(v, opts.DotEnvFile); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("cmdengine")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/cmdengine")
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		LogLevel:        v.GetString(KeyLogLevel),
		LogFile:         v.GetString(KeyLogFile),
		TestMode:        v.GetBool(KeyTestMode),
		Coordinator:     strings.ToLower(v.GetString(KeyCoordinator)),
		Workers:         v.GetInt(KeyWorkers),
		QueueSize:       v.GetInt(KeyQueueSize),
		CaptionsFile:    v.GetString(KeyCaptionsFile),
		CaptionsVersion: v.GetString(KeyCaptionsVersion),
		RateLimit:       v.GetFloat64(KeyRateLimit),
		RateBurst:       v.GetInt(KeyRateBurst),
		Sender:          v.GetString(KeySender),
		Permissions:     v.GetStringSlice(KeyPermissions),
		OutputMode:      strings.ToLower(v.GetString(KeyOutputMode)),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv applies CMDENGINE_* entries of path as defaults, below the config
// file and the process environment.
func loadDotEnv(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read .env file %s: %w", path, err)
	}
	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}
	for key, value := range envMap {
		name, ok := strings.CutPrefix(key, EnvPrefix+"_")
		if !ok {
			continue
		}
		v.SetDefault(strings.ToLower(strings.ReplaceAll(name, "_", "-")), value)
	}
	return nil
}

// Validate checks value ranges and the captions version constraint.
func (c *Config) Validate() error {
	switch c.Coordinator {
	case CoordinatorSync, CoordinatorDeferred:
	default:
		return fmt.Errorf("invalid coordinator %q: must be %s or %s", c.Coordinator, CoordinatorSync, CoordinatorDeferred)
	}
	switch c.OutputMode {
	case "plain", "styled", "json":
	default:
		return fmt.Errorf("invalid output-mode %q: must be plain, styled or json", c.OutputMode)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("queue-size must not be negative, got %d", c.QueueSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate-limit must not be negative, got %g", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate-burst must be at least 1 when rate-limit is set, got %d", c.RateBurst)
	}
	if c.CaptionsFile != "" && c.CaptionsVersion != "" {
		ok, err := version.Satisfies(c.CaptionsVersion)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("captions file %s requires engine version %s, running %s", c.CaptionsFile, c.CaptionsVersion, version.Version)
		}
	}
	return nil
}
