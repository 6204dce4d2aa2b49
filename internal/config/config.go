package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Process sources
const (
	SourceAuto   = "auto"
	SourceProcfs = "procfs"
	SourcePsutil = "psutil"
)

// EnvPrefix is prepended to every configuration key read from the environment
const EnvPrefix = "PROCBRIDGE"

// Common errors
var (
	ErrUnknownSource = errors.New("unknown process source")
	ErrEmptyProcRoot = errors.New("proc root must not be empty")
)

// Config holds all bridge configuration
type Config struct {
	// Process enumeration
	ProcRoot string `mapstructure:"proc_root"`
	Source   string `mapstructure:"source"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ProcRoot:  "/proc",
		Source:    SourceAuto,
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load reads configuration from file and environment. An empty configFile
// searches the platform config directory and the working directory; a
// missing file there is not an error.
func Load(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	// Defaults double as the key set AutomaticEnv can bind
	v.SetDefault("proc_root", cfg.ProcRoot)
	v.SetDefault("source", cfg.Source)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_file", cfg.LogFile)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("procbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath(".")
	}

	// Environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration can drive a process scan
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProcRoot) == "" {
		return ErrEmptyProcRoot
	}

	switch c.Source {
	case SourceAuto, SourceProcfs, SourcePsutil:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, c.Source)
	}
}

// getConfigDir returns the platform-specific config directory
func getConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "procbridge")
	case "darwin":
		return "/Library/Application Support/procbridge"
	default: // Linux, Android and others
		return "/etc/procbridge"
	}
}
