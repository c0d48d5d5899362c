package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "bnvault/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	// Dest is the root of the on-disk data tree.
	Dest string `yaml:"dest" envconfig:"DEST" validate:"required"`

	// Interval is the kline interval used for interval-scoped data types.
	Interval string `yaml:"interval" envconfig:"INTERVAL" validate:"required"`

	// MaxWorkers bounds the download worker pool.
	MaxWorkers int `yaml:"max_workers" envconfig:"MAX_WORKERS" validate:"min=1,max=64"`

	// RequestsPerSecond paces requests against the public endpoint.
	// Zero disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"min=0"`

	// SkipExisted marks units whose target file already exists as skipped
	// without any network access.
	SkipExisted bool `yaml:"skip_existed" envconfig:"SKIP_EXISTED"`

	// KeepArchives retains the downloaded archive and checksum sidecar
	// after a successful extraction.
	KeepArchives bool `yaml:"keep_archives" envconfig:"KEEP_ARCHIVES"`

	// RemoveSource deletes the extracted CSV after a successful conversion.
	RemoveSource bool `yaml:"remove_source" envconfig:"REMOVE_SOURCE"`

	// Sources maps a source selector ("um", "spot") to its symbol and
	// data-type lists.
	Sources map[string]SourceConfig `yaml:"sources" envconfig:"SOURCES" validate:"required,min=1"`

	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// SourceConfig lists what to download for one source
type SourceConfig struct {
	Symbols   []string `yaml:"symbols" validate:"required,min=1"`
	DataTypes []string `yaml:"data_types" validate:"required,min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// DefaultConfigFile is the YAML file loaded when -config is not given.
const DefaultConfigFile = "bnvault.yaml"

// defaults returns a Config carrying the built-in defaults. File values
// overlay these, and environment variables overlay both.
func defaults() Config {
	return Config{
		Interval:          "1m",
		MaxWorkers:        4,
		RequestsPerSecond: 8,
		SkipExisted:       true,
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/bnvault.log",
		},
	}
}

// Load loads configuration from the YAML file (when present) with
// environment variables taking precedence, then validates it. Any failure
// is a CONFIG error; the callers treat it as fatal before any work begins.
func Load(configFile string) (*Config, error) {
	cfg := defaults()

	if configFile == "" {
		configFile = DefaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to read config file %s", configFile), err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to parse config file %s", configFile), err)
		}
	}

	// Environment variables override file values
	if err := envconfig.Process("BNVAULT", &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration once at startup
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	for name, src := range c.Sources {
		if err := v.Struct(src); err != nil {
			return apperrors.NewConfigError(fmt.Sprintf("config validation failed for source %q", name), err)
		}
	}
	return nil
}

// Source returns the configuration for one source selector
func (c *Config) Source(name string) (SourceConfig, error) {
	src, ok := c.Sources[name]
	if !ok {
		return SourceConfig{}, apperrors.NewConfigError(fmt.Sprintf("source %q is not configured", name), nil)
	}
	return src, nil
}
