package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/jchantrell/shadearc/internal/archive"
	"github.com/jchantrell/shadearc/internal/cache"
)

type Config struct {
	Layout    LayoutConfig `mapstructure:"layout"`
	Workers   int          `mapstructure:"workers"`
	Database  string       `mapstructure:"database"`
	Names     string       `mapstructure:"names"`
	LogLevel  string       `mapstructure:"log_level"`
	LogFormat string       `mapstructure:"log_format"`
}

// LayoutConfig selects the archive table layout.
type LayoutConfig struct {
	Schema    string `mapstructure:"schema"`
	Alignment int    `mapstructure:"alignment"`
	Endian    string `mapstructure:"endian"`
}

// Load initializes and loads configuration from file and SHADEARC_*
// environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("layout.schema", archive.SchemaOffsetSize.String())
	v.SetDefault("layout.alignment", 1)
	v.SetDefault("layout.endian", "little")
	v.SetDefault("workers", 0)
	v.SetDefault("database", cache.Workspace().CatalogPath())
	v.SetDefault("names", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("shadearc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file handling
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName("shadearc")
		v.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every setting. It runs again after command-line flags
// override loaded values.
func (c *Config) Validate() error {
	if err := validateLayout(c.Layout); err != nil {
		return fmt.Errorf("invalid layout configuration: %w", err)
	}
	if err := validateWorkers(c.Workers); err != nil {
		return fmt.Errorf("invalid workers configuration: %w", err)
	}
	if err := validateLogging(c.LogLevel, c.LogFormat); err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	return nil
}

// ArchiveLayout converts the layout settings for the archive package.
func (c *Config) ArchiveLayout() (archive.Layout, error) {
	schema, err := archive.ParseSchema(c.Layout.Schema)
	if err != nil {
		return archive.Layout{}, err
	}

	var order binary.ByteOrder = binary.LittleEndian
	if c.Layout.Endian == "big" {
		order = binary.BigEndian
	}

	return archive.Layout{
		Schema:    schema,
		Alignment: c.Layout.Alignment,
		ByteOrder: order,
	}, nil
}

// WorkerCount resolves the configured worker count, where 0 means one per CPU.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
