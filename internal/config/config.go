// Package config loads jetinfo settings from YAML with environment overrides.
//
// Environment variables take precedence over the file:
//
//	JETDB_LOG_LEVEL   debug, info, warn or error
//	JETDB_LOG_FORMAT  text or json
//	JETDB_WORKERS     page fetch parallelism
//	JETDB_SQLITE_DRIVER  database/sql driver name for schema export
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/jetdb/internal/logging"
)

// Config is the complete jetinfo configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Pages   PagesConfig   `yaml:"pages"`
	Export  ExportConfig  `yaml:"export"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PagesConfig tunes bulk page access.
type PagesConfig struct {
	Workers int `yaml:"workers"`
}

// ExportConfig controls SQLite schema export.
type ExportConfig struct {
	// Driver overrides the database/sql driver name. Empty uses the one
	// compiled in.
	Driver string `yaml:"driver"`

	// Pragmas are executed after opening the output database.
	Pragmas []string `yaml:"pragmas"`

	// Overwrite replaces an existing output file.
	Overwrite bool `yaml:"overwrite"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Pages: PagesConfig{
			Workers: runtime.NumCPU(),
		},
		Export: ExportConfig{
			Pragmas: []string{"journal_mode=WAL"},
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("JETDB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JETDB_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("JETDB_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JETDB_WORKERS: %w", err)
		}
		cfg.Pages.Workers = n
	}
	if v := os.Getenv("JETDB_SQLITE_DRIVER"); v != "" {
		cfg.Export.Driver = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, "logging.level: "+err.Error())
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		errs = append(errs, "logging.format: "+err.Error())
	}
	if c.Pages.Workers < 1 {
		errs = append(errs, "pages.workers must be at least 1")
	}
	for _, p := range c.Export.Pragmas {
		if strings.ContainsAny(p, ";") {
			errs = append(errs, fmt.Sprintf("export.pragmas: %q must be a single statement", p))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ApplyLogging initializes the global logger from the logging section.
func (c *Config) ApplyLogging() {
	// Validate has already rejected unknown values.
	level, _ := logging.ParseLevel(c.Logging.Level)
	format, _ := logging.ParseFormat(c.Logging.Format)
	logging.InitLogger(level, format)
}
