// Package config loads builder configuration from .pagecraft/config.yaml,
// layered as defaults, then file, then PAGECRAFT_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file location relative to the project root.
const DefaultPath = ".pagecraft/config.yaml"

// Config is the root builder configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Canvas   CanvasConfig   `yaml:"canvas"`
	History  HistoryConfig  `yaml:"history"`
	Generate GenerateConfig `yaml:"generate"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CanvasConfig sets the initial canvas behavior.
type CanvasConfig struct {
	GridSize    float64 `yaml:"grid_size"`
	SnapToGrid  bool    `yaml:"snap_to_grid"`
	ShowGrid    bool    `yaml:"show_grid"`
	DefaultZoom float64 `yaml:"default_zoom"`
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	MaxSize int `yaml:"max_size"`
}

// GenerateConfig configures code generation output.
type GenerateConfig struct {
	OutputDir   string `yaml:"output_dir"`
	OverlaysDir string `yaml:"overlays_dir"`
}

// AutosaveConfig configures the crash-recovery store.
type AutosaveConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
	Interval     string `yaml:"interval"`
	Keep         int    `yaml:"keep"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "pagecraft",
		Version: "1.0.0",

		Canvas: CanvasConfig{
			GridSize:    8,
			SnapToGrid:  true,
			ShowGrid:    true,
			DefaultZoom: 1.0,
		},

		History: HistoryConfig{
			MaxSize: 50,
		},

		Generate: GenerateConfig{
			OutputDir:   "out",
			OverlaysDir: ".pagecraft/components",
		},

		Autosave: AutosaveConfig{
			Enabled:      true,
			DatabasePath: ".pagecraft/autosave.db",
			Interval:     "30s",
			Keep:         20,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// Load loads configuration from a YAML file, returning defaults when the file
// does not exist. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides layers PAGECRAFT_* environment variables over the loaded
// values. Only set variables override.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PAGECRAFT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PAGECRAFT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PAGECRAFT_OUTPUT_DIR"); v != "" {
		c.Generate.OutputDir = v
	}
	if v := os.Getenv("PAGECRAFT_OVERLAYS_DIR"); v != "" {
		c.Generate.OverlaysDir = v
	}
	if v := os.Getenv("PAGECRAFT_AUTOSAVE_DB"); v != "" {
		c.Autosave.DatabasePath = v
	}
	if v := os.Getenv("PAGECRAFT_HISTORY_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.History.MaxSize = n
		}
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.History.MaxSize <= 0 {
		return fmt.Errorf("history.max_size must be positive, got %d", c.History.MaxSize)
	}
	if c.Canvas.GridSize <= 0 {
		return fmt.Errorf("canvas.grid_size must be positive, got %v", c.Canvas.GridSize)
	}
	if c.Canvas.DefaultZoom <= 0 {
		return fmt.Errorf("canvas.default_zoom must be positive, got %v", c.Canvas.DefaultZoom)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}
