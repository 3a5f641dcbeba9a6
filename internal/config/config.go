package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the tsig configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the tsig configuration directory
const ConfigDirName = ".tsig"

// Config holds all tsig configuration
type Config struct {
	Scan   ScanConfig   `yaml:"scan"`
	Output OutputConfig `yaml:"output"`
	Store  StoreConfig  `yaml:"store"`
}

// ScanConfig holds configuration for directory scanning
type ScanConfig struct {
	Include             []string `yaml:"include"`
	Exclude             []string `yaml:"exclude"`
	Workers             int      `yaml:"workers"`
	IncludePlaceholders *bool    `yaml:"include_placeholders,omitempty"`
	AutoExclude         *bool    `yaml:"auto_exclude,omitempty"`
}

// KeepPlaceholders reports whether export-clause records should be kept.
func (s ScanConfig) KeepPlaceholders() bool {
	return s.IncludePlaceholders == nil || *s.IncludePlaceholders
}

// DetectExcludes reports whether dependency and build directories found
// next to package.json and tsconfig.json are skipped.
func (s ScanConfig) DetectExcludes() bool {
	return s.AutoExclude == nil || *s.AutoExclude
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	Format string `yaml:"format"`
}

// StoreConfig holds configuration for the signature database
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .tsig/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	return LoadFromPath(filepath.Join(configDir, ConfigFileName))
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())
	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .tsig directory by walking up from startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .tsig directory if it doesn't exist and
// returns its path.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// StorePath resolves the database location for a project rooted at workDir.
// A relative store.path is taken relative to the .tsig directory.
func (c *Config) StorePath(workDir string) (string, error) {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path, nil
	}
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		configDir, err = EnsureConfigDir(workDir)
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(configDir, c.Store.Path), nil
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if len(cfg.Scan.Include) == 0 {
		return fmt.Errorf("%w: scan.include must list at least one pattern", ErrInvalidConfig)
	}

	for _, pattern := range append(append([]string{}, cfg.Scan.Include...), cfg.Scan.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad glob pattern %q", ErrInvalidConfig, pattern)
		}
	}

	if cfg.Scan.Workers <= 0 {
		return fmt.Errorf("%w: scan.workers must be positive, got %d",
			ErrInvalidConfig, cfg.Scan.Workers)
	}

	if !IsValidFormat(cfg.Output.Format) {
		return fmt.Errorf("%w: output.format must be one of %v, got %q",
			ErrInvalidConfig, ValidFormats, cfg.Output.Format)
	}

	if cfg.Store.Path == "" {
		return fmt.Errorf("%w: store.path must not be empty", ErrInvalidConfig)
	}

	return nil
}

// SaveDefault writes the default configuration to .tsig/config.yaml in workDir.
// Creates the .tsig directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# tsig configuration\n# Globs use doublestar syntax and match slash-separated paths relative to the scan root.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
