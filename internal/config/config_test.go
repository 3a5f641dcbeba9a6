package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Scan.Include) != 4 {
		t.Errorf("expected 4 include patterns, got %v", cfg.Scan.Include)
	}

	if len(cfg.Scan.Exclude) != 5 {
		t.Errorf("expected 5 exclude patterns, got %d", len(cfg.Scan.Exclude))
	}

	if cfg.Scan.Workers < 1 || cfg.Scan.Workers > 8 {
		t.Errorf("expected workers in [1,8], got %d", cfg.Scan.Workers)
	}

	if !cfg.Scan.KeepPlaceholders() {
		t.Error("expected placeholders to be kept by default")
	}

	if !cfg.Scan.DetectExcludes() {
		t.Error("expected auto exclude to be on by default")
	}

	if cfg.Output.Format != "yaml" {
		t.Errorf("expected format yaml, got %s", cfg.Output.Format)
	}

	if cfg.Store.Path != DefaultStoreFile {
		t.Errorf("expected store path %s, got %s", DefaultStoreFile, cfg.Store.Path)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"yaml", true},
		{"json", true},
		{"text", true},
		{"xml", false},
		{"", false},
		{"YAML", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := IsValidFormat(tt.format); got != tt.valid {
				t.Errorf("IsValidFormat(%q) = %v, want %v", tt.format, got, tt.valid)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid format",
			modify: func(c *Config) {
				c.Output.Format = "xml"
			},
			wantErr: true,
		},
		{
			name: "no include patterns",
			modify: func(c *Config) {
				c.Scan.Include = nil
			},
			wantErr: true,
		},
		{
			name: "bad include glob",
			modify: func(c *Config) {
				c.Scan.Include = []string{"src/[*.ts"}
			},
			wantErr: true,
		},
		{
			name: "bad exclude glob",
			modify: func(c *Config) {
				c.Scan.Exclude = []string{"{a,b"}
			},
			wantErr: true,
		},
		{
			name: "zero workers",
			modify: func(c *Config) {
				c.Scan.Workers = 0
			},
			wantErr: true,
		},
		{
			name: "negative workers",
			modify: func(c *Config) {
				c.Scan.Workers = -2
			},
			wantErr: true,
		},
		{
			name: "empty store path",
			modify: func(c *Config) {
				c.Store.Path = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	defaults := DefaultConfig()

	t.Run("empty loaded uses all defaults", func(t *testing.T) {
		merged := Merge(&Config{}, defaults)

		if merged.Output.Format != defaults.Output.Format {
			t.Errorf("expected format %s, got %s", defaults.Output.Format, merged.Output.Format)
		}
		if merged.Scan.Workers != defaults.Scan.Workers {
			t.Errorf("expected workers %d, got %d", defaults.Scan.Workers, merged.Scan.Workers)
		}
		if !merged.Scan.KeepPlaceholders() {
			t.Error("expected default placeholder setting")
		}
	})

	t.Run("loaded values take precedence", func(t *testing.T) {
		off := false
		loaded := &Config{
			Scan: ScanConfig{
				Include:             []string{"src/**/*.ts"},
				Workers:             3,
				IncludePlaceholders: &off,
			},
			Output: OutputConfig{Format: "json"},
		}
		merged := Merge(loaded, defaults)

		if len(merged.Scan.Include) != 1 || merged.Scan.Include[0] != "src/**/*.ts" {
			t.Errorf("expected loaded include, got %v", merged.Scan.Include)
		}
		if merged.Scan.Workers != 3 {
			t.Errorf("expected workers 3, got %d", merged.Scan.Workers)
		}
		if merged.Scan.KeepPlaceholders() {
			t.Error("explicit false should survive the merge")
		}
		if merged.Output.Format != "json" {
			t.Errorf("expected format json, got %s", merged.Output.Format)
		}

		// Unset values should use defaults
		if len(merged.Scan.Exclude) != len(defaults.Scan.Exclude) {
			t.Errorf("expected default excludes, got %v", merged.Scan.Exclude)
		}
		if merged.Store.Path != defaults.Store.Path {
			t.Errorf("expected default store path, got %s", merged.Store.Path)
		}
	})
}

func TestFindConfigDir(t *testing.T) {
	tmpDir := t.TempDir()

	projectDir := filepath.Join(tmpDir, "project")
	subDir := filepath.Join(projectDir, "subdir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("no config dir returns error", func(t *testing.T) {
		_, err := FindConfigDir(subDir)
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	configDir := filepath.Join(projectDir, ConfigDirName)
	if err := os.Mkdir(configDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("finds config dir in current directory", func(t *testing.T) {
		found, err := FindConfigDir(projectDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})

	t.Run("finds config dir in parent directory", func(t *testing.T) {
		found, err := FindConfigDir(subDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates config directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expectedDir := filepath.Join(tmpDir, ConfigDirName)
		if dir != expectedDir {
			t.Errorf("expected %s, got %s", expectedDir, dir)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("config directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("returns existing directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if dir != filepath.Join(tmpDir, ConfigDirName) {
			t.Errorf("unexpected dir %s", dir)
		}
	})

	t.Run("rejects a file in the way", func(t *testing.T) {
		other := t.TempDir()
		if err := os.WriteFile(filepath.Join(other, ConfigDirName), nil, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := EnsureConfigDir(other); err == nil {
			t.Error("expected error when .tsig is a file")
		}
	})
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("loads valid config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		content := `
scan:
  include: ["src/**/*.ts", "src/**/*.tsx"]
  workers: 2
  include_placeholders: false
  auto_exclude: false
output:
  format: text
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Scan.Include) != 2 {
			t.Errorf("expected 2 include patterns, got %d", len(cfg.Scan.Include))
		}
		if cfg.Scan.Workers != 2 {
			t.Errorf("expected workers 2, got %d", cfg.Scan.Workers)
		}
		if cfg.Scan.KeepPlaceholders() {
			t.Error("expected placeholders disabled")
		}
		if cfg.Scan.DetectExcludes() {
			t.Error("expected auto exclude disabled")
		}
		if cfg.Output.Format != "text" {
			t.Errorf("expected format text, got %s", cfg.Output.Format)
		}

		// Check defaults were applied for missing values
		if cfg.Store.Path != DefaultStoreFile {
			t.Errorf("expected default store path, got %s", cfg.Store.Path)
		}
		if len(cfg.Scan.Exclude) == 0 {
			t.Error("expected default exclude patterns")
		}
	})

	t.Run("returns defaults for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromPath(filepath.Join(tmpDir, "nonexistent.yaml"))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if cfg.Output.Format != DefaultConfig().Output.Format {
			t.Errorf("expected default format, got %s", cfg.Output.Format)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte("invalid: yaml: content"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadFromPath(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("returns error for invalid config values", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "bad-values.yaml")
		content := `
output:
  format: xml
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("returns defaults when no config dir exists", func(t *testing.T) {
		cfg, err := Load(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if cfg.Output.Format != DefaultConfig().Output.Format {
			t.Errorf("expected default config")
		}
	})

	t.Run("loads config from .tsig directory", func(t *testing.T) {
		configDir := filepath.Join(tmpDir, ConfigDirName)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			t.Fatal(err)
		}

		content := `
output:
  format: json
`
		configPath := filepath.Join(configDir, ConfigFileName)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if cfg.Output.Format != "json" {
			t.Errorf("expected format json, got %s", cfg.Output.Format)
		}
	})
}

func TestStorePath(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()

	path, err := cfg.StorePath(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(tmpDir, ConfigDirName, DefaultStoreFile)
	if path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	abs := filepath.Join(tmpDir, "elsewhere.db")
	cfg.Store.Path = abs
	if path, _ := cfg.StorePath(tmpDir); path != abs {
		t.Errorf("absolute store path should be used as is, got %s", path)
	}
}

func TestSaveDefault(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates default config file", func(t *testing.T) {
		configPath, err := SaveDefault(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expectedPath := filepath.Join(tmpDir, ConfigDirName, ConfigFileName)
		if configPath != expectedPath {
			t.Errorf("expected path %s, got %s", expectedPath, configPath)
		}

		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		defaults := DefaultConfig()
		if cfg.Output.Format != defaults.Output.Format || len(cfg.Scan.Include) != len(defaults.Scan.Include) {
			t.Errorf("saved config doesn't match defaults")
		}
	})

	t.Run("fails if config already exists", func(t *testing.T) {
		if _, err := SaveDefault(tmpDir); err == nil {
			t.Error("expected error when config already exists")
		}
	})
}
