package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hargabyte/tsig/internal/config"
	"github.com/hargabyte/tsig/internal/output"
	"github.com/hargabyte/tsig/internal/store"
)

// loadConfig reads the project config for workDir, honoring --config.
func loadConfig(workDir string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load(workDir)
}

// resolveFormat picks the output format: --format wins over output.format.
func resolveFormat(cfg *config.Config) (output.Format, error) {
	if outputFormat != "" {
		return output.ParseFormat(outputFormat)
	}
	if cfg != nil && cfg.Output.Format != "" {
		return output.ParseFormat(cfg.Output.Format)
	}
	return output.DefaultFormat, nil
}

func resolveDensity() (output.Density, error) {
	if outputDensity == "" {
		return output.DefaultDensity, nil
	}
	return output.ParseDensity(outputDensity)
}

// openStore opens the existing signature database for workDir. Unlike
// scan, it never creates one.
func openStore(workDir string) (*store.Store, error) {
	cfg, err := loadConfig(workDir)
	if err != nil {
		return nil, err
	}

	dbPath, err := existingStorePath(cfg, workDir)
	if err != nil {
		return nil, err
	}

	storeDB, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return storeDB, nil
}

// projectRoot returns the directory stored paths are relative to: the parent
// of the .tsig directory governing dir, or dir itself (its parent for a file)
// before init.
func projectRoot(dir string) (string, error) {
	if configPath != "" {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return "", err
		}
		configDir := filepath.Dir(abs)
		if filepath.Base(configDir) == config.ConfigDirName {
			return filepath.Dir(configDir), nil
		}
		return configDir, nil
	}

	configDir, err := config.FindConfigDir(dir)
	if err == nil {
		return filepath.Dir(configDir), nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return filepath.Dir(abs), nil
	}
	return abs, nil
}

// relToRoot converts path to a slash-separated path relative to root. The
// root itself maps to "".
func relToRoot(root, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside the project at %s", path, root)
	}
	if rel == "." {
		return "", nil
	}
	return rel, nil
}

// existingStorePath resolves the database path and checks that it exists.
func existingStorePath(cfg *config.Config, workDir string) (string, error) {
	if _, err := config.FindConfigDir(workDir); err != nil && configPath == "" {
		return "", fmt.Errorf("tsig not initialized: run 'tsig init && tsig scan' first")
	}

	dbPath, err := cfg.StorePath(workDir)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("no signature database at %s: run 'tsig scan' first", dbPath)
	}
	return dbPath, nil
}

// writeDocument renders v to w in the resolved format.
func writeDocument(w io.Writer, cfg *config.Config, v interface{}) error {
	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	f, err := output.GetFormatter(format)
	if err != nil {
		return err
	}
	return f.FormatToWriter(w, v)
}

// writeExports renders files at the resolved format and density.
func writeExports(w io.Writer, cfg *config.Config, files []output.FileExports) error {
	density, err := resolveDensity()
	if err != nil {
		return err
	}
	return writeDocument(w, cfg, output.NewExportsOutput(files, density))
}
