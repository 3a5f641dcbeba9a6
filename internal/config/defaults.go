package config

import "runtime"

// DefaultStoreFile is the database file name inside the .tsig directory.
const DefaultStoreFile = "signatures.db"

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	keep, detect := true, true
	return &Config{
		Scan: ScanConfig{
			Include: []string{
				"**/*.ts",
				"**/*.tsx",
				"**/*.mts",
				"**/*.cts",
			},
			Exclude: []string{
				"**/node_modules/**",
				"**/dist/**",
				"**/build/**",
				"**/*.d.ts",
				".tsig/**",
			},
			Workers:             defaultWorkers(),
			IncludePlaceholders: &keep,
			AutoExclude:         &detect,
		},
		Output: OutputConfig{
			Format: "yaml",
		},
		Store: StoreConfig{
			Path: DefaultStoreFile,
		},
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Scan = mergeScanConfig(loaded.Scan, defaults.Scan)
	result.Output = mergeOutputConfig(loaded.Output, defaults.Output)
	result.Store = mergeStoreConfig(loaded.Store, defaults.Store)

	return result
}

func mergeScanConfig(loaded, defaults ScanConfig) ScanConfig {
	result := ScanConfig{}

	if len(loaded.Include) > 0 {
		result.Include = loaded.Include
	} else {
		result.Include = defaults.Include
	}

	if len(loaded.Exclude) > 0 {
		result.Exclude = loaded.Exclude
	} else {
		result.Exclude = defaults.Exclude
	}

	if loaded.Workers != 0 {
		result.Workers = loaded.Workers
	} else {
		result.Workers = defaults.Workers
	}

	// A pointer lets an explicit false survive the merge.
	if loaded.IncludePlaceholders != nil {
		result.IncludePlaceholders = loaded.IncludePlaceholders
	} else {
		result.IncludePlaceholders = defaults.IncludePlaceholders
	}

	if loaded.AutoExclude != nil {
		result.AutoExclude = loaded.AutoExclude
	} else {
		result.AutoExclude = defaults.AutoExclude
	}

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	if loaded.Format != "" {
		return loaded
	}
	return defaults
}

func mergeStoreConfig(loaded, defaults StoreConfig) StoreConfig {
	if loaded.Path != "" {
		return loaded
	}
	return defaults
}

// ValidFormats lists the valid values for output.format
var ValidFormats = []string{"yaml", "json", "text"}

// IsValidFormat checks if the given output format is valid
func IsValidFormat(format string) bool {
	for _, valid := range ValidFormats {
		if format == valid {
			return true
		}
	}
	return false
}
