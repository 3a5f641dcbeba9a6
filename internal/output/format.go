package output

import (
	"fmt"
	"strings"
)

// Format represents the output format type.
type Format string

const (
	// FormatYAML is the default self-documenting YAML output
	FormatYAML Format = "yaml"

	// FormatJSON is the JSON output format
	FormatJSON Format = "json"

	// FormatText is a plain listing meant for terminals
	FormatText Format = "text"
)

// ParseFormat parses a format string into a Format value.
// Accepts: "yaml", "json", "text" (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid format: %q (expected yaml, json, or text)", s)
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Density represents the level of detail in output.
//   - Sparse: one signature line per export
//   - Medium: parameters, return type and line (default)
//   - Dense: everything in medium plus source text and signature hash
type Density string

const (
	// DensitySparse renders each export as a single signature line
	// Example: add(a: number, b?: number): number
	DensitySparse Density = "sparse"

	// DensityMedium renders structured parameters and return type
	DensityMedium Density = "medium"

	// DensityDense adds the export statement text and signature hash
	DensityDense Density = "dense"
)

// ParseDensity parses a density string into a Density value.
// Accepts: "sparse", "medium", "dense" (case-insensitive)
func ParseDensity(s string) (Density, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sparse":
		return DensitySparse, nil
	case "medium":
		return DensityMedium, nil
	case "dense":
		return DensityDense, nil
	default:
		return "", fmt.Errorf("invalid density: %q (expected sparse, medium, or dense)", s)
	}
}

// String returns the string representation of the density.
func (d Density) String() string {
	return string(d)
}

// IncludesParameters returns true if this density level lists parameters.
func (d Density) IncludesParameters() bool {
	return d == DensityMedium || d == DensityDense
}

// IncludesSource returns true if this density level includes source text.
func (d Density) IncludesSource() bool {
	return d == DensityDense
}

// IncludesHashes returns true if this density level includes signature hashes.
func (d Density) IncludesHashes() bool {
	return d == DensityDense
}

// DefaultFormat is the default output format when none is specified.
const DefaultFormat = FormatYAML

// DefaultDensity is the default density level when none is specified.
const DefaultDensity = DensityMedium
