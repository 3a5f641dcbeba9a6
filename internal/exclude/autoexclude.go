// Package exclude detects dependency and build output directories in
// TypeScript projects so a scan can skip them.
package exclude

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// AutoExcludeResult contains the directories to exclude and why.
type AutoExcludeResult struct {
	// Directories to exclude, slash-separated and relative to the project root
	Directories []string
	// Reasons maps each directory to why it was excluded
	Reasons map[string]string
}

// Patterns returns one doublestar pattern per directory, matching everything
// beneath it.
func (r *AutoExcludeResult) Patterns() []string {
	patterns := make([]string, 0, len(r.Directories))
	for _, dir := range r.Directories {
		patterns = append(patterns, dir+"/**")
	}
	return patterns
}

// DetectAutoExcludes walks projectRoot looking for marker files:
//   - package.json with a sibling node_modules/
//   - tsconfig.json whose compilerOptions.outDir exists
//
// Nested packages in a monorepo are detected too.
func DetectAutoExcludes(projectRoot string) *AutoExcludeResult {
	result := &AutoExcludeResult{
		Directories: []string{},
		Reasons:     make(map[string]string),
	}

	_ = filepath.WalkDir(projectRoot, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip directories we can't read
		}
		if p == projectRoot {
			return nil
		}

		relPath, err := filepath.Rel(projectRoot, p)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if contains(result.Directories, relPath) {
				return filepath.SkipDir
			}
			for _, excluded := range result.Directories {
				if strings.HasPrefix(relPath, excluded+"/") {
					return filepath.SkipDir
				}
			}
			// Never descend into these even before their marker is seen
			switch d.Name() {
			case "node_modules", ".git":
				return filepath.SkipDir
			}
			return nil
		}

		relDir := path.Dir(relPath)

		switch d.Name() {
		case "package.json":
			nodeModules := joinRel(relDir, "node_modules")
			if dirExists(filepath.Join(projectRoot, filepath.FromSlash(nodeModules))) {
				result.add(nodeModules, "npm dependencies (package.json detected)")
			}

		case "tsconfig.json":
			outDir := readOutDir(p)
			if outDir == "" {
				return nil
			}
			target := path.Clean(joinRel(relDir, filepath.ToSlash(outDir)))
			if target == "." || strings.HasPrefix(target, "../") {
				return nil
			}
			if dirExists(filepath.Join(projectRoot, filepath.FromSlash(target))) {
				result.add(target, "compiler output (tsconfig.json outDir)")
			}
		}

		return nil
	})

	return result
}

func (r *AutoExcludeResult) add(dir, reason string) {
	if contains(r.Directories, dir) {
		return
	}
	r.Directories = append(r.Directories, dir)
	r.Reasons[dir] = reason
}

// readOutDir returns compilerOptions.outDir from a tsconfig.json. Comments
// and trailing commas are accepted, as tsc does.
func readOutDir(tsconfigPath string) string {
	raw, err := os.ReadFile(tsconfigPath)
	if err != nil {
		return ""
	}
	data, err := hujson.Standardize(raw)
	if err != nil {
		return ""
	}
	var cfg struct {
		CompilerOptions struct {
			OutDir string `json:"outDir"`
		} `json:"compilerOptions"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	return strings.TrimPrefix(cfg.CompilerOptions.OutDir, "./")
}

func joinRel(dir, name string) string {
	if dir == "." {
		return name
	}
	return dir + "/" + name
}

// dirExists checks if a directory exists.
func dirExists(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// contains checks if a string is in a slice.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
