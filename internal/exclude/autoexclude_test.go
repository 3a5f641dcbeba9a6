package exclude

import (
	"os"
	"path/filepath"
	"testing"
)

func mkdir(t *testing.T, parts ...string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(parts...), 0755); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, content string, parts ...string) {
	t.Helper()
	p := filepath.Join(parts...)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectAutoExcludes_Empty(t *testing.T) {
	tmpDir := t.TempDir()

	result := DetectAutoExcludes(tmpDir)

	if len(result.Directories) != 0 {
		t.Errorf("expected 0 directories, got %d: %v", len(result.Directories), result.Directories)
	}
	if len(result.Patterns()) != 0 {
		t.Errorf("expected no patterns, got %v", result.Patterns())
	}
}

func TestDetectAutoExcludes_Node(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, "{}", tmpDir, "package.json")
	mkdir(t, tmpDir, "node_modules")

	result := DetectAutoExcludes(tmpDir)

	if len(result.Directories) != 1 {
		t.Errorf("expected 1 directory, got %d: %v", len(result.Directories), result.Directories)
	}
	if !contains(result.Directories, "node_modules") {
		t.Errorf("expected 'node_modules' in directories, got %v", result.Directories)
	}
	if result.Reasons["node_modules"] == "" {
		t.Error("expected reason for node_modules directory")
	}
	if p := result.Patterns(); len(p) != 1 || p[0] != "node_modules/**" {
		t.Errorf("expected [node_modules/**], got %v", p)
	}
}

func TestDetectAutoExcludes_Node_NoModules(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, "{}", tmpDir, "package.json")

	result := DetectAutoExcludes(tmpDir)

	if len(result.Directories) != 0 {
		t.Errorf("expected 0 directories (no node_modules/), got %d: %v", len(result.Directories), result.Directories)
	}
}

func TestDetectAutoExcludes_TSConfigOutDir(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, `{"compilerOptions": {"outDir": "./lib"}}`, tmpDir, "tsconfig.json")
	mkdir(t, tmpDir, "lib")

	result := DetectAutoExcludes(tmpDir)

	if !contains(result.Directories, "lib") {
		t.Errorf("expected 'lib' in directories, got %v", result.Directories)
	}
}

func TestDetectAutoExcludes_TSConfigWithComments(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, `{
  // Generated by tsc --init
  "compilerOptions": {
    "target": "es2016", /* Language and Environment */
    /* Emit */
    "outDir": "./dist", // output
    "strict": true,
  },
}`, tmpDir, "tsconfig.json")
	mkdir(t, tmpDir, "dist")

	result := DetectAutoExcludes(tmpDir)

	if !contains(result.Directories, "dist") {
		t.Errorf("expected 'dist' in directories, got %v", result.Directories)
	}
}

func TestDetectAutoExcludes_TSConfigOutDirMissing(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, `{"compilerOptions": {"outDir": "out"}}`, tmpDir, "tsconfig.json")

	result := DetectAutoExcludes(tmpDir)

	if len(result.Directories) != 0 {
		t.Errorf("expected no directories when outDir does not exist, got %v", result.Directories)
	}
}

func TestDetectAutoExcludes_TSConfigIgnored(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{"compilerOptions": {"outDir": "out"`},
		{"outDir is root", `{"compilerOptions": {"outDir": "."}}`},
		{"outDir escapes root", `{"compilerOptions": {"outDir": "../out"}}`},
		{"no outDir", `{"compilerOptions": {"strict": true}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeFile(t, tt.content, tmpDir, "tsconfig.json")
			mkdir(t, tmpDir, "out")

			result := DetectAutoExcludes(tmpDir)
			if len(result.Directories) != 0 {
				t.Errorf("expected no directories, got %v", result.Directories)
			}
		})
	}
}

func TestDetectAutoExcludes_Monorepo(t *testing.T) {
	tmpDir := t.TempDir()

	writeFile(t, "{}", tmpDir, "package.json")
	mkdir(t, tmpDir, "node_modules")

	writeFile(t, "{}", tmpDir, "packages", "app", "package.json")
	mkdir(t, tmpDir, "packages", "app", "node_modules")
	writeFile(t, `{"compilerOptions": {"outDir": "dist"}}`, tmpDir, "packages", "app", "tsconfig.json")
	mkdir(t, tmpDir, "packages", "app", "dist")

	result := DetectAutoExcludes(tmpDir)

	expected := []string{"node_modules", "packages/app/node_modules", "packages/app/dist"}
	if len(result.Directories) != len(expected) {
		t.Errorf("expected %d directories, got %v", len(expected), result.Directories)
	}
	for _, exp := range expected {
		if !contains(result.Directories, exp) {
			t.Errorf("expected '%s' in directories, got %v", exp, result.Directories)
		}
	}
}

func TestDetectAutoExcludes_NoDuplicates(t *testing.T) {
	tmpDir := t.TempDir()

	// package.json and tsconfig both point at node_modules
	writeFile(t, "{}", tmpDir, "package.json")
	writeFile(t, `{"compilerOptions": {"outDir": "node_modules"}}`, tmpDir, "tsconfig.json")
	mkdir(t, tmpDir, "node_modules")

	result := DetectAutoExcludes(tmpDir)

	count := 0
	for _, dir := range result.Directories {
		if dir == "node_modules" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected node_modules exactly once, got %d times in: %v", count, result.Directories)
	}
}
