package mcp

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/hargabyte/tsig/internal/extract"
	"github.com/hargabyte/tsig/internal/store"
)

func TestGetToolSchemas(t *testing.T) {
	for _, name := range AllTools {
		schema, ok := toolSchemaRegistry[name]
		if !ok {
			t.Errorf("toolSchemaRegistry missing tool: %s", name)
			continue
		}
		if schema.Name != name {
			t.Errorf("schema name mismatch: got %q, want %q", schema.Name, name)
		}
		if schema.Description == "" {
			t.Errorf("tool %s has empty description", name)
		}
	}

	if len(toolSchemaRegistry) != len(AllTools) {
		t.Errorf("toolSchemaRegistry has %d tools, want %d", len(toolSchemaRegistry), len(AllTools))
	}
}

func TestToolSchemaParameters(t *testing.T) {
	tests := []struct {
		tool          string
		requiredParam string
	}{
		{"ts_exports", "source"},
		{"ts_find", "pattern"},
		{"ts_file", "path"},
	}

	for _, tt := range tests {
		schema := toolSchemaRegistry[tt.tool]
		found := false
		for _, p := range schema.Parameters {
			if p.Name == tt.requiredParam {
				found = true
				if !p.Required {
					t.Errorf("%s.%s should be required", tt.tool, tt.requiredParam)
				}
			}
		}
		if !found {
			t.Errorf("%s missing parameter %s", tt.tool, tt.requiredParam)
		}
	}
}

func TestToolSchemaNoRequiredParams(t *testing.T) {
	for _, p := range toolSchemaRegistry["ts_stats"].Parameters {
		if p.Required {
			t.Errorf("ts_stats.%s should not be required", p.Name)
		}
	}
}

func TestAllToolsMatchesRegistry(t *testing.T) {
	registryNames := make([]string, 0, len(toolSchemaRegistry))
	for name := range toolSchemaRegistry {
		registryNames = append(registryNames, name)
	}
	sort.Strings(registryNames)

	allSorted := make([]string, len(AllTools))
	copy(allSorted, AllTools)
	sort.Strings(allSorted)

	if strings.Join(registryNames, ",") != strings.Join(allSorted, ",") {
		t.Errorf("AllTools %v does not match registry %v", allSorted, registryNames)
	}
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signatures.db")
	st, err := store.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	err = st.ReplaceFile("src/math.ts", "h1", []extract.ExportedFunction{
		{Name: "add", Parameters: []extract.Parameter{{Name: "a", Type: "number"}}, ReturnType: "number", LineNumber: 1},
		{Name: "addAll", Parameters: []extract.Parameter{{Name: "xs", Type: "number[]", IsRestParameter: true}}, LineNumber: 5},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.ReplaceFile("src/empty.ts", "h2", nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return path
}

func TestNew_UnknownTool(t *testing.T) {
	if _, err := New(Config{Tools: []string{"ts_exports", "cx_find"}}); err == nil {
		t.Error("expected error for unknown tool")
	}
}

func TestListTools(t *testing.T) {
	s := newTestServer(t, Config{Tools: []string{"ts_find", "ts_exports"}})

	got := strings.Join(s.ListTools(), ",")
	if got != "ts_exports,ts_find" {
		t.Errorf("ListTools = %s", got)
	}
	if len(s.GetToolSchemas()) != 2 {
		t.Errorf("expected 2 schemas, got %d", len(s.GetToolSchemas()))
	}
}

func TestCallTool_Unregistered(t *testing.T) {
	s := newTestServer(t, Config{Tools: []string{"ts_exports"}})

	_, err := s.CallTool("ts_find", map[string]interface{}{"pattern": "x"})
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("expected unknown tool error, got %v", err)
	}
}

func TestCallTool_Exports(t *testing.T) {
	s := newTestServer(t, Config{})

	out, err := s.CallTool("ts_exports", map[string]interface{}{
		"source": "export function greet(name: string = \"x\"): string { return name; }\nfunction hidden() {}\n",
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !strings.Contains(out, "name: greet") {
		t.Errorf("expected greet in output:\n%s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("non-exported function leaked into output:\n%s", out)
	}
	if !strings.Contains(out, "return_type: string") {
		t.Errorf("medium density should include return type:\n%s", out)
	}
}

func TestCallTool_ExportsArguments(t *testing.T) {
	s := newTestServer(t, Config{})

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing source", map[string]interface{}{}},
		{"bad density", map[string]interface{}{"source": "", "density": "smart"}},
		{"bad language", map[string]interface{}{"source": "", "language": "ruby"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CallTool("ts_exports", tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCallTool_ExportsSparse(t *testing.T) {
	s := newTestServer(t, Config{})

	out, err := s.CallTool("ts_exports", map[string]interface{}{
		"source":   "export function f(a: number) {}",
		"language": "tsx",
		"density":  "sparse",
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if strings.Contains(out, "parameters:") {
		t.Errorf("sparse output should omit parameters:\n%s", out)
	}
}

func TestCallTool_StoreToolsWithoutStore(t *testing.T) {
	s := newTestServer(t, Config{StorePath: filepath.Join(t.TempDir(), "missing.db")})

	for _, tc := range []struct {
		tool string
		args map[string]interface{}
	}{
		{"ts_find", map[string]interface{}{"pattern": "add"}},
		{"ts_file", map[string]interface{}{"path": "src/math.ts"}},
		{"ts_stats", map[string]interface{}{}},
	} {
		if _, err := s.CallTool(tc.tool, tc.args); !errors.Is(err, ErrNoStore) {
			t.Errorf("%s: expected ErrNoStore, got %v", tc.tool, err)
		}
	}
}

func TestCallTool_Find(t *testing.T) {
	s := newTestServer(t, Config{StorePath: seedStore(t)})

	out, err := s.CallTool("ts_find", map[string]interface{}{"pattern": "add*"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !strings.Contains(out, "name: add\n") || !strings.Contains(out, "name: addAll") {
		t.Errorf("expected both matches:\n%s", out)
	}

	out, err = s.CallTool("ts_find", map[string]interface{}{"pattern": "add*", "limit": float64(1)})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if strings.Contains(out, "addAll") {
		t.Errorf("limit not applied:\n%s", out)
	}

	if _, err := s.CallTool("ts_find", map[string]interface{}{}); err == nil {
		t.Error("expected error for missing pattern")
	}
}

func TestCallTool_File(t *testing.T) {
	s := newTestServer(t, Config{StorePath: seedStore(t)})

	out, err := s.CallTool("ts_file", map[string]interface{}{"path": "src/empty.ts"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !strings.Contains(out, "path: src/empty.ts") || !strings.Contains(out, "exports: []") {
		t.Errorf("expected empty file entry:\n%s", out)
	}

	if _, err := s.CallTool("ts_file", map[string]interface{}{"path": "src/nope.ts"}); err == nil {
		t.Error("expected error for unscanned file")
	}
}

func TestCallTool_Stats(t *testing.T) {
	s := newTestServer(t, Config{StorePath: seedStore(t)})

	out, err := s.CallTool("ts_stats", nil)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !strings.Contains(out, "files: 2") || !strings.Contains(out, "exports: 2") {
		t.Errorf("unexpected stats:\n%s", out)
	}
}

func TestGroupRecords(t *testing.T) {
	records := []store.Record{
		{Path: "a.ts", ExportedFunction: extract.ExportedFunction{Name: "x"}},
		{Path: "a.ts", ExportedFunction: extract.ExportedFunction{Name: "y"}},
		{Path: "b.ts", ExportedFunction: extract.ExportedFunction{Name: "z"}},
	}

	files := GroupRecords(records)
	if len(files) != 2 || len(files[0].Exports) != 2 || files[1].Path != "b.ts" {
		t.Errorf("unexpected grouping: %+v", files)
	}
	if GroupRecords(nil) != nil {
		t.Error("expected nil for no records")
	}
}
