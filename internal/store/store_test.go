package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hargabyte/tsig/internal/extract"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), ".tsig", "signatures.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleExports() []extract.ExportedFunction {
	return []extract.ExportedFunction{
		{
			Name: "add",
			Parameters: []extract.Parameter{
				{Name: "a", Type: "number"},
				{Name: "b", Type: "number", DefaultValue: "0"},
			},
			ReturnType: "number",
			LineNumber: 1,
			SourceText: "export function add(a: number, b: number = 0): number { return a + b; }",
		},
		{
			Name:       "log",
			Parameters: []extract.Parameter{{Name: "args", Type: "unknown[]", IsRestParameter: true}},
			ReturnType: "void",
			LineNumber: 5,
			SourceText: "export function log(...args: unknown[]): void {}",
		},
		{
			Name:       "helper",
			Parameters: []extract.Parameter{{Name: extract.PlaceholderParamName, Type: extract.PlaceholderType}},
			ReturnType: extract.PlaceholderType,
			LineNumber: 9,
			SourceText: "export { helper };",
		},
	}
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".tsig")
	dbPath := filepath.Join(dir, "signatures.db")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("store directory not created: %v", err)
	}
	if s.Path() != dbPath {
		t.Errorf("path = %q, want %q", s.Path(), dbPath)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestReplaceFileAndExports(t *testing.T) {
	s := testStore(t)
	fns := sampleExports()

	if err := s.ReplaceFile("src/math.ts", "hash1", fns); err != nil {
		t.Fatalf("replace file: %v", err)
	}

	records, err := s.Exports("src/math.ts")
	if err != nil {
		t.Fatalf("exports: %v", err)
	}
	if len(records) != len(fns) {
		t.Fatalf("expected %d records, got %d", len(fns), len(records))
	}

	for i, r := range records {
		if r.Path != "src/math.ts" {
			t.Errorf("record %d: path = %q", i, r.Path)
		}
		if !reflect.DeepEqual(r.ExportedFunction, fns[i]) {
			t.Errorf("record %d round trip mismatch:\n got %+v\nwant %+v", i, r.ExportedFunction, fns[i])
		}
		if r.SigHash != extract.SignatureHash(fns[i]) {
			t.Errorf("record %d: unexpected sig hash %q", i, r.SigHash)
		}
	}

	hash, err := s.FileHash("src/math.ts")
	if err != nil || hash != "hash1" {
		t.Errorf("file hash = %q, %v", hash, err)
	}
}

func TestReplaceFileReplacesPreviousRows(t *testing.T) {
	s := testStore(t)

	if err := s.ReplaceFile("a.ts", "h1", sampleExports()); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceFile("a.ts", "h2", sampleExports()[:1]); err != nil {
		t.Fatal(err)
	}

	records, err := s.Exports("a.ts")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Name != "add" {
		t.Errorf("expected only add, got %+v", records)
	}

	if hash, _ := s.FileHash("a.ts"); hash != "h2" {
		t.Errorf("expected hash h2, got %q", hash)
	}
}

func TestReplaceFileWithNoExports(t *testing.T) {
	s := testStore(t)

	if err := s.ReplaceFile("empty.ts", "h", nil); err != nil {
		t.Fatal(err)
	}

	records, err := s.Exports("empty.ts")
	if err != nil {
		t.Fatal(err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", records)
	}

	changed, err := s.IsFileChanged("empty.ts", "h")
	if err != nil || changed {
		t.Errorf("expected unchanged file, got %v, %v", changed, err)
	}
}

func TestFileHashNotFound(t *testing.T) {
	s := testStore(t)

	if _, err := s.FileHash("missing.ts"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	changed, err := s.IsFileChanged("missing.ts", "anything")
	if err != nil || !changed {
		t.Errorf("never-scanned file should count as changed, got %v, %v", changed, err)
	}
}

func TestFindByName(t *testing.T) {
	s := testStore(t)

	if err := s.ReplaceFile("b.ts", "h", sampleExports()); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceFile("a.ts", "h", sampleExports()[:1]); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"add", []string{"a.ts:add", "b.ts:add"}},
		{"ADD", []string{"a.ts:add", "b.ts:add"}},
		{"*e*", []string{"b.ts:helper"}},
		{"l?g", []string{"b.ts:log"}},
		{"*", []string{"a.ts:add", "b.ts:add", "b.ts:log", "b.ts:helper"}},
		{"a%", nil},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			records, err := s.FindByName(tt.pattern)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			var got []string
			for _, r := range records {
				got = append(got, r.Path+":"+r.Name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindByName(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestFindBySigHash(t *testing.T) {
	s := testStore(t)

	if err := s.ReplaceFile("a.ts", "h", sampleExports()[:1]); err != nil {
		t.Fatal(err)
	}
	moved := sampleExports()[:1]
	moved[0].LineNumber = 30
	if err := s.ReplaceFile("b.ts", "h", moved); err != nil {
		t.Fatal(err)
	}

	records, err := s.FindBySigHash(extract.SignatureHash(moved[0]))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("expected both copies of add, got %+v", records)
	}
}

func TestFilesAndPruneMissing(t *testing.T) {
	s := testStore(t)

	for _, p := range []string{"c.ts", "a.ts", "b.ts"} {
		if err := s.ReplaceFile(p, "h-"+p, sampleExports()[:1]); err != nil {
			t.Fatal(err)
		}
	}

	files, err := s.Files()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 || files[0].Path != "a.ts" || files[2].Path != "c.ts" {
		t.Errorf("expected files sorted by path, got %+v", files)
	}
	if files[0].ScannedAt.IsZero() {
		t.Error("expected scan time to be recorded")
	}

	pruned, err := s.PruneMissing("", map[string]bool{"a.ts": true})
	if err != nil {
		t.Fatal(err)
	}
	if pruned != 2 {
		t.Errorf("expected 2 pruned, got %d", pruned)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 1 || stats.Exports != 1 {
		t.Errorf("expected 1 file and 1 export after prune, got %+v", stats)
	}
}

func TestStatsAndClear(t *testing.T) {
	s := testStore(t)

	if err := s.ReplaceFile("a.ts", "h", sampleExports()); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Files: 1, Exports: 3, Placeholders: 1}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	stats, _ = s.Stats()
	if stats.Files != 0 || stats.Exports != 0 {
		t.Errorf("expected empty store after clear, got %+v", stats)
	}
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"add":    "add",
		"get*":   "get%",
		"?et":    "_et",
		"50%":    `50\%`,
		"snake_": `snake\_`,
	}
	for in, want := range tests {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPruneMissing_LimitedToDir(t *testing.T) {
	s := testStore(t)

	for _, p := range []string{"lib/a.ts", "lib/deep/b.ts", "libx/c.ts", "src/d.ts"} {
		if err := s.ReplaceFile(p, "h", sampleExports()[:1]); err != nil {
			t.Fatal(err)
		}
	}

	pruned, err := s.PruneMissing("lib", map[string]bool{"lib/a.ts": true})
	if err != nil {
		t.Fatal(err)
	}
	if pruned != 1 {
		t.Errorf("expected only lib/deep/b.ts pruned, got %d", pruned)
	}

	files, err := s.Files()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, f := range files {
		got = append(got, f.Path)
	}
	if want := []string{"lib/a.ts", "libx/c.ts", "src/d.ts"}; !reflect.DeepEqual(got, want) {
		t.Errorf("remaining files = %v, want %v", got, want)
	}

	if n, err := s.PruneMissing("src/d.ts", nil); err != nil || n != 1 {
		t.Errorf("pruning a single file path: %d, %v", n, err)
	}
}
