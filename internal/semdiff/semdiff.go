// Package semdiff compares the exported functions recorded by the last scan
// with the working tree.
//
// Unlike line-level diffs, semantic diff understands what changed about an
// export: it separates signature changes from body-only edits and marks the
// changes that break existing callers.
package semdiff

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hargabyte/tsig/internal/extract"
	"github.com/hargabyte/tsig/internal/scan"
	"github.com/hargabyte/tsig/internal/store"
)

// ChangeType classifies the kind of semantic change.
type ChangeType string

const (
	// ChangeAdded indicates a new export was added.
	ChangeAdded ChangeType = "added"
	// ChangeRemoved indicates an export was removed.
	ChangeRemoved ChangeType = "removed"
	// ChangeSignature indicates the signature changed.
	ChangeSignature ChangeType = "signature_change"
	// ChangeBody indicates only the export text changed.
	ChangeBody ChangeType = "body_change"
)

// SemanticChange represents a single change to an exported function.
type SemanticChange struct {
	Name string `yaml:"name" json:"name"`
	// Location is path:line, taken from the current file when it exists.
	Location   string     `yaml:"location" json:"location"`
	ChangeType ChangeType `yaml:"change_type" json:"change_type"`
	// Breaking is set when existing call sites may stop compiling.
	Breaking     bool   `yaml:"breaking" json:"breaking"`
	OldSignature string `yaml:"old_signature,omitempty" json:"old_signature,omitempty"`
	NewSignature string `yaml:"new_signature,omitempty" json:"new_signature,omitempty"`

	path string
	line int
}

// SemanticDiff represents the complete semantic diff result.
type SemanticDiff struct {
	Summary SemanticSummary  `yaml:"summary" json:"summary"`
	Changes []SemanticChange `yaml:"changes" json:"changes"`
}

// SemanticSummary contains aggregate statistics about the diff.
type SemanticSummary struct {
	TotalChanges     int `yaml:"total_changes" json:"total_changes"`
	BreakingChanges  int `yaml:"breaking_changes" json:"breaking_changes"`
	Added            int `yaml:"added" json:"added"`
	Removed          int `yaml:"removed" json:"removed"`
	SignatureChanges int `yaml:"signature_changes" json:"signature_changes"`
	BodyChanges      int `yaml:"body_changes" json:"body_changes"`
}

// Baseline is the recorded state a diff compares against.
type Baseline interface {
	Files() ([]store.FileEntry, error)
	Exports(path string) ([]store.Record, error)
}

// Analyzer performs semantic diff analysis.
type Analyzer struct {
	baseline Baseline
	scanner  *scan.Scanner
}

// NewAnalyzer creates a semantic diff analyzer. The scanner should use
// baseline as its hash source so that unchanged files are not parsed.
func NewAnalyzer(baseline Baseline, scanner *scan.Scanner) *Analyzer {
	return &Analyzer{baseline: baseline, scanner: scanner}
}

// Analyze scans root and compares it with the baseline. A non-empty
// filterPath, slash-separated and relative to root, limits both the scan and
// the report to that file or directory.
func (a *Analyzer) Analyze(ctx context.Context, root, filterPath string) (*SemanticDiff, error) {
	entries, err := a.baseline.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to get file entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no scan data found: run 'tsig scan' first")
	}

	filterPath = strings.TrimSuffix(filepath.ToSlash(filterPath), "/")
	if filterPath == "." {
		filterPath = ""
	}

	result, err := a.scanner.ScanDir(ctx, root, filterPath)
	if err != nil {
		return nil, err
	}

	keep := func(path string) bool {
		return filterPath == "" || matchesPath(path, filterPath)
	}

	var changes []SemanticChange

	for _, f := range result.Changed() {
		if !keep(f.Path) {
			continue
		}
		stored, err := a.storedExports(f.Path)
		if err != nil {
			return nil, err
		}
		changes = append(changes, CompareFile(f.Path, stored, f.Exports)...)
	}

	// Files the scan no longer selects count as deleted.
	present := result.Paths()
	for _, e := range entries {
		if present[e.Path] || !keep(e.Path) {
			continue
		}
		stored, err := a.storedExports(e.Path)
		if err != nil {
			return nil, err
		}
		changes = append(changes, CompareFile(e.Path, stored, nil)...)
	}

	sortChanges(changes)
	return &SemanticDiff{Summary: buildSummary(changes), Changes: changes}, nil
}

func (a *Analyzer) storedExports(path string) ([]extract.ExportedFunction, error) {
	records, err := a.baseline.Exports(path)
	if err != nil {
		return nil, fmt.Errorf("load exports %s: %w", path, err)
	}
	fns := make([]extract.ExportedFunction, len(records))
	for i, r := range records {
		fns[i] = r.ExportedFunction
	}
	return fns, nil
}

// CompareFile diffs the stored and current exports of one file. Exports are
// paired by name, in source order when a name repeats.
func CompareFile(path string, stored, current []extract.ExportedFunction) []SemanticChange {
	pending := make(map[string][]extract.ExportedFunction)
	for _, fn := range stored {
		pending[fn.Name] = append(pending[fn.Name], fn)
	}

	var changes []SemanticChange
	for _, cur := range current {
		olds := pending[cur.Name]
		if len(olds) == 0 {
			changes = append(changes, newChange(path, cur, ChangeAdded, false))
			continue
		}
		old := olds[0]
		pending[cur.Name] = olds[1:]

		if change := compareExports(path, old, cur); change != nil {
			changes = append(changes, *change)
		}
	}

	for _, fn := range stored {
		if olds := pending[fn.Name]; len(olds) > 0 {
			pending[fn.Name] = olds[1:]
			changes = append(changes, newChange(path, olds[0], ChangeRemoved, true))
		}
	}

	return changes
}

func newChange(path string, fn extract.ExportedFunction, ct ChangeType, breaking bool) SemanticChange {
	c := SemanticChange{
		Name:       fn.Name,
		Location:   fmt.Sprintf("%s:%d", path, fn.LineNumber),
		ChangeType: ct,
		Breaking:   breaking,
		path:       path,
		line:       fn.LineNumber,
	}
	switch ct {
	case ChangeAdded:
		c.NewSignature = fn.Signature()
	case ChangeRemoved:
		c.OldSignature = fn.Signature()
	}
	return c
}

// compareExports returns a change if old and cur differ, nil otherwise.
func compareExports(path string, old, cur extract.ExportedFunction) *SemanticChange {
	if extract.SignatureHash(old) != extract.SignatureHash(cur) {
		c := newChange(path, cur, ChangeSignature, !compatibleExtension(old, cur))
		c.OldSignature = old.Signature()
		c.NewSignature = cur.Signature()
		return &c
	}

	if normalize(old.SourceText) != normalize(cur.SourceText) {
		c := newChange(path, cur, ChangeBody, false)
		return &c
	}

	return nil
}

// compatibleExtension reports whether every call valid against old is still
// valid against cur. Existing parameters must keep their types and stay
// omittable where they were; appended parameters must be omittable.
// Placeholder signatures are never compatible.
func compatibleExtension(old, cur extract.ExportedFunction) bool {
	if old.IsPlaceholder() || cur.IsPlaceholder() {
		return false
	}
	if normalize(old.ReturnType) != normalize(cur.ReturnType) || len(cur.Parameters) < len(old.Parameters) {
		return false
	}

	for i, op := range old.Parameters {
		np := cur.Parameters[i]
		if normalize(op.Type) != normalize(np.Type) || op.IsRestParameter != np.IsRestParameter {
			return false
		}
		if omittable(op) && !omittable(np) {
			return false
		}
	}

	for _, np := range cur.Parameters[len(old.Parameters):] {
		if !omittable(np) {
			return false
		}
	}
	return true
}

func omittable(p extract.Parameter) bool {
	return p.IsOptional || p.IsRestParameter || p.DefaultValue != ""
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sortChanges(changes []SemanticChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].path != changes[j].path {
			return changes[i].path < changes[j].path
		}
		return changes[i].line < changes[j].line
	})
}

// buildSummary builds aggregate statistics from changes.
func buildSummary(changes []SemanticChange) SemanticSummary {
	summary := SemanticSummary{
		TotalChanges: len(changes),
	}

	for _, c := range changes {
		if c.Breaking {
			summary.BreakingChanges++
		}

		switch c.ChangeType {
		case ChangeAdded:
			summary.Added++
		case ChangeRemoved:
			summary.Removed++
		case ChangeSignature:
			summary.SignatureChanges++
		case ChangeBody:
			summary.BodyChanges++
		}
	}

	return summary
}

// matchesPath checks if filePath matches or is under filterPath.
func matchesPath(filePath, filterPath string) bool {
	if filePath == filterPath {
		return true
	}
	return strings.HasPrefix(filePath, filterPath+"/")
}
