// Package output renders exported function signatures as YAML, JSON or
// plain text.
package output

import (
	"github.com/hargabyte/tsig/internal/extract"
)

// FileExports groups the exports found in one file.
type FileExports struct {
	Path    string
	Exports []extract.ExportedFunction
}

// ExportsOutput is the document written by analyze, scan and find.
type ExportsOutput struct {
	Files []FileOutput `json:"files" yaml:"files"`
}

// FileOutput lists the exports of one file in source order.
type FileOutput struct {
	Path    string         `json:"path" yaml:"path"`
	Exports []ExportOutput `json:"exports" yaml:"exports"`
}

// ExportOutput is one exported function at a given density.
type ExportOutput struct {
	Name        string              `json:"name" yaml:"name"`
	Signature   string              `json:"signature" yaml:"signature"`
	Parameters  []extract.Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnType  string              `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	Line        int                 `json:"line" yaml:"line"`
	Placeholder bool                `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	SigHash     string              `json:"sig_hash,omitempty" yaml:"sig_hash,omitempty"`
	SourceText  string              `json:"source_text,omitempty" yaml:"source_text,omitempty"`
}

// NewExportsOutput builds the output document for files at density d.
func NewExportsOutput(files []FileExports, d Density) *ExportsOutput {
	out := &ExportsOutput{Files: make([]FileOutput, 0, len(files))}
	for _, f := range files {
		fo := FileOutput{Path: f.Path, Exports: make([]ExportOutput, 0, len(f.Exports))}
		for _, fn := range f.Exports {
			fo.Exports = append(fo.Exports, newExportOutput(fn, d))
		}
		out.Files = append(out.Files, fo)
	}
	return out
}

func newExportOutput(fn extract.ExportedFunction, d Density) ExportOutput {
	eo := ExportOutput{
		Name:        fn.Name,
		Signature:   fn.Signature(),
		Line:        fn.LineNumber,
		Placeholder: fn.IsPlaceholder(),
	}
	if d.IncludesParameters() && !eo.Placeholder {
		eo.Parameters = fn.Parameters
		eo.ReturnType = fn.ReturnType
	}
	if d.IncludesHashes() {
		eo.SigHash = extract.SignatureHash(fn)
	}
	if d.IncludesSource() {
		eo.SourceText = fn.SourceText
	}
	return eo
}

// ScanSummary reports what a scan did.
type ScanSummary struct {
	Root      string   `json:"root" yaml:"root"`
	Files     int      `json:"files" yaml:"files"`
	Analyzed  int      `json:"analyzed" yaml:"analyzed"`
	Unchanged int      `json:"unchanged" yaml:"unchanged"`
	Exports   int      `json:"exports" yaml:"exports"`
	Pruned    int      `json:"pruned" yaml:"pruned"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}
