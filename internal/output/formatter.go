package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formatter writes output documents in one format.
type Formatter interface {
	// Format renders v and returns it as a string.
	Format(v interface{}) (string, error)

	// FormatToWriter writes the rendering of v directly to w.
	FormatToWriter(w io.Writer, v interface{}) error
}

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format formats v as YAML.
func (f *YAMLFormatter) Format(v interface{}) (string, error) {
	return formatToString(f, v)
}

// FormatToWriter writes YAML output to a writer.
func (f *YAMLFormatter) FormatToWriter(w io.Writer, v interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(v)
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats v as JSON.
func (f *JSONFormatter) Format(v interface{}) (string, error) {
	return formatToString(f, v)
}

// FormatToWriter writes JSON output to a writer.
func (f *JSONFormatter) FormatToWriter(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

// TextFormatter writes a human-oriented listing. It understands
// *ExportsOutput and *ScanSummary.
type TextFormatter struct{}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format formats v as text.
func (f *TextFormatter) Format(v interface{}) (string, error) {
	return formatToString(f, v)
}

// FormatToWriter writes text output to a writer.
func (f *TextFormatter) FormatToWriter(w io.Writer, v interface{}) error {
	var b strings.Builder

	switch doc := v.(type) {
	case *ExportsOutput:
		writeExportsText(&b, doc)
	case *ScanSummary:
		writeSummaryText(&b, doc)
	default:
		return fmt.Errorf("text format does not support %T", v)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeExportsText(b *strings.Builder, doc *ExportsOutput) {
	for _, file := range doc.Files {
		fmt.Fprintf(b, "%s\n", file.Path)
		if len(file.Exports) == 0 {
			b.WriteString("  (no exported functions)\n\n")
			continue
		}
		for _, e := range file.Exports {
			writeExportText(b, e)
		}
	}
}

// writeExportText renders one export. Sparse exports carry no parameter
// list and are written as a single line.
func writeExportText(b *strings.Builder, e ExportOutput) {
	if e.Parameters == nil && e.ReturnType == "" && e.SourceText == "" && e.SigHash == "" {
		fmt.Fprintf(b, "  %d: %s\n", e.Line, e.Signature)
		return
	}

	fmt.Fprintf(b, "  function: %s\n", e.Name)
	b.WriteString("  parameters:\n")
	if e.Placeholder {
		b.WriteString("    (declared elsewhere)\n")
	} else if len(e.Parameters) == 0 {
		b.WriteString("    (no parameters)\n")
	}
	for i, p := range e.Parameters {
		line := fmt.Sprintf("    %d: %s", i+1, p.Name)
		if p.Type != "" {
			line += ": " + p.Type
		}
		if p.DefaultValue != "" {
			line += " = " + p.DefaultValue
		}
		if p.IsOptional {
			line += " (optional)"
		}
		if p.IsRestParameter {
			line += " (rest)"
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(b, "  returns: %s\n", e.ReturnType)
	fmt.Fprintf(b, "  line: %d\n", e.Line)
	if e.SigHash != "" {
		fmt.Fprintf(b, "  sig_hash: %s\n", e.SigHash)
	}
	if e.SourceText != "" {
		fmt.Fprintf(b, "  source: %s\n", firstLine(e.SourceText))
	}
	b.WriteString("\n")
}

func writeSummaryText(b *strings.Builder, s *ScanSummary) {
	fmt.Fprintf(b, "scanned %s\n", s.Root)
	fmt.Fprintf(b, "  files:     %d\n", s.Files)
	fmt.Fprintf(b, "  analyzed:  %d\n", s.Analyzed)
	fmt.Fprintf(b, "  unchanged: %d\n", s.Unchanged)
	fmt.Fprintf(b, "  exports:   %d\n", s.Exports)
	fmt.Fprintf(b, "  pruned:    %d\n", s.Pruned)
	for _, e := range s.Errors {
		fmt.Fprintf(b, "  error: %s\n", e)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func formatToString(f Formatter, v interface{}) (string, error) {
	var buf bytes.Buffer
	if err := f.FormatToWriter(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GetFormatter returns the formatter for format.
func GetFormatter(format Format) (Formatter, error) {
	switch format {
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatText:
		return NewTextFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Write renders files at density d to w in the given format.
func Write(w io.Writer, format Format, d Density, files []FileExports) error {
	f, err := GetFormatter(format)
	if err != nil {
		return err
	}
	return f.FormatToWriter(w, NewExportsOutput(files, d))
}
