package extract

import (
	"errors"
	"fmt"

	"github.com/hargabyte/tsig/internal/parser"
)

// ErrAnalyzerClosed is returned by Analyze after Close has been called.
var ErrAnalyzerClosed = errors.New("analyzer is closed")

// Analyzer owns a tree-sitter parser and extracts exported functions from
// whole source files. Each call parses its own tree and walks it with its own
// cursor; both are released before the call returns. An Analyzer is not safe
// for concurrent use; use one per goroutine.
type Analyzer struct {
	parser       *parser.Parser
	exports      []ExportedFunction
	syntaxErrors bool
}

// NewAnalyzer creates an analyzer for plain TypeScript.
func NewAnalyzer() (*Analyzer, error) {
	return NewAnalyzerFor(parser.TypeScript)
}

// NewAnalyzerFor creates an analyzer for the given grammar.
func NewAnalyzerFor(lang parser.Language) (*Analyzer, error) {
	p, err := parser.NewParser(lang)
	if err != nil {
		return nil, err
	}
	return &Analyzer{parser: p}, nil
}

// Analyze returns the exported functions declared in source, in source order.
// Input with no export statements, including the empty string, yields an
// empty slice. The returned slice is a copy the caller may modify freely.
func (a *Analyzer) Analyze(source string) ([]ExportedFunction, error) {
	return a.AnalyzeBytes([]byte(source))
}

// AnalyzeBytes is Analyze for source already held as bytes.
func (a *Analyzer) AnalyzeBytes(source []byte) ([]ExportedFunction, error) {
	if !a.parser.Available() {
		return nil, ErrAnalyzerClosed
	}

	result, err := a.parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	return a.extract(result)
}

// AnalyzeFile reads and analyzes the file at path. Read failures are
// returned as *parser.FileReadError.
func (a *Analyzer) AnalyzeFile(path string) ([]ExportedFunction, error) {
	if !a.parser.Available() {
		return nil, ErrAnalyzerClosed
	}

	result, err := a.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return a.extract(result)
}

func (a *Analyzer) extract(result *parser.ParseResult) ([]ExportedFunction, error) {
	defer result.Close()

	a.exports = a.exports[:0]
	a.syntaxErrors = result.HasErrors()

	source := result.Source
	cursor, err := parser.NewCursor(result)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	found, err := Extract(cursor, source)
	if err != nil {
		return nil, err
	}
	a.exports = append(a.exports, found...)

	return cloneFunctions(a.exports), nil
}

// SyntaxErrors reports whether the last analyzed source contained ERROR or
// MISSING nodes. Exports inside damaged regions may be missing.
func (a *Analyzer) SyntaxErrors() bool {
	return a.syntaxErrors
}

// Language returns the grammar this analyzer parses with.
func (a *Analyzer) Language() parser.Language {
	if !a.parser.Available() {
		return ""
	}
	return a.parser.Language()
}

// Close releases the parser. Further calls to Analyze return
// ErrAnalyzerClosed. Close is idempotent.
func (a *Analyzer) Close() {
	a.parser.Close()
	a.exports = nil
	a.syntaxErrors = false
}
