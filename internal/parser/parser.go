// Package parser provides tree-sitter based parsing of TypeScript sources.
//
// The parser package wraps the tree-sitter library and hands out a Cursor over
// the resulting concrete syntax tree. Nodes only carry byte offsets; callers
// recover text by slicing the original source.
package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language represents a supported grammar.
type Language string

const (
	// TypeScript represents plain TypeScript (.ts, .mts, .cts).
	TypeScript Language = "typescript"
	// TSX represents TypeScript with JSX (.tsx).
	TSX Language = "tsx"
)

// Parser wraps tree-sitter for code parsing.
type Parser struct {
	parser *sitter.Parser
	lang   Language
}

// ParseResult contains the parsed tree and metadata.
type ParseResult struct {
	// Tree is the complete tree-sitter parse tree.
	Tree *sitter.Tree
	// Root is the root node of the tree.
	Root *sitter.Node
	// Source is the original source code that was parsed.
	Source []byte
	// FilePath is the path to the source file (empty for in-memory parsing).
	FilePath string
	// Language is the grammar the source was parsed with.
	Language Language
}

// NewParser creates a parser for the given language.
// Returns an UnsupportedLanguageError if the language is not supported.
func NewParser(lang Language) (*Parser, error) {
	var (
		p   *sitter.Parser
		err error
	)

	switch lang {
	case TypeScript:
		p, err = newTypeScriptParser()
	case TSX:
		p, err = newTSXParser()
	default:
		return nil, &UnsupportedLanguageError{Language: string(lang)}
	}

	if err != nil {
		return nil, err
	}

	return &Parser{
		parser: p,
		lang:   lang,
	}, nil
}

// Parse parses source code and returns the tree.
// Any input, including an empty one, yields a tree with a root node; syntax
// errors show up as ERROR or MISSING nodes rather than as a returned error.
func (p *Parser) Parse(source []byte) (*ParseResult, error) {
	return p.ParseCtx(context.Background(), source)
}

// ParseCtx is Parse with a caller-supplied context for cancellation.
func (p *Parser) ParseCtx(ctx context.Context, source []byte) (*ParseResult, error) {
	if p.parser == nil {
		return nil, ErrParserClosed
	}

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{
			Message: err.Error(),
		}
	}
	if tree == nil {
		return nil, &ParseError{Message: "parser returned no tree"}
	}

	return &ParseResult{
		Tree:     tree,
		Root:     tree.RootNode(),
		Source:   source,
		Language: p.lang,
	}, nil
}

// ParseFile parses a file from disk.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	result, err := p.Parse(source)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.File = path
		}
		return nil, err
	}

	result.FilePath = path
	return result, nil
}

// Language returns the language this parser is configured for.
func (p *Parser) Language() Language {
	return p.lang
}

// Available reports whether the parser can still be used.
func (p *Parser) Available() bool {
	return p.parser != nil
}

// Close releases parser resources.
// After calling Close, Parse returns ErrParserClosed.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree resources.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// HasErrors returns true if the parse tree contains syntax errors.
func (r *ParseResult) HasErrors() bool {
	if r.Root == nil {
		return false
	}
	return r.Root.HasError()
}

// LanguageFromExtension returns the language for a file extension.
// Returns empty string if the extension is not recognized.
func LanguageFromExtension(ext string) Language {
	switch strings.ToLower(ext) {
	case ".ts", ".mts", ".cts":
		return TypeScript
	case ".tsx":
		return TSX
	default:
		return ""
	}
}

// LanguageFromPath returns the language for a file path, defaulting to
// TypeScript when the extension is not recognized.
func LanguageFromPath(path string) Language {
	if lang := LanguageFromExtension(filepath.Ext(path)); lang != "" {
		return lang
	}
	return TypeScript
}

// SupportedExtensions returns all file extensions supported for parsing.
func SupportedExtensions() []string {
	return []string{".ts", ".mts", ".cts", ".tsx"}
}
