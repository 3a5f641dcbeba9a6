package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// newTypeScriptParser creates a tree-sitter parser configured for TypeScript.
func newTypeScriptParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())
	return parser, nil
}

// newTSXParser creates a tree-sitter parser configured for TSX.
func newTSXParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsx.GetLanguage())
	return parser, nil
}

// Grammar symbols of tree-sitter-typescript that the export extractor reacts to.
const (
	SymbolProgram             = "program"
	SymbolExportStatement     = "export_statement"
	SymbolExportClause        = "export_clause"
	SymbolExportSpecifier     = "export_specifier"
	SymbolFunctionDeclaration = "function_declaration"
	SymbolIdentifier          = "identifier"
	SymbolFormalParameters    = "formal_parameters"
	SymbolRequiredParameter   = "required_parameter"
	SymbolOptionalParameter   = "optional_parameter"
	SymbolRestParameter       = "rest_parameter"
	SymbolRestPattern         = "rest_pattern"
	SymbolAssignmentPattern   = "assignment_pattern"
	SymbolTypeAnnotation      = "type_annotation"
	SymbolEquals              = "="
	SymbolEllipsis            = "..."
)

// IsParameterSymbol reports whether symbol is one of the three formal parameter shapes.
func IsParameterSymbol(symbol string) bool {
	switch symbol {
	case SymbolRequiredParameter, SymbolOptionalParameter, SymbolRestParameter:
		return true
	}
	return false
}
