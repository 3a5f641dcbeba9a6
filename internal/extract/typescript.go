package extract

import (
	"strings"

	"github.com/hargabyte/tsig/internal/parser"
)

// exportStatement inspects the immediate children of an export_statement.
// Direct function declarations yield a full signature, export clauses yield
// name-only placeholder records, anything else is ignored.
func (e *Extractor) exportStatement(c parser.Cursor, line int, exportText string) {
	if !c.GotoFirstChild() {
		return
	}
	for {
		switch c.Symbol() {
		case parser.SymbolFunctionDeclaration:
			e.functionDeclaration(c, line, exportText)
		case parser.SymbolExportClause:
			e.exportClause(c, line, exportText)
		}
		if !c.GotoNextSibling() {
			break
		}
	}
	c.GotoParent()
}

// exportClause records one placeholder per `export { name }` specifier.
// Re-exported bindings are not resolved back to their declaration.
func (e *Extractor) exportClause(c parser.Cursor, line int, exportText string) {
	if !c.GotoFirstChild() {
		return
	}
	for {
		if c.Symbol() == parser.SymbolExportSpecifier && c.GotoFirstChild() {
			if c.Symbol() == parser.SymbolIdentifier {
				e.exports = append(e.exports, ExportedFunction{
					Name:       e.text(c),
					Parameters: placeholderParameters(),
					ReturnType: PlaceholderType,
					LineNumber: line,
					SourceText: strings.TrimSpace(exportText),
				})
			}
			c.GotoParent()
		}
		if !c.GotoNextSibling() {
			break
		}
	}
	c.GotoParent()
}

// functionDeclaration reads the name, parameters and return type of a
// function_declaration. A declaration without a name produces no record.
func (e *Extractor) functionDeclaration(c parser.Cursor, line int, exportText string) {
	var (
		name       string
		params     = []Parameter{}
		returnType string
	)

	if c.GotoFirstChild() {
		for {
			switch c.Symbol() {
			case parser.SymbolIdentifier:
				if name == "" {
					name = e.text(c)
				}
			case parser.SymbolFormalParameters:
				params = e.formalParameters(c)
			case parser.SymbolTypeAnnotation:
				returnType = stripAnnotation(e.text(c))
			}
			if !c.GotoNextSibling() {
				break
			}
		}
		c.GotoParent()
	}

	if name == "" {
		return
	}

	e.exports = append(e.exports, ExportedFunction{
		Name:       name,
		Parameters: params,
		ReturnType: returnType,
		LineNumber: line,
		SourceText: strings.TrimSpace(exportText),
	})
}

// formalParameters converts a formal_parameters node into parameters in
// declaration order. Punctuation and unnamed parameters are skipped.
func (e *Extractor) formalParameters(c parser.Cursor) []Parameter {
	params := []Parameter{}

	if !c.GotoFirstChild() {
		return params
	}
	for {
		if parser.IsParameterSymbol(c.Symbol()) {
			if p := e.parameter(c); p != nil {
				params = append(params, *p)
			}
		}
		if !c.GotoNextSibling() {
			break
		}
	}
	c.GotoParent()

	return params
}

// parameter parses one required, optional or rest parameter node.
//
// A default value is read from an assignment_pattern child, or from the
// sibling after an inline `=` token. A spread token, either directly under the
// parameter or inside a rest_pattern, marks the parameter as rest. Defaulted
// parameters keep IsOptional false.
func (e *Extractor) parameter(c parser.Cursor) *Parameter {
	p := &Parameter{
		IsRestParameter: c.Symbol() == parser.SymbolRestParameter,
		IsOptional:      c.Symbol() == parser.SymbolOptionalParameter,
	}

	if !c.GotoFirstChild() {
		return nil
	}
	afterEquals := false
	for {
		symbol := c.Symbol()
		switch {
		case afterEquals:
			p.DefaultValue = e.text(c)
			afterEquals = false
		case symbol == parser.SymbolIdentifier:
			if p.Name == "" {
				p.Name = e.text(c)
			}
		case symbol == parser.SymbolTypeAnnotation:
			p.Type = stripAnnotation(e.text(c))
		case symbol == parser.SymbolAssignmentPattern:
			e.assignmentPattern(c, p)
		case symbol == parser.SymbolRestPattern:
			e.restPattern(c, p)
		case symbol == parser.SymbolEllipsis:
			p.IsRestParameter = true
		case symbol == parser.SymbolEquals:
			afterEquals = true
		}
		if !c.GotoNextSibling() {
			break
		}
	}
	c.GotoParent()

	if p.Name == "" {
		return nil
	}
	return p
}

// assignmentPattern reads `name = value`. The `=` token is never taken as
// the default value; a later qualifying child overwrites an earlier one.
func (e *Extractor) assignmentPattern(c parser.Cursor, p *Parameter) {
	if !c.GotoFirstChild() {
		return
	}
	for {
		switch symbol := c.Symbol(); {
		case symbol == parser.SymbolIdentifier:
			if p.Name == "" {
				p.Name = e.text(c)
			}
		case symbol != parser.SymbolEquals:
			p.DefaultValue = e.text(c)
		}
		if !c.GotoNextSibling() {
			break
		}
	}
	c.GotoParent()
}

// restPattern reads `...name`.
func (e *Extractor) restPattern(c parser.Cursor, p *Parameter) {
	if !c.GotoFirstChild() {
		return
	}
	for {
		switch c.Symbol() {
		case parser.SymbolEllipsis:
			p.IsRestParameter = true
		case parser.SymbolIdentifier:
			if p.Name == "" {
				p.Name = e.text(c)
			}
		}
		if !c.GotoNextSibling() {
			break
		}
	}
	c.GotoParent()
}
