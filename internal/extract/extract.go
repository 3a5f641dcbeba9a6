package extract

import (
	"errors"
	"strings"

	"github.com/hargabyte/tsig/internal/parser"
)

// ErrNilCursor is returned when Extract is called without a cursor.
var ErrNilCursor = errors.New("cursor is nil")

// Extractor walks one syntax tree and accumulates exported function records.
// An Extractor is used for a single pass and is not safe for concurrent use.
type Extractor struct {
	source  []byte
	exports []ExportedFunction
}

// Extract walks the tree under cursor in pre-order and returns every exported
// function it recognizes, in source order. source must be the exact bytes the
// tree was parsed from.
func Extract(cursor parser.Cursor, source []byte) ([]ExportedFunction, error) {
	if cursor == nil {
		return nil, ErrNilCursor
	}

	e := &Extractor{source: source, exports: []ExportedFunction{}}
	e.traverse(cursor)
	return e.exports, nil
}

// traverse visits the current node, its subtree, then each following
// sibling. Every descent is paired with a return to the parent before the
// loop advances, so the cursor ends on the node it started the frame on.
func (e *Extractor) traverse(c parser.Cursor) {
	for {
		if c.Symbol() == parser.SymbolExportStatement {
			e.exportStatement(c, c.StartLine(), e.text(c))
		}

		if c.GotoFirstChild() {
			e.traverse(c)
			c.GotoParent()
		}

		if !c.GotoNextSibling() {
			return
		}
	}
}

// text returns the source slice covered by the cursor's current node.
// Offsets outside the source yield an empty string.
func (e *Extractor) text(c parser.Cursor) string {
	start, end := int(c.StartByte()), int(c.EndByte())
	if start < 0 || end > len(e.source) || start > end {
		return ""
	}
	return string(e.source[start:end])
}

// stripAnnotation turns a type_annotation slice such as ": number" into "number".
func stripAnnotation(text string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, ":"))
}
