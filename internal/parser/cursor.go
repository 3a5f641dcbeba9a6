package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Cursor is a single mutable position over a concrete syntax tree.
//
// There is no way to save and restore a position: a caller that descends with
// GotoFirstChild must return with GotoParent before it advances a sibling in
// its own frame.
type Cursor interface {
	// Symbol returns the grammar symbol of the current node.
	Symbol() string
	// StartByte returns the byte offset where the current node starts.
	StartByte() uint32
	// EndByte returns the byte offset where the current node ends.
	EndByte() uint32
	// StartLine returns the 1-based line the current node starts on.
	StartLine() int
	GotoFirstChild() bool
	GotoNextSibling() bool
	GotoParent() bool
}

// TreeCursor adapts a tree-sitter cursor to the Cursor interface.
type TreeCursor struct {
	cursor *sitter.TreeCursor
}

var _ Cursor = (*TreeCursor)(nil)

// NewCursor returns a cursor positioned at the root of result.
// The cursor must be released with Close before the tree is closed.
func NewCursor(result *ParseResult) (*TreeCursor, error) {
	if result == nil || result.Tree == nil || result.Root == nil {
		return nil, ErrNilTree
	}
	return NewCursorAt(result.Root)
}

// NewCursorAt returns a cursor positioned at node.
func NewCursorAt(node *sitter.Node) (*TreeCursor, error) {
	if node == nil {
		return nil, ErrNilTree
	}
	return &TreeCursor{cursor: sitter.NewTreeCursor(node)}, nil
}

// Symbol implements Cursor.
func (c *TreeCursor) Symbol() string {
	return c.cursor.CurrentNode().Type()
}

// StartByte implements Cursor.
func (c *TreeCursor) StartByte() uint32 {
	return c.cursor.CurrentNode().StartByte()
}

// EndByte implements Cursor.
func (c *TreeCursor) EndByte() uint32 {
	return c.cursor.CurrentNode().EndByte()
}

// StartLine implements Cursor.
func (c *TreeCursor) StartLine() int {
	return int(c.cursor.CurrentNode().StartPoint().Row) + 1
}

// GotoFirstChild implements Cursor.
func (c *TreeCursor) GotoFirstChild() bool {
	return c.cursor.GoToFirstChild()
}

// GotoNextSibling implements Cursor.
func (c *TreeCursor) GotoNextSibling() bool {
	return c.cursor.GoToNextSibling()
}

// GotoParent implements Cursor.
func (c *TreeCursor) GotoParent() bool {
	return c.cursor.GoToParent()
}

// Close releases the underlying tree-sitter cursor.
func (c *TreeCursor) Close() {
	if c.cursor != nil {
		c.cursor.Close()
		c.cursor = nil
	}
}
