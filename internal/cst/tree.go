// SPDX-License-Identifier: Apache-2.0

// Package cst wraps the tree-sitter SQL grammar to produce the concrete
// syntax tree parse artifact (§3) and the treesitter context builder (§4.6)
// that maps a byte offset to a semantic position for completion.
package cst

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	tssql "github.com/smacker/go-tree-sitter/sql"
)

// Tree wraps a parsed tree-sitter CST alongside the source text it was
// parsed from, since node ranges are only meaningful against that text.
type Tree struct {
	Source []byte
	tree   *sitter.Tree
}

// Root returns the CST's root node.
func (t *Tree) Root() *sitter.Node {
	if t == nil || t.tree == nil {
		return nil
	}
	return t.tree.RootNode()
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
	}
}

var sqlLanguage = tssql.GetLanguage()

// Parse produces a CST for the given statement text. Unlike the grammar
// parser (internal/pgastparse), tree-sitter never fails outright: malformed
// input produces ERROR nodes in an otherwise-complete tree, which is exactly
// the property the completion engine depends on (§4.6 step 3).
func Parse(ctx context.Context, source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(sqlLanguage)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	return &Tree{Source: source, tree: tree}, nil
}

// NodeText returns the source text covered by node.
func NodeText(source []byte, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// Contains reports whether byte offset off lies within node's range.
func Contains(node *sitter.Node, off uint32) bool {
	return node != nil && node.StartByte() <= off && off < node.EndByte()
}
