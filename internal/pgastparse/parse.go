// SPDX-License-Identifier: Apache-2.0

// Package pgastparse wraps the real PostgreSQL grammar parser and produces
// the "grammar AST" parse artifact described in the document model's data
// model: a semantic, layout-lossy tree plus any syntax diagnostics.
package pgastparse

import (
	"fmt"

	pgq "github.com/pganalyze/pg_query_go/v6"
)

// Severity mirrors the LSP severity levels used by diagnostics (§6).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

// Diagnostic is a syntax or semantic problem surfaced at parse time.
type Diagnostic struct {
	Severity Severity
	Message  string
	// Offset is a best-effort byte offset into the statement text; the
	// underlying grammar library does not always report a precise cursor,
	// in which case Offset is 0 and the whole statement range is used.
	Offset int
}

// Result is the grammar-AST parse artifact for one statement.
type Result struct {
	// Tree is nil when the statement failed to parse; Diagnostics still
	// carries a syntax diagnostic in that case, so the cache entry remains
	// authoritative per spec §4.3.
	Tree        *pgq.ParseResult
	Diagnostics []Diagnostic
	// Kind classifies the statement's top-level node, per SPEC_FULL §11.7.
	Kind StatementKind
}

// StatementKind is the coarse classification surfaced alongside a parsed
// statement (SPEC_FULL §11.7).
type StatementKind string

const (
	KindSelect StatementKind = "select"
	KindDML    StatementKind = "dml"
	KindDDL    StatementKind = "ddl"
	KindOther  StatementKind = "other"
	KindUnknown StatementKind = "unknown"
)

// Parse runs the PostgreSQL grammar over a single statement's text. On a
// grammar failure, Result.Tree is nil and Result.Diagnostics carries a
// syntax diagnostic — the result is still a valid, cacheable artifact.
func Parse(text string) Result {
	tree, err := pgq.Parse(text)
	if err != nil {
		return Result{
			Diagnostics: []Diagnostic{{
				Severity: SeverityError,
				Message:  fmt.Sprintf("syntax error: %s", err.Error()),
			}},
			Kind: KindUnknown,
		}
	}

	kind := classify(tree)
	return Result{Tree: tree, Kind: kind}
}

func classify(tree *pgq.ParseResult) StatementKind {
	stmts := tree.GetStmts()
	if len(stmts) != 1 {
		return KindOther
	}
	node := stmts[0].GetStmt().GetNode()
	switch node.(type) {
	case *pgq.Node_SelectStmt:
		return KindSelect
	case *pgq.Node_InsertStmt, *pgq.Node_UpdateStmt, *pgq.Node_DeleteStmt:
		return KindDML
	case *pgq.Node_CreateStmt, *pgq.Node_AlterTableStmt, *pgq.Node_DropStmt,
		*pgq.Node_RenameStmt, *pgq.Node_IndexStmt, *pgq.Node_CreatePolicyStmt,
		*pgq.Node_AlterPolicyStmt, *pgq.Node_GrantStmt, *pgq.Node_GrantRoleStmt,
		*pgq.Node_CreateRoleStmt, *pgq.Node_AlterRoleStmt, *pgq.Node_DropRoleStmt:
		return KindDDL
	default:
		return KindOther
	}
}
