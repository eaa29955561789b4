// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"github.com/pgsqlls/pgsqlls/internal/cst"
	"github.com/pgsqlls/pgsqlls/internal/document"
	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
	"github.com/pgsqlls/pgsqlls/internal/schemacache"
	"github.com/pgsqlls/pgsqlls/internal/sqltext"
)

// Context is everything a rule Body is given to inspect one statement.
// It is deliberately a thin bundle of already-computed artifacts (§4.3's
// cached grammar AST and CST, §4.5's schema snapshot) — a rule never
// reparses anything itself.
type Context struct {
	URI       string
	Statement document.Statement
	Grammar   pgastparse.Result
	CST       *cst.Tree
	// Snapshot is never nil; it is schemacache.Empty() when no database
	// is configured or the last refresh failed (§4.5/§7 degrade path).
	Snapshot *schemacache.Snapshot
}

// Finding is what a rule Body reports for one occurrence. Severity and
// Code are resolved by the Filter, not the Body, so a rule stays ignorant
// of its own configuration overrides.
type Finding struct {
	Range   sqltext.Range
	Message string

	// Severity overrides the rule's resolved severity for this specific
	// occurrence when non-nil; most rules leave this nil.
	Severity *pgastparse.Severity
}

// Diagnostic is a fully resolved lint finding, ready to surface through
// pull_diagnostics (§6).
type Diagnostic struct {
	Range               sqltext.Range
	Severity            pgastparse.Severity
	Code                string
	Message             string
	CodeDescriptionHref string
}

// Body implements one rule's logic. The registry stores it alongside its
// Descriptor but never builds one itself (§1).
type Body func(Context) []Finding
