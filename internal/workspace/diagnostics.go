// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
	"github.com/pgsqlls/pgsqlls/internal/rules"
	"github.com/pgsqlls/pgsqlls/internal/sqltext"
)

// Diagnostic is one syntactic or semantic problem surfaced to a client
// (§6): `pull_diagnostics(uri) -> list<Diagnostic>`.
type Diagnostic struct {
	Range               sqltext.Range
	Severity            pgastparse.Severity
	Code                string
	Message             string
	CodeDescriptionHref string
	// Version is the document version this diagnostic was computed
	// against (§5: "Diagnostics emitted for version V are tagged V"); a
	// client discards diagnostics tagged with a version older than its
	// current state.
	Version int
}

// PullDiagnostics implements `pull_diagnostics(uri)` (§6). It merges
// parse-time syntax diagnostics (§4.3, absorbed per §7's ParseError
// policy, never returned as an error) with lint findings from the
// current rule filter.
func (w *Workspace) PullDiagnostics(ctx context.Context, uri string) ([]Diagnostic, error) {
	doc, err := w.lookup(uri)
	if err != nil {
		return nil, err
	}

	text := doc.Text()
	version := doc.Version()
	filter := w.currentFilter()
	snap := w.schema.Snapshot()
	path := pathFromURI(uri)

	var out []Diagnostic
	for _, stmt := range doc.Statements() {
		entry, found, err := doc.Parse(ctx, stmt.ID)
		if err != nil || !found {
			continue
		}

		for _, d := range entry.Grammar.Diagnostics {
			out = append(out, Diagnostic{
				Range:    syntaxDiagnosticRange(text, stmt.Range, d.Offset),
				Severity: d.Severity,
				Code:     "syntax/parser/syntax-error",
				Message:  d.Message,
				Version:  version,
			})
		}

		if stmt.Oversized {
			out = append(out, Diagnostic{
				Range:    sqltext.RangeAt(text, sqltext.ByteRange{Start: stmt.Range.Start, End: stmt.Range.End}),
				Severity: pgastparse.SeverityWarning,
				Code:     "syntax/parser/oversized-statement",
				Message:  fmt.Sprintf("statement of %d bytes exceeds the splitter's size guard", len(stmt.Text)),
				Version:  version,
			})
		}

		findings := filter.Run(rules.Context{
			URI:       uri,
			Statement: stmt,
			Grammar:   entry.Grammar,
			CST:       entry.CST,
			Snapshot:  snap,
		}, path)
		for _, f := range findings {
			out = append(out, Diagnostic{
				Range:               f.Range,
				Severity:            f.Severity,
				Code:                f.Code,
				Message:             f.Message,
				CodeDescriptionHref: f.CodeDescriptionHref,
				Version:             version,
			})
		}
	}

	w.logger.LogDiagnostics(uri, len(out))
	return out, nil
}

// syntaxDiagnosticRange converts a statement-relative, best-effort parse
// offset into a document-absolute range. Offset 0 means the grammar gave
// no precise cursor, in which case the whole statement's range is used
// (§4.3/§7).
func syntaxDiagnosticRange(docText string, stmtRange sqltext.ByteRange, offset int) sqltext.Range {
	if offset <= 0 {
		return sqltext.RangeAt(docText, stmtRange)
	}
	abs := stmtRange.Start + offset
	if abs > stmtRange.End {
		abs = stmtRange.End
	}
	return sqltext.RangeAt(docText, sqltext.ByteRange{Start: abs, End: abs})
}

// pathFromURI strips a file:// scheme so rule ignore-globs (§4.10) match
// against a filesystem-looking path rather than a raw URI.
func pathFromURI(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
