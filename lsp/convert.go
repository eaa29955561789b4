// SPDX-License-Identifier: Apache-2.0

package lsp

import (
	goLsp "github.com/sourcegraph/go-lsp"

	"github.com/pgsqlls/pgsqlls/internal/completion"
	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
	"github.com/pgsqlls/pgsqlls/internal/sqltext"
	"github.com/pgsqlls/pgsqlls/internal/workspace"
)

func toInternalPosition(p goLsp.Position) sqltext.Position {
	return sqltext.Position{Line: p.Line, Character: p.Character}
}

func toInternalRange(r goLsp.Range) sqltext.Range {
	return sqltext.Range{Start: toInternalPosition(r.Start), End: toInternalPosition(r.End)}
}

func fromInternalPosition(p sqltext.Position) goLsp.Position {
	return goLsp.Position{Line: p.Line, Character: p.Character}
}

func fromInternalRange(r sqltext.Range) goLsp.Range {
	return goLsp.Range{Start: fromInternalPosition(r.Start), End: fromInternalPosition(r.End)}
}

func toInternalEdits(changes []goLsp.TextDocumentContentChangeEvent) []sqltext.Edit {
	out := make([]sqltext.Edit, 0, len(changes))
	for _, c := range changes {
		if c.Range == nil {
			// A change with no range replaces the whole document. This
			// package has no visibility into document length, so such a
			// change is dropped here and no edit is produced for it.
			continue
		}
		out = append(out, sqltext.Edit{
			Range:   toInternalRange(*c.Range),
			NewText: c.Text,
		})
	}
	return out
}

// severityToLSP maps this repo's four-level severity onto the LSP
// DiagnosticSeverity enum (1=Error .. 4=Hint).
func severityToLSP(sev pgastparse.Severity) goLsp.DiagnosticSeverity {
	switch sev {
	case pgastparse.SeverityError:
		return goLsp.Error
	case pgastparse.SeverityWarning:
		return goLsp.Warning
	case pgastparse.SeverityInfo:
		return goLsp.Information
	case pgastparse.SeverityHint:
		return goLsp.Hint
	default:
		return goLsp.Error
	}
}

func diagnosticToLSP(d workspace.Diagnostic) goLsp.Diagnostic {
	out := goLsp.Diagnostic{
		Range:    fromInternalRange(d.Range),
		Severity: severityToLSP(d.Severity),
		Code:     d.Code,
		Message:  d.Message,
	}
	return out
}

// completionKindToLSP maps a candidate kind (§4.8) onto the closest LSP
// CompletionItemKind.
func completionKindToLSP(k completion.Kind) goLsp.CompletionItemKind {
	switch k {
	case completion.KindTable:
		return goLsp.CIKClass
	case completion.KindColumn:
		return goLsp.CIKField
	case completion.KindSchema:
		return goLsp.CIKModule
	case completion.KindFunction:
		return goLsp.CIKFunction
	case completion.KindPolicy:
		return goLsp.CIKInterface
	case completion.KindRole:
		return goLsp.CIKUnit
	default:
		return goLsp.CIKText
	}
}

func completionItemToLSP(it workspace.CompletionItem) goLsp.CompletionItem {
	r := fromInternalRange(it.ReplacementRange)
	return goLsp.CompletionItem{
		Label:      it.Label,
		Kind:       completionKindToLSP(it.Kind),
		Detail:     it.Description,
		InsertText: it.InsertText,
		TextEdit: &goLsp.TextEdit{
			Range:   r,
			NewText: it.InsertText,
		},
	}
}
