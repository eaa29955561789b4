// SPDX-License-Identifier: Apache-2.0

package lsp

import (
	"testing"

	goLsp "github.com/sourcegraph/go-lsp"
	"github.com/stretchr/testify/assert"

	"github.com/pgsqlls/pgsqlls/internal/completion"
	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
	"github.com/pgsqlls/pgsqlls/internal/sqltext"
	"github.com/pgsqlls/pgsqlls/internal/workspace"
)

func TestPositionAndRangeRoundTrip(t *testing.T) {
	t.Parallel()

	p := sqltext.Position{Line: 3, Character: 7}
	assert.Equal(t, p, toInternalPosition(fromInternalPosition(p)))

	r := sqltext.Range{
		Start: sqltext.Position{Line: 0, Character: 0},
		End:   sqltext.Position{Line: 1, Character: 4},
	}
	assert.Equal(t, r, toInternalRange(fromInternalRange(r)))
}

func TestToInternalEditsSkipsWholeDocumentChanges(t *testing.T) {
	t.Parallel()

	changes := []goLsp.TextDocumentContentChangeEvent{
		{Text: "whole document replace"},
		{
			Range: &goLsp.Range{
				Start: goLsp.Position{Line: 0, Character: 0},
				End:   goLsp.Position{Line: 0, Character: 1},
			},
			Text: "x",
		},
	}

	edits := toInternalEdits(changes)
	assert.Len(t, edits, 1)
	assert.Equal(t, "x", edits[0].NewText)
}

func TestSeverityToLSPMapsAllFourLevels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, goLsp.Error, severityToLSP(pgastparse.SeverityError))
	assert.Equal(t, goLsp.Warning, severityToLSP(pgastparse.SeverityWarning))
	assert.Equal(t, goLsp.Information, severityToLSP(pgastparse.SeverityInfo))
	assert.Equal(t, goLsp.Hint, severityToLSP(pgastparse.SeverityHint))
}

func TestCompletionKindToLSPHasNoUnmappedDefaultForKnownKinds(t *testing.T) {
	t.Parallel()

	known := []completion.Kind{
		completion.KindTable, completion.KindColumn, completion.KindSchema,
		completion.KindFunction, completion.KindPolicy, completion.KindRole,
	}
	for _, k := range known {
		assert.NotEqual(t, goLsp.CIKText, completionKindToLSP(k), "kind %v should not fall through to the default", k)
	}
}

func TestDiagnosticToLSPCarriesRangeAndMessage(t *testing.T) {
	t.Parallel()

	d := workspace.Diagnostic{
		Range: sqltext.Range{
			Start: sqltext.Position{Line: 0, Character: 0},
			End:   sqltext.Position{Line: 0, Character: 5},
		},
		Severity: pgastparse.SeverityWarning,
		Code:     "lint/example-rule",
		Message:  "example finding",
	}
	out := diagnosticToLSP(d)
	assert.Equal(t, "lint/example-rule", out.Code)
	assert.Equal(t, "example finding", out.Message)
	assert.Equal(t, goLsp.Warning, out.Severity)
	assert.Equal(t, 5, out.Range.End.Character)
}

func TestCompletionItemToLSPSetsTextEdit(t *testing.T) {
	t.Parallel()

	item := workspace.CompletionItem{
		Label:       "users",
		Description: "table",
		Kind:        completion.KindTable,
		InsertText:  "users",
		ReplacementRange: sqltext.Range{
			Start: sqltext.Position{Line: 0, Character: 0},
			End:   sqltext.Position{Line: 0, Character: 2},
		},
	}
	out := completionItemToLSP(item)
	assert.Equal(t, "users", out.Label)
	assert.Equal(t, "users", out.InsertText)
	if assert.NotNil(t, out.TextEdit) {
		assert.Equal(t, "users", out.TextEdit.NewText)
		assert.Equal(t, 2, out.TextEdit.Range.End.Character)
	}
}
