// SPDX-License-Identifier: Apache-2.0

package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgsqlls/pgsqlls/internal/sqltext"
)

func edit(startLine, startCol, endLine, endCol int, text string) sqltext.Edit {
	return sqltext.Edit{
		Range: sqltext.Range{
			Start: sqltext.Position{Line: startLine, Character: startCol},
			End:   sqltext.Position{Line: endLine, Character: endCol},
		},
		NewText: text,
	}
}

func TestDocumentOpenSplitsStatements(t *testing.T) {
	t.Parallel()

	d := New("file:///a.sql", 1, "select 1; select 2;")
	stmts := d.Statements()
	require.Len(t, stmts, 2)
	assert.Equal(t, "select 1;", stmts[0].Text)
	assert.Equal(t, "select 2;", stmts[1].Text)
	assert.NotEqual(t, stmts[0].ID, stmts[1].ID)
}

func TestDocumentApplyEditsRejectsStaleVersion(t *testing.T) {
	t.Parallel()

	d := New("file:///a.sql", 5, "select 1;")
	_, err := d.ApplyEdits(5, nil)
	var stale StaleVersionError
	assert.ErrorAs(t, err, &stale)

	_, err = d.ApplyEdits(4, nil)
	assert.ErrorAs(t, err, &stale)
}

func TestDocumentApplyEditsEmptyBatchPreservesIdentity(t *testing.T) {
	t.Parallel()

	d := New("file:///a.sql", 1, "select 1; select 2;")
	before := d.Statements()

	event, err := d.ApplyEdits(2, nil)
	require.NoError(t, err)
	assert.Empty(t, event.Retired)
	assert.Empty(t, event.Added)

	after := d.Statements()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Text, after[i].Text)
	}
}

func TestDocumentApplyEditsRetainsIdentityForUnchangedStatement(t *testing.T) {
	t.Parallel()

	d := New("file:///a.sql", 1, "select 1;\nselect 2;\n")
	before := d.Statements()
	require.Len(t, before, 2)

	// Edit only the second statement's literal; the first must keep its id.
	event, err := d.ApplyEdits(2, []sqltext.Edit{edit(1, 7, 1, 8, "9")})
	require.NoError(t, err)

	after := d.Statements()
	require.Len(t, after, 2)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.NotEqual(t, before[1].ID, after[1].ID)
	assert.Contains(t, event.Retired, before[1].ID)
	require.Len(t, event.Added, 1)
	assert.Equal(t, "select 9;", event.Added[0].Text)
}

func TestDocumentApplyEditsAddsTrailingStatement(t *testing.T) {
	t.Parallel()

	d := New("file:///a.sql", 1, "select 1;")
	event, err := d.ApplyEdits(2, []sqltext.Edit{edit(0, 9, 0, 9, " select 2;")})
	require.NoError(t, err)

	require.Len(t, event.Added, 1)
	assert.Equal(t, "select 2;", event.Added[0].Text)
	assert.Empty(t, event.Retired)
}

func TestDocumentStatementAtReturnsContainingStatement(t *testing.T) {
	t.Parallel()

	d := New("file:///a.sql", 1, "select 1; select 2;")
	stmts := d.Statements()

	s, ok := d.StatementAt(stmts[1].Range.Start)
	require.True(t, ok)
	assert.Equal(t, stmts[1].ID, s.ID)

	_, ok = d.StatementAt(1000)
	assert.False(t, ok)
}

func TestDocumentParseKnownAndUnknownStatement(t *testing.T) {
	t.Parallel()

	d := New("file:///a.sql", 1, "select 1;")
	stmts := d.Statements()
	require.Len(t, stmts, 1)

	entry, ok, err := d.Parse(context.Background(), stmts[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, entry.Grammar.Tree)

	_, ok, err = d.Parse(context.Background(), ID("does-not-exist"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentReconstructsDocumentText(t *testing.T) {
	t.Parallel()

	text := "select 1;\n\nselect 2;  \nselect 3"
	d := New("file:///a.sql", 1, text)
	stmts := d.Statements()

	prevEnd := 0
	var got string
	for _, s := range stmts {
		got += d.Text()[prevEnd:s.Range.Start]
		got += s.Text
		prevEnd = s.Range.End
	}
	got += d.Text()[prevEnd:]
	assert.Equal(t, text, got)
}
