// SPDX-License-Identifier: Apache-2.0

package sqltext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "single statement no semicolon",
			input: "select 1",
			want:  []string{"select 1"},
		},
		{
			name:  "two statements",
			input: "select 1; select 2;",
			want:  []string{"select 1;", "select 2;"},
		},
		{
			name:  "trailing whitespace belongs to the gap",
			input: "select 1;   \nselect 2;",
			want:  []string{"select 1;", "select 2;"},
		},
		{
			name:  "semicolon inside single-quoted string",
			input: "select ';' from t; select 2;",
			want:  []string{"select ';' from t;", "select 2;"},
		},
		{
			name:  "escaped quote inside string",
			input: "select 'it''s; fine' from t; select 2;",
			want:  []string{"select 'it''s; fine' from t;", "select 2;"},
		},
		{
			name:  "semicolon inside parens",
			input: "select (select 1; ) as x;",
			want:  []string{"select (select 1; ) as x;"},
		},
		{
			name:  "line comment hides semicolon",
			input: "select 1 -- comment ;\n;",
			want:  []string{"select 1 -- comment ;\n;"},
		},
		{
			name:  "nested block comments",
			input: "select /* outer /* inner */ still comment */ 1;",
			want:  []string{"select /* outer /* inner */ still comment */ 1;"},
		},
		{
			name:  "dollar quoted function body with internal semicolons",
			input: "create function f() returns int as $$ begin select 1; select 2; end; $$ language sql; select 3;",
			want: []string{
				"create function f() returns int as $$ begin select 1; select 2; end; $$ language sql;",
				"select 3;",
			},
		},
		{
			name:  "tagged dollar quote",
			input: "do $body$ begin raise notice 'hi;'; end $body$;",
			want:  []string{"do $body$ begin raise notice 'hi;'; end $body$;"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			stmts := Split(tc.input)
			got := make([]string, len(stmts))
			for i, s := range stmts {
				got[i] = s.Text
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSplitReconstructsDocument(t *testing.T) {
	t.Parallel()

	input := "select 1;\n\nselect 2;  \nselect 3"
	stmts := Split(input)
	require.NotEmpty(t, stmts)
	assert.Equal(t, input, reconstruct(input, stmts))
}

// reconstruct rebuilds the document from its full text and a splitter
// result: the gap before/after/between statements is always
// text[prevEnd:nextStart], since ranges are ordered and non-overlapping.
func reconstruct(text string, stmts []Statement) string {
	var b strings.Builder
	prevEnd := 0
	for _, s := range stmts {
		b.WriteString(text[prevEnd:s.Range.Start])
		b.WriteString(s.Text)
		prevEnd = s.Range.End
	}
	b.WriteString(text[prevEnd:])
	return b.String()
}

func TestSplitNeverOverlapsOrZeroWidth(t *testing.T) {
	t.Parallel()

	input := "select 1; select 2; select 3;"
	stmts := Split(input)
	prevEnd := 0
	for _, s := range stmts {
		require.GreaterOrEqual(t, s.Range.Start, prevEnd)
		require.Greater(t, s.Range.End, s.Range.Start)
		prevEnd = s.Range.End
	}
}

func FuzzSplitReconstructs(f *testing.F) {
	seeds := []string{
		"",
		"select 1;",
		"select 1; select 2",
		"select ';' from t;",
		"do $$ begin select 1; end $$;",
		"/* a /* b */ c */ select 1;",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		stmts := Split(input)
		if got := reconstruct(input, stmts); got != input {
			t.Fatalf("reconstruction mismatch: got %q want %q", got, input)
		}
	})
}
