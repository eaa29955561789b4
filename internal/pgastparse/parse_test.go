// SPDX-License-Identifier: Apache-2.0

package pgastparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassifiesStatementKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sql  string
		want StatementKind
	}{
		{"select", "select 1", KindSelect},
		{"insert", "insert into t(a) values (1)", KindDML},
		{"update", "update t set a = 1", KindDML},
		{"delete", "delete from t", KindDML},
		{"create table", "create table t (a int)", KindDDL},
		{"alter table", "alter table t add column b int", KindDDL},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := Parse(tc.sql)
			require.Empty(t, result.Diagnostics)
			assert.Equal(t, tc.want, result.Kind)
		})
	}
}

func TestParseSyntaxErrorYieldsDiagnostic(t *testing.T) {
	t.Parallel()

	result := Parse("select select select")
	assert.Nil(t, result.Tree)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, SeverityError, result.Diagnostics[0].Severity)
	assert.Equal(t, KindUnknown, result.Kind)
}
