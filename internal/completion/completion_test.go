// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgsqlls/pgsqlls/internal/cst"
	"github.com/pgsqlls/pgsqlls/internal/schemacache"
)

func TestTablesProviderGatedByClause(t *testing.T) {
	t.Parallel()

	snap := schemacache.Empty()
	req := Request{Context: cst.Context{Clause: cst.Clause{Kind: cst.ClauseSelect}}}
	assert.Empty(t, Tables(snap, req))

	req.Context.Clause.Kind = cst.ClauseFrom
	_ = Tables(snap, req) // empty snapshot yields no candidates but must not panic
}

func TestColumnsProviderDisabledForJoinWithoutOnNode(t *testing.T) {
	t.Parallel()

	ctx := cst.Context{
		Clause: cst.Clause{Kind: cst.ClauseJoin, OnNode: nil},
	}
	assert.False(t, columnsEnabled(ctx))

	ctx.Clause.Kind = cst.ClauseSelect
	assert.True(t, columnsEnabled(ctx))
}

func TestRankFiltersByFuzzyPrefixAndOrdersByScore(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{Label: "narrator", Kind: KindColumn},
		{Label: "zzz_unrelated", Kind: KindColumn},
		{Label: "name", Kind: KindColumn},
	}
	req := Request{TypedPrefix: "na", Context: cst.Context{Clause: cst.Clause{Kind: cst.ClauseSelect}}}

	items := Rank(candidates, req, 0)
	require.Len(t, items, 2)
	labels := []string{items[0].Label, items[1].Label}
	assert.ElementsMatch(t, []string{"narrator", "name"}, labels)
}

func TestRankAppliesAliasMentionBonus(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{Label: "id", Kind: KindColumn, Schema: "auth", Table: "posts", Alias: "p"},
		{Label: "uid", Kind: KindColumn, Schema: "auth", Table: "users", Alias: "u"},
	}
	ctx := cst.Context{
		Clause:             cst.Clause{Kind: cst.ClauseSelect},
		SchemaOrAlias:      "p",
		MentionedRelations: map[string]map[string]bool{"auth": {"posts": true, "users": true}},
	}
	req := Request{Context: ctx}

	items := Rank(candidates, req, 0)
	require.Len(t, items, 2)
	assert.Equal(t, "id", items[0].Label) // alias match outranks a merely-mentioned table
}

func TestRankOrderingStableUnderReshuffle(t *testing.T) {
	t.Parallel()

	a := []Candidate{{Label: "b", Kind: KindColumn}, {Label: "a", Kind: KindColumn}, {Label: "c", Kind: KindColumn}}
	b := []Candidate{{Label: "c", Kind: KindColumn}, {Label: "a", Kind: KindColumn}, {Label: "b", Kind: KindColumn}}

	req := Request{}
	ra := Rank(a, req, 0)
	rb := Rank(b, req, 0)

	var la, lb []string
	for _, it := range ra {
		la = append(la, it.Label)
	}
	for _, it := range rb {
		lb = append(lb, it.Label)
	}
	assert.Equal(t, la, lb)
}

func TestRankRespectsLimit(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{{Label: "a"}, {Label: "b"}, {Label: "c"}}
	items := Rank(candidates, Request{}, 2)
	assert.Len(t, items, 2)
}

func TestSpliceTextStripsQuotesWhenCursorInsideOpenQuote(t *testing.T) {
	t.Parallel()

	it := Item{Candidate: Candidate{CompletionText: `"email"`}}
	assert.Equal(t, "email", it.SpliceText(true))
	assert.Equal(t, `"email"`, it.SpliceText(false))
}
