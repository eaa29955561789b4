// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/pgsqlls/pgsqlls/internal/cst"
)

// Scoring deltas (§4.9 step 2), named so each is independently
// documented rather than inlined as magic numbers.
const (
	scorePrefixMatch       = 50
	scoreClauseAppropriate = 10
	scoreTableMentioned    = 10
	scoreAliasQualifies    = 20
	scoreAlreadyMentioned  = -15
	scorePrimaryKeyInJoin  = 8
	scoreArgCountMatches   = 10
	scoreDefaultSchema     = 5
)

// Rank filters and scores candidates per §4.9, returning at most limit
// items ordered by (score desc, label asc). limit <= 0 means unbounded.
func Rank(candidates []Candidate, req Request, limit int) []Item {
	items := make([]Item, 0, len(candidates))
	for _, c := range candidates {
		if !passesHardFilter(c, req) {
			continue
		}
		items = append(items, Item{Candidate: c, Score: score(c, req)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Label < items[j].Label
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// passesHardFilter implements §4.9 step 1: drop candidates whose label
// does not case-insensitively prefix-match the typed text, and drop
// columns belonging to a table that visibility rules hide (e.g. an
// unmentioned schema-qualified shadow of a mentioned table name).
func passesHardFilter(c Candidate, req Request) bool {
	if req.TypedPrefix != "" && !strings.HasPrefix(strings.ToLower(c.Label), strings.ToLower(req.TypedPrefix)) {
		return false
	}
	if c.Kind == KindColumn && len(req.Context.MentionedRelations) > 0 {
		names, ok := req.Context.MentionedRelations[c.Schema]
		if !ok || !names[c.Table] {
			// The table might still be mentioned unqualified.
			if !req.Context.MentionedRelations[""][c.Table] {
				return false
			}
		}
	}
	return true
}

func score(c Candidate, req Request) int {
	s := 0

	if req.TypedPrefix != "" {
		s += scorePrefixMatch
		// Among same-prefix candidates, reward the closer fuzzy rank (a
		// smaller Levenshtein-style distance from the typed text) so
		// "narr" ranks "narrator" above a longer unrelated-but-matching
		// label, without overriding the hard prefix requirement above.
		if rank := fuzzy.RankMatchFold(req.TypedPrefix, c.Label); rank >= 0 {
			s += max(0, 10-rank)
		}
	}
	if clauseWantsKind(req.Context.Clause.Kind, c.Kind) {
		s += scoreClauseAppropriate
	}

	if c.Kind == KindColumn {
		s += columnMentionScore(c, req.Context)
		if alreadyMentionedInClause(c, req.Context) {
			s += scoreAlreadyMentioned
		}
		if c.PrimaryKey && req.Context.Clause.Kind == cst.ClauseJoin && req.Context.Clause.OnNode != nil {
			s += scorePrimaryKeyInJoin
		}
	}

	if c.Kind == KindFunction && req.ArgCountHint >= 0 && c.ArgCount == req.ArgCountHint {
		s += scoreArgCountMatches
	}

	// Prefer the caller's default schema over a same-named candidate from
	// another schema (§8: "public.users"/"private.users" — default schema
	// preferred), so the tie isn't left to map-iteration order.
	if req.DefaultSchema != "" && c.Schema == req.DefaultSchema {
		s += scoreDefaultSchema
	}

	return s
}

func columnMentionScore(c Candidate, ctx cst.Context) int {
	if c.Alias != "" && c.Alias == ctx.SchemaOrAlias {
		return scoreAliasQualifies
	}
	if names, ok := ctx.MentionedRelations[c.Schema]; ok && names[c.Table] {
		return scoreTableMentioned
	}
	if ctx.MentionedRelations[""][c.Table] {
		return scoreTableMentioned
	}
	return 0
}

func alreadyMentionedInClause(c Candidate, ctx cst.Context) bool {
	mentioned, ok := ctx.ClauseColumns[ctx.Clause.Kind]
	if !ok {
		return false
	}
	return mentioned[c.Label] || (c.Alias != "" && mentioned[c.Alias+"."+c.Label])
}

// SpliceText returns the text to insert at the replacement range. When
// the cursor sits inside an already-open quote, the produced text must
// extend rather than recreate it (§4.9 step 3): the caller splices this
// directly between the existing quote characters, so no quoting is
// added here even for labels that would otherwise need it.
func (it Item) SpliceText(insideOpenQuote bool) string {
	if insideOpenQuote {
		return strings.Trim(it.CompletionText, `"`)
	}
	return it.CompletionText
}

func clauseWantsKind(clause cst.ClauseKind, kind Kind) bool {
	switch kind {
	case KindTable:
		return clauseIn(clause, cst.ClauseFrom, cst.ClauseJoin, cst.ClauseUpdate, cst.ClauseDelete, cst.ClauseInsert)
	case KindColumn:
		return clauseIn(clause, cst.ClauseSelect, cst.ClauseWhere, cst.ClauseInsert, cst.ClauseAlterColumn, cst.ClauseDropColumn, cst.ClauseRenameColumn, cst.ClauseCheckOrUsing)
	default:
		return false
	}
}
