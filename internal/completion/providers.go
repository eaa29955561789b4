// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"github.com/pgsqlls/pgsqlls/internal/cst"
	"github.com/pgsqlls/pgsqlls/internal/schemacache"
)

// Provider is a pure candidate generator: (schema snapshot, request
// context) -> candidates. Expressing providers this way, rather than as
// a coroutine-style pipeline, is the §9 redesign flag's resolution —
// composition is explicit iteration over a slice of Providers.
type Provider func(snap *schemacache.Snapshot, req Request) []Candidate

// Providers is the full registry consulted by a completion request,
// ordered to match the gating table of §4.8.
var Providers = []Provider{
	Tables,
	Columns,
	Schemas,
	Functions,
	Policies,
	Roles,
}

// Tables emits table candidates when the wrapping clause is one that
// accepts a relation name (§4.8).
func Tables(snap *schemacache.Snapshot, req Request) []Candidate {
	if !clauseIn(req.Context.Clause.Kind,
		cst.ClauseFrom, cst.ClauseJoin, cst.ClauseUpdate, cst.ClauseDelete,
		cst.ClauseInsert, cst.ClauseAlterTable, cst.ClauseDropTable) {
		return nil
	}

	var out []Candidate
	for _, t := range snap.AllTables() {
		completion := t.Name
		if t.Schema != "" && t.Schema != req.DefaultSchema {
			completion = t.Schema + "." + t.Name
		}
		out = append(out, Candidate{
			Label:            t.Name,
			Description:      qualifiedName(t.Schema, t.Name),
			Kind:             KindTable,
			CompletionText:   completion,
			ReplacementRange: req.ReplacementRange,
			Schema:           t.Schema,
			Table:            t.Name,
		})
	}
	return out
}

// Columns emits column candidates for tables relevant to the context:
// those the context's CST queries found mentioned, or every known table
// when nothing has been mentioned yet (§4.8).
func Columns(snap *schemacache.Snapshot, req Request) []Candidate {
	if !columnsEnabled(req.Context) {
		return nil
	}

	aliasOf := reverseAliasMap(req.Context.AliasToTable)
	var out []Candidate
	for _, t := range relevantTables(snap, req.Context) {
		alias, hasAlias := aliasOf[tableKey{t.Schema, t.Name}]
		for _, c := range t.Columns {
			completion := c.Name
			if hasAlias && req.Context.SchemaOrAlias == "" {
				completion = alias + "." + c.Name
			}
			out = append(out, Candidate{
				Label:            c.Name,
				Description:      qualifiedName(t.Schema, t.Name),
				Kind:             KindColumn,
				PreviewType:      c.Type,
				CompletionText:   completion,
				ReplacementRange: req.ReplacementRange,
				Schema:           t.Schema,
				Table:            t.Name,
				Alias:            alias,
				PrimaryKey:       c.PrimaryKey,
			})
		}
	}
	return out
}

// columnsEnabled implements the Columns row of §4.8's gating table,
// including the Join.on refinement (cursor at or after the join's ON
// keyword, i.e. inside its ON condition).
func columnsEnabled(ctx cst.Context) bool {
	if clauseIn(ctx.Clause.Kind,
		cst.ClauseSelect, cst.ClauseWhere, cst.ClauseUpdate, cst.ClauseInsert,
		cst.ClauseAlterColumn, cst.ClauseDropColumn, cst.ClauseRenameColumn,
		cst.ClauseCheckOrUsing) {
		return true
	}
	if ctx.Clause.Kind == cst.ClauseJoin && ctx.Clause.OnNode != nil {
		return ctx.AdjustedOffset >= ctx.Clause.OnNode.StartByte()
	}
	return false
}

// Schemas emits schema-name candidates whenever the wrapping clause is
// one that accepts a possibly-qualified name (§4.8): any recognised
// clause at all.
func Schemas(snap *schemacache.Snapshot, req Request) []Candidate {
	if req.Context.Clause.Kind == cst.ClauseNone {
		return nil
	}
	var out []Candidate
	for _, s := range snap.Schemas() {
		out = append(out, Candidate{
			Label:            s,
			Kind:             KindSchema,
			CompletionText:   s,
			ReplacementRange: req.ReplacementRange,
			Schema:           s,
		})
	}
	return out
}

// Functions emits function candidates in Select/Where/From (table-valued)
// positions, or whenever the cursor is inside an invocation (§4.8).
func Functions(snap *schemacache.Snapshot, req Request) []Candidate {
	if !clauseIn(req.Context.Clause.Kind, cst.ClauseSelect, cst.ClauseWhere, cst.ClauseFrom) && !req.Context.IsInvocation {
		return nil
	}
	var out []Candidate
	for _, f := range snap.AllFunctions() {
		out = append(out, Candidate{
			Label:            f.Name,
			Description:      qualifiedName(f.Schema, f.Name),
			Kind:             KindFunction,
			PreviewType:      f.ReturnType,
			CompletionText:   f.Name,
			ReplacementRange: req.ReplacementRange,
			Schema:           f.Schema,
			ArgCount:         len(f.ArgTypes),
		})
	}
	return out
}

// Policies emits policy candidates for the tables relevant to an
// AlterPolicy/DropPolicy statement (§4.8).
func Policies(snap *schemacache.Snapshot, req Request) []Candidate {
	if !clauseIn(req.Context.Clause.Kind, cst.ClauseAlterPolicy, cst.ClauseDropPolicy) {
		return nil
	}
	var out []Candidate
	for _, t := range relevantTables(snap, req.Context) {
		for _, p := range snap.Policies(t.Schema, t.Name) {
			out = append(out, Candidate{
				Label:            p.Name,
				Description:      qualifiedName(t.Schema, t.Name),
				Kind:             KindPolicy,
				CompletionText:   p.Name,
				ReplacementRange: req.ReplacementRange,
				Schema:           t.Schema,
				Table:            t.Name,
			})
		}
	}
	return out
}

// Roles emits role candidates for grant/revoke/role-management clauses
// (§4.8).
func Roles(snap *schemacache.Snapshot, req Request) []Candidate {
	if !clauseIn(req.Context.Clause.Kind,
		cst.ClauseGrantStatement, cst.ClauseRevokeStatement, cst.ClauseAlterRole, cst.ClauseDropRole) {
		return nil
	}
	var out []Candidate
	for _, r := range snap.Roles() {
		out = append(out, Candidate{
			Label:            r.Name,
			Kind:             KindRole,
			CompletionText:   r.Name,
			ReplacementRange: req.ReplacementRange,
		})
	}
	return out
}

type tableKey struct {
	Schema string
	Table  string
}

// relevantTables returns the tables the context's CST queries found
// mentioned (§4.6 step 4), resolving unqualified names across every
// known schema; with nothing mentioned yet, every known table is
// offered so an empty FROM clause still completes.
func relevantTables(snap *schemacache.Snapshot, ctx cst.Context) []*schemacache.Table {
	if len(ctx.MentionedRelations) == 0 {
		return snap.AllTables()
	}

	var out []*schemacache.Table
	for schema, names := range ctx.MentionedRelations {
		for name := range names {
			if schema != "" {
				if t, ok := snap.Table(schema, name); ok {
					out = append(out, t)
				}
				continue
			}
			for _, s := range snap.Schemas() {
				if t, ok := snap.Table(s, name); ok {
					out = append(out, t)
				}
			}
		}
	}
	return out
}

func reverseAliasMap(aliasToTable map[string]cst.TableRef) map[tableKey]string {
	out := make(map[tableKey]string, len(aliasToTable))
	for alias, ref := range aliasToTable {
		out[tableKey{ref.Schema, ref.Table}] = alias
	}
	return out
}

func clauseIn(k cst.ClauseKind, set ...cst.ClauseKind) bool {
	for _, s := range set {
		if k == s {
			return true
		}
	}
	return false
}

func qualifiedName(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
