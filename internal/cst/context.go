// SPDX-License-Identifier: Apache-2.0

package cst

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ClauseKind is the closed set of "wrapping clause" tags from §3.
type ClauseKind string

const (
	ClauseNone              ClauseKind = ""
	ClauseSelect            ClauseKind = "select"
	ClauseWhere             ClauseKind = "where"
	ClauseFrom              ClauseKind = "from"
	ClauseJoin              ClauseKind = "join"
	ClauseUpdate            ClauseKind = "update"
	ClauseDelete            ClauseKind = "delete"
	ClauseColumnDefinitions ClauseKind = "column_definitions"
	ClauseInsert            ClauseKind = "insert"
	ClauseAlterTable        ClauseKind = "alter_table"
	ClauseDropTable         ClauseKind = "drop_table"
	ClauseDropColumn        ClauseKind = "drop_column"
	ClauseAlterColumn       ClauseKind = "alter_column"
	ClauseRenameColumn      ClauseKind = "rename_column"
	ClauseSetStatement      ClauseKind = "set_statement"
	ClauseAlterRole         ClauseKind = "alter_role"
	ClauseDropRole          ClauseKind = "drop_role"
	ClauseRevokeStatement   ClauseKind = "revoke_statement"
	ClauseGrantStatement    ClauseKind = "grant_statement"
	ClauseCreatePolicy      ClauseKind = "create_policy"
	ClauseAlterPolicy       ClauseKind = "alter_policy"
	ClauseDropPolicy        ClauseKind = "drop_policy"
	ClauseCheckOrUsing      ClauseKind = "check_or_using_clause"
)

// NodeKind is the closed set of "wrapping node" tags from §3.
type NodeKind string

const (
	NodeNone             NodeKind = ""
	NodeRelation         NodeKind = "relation"
	NodeBinaryExpression NodeKind = "binary_expression"
	NodeAssignment       NodeKind = "assignment"
	NodeList             NodeKind = "list"
)

// Clause carries a wrapping-clause tag plus, for Join, the nested ON clause
// node (§3: "For join, also locate a nested keyword_on child").
type Clause struct {
	Kind   ClauseKind
	OnNode *sitter.Node
}

// TableRef names a relation, with an optional schema qualifier.
type TableRef struct {
	Schema string
	Table  string
}

// Context is the ephemeral, per-request completion context of §3.
type Context struct {
	// NodeUnderCursor is the tree-sitter node at the adjusted offset, or nil
	// only when the document is empty — the builder is total (§4.6) and
	// always returns a Context, but an empty document has no node to offer.
	NodeUnderCursor *sitter.Node
	AdjustedOffset  uint32

	Clause        Clause
	WrapNode      NodeKind
	SchemaOrAlias string
	IsInvocation  bool

	// MentionedRelations: schema -> set of table names. Unqualified
	// relations are keyed under the empty schema string.
	MentionedRelations map[string]map[string]bool
	// AliasToTable: alias -> the table it refers to.
	AliasToTable map[string]TableRef
	// ClauseColumns: clause kind -> set of column names mentioned in it,
	// optionally alias-prefixed (stored as "alias.column" or "column").
	ClauseColumns map[ClauseKind]map[string]bool
}

// maxWalkDepth bounds the iterative ancestor walk so that pathologically
// deep parenthesis nesting degrades to "no clause" instead of growing the
// explicit stack without bound (§9 redesign flag).
const maxWalkDepth = 2048

var clauseNodeKinds = map[string]ClauseKind{
	"select_clause":           ClauseSelect,
	"select_statement":        ClauseSelect,
	"where_clause":            ClauseWhere,
	"from_clause":             ClauseFrom,
	"join_clause":             ClauseJoin,
	"update_statement":        ClauseUpdate,
	"delete_statement":        ClauseDelete,
	"column_definitions":      ClauseColumnDefinitions,
	"insert_statement":        ClauseInsert,
	"alter_table_statement":   ClauseAlterTable,
	"drop_table_statement":    ClauseDropTable,
	"drop_column":             ClauseDropColumn,
	"rename_column":           ClauseRenameColumn,
	"alter_column":            ClauseAlterColumn,
	"set_statement":           ClauseSetStatement,
	"alter_role_statement":    ClauseAlterRole,
	"drop_role_statement":     ClauseDropRole,
	"grant_statement":         ClauseGrantStatement,
	"revoke_statement":        ClauseRevokeStatement,
	"create_policy_statement": ClauseCreatePolicy,
	"alter_policy_statement":  ClauseAlterPolicy,
	"drop_policy_statement":   ClauseDropPolicy,
	"using_clause":            ClauseCheckOrUsing,
	"check_clause":            ClauseCheckOrUsing,
}

var wrapNodeKinds = map[string]NodeKind{
	"relation":          NodeRelation,
	"object_reference":  NodeRelation,
	"binary_expression": NodeBinaryExpression,
	"assignment":        NodeAssignment,
	"list":              NodeList,
}

// BuildContext implements the §4.6 algorithm. It is total: for any offset in
// any text (including an empty document), it returns a Context rather than
// an error, per the builder's totality contract.
func BuildContext(tree *Tree, offset int) Context {
	ctx := Context{
		MentionedRelations: map[string]map[string]bool{},
		AliasToTable:       map[string]TableRef{},
		ClauseColumns:      map[ClauseKind]map[string]bool{},
	}

	root := tree.Root()
	if root == nil || len(tree.Source) == 0 {
		return ctx
	}

	adjusted := adjustOffset(tree.Source, offset)
	ctx.AdjustedOffset = adjusted

	// Iterative descent with an explicit ancestor stack, recording
	// wrapping-clause and wrapping-node candidates as we pass through. This
	// replaces a recursive walk per the §9 redesign flag: deep nesting
	// degrades to "no clause" once maxWalkDepth is exceeded rather than
	// blowing a call stack. Since tree-sitter nodes carry no parent
	// pointer, the stack doubles as the side-table of child->parent
	// lookups the design note calls for, scoped to this one walk.
	stack := make([]*sitter.Node, 0, 64)
	cur := root
	sawInvocation := false

	for cur != nil && len(stack) < maxWalkDepth {
		stack = append(stack, cur)

		if cur.Type() == "invocation" {
			sawInvocation = true
		}
		if kind, ok := clauseNodeKinds[cur.Type()]; ok {
			clause := Clause{Kind: kind}
			if kind == ClauseJoin {
				clause.OnNode = findChildByType(cur, "keyword_on")
			}
			ctx.Clause = clause
		}
		if wk, ok := wrapNodeKinds[cur.Type()]; ok {
			skip := wk == NodeList && len(stack) >= 2 && precededByValues(stack[len(stack)-2], cur)
			if !skip {
				ctx.WrapNode = wk
			}
		}
		if cur.Type() == "ERROR" {
			recoverFromError(tree.Source, cur, &ctx)
		}

		next := childContaining(cur, adjusted)
		if next == nil {
			ctx.NodeUnderCursor = cur
			break
		}
		cur = next
	}
	// The depth guard stopped the walk before it reached a leaf: report no
	// clause rather than whichever clause was recorded last.
	if ctx.NodeUnderCursor == nil {
		ctx.Clause = Clause{}
		ctx.WrapNode = NodeNone
	}

	collectMentions(tree.Source, root, &ctx)
	ctx.SchemaOrAlias = dotQualifier(ctx.NodeUnderCursor, tree.Source, adjusted)
	ctx.IsInvocation = sawInvocation

	return ctx
}

// adjustOffset implements §4.6 step 1: step back one byte if the character
// at offset is whitespace, ';' or ')'; otherwise cap at len-1.
func adjustOffset(source []byte, offset int) uint32 {
	n := len(source)
	if n == 0 {
		return 0
	}
	if offset >= n {
		offset = n - 1
	}
	if offset < 0 {
		offset = 0
	}
	c := source[offset]
	if (c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ';' || c == ')') && offset > 0 {
		offset--
	}
	return uint32(offset)
}

// childContaining returns the child of node whose byte range contains
// offset, or nil if node has no such child (a leaf for our purposes).
func childContaining(node *sitter.Node, offset uint32) *sitter.Node {
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child != nil && child.StartByte() <= offset && offset < child.EndByte() {
			return child
		}
	}
	return nil
}

func findChildByType(node *sitter.Node, typ string) *sitter.Node {
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child != nil && child.Type() == typ {
			return child
		}
	}
	return nil
}

// precededByValues reports whether node's immediately preceding sibling
// under parent is the VALUES keyword (§4.6 step 2: "a list is only
// recognised if its immediately preceding sibling is not the VALUES
// keyword — we do not complete inside a VALUES row").
func precededByValues(parent, node *sitter.Node) bool {
	count := int(parent.ChildCount())
	for i := 0; i < count; i++ {
		if parent.Child(i) == node {
			if i == 0 {
				return false
			}
			prev := parent.Child(i - 1)
			return prev != nil && strings.EqualFold(prev.Type(), "keyword_values")
		}
	}
	return false
}

func recoverFromError(source []byte, errNode *sitter.Node, ctx *Context) {
	// §4.6 step 3: scan the ERROR node's keyword children for keyword
	// sequences, scoring each candidate clause by longest matching keyword
	// prefix, and pick the highest scorer.
	var keywords []string
	count := int(errNode.ChildCount())
	for i := 0; i < count; i++ {
		child := errNode.Child(i)
		if child != nil && strings.HasPrefix(child.Type(), "keyword_") {
			keywords = append(keywords, strings.TrimPrefix(child.Type(), "keyword_"))
		}
	}

	best, bestScore := ClauseNone, 0
	for clause, score := range keywordClauseScores(keywords) {
		if score > bestScore {
			best, bestScore = clause, score
		}
	}
	if best != ClauseNone {
		ctx.Clause = Clause{Kind: best}
	}

	if best == ClauseInsert || best == ClauseAlterColumn {
		extractErrorMentions(source, errNode, best, ctx)
	}
}

// keywordClauseScores maps a leading-keyword sequence to a score per
// candidate clause, by longest matching prefix against known sequences.
func keywordClauseScores(keywords []string) map[ClauseKind]int {
	candidates := map[ClauseKind][]string{
		ClauseSelect:      {"select"},
		ClauseFrom:        {"select", "from"},
		ClauseWhere:       {"where"},
		ClauseInsert:      {"insert", "into"},
		ClauseAlterColumn: {"alter", "table", "alter", "column"},
		ClauseAlterTable:  {"alter", "table"},
	}
	scores := map[ClauseKind]int{}
	for clause, seq := range candidates {
		n := 0
		for i := 0; i < len(seq) && i < len(keywords); i++ {
			if !strings.EqualFold(seq[i], keywords[i]) {
				break
			}
			n++
		}
		if n > 0 {
			scores[clause] = n
		}
	}
	return scores
}

// extractErrorMentions pulls mentioned tables/columns out of an ERROR
// node's children for the Insert and AlterColumn recovery paths (§4.6
// step 3, final sentence).
func extractErrorMentions(source []byte, errNode *sitter.Node, clause ClauseKind, ctx *Context) {
	count := int(errNode.ChildCount())
	for i := 0; i < count; i++ {
		child := errNode.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "object_reference":
			schema, table := splitSchemaQualified(childText(source, child))
			if ctx.MentionedRelations[schema] == nil {
				ctx.MentionedRelations[schema] = map[string]bool{}
			}
			if table != "" {
				ctx.MentionedRelations[schema][table] = true
			}
		case "column":
			if ctx.ClauseColumns[clause] == nil {
				ctx.ClauseColumns[clause] = map[string]bool{}
			}
			ctx.ClauseColumns[clause][childText(source, child)] = true
		}
	}
}

// mentionWalkItem is one pending node on collectMentions' explicit stack,
// carrying its depth so the walk can bound itself the same way
// BuildContext's ancestor descent does.
type mentionWalkItem struct {
	node  *sitter.Node
	depth int
}

// collectMentions runs the small CST query library of §4.6 step 4 over the
// whole tree, populating mentioned relations, aliases and clause columns.
// In production this is scoped per-statement by virtue of each Tree holding
// exactly one statement's text (internal/document parses one statement at a
// time into its own Tree).
//
// The walk is iterative with an explicit stack rather than recursive, per
// the §9 redesign flag: a statement with deeply nested parenthesized
// subqueries or expressions must degrade (stop descending past
// maxWalkDepth) instead of blowing the call stack.
func collectMentions(source []byte, root *sitter.Node, ctx *Context) {
	var currentClause ClauseKind

	stack := make([]mentionWalkItem, 0, 64)
	stack = append(stack, mentionWalkItem{node: root, depth: 0})

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := item.node
		if node == nil {
			continue
		}

		if kind, ok := clauseNodeKinds[node.Type()]; ok {
			currentClause = kind
		}
		switch node.Type() {
		case "relation":
			schema, table, alias := parseRelation(source, node)
			if table != "" {
				if ctx.MentionedRelations[schema] == nil {
					ctx.MentionedRelations[schema] = map[string]bool{}
				}
				ctx.MentionedRelations[schema][table] = true
				if alias != "" {
					ctx.AliasToTable[alias] = TableRef{Schema: schema, Table: table}
				}
			}
		case "column_reference":
			if currentClause == ClauseSelect || currentClause == ClauseWhere || currentClause == ClauseInsert {
				text := childText(source, node)
				if ctx.ClauseColumns[currentClause] == nil {
					ctx.ClauseColumns[currentClause] = map[string]bool{}
				}
				ctx.ClauseColumns[currentClause][text] = true
			}
		}

		if item.depth >= maxWalkDepth {
			continue
		}
		count := int(node.ChildCount())
		for i := count - 1; i >= 0; i-- {
			stack = append(stack, mentionWalkItem{node: node.Child(i), depth: item.depth + 1})
		}
	}
}

// parseRelation extracts (schema, table, alias) from a relation node of the
// shape [schema.]table [[AS] alias].
func parseRelation(source []byte, node *sitter.Node) (schema, table, alias string) {
	src := source
	count := int(node.ChildCount())
	sawName := false
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "object_reference", "identifier":
			if !sawName {
				schema, table = splitSchemaQualified(childText(src, child))
				sawName = true
			} else if alias == "" {
				alias = childText(src, child)
			}
		case "alias":
			alias = childText(src, child)
		}
	}
	return schema, table, alias
}

func splitSchemaQualified(text string) (schema, name string) {
	if idx := strings.LastIndexByte(text, '.'); idx >= 0 {
		return trimQuotes(text[:idx]), trimQuotes(text[idx+1:])
	}
	return "", trimQuotes(text)
}

func trimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

func childText(source []byte, node *sitter.Node) string {
	return NodeText(source, node)
}

// dotQualifier implements §4.6 step 5: when the node under the cursor is an
// object_reference/field of the form A.B and the cursor is strictly past
// the dot, returns "A"; otherwise "".
func dotQualifier(node *sitter.Node, source []byte, offset uint32) string {
	if node == nil {
		return ""
	}
	if node.Type() != "object_reference" && node.Type() != "field" {
		return ""
	}
	text := NodeText(source, node)
	dot := strings.IndexByte(text, '.')
	if dot < 0 {
		return ""
	}
	dotOffset := node.StartByte() + uint32(dot)
	if offset <= dotOffset {
		return ""
	}
	return trimQuotes(text[:dot])
}
