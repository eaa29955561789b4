// SPDX-License-Identifier: Apache-2.0

package schemacache

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the subset of *sql.DB the builder needs, so tests can swap
// in a fake (see fake.go) without a live database connection.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const querySchemas = `
SELECT nspname FROM pg_catalog.pg_namespace
WHERE nspname NOT LIKE 'pg\_%' AND nspname <> 'information_schema'`

const queryTablesAndColumns = `
SELECT n.nspname, c.relname, a.attname, format_type(a.atttypid, a.atttypmod),
       NOT a.attnotnull, pg_get_expr(d.adbin, d.adrelid),
       COALESCE(i.indisprimary, false)
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_catalog.pg_attrdef d ON d.adrelid = c.oid AND d.adnum = a.attnum
LEFT JOIN pg_catalog.pg_index i ON i.indrelid = c.oid AND a.attnum = ANY(i.indkey) AND i.indisprimary
WHERE c.relkind IN ('r', 'v', 'm', 'p', 'f')
  AND a.attnum > 0 AND NOT a.attisdropped
  AND n.nspname NOT LIKE 'pg\_%' AND n.nspname <> 'information_schema'
ORDER BY n.nspname, c.relname, a.attnum`

const queryFunctions = `
SELECT n.nspname, p.proname, pg_get_function_arguments(p.oid), format_type(p.prorettype, NULL)
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
WHERE n.nspname NOT LIKE 'pg\_%' AND n.nspname <> 'information_schema'`

const queryRoles = `SELECT rolname FROM pg_catalog.pg_roles`

const queryPolicies = `
SELECT n.nspname, c.relname, pol.polname
FROM pg_catalog.pg_policy pol
JOIN pg_catalog.pg_class c ON c.oid = pol.polrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace`

const queryTriggers = `
SELECT n.nspname, c.relname, t.tgname
FROM pg_catalog.pg_trigger t
JOIN pg_catalog.pg_class c ON c.oid = t.tgrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE NOT t.tgisinternal`

const queryTypes = `
SELECT n.nspname, t.typname
FROM pg_catalog.pg_type t
JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
WHERE n.nspname NOT LIKE 'pg\_%' AND n.nspname <> 'information_schema'
  AND (t.typrelid = 0 OR (SELECT c.relkind = 'c' FROM pg_catalog.pg_class c WHERE c.oid = t.typrelid))`

const queryVersion = `SHOW server_version`

// Build queries q once and assembles a Snapshot. On any catalog query
// error the partial work is discarded and the error returned (a failed
// server-version lookup only leaves Snapshot.Version empty) — per §4.5 "the
// builder fails fast on connection errors" — it is the caller's
// responsibility to retain the prior snapshot on failure.
func Build(ctx context.Context, q Querier) (*Snapshot, error) {
	snap := Empty()

	if err := loadSchemas(ctx, q, snap); err != nil {
		return nil, fmt.Errorf("loading schemas: %w", err)
	}
	if err := loadTablesAndColumns(ctx, q, snap); err != nil {
		return nil, fmt.Errorf("loading tables: %w", err)
	}
	if err := loadFunctions(ctx, q, snap); err != nil {
		return nil, fmt.Errorf("loading functions: %w", err)
	}
	if err := loadRoles(ctx, q, snap); err != nil {
		return nil, fmt.Errorf("loading roles: %w", err)
	}
	if err := loadPolicies(ctx, q, snap); err != nil {
		return nil, fmt.Errorf("loading policies: %w", err)
	}
	if err := loadTriggers(ctx, q, snap); err != nil {
		return nil, fmt.Errorf("loading triggers: %w", err)
	}
	if err := loadTypes(ctx, q, snap); err != nil {
		return nil, fmt.Errorf("loading types: %w", err)
	}

	var version string
	if err := q.QueryRowContext(ctx, queryVersion).Scan(&version); err == nil {
		snap.Version = version
	}

	return snap, nil
}

func loadSchemas(ctx context.Context, q Querier, snap *Snapshot) error {
	rows, err := q.QueryContext(ctx, querySchemas)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		snap.schemas[name] = true
	}
	return rows.Err()
}

func loadTablesAndColumns(ctx context.Context, q Querier, snap *Snapshot) error {
	rows, err := q.QueryContext(ctx, queryTablesAndColumns)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, column, typ string
		var nullable, primaryKey bool
		var def *string
		if err := rows.Scan(&schema, &table, &column, &typ, &nullable, &def, &primaryKey); err != nil {
			return err
		}

		if snap.tables[schema] == nil {
			snap.tables[schema] = map[string]*Table{}
		}
		t, ok := snap.tables[schema][table]
		if !ok {
			t = &Table{Schema: schema, Name: table}
			snap.tables[schema][table] = t
		}
		col := Column{Name: column, Type: typ, Nullable: nullable, Default: def, PrimaryKey: primaryKey}
		t.Columns = append(t.Columns, col)

		if snap.columns[schema] == nil {
			snap.columns[schema] = map[string]map[string]*Column{}
		}
		if snap.columns[schema][table] == nil {
			snap.columns[schema][table] = map[string]*Column{}
		}
		snap.columns[schema][table][column] = &t.Columns[len(t.Columns)-1]
	}
	return rows.Err()
}

func loadFunctions(ctx context.Context, q Querier, snap *Snapshot) error {
	rows, err := q.QueryContext(ctx, queryFunctions)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schema, name, args, ret string
		if err := rows.Scan(&schema, &name, &args, &ret); err != nil {
			return err
		}
		if snap.functions[schema] == nil {
			snap.functions[schema] = map[string][]*Function{}
		}
		snap.functions[schema][name] = append(snap.functions[schema][name], &Function{
			Schema: schema, Name: name, ArgTypes: splitArgs(args), ReturnType: ret,
		})
	}
	return rows.Err()
}

func loadRoles(ctx context.Context, q Querier, snap *Snapshot) error {
	rows, err := q.QueryContext(ctx, queryRoles)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		snap.roles[name] = &Role{Name: name}
	}
	return rows.Err()
}

func loadPolicies(ctx context.Context, q Querier, snap *Snapshot) error {
	rows, err := q.QueryContext(ctx, queryPolicies)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, name string
		if err := rows.Scan(&schema, &table, &name); err != nil {
			return err
		}
		if snap.policies[schema] == nil {
			snap.policies[schema] = map[string][]*Policy{}
		}
		snap.policies[schema][table] = append(snap.policies[schema][table], &Policy{Schema: schema, Table: table, Name: name})
	}
	return rows.Err()
}

func loadTriggers(ctx context.Context, q Querier, snap *Snapshot) error {
	rows, err := q.QueryContext(ctx, queryTriggers)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, name string
		if err := rows.Scan(&schema, &table, &name); err != nil {
			return err
		}
		if snap.triggers[schema] == nil {
			snap.triggers[schema] = map[string][]*Trigger{}
		}
		snap.triggers[schema][table] = append(snap.triggers[schema][table], &Trigger{Schema: schema, Table: table, Name: name})
	}
	return rows.Err()
}

func loadTypes(ctx context.Context, q Querier, snap *Snapshot) error {
	rows, err := q.QueryContext(ctx, queryTypes)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return err
		}
		if snap.types[schema] == nil {
			snap.types[schema] = map[string]*Type{}
		}
		snap.types[schema][name] = &Type{Schema: schema, Name: name}
	}
	return rows.Err()
}

// splitArgs is a best-effort split of postgres's comma-separated argument
// list; it does not need to be exact since argument count, not type
// parsing, is what the relevance engine consults (§4.9).
func splitArgs(args string) []string {
	if args == "" {
		return nil
	}
	var out []string
	depth := 0
	start := 0
	for i, r := range args {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, args[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, args[start:])
	return out
}
