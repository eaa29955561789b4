// SPDX-License-Identifier: Apache-2.0

// Package schemacache holds the read-only view of the database catalog
// that completion providers consult (§4.5). A Snapshot is an immutable
// value; refreshing the cache builds a new Snapshot and atomically
// swaps it in, so in-flight requests keep reading a consistent view.
package schemacache

import "sort"

// Column describes one column of a table.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	Default    *string
	PrimaryKey bool
}

// Table describes one table or view within a schema.
type Table struct {
	Schema  string
	Name    string
	Columns []Column
}

// Function describes one function/procedure signature.
type Function struct {
	Schema     string
	Name       string
	ArgTypes   []string
	ReturnType string
}

// Role describes one database role.
type Role struct {
	Name string
}

// Policy describes one row-level-security policy.
type Policy struct {
	Schema string
	Table  string
	Name   string
}

// Trigger describes one trigger attached to a table.
type Trigger struct {
	Schema string
	Table  string
	Name   string
}

// Type describes one user-defined or built-in catalog type.
type Type struct {
	Schema string
	Name   string
}

// Snapshot is an immutable view of the catalog, indexed for O(1) average
// lookup by schema, by (schema, table), and by (schema, table, column)
// per §4.5.
type Snapshot struct {
	schemas map[string]bool

	// tables is indexed [schema][table].
	tables map[string]map[string]*Table
	// columns is indexed [schema][table][column] for O(1) column lookup
	// without re-scanning a table's Columns slice.
	columns map[string]map[string]map[string]*Column

	functions map[string]map[string][]*Function
	roles     map[string]*Role
	policies  map[string]map[string][]*Policy
	triggers  map[string]map[string][]*Trigger
	types     map[string]map[string]*Type

	// Version is the server version string reported by the database at
	// snapshot build time (empty if unknown), surfacing §3's "set of...
	// Versions" container.
	Version string
}

// Empty returns a Snapshot with no catalog data: the schema-unavailable
// degrade-gracefully state of §4.5/§7 (SchemaUnavailable).
func Empty() *Snapshot {
	return &Snapshot{
		schemas:   map[string]bool{},
		tables:    map[string]map[string]*Table{},
		columns:   map[string]map[string]map[string]*Column{},
		functions: map[string]map[string][]*Function{},
		roles:     map[string]*Role{},
		policies:  map[string]map[string][]*Policy{},
		triggers:  map[string]map[string][]*Trigger{},
		types:     map[string]map[string]*Type{},
	}
}

// Schemas returns the known schema names, sorted, so that callers
// ranking by name (§4.9) get a stable order across calls rather than
// whatever Go's map iteration happened to yield.
func (s *Snapshot) Schemas() []string {
	out := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasSchema reports whether schema is known.
func (s *Snapshot) HasSchema(schema string) bool {
	return s.schemas[schema]
}

// Tables returns every table known in schema, sorted by name.
func (s *Snapshot) Tables(schema string) []*Table {
	byName := s.tables[schema]
	out := make([]*Table, 0, len(byName))
	for _, t := range byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllTables returns every table across every schema, sorted by
// (schema, name) so that two same-named tables in different schemas
// (§8: "public.users"/"private.users") come back in a deterministic
// relative order for the relevance engine's stable sort to preserve.
func (s *Snapshot) AllTables() []*Table {
	var out []*Table
	for _, byName := range s.tables {
		for _, t := range byName {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Schema != out[j].Schema {
			return out[i].Schema < out[j].Schema
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Table looks up a single table by (schema, name).
func (s *Snapshot) Table(schema, name string) (*Table, bool) {
	byName, ok := s.tables[schema]
	if !ok {
		return nil, false
	}
	t, ok := byName[name]
	return t, ok
}

// Column looks up a single column by (schema, table, name).
func (s *Snapshot) Column(schema, table, name string) (*Column, bool) {
	byTable, ok := s.columns[schema]
	if !ok {
		return nil, false
	}
	byCol, ok := byTable[table]
	if !ok {
		return nil, false
	}
	c, ok := byCol[name]
	return c, ok
}

// Functions returns every function visible in schema, across all names
// and overloads, sorted by (name, return type) for a deterministic
// overload order.
func (s *Snapshot) Functions(schema string) []*Function {
	var out []*Function
	for _, overloads := range s.functions[schema] {
		out = append(out, overloads...)
	}
	sortFunctions(out)
	return out
}

// FunctionsNamed returns every overload of schema.name as a slice in load
// order; each Function carries its own argument types, and the result is
// not indexed by argument signature.
func (s *Snapshot) FunctionsNamed(schema, name string) []*Function {
	return s.functions[schema][name]
}

// AllFunctions returns every function across every schema, sorted by
// (schema, name, return type).
func (s *Snapshot) AllFunctions() []*Function {
	var out []*Function
	for _, byName := range s.functions {
		for _, fns := range byName {
			out = append(out, fns...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Schema != out[j].Schema {
			return out[i].Schema < out[j].Schema
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ReturnType < out[j].ReturnType
	})
	return out
}

func sortFunctions(fns []*Function) {
	sort.Slice(fns, func(i, j int) bool {
		if fns[i].Name != fns[j].Name {
			return fns[i].Name < fns[j].Name
		}
		return fns[i].ReturnType < fns[j].ReturnType
	})
}

// Roles returns every known role, sorted by name.
func (s *Snapshot) Roles() []*Role {
	out := make([]*Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Policies returns the policies defined on (schema, table), sorted by
// name.
func (s *Snapshot) Policies(schema, table string) []*Policy {
	out := append([]*Policy(nil), s.policies[schema][table]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Triggers returns the triggers defined on (schema, table), sorted by
// name.
func (s *Snapshot) Triggers(schema, table string) []*Trigger {
	out := append([]*Trigger(nil), s.triggers[schema][table]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Types returns every type known in schema, sorted by name.
func (s *Snapshot) Types(schema string) []*Type {
	byName := s.types[schema]
	out := make([]*Type, 0, len(byName))
	for _, ty := range byName {
		out = append(out, ty)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
