// SPDX-License-Identifier: Apache-2.0

// Package jsonschemaconf loads and validates the configuration document
// (§6): JSON, schema-checked against an embedded schema.json, with
// `extends` base configs deep-merged in order before validation.
// Grounded on the teacher's internal/jsonschema package and its root
// schema.json + txtar-fixture test style.
package jsonschemaconf

import "github.com/pgsqlls/pgsqlls/internal/rules"

// DBConfig is the "db" section: connection parameters for the database
// the linter and execute_command consult (§6, §11.3).
type DBConfig struct {
	Host              string `json:"host,omitempty"`
	Port              int    `json:"port,omitempty"`
	Username          string `json:"username,omitempty"`
	Password          string `json:"password,omitempty"`
	Database          string `json:"database,omitempty"`
	ConnTimeoutSecs   int    `json:"conn_timeout_secs,omitempty"`
	DisableConnection bool   `json:"disable_connection,omitempty"`
}

// ActionPresets reuses RulePresets' all/recommended/per-name-override
// shape for the "assists.actions" section (§6: "ActionPresets"), since
// the two are structurally identical and internal/rules already owns
// the tricky string-or-object override decoding.
type ActionPresets = rules.Config

// LinterConfig is the "linter" section.
type LinterConfig struct {
	Enabled bool         `json:"enabled,omitempty"`
	Rules   rules.Config `json:"rules,omitempty"`
	Ignore  []string     `json:"ignore,omitempty"`
	Include []string     `json:"include,omitempty"`
}

// AssistsConfig is the "assists" section.
type AssistsConfig struct {
	Enabled bool          `json:"enabled,omitempty"`
	Actions ActionPresets `json:"actions,omitempty"`
	Ignore  []string      `json:"ignore,omitempty"`
	Include []string      `json:"include,omitempty"`
}

// FilesConfig is the "files" section.
type FilesConfig struct {
	Include []string `json:"include,omitempty"`
	Ignore  []string `json:"ignore,omitempty"`
	MaxSize int      `json:"max_size,omitempty"`
}

// Document is the fully resolved configuration document (§6), after
// `extends` has been merged and the result validated against
// schema.json.
type Document struct {
	DB      DBConfig      `json:"db,omitempty"`
	Linter  LinterConfig  `json:"linter,omitempty"`
	Assists AssistsConfig `json:"assists,omitempty"`
	Files   FilesConfig   `json:"files,omitempty"`
	Extends []string      `json:"extends,omitempty"`
}
