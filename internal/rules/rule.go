// SPDX-License-Identifier: Apache-2.0

// Package rules models the lint rule registry and the preset/override
// filter described by the configuration document's "linter" section
// (§4.10, §6). Rule descriptors are data: group, name, default severity,
// recommended flag, ignore globs. Rule bodies are external collaborators
// (§1, out of scope) — the registry only ever dispatches to a Body a caller
// has registered; it never constructs one itself.
package rules

import "github.com/pgsqlls/pgsqlls/internal/pgastparse"

// Group names a family of related rules, e.g. "correctness" or "style".
type Group string

// Name identifies one rule within a Group.
type Name string

// Descriptor is the data shape of one rule, loaded from the embedded
// manifest. It carries no behaviour: Registry.RegisterBody attaches the
// Body that implements it.
type Descriptor struct {
	Group Group `json:"group" yaml:"group"`
	Name  Name  `json:"name" yaml:"name"`

	// DefaultSeverity is one of "error", "warning", "info", "hint" and is
	// used when no per-rule override sets a different level.
	DefaultSeverity string `json:"default_severity" yaml:"default_severity"`

	// Recommended marks this rule as part of a group's "recommended"
	// preset, consulted by the enabled-set formula (§4.10).
	Recommended bool `json:"recommended" yaml:"recommended"`

	// Ignore holds the rule's own default ignore globs, matched against
	// the document's URI/path. Per-rule config options may add more.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`

	// MinServerVersion gates the rule to servers at or above this
	// version (e.g. "12"), compared against the schema snapshot's
	// reported server version. Empty means no gate.
	MinServerVersion string `json:"min_server_version,omitempty" yaml:"min_server_version,omitempty"`

	// CodeDescriptionHref, when set, becomes the Diagnostic's
	// code_description_href (§6).
	CodeDescriptionHref string `json:"href,omitempty" yaml:"href,omitempty"`
}

// Slug is the "<group>/<name>" form used as the registry's lookup key and
// as the middle two segments of a Diagnostic's Code (§6).
func (d Descriptor) Slug() string {
	return string(d.Group) + "/" + string(d.Name)
}

// ParseSeverity maps a configuration-facing severity string onto
// pgastparse.Severity, the same four-level enum diagnostics already use
// elsewhere in this repo (§6's {error, warning, info, hint}).
func ParseSeverity(s string) (pgastparse.Severity, bool) {
	switch s {
	case "error":
		return pgastparse.SeverityError, true
	case "warning", "warn":
		return pgastparse.SeverityWarning, true
	case "info":
		return pgastparse.SeverityInfo, true
	case "hint":
		return pgastparse.SeverityHint, true
	default:
		return pgastparse.SeverityError, false
	}
}
