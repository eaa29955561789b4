// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
)

// Filter resolves the §4.10 enabled-set formula and severity overrides
// against an immutable Registry. A Filter is rebuilt whenever
// update_settings (§6) supplies new configuration; it is never mutated
// in place.
type Filter struct {
	registry *Registry
	config   Config
}

// NewFilter pairs a registry with resolved configuration.
func NewFilter(registry *Registry, config Config) *Filter {
	return &Filter{registry: registry, config: config}
}

func (f *Filter) override(group Group, name Name) (Override, bool) {
	gc, ok := f.config.Groups[group]
	if !ok {
		return Override{}, false
	}
	ov, ok := gc.Rules[name]
	return ov, ok
}

// groupPresets resolves the effective all/recommended toggles for group,
// falling back to the root-level toggles when the group doesn't set its
// own (§6: "Global `recommended` and `all` live at the `rules` root").
func (f *Filter) groupPresets(group Group) (all, recommended bool) {
	all = f.config.All != nil && *f.config.All
	recommended = f.config.Recommended != nil && *f.config.Recommended

	gc, ok := f.config.Groups[group]
	if !ok {
		return all, recommended
	}
	if gc.All != nil {
		all = *gc.All
	}
	if gc.Recommended != nil {
		recommended = *gc.Recommended
	}
	return all, recommended
}

// Enabled implements §4.10's formula:
//
//	enabled = (∪ over groups of (all? all_in_group : recommended? recommended_in_group : ∅)
//	           + per-rule `on`) − per-rule `off`
//
// where a per-rule override of "warn" or "error" counts as explicitly
// "on" regardless of the group's preset, and "off" always wins.
func (f *Filter) Enabled(rule Rule) bool {
	if ov, ok := f.override(rule.Group, rule.Name); ok {
		switch ov.Level {
		case "off":
			return false
		case "warn", "error":
			return true
		}
	}
	all, recommended := f.groupPresets(rule.Group)
	if all {
		return true
	}
	return recommended && rule.Recommended
}

// Severity resolves a rule's effective severity: the per-rule override
// first, the descriptor's default otherwise (§4.10).
func (f *Filter) Severity(rule Rule) pgastparse.Severity {
	if ov, ok := f.override(rule.Group, rule.Name); ok && ov.Level != "" && ov.Level != "off" {
		if sev, ok := ParseSeverity(ov.Level); ok {
			return sev
		}
	}
	if sev, ok := ParseSeverity(rule.DefaultSeverity); ok {
		return sev
	}
	return pgastparse.SeverityError
}

// Ignored reports whether rule is suppressed for path, consulting both
// the rule's own default ignore globs and the per-rule override's
// "ignore" option.
func (f *Filter) Ignored(rule Rule, path string) bool {
	if ov, ok := f.override(rule.Group, rule.Name); ok {
		for _, g := range ov.ignoreGlobs() {
			if matchGlob(g, path) {
				return true
			}
		}
	}
	for _, g := range rule.Ignore {
		if matchGlob(g, path) {
			return true
		}
	}
	return false
}

// Run evaluates every enabled, non-ignored, version-eligible rule with a
// registered Body against ctx and returns the resolved diagnostics.
func (f *Filter) Run(ctx Context, path string) []Diagnostic {
	var out []Diagnostic
	serverVersion := ""
	if ctx.Snapshot != nil {
		serverVersion = ctx.Snapshot.Version
	}

	for _, rule := range f.registry.All() {
		if rule.Body == nil {
			continue
		}
		if !f.Enabled(rule) {
			continue
		}
		if f.Ignored(rule, path) {
			continue
		}
		if !meetsMinVersion(serverVersion, rule.MinServerVersion) {
			continue
		}

		sev := f.Severity(rule)
		code := fmt.Sprintf("lint/%s/%s", rule.Group, rule.Name)
		for _, finding := range rule.Body(ctx) {
			resolved := sev
			if finding.Severity != nil {
				resolved = *finding.Severity
			}
			out = append(out, Diagnostic{
				Range:               finding.Range,
				Severity:            resolved,
				Code:                code,
				Message:             finding.Message,
				CodeDescriptionHref: rule.CodeDescriptionHref,
			})
		}
	}
	return out
}

// matchGlob matches pattern against path one path segment at a time via
// filepath.Match. `**` cross-segment matching is intentionally not
// supported (no pack repo pulls in a doublestar-style library for it;
// see DESIGN.md); a bare basename match is tried as a fallback so a
// pattern like "*.sql" still matches a path with leading directories.
func matchGlob(pattern, path string) bool {
	pattern = filepath.ToSlash(pattern)
	path = filepath.ToSlash(path)

	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}
	ok, err := filepath.Match(pattern, filepath.Base(path))
	return err == nil && ok
}

var versionPrefix = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// meetsMinVersion reports whether serverVersion (as reported by `SHOW
// server_version`, e.g. "16.2 (Debian 16.2-1.pgdg120+2)") is at or above
// minVersion (e.g. "12"). An empty minVersion never gates. An
// unrecognised serverVersion degrades to "don't gate" rather than
// silently disabling the rule.
func meetsMinVersion(serverVersion, minVersion string) bool {
	if minVersion == "" {
		return true
	}
	sv := normalizeVersion(serverVersion)
	if sv == "" {
		return true
	}
	mv := normalizeVersion(minVersion)
	return semver.Compare(sv, mv) >= 0
}

func normalizeVersion(raw string) string {
	m := versionPrefix.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return ""
	}
	major, minor, patch := m[1], m[2], m[3]
	if minor == "" {
		minor = "0"
	}
	if patch == "" {
		patch = "0"
	}
	return "v" + major + "." + minor + "." + patch
}
