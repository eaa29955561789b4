// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"encoding/json"
	"fmt"
)

// Override is a per-rule configuration entry: either a bare level string
// ("off"|"warn"|"error") or an object carrying a level plus rule-specific
// options (§6: `"<ruleName>": "off"|"warn"|"error"|{level, options}`).
type Override struct {
	Level   string
	Options map[string]any
}

// UnmarshalJSON accepts either JSON form §6 allows for a rule override.
func (o *Override) UnmarshalJSON(data []byte) error {
	var level string
	if err := json.Unmarshal(data, &level); err == nil {
		o.Level = level
		o.Options = nil
		return nil
	}

	var obj struct {
		Level   string         `json:"level"`
		Options map[string]any `json:"options"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("rule override must be a level string or {level, options} object: %w", err)
	}
	o.Level = obj.Level
	o.Options = obj.Options
	return nil
}

// ignoreGlobs reads the "ignore" option, if present, as a list of globs.
func (o Override) ignoreGlobs() []string {
	raw, ok := o.Options["ignore"]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GroupConfig is one group's entry within the "rules" configuration
// object: its own all/recommended toggle plus per-rule overrides.
type GroupConfig struct {
	All         *bool
	Recommended *bool
	Rules       map[Name]Override
}

// UnmarshalJSON treats every key besides the two reserved preset toggles
// as a rule name mapping to an Override.
func (g *GroupConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.Rules = make(map[Name]Override, len(raw))
	for key, val := range raw {
		switch key {
		case "all":
			var b bool
			if err := json.Unmarshal(val, &b); err != nil {
				return fmt.Errorf("rules group %q: %w", key, err)
			}
			g.All = &b
		case "recommended":
			var b bool
			if err := json.Unmarshal(val, &b); err != nil {
				return fmt.Errorf("rules group %q: %w", key, err)
			}
			g.Recommended = &b
		default:
			var o Override
			if err := json.Unmarshal(val, &o); err != nil {
				return fmt.Errorf("rule %q: %w", key, err)
			}
			g.Rules[Name(key)] = o
		}
	}
	return nil
}

// Config is the "linter.rules" configuration object (§6): a global
// all/recommended default at the root, plus one GroupConfig per group
// name the caller has configured.
type Config struct {
	All         *bool
	Recommended *bool
	Groups      map[Group]GroupConfig
}

// UnmarshalJSON treats every key besides the two reserved global preset
// toggles as a group name mapping to a GroupConfig.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Groups = make(map[Group]GroupConfig, len(raw))
	for key, val := range raw {
		switch key {
		case "all":
			var b bool
			if err := json.Unmarshal(val, &b); err != nil {
				return fmt.Errorf("rules.%s: %w", key, err)
			}
			c.All = &b
		case "recommended":
			var b bool
			if err := json.Unmarshal(val, &b); err != nil {
				return fmt.Errorf("rules.%s: %w", key, err)
			}
			c.Recommended = &b
		default:
			var gc GroupConfig
			if err := json.Unmarshal(val, &gc); err != nil {
				return fmt.Errorf("rules.%s: %w", key, err)
			}
			c.Groups[Group(key)] = gc
		}
	}
	return nil
}
