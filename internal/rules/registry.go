// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"embed"
	"fmt"

	"sigs.k8s.io/yaml"
)

//go:embed manifest.yaml
var manifestFS embed.FS

// Rule is a Descriptor together with whatever Body production wiring has
// registered for it. Body is nil until RegisterBody is called.
type Rule struct {
	Descriptor
	Body Body
}

// Registry is the immutable set of known rules, built once at
// configuration load (§4.10: "the registry is immutable after
// construction; configuration changes rebuild it").
type Registry struct {
	rules []Rule
	index map[string]int
}

// LoadManifest decodes the embedded rule manifest with sigs.k8s.io/yaml,
// the same library the teacher uses for its own op-schema YAML
// (pkg/migrations/op_common.go).
func LoadManifest() ([]Descriptor, error) {
	data, err := manifestFS.ReadFile("manifest.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded rule manifest: %w", err)
	}
	var descriptors []Descriptor
	if err := yaml.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("parsing embedded rule manifest: %w", err)
	}
	return descriptors, nil
}

// NewRegistry builds an immutable registry from a list of descriptors.
// It rejects duplicate (group, name) pairs and descriptors with an
// unrecognised default severity.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	reg := &Registry{index: make(map[string]int, len(descriptors))}
	for _, d := range descriptors {
		if _, ok := ParseSeverity(d.DefaultSeverity); !ok {
			return nil, fmt.Errorf("rule %s: invalid default_severity %q", d.Slug(), d.DefaultSeverity)
		}
		if _, exists := reg.index[d.Slug()]; exists {
			return nil, fmt.Errorf("duplicate rule descriptor %s", d.Slug())
		}
		reg.index[d.Slug()] = len(reg.rules)
		reg.rules = append(reg.rules, Rule{Descriptor: d})
	}
	return reg, nil
}

// RegisterBody attaches body to the descriptor already loaded for
// (group, name). It is how an external rule-body collaborator makes its
// logic reachable from the registry (§1) without the registry ever
// constructing bodies itself.
func (r *Registry) RegisterBody(group Group, name Name, body Body) error {
	slug := string(group) + "/" + string(name)
	idx, ok := r.index[slug]
	if !ok {
		return fmt.Errorf("register body: unknown rule %s", slug)
	}
	r.rules[idx].Body = body
	return nil
}

// Rule looks up one rule by (group, name).
func (r *Registry) Rule(group Group, name Name) (Rule, bool) {
	idx, ok := r.index[string(group)+"/"+string(name)]
	if !ok {
		return Rule{}, false
	}
	return r.rules[idx], true
}

// All returns every registered rule, in manifest order.
func (r *Registry) All() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}
