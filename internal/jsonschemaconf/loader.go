// SPDX-License-Identifier: Apache-2.0

package jsonschemaconf

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dario.cat/mergo"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schema.json lives inside this package, rather than at the repository
// root the package layout otherwise mirrors, because go:embed patterns
// cannot ascend out of the embedding file's directory. A root-level copy
// would only be able to drift from this one, so there is exactly one:
// this package's. See DESIGN.md.
//
//go:embed schema.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemaVal  *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		data, err := schemaFS.ReadFile("schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("reading embedded schema.json: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema.json", bytes.NewReader(data)); err != nil {
			schemaErr = fmt.Errorf("registering embedded schema.json: %w", err)
			return
		}
		sch, err := c.Compile("schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("compiling embedded schema.json: %w", err)
			return
		}
		schemaVal = sch
	})
	return schemaVal, schemaErr
}

// Validate checks a raw configuration document (already decoded to
// map[string]any, e.g. via encoding/json) against the embedded schema.
func Validate(doc map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling configuration for validation: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding configuration for validation: %w", err)
	}
	return sch.Validate(instance)
}

// Load reads the configuration document at path, deep-merges any
// `extends` base configs (earlier entries first, the document itself
// last and therefore most specific), validates the merged result against
// schema.json, and decodes it into a Document.
func Load(path string) (*Document, error) {
	merged, err := loadMerged(path, map[string]bool{})
	if err != nil {
		return nil, err
	}

	if err := Validate(merged); err != nil {
		return nil, fmt.Errorf("configuration %s failed schema validation: %w", path, err)
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("re-marshalling merged configuration: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding merged configuration: %w", err)
	}
	return &doc, nil
}

func loadMerged(path string, seen map[string]bool) (map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving configuration path %s: %w", path, err)
	}
	if seen[abs] {
		return nil, fmt.Errorf("circular extends chain at %s", path)
	}
	seen[abs] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing configuration %s: %w", path, err)
	}

	base := map[string]any{}
	dir := filepath.Dir(path)
	for _, raw := range extendsPaths(doc) {
		parentPath := raw
		if !filepath.IsAbs(raw) {
			parentPath = filepath.Join(dir, raw)
		}
		parent, err := loadMerged(parentPath, seen)
		if err != nil {
			return nil, err
		}
		if err := mergo.Merge(&base, parent, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging extended configuration %s: %w", parentPath, err)
		}
	}
	if err := mergo.Merge(&base, doc, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging configuration %s: %w", path, err)
	}
	return base, nil
}

func extendsPaths(doc map[string]any) []string {
	raw, ok := doc["extends"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
