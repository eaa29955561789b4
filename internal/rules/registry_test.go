// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifestDecodesEmbeddedRules(t *testing.T) {
	t.Parallel()

	descriptors, err := LoadManifest()
	require.NoError(t, err)
	assert.NotEmpty(t, descriptors)

	for _, d := range descriptors {
		assert.NotEmpty(t, d.Group)
		assert.NotEmpty(t, d.Name)
		_, ok := ParseSeverity(d.DefaultSeverity)
		assert.True(t, ok, "rule %s has invalid default_severity %q", d.Slug(), d.DefaultSeverity)
	}
}

func TestNewRegistryRejectsDuplicateSlug(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry([]Descriptor{
		{Group: "g", Name: "r", DefaultSeverity: "error"},
		{Group: "g", Name: "r", DefaultSeverity: "warning"},
	})
	assert.Error(t, err)
}

func TestNewRegistryRejectsUnknownSeverity(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry([]Descriptor{{Group: "g", Name: "r", DefaultSeverity: "catastrophic"}})
	assert.Error(t, err)
}

func TestRegisterBodyAttachesToKnownRule(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry([]Descriptor{{Group: "g", Name: "r", DefaultSeverity: "error"}})
	require.NoError(t, err)

	body := func(Context) []Finding { return nil }
	require.NoError(t, reg.RegisterBody("g", "r", body))

	rule, ok := reg.Rule("g", "r")
	require.True(t, ok)
	assert.NotNil(t, rule.Body)
}

func TestRegisterBodyRejectsUnknownRule(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(nil)
	require.NoError(t, err)

	err = reg.RegisterBody("g", "r", func(Context) []Finding { return nil })
	assert.Error(t, err)
}

func TestAllReturnsACopyNotTheLiveSlice(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry([]Descriptor{{Group: "g", Name: "r", DefaultSeverity: "error"}})
	require.NoError(t, err)

	all := reg.All()
	all[0].Body = func(Context) []Finding { return nil }

	rule, ok := reg.Rule("g", "r")
	require.True(t, ok)
	assert.Nil(t, rule.Body)
}
