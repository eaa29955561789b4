// SPDX-License-Identifier: Apache-2.0

package jsonschemaconf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

const testDataDir = "./testdata"

// TestSchemaValidation mirrors the teacher's internal/jsonschema txtar
// fixture test: each fixture holds a candidate document and a bool
// literal recording whether it should validate against schema.json.
func TestSchemaValidation(t *testing.T) {
	t.Parallel()

	files, err := os.ReadDir(testDataDir)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(file.Name(), func(t *testing.T) {
			t.Parallel()

			ac, err := txtar.ParseFile(filepath.Join(testDataDir, file.Name()))
			require.NoError(t, err)
			require.Len(t, ac.Files, 2)

			var v map[string]any
			require.NoError(t, json.Unmarshal(ac.Files[0].Data, &v))

			shouldValidate, err := strconv.ParseBool(strings.TrimSpace(string(ac.Files[1].Data)))
			require.NoError(t, err)

			err = Validate(v)
			if shouldValidate {
				assert.NoError(t, err, "%s", ac.Files[0].Name)
			} else {
				assert.Error(t, err, "expected %s to be invalid", ac.Files[0].Name)
			}
		})
	}
}
