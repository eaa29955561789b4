// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"fmt"

	"github.com/pgsqlls/pgsqlls/internal/jsonschemaconf"
	"github.com/pgsqlls/pgsqlls/internal/rules"
)

// UpdateSettings implements `update_settings(configuration)` (§6):
// rebuilds the rule filter and reconnects to the database described by
// the "db" section. Per §7's ConfigError policy, a failure here leaves
// the prior configuration (filter and db connection) untouched.
func (w *Workspace) UpdateSettings(doc *jsonschemaconf.Document) error {
	newFilter := rules.NewFilter(w.registry, doc.Linter.Rules)

	if err := w.connectDB(doc.DB); err != nil {
		return ConfigError{Cause: fmt.Errorf("connecting to configured database: %w", err)}
	}

	w.filterMu.Lock()
	w.filter = newFilter
	w.filterMu.Unlock()

	w.logger.LogUpdateSettings()
	return nil
}
