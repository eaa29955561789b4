// SPDX-License-Identifier: Apache-2.0

package pgsqlls

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pgsqlls/pgsqlls/internal/jsonschemaconf"
	"github.com/pgsqlls/pgsqlls/internal/rules"
	"github.com/pgsqlls/pgsqlls/internal/workspace"
)

// newWorkspace builds a Workspace and applies whatever configuration was
// supplied via --config or --db-url/PGSQLLS_DB_URL, then primes the
// schema snapshot for subcommands that run against a live database.
func newWorkspace(ctx context.Context) (*workspace.Workspace, error) {
	ws, err := workspace.New(workspace.WithLogger(workspace.NewLogger()))
	if err != nil {
		return nil, err
	}

	doc, err := loadConfigDocument()
	if err != nil {
		return nil, err
	}
	if err := ws.UpdateSettings(doc); err != nil {
		return nil, fmt.Errorf("applying configuration: %w", err)
	}
	if err := ws.RefreshSchema(ctx); err != nil {
		// A schema refresh failure degrades completion/linting gracefully
		// (§4.5); the CLI just tells the operator rather than failing.
		fmt.Fprintf(os.Stderr, "warning: schema snapshot unavailable: %v\n", err)
	}
	return ws, nil
}

// loadConfigDocument resolves --config (full JSON document, schema
// validated, `extends` merged) or, absent that, a minimal document built
// from --db-url/PGSQLLS_DB_URL with the "recommended" rule preset on.
func loadConfigDocument() (*jsonschemaconf.Document, error) {
	if cfgFile != "" {
		return jsonschemaconf.Load(cfgFile)
	}

	recommended := true
	doc := &jsonschemaconf.Document{
		Linter: jsonschemaconf.LinterConfig{
			Enabled: true,
			Rules:   rules.Config{Recommended: &recommended},
		},
	}

	raw := viper.GetString("db-url")
	if raw == "" {
		return doc, nil
	}
	cfg, err := dbConfigFromURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing --db-url: %w", err)
	}
	doc.DB = cfg
	return doc, nil
}

// dbConfigFromURL decomposes a postgres:// URL into the fields
// internal/workspace's connectDB expects, since that constructor only
// takes a structured DBConfig, never a raw DSN.
func dbConfigFromURL(raw string) (jsonschemaconf.DBConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return jsonschemaconf.DBConfig{}, err
	}

	cfg := jsonschemaconf.DBConfig{
		Host:     u.Hostname(),
		Database: trimLeadingSlash(u.Path),
	}
	if port := u.Port(); port != "" {
		fmt.Sscanf(port, "%d", &cfg.Port)
	}
	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	return cfg, nil
}

func trimLeadingSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}

// sqlFiles expands the positional file/glob arguments of lint and check
// into a deduplicated list of paths, in argument order (glob matches in
// filepath.Glob's order). A pattern that matches nothing is passed through
// as a literal path; paths are not filtered by extension.
func sqlFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}
