// SPDX-License-Identifier: Apache-2.0

package pgsqlls

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
	"github.com/pgsqlls/pgsqlls/internal/workspace"
)

var lintCmd = &cobra.Command{
	Use:   "lint [file or glob ...]",
	Short: "Run the rule filter over a set of .sql files and print results",
	Long: "lint opens each file as a one-shot document, runs the configured\n" +
		"rule set against it, and prints every diagnostic in a table,\n" +
		"mirroring the teacher's pterm-driven interactive output.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := newWorkspace(ctx)
		if err != nil {
			return err
		}
		defer ws.Close()

		files, err := sqlFiles(args)
		if err != nil {
			return err
		}

		results, err := lintFiles(ctx, ws, files)
		if err != nil {
			return err
		}
		printLintResults(results)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

type fileDiagnostic struct {
	path string
	d    workspace.Diagnostic
}

// lintFiles opens each path as an independent document (URI
// "file://<path>"), pulls its diagnostics, and closes it again so
// repeated invocations don't leak into the workspace's document map.
func lintFiles(ctx context.Context, ws *workspace.Workspace, files []string) ([]fileDiagnostic, error) {
	var out []fileDiagnostic
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		uri := "file://" + path
		if err := ws.OpenDocument(uri, 1, string(data)); err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		diags, err := ws.PullDiagnostics(ctx, uri)
		_ = ws.CloseDocument(uri)
		if err != nil {
			return nil, fmt.Errorf("linting %s: %w", path, err)
		}
		for _, d := range diags {
			out = append(out, fileDiagnostic{path: path, d: d})
		}
	}
	return out, nil
}

func printLintResults(results []fileDiagnostic) {
	if len(results) == 0 {
		pterm.Success.Println("no findings")
		return
	}

	data := pterm.TableData{{"FILE", "SEVERITY", "CODE", "MESSAGE"}}
	for _, r := range results {
		data = append(data, []string{
			r.path,
			severityLabel(r.d.Severity),
			r.d.Code,
			r.d.Message,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func severityLabel(s pgastparse.Severity) string {
	switch s {
	case pgastparse.SeverityError:
		return "error"
	case pgastparse.SeverityWarning:
		return "warn"
	case pgastparse.SeverityInfo:
		return "info"
	case pgastparse.SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}
