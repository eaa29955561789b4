// SPDX-License-Identifier: Apache-2.0

package pgsqlls

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
)

var checkCmd = &cobra.Command{
	Use:   "check [file or glob ...]",
	Short: "Parse files and fail if any carries an error-severity diagnostic",
	Long: "check runs the same parse and lint pipeline as lint, but prints\n" +
		"one line per error-severity diagnostic (or a single success line\n" +
		"when there are none) and exits non-zero if any diagnostic is error\n" +
		"severity, for use in CI.",
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

		failed := false
		for _, r := range results {
			if r.d.Severity == pgastparse.SeverityError {
				failed = true
				pterm.Error.Printf("%s: %s: %s\n", r.path, r.d.Code, r.d.Message)
			}
		}
		if failed {
			return fmt.Errorf("check found error-severity diagnostics")
		}
		pterm.Success.Printf("checked %d file(s), no errors\n", len(files))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
