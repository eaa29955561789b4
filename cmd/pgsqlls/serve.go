// SPDX-License-Identifier: Apache-2.0

package pgsqlls

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pgsqlls/pgsqlls/internal/workspace"
	"github.com/pgsqlls/pgsqlls/lsp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server over stdio",
	Long: "serve starts pgsqlls as a Language Server Protocol server,\n" +
		"communicating over stdin/stdout, the way an editor launches it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ws, err := newWorkspace(ctx)
		if err != nil {
			return err
		}
		defer ws.Close()

		return lsp.Serve(ctx, stdio{}, ws, workspace.NewLogger())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// stdio adapts os.Stdin/os.Stdout into the single io.ReadWriteCloser
// jsonrpc2's stream codec wants.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
