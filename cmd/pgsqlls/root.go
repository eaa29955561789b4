// SPDX-License-Identifier: Apache-2.0

// Package pgsqlls is the cobra entrypoint for the pgsqlls binary,
// structured like the teacher's cmd/root.go: a package-level rootCmd, an
// Execute entrypoint, subcommands registered from each subcommand's
// own init.
package pgsqlls

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	dbURL   string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pgsqlls",
	Short: "A language server and CLI for PostgreSQL SQL files",
	Long: "pgsqlls analyses .sql files: incremental parsing, context-aware\n" +
		"completion against a live catalog, and rule-based linting, over\n" +
		"either the Language Server Protocol (`serve`) or a one-shot CLI\n" +
		"(`lint`, `check`).",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			pterm.EnableDebugMessages()
		}
		return nil
	},
}

// Execute runs the root command; main calls this and exits non-zero on
// error, the same shape as the teacher's cmd.Execute.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a pgsqlls configuration file (JSON)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "postgres:// connection string for schema-aware completion and linting")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	viper.SetEnvPrefix("PGSQLLS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_ = viper.BindPFlag("db-url", rootCmd.PersistentFlags().Lookup("db-url"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintln(os.Stderr, pterm.Error.Sprintf("reading config file: %v", err))
		}
	}
}
