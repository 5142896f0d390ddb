package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/razao/internal/buildinfo"
	"github.com/cleared-dev/razao/internal/config"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath  string
	envFile     string
	metricsFile string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "razao",
		Short:   "Double-entry ledger derived from financial movements",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.FileName, "configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "environment file loaded before RAZAO_* overrides")
	rootCmd.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newLedgerCommand(opts))
	rootCmd.AddCommand(newPostingCommand(opts))

	return rootCmd
}
