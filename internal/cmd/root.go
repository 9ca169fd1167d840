package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/ux"
)

// Command annotations read by the root hooks
const (
	// annotationNoConfig skips config loading, for commands that must work
	// with a broken or missing config file.
	annotationNoConfig = "republic/no-config"
	// annotationLogFile sends logs to the log file instead of stderr.
	annotationLogFile = "republic/log-file"
)

var rootCmd = &cobra.Command{
	Use:   "republic",
	Short: "Health Republic marketplace client",
	Long: `republic is a command-line and terminal client for the Health Republic
marketplace, where collectives of members negotiate health plan pricing with
suppliers.

Sign in with 'republic login', then look around with 'republic dashboard' or
open the terminal UI with 'republic ui'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupCommandContext,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx. Resources opened by the
// command are released even when it fails.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	finishActive(err)
	return err
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.republic/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "backend base URL (overrides api_url)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format: text, json or yaml (overrides output)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output, including every API call")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus metrics for this run to a file (overrides metrics_file)")

	_ = rootCmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions(ux.Formats, cobra.ShellCompDirectiveNoFileComp))
	_ = rootCmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions([]string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp))
}
