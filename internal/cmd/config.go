package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/healthrepublic/republic/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the configuration file",
	Long: `Settings are read from ~/.republic/config.yaml, then a .env file in the
working directory or its parents, then REPUBLIC_* environment variables, then
command-line flags. Later sources win.`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigView,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file location",
	Args:        cobra.NoArgs,
	RunE:        runConfigPath,
	Annotations: map[string]string{annotationNoConfig: "true"},
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a config file with the default settings",
	Args:        cobra.NoArgs,
	RunE:        runConfigInit,
	Annotations: map[string]string{annotationNoConfig: "true"},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")

	configCmd.AddCommand(configViewCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// configFile is --config when given, else the default location.
func (c *CommandContext) configFile() string {
	if c.ConfigFile != "" {
		return c.ConfigFile
	}
	return c.Paths.ConfigFile()
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	return cc.Print(cmd, cc.Config, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cc.Config); err != nil {
			return err
		}
		return enc.Close()
	})
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), getContext(cmd).configFile())
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	path := cc.configFile()

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists; use --force to overwrite it", path)
	}

	if err := config.Save(path, config.Default(cc.Paths)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", okStyle.Render("✓"), path)
	return writeNextSteps(cmd.OutOrStdout(), "")
}
