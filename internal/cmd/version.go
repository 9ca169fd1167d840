package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	Args:        cobra.NoArgs,
	RunE:        runVersion,
	Annotations: map[string]string{annotationNoConfig: "true"},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	info := version.GetInfo()

	return cc.Print(cmd, info, func(w io.Writer) error {
		if cc.Verbose {
			writeTitle(w, "republic")
			fmt.Fprintln(w, mutedStyle.Render("Health Republic marketplace client"))
			fmt.Fprintln(w)
			_, err := fmt.Fprintln(w, info.String())
			return err
		}
		_, err := fmt.Fprintf(w, "republic %s\n", info.Short())
		return err
	})
}
