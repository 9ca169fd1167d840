package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/pages"
)

var lookupsCmd = &cobra.Command{
	Use:   "lookups",
	Short: "List the values registration accepts",
	Args:  cobra.NoArgs,
	RunE:  runLookups,
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show marketplace totals and the featured collectives",
	Args:  cobra.NoArgs,
	RunE:  runOverview,
}

func init() {
	rootCmd.AddCommand(lookupsCmd, overviewCmd)
}

func runLookups(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	page := pages.NewRegister(cc.Client())
	defer page.Close()

	if err := page.Load(cmd.Context()); err != nil {
		return err
	}
	l := page.Lookups.Snapshot().Data
	return cc.Print(cmd, l, func(w io.Writer) error {
		if l == nil {
			return nil
		}
		for _, group := range []struct {
			title  string
			values []string
		}{
			{"Age ranges", l.AgeRanges},
			{"Industries", l.Industries},
			{"Roles", l.Roles},
			{"User types", l.UserTypes},
		} {
			writeTitle(w, group.title)
			if len(group.values) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("  none"))
				continue
			}
			fmt.Fprintln(w, "  "+strings.Join(group.values, ", "))
		}
		return nil
	})
}

func runOverview(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	page := pages.NewOverview(cc.Client())
	defer page.Close()

	if err := page.Load(cmd.Context()); err != nil {
		return err
	}
	o := page.Overview.Snapshot().Data
	return cc.Print(cmd, o, func(w io.Writer) error {
		if o == nil {
			return nil
		}
		writeTitle(w, "Health Republic")
		fmt.Fprintf(w, "Members:   %d\n", o.TotalMembers)
		fmt.Fprintf(w, "Insurers:  %d\n", o.TotalInsurers)
		fmt.Fprintf(w, "Providers: %d\n\n", o.TotalProviders)
		writeTitle(w, "Collectives")
		return collectiveTable(w, o.Collectives)
	})
}
