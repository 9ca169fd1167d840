package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/pages"
	"github.com/healthrepublic/republic/internal/tui"
)

var collectivesCmd = &cobra.Command{
	Use:   "collectives",
	Short: "Browse, join and manage collectives",
}

var collectivesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collectives (signed in)",
	Args:  cobra.NoArgs,
	RunE:  runCollectivesList,
}

var collectivesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "List collectives with member counts (public)",
	Args:  cobra.NoArgs,
	RunE:  runCollectivesStats,
}

var collectivesJoinCmd = &cobra.Command{
	Use:   "join <id>",
	Short: "Join a collective",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectivesJoin,
}

var collectivesLeaveCmd = &cobra.Command{
	Use:   "leave <id>",
	Short: "Leave a collective",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectivesLeave,
}

var collectivesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a collective (admin)",
	Args:  cobra.NoArgs,
	RunE:  runCollectivesCreate,
}

var collectivesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rename or recategorise a collective (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectivesUpdate,
}

var collectivesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a collective (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectivesDelete,
}

func init() {
	for _, c := range []*cobra.Command{collectivesCreateCmd, collectivesUpdateCmd} {
		c.Flags().String("name", "", "collective name")
		c.Flags().String("category", "", "collective category")
	}
	collectivesDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	collectivesCmd.AddCommand(
		collectivesListCmd,
		collectivesStatsCmd,
		collectivesJoinCmd,
		collectivesLeaveCmd,
		collectivesCreateCmd,
		collectivesUpdateCmd,
		collectivesDeleteCmd,
	)
	rootCmd.AddCommand(collectivesCmd)
}

func runCollectivesList(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}
	cs, err := cc.Client().ListCollectives(cmd.Context(), s.AccessToken())
	if err != nil {
		return err
	}
	return cc.Print(cmd, cs, func(w io.Writer) error { return collectiveTable(w, cs) })
}

func runCollectivesStats(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	page := pages.NewOverview(cc.Client())
	defer page.Close()

	if err := page.LoadDirectory(cmd.Context()); err != nil {
		return err
	}
	cs := page.Collectives.Snapshot().Data
	return cc.Print(cmd, cs, func(w io.Writer) error { return collectiveTable(w, cs) })
}

func memberCollectives(cmd *cobra.Command) (*pages.MemberCollectives, error) {
	cc := getContext(cmd)
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return nil, err
	}
	return pages.NewMemberCollectives(cc.Client(), s), nil
}

func runCollectivesJoin(cmd *cobra.Command, args []string) error {
	id, err := pages.ParseID("collective", args[0])
	if err != nil {
		return err
	}
	page, err := memberCollectives(cmd)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Join(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Joined collective %d.\n", okStyle.Render("✓"), id)
	return nil
}

func runCollectivesLeave(cmd *cobra.Command, args []string) error {
	id, err := pages.ParseID("collective", args[0])
	if err != nil {
		return err
	}
	page, err := memberCollectives(cmd)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Leave(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Left collective %d.\n", okStyle.Render("✓"), id)
	return nil
}

func collectiveForm(cmd *cobra.Command) pages.CollectiveForm {
	var f pages.CollectiveForm
	f.Name, _ = cmd.Flags().GetString("name")
	f.Category, _ = cmd.Flags().GetString("category")
	return f
}

func collectivesAdmin(cmd *cobra.Command) (*pages.CollectivesAdmin, error) {
	cc := getContext(cmd)
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return nil, err
	}
	return pages.NewCollectivesAdmin(cc.Client(), s), nil
}

func runCollectivesCreate(cmd *cobra.Command, args []string) error {
	f := collectiveForm(cmd)
	if _, err := f.ParseCreate(); err != nil {
		return err
	}
	page, err := collectivesAdmin(cmd)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Create(cmd.Context(), f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Created collective %q.\n", okStyle.Render("✓"), f.Name)
	return nil
}

func runCollectivesUpdate(cmd *cobra.Command, args []string) error {
	id, err := pages.ParseID("collective", args[0])
	if err != nil {
		return err
	}
	f := collectiveForm(cmd)
	if _, err := f.ParseUpdate(); err != nil {
		return err
	}
	page, err := collectivesAdmin(cmd)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Update(cmd.Context(), id, f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Updated collective %d.\n", okStyle.Render("✓"), id)
	return nil
}

func runCollectivesDelete(cmd *cobra.Command, args []string) error {
	id, err := pages.ParseID("collective", args[0])
	if err != nil {
		return err
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && tui.ShouldPrompt() {
		ok, err := tui.Confirm(fmt.Sprintf("Delete collective %d?", id), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	page, err := collectivesAdmin(cmd)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted collective %d.\n", okStyle.Render("✓"), id)
	return nil
}
