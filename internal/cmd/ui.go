package cmd

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/negotiation"
	"github.com/healthrepublic/republic/internal/session"
	"github.com/healthrepublic/republic/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the terminal UI",
	Long: `Open the full-screen terminal UI. It restores the stored session, shows
the dashboard for your role and, for suppliers, follows negotiations live.

Logs go to ~/.republic/republic.log while the UI is running.

Keys:
  enter  open the selected negotiation
  o      make an offer (negotiation view)
  r      refresh
  esc    back
  L      log out
  q      quit`,
	Args:        cobra.NoArgs,
	RunE:        runUI,
	Annotations: map[string]string{annotationLogFile: "true"},
}

func init() {
	uiCmd.Flags().String("path", "", "path to open first, e.g. /app/negotiations/12")
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	ctx := cmd.Context()

	nav := tui.NewNavigation()
	store, err := cc.Session(session.WithNavigator(nav))
	if err != nil {
		return err
	}

	opts := []tui.Option{
		tui.WithLogger(cc.Logger),
		tui.WithDetailOptions(
			negotiation.WithInterval(cc.Config.PollInterval),
			negotiation.WithLogger(cc.Logger),
		),
	}
	if path, _ := cmd.Flags().GetString("path"); path != "" {
		opts = append(opts, tui.WithStartPath(path))
	}

	app := tui.New(ctx, store, cc.Client(), nav, opts...)
	cc.Logger.Info("terminal UI starting", "api_url", cc.Config.APIURL)

	final, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if m, ok := final.(tui.App); ok {
		m.Close()
	} else {
		app.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}
