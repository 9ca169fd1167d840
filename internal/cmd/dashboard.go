package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/dispatch"
	"github.com/healthrepublic/republic/internal/pages"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard for your role",
	Long: `Show the home screen for the signed-in account:

  member    your negotiations
  supplier  open and closed negotiations with the latest offer
  admin     platform statistics and every negotiation`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}

	st := s.State()
	view, ok := dispatch.DashboardFor(st.Role())
	if !ok {
		return fmt.Errorf("role %q has no dashboard in this client", st.Role())
	}

	client := cc.Client()
	switch view {
	case dispatch.ViewMemberDashboard:
		return printMemberDashboard(cmd, cc, pages.NewMemberDashboard(client, s))
	case dispatch.ViewSupplierDashboard:
		return printSupplierDashboard(cmd, cc, pages.NewSupplierDashboard(client, s))
	default:
		return printAdminDashboard(cmd, cc, pages.NewAdminDashboard(client, s))
	}
}

type memberDashboardOutput struct {
	Message      string            `json:"message"`
	Negotiations []api.Negotiation `json:"negotiations"`
}

func printMemberDashboard(cmd *cobra.Command, cc *CommandContext, page *pages.MemberDashboard) error {
	defer page.Close()
	if err := page.Load(cmd.Context()); err != nil {
		return err
	}

	out := memberDashboardOutput{Negotiations: page.Negotiations.Snapshot().Data}
	if g := page.Greeting.Snapshot().Data; g != nil {
		out.Message = g.Message
	}
	return cc.Print(cmd, out, func(w io.Writer) error {
		if out.Message != "" {
			fmt.Fprintln(w, mutedStyle.Render(out.Message))
		}
		writeTitle(w, "My negotiations")
		return negotiationTable(w, out.Negotiations)
	})
}

func printSupplierDashboard(cmd *cobra.Command, cc *CommandContext, page *pages.SupplierDashboard) error {
	defer page.Close()
	if err := page.Load(cmd.Context()); err != nil {
		return err
	}

	d := page.Dashboard.Snapshot().Data
	return cc.Print(cmd, d, func(w io.Writer) error {
		writeTitle(w, "Open negotiations")
		if err := summaryTable(w, "No open negotiations.", d.OpenNegotiations); err != nil {
			return err
		}
		writeTitle(w, "Closed negotiations")
		return summaryTable(w, "No closed negotiations.", d.ClosedNegotiations)
	})
}

type adminDashboardOutput struct {
	Stats        api.AdminStats    `json:"stats"`
	Negotiations []api.Negotiation `json:"negotiations"`
}

func printAdminDashboard(cmd *cobra.Command, cc *CommandContext, page *pages.AdminDashboard) error {
	defer page.Close()
	if err := page.Load(cmd.Context()); err != nil {
		return err
	}

	out := adminDashboardOutput{Negotiations: page.Negotiations.Snapshot().Data}
	if d := page.Dashboard.Snapshot().Data; d != nil {
		out.Stats = d.Stats
	}
	return cc.Print(cmd, out, func(w io.Writer) error {
		writeTitle(w, "Platform")
		s := out.Stats
		fmt.Fprintf(w, "Users:        %d (%d members, %d suppliers, %d admins)\n", s.TotalUsers, s.Members, s.Suppliers, s.Admins)
		fmt.Fprintf(w, "Negotiations: %d (%d open, %d in progress, %d agreed)\n\n",
			s.TotalNegotiations, s.OpenNegotiations, s.InProgressNegotiations, s.AgreedNegotiations)
		writeTitle(w, "Negotiations")
		return negotiationTable(w, out.Negotiations)
	})
}
