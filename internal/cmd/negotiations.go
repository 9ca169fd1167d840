package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/negotiation"
	"github.com/healthrepublic/republic/internal/pages"
)

var negotiationsCmd = &cobra.Command{
	Use:     "negotiations",
	Aliases: []string{"neg"},
	Short:   "List, follow and take part in negotiations",
}

var negotiationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every negotiation (admin)",
	Args:  cobra.NoArgs,
	RunE:  runNegotiationsList,
}

var negotiationsMyCmd = &cobra.Command{
	Use:   "my",
	Short: "List the negotiations you can see",
	Args:  cobra.NoArgs,
	RunE:  runNegotiationsMy,
}

var negotiationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a negotiation and its rounds",
	Args:  cobra.ExactArgs(1),
	RunE:  runNegotiationsShow,
}

var negotiationsWatchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Follow a negotiation as new rounds arrive",
	Long: `Poll a negotiation and print it again whenever it changes. Stops on
Ctrl+C.

Examples:
  republic negotiations watch 12
  republic negotiations watch 12 --interval 30s
  republic negotiations watch 12 --diff`,
	Args: cobra.ExactArgs(1),
	RunE: runNegotiationsWatch,
}

var negotiationsOfferCmd = &cobra.Command{
	Use:   "offer <id>",
	Short: "Submit a supplier offer",
	Long: `Submit a supplier offer. The PMPM is required; the expected MLR and the
notes are optional. The backend's evaluation of the offer is printed.

Examples:
  republic negotiations offer 12 --pmpm 425
  republic negotiations offer 12 --pmpm 425 --mlr 0.85 --notes "includes dental"`,
	Args: cobra.ExactArgs(1),
	RunE: runNegotiationsOffer,
}

var negotiationsCounterCmd = &cobra.Command{
	Use:   "counter <id>",
	Short: "Submit a collective counter-offer",
	Args:  cobra.ExactArgs(1),
	RunE:  runNegotiationsCounter,
}

var negotiationsAcceptCmd = &cobra.Command{
	Use:   "accept <id>",
	Short: "Accept the latest offer",
	Args:  cobra.ExactArgs(1),
	RunE:  runNegotiationsAccept,
}

var negotiationsStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a negotiation between a collective and a supplier (admin)",
	Long: `Start a negotiation. Collective and supplier ids are required; the
targets are optional.

Examples:
  republic negotiations start --collective 1 --supplier 3
  republic negotiations start --collective 1 --supplier 3 --target-pmpm 400 --risk medium --start-date 2026-01-01`,
	Args: cobra.NoArgs,
	RunE: runNegotiationsStart,
}

func init() {
	negotiationsWatchCmd.Flags().Duration("interval", 0, "poll interval (default poll_interval from the config)")
	negotiationsWatchCmd.Flags().Bool("diff", false, "after the first view print only the lines that changed")

	for _, c := range []*cobra.Command{negotiationsOfferCmd, negotiationsCounterCmd} {
		c.Flags().String("pmpm", "", "proposed per-member-per-month price")
		c.Flags().String("mlr", "", "expected medical loss ratio, e.g. 0.85")
		c.Flags().String("notes", "", "notes for the other side")
	}

	negotiationsStartCmd.Flags().String("collective", "", "collective id")
	negotiationsStartCmd.Flags().String("supplier", "", "supplier id")
	negotiationsStartCmd.Flags().String("target-pmpm", "", "target PMPM")
	negotiationsStartCmd.Flags().String("population", "", "target population size")
	negotiationsStartCmd.Flags().String("risk", "", "risk appetite: low, medium or high")
	negotiationsStartCmd.Flags().String("start-date", "", "target start date (YYYY-MM-DD)")
	negotiationsStartCmd.Flags().String("notes", "", "notes")
	_ = negotiationsStartCmd.RegisterFlagCompletionFunc("risk",
		cobra.FixedCompletions([]string{"low", "medium", "high"}, cobra.ShellCompDirectiveNoFileComp))

	negotiationsCmd.AddCommand(
		negotiationsListCmd,
		negotiationsMyCmd,
		negotiationsShowCmd,
		negotiationsWatchCmd,
		negotiationsOfferCmd,
		negotiationsCounterCmd,
		negotiationsAcceptCmd,
		negotiationsStartCmd,
	)
	rootCmd.AddCommand(negotiationsCmd)
}

func runNegotiationsList(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}
	ns, err := cc.Client().ListNegotiations(cmd.Context(), s.AccessToken())
	if err != nil {
		return err
	}
	return cc.Print(cmd, ns, func(w io.Writer) error { return negotiationTable(w, ns) })
}

func runNegotiationsMy(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}
	ns, err := cc.Client().MyNegotiations(cmd.Context(), s.AccessToken())
	if err != nil {
		return err
	}
	return cc.Print(cmd, ns, func(w io.Writer) error { return negotiationTable(w, ns) })
}

func runNegotiationsShow(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	id, err := pages.ParseID("negotiation", args[0])
	if err != nil {
		return err
	}
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}
	n, err := cc.Client().NegotiationDetail(cmd.Context(), s.AccessToken(), id)
	if err != nil {
		return err
	}
	return cc.Print(cmd, n, func(w io.Writer) error { return writeNegotiation(w, n) })
}

func runNegotiationsWatch(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	id, err := pages.ParseID("negotiation", args[0])
	if err != nil {
		return err
	}
	interval, _ := cmd.Flags().GetDuration("interval")
	diff, _ := cmd.Flags().GetBool("diff")
	if interval <= 0 {
		interval = cc.Config.PollInterval
	}
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}

	d := negotiation.NewDetail(cc.Client(), s, id,
		negotiation.WithInterval(interval),
		negotiation.WithLogger(cc.Logger),
	)
	defer d.Close()

	ctx := cmd.Context()
	views := d.Watch(ctx)
	w := &watchPrinter{cmd: cmd, cc: cc, diff: diff}
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-views:
			if !ok {
				return nil
			}
			if err := w.print(v); err != nil {
				return err
			}
		}
	}
}

// watchPrinter prints each changed negotiation. Poll errors are logged and
// the watch goes on.
type watchPrinter struct {
	cmd  *cobra.Command
	cc   *CommandContext
	diff bool
	last string
}

func (p *watchPrinter) print(v negotiation.View) error {
	if v.Err != nil {
		p.cc.Logger.Warn("refresh failed", "negotiation_id", v.ID, "error", v.Err)
		fmt.Fprintln(p.cmd.ErrOrStderr(), warnStyle.Render("refresh failed: "+v.Err.Error()))
		return nil
	}
	if !v.Changed || v.Negotiation == nil {
		return nil
	}
	return p.cc.Print(p.cmd, v.Negotiation, func(w io.Writer) error {
		var b strings.Builder
		if err := writeNegotiation(&b, v.Negotiation); err != nil {
			return err
		}
		current := b.String()
		defer func() { p.last = current }()

		fmt.Fprintln(w, mutedStyle.Render(time.Now().Format(time.TimeOnly)))
		if p.diff && p.last != "" {
			return writeChanges(w, p.last, current)
		}
		_, err := io.WriteString(w, current)
		return err
	})
}

func offerForm(cmd *cobra.Command) negotiation.OfferForm {
	var f negotiation.OfferForm
	f.PMPM, _ = cmd.Flags().GetString("pmpm")
	f.MLR, _ = cmd.Flags().GetString("mlr")
	f.Notes, _ = cmd.Flags().GetString("notes")
	return f
}

type submitFunc func(d *negotiation.Detail, cmd *cobra.Command, f negotiation.OfferForm) (*api.OfferResponse, error)

func runNegotiationsOffer(cmd *cobra.Command, args []string) error {
	return submitRound(cmd, args, func(d *negotiation.Detail, cmd *cobra.Command, f negotiation.OfferForm) (*api.OfferResponse, error) {
		return d.SubmitOffer(cmd.Context(), f)
	})
}

func runNegotiationsCounter(cmd *cobra.Command, args []string) error {
	return submitRound(cmd, args, func(d *negotiation.Detail, cmd *cobra.Command, f negotiation.OfferForm) (*api.OfferResponse, error) {
		return d.SubmitCounter(cmd.Context(), f)
	})
}

func submitRound(cmd *cobra.Command, args []string, submit submitFunc) error {
	cc := getContext(cmd)
	id, err := pages.ParseID("negotiation", args[0])
	if err != nil {
		return err
	}
	// Reject bad input before touching the session.
	form := offerForm(cmd)
	if _, err := negotiation.ParseOffer(form); err != nil {
		return err
	}
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}

	d := negotiation.NewDetail(cc.Client(), s, id, negotiation.WithLogger(cc.Logger))
	defer d.Close()

	resp, err := submit(d, cmd, form)
	if err != nil {
		return err
	}
	return cc.Print(cmd, resp, func(w io.Writer) error {
		fmt.Fprintf(w, "%s Round %d recorded (%s %s). Negotiation is %s.\n",
			okStyle.Render("✓"), resp.Round.RoundNumber, resp.Round.Actor, money(resp.Round.ProposedPMPM), resp.Status)
		return writeEvaluation(w, resp.Evaluation)
	})
}

func runNegotiationsAccept(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	id, err := pages.ParseID("negotiation", args[0])
	if err != nil {
		return err
	}
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}

	d := negotiation.NewDetail(cc.Client(), s, id, negotiation.WithLogger(cc.Logger))
	defer d.Close()

	n, err := d.Accept(cmd.Context())
	if err != nil {
		return err
	}
	return cc.Print(cmd, n, func(w io.Writer) error {
		fmt.Fprintf(w, "%s Agreed at %s.\n", okStyle.Render("✓"), money(n.FinalAgreedPMPM))
		return nil
	})
}

func runNegotiationsStart(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	flags := cmd.Flags()

	var f pages.CreateNegotiationForm
	f.CollectiveID, _ = flags.GetString("collective")
	f.SupplierID, _ = flags.GetString("supplier")
	f.TargetPMPM, _ = flags.GetString("target-pmpm")
	f.PopulationSize, _ = flags.GetString("population")
	f.RiskAppetite, _ = flags.GetString("risk")
	f.StartDate, _ = flags.GetString("start-date")
	f.Notes, _ = flags.GetString("notes")
	if _, err := f.Parse(); err != nil {
		return err
	}

	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}
	page := pages.NewAdminDashboard(cc.Client(), s)
	defer page.Close()

	n, err := page.CreateNegotiation(cmd.Context(), f)
	if n == nil {
		return err
	}
	if err != nil {
		cc.Logger.Warn("dashboard reload after create failed", "error", err)
	}
	return cc.Print(cmd, n, func(w io.Writer) error {
		fmt.Fprintf(w, "%s Started negotiation #%d between collective %d and supplier %d.\n",
			okStyle.Render("✓"), n.ID, n.CollectiveID, n.SupplierID)
		return nil
	})
}
