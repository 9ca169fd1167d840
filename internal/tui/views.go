package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/dispatch"
	"github.com/healthrepublic/republic/internal/negotiation"
	"github.com/healthrepublic/republic/internal/session"
)

var negotiationColumns = []table.Column{
	{Title: "ID", Width: 6},
	{Title: "Collective", Width: 10},
	{Title: "Supplier", Width: 8},
	{Title: "Status", Width: 12},
	{Title: "Target", Width: 10},
	{Title: "Rounds", Width: 6},
	{Title: "Updated", Width: 20},
}

var summaryColumns = []table.Column{
	{Title: "ID", Width: 6},
	{Title: "Collective", Width: 10},
	{Title: "Status", Width: 12},
	{Title: "Target", Width: 10},
	{Title: "Last offer", Width: 22},
	{Title: "Updated", Width: 20},
}

func newTable(cols []table.Column) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("241")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("63"))
	t.SetStyles(s)
	return t
}

// syncTable copies the current page's data into the table.
func (m *App) syncTable() {
	var rows []table.Row
	switch {
	case m.member != nil:
		rows = negotiationRows(m.member.Negotiations.Snapshot().Data)
	case m.admin != nil:
		rows = negotiationRows(m.admin.Negotiations.Snapshot().Data)
	case m.supplier != nil:
		if d := m.supplier.Dashboard.Snapshot().Data; d != nil {
			rows = summaryRows(d.OpenNegotiations)
			rows = append(rows, summaryRows(d.ClosedNegotiations)...)
		}
	}
	m.table.SetRows(rows)
}

func negotiationRows(ns []api.Negotiation) []table.Row {
	rows := make([]table.Row, 0, len(ns))
	for _, n := range ns {
		rows = append(rows, table.Row{
			strconv.FormatInt(n.ID, 10),
			strconv.FormatInt(n.CollectiveID, 10),
			strconv.FormatInt(n.SupplierID, 10),
			n.Status,
			money(n.TargetPMPM),
			strconv.Itoa(len(n.Rounds)),
			n.UpdatedAt,
		})
	}
	return rows
}

func summaryRows(ns []api.NegotiationSummary) []table.Row {
	rows := make([]table.Row, 0, len(ns))
	for _, n := range ns {
		last := "-"
		if n.LastRoundActor != nil {
			last = *n.LastRoundActor + " " + money(n.LastRoundPMPM)
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(n.ID, 10),
			strconv.FormatInt(n.CollectiveID, 10),
			n.Status,
			money(n.TargetPMPM),
			last,
			n.UpdatedAt,
		})
	}
	return rows
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *v)
}

// View renders the TUI (required by Bubble Tea)
func (m App) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.view {
	case dispatch.ViewLoading:
		body = m.renderLoading()
	case dispatch.ViewLogin:
		body = m.renderLogin()
	case dispatch.ViewMemberDashboard, dispatch.ViewSupplierDashboard, dispatch.ViewAdminDashboard:
		body = m.renderDashboard()
	case dispatch.ViewNegotiation:
		body = m.renderDetail()
	case dispatch.ViewUnknownRole:
		body = m.renderUnknownRole()
	default:
		body = m.renderUnsupported()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(body)
	if m.notice != "" {
		b.WriteString("\n" + m.styles.Success.Render(m.notice))
	}
	if m.lastErr != "" {
		b.WriteString("\n" + m.styles.Error.Render("✗ "+m.lastErr))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpLine())
	return b.String()
}

func (m App) renderHeader() string {
	title := m.styles.Title.Render("Health Republic")
	if m.state.Phase != session.PhaseAuthenticated || m.state.User == nil {
		return title + "\n"
	}
	who := fmt.Sprintf("%s · %s", m.state.User.DisplayName(), m.state.Role())
	return title + "  " + m.styles.Muted.Render(who) + "\n"
}

func (m App) renderLoading() string {
	return m.spinner.View() + " " + m.styles.Status.Render("Restoring your session...") + "\n"
}

func (m App) renderLogin() string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Sign in"))
	b.WriteString("\n")
	if m.form == nil {
		b.WriteString(m.spinner.View() + " Signing in...\n")
		return b.String()
	}
	b.WriteString(m.form.View())
	return b.String()
}

func (m App) renderDashboard() string {
	var b strings.Builder

	switch {
	case m.member != nil:
		b.WriteString(m.styles.Subtitle.Render("My negotiations"))
		b.WriteString("\n")
		if g := m.member.Greeting.Snapshot().Data; g != nil && g.Message != "" {
			b.WriteString(m.styles.Muted.Render(g.Message))
			b.WriteString("\n\n")
		}
		if m.member.Negotiations.Snapshot().Loading() {
			return b.String() + m.spinner.View() + " Loading...\n"
		}

	case m.supplier != nil:
		b.WriteString(m.styles.Subtitle.Render("Supplier negotiations"))
		b.WriteString("\n")
		snap := m.supplier.Dashboard.Snapshot()
		if snap.Loading() {
			return b.String() + m.spinner.View() + " Loading...\n"
		}
		if snap.Data != nil {
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d open · %d closed",
				len(snap.Data.OpenNegotiations), len(snap.Data.ClosedNegotiations))))
			b.WriteString("\n\n")
		}

	case m.admin != nil:
		b.WriteString(m.styles.Subtitle.Render("Platform"))
		b.WriteString("\n")
		if d := m.admin.Dashboard.Snapshot().Data; d != nil {
			b.WriteString(renderStats(m.styles, d.Stats))
			b.WriteString("\n\n")
		}
		if m.admin.Negotiations.Snapshot().Loading() {
			return b.String() + m.spinner.View() + " Loading...\n"
		}
	}

	if len(m.table.Rows()) == 0 {
		b.WriteString(m.styles.Muted.Render("No negotiations yet"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(m.table.View())
	b.WriteString("\n")
	return b.String()
}

func renderStats(s Styles, st api.AdminStats) string {
	lines := []string{
		fmt.Sprintf("Users:        %s (%d members, %d suppliers, %d admins)",
			s.Status.Render(strconv.Itoa(st.TotalUsers)), st.Members, st.Suppliers, st.Admins),
		fmt.Sprintf("Negotiations: %s (%d open, %d in progress, %s agreed)",
			s.Status.Render(strconv.Itoa(st.TotalNegotiations)), st.OpenNegotiations,
			st.InProgressNegotiations, s.Success.Render(strconv.Itoa(st.AgreedNegotiations))),
	}
	return strings.Join(lines, "\n")
}

// renderDetail renders the negotiation header, the round timeline and the
// last evaluation.
func (m App) renderDetail() string {
	var b strings.Builder
	v := m.snapshot

	if v.Negotiation == nil {
		if v.Err != nil {
			b.WriteString(m.styles.Error.Render(v.Err.Error()))
			b.WriteString("\n")
			return b.String()
		}
		return m.spinner.View() + " Loading negotiation...\n"
	}
	n := v.Negotiation

	b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("Negotiation #%d", n.ID)))
	b.WriteString("  ")
	b.WriteString(m.styles.StatusStyle(n.Status).Render(n.Status))
	b.WriteString("\n")

	terms := []string{"Target " + money(n.TargetPMPM)}
	if n.TargetPopulationSize != nil {
		terms = append(terms, fmt.Sprintf("Population %d", *n.TargetPopulationSize))
	}
	if n.RiskAppetite != nil {
		terms = append(terms, "Risk "+*n.RiskAppetite)
	}
	if n.TargetStartDate != nil {
		terms = append(terms, "Start "+*n.TargetStartDate)
	}
	if n.FinalAgreedPMPM != nil {
		terms = append(terms, m.styles.Success.Render("Agreed "+money(n.FinalAgreedPMPM)))
	}
	b.WriteString(m.styles.Muted.Render(strings.Join(terms, " · ")))
	b.WriteString("\n\n")

	b.WriteString(m.styles.Status.Render("Timeline"))
	b.WriteString("\n")
	rounds := v.Rounds()
	if len(rounds) == 0 {
		b.WriteString(m.styles.Muted.Render("  No offers yet"))
		b.WriteString("\n")
	}
	for _, r := range rounds {
		b.WriteString(m.renderRound(r))
		b.WriteString("\n")
	}

	if v.Err != nil {
		b.WriteString(m.styles.Warning.Render("Refresh failed: " + v.Err.Error()))
		b.WriteString("\n")
	}

	if v.Evaluation != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Border.Render(renderEvaluation(m.styles, v.Evaluation)))
		b.WriteString("\n")
	}

	switch {
	case m.form != nil && m.formKind == formOffer:
		b.WriteString("\n")
		b.WriteString(m.form.View())
	case v.Submitting:
		b.WriteString("\n" + m.spinner.View() + " Submitting offer...\n")
	}
	return b.String()
}

func (m App) renderRound(r api.Round) string {
	actor := m.styles.Collective
	if r.Actor == api.ActorSupplier {
		actor = m.styles.Supplier
	}
	line := fmt.Sprintf("  %2d  %s  %s", r.RoundNumber, actor.Render(fmt.Sprintf("%-10s", r.Actor)), money(r.ProposedPMPM))
	if r.ProposedMLR != nil {
		line += fmt.Sprintf("  MLR %.2f", *r.ProposedMLR)
	}
	if r.Notes != nil && *r.Notes != "" {
		line += "  " + m.styles.Muted.Render(*r.Notes)
	}
	return line
}

func renderEvaluation(s Styles, e *api.Evaluation) string {
	var lines []string
	if e.IsAcceptable {
		lines = append(lines, s.Success.Render("✓ Acceptable"))
	} else {
		lines = append(lines, s.Warning.Render("Outside the fair band"))
	}
	if e.Message != "" {
		lines = append(lines, e.Message)
	}
	if e.DifferenceFromTarget != nil {
		diff := fmt.Sprintf("Difference from target: %+.2f", *e.DifferenceFromTarget)
		if e.PercentFromTarget != nil {
			diff += fmt.Sprintf(" (%+.1f%%)", *e.PercentFromTarget)
		}
		lines = append(lines, diff)
	}
	if e.FairBandMin != nil && e.FairBandMax != nil {
		lines = append(lines, fmt.Sprintf("Fair band: %s to %s", money(e.FairBandMin), money(e.FairBandMax)))
	}
	if e.RecommendedAction != "" {
		lines = append(lines, "Recommended: "+e.RecommendedAction)
	}
	if e.SuggestedCounterPMPM != nil {
		lines = append(lines, "Suggested counter: "+money(e.SuggestedCounterPMPM))
	}
	return strings.Join(lines, "\n")
}

func (m App) renderUnknownRole() string {
	return m.styles.Warning.Render(fmt.Sprintf("Your account has role %q, which this client does not support.", m.state.Role())) +
		"\n" + m.styles.Muted.Render("Press L to sign out.") + "\n"
}

func (m App) renderUnsupported() string {
	return m.styles.Muted.Render(fmt.Sprintf("The %s page is not available in the terminal. Try 'republic --help'.", m.view)) + "\n"
}

// renderHelpLine renders the help line at the bottom
func (m App) renderHelpLine() string {
	var items []string
	key := func(k, desc string) {
		items = append(items, m.styles.Key.Render(k)+" "+m.styles.KeyDesc.Render(desc))
	}

	switch m.view {
	case dispatch.ViewLogin:
		key("enter", "next")
		key("ctrl+c", "quit")
		return m.styles.Help.Render(strings.Join(items, " • "))
	case dispatch.ViewNegotiation:
		if m.form != nil {
			key("enter", "next")
			key("esc", "cancel")
			break
		}
		key("o", "offer")
		key("r", "refresh")
		key("esc", "back")
	case dispatch.ViewMemberDashboard, dispatch.ViewSupplierDashboard, dispatch.ViewAdminDashboard:
		key("↑/↓", "select")
		key("enter", "open")
		key("r", "refresh")
	}
	if m.state.Phase == session.PhaseAuthenticated {
		key("L", "logout")
	}
	key("q", "quit")
	return m.styles.Help.Render(strings.Join(items, " • "))
}

// Snapshot returns the negotiation detail currently shown, if any.
func (m App) Snapshot() (negotiation.View, bool) {
	return m.snapshot, m.detail != nil
}
