package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/negotiation"
	"github.com/healthrepublic/republic/internal/ux"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
)

// writeTable renders rows under headers. An empty table prints empty
// instead.
func writeTable(w io.Writer, empty string, headers []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render(empty))
		return err
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeTitle(w io.Writer, title string) error {
	_, err := fmt.Fprintln(w, titleStyle.Render(title))
	return err
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *v)
}

func str(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func negotiationTable(w io.Writer, ns []api.Negotiation) error {
	rows := make([][]string, 0, len(ns))
	for _, n := range ns {
		rows = append(rows, []string{
			id(n.ID), id(n.CollectiveID), id(n.SupplierID), n.Status,
			money(n.TargetPMPM), money(n.FinalAgreedPMPM), strconv.Itoa(len(n.Rounds)), n.UpdatedAt,
		})
	}
	return writeTable(w, "No negotiations.",
		[]string{"ID", "Collective", "Supplier", "Status", "Target", "Agreed", "Rounds", "Updated"}, rows)
}

func summaryTable(w io.Writer, empty string, ns []api.NegotiationSummary) error {
	rows := make([][]string, 0, len(ns))
	for _, n := range ns {
		last := "-"
		if n.LastRoundActor != nil {
			last = *n.LastRoundActor + " " + money(n.LastRoundPMPM)
		}
		rows = append(rows, []string{
			id(n.ID), id(n.CollectiveID), n.Status, money(n.TargetPMPM), last, money(n.FinalAgreedPMPM), n.UpdatedAt,
		})
	}
	return writeTable(w, empty,
		[]string{"ID", "Collective", "Status", "Target", "Last offer", "Agreed", "Updated"}, rows)
}

func collectiveTable(w io.Writer, cs []api.CollectiveSummary) error {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{id(c.ID), c.Name, str(c.Category), strconv.Itoa(c.MemberCount)})
	}
	return writeTable(w, "No collectives.", []string{"ID", "Name", "Category", "Members"}, rows)
}

// writeNegotiation prints the terms and the round timeline.
func writeNegotiation(w io.Writer, n *api.Negotiation) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Negotiation #%d", n.ID)))
	b.WriteString("  " + n.Status + "\n")
	fmt.Fprintf(&b, "Collective:  %d\n", n.CollectiveID)
	fmt.Fprintf(&b, "Supplier:    %d\n", n.SupplierID)
	fmt.Fprintf(&b, "Target PMPM: %s\n", money(n.TargetPMPM))
	if n.TargetPopulationSize != nil {
		fmt.Fprintf(&b, "Population:  %d\n", *n.TargetPopulationSize)
	}
	if n.RiskAppetite != nil {
		fmt.Fprintf(&b, "Risk:        %s\n", *n.RiskAppetite)
	}
	if n.TargetStartDate != nil {
		fmt.Fprintf(&b, "Start date:  %s\n", *n.TargetStartDate)
	}
	if n.FinalAgreedPMPM != nil {
		fmt.Fprintf(&b, "Agreed PMPM: %s\n", okStyle.Render(money(n.FinalAgreedPMPM)))
	}
	if n.Notes != nil && *n.Notes != "" {
		fmt.Fprintf(&b, "Notes:       %s\n", *n.Notes)
	}
	if _, err := fmt.Fprintln(w, b.String()); err != nil {
		return err
	}

	rounds := negotiation.SortedRounds(n.Rounds)
	rows := make([][]string, 0, len(rounds))
	for _, r := range rounds {
		mlr := "-"
		if r.ProposedMLR != nil {
			mlr = fmt.Sprintf("%.2f", *r.ProposedMLR)
		}
		rows = append(rows, []string{strconv.Itoa(r.RoundNumber), r.Actor, money(r.ProposedPMPM), mlr, str(r.Notes), r.CreatedAt})
	}
	return writeTable(w, "No offers yet.", []string{"Round", "Actor", "PMPM", "MLR", "Notes", "When"}, rows)
}

func writeEvaluation(w io.Writer, e api.Evaluation) error {
	var b strings.Builder
	if e.IsAcceptable {
		b.WriteString(okStyle.Render("✓ Acceptable"))
	} else {
		b.WriteString(warnStyle.Render("Outside the fair band"))
	}
	b.WriteString("\n")
	if e.Message != "" {
		b.WriteString(e.Message + "\n")
	}
	if e.DifferenceFromTarget != nil {
		fmt.Fprintf(&b, "Difference from target: %+.2f\n", *e.DifferenceFromTarget)
	}
	if e.FairBandMin != nil && e.FairBandMax != nil {
		fmt.Fprintf(&b, "Fair band: %s to %s\n", money(e.FairBandMin), money(e.FairBandMax))
	}
	if e.RecommendedAction != "" {
		fmt.Fprintf(&b, "Recommended: %s\n", e.RecommendedAction)
	}
	if e.SuggestedCounterPMPM != nil {
		fmt.Fprintf(&b, "Suggested counter: %s\n", money(e.SuggestedCounterPMPM))
	}
	_, err := fmt.Fprint(w, b.String())
	return err
}

func writeNextSteps(w io.Writer, role string) error {
	fmt.Fprintln(w)
	for _, s := range ux.SuggestNextSteps(role) {
		if _, err := fmt.Fprintln(w, mutedStyle.Render("  "+s)); err != nil {
			return err
		}
	}
	return nil
}

// writeChanges prints the lines that differ between two renderings.
func writeChanges(w io.Writer, before, after string) error {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	changed := false
	for _, d := range diffs {
		var prefix string
		var style lipgloss.Style
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, style = "+ ", okStyle
		case diffmatchpatch.DiffDelete:
			prefix, style = "- ", warnStyle
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			changed = true
			if _, err := fmt.Fprintln(w, style.Render(prefix+line)); err != nil {
				return err
			}
		}
	}
	if !changed {
		_, err := fmt.Fprintln(w, mutedStyle.Render("no visible changes"))
		return err
	}
	return nil
}
