package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/api"
)

// completionTimeout bounds the backend lookups behind id completion so a
// slow backend never stalls the shell.
const completionTimeout = 2 * time.Second

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Print a completion script for your shell.

  $ source <(republic completion bash)
  $ republic completion zsh > "${fpath[1]}/_republic"
  $ republic completion fish | source

Negotiation and collective ids complete from the backend when you are
signed in.`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
	Annotations:           map[string]string{annotationNoConfig: "true"},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	for _, c := range []*cobra.Command{
		negotiationsShowCmd, negotiationsWatchCmd, negotiationsOfferCmd,
		negotiationsCounterCmd, negotiationsAcceptCmd,
	} {
		c.ValidArgsFunction = completeNegotiationIDs
	}
	for _, c := range []*cobra.Command{
		collectivesJoinCmd, collectivesLeaveCmd, collectivesUpdateCmd, collectivesDeleteCmd,
	} {
		c.ValidArgsFunction = completeCollectiveIDs
	}
}

func runCompletion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch args[0] {
	case "bash":
		return rootCmd.GenBashCompletionV2(out, true)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
	return nil
}

// completeNegotiationIDs offers the ids of the caller's negotiations.
func completeNegotiationIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || active == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cc := active
	store, err := cc.Tokens()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	tokens, err := store.Load()
	if err != nil || tokens.Empty() {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()
	ns, err := cc.Client().MyNegotiations(ctx, tokens.Access)
	if err != nil {
		cc.Logger.Debug("negotiation completion failed", "error", err)
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return negotiationCompletions(ns), cobra.ShellCompDirectiveNoFileComp
}

// completeCollectiveIDs offers every collective. The directory is public.
func completeCollectiveIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || active == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()
	cs, err := active.Client().CollectivesWithStats(ctx)
	if err != nil {
		active.Logger.Debug("collective completion failed", "error", err)
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return collectiveCompletions(cs), cobra.ShellCompDirectiveNoFileComp
}

func negotiationCompletions(ns []api.Negotiation) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, fmt.Sprintf("%d\t%s, collective %d", n.ID, n.Status, n.CollectiveID))
	}
	return out
}

func collectiveCompletions(cs []api.CollectiveSummary) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, fmt.Sprintf("%d\t%s", c.ID, c.Name))
	}
	return out
}
