package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/config"
	"github.com/healthrepublic/republic/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the configuration, the backend and the stored session",
	Long: `Run local diagnostics and report on each dependency. The command works
even when the config file is broken, so it is the first thing to run when
other commands fail.

Exits non-zero when any check is unhealthy.`,
	Args:        cobra.NoArgs,
	RunE:        runDoctor,
	Annotations: map[string]string{annotationNoConfig: "true"},
}

func init() {
	doctorCmd.Flags().Duration("timeout", health.DefaultTimeout, "timeout for each check")
	rootCmd.AddCommand(doctorCmd)
}

type doctorOutput struct {
	Status health.Status   `json:"status"`
	Checks []health.Report `json:"checks"`
}

// failedChecker reports a dependency that could not even be opened.
type failedChecker struct {
	name, message string
	err           error
}

func (c failedChecker) Name() string { return c.name }

func (c failedChecker) Check(context.Context) *health.Result {
	return health.Unhealthy(c.message).WithDetail("error", c.err.Error())
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	timeout, _ := cmd.Flags().GetDuration("timeout")

	m := health.NewManager().WithTimeout(timeout)

	cfg, err := config.Load(config.LoadOptions{Paths: &cc.Paths, ConfigFile: cc.ConfigFile})
	if err != nil {
		m.AddChecker(failedChecker{name: "config", message: "configuration could not be loaded", err: err})
	} else {
		if cc.Format != "" {
			cfg.Output = cc.Format
		}
		cc.Config = cfg
		m.AddChecker(health.NewConfigChecker(cfg, cc.configFile()))
	}
	if cc.APIURL != "" {
		cc.Config.APIURL = cc.APIURL
	}

	client := cc.Client()
	m.AddChecker(health.NewBackendChecker(client.BaseURL(), func(ctx context.Context) error {
		_, err := client.PublicOverview(ctx)
		return err
	}))

	if tokens, err := cc.Tokens(); err != nil {
		m.AddChecker(failedChecker{name: "session", message: "session database could not be opened", err: err})
	} else {
		m.AddChecker(health.NewSessionChecker(tokens))
	}

	out := doctorOutput{Checks: m.Check(cmd.Context())}
	out.Status = health.OverallStatus(out.Checks)
	cc.Logger.Debug("diagnostics finished", "status", out.Status, "checks", len(out.Checks))

	if err := cc.Print(cmd, out, func(w io.Writer) error { return writeDoctor(w, out) }); err != nil {
		return err
	}
	if out.Status == health.StatusUnhealthy {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}

func writeDoctor(w io.Writer, out doctorOutput) error {
	for _, r := range out.Checks {
		mark := okStyle.Render("✓")
		switch r.Status {
		case health.StatusDegraded:
			mark = warnStyle.Render("!")
		case health.StatusUnhealthy:
			mark = warnStyle.Render("✗")
		}
		fmt.Fprintf(w, "%s %-8s %s %s\n", mark, r.Name, r.Message,
			mutedStyle.Render(r.Latency.Round(time.Millisecond).String()))
		if e, ok := r.Details["error"]; ok {
			fmt.Fprintf(w, "           %v\n", e)
		}
	}
	_, err := fmt.Fprintf(w, "\nOverall: %s\n", out.Status)
	return err
}
