package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/pages"
	"github.com/healthrepublic/republic/internal/session"
	"github.com/healthrepublic/republic/internal/tui"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in with your email and password. The access and refresh tokens are
stored in ~/.republic/session.db and reused by every other command.

Missing credentials are prompted for when running in a terminal.

Examples:
  republic login
  republic login --email member@example.com`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Exchange the refresh token for a new access token",
	RunE:  runRefresh,
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (prompted when omitted)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, refreshCmd)
}

// profile is what login and whoami print.
type profile struct {
	ID         int64              `json:"id"`
	Email      string             `json:"email"`
	Name       string             `json:"name"`
	Role       string             `json:"role"`
	Headline   string             `json:"headline,omitempty"`
	Collective *api.CollectiveRef `json:"collective,omitempty"`
}

func profileOf(st session.State) profile {
	p := profile{Role: st.Role()}
	if st.User != nil {
		p.ID, p.Email, p.Name = st.User.ID, st.User.Email, st.User.DisplayName()
	}
	if st.Profile != nil {
		p.Headline = st.Profile.Sections.Headline
		p.Collective = st.Profile.Collective
	}
	return p
}

func (p profile) write(w io.Writer) error {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(p.Name), mutedStyle.Render("("+p.Role+")"))
	fmt.Fprintf(w, "Email:      %s\n", p.Email)
	if p.Collective != nil {
		fmt.Fprintf(w, "Collective: %s (#%d)\n", p.Collective.Name, p.Collective.ID)
	}
	if p.Headline != "" {
		fmt.Fprintln(w, mutedStyle.Render(p.Headline))
	}
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if (email == "" || password == "") && tui.ShouldPrompt() {
		if err := tui.Ask(tui.LoginFields(&email, &password)...); err != nil {
			return err
		}
	}

	s, err := cc.Session()
	if err != nil {
		return err
	}
	if err := pages.SubmitLogin(cmd.Context(), s, pages.LoginForm{Email: email, Password: password}); err != nil {
		return err
	}

	p := profileOf(s.State())
	return cc.Print(cmd, p, func(w io.Writer) error {
		fmt.Fprintln(w, okStyle.Render("✓ Logged in"))
		if err := p.write(w); err != nil {
			return err
		}
		return writeNextSteps(w, p.Role)
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	s, err := cc.Session()
	if err != nil {
		return err
	}
	if err := s.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return writeNextSteps(cmd.OutOrStdout(), "")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}
	p := profileOf(s.State())
	return cc.Print(cmd, p, p.write)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return err
	}
	if err := s.Refresh(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed.")
	return nil
}
