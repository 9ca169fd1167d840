package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/pages"
	"github.com/healthrepublic/republic/internal/tui"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a member, employer, provider or insurer account",
	Long: `Create a new account. Members and employers join collectives; providers
and insurers register as suppliers and negotiate with collectives.

Missing category, email and password are prompted for when running in a
terminal. The password is asked for twice.

Examples:
  republic register --category member --email me@example.com --household-size 3
  republic register --category insurer --email sales@insurer.example --full-name "Acme Health"`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().String("category", "", "member, employer, provider or insurer")
	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("password", "", "account password (prompted when omitted)")
	registerCmd.Flags().String("full-name", "", "your name, or the organisation's")
	registerCmd.Flags().String("state", "", "US state")
	registerCmd.Flags().String("age-range", "", "age range (members and employers; see 'republic lookups')")
	registerCmd.Flags().String("industry", "", "industry (see 'republic lookups')")
	registerCmd.Flags().String("household-size", "", "household size (members and employers)")
	_ = registerCmd.RegisterFlagCompletionFunc("category",
		cobra.FixedCompletions(pages.Categories, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	cc := getContext(cmd)
	flags := cmd.Flags()

	var f pages.RegisterForm
	f.Category, _ = flags.GetString("category")
	f.Email, _ = flags.GetString("email")
	f.Password, _ = flags.GetString("password")
	f.FullName, _ = flags.GetString("full-name")
	f.State, _ = flags.GetString("state")
	f.AgeRange, _ = flags.GetString("age-range")
	f.Industry, _ = flags.GetString("industry")
	f.HouseholdSize, _ = flags.GetString("household-size")
	f.Confirm = f.Password

	if tui.ShouldPrompt() {
		if err := promptRegistration(&f); err != nil {
			return err
		}
	}

	page := pages.NewRegister(cc.Client())
	defer page.Close()
	if err := page.Submit(cmd.Context(), f); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Registered %s as %s. Sign in with 'republic login'.\n",
		okStyle.Render("✓"), f.Email, f.Category)
	return nil
}

// promptRegistration asks for whatever the flags left out.
func promptRegistration(f *pages.RegisterForm) error {
	if f.Category == "" {
		category, err := tui.Choose("Register as", pages.Categories)
		if err != nil {
			return err
		}
		f.Category = category
	}

	var fields []tui.Field
	if f.Email == "" {
		fields = append(fields, tui.Field{Title: "Email", Required: true, Value: &f.Email})
	}
	if f.Password == "" {
		fields = append(fields,
			tui.Field{Title: "Password", Secret: true, Required: true, Value: &f.Password},
			tui.Field{Title: "Confirm password", Secret: true, Required: true, Value: &f.Confirm},
		)
	}
	if len(fields) == 0 {
		return nil
	}
	return tui.Ask(fields...)
}
