package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/pages"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Platform administration",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var adminUsersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  runAdminUsersList,
}

var adminUsersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user with any role.

Examples:
  republic admin users create --email ops@example.com --password s3cret --role admin`,
	Args: cobra.NoArgs,
	RunE: runAdminUsersCreate,
}

var adminUsersActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Re-enable a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, args[0], true)
	},
}

var adminUsersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Disable a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, args[0], false)
	},
}

func init() {
	adminUsersCreateCmd.Flags().String("email", "", "email")
	adminUsersCreateCmd.Flags().String("password", "", "initial password")
	adminUsersCreateCmd.Flags().String("full-name", "", "full name")
	adminUsersCreateCmd.Flags().String("role", "", "member, supplier or admin")

	adminUsersCmd.AddCommand(adminUsersListCmd, adminUsersCreateCmd, adminUsersActivateCmd, adminUsersDeactivateCmd)
	adminCmd.AddCommand(adminUsersCmd)
	rootCmd.AddCommand(adminCmd)
}

func adminUsers(cmd *cobra.Command) (*pages.AdminUsers, error) {
	cc := getContext(cmd)
	s, err := cc.RequireLogin(cmd.Context())
	if err != nil {
		return nil, err
	}
	return pages.NewAdminUsers(cc.Client(), s), nil
}

func runAdminUsersList(cmd *cobra.Command, args []string) error {
	page, err := adminUsers(cmd)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.Load(cmd.Context()); err != nil {
		return err
	}
	users := page.Users.Snapshot().Data
	return getContext(cmd).Print(cmd, users, func(w io.Writer) error { return userTable(w, users) })
}

func userTable(w io.Writer, users []api.AdminUser) error {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		active := "yes"
		if u.Active != nil && !*u.Active {
			active = "no"
		}
		rows = append(rows, []string{id(u.ID), u.Email, str(u.FullName), u.Role, active, u.CreatedAt})
	}
	return writeTable(w, "No users.", []string{"ID", "Email", "Name", "Role", "Active", "Created"}, rows)
}

func runAdminUsersCreate(cmd *cobra.Command, args []string) error {
	var f pages.CreateUserForm
	f.Email, _ = cmd.Flags().GetString("email")
	f.Password, _ = cmd.Flags().GetString("password")
	f.FullName, _ = cmd.Flags().GetString("full-name")
	f.Role, _ = cmd.Flags().GetString("role")
	if _, err := f.Parse(); err != nil {
		return err
	}

	page, err := adminUsers(cmd)
	if err != nil {
		return err
	}
	defer page.Close()

	u, err := page.Create(cmd.Context(), f)
	if u == nil {
		return err
	}
	return getContext(cmd).Print(cmd, u, func(w io.Writer) error {
		fmt.Fprintf(w, "%s Created user %d (%s, %s).\n", okStyle.Render("✓"), u.ID, u.Email, u.Role)
		return nil
	})
}

func setUserActive(cmd *cobra.Command, arg string, active bool) error {
	userID, err := pages.ParseID("user", arg)
	if err != nil {
		return err
	}
	page, err := adminUsers(cmd)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := page.SetActive(cmd.Context(), userID, active); err != nil {
		return err
	}
	verb := "Deactivated"
	if active {
		verb = "Activated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s user %d.\n", okStyle.Render("✓"), verb, userID)
	return nil
}
