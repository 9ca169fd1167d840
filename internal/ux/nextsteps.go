package ux

import "github.com/healthrepublic/republic/internal/api"

// SuggestNextSteps returns the commands worth running next for an account
// with the given role. An empty role means nobody is signed in.
func SuggestNextSteps(role string) []string {
	switch role {
	case "":
		return []string{
			"Run 'republic login' to sign in",
			"Run 'republic register' to create an account",
			"Run 'republic collectives stats' to browse collectives",
		}
	case api.RoleMember:
		return []string{
			"Run 'republic dashboard' to see your negotiations",
			"Run 'republic collectives list' to find a collective to join",
		}
	case api.RoleSupplier:
		return []string{
			"Run 'republic dashboard' to see open negotiations",
			"Run 'republic negotiations offer <id> --pmpm <price>' to make an offer",
			"Run 'republic ui' to follow negotiations live",
		}
	case api.RoleAdmin:
		return []string{
			"Run 'republic dashboard' for platform statistics",
			"Run 'republic negotiations start' to pair a collective with a supplier",
			"Run 'republic admin users list' to manage accounts",
		}
	}
	return []string{"Run 'republic whoami' to check your account"}
}
