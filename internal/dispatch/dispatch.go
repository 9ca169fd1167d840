// Package dispatch maps a session and a path to the view that should render.
package dispatch

import (
	"strconv"
	"strings"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/session"
)

// View names a screen.
type View string

const (
	ViewSplash            View = "splash"
	ViewCollectives       View = "collectives"
	ViewHowItWorks        View = "how-it-works"
	ViewPricing           View = "pricing"
	ViewLogin             View = "login"
	ViewRegister          View = "register"
	ViewLoading           View = "loading"
	ViewMemberDashboard   View = "member-dashboard"
	ViewMemberCollectives View = "member-collectives"
	ViewSupplierDashboard View = "supplier-dashboard"
	ViewNegotiation       View = "negotiation-detail"
	ViewAdminDashboard    View = "admin-dashboard"
	ViewAdminUsers        View = "admin-users"
	ViewAdminCollectives  View = "admin-collectives"
	ViewUnknownRole       View = "unknown-role"
)

// Paths
const (
	PathRoot  = "/"
	PathApp   = session.PathApp
	PathLogin = session.PathLogin
)

// Decision is the outcome of Resolve. When Redirect is set, View is empty
// and the caller should resolve Redirect instead.
type Decision struct {
	View     View
	Redirect string
	Params   map[string]string
}

var public = map[string]View{
	"/":             ViewSplash,
	"/collectives":  ViewCollectives,
	"/how-it-works": ViewHowItWorks,
	"/pricing":      ViewPricing,
	"/login":        ViewLogin,
	"/register":     ViewRegister,
}

// roleRoutes lists the static sub-paths of /app for each known role.
var roleRoutes = map[string]map[string]View{
	api.RoleAdmin: {
		"":                  ViewAdminDashboard,
		"admin/users":       ViewAdminUsers,
		"admin/collectives": ViewAdminCollectives,
	},
	api.RoleSupplier: {
		"": ViewSupplierDashboard,
	},
	api.RoleMember: {
		"":            ViewMemberDashboard,
		"collectives": ViewMemberCollectives,
	},
}

// Resolve decides what to show for path given the session state.
func Resolve(state session.State, path string) Decision {
	path = clean(path)

	if path != PathApp && !strings.HasPrefix(path, PathApp+"/") {
		if v, ok := public[path]; ok {
			return Decision{View: v}
		}
		return Decision{Redirect: PathRoot}
	}

	switch state.Phase {
	case session.PhaseHydrating:
		return Decision{View: ViewLoading}
	case session.PhaseAuthenticated:
	default:
		return Decision{Redirect: PathLogin}
	}
	if state.User == nil {
		return Decision{Redirect: PathLogin}
	}

	role := state.User.Role
	routes, known := roleRoutes[role]
	if !known {
		return Decision{View: ViewUnknownRole}
	}

	sub := strings.TrimPrefix(strings.TrimPrefix(path, PathApp), "/")
	if v, ok := routes[sub]; ok {
		return Decision{View: v}
	}

	if role == api.RoleSupplier {
		if id, ok := strings.CutPrefix(sub, "negotiations/"); ok && validID(id) {
			return Decision{View: ViewNegotiation, Params: map[string]string{"id": id}}
		}
	}

	return Decision{Redirect: PathApp}
}

// Follow resolves path and any redirects it leads to. It returns the final
// decision and the path that produced it.
func Follow(state session.State, path string) (Decision, string) {
	// The route table redirects at most twice (/x -> / or /app -> /login).
	for i := 0; i < 4; i++ {
		d := Resolve(state, path)
		if d.Redirect == "" {
			return d, clean(path)
		}
		path = d.Redirect
	}
	return Resolve(state, path), clean(path)
}

// DashboardFor returns the /app landing view for a role. ok is false for
// roles the client does not know.
func DashboardFor(role string) (View, bool) {
	routes, ok := roleRoutes[role]
	if !ok {
		return ViewUnknownRole, false
	}
	return routes[""], true
}

// NegotiationPath is the supplier detail path for id.
func NegotiationPath(id int64) string {
	return PathApp + "/negotiations/" + strconv.FormatInt(id, 10)
}

// clean drops the query and fragment and any trailing slash.
func clean(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return PathRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = PathRoot
		}
	}
	return path
}

func validID(s string) bool {
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && n > 0
}
