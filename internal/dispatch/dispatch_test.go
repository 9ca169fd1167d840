package dispatch

import (
	"testing"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/session"
)

func signedIn(role string) session.State {
	return session.State{
		Phase:       session.PhaseAuthenticated,
		AccessToken: "token",
		User:        &api.User{ID: 7, Email: "u@republic.test", Role: role},
	}
}

func TestResolve(t *testing.T) {
	anonymous := session.State{Phase: session.PhaseAnonymous}
	hydrating := session.State{Phase: session.PhaseHydrating, AccessToken: "token"}

	tests := []struct {
		name     string
		state    session.State
		path     string
		view     View
		redirect string
		id       string
	}{
		{"splash", anonymous, "/", ViewSplash, "", ""},
		{"empty path", anonymous, "", ViewSplash, "", ""},
		{"directory", anonymous, "/collectives", ViewCollectives, "", ""},
		{"login", anonymous, "/login", ViewLogin, "", ""},
		{"register with query", anonymous, "/register?ref=nav", ViewRegister, "", ""},
		{"public while signed in", signedIn(api.RoleAdmin), "/pricing", ViewPricing, "", ""},
		{"unknown public path", anonymous, "/nowhere", "", "/", ""},
		{"application lookalike", signedIn(api.RoleAdmin), "/apple", "", "/", ""},

		{"hydrating", hydrating, "/app", ViewLoading, "", ""},
		{"hydrating deep", hydrating, "/app/admin/users", ViewLoading, "", ""},
		{"anonymous app", anonymous, "/app", "", "/login", ""},
		{"anonymous deep", anonymous, "/app/negotiations/1", "", "/login", ""},
		{"authenticated without user", session.State{Phase: session.PhaseAuthenticated}, "/app", "", "/login", ""},

		{"admin home", signedIn(api.RoleAdmin), "/app", ViewAdminDashboard, "", ""},
		{"admin home slash", signedIn(api.RoleAdmin), "/app/", ViewAdminDashboard, "", ""},
		{"admin users", signedIn(api.RoleAdmin), "/app/admin/users", ViewAdminUsers, "", ""},
		{"admin collectives", signedIn(api.RoleAdmin), "/app/admin/collectives/", ViewAdminCollectives, "", ""},
		{"admin unknown", signedIn(api.RoleAdmin), "/app/collectives", "", "/app", ""},
		{"admin cannot open supplier detail", signedIn(api.RoleAdmin), "/app/negotiations/3", "", "/app", ""},

		{"supplier home", signedIn(api.RoleSupplier), "/app", ViewSupplierDashboard, "", ""},
		{"supplier detail", signedIn(api.RoleSupplier), "/app/negotiations/42", ViewNegotiation, "", "42"},
		{"supplier bad id", signedIn(api.RoleSupplier), "/app/negotiations/abc", "", "/app", ""},
		{"supplier zero id", signedIn(api.RoleSupplier), "/app/negotiations/0", "", "/app", ""},
		{"supplier admin page", signedIn(api.RoleSupplier), "/app/admin/users", "", "/app", ""},

		{"member home", signedIn(api.RoleMember), "/app", ViewMemberDashboard, "", ""},
		{"member collectives", signedIn(api.RoleMember), "/app/collectives", ViewMemberCollectives, "", ""},
		{"member unknown", signedIn(api.RoleMember), "/app/negotiations/1", "", "/app", ""},

		{"unknown role", signedIn("auditor"), "/app", ViewUnknownRole, "", ""},
		{"unknown role deep", signedIn("auditor"), "/app/anything", ViewUnknownRole, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Resolve(tt.state, tt.path)
			if d.View != tt.view {
				t.Errorf("View = %q, want %q", d.View, tt.view)
			}
			if d.Redirect != tt.redirect {
				t.Errorf("Redirect = %q, want %q", d.Redirect, tt.redirect)
			}
			if got := d.Params["id"]; got != tt.id {
				t.Errorf("Params[id] = %q, want %q", got, tt.id)
			}
		})
	}
}

func TestFollow(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		path  string
		view  View
		final string
	}{
		{"anonymous to login", session.State{Phase: session.PhaseAnonymous}, "/app/admin/users", ViewLogin, "/login"},
		{"unknown to splash", session.State{Phase: session.PhaseAnonymous}, "/x/y", ViewSplash, "/"},
		{"bad sub-path to dashboard", signedIn(api.RoleMember), "/app/nope", ViewMemberDashboard, "/app"},
		{"no redirect", signedIn(api.RoleSupplier), "/app/negotiations/5/", ViewNegotiation, "/app/negotiations/5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, final := Follow(tt.state, tt.path)
			if d.View != tt.view || final != tt.final {
				t.Errorf("Follow(%q) = (%q, %q), want (%q, %q)", tt.path, d.View, final, tt.view, tt.final)
			}
		})
	}
}

func TestDashboardFor(t *testing.T) {
	tests := []struct {
		role string
		view View
		ok   bool
	}{
		{api.RoleMember, ViewMemberDashboard, true},
		{api.RoleSupplier, ViewSupplierDashboard, true},
		{api.RoleAdmin, ViewAdminDashboard, true},
		{"auditor", ViewUnknownRole, false},
		{"", ViewUnknownRole, false},
	}

	for _, tt := range tests {
		view, ok := DashboardFor(tt.role)
		if view != tt.view || ok != tt.ok {
			t.Errorf("DashboardFor(%q) = (%q, %v), want (%q, %v)", tt.role, view, ok, tt.view, tt.ok)
		}
	}
}

func TestNegotiationPath(t *testing.T) {
	if got := NegotiationPath(12); got != "/app/negotiations/12" {
		t.Errorf("NegotiationPath(12) = %q", got)
	}
}
