package dispatch

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/session"
)

func genPath() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.SampledFrom([]string{
			"", "/", "/app", "/app/", "/login", "/register", "/collectives", "/pricing",
			"/app/collectives", "/app/admin/users", "/app/admin/collectives",
			"/app/negotiations/1", "/app/negotiations/0", "/app/negotiations/-3",
		}),
		rapid.StringMatching(`(/app)?(/[a-z0-9]{0,8}){0,3}/?([?#][a-z=]{0,6})?`),
		rapid.Custom(func(t *rapid.T) string {
			id := rapid.Int64Range(-5, 1<<40).Draw(t, "id")
			return NegotiationPath(id)
		}),
	)
}

func genState() *rapid.Generator[session.State] {
	return rapid.Custom(func(t *rapid.T) session.State {
		phase := rapid.SampledFrom([]session.Phase{
			session.PhaseAnonymous, session.PhaseHydrating, session.PhaseAuthenticated,
		}).Draw(t, "phase")
		if phase != session.PhaseAuthenticated || rapid.Bool().Draw(t, "no_user") {
			return session.State{Phase: phase}
		}
		role := rapid.SampledFrom([]string{
			api.RoleMember, api.RoleSupplier, api.RoleAdmin, "auditor", "",
		}).Draw(t, "role")
		return signedIn(role)
	})
}

func isApp(path string) bool {
	return path == PathApp || strings.HasPrefix(path, PathApp+"/")
}

// Every path settles on a view without a redirect loop.
func TestFollowAlwaysSettles(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		state := genState().Draw(t, "state")
		path := genPath().Draw(t, "path")

		d, final := Follow(state, path)
		if d.Redirect != "" {
			t.Fatalf("Follow(%q) still redirects to %q", path, d.Redirect)
		}
		if d.View == "" {
			t.Fatalf("Follow(%q) produced no view", path)
		}
		if again := Resolve(state, final); again.View != d.View || again.Redirect != "" {
			t.Fatalf("final path %q resolves to %+v, want %q", final, again, d.View)
		}
	})
}

// Application views are only reachable by a signed-in user, and each
// role only reaches its own views.
func TestFollowRespectsRole(t *testing.T) {
	adminOnly := map[View]bool{ViewAdminDashboard: true, ViewAdminUsers: true, ViewAdminCollectives: true}
	memberOnly := map[View]bool{ViewMemberDashboard: true, ViewMemberCollectives: true}
	supplierOnly := map[View]bool{ViewSupplierDashboard: true, ViewNegotiation: true}

	rapid.Check(t, func(t *rapid.T) {
		state := genState().Draw(t, "state")
		path := genPath().Draw(t, "path")

		d, final := Follow(state, path)
		role := state.Role()

		if state.Phase != session.PhaseAuthenticated || state.User == nil {
			if isApp(final) && d.View != ViewLoading {
				t.Fatalf("anonymous session reached %q at %q", d.View, final)
			}
			return
		}
		if adminOnly[d.View] && role != api.RoleAdmin {
			t.Fatalf("role %q reached admin view %q", role, d.View)
		}
		if memberOnly[d.View] && role != api.RoleMember {
			t.Fatalf("role %q reached member view %q", role, d.View)
		}
		if supplierOnly[d.View] && role != api.RoleSupplier {
			t.Fatalf("role %q reached supplier view %q", role, d.View)
		}
		if d.View == ViewNegotiation && !validID(d.Params["id"]) {
			t.Fatalf("detail view with bad id %q", d.Params["id"])
		}
	})
}
