package tui

import (
	"context"
	"net/http"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/apitest"
	"github.com/healthrepublic/republic/internal/dispatch"
	"github.com/healthrepublic/republic/internal/log"
	"github.com/healthrepublic/republic/internal/negotiation"
	"github.com/healthrepublic/republic/internal/pages"
	"github.com/healthrepublic/republic/internal/poll"
	"github.com/healthrepublic/republic/internal/session"
	"github.com/healthrepublic/republic/internal/tokenstore"
)

const wait = 2 * time.Second

type harness struct {
	srv    *apitest.Server
	tokens *tokenstore.Memory
	nav    *Navigation
	ticker *poll.ManualTicker
	app    App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := apitest.NewServer(t)
	client := api.New(srv.URL, api.WithLogger(log.Discard()))
	tokens := tokenstore.NewMemory(tokenstore.Tokens{})
	nav := NewNavigation()
	store := session.New(client, tokens, session.WithNavigator(nav), session.WithLogger(log.Discard()))
	ticker := poll.NewManualTicker()

	h := &harness{srv: srv, tokens: tokens, nav: nav, ticker: ticker}
	h.app = New(context.Background(), store, client, nav,
		WithLogger(log.Discard()),
		WithDetailOptions(negotiation.WithTicker(ticker.Factory()), negotiation.WithLogger(log.Discard())),
	)
	t.Cleanup(func() { h.app.Close() })
	return h
}

// signedIn persists tokens for userID so bootstrap restores them.
func (h *harness) signedIn(t *testing.T, userID int64) {
	t.Helper()
	access, refresh := h.srv.IssueTokens(userID, time.Hour)
	require.NoError(t, h.tokens.Save(tokenstore.Tokens{Access: access, Refresh: refresh}))
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	model, cmd := h.app.Update(msg)
	h.app = model.(App)
	return cmd
}

func (h *harness) run(cmd tea.Cmd) {
	h.update(cmd())
}

// submit sends a login form the way a completed form does.
func (h *harness) submit(f pages.LoginForm) {
	var cmd tea.Cmd
	h.app, cmd = h.app.submitLogin(f)
	h.run(cmd)
}

func (h *harness) key(k string) tea.Cmd {
	switch k {
	case "enter":
		return h.update(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.update(tea.KeyMsg{Type: tea.KeyEsc})
	case "ctrl+c":
		return h.update(tea.KeyMsg{Type: tea.KeyCtrlC})
	}
	return h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

// settle delivers pending session and navigation events.
func (h *harness) settle() {
	select {
	case st := <-h.app.states:
		h.update(sessionMsg{state: st})
	default:
	}
	select {
	case p := <-h.nav.paths:
		h.update(navMsg{path: p})
	default:
	}
}

func (h *harness) loadPage(t *testing.T) {
	t.Helper()
	var load func(context.Context) error
	switch {
	case h.app.member != nil:
		load = h.app.member.Load
	case h.app.supplier != nil:
		load = h.app.supplier.Load
	case h.app.admin != nil:
		load = h.app.admin.Load
	default:
		t.Fatalf("no dashboard open in view %s", h.app.view)
	}
	h.run(h.app.load(load))
}

func (h *harness) nextDetail(t *testing.T) {
	t.Helper()
	require.NotNil(t, h.app.detail, "no detail open")
	done := make(chan tea.Msg, 1)
	go func() { done <- waitForDetail(h.app.detail.ID(), h.app.detailCh)() }()
	select {
	case msg := <-done:
		h.update(msg)
	case <-time.After(wait):
		t.Fatal("timed out waiting for detail update")
	}
}

func (h *harness) login(t *testing.T, email string) {
	t.Helper()
	h.run(h.app.bootstrap())
	h.submit(pages.LoginForm{Email: email, Password: apitest.Password})
	h.settle()
}

func TestAppInit(t *testing.T) {
	h := newHarness(t)

	assert.NotNil(t, h.app.Init())
	assert.Equal(t, dispatch.ViewLoading, h.app.CurrentView())
	assert.Contains(t, h.app.View(), "Restoring your session")
}

func TestAppBootstrapAnonymousShowsLogin(t *testing.T) {
	h := newHarness(t)

	h.run(h.app.bootstrap())

	assert.Equal(t, dispatch.ViewLogin, h.app.CurrentView())
	assert.Equal(t, dispatch.PathLogin, h.app.Path())
	require.NotNil(t, h.app.form)
	assert.Equal(t, formLogin, h.app.formKind)
	assert.Contains(t, h.app.View(), "Sign in")
}

func TestAppBootstrapRejectedToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tokens.Save(tokenstore.Tokens{Access: "not-a-token"}))

	h.run(h.app.bootstrap())

	assert.Equal(t, dispatch.ViewLogin, h.app.CurrentView())
	assert.Contains(t, h.app.lastErr, "no longer valid")
	toks, err := h.tokens.Load()
	require.NoError(t, err)
	assert.True(t, toks.Empty())
}

func TestAppLoginShowsMemberDashboard(t *testing.T) {
	h := newHarness(t)

	h.login(t, apitest.MemberEmail)

	assert.Equal(t, dispatch.ViewMemberDashboard, h.app.CurrentView())
	assert.Equal(t, dispatch.PathApp, h.app.Path())

	h.loadPage(t)
	assert.Len(t, h.app.table.Rows(), 1)
	assert.Empty(t, h.app.lastErr)

	out := h.app.View()
	assert.Contains(t, out, "My negotiations")
	assert.Contains(t, out, "logout")

	toks, err := h.tokens.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, toks.Access)
}

func TestAppLoginRejected(t *testing.T) {
	h := newHarness(t)
	h.run(h.app.bootstrap())

	h.submit(pages.LoginForm{Email: apitest.MemberEmail, Password: "wrong"})
	h.settle()

	assert.Equal(t, dispatch.ViewLogin, h.app.CurrentView())
	assert.Contains(t, h.app.lastErr, "Incorrect email or password")
	require.NotNil(t, h.app.form, "login form is shown again")
	assert.Equal(t, apitest.MemberEmail, h.app.login.Email)
	assert.Zero(t, h.tokens.Saves())
}

func TestAppLoginValidation(t *testing.T) {
	h := newHarness(t)
	h.run(h.app.bootstrap())

	h.submit(pages.LoginForm{Email: apitest.MemberEmail})

	assert.Contains(t, h.app.lastErr, "password")
	assert.Zero(t, h.srv.Hits(http.MethodPost, "/auth/login"))
}

func TestAppSupplierDetail(t *testing.T) {
	h := newHarness(t)
	h.signedIn(t, apitest.SupplierID)
	h.run(h.app.bootstrap())
	require.Equal(t, dispatch.ViewSupplierDashboard, h.app.CurrentView())
	h.loadPage(t)
	require.Len(t, h.app.table.Rows(), 1)

	h.key("enter")
	require.Equal(t, dispatch.ViewNegotiation, h.app.CurrentView())
	assert.Equal(t, dispatch.NegotiationPath(apitest.NegotiationID), h.app.Path())

	h.nextDetail(t)
	snap, open := h.app.Snapshot()
	require.True(t, open)
	require.NotNil(t, snap.Negotiation)
	assert.Len(t, snap.Rounds(), 1)
	out := h.app.View()
	assert.Contains(t, out, "Timeline")
	assert.Contains(t, out, "$450.00")

	t.Run("offer form opens and cancels", func(t *testing.T) {
		h.key("o")
		require.NotNil(t, h.app.form)
		assert.Equal(t, formOffer, h.app.formKind)

		h.key("esc")
		assert.Nil(t, h.app.form)
		assert.Equal(t, dispatch.ViewNegotiation, h.app.CurrentView())
	})

	t.Run("invalid offer makes no request", func(t *testing.T) {
		h.run(h.app.submitOffer(negotiation.OfferForm{PMPM: "cheap"}))

		assert.Contains(t, h.app.lastErr, "proposed_pmpm")
		assert.Zero(t, h.srv.Hits(http.MethodPost, "/negotiations/1/supplier-offer"))
	})

	t.Run("offer adds a round", func(t *testing.T) {
		h.run(h.app.submitOffer(negotiation.OfferForm{PMPM: "430", Notes: "final"}))

		assert.Empty(t, h.app.lastErr)
		assert.Equal(t, "Offer recorded", h.app.notice)
		assert.Equal(t, 2, h.srv.Rounds(apitest.NegotiationID))
		snap, _ := h.app.Snapshot()
		assert.Len(t, snap.Rounds(), 2)
		assert.NotNil(t, snap.Evaluation)
	})

	t.Run("esc closes the subscription", func(t *testing.T) {
		h.key("esc")

		assert.Equal(t, dispatch.ViewSupplierDashboard, h.app.CurrentView())
		assert.Nil(t, h.app.detail)
		assert.True(t, h.ticker.Stopped())

		hits := h.srv.Hits(http.MethodGet, "/negotiations/1")
		assert.False(t, h.ticker.Tick(50*time.Millisecond))
		assert.Equal(t, hits, h.srv.Hits(http.MethodGet, "/negotiations/1"))
	})
}

func TestAppMemberCannotOpenDetail(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.MemberEmail)
	h.loadPage(t)

	h.key("enter")

	assert.Equal(t, dispatch.ViewMemberDashboard, h.app.CurrentView())
	assert.Equal(t, dispatch.PathApp, h.app.Path())
	assert.Contains(t, h.app.notice, "negotiations show 1")
}

func TestAppAdminDashboard(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.AdminEmail)
	require.Equal(t, dispatch.ViewAdminDashboard, h.app.CurrentView())

	h.loadPage(t)

	out := h.app.View()
	assert.Contains(t, out, "Users:")
	assert.Contains(t, out, "Negotiations:")
	assert.Len(t, h.app.table.Rows(), 1)
}

func TestAppRefreshReloadsPage(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.MemberEmail)
	h.loadPage(t)
	before := h.srv.Hits(http.MethodGet, "/negotiations/my")

	cmd := h.key("r")
	require.NotNil(t, cmd)
	h.loadPage(t)

	assert.Equal(t, before+1, h.srv.Hits(http.MethodGet, "/negotiations/my"))
}

func TestAppLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t, apitest.MemberEmail)
	require.Equal(t, dispatch.ViewMemberDashboard, h.app.CurrentView())

	cmd := h.key("L")
	require.NotNil(t, cmd)
	h.run(cmd)
	h.settle()

	assert.Equal(t, dispatch.ViewLogin, h.app.CurrentView())
	assert.Equal(t, dispatch.PathLogin, h.app.Path())
	assert.Nil(t, h.app.member)
	toks, err := h.tokens.Load()
	require.NoError(t, err)
	assert.True(t, toks.Empty())
}

func TestAppUnknownRole(t *testing.T) {
	h := newHarness(t)
	h.srv.SetRole(apitest.MemberID, "auditor")

	h.login(t, apitest.MemberEmail)

	assert.Equal(t, dispatch.ViewUnknownRole, h.app.CurrentView())
	assert.Contains(t, h.app.View(), `"auditor"`)
}

func TestAppQuit(t *testing.T) {
	t.Run("q quits outside forms", func(t *testing.T) {
		h := newHarness(t)
		h.signedIn(t, apitest.MemberID)
		h.run(h.app.bootstrap())

		cmd := h.key("q")
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.True(t, h.app.quitting)
		assert.Empty(t, h.app.View())
	})

	t.Run("q is typed into the login form", func(t *testing.T) {
		h := newHarness(t)
		h.run(h.app.bootstrap())

		h.key("q")
		assert.False(t, h.app.quitting)
	})

	t.Run("ctrl+c always quits", func(t *testing.T) {
		h := newHarness(t)
		h.run(h.app.bootstrap())

		cmd := h.key("ctrl+c")
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})
}

func TestNavigationKeepsLatest(t *testing.T) {
	nav := NewNavigation()
	nav.Navigate("/login")
	nav.Navigate("/app")

	select {
	case p := <-nav.paths:
		assert.Equal(t, "/app", p)
	default:
		t.Fatal("no path queued")
	}
	select {
	case p := <-nav.paths:
		t.Fatalf("unexpected second path %q", p)
	default:
	}
}

func TestStatusStyle(t *testing.T) {
	s := DefaultStyles()
	assert.Equal(t, s.Success.Render("x"), s.StatusStyle(api.StatusAgreed).Render("x"))
	assert.Equal(t, s.Warning.Render("x"), s.StatusStyle(api.StatusOpen).Render("x"))
}
