package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/dispatch"
	"github.com/healthrepublic/republic/internal/negotiation"
	"github.com/healthrepublic/republic/internal/pages"
	"github.com/healthrepublic/republic/internal/session"
)

// bootstrapMsg is sent when the persisted session has been restored
type bootstrapMsg struct {
	err error
}

// sessionMsg is sent after a session transition
type sessionMsg struct {
	state session.State
}

// navMsg is sent when the session asks for a new path
type navMsg struct {
	path string
}

// loginMsg is sent when a login attempt finishes
type loginMsg struct {
	err error
}

// logoutMsg is sent when logout finishes
type logoutMsg struct {
	err error
}

// pageMsg is sent when a dashboard finished loading
type pageMsg struct {
	view dispatch.View
	err  error
}

// detailMsg carries a negotiation detail update
type detailMsg struct {
	id   int64
	view negotiation.View
	ok   bool
}

// offerMsg is sent when an offer or counter-offer was submitted
type offerMsg struct {
	id   int64
	resp *api.OfferResponse
	err  error
}

// Navigation forwards session navigations into the program. Only the most
// recent pending path is kept.
type Navigation struct {
	paths chan string
}

var _ session.Navigator = (*Navigation)(nil)

// NewNavigation creates a Navigation.
func NewNavigation() *Navigation {
	return &Navigation{paths: make(chan string, 1)}
}

// Navigate queues path, replacing any path not yet consumed.
func (n *Navigation) Navigate(path string) {
	latest(n.paths, path)
}

// latest sends v on a buffer-1 channel, dropping a value nobody read yet.
func latest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func waitForState(ch <-chan session.State) tea.Cmd {
	return func() tea.Msg {
		return sessionMsg{state: <-ch}
	}
}

func waitForPath(n *Navigation) tea.Cmd {
	return func() tea.Msg {
		return navMsg{path: <-n.paths}
	}
}

func waitForDetail(id int64, ch <-chan negotiation.View) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		return detailMsg{id: id, view: v, ok: ok}
	}
}

func (m App) bootstrap() tea.Cmd {
	store, ctx := m.session, m.ctx
	return func() tea.Msg {
		return bootstrapMsg{err: store.Bootstrap(ctx)}
	}
}

// submitLogin keeps f on the model so a rejected login reopens with the
// submitted email.
func (m App) submitLogin(f pages.LoginForm) (App, tea.Cmd) {
	m.login = &f
	store, ctx := m.session, m.ctx
	return m, func() tea.Msg {
		return loginMsg{err: pages.SubmitLogin(ctx, store, f)}
	}
}

func (m App) logout() tea.Cmd {
	store := m.session
	return func() tea.Msg {
		return logoutMsg{err: store.Logout()}
	}
}

func (m App) load(load func(context.Context) error) tea.Cmd {
	view, ctx := m.view, m.ctx
	return func() tea.Msg {
		return pageMsg{view: view, err: load(ctx)}
	}
}

// submitOffer posts a supplier offer, or a counter-offer for everyone else.
func (m App) submitOffer(f negotiation.OfferForm) tea.Cmd {
	d, ctx := m.detail, m.ctx
	supplier := m.session.State().Role() == api.RoleSupplier
	return func() tea.Msg {
		var (
			resp *api.OfferResponse
			err  error
		)
		if supplier {
			resp, err = d.SubmitOffer(ctx, f)
		} else {
			resp, err = d.SubmitCounter(ctx, f)
		}
		return offerMsg{id: d.ID(), resp: resp, err: err}
	}
}
