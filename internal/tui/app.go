package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/dispatch"
	"github.com/healthrepublic/republic/internal/log"
	"github.com/healthrepublic/republic/internal/negotiation"
	"github.com/healthrepublic/republic/internal/pages"
	"github.com/healthrepublic/republic/internal/session"
)

// Backend is everything the TUI asks of the API. *api.Client implements it.
type Backend interface {
	pages.Client
	negotiation.Backend
}

var _ Backend = (*api.Client)(nil)

type formKind int

const (
	formNone formKind = iota
	formLogin
	formOffer
)

// Option configures an App
type Option func(*App)

// WithLogger sets the logger. The TUI owns the terminal, so it should not
// write to stderr.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithStyles overrides DefaultStyles.
func WithStyles(s Styles) Option {
	return func(a *App) {
		a.styles = s
	}
}

// WithDetailOptions passes options to every negotiation detail the App opens.
func WithDetailOptions(opts ...negotiation.Option) Option {
	return func(a *App) {
		a.detailOpts = append(a.detailOpts, opts...)
	}
}

// WithStartPath sets the first path to resolve. It defaults to /app.
func WithStartPath(path string) Option {
	return func(a *App) {
		a.path = path
	}
}

// App is the bubbletea model of the terminal client. Every session change
// and every navigation re-resolves the current path through the dispatcher.
//
// App holds the program context so commands started from Update can be
// cancelled when the program exits.
type App struct {
	ctx        context.Context
	session    *session.Store
	backend    Backend
	nav        *Navigation
	logger     *log.Logger
	detailOpts []negotiation.Option

	states      chan session.State
	unsubscribe func()

	// Routing state
	path    string
	state   session.State
	view    dispatch.View
	params  map[string]string
	booting bool

	// Page controllers; only the one for the current view is set.
	member   *pages.MemberDashboard
	supplier *pages.SupplierDashboard
	admin    *pages.AdminDashboard
	detail   *negotiation.Detail
	detailCh <-chan negotiation.View
	snapshot negotiation.View

	// Forms
	form     *huh.Form
	formKind formKind
	login    *pages.LoginForm
	offer    *negotiation.OfferForm

	// UI state
	spinner  spinner.Model
	table    table.Model
	width    int
	height   int
	notice   string
	lastErr  string
	quitting bool

	styles Styles
}

// New creates the App. nav must be the navigator the session store was
// built with.
func New(ctx context.Context, store *session.Store, backend Backend, nav *Navigation, opts ...Option) App {
	a := App{
		ctx:     ctx,
		session: store,
		backend: backend,
		nav:     nav,
		path:    dispatch.PathApp,
		booting: true,
		view:    dispatch.ViewLoading,
		states:  make(chan session.State, 1),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:  DefaultStyles(),
	}
	for _, opt := range opts {
		opt(&a)
	}
	a.logger = log.OrDefault(a.logger).With("component", "tui")
	a.spinner.Style = a.styles.Status
	states := a.states
	a.unsubscribe = store.Subscribe(func(st session.State) {
		latest(states, st)
	})
	return a
}

// Close releases the session subscription and any open page. Call it after
// the program exits.
func (m App) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.leave()
}

// Path returns the resolved path.
func (m App) Path() string {
	return m.path
}

// CurrentView returns the view being rendered.
func (m App) CurrentView() dispatch.View {
	return m.view
}

// Init restores the persisted session and starts listening for session and
// navigation events (required by Bubble Tea)
func (m App) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.bootstrap(),
		waitForState(m.states),
		waitForPath(m.nav),
	)
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := msg.Height - 12; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bootstrapMsg:
		m.booting = false
		var cmd tea.Cmd
		m, cmd = m.route()
		if msg.err != nil {
			m.logger.Warn("session bootstrap failed", "error", msg.err)
			m.lastErr = msg.err.Error()
		}
		return m, cmd

	case sessionMsg:
		var cmd tea.Cmd
		m, cmd = m.route()
		return m, tea.Batch(cmd, waitForState(m.states))

	case navMsg:
		m.path = msg.path
		var cmd tea.Cmd
		m, cmd = m.route()
		return m, tea.Batch(cmd, waitForPath(m.nav))

	case loginMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			if m.view == dispatch.ViewLogin {
				return m.openLogin()
			}
			return m, nil
		}
		m.lastErr = ""
		return m, nil

	case logoutMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		return m, nil

	case pageMsg:
		if msg.view != m.view {
			return m, nil
		}
		m.lastErr = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
		}
		m.syncTable()
		return m, nil

	case detailMsg:
		if m.detail == nil || msg.id != m.detail.ID() || !msg.ok {
			return m, nil
		}
		m.snapshot = msg.view
		return m, waitForDetail(msg.id, m.detailCh)

	case offerMsg:
		if m.detail == nil || msg.id != m.detail.ID() {
			return m, nil
		}
		m.snapshot = m.detail.Snapshot()
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.notice = "Offer recorded"
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.form != nil {
		if msg.String() == "esc" && m.formKind == formOffer {
			m.form, m.formKind = nil, formNone
			return m, nil
		}
		return m.updateForm(msg)
	}

	switch msg.String() {
	case "q":
		return m.quit()

	case "L":
		if m.session.State().Phase != session.PhaseAuthenticated {
			return m, nil
		}
		return m, m.logout()

	case "r":
		return m.refresh()

	case "enter":
		return m.open()

	case "o":
		if m.view != dispatch.ViewNegotiation || m.detail == nil {
			return m, nil
		}
		return m.openOffer()

	case "esc":
		if m.view == dispatch.ViewNegotiation {
			m.path = dispatch.PathApp
			return m.route()
		}
		return m, nil
	}

	if m.tableView() {
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m App) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.leave()
	return m, tea.Quit
}

func (m App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		kind := m.formKind
		m.form, m.formKind = nil, formNone
		switch kind {
		case formLogin:
			return m.submitLogin(*m.login)
		case formOffer:
			return m, m.submitOffer(*m.offer)
		}
	case huh.StateAborted:
		if m.formKind == formLogin {
			return m.openLogin()
		}
		m.form, m.formKind = nil, formNone
	}
	return m, cmd
}

// route resolves the current path against the session and switches views
// when the outcome changed.
func (m App) route() (App, tea.Cmd) {
	m.state = m.session.State()
	if m.booting {
		return m, nil
	}

	dec, path := dispatch.Follow(m.state, m.path)
	m.path = path
	if dec.View == m.view && dec.Params["id"] == m.params["id"] {
		return m, nil
	}

	m.leave()
	m.view, m.params = dec.View, dec.Params
	m.lastErr, m.notice = "", ""
	m.logger.Debug("view changed", "view", string(m.view), "path", m.path)
	return m.enter()
}

func (m App) enter() (App, tea.Cmd) {
	switch m.view {
	case dispatch.ViewLogin:
		return m.openLogin()

	case dispatch.ViewMemberDashboard:
		m.member = pages.NewMemberDashboard(m.backend, m.session)
		m.table = newTable(negotiationColumns)
		return m, tea.Batch(m.spinner.Tick, m.load(m.member.Load))

	case dispatch.ViewSupplierDashboard:
		m.supplier = pages.NewSupplierDashboard(m.backend, m.session)
		m.table = newTable(summaryColumns)
		return m, tea.Batch(m.spinner.Tick, m.load(m.supplier.Load))

	case dispatch.ViewAdminDashboard:
		m.admin = pages.NewAdminDashboard(m.backend, m.session)
		m.table = newTable(negotiationColumns)
		return m, tea.Batch(m.spinner.Tick, m.load(m.admin.Load))

	case dispatch.ViewNegotiation:
		id, err := pages.ParseID("id", m.params["id"])
		if err != nil {
			m.lastErr = err.Error()
			return m, nil
		}
		m.detail = negotiation.NewDetail(m.backend, m.session, id, m.detailOpts...)
		m.detailCh = m.detail.Watch(m.ctx)
		m.snapshot = m.detail.Snapshot()
		return m, tea.Batch(m.spinner.Tick, waitForDetail(id, m.detailCh))
	}
	return m, nil
}

// leave closes whatever the current view opened. Closing the detail stops
// its polling.
func (m *App) leave() {
	if m.member != nil {
		m.member.Close()
		m.member = nil
	}
	if m.supplier != nil {
		m.supplier.Close()
		m.supplier = nil
	}
	if m.admin != nil {
		m.admin.Close()
		m.admin = nil
	}
	if m.detail != nil {
		m.detail.Close()
		m.detail, m.detailCh = nil, nil
		m.snapshot = negotiation.View{}
	}
	m.form, m.formKind = nil, formNone
}

func (m App) refresh() (tea.Model, tea.Cmd) {
	m.notice = ""
	switch {
	case m.detail != nil:
		m.detail.Refresh()
		return m, nil
	case m.member != nil:
		return m, tea.Batch(m.spinner.Tick, m.load(m.member.Load))
	case m.supplier != nil:
		return m, tea.Batch(m.spinner.Tick, m.load(m.supplier.Load))
	case m.admin != nil:
		return m, tea.Batch(m.spinner.Tick, m.load(m.admin.Load))
	}
	return m, nil
}

// open navigates to the negotiation selected in the table. The dispatcher
// only routes suppliers to the detail view.
func (m App) open() (tea.Model, tea.Cmd) {
	if !m.tableView() {
		return m, nil
	}
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return m, nil
	}
	id, err := pages.ParseID("negotiation", row[0])
	if err != nil {
		return m, nil
	}

	m.path = dispatch.NegotiationPath(id)
	m, cmd := m.route()
	if m.view != dispatch.ViewNegotiation {
		m.notice = "Use 'republic negotiations show " + row[0] + "' for details"
	}
	return m, cmd
}

func (m App) openLogin() (App, tea.Cmd) {
	prev := pages.LoginForm{}
	if m.login != nil {
		prev.Email = m.login.Email
	}
	m.login = &prev
	m.form = newForm(inputs(LoginFields(&m.login.Email, &m.login.Password))...)
	m.formKind = formLogin
	return m, m.form.Init()
}

func (m App) openOffer() (tea.Model, tea.Cmd) {
	// A rejected form comes back with what was typed.
	prev := m.detail.Snapshot().Form
	m.offer = &prev
	m.form = newForm(
		Field{Title: "Proposed PMPM", Placeholder: "425.00", Value: &m.offer.PMPM}.input(),
		Field{Title: "Expected MLR", Placeholder: "optional, e.g. 0.85", Value: &m.offer.MLR}.input(),
		huh.NewText().Title("Notes").Value(&m.offer.Notes),
	)
	m.formKind = formOffer
	m.notice = ""
	return m, m.form.Init()
}

func (m App) tableView() bool {
	switch m.view {
	case dispatch.ViewMemberDashboard, dispatch.ViewSupplierDashboard, dispatch.ViewAdminDashboard:
		return true
	}
	return false
}
