// Package session holds the signed-in user's tokens and profile and moves
// them through the anonymous, hydrating and authenticated phases.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/healthrepublic/republic/internal/api"
	rerrors "github.com/healthrepublic/republic/internal/errors"
	"github.com/healthrepublic/republic/internal/log"
	"github.com/healthrepublic/republic/internal/tokenstore"
)

// Phase is the session's lifecycle position.
type Phase string

const (
	PhaseAnonymous     Phase = "anonymous"
	PhaseHydrating     Phase = "hydrating"
	PhaseAuthenticated Phase = "authenticated"
)

// Navigation targets.
const (
	PathApp   = "/app"
	PathLogin = "/login"
)

// ErrBusy is returned when a login or bootstrap is already running.
var ErrBusy = rerrors.NewSessionBusyError()

// State is a snapshot of the session. User is set only when authenticated.
type State struct {
	Phase        Phase
	AccessToken  string
	RefreshToken string
	User         *api.User
	Profile      *api.MeResponse
}

// Role returns the user's role, or "" when nobody is signed in.
func (s State) Role() string {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Authenticator is the part of the API client the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenPair, error)
	Me(ctx context.Context, token string) (*api.MeResponse, error)
}

// TokenSource supplies the current bearer token to page controllers.
type TokenSource interface {
	AccessToken() string
}

// Navigator receives post-login and post-logout destinations.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Option configures a Store
type Option func(*Store)

// WithNavigator sets where Login and Logout send the user.
func WithNavigator(n Navigator) Option {
	return func(s *Store) {
		s.nav = n
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithClock replaces time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the session state machine. It is safe for concurrent use but
// runs one login or bootstrap at a time.
type Store struct {
	auth   Authenticator
	tokens tokenstore.Store
	nav    Navigator
	logger *log.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     State
	busy      bool
	listeners map[int]func(State)
	nextID    int
}

// New creates an anonymous session.
func New(auth Authenticator, tokens tokenstore.Store, opts ...Option) *Store {
	s := &Store{
		auth:      auth,
		tokens:    tokens,
		nav:       NavigatorFunc(func(string) {}),
		now:       time.Now,
		state:     State{Phase: PhaseAnonymous},
		listeners: map[int]func(State){},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.OrDefault(s.logger).With("component", "session")
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AccessToken returns the current bearer token, or "".
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AccessToken
}

// Subscribe registers fn to run after every transition. The returned
// function removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Bootstrap restores a persisted session. Without a stored access token it
// settles anonymous. A token that no longer yields a profile is cleared and
// an AUTH-003 error is returned.
func (s *Store) Bootstrap(ctx context.Context) error {
	if !s.acquire() {
		return ErrBusy
	}
	defer s.release()

	toks, err := s.tokens.Load()
	if err != nil {
		s.set(State{Phase: PhaseAnonymous})
		return err
	}
	if toks.Empty() {
		s.set(State{Phase: PhaseAnonymous})
		return nil
	}

	s.set(State{Phase: PhaseHydrating, AccessToken: toks.Access, RefreshToken: toks.Refresh})

	if s.expired(toks.Access) && toks.Refresh != "" {
		s.logger.Debug("stored access token expired, refreshing")
		pair, err := s.auth.Refresh(ctx, toks.Refresh)
		if err != nil {
			return s.fail(rerrors.NewHydrationFailedError(err))
		}
		toks = merge(toks, pair)
		if err := s.tokens.Save(toks); err != nil {
			return s.fail(err)
		}
		s.set(State{Phase: PhaseHydrating, AccessToken: toks.Access, RefreshToken: toks.Refresh})
	}

	me, err := s.auth.Me(ctx, toks.Access)
	if err != nil {
		return s.fail(rerrors.NewHydrationFailedError(err))
	}

	s.authenticated(toks, me)
	return nil
}

// Login signs in, persists the token pair, loads the profile and navigates
// to the app. Any failure leaves the session anonymous with no tokens.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if !s.acquire() {
		return ErrBusy
	}
	defer s.release()

	s.set(State{Phase: PhaseHydrating})

	pair, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return s.fail(rerrors.NewLoginFailedError(err))
	}

	toks := tokenstore.Tokens{Access: pair.AccessToken, Refresh: pair.RefreshToken}
	if err := s.tokens.Save(toks); err != nil {
		return s.fail(err)
	}
	s.set(State{Phase: PhaseHydrating, AccessToken: toks.Access, RefreshToken: toks.Refresh})

	me, err := s.auth.Me(ctx, toks.Access)
	if err != nil {
		return s.fail(rerrors.NewLoginFailedError(err))
	}

	s.authenticated(toks, me)
	s.logger.Info("logged in", "user_id", me.User.ID, "role", me.User.Role)
	s.nav.Navigate(PathApp)
	return nil
}

// Logout forgets the session and navigates to the login page. The state
// becomes anonymous even when clearing the store fails.
func (s *Store) Logout() error {
	// The state goes first so an in-flight Refresh sees the logout before
	// it saves.
	s.set(State{Phase: PhaseAnonymous})
	err := s.tokens.Clear()
	if err != nil {
		s.logger.Warn("clearing tokens on logout", "error", err)
	}
	s.nav.Navigate(PathLogin)
	return err
}

// Refresh exchanges the refresh token for a new pair. On failure the
// session is logged out. If the session is logged out or replaced while the
// exchange runs, the new pair is dropped and AUTH-002 is returned.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	current := s.state
	s.mu.Unlock()

	if current.RefreshToken == "" {
		return rerrors.NewNotLoggedInError()
	}

	pair, err := s.auth.Refresh(ctx, current.RefreshToken)
	if err != nil {
		_ = s.Logout()
		return rerrors.NewRefreshFailedError(err)
	}

	toks := merge(tokenstore.Tokens{Access: current.AccessToken, Refresh: current.RefreshToken}, pair)

	// A logout or new login while the request was out wins; its tokens
	// must not be overwritten by this pair.
	s.mu.Lock()
	if s.state.Phase == PhaseAnonymous || s.state.RefreshToken != current.RefreshToken {
		s.mu.Unlock()
		s.logger.Debug("session changed during refresh, discarding tokens")
		return rerrors.NewNotLoggedInError()
	}
	if err := s.tokens.Save(toks); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.AccessToken = toks.Access
	s.state.RefreshToken = toks.Refresh
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Store) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Store) authenticated(toks tokenstore.Tokens, me *api.MeResponse) {
	user := me.User
	s.set(State{
		Phase:        PhaseAuthenticated,
		AccessToken:  toks.Access,
		RefreshToken: toks.Refresh,
		User:         &user,
		Profile:      me,
	})
}

// fail clears persisted tokens and returns to anonymous.
func (s *Store) fail(err error) error {
	if cerr := s.tokens.Clear(); cerr != nil {
		s.logger.Warn("clearing tokens after failure", "error", cerr)
	}
	s.set(State{Phase: PhaseAnonymous})
	s.logger.Debug("session reset", "error", err)
	return err
}

func (s *Store) set(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.notify()
}

// notify calls listeners outside the lock so they may read the store.
func (s *Store) notify() {
	s.mu.Lock()
	st := s.state
	fns := make([]func(State), 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// expired reports whether token is a JWT whose exp has passed. The
// signature is not checked; the backend remains the authority.
func (s *Store) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !s.now().Before(claims.ExpiresAt.Time)
}

func merge(old tokenstore.Tokens, pair *api.TokenPair) tokenstore.Tokens {
	out := tokenstore.Tokens{Access: pair.AccessToken, Refresh: pair.RefreshToken}
	if out.Refresh == "" {
		out.Refresh = old.Refresh
	}
	return out
}
