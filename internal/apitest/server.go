// Package apitest runs an in-process fake of the Health Republic backend.
//
// The fake is only meant to exercise the client: it stores data in memory,
// echoes rounds back, and its offer evaluation is a plain target comparison.
// Every request it receives is checked against the embedded OpenAPI contract
// and mismatches fail the owning test.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// Server is a running fake backend.
type Server struct {
	URL string

	srv        *httptest.Server
	store      *store
	contract   *Contract
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu       sync.Mutex
	hits     map[string]int
	failures map[string]*failure
}

type failure struct {
	status int
	body   string
	times  int
}

// Option configures a Server
type Option func(*Server)

// WithAccessTTL sets the lifetime of issued access tokens.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = d
	}
}

// NewServer starts a fake backend that is shut down when t finishes.
// Contract violations seen during the test are reported through t.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	contract, err := LoadContract()
	if err != nil {
		t.Fatalf("loading API contract: %v", err)
	}

	s := &Server{
		store:      newStore(time.Now),
		contract:   contract,
		secret:     []byte("apitest-secret"),
		accessTTL:  15 * time.Minute,
		refreshTTL: 24 * time.Hour,
		hits:       map[string]int{},
		failures:   map[string]*failure{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.srv = httptest.NewServer(s.router())
	s.URL = s.srv.URL

	t.Cleanup(func() {
		s.srv.Close()
		for _, f := range contract.Findings() {
			t.Errorf("contract violation: %s", f)
		}
	})
	return s
}

// Contract exposes the request validator.
func (s *Server) Contract() *Contract {
	return s.contract
}

// Fail makes the next times requests to method+path answer with status and
// body. times <= 0 fails every request until Reset.
func (s *Server) Fail(method, path string, status int, body string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, body: body, times: times}
}

// Reset clears injected failures.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]*failure{}
}

// Hits counts requests received for method+path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// IssueTokens signs a token pair for a seeded or created user.
func (s *Server) IssueTokens(userID int64, accessTTL time.Duration) (access, refresh string) {
	s.store.mu.Lock()
	role := ""
	if u := s.store.users[userID]; u != nil {
		role = u.Role
	}
	s.store.mu.Unlock()

	access = s.sign(userID, role, tokenAccess, accessTTL)
	refresh = s.sign(userID, role, tokenRefresh, s.refreshTTL)
	return access, refresh
}

// SetRole changes a user's role, e.g. to one the client does not know.
func (s *Server) SetRole(userID int64, role string) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if u := s.store.users[userID]; u != nil {
		u.Role = role
	}
}

// AddRound appends a round as if the other party had acted.
func (s *Server) AddRound(negotiationID int64, actor string, pmpm float64) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if n := s.store.negotiations[negotiationID]; n != nil {
		s.store.appendRound(n, actor, pmpm, nil, nil)
	}
}

// Rounds returns how many rounds a negotiation has.
func (s *Server) Rounds(negotiationID int64) int {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if n := s.store.negotiations[negotiationID]; n != nil {
		return len(n.Rounds)
	}
	return 0
}

func (s *Server) sign(userID int64, role, kind string, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  "apitest",
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"type": kind,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return token
}

// parseToken validates a token of the given kind and returns the user id.
func (s *Server) parseToken(raw, kind string) (int64, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	if claims["type"] != kind {
		return 0, fmt.Errorf("not a %s token", kind)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(sub, 10, 64)
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.inject)

	r.Post("/auth/login", s.login)
	r.Post("/auth/refresh", s.refresh)

	r.Get("/dashboard/public/overview", s.publicOverview)
	r.Get("/collectives/with-stats", s.collectivesWithStats)
	r.Get("/users/lookups", s.lookups)
	r.Post("/users/register", s.register(false))
	r.Post("/users/register-supplier", s.register(true))

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/dashboard/me", s.me)
		r.With(s.requireRole("member", "admin")).Get("/dashboard/member", s.memberDashboard)
		r.With(s.requireRole("supplier")).Get("/dashboard/supplier/negotiations", s.supplierDashboard)
		r.With(s.requireRole("admin")).Get("/dashboard/admin", s.adminDashboard)

		r.Route("/negotiations", func(r chi.Router) {
			r.With(s.requireRole("admin")).Get("/", s.listNegotiations)
			r.Get("/my", s.myNegotiations)
			r.With(s.requireRole("admin")).Post("/start", s.startNegotiation)
			r.Get("/{id}", s.negotiationDetail)
			r.With(s.requireRole("supplier")).Post("/{id}/supplier-offer", s.supplierOffer)
			r.With(s.requireRole("member", "admin")).Post("/{id}/collective-counter", s.collectiveCounter)
			r.With(s.requireRole("member", "admin")).Post("/{id}/accept", s.accept)
		})

		r.Route("/collectives", func(r chi.Router) {
			r.Get("/", s.listCollectives)
			r.With(s.requireRole("admin")).Post("/", s.createCollective)
			r.With(s.requireRole("admin")).Patch("/{id}", s.updateCollective)
			r.With(s.requireRole("admin")).Delete("/{id}", s.deleteCollective)
			r.Post("/{id}/join", s.joinCollective)
			r.Post("/{id}/leave", s.leaveCollective)
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(s.requireRole("admin"))
			r.Get("/", s.adminListUsers)
			r.Post("/", s.adminCreateUser)
			r.Post("/{id}/activate", s.setActive(true))
			r.Post("/{id}/deactivate", s.setActive(false))
		})
	})

	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()

		s.contract.Check(r)
		if id := r.Header.Get("X-Request-ID"); id != "" {
			w.Header().Set("X-Request-ID", id)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		f := s.failures[key]
		if f != nil && f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(s.failures, key)
			}
		}
		s.mu.Unlock()

		if f != nil {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		id, err := s.parseToken(header[len(prefix):], tokenAccess)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		s.store.mu.Lock()
		u := s.store.users[id]
		s.store.mu.Unlock()
		if u == nil || !u.Active {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	})
}

func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := currentUser(r)
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeDetail(w, http.StatusForbidden, "Not enough permissions")
		})
	}
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(userKey{}).(*user)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}
