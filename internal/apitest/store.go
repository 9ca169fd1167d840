package apitest

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Seeded accounts. Every seeded user shares Password.
const (
	Password      = "correct-horse-battery"
	AdminEmail    = "admin@republic.test"
	MemberEmail   = "member@republic.test"
	SupplierEmail = "supplier@republic.test"
)

// Seeded ids.
const (
	AdminID       int64 = 1
	MemberID      int64 = 2
	SupplierID    int64 = 3
	CollectiveID  int64 = 1
	NegotiationID int64 = 1
)

const timeLayout = "2006-01-02T15:04:05.000000"

type user struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	FullName     *string `json:"full_name"`
	Role         string  `json:"role"`
	UserType     string  `json:"user_type"`
	Active       bool    `json:"active"`
	CreatedAt    string  `json:"created_at"`
	passwordHash []byte
}

type collective struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category *string `json:"category"`
	members  map[int64]bool
}

type round struct {
	ID            int64    `json:"id"`
	NegotiationID int64    `json:"negotiation_id"`
	RoundNumber   int      `json:"round_number"`
	Actor         string   `json:"actor"`
	ProposedPMPM  float64  `json:"proposed_pmpm"`
	ProposedMLR   *float64 `json:"proposed_mlr"`
	Notes         *string  `json:"notes"`
	CreatedAt     string   `json:"created_at"`
}

type negotiation struct {
	ID                   int64    `json:"id"`
	CollectiveID         int64    `json:"collective_id"`
	SupplierID           int64    `json:"supplier_id"`
	Status               string   `json:"status"`
	TargetPMPM           *float64 `json:"target_pmpm"`
	TargetPopulationSize *int     `json:"target_population_size"`
	RiskAppetite         *string  `json:"risk_appetite"`
	TargetStartDate      *string  `json:"target_start_date"`
	Notes                *string  `json:"notes"`
	FinalAgreedPMPM      *float64 `json:"final_agreed_pmpm"`
	FinalExpectedMLR     *float64 `json:"final_expected_mlr"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
	Rounds               []round  `json:"rounds"`
}

// store is the fake backend's state. Rounds are kept in insertion order.
type store struct {
	mu           sync.Mutex
	now          func() time.Time
	users        map[int64]*user
	collectives  map[int64]*collective
	negotiations map[int64]*negotiation
	nextID       int64
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func newStore(now func() time.Time) *store {
	s := &store{
		now:          now,
		users:        map[int64]*user{},
		collectives:  map[int64]*collective{},
		negotiations: map[int64]*negotiation{},
		nextID:       100,
	}

	s.addUser(AdminID, AdminEmail, "Ada Admin", "admin", "employer")
	s.addUser(MemberID, MemberEmail, "Max Member", "member", "consumer")
	s.addUser(SupplierID, SupplierEmail, "", "supplier", "insurer")

	s.collectives[CollectiveID] = &collective{
		ID:       CollectiveID,
		Name:     "Texas Freelancers",
		Category: strPtr("freelancers"),
		members:  map[int64]bool{MemberID: true},
	}
	s.collectives[2] = &collective{
		ID:      2,
		Name:    "Austin Makers",
		members: map[int64]bool{},
	}

	ts := s.stamp()
	s.negotiations[NegotiationID] = &negotiation{
		ID:           NegotiationID,
		CollectiveID: CollectiveID,
		SupplierID:   SupplierID,
		Status:       "in_progress",
		TargetPMPM:   floatPtr(400),
		RiskAppetite: strPtr("medium"),
		CreatedAt:    ts,
		UpdatedAt:    ts,
		Rounds: []round{
			{ID: 1, NegotiationID: NegotiationID, RoundNumber: 1, Actor: "supplier", ProposedPMPM: 450, CreatedAt: ts},
		},
	}

	return s
}

func (s *store) addUser(id int64, email, fullName, role, userType string) *user {
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u := &user{
		ID:           id,
		Email:        email,
		Role:         role,
		UserType:     userType,
		Active:       true,
		CreatedAt:    s.stamp(),
		passwordHash: hash,
	}
	if fullName != "" {
		u.FullName = strPtr(fullName)
	}
	s.users[id] = u
	return u
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

func (s *store) userByEmail(email string) *user {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (s *store) sortedUsers() []*user {
	out := make([]*user, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) sortedNegotiations(keep func(*negotiation) bool) []*negotiation {
	out := []*negotiation{}
	for _, n := range s.negotiations {
		if keep == nil || keep(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type collectiveSummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    *string `json:"category"`
	MemberCount int     `json:"member_count"`
}

func (s *store) collectiveSummaries() []collectiveSummary {
	out := []collectiveSummary{}
	for _, c := range s.collectives {
		out = append(out, collectiveSummary{ID: c.ID, Name: c.Name, Category: c.Category, MemberCount: len(c.members)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) collectiveOf(userID int64) *collective {
	ids := make([]int64, 0, len(s.collectives))
	for id := range s.collectives {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if s.collectives[id].members[userID] {
			return s.collectives[id]
		}
	}
	return nil
}

func (s *store) countRole(role string) int {
	n := 0
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n
}

func (s *store) countStatus(status string) int {
	n := 0
	for _, neg := range s.negotiations {
		if neg.Status == status {
			n++
		}
	}
	return n
}
