package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.store.mu.Lock()
	u := s.store.userByEmail(in.Email)
	s.store.mu.Unlock()

	if u == nil || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(in.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	if !u.Active {
		writeDetail(w, http.StatusBadRequest, "Inactive user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  s.sign(u.ID, u.Role, tokenAccess, s.accessTTL),
		"refresh_token": s.sign(u.ID, u.Role, tokenRefresh, s.refreshTTL),
		"token_type":    "bearer",
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &in) {
		return
	}

	id, err := s.parseToken(in.RefreshToken, tokenRefresh)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	access, refresh := s.IssueTokens(id, s.accessTTL)
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	s.store.mu.Lock()
	c := s.store.collectiveOf(u.ID)
	s.store.mu.Unlock()

	headline := u.Email
	if u.FullName != nil {
		headline = *u.FullName
	}
	body := map[string]any{
		"user": map[string]any{
			"id":        u.ID,
			"email":     u.Email,
			"full_name": u.FullName,
			"role":      u.Role,
		},
		"sections": map[string]string{
			"headline": "Welcome back, " + headline,
			"role":     u.Role,
		},
		"collective": nil,
	}
	if c != nil {
		body["collective"] = map[string]any{"id": c.ID, "name": c.Name, "category": c.Category}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) memberDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"role":    "member",
		"message": "Member dashboard",
		"user_id": currentUser(r).ID,
	})
}

type negotiationSummary struct {
	ID                 int64    `json:"id"`
	CollectiveID       int64    `json:"collective_id"`
	SupplierID         int64    `json:"supplier_id"`
	Status             string   `json:"status"`
	TargetPMPM         *float64 `json:"target_pmpm"`
	FinalAgreedPMPM    *float64 `json:"final_agreed_pmpm"`
	LastRoundActor     *string  `json:"last_round_actor"`
	LastRoundPMPM      *float64 `json:"last_round_pmpm"`
	LastRoundMLR       *float64 `json:"last_round_mlr"`
	LastRoundCreatedAt *string  `json:"last_round_created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

func summarize(n *negotiation) negotiationSummary {
	sum := negotiationSummary{
		ID:              n.ID,
		CollectiveID:    n.CollectiveID,
		SupplierID:      n.SupplierID,
		Status:          n.Status,
		TargetPMPM:      n.TargetPMPM,
		FinalAgreedPMPM: n.FinalAgreedPMPM,
		UpdatedAt:       n.UpdatedAt,
	}
	if len(n.Rounds) > 0 {
		last := n.Rounds[len(n.Rounds)-1]
		sum.LastRoundActor = strPtr(last.Actor)
		sum.LastRoundPMPM = floatPtr(last.ProposedPMPM)
		sum.LastRoundMLR = last.ProposedMLR
		sum.LastRoundCreatedAt = strPtr(last.CreatedAt)
	}
	return sum
}

func (s *Server) supplierDashboard(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	open, closed := []negotiationSummary{}, []negotiationSummary{}
	for _, n := range s.store.sortedNegotiations(func(n *negotiation) bool { return n.SupplierID == u.ID }) {
		if n.Status == "agreed" {
			closed = append(closed, summarize(n))
		} else {
			open = append(open, summarize(n))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"supplier_id":         u.ID,
		"email":               u.Email,
		"open_negotiations":   open,
		"closed_negotiations": closed,
	})
}

func (s *Server) adminDashboard(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"admin_id": u.ID,
		"email":    u.Email,
		"stats": map[string]int{
			"total_users":              len(s.store.users),
			"members":                  s.store.countRole("member"),
			"suppliers":                s.store.countRole("supplier"),
			"admins":                   s.store.countRole("admin"),
			"total_negotiations":       len(s.store.negotiations),
			"open_negotiations":        s.store.countStatus("open"),
			"in_progress_negotiations": s.store.countStatus("in_progress"),
			"agreed_negotiations":      s.store.countStatus("agreed"),
		},
	})
}

func (s *Server) publicOverview(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	insurers, providers := 0, 0
	for _, u := range s.store.users {
		switch u.UserType {
		case "insurer":
			insurers++
		case "provider":
			providers++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collectives":     s.store.collectiveSummaries(),
		"total_members":   s.store.countRole("member"),
		"total_insurers":  insurers,
		"total_providers": providers,
	})
}

func (s *Server) listNegotiations(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	writeJSON(w, http.StatusOK, s.store.sortedNegotiations(nil))
}

// visible reports whether u may read n.
func (s *store) visible(u *user, n *negotiation) bool {
	switch u.Role {
	case "admin":
		return true
	case "supplier":
		return n.SupplierID == u.ID
	default:
		c := s.collectives[n.CollectiveID]
		return c != nil && c.members[u.ID]
	}
}

func (s *Server) myNegotiations(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	writeJSON(w, http.StatusOK, s.store.sortedNegotiations(func(n *negotiation) bool { return s.store.visible(u, n) }))
}

// lookupNegotiation writes an error and returns nil when the negotiation is
// missing or hidden from the caller. The store lock must be held.
func (s *Server) lookupNegotiation(w http.ResponseWriter, r *http.Request) *negotiation {
	id, ok := pathID(r)
	n := s.store.negotiations[id]
	if !ok || n == nil || !s.store.visible(currentUser(r), n) {
		writeDetail(w, http.StatusNotFound, "Negotiation not found")
		return nil
	}
	return n
}

func (s *Server) negotiationDetail(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if n := s.lookupNegotiation(w, r); n != nil {
		writeJSON(w, http.StatusOK, n)
	}
}

func (s *Server) startNegotiation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		CollectiveID         int64    `json:"collective_id"`
		SupplierID           int64    `json:"supplier_id"`
		TargetPMPM           *float64 `json:"target_pmpm"`
		TargetPopulationSize *int     `json:"target_population_size"`
		RiskAppetite         *string  `json:"risk_appetite"`
		TargetStartDate      *string  `json:"target_start_date"`
		Notes                *string  `json:"notes"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if s.store.collectives[in.CollectiveID] == nil {
		writeDetail(w, http.StatusNotFound, "Collective not found")
		return
	}
	if sup := s.store.users[in.SupplierID]; sup == nil || sup.Role != "supplier" {
		writeDetail(w, http.StatusNotFound, "Supplier not found")
		return
	}
	if in.RiskAppetite == nil {
		in.RiskAppetite = strPtr("medium")
	}

	ts := s.store.stamp()
	n := &negotiation{
		ID:                   s.store.id(),
		CollectiveID:         in.CollectiveID,
		SupplierID:           in.SupplierID,
		Status:               "open",
		TargetPMPM:           in.TargetPMPM,
		TargetPopulationSize: in.TargetPopulationSize,
		RiskAppetite:         in.RiskAppetite,
		TargetStartDate:      in.TargetStartDate,
		Notes:                in.Notes,
		CreatedAt:            ts,
		UpdatedAt:            ts,
		Rounds:               []round{},
	}
	s.store.negotiations[n.ID] = n
	writeJSON(w, http.StatusCreated, n)
}

type offerIn struct {
	ProposedPMPM float64  `json:"proposed_pmpm"`
	ProposedMLR  *float64 `json:"proposed_mlr"`
	Notes        *string  `json:"notes"`
	Accept       bool     `json:"accept"`
}

func (s *store) appendRound(n *negotiation, actor string, pmpm float64, mlr *float64, notes *string) round {
	ts := s.stamp()
	rd := round{
		ID:            s.id(),
		NegotiationID: n.ID,
		RoundNumber:   len(n.Rounds) + 1,
		Actor:         actor,
		ProposedPMPM:  pmpm,
		ProposedMLR:   mlr,
		Notes:         notes,
		CreatedAt:     ts,
	}
	n.Rounds = append(n.Rounds, rd)
	if n.Status == "open" {
		n.Status = "in_progress"
	}
	n.UpdatedAt = ts
	return rd
}

// evaluate compares the offer with the target and nothing else.
func evaluate(n *negotiation, pmpm float64) map[string]any {
	ev := map[string]any{
		"is_acceptable": true,
		"message":       "No target set; offer recorded.",
		"offer_pmpm":    pmpm,
	}
	if n.TargetPMPM == nil {
		return ev
	}
	diff := pmpm - *n.TargetPMPM
	ev["target_pmpm"] = *n.TargetPMPM
	ev["difference_from_target"] = diff
	if diff <= 0 {
		ev["message"] = "Offer is at or below target."
		ev["recommended_action"] = "accept"
	} else {
		ev["is_acceptable"] = false
		ev["message"] = fmt.Sprintf("Offer is %.2f above target.", diff)
		ev["recommended_action"] = "counter"
		ev["suggested_counter_pmpm"] = *n.TargetPMPM
	}
	return ev
}

func (s *Server) offer(actor string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in offerIn
		if !decode(w, r, &in) {
			return
		}

		s.store.mu.Lock()
		defer s.store.mu.Unlock()

		n := s.lookupNegotiation(w, r)
		if n == nil {
			return
		}
		if n.Status != "open" && n.Status != "in_progress" {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Negotiation is not open (status=%s)", n.Status))
			return
		}

		rd := s.store.appendRound(n, actor, in.ProposedPMPM, in.ProposedMLR, in.Notes)
		ev := evaluate(n, in.ProposedPMPM)
		if in.Accept && ev["is_acceptable"] == true {
			n.Status = "agreed"
			n.FinalAgreedPMPM = floatPtr(in.ProposedPMPM)
			n.FinalExpectedMLR = in.ProposedMLR
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"negotiation_id": n.ID,
			"status":         n.Status,
			"round":          rd,
			"evaluation":     ev,
		})
	}
}

func (s *Server) supplierOffer(w http.ResponseWriter, r *http.Request) {
	s.offer("supplier")(w, r)
}

func (s *Server) collectiveCounter(w http.ResponseWriter, r *http.Request) {
	s.offer("collective")(w, r)
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	n := s.lookupNegotiation(w, r)
	if n == nil {
		return
	}
	if len(n.Rounds) == 0 {
		writeDetail(w, http.StatusBadRequest, "No rounds exist to accept.")
		return
	}

	latest := n.Rounds[0]
	for _, rd := range n.Rounds {
		if rd.RoundNumber > latest.RoundNumber {
			latest = rd
		}
	}
	n.Status = "agreed"
	n.FinalAgreedPMPM = floatPtr(latest.ProposedPMPM)
	n.FinalExpectedMLR = latest.ProposedMLR
	n.UpdatedAt = s.store.stamp()
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) listCollectives(w http.ResponseWriter, r *http.Request) {
	s.collectivesWithStats(w, r)
}

func (s *Server) collectivesWithStats(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	writeJSON(w, http.StatusOK, s.store.collectiveSummaries())
}

func (s *Server) createCollective(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string  `json:"name"`
		Category *string `json:"category"`
	}
	if !decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c := &collective{ID: s.store.id(), Name: in.Name, Category: in.Category, members: map[int64]bool{}}
	s.store.collectives[c.ID] = c
	writeJSON(w, http.StatusCreated, collectiveSummary{ID: c.ID, Name: c.Name, Category: c.Category})
}

func (s *Server) lookupCollective(w http.ResponseWriter, r *http.Request) *collective {
	id, ok := pathID(r)
	c := s.store.collectives[id]
	if !ok || c == nil {
		writeDetail(w, http.StatusNotFound, "Collective not found")
		return nil
	}
	return c
}

func (s *Server) updateCollective(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     *string `json:"name"`
		Category *string `json:"category"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c := s.lookupCollective(w, r)
	if c == nil {
		return
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Category != nil {
		c.Category = in.Category
	}
	writeJSON(w, http.StatusOK, collectiveSummary{ID: c.ID, Name: c.Name, Category: c.Category, MemberCount: len(c.members)})
}

func (s *Server) deleteCollective(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c := s.lookupCollective(w, r)
	if c == nil {
		return
	}
	delete(s.store.collectives, c.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) joinCollective(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c := s.lookupCollective(w, r)
	if c == nil {
		return
	}
	u := currentUser(r)
	if c.members[u.ID] {
		writeDetail(w, http.StatusBadRequest, "Already a member of this collective")
		return
	}
	c.members[u.ID] = true
	writeJSON(w, http.StatusOK, map[string]any{"collective_id": c.ID, "user_id": u.ID})
}

func (s *Server) leaveCollective(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	c := s.lookupCollective(w, r)
	if c == nil {
		return
	}
	u := currentUser(r)
	if !c.members[u.ID] {
		writeDetail(w, http.StatusBadRequest, "Not a member of this collective")
		return
	}
	delete(c.members, u.ID)
	// Empty body on purpose: the client must treat it as success.
	w.WriteHeader(http.StatusOK)
}

func (s *Server) adminListUsers(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	writeJSON(w, http.StatusOK, s.store.sortedUsers())
}

func (s *Server) adminCreateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string  `json:"email"`
		Password string  `json:"password"`
		FullName *string `json:"full_name"`
		Role     string  `json:"role"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if s.store.userByEmail(in.Email) != nil {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	u, err := s.store.createUser(in.Email, in.Password, in.FullName, in.Role, "consumer")
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *store) createUser(email, password string, fullName *string, role, userType string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	u := &user{
		ID:           s.id(),
		Email:        email,
		FullName:     fullName,
		Role:         role,
		UserType:     userType,
		Active:       true,
		CreatedAt:    s.stamp(),
		passwordHash: hash,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Server) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)

		s.store.mu.Lock()
		defer s.store.mu.Unlock()

		u := s.store.users[id]
		if !ok || u == nil {
			writeDetail(w, http.StatusNotFound, "User not found")
			return
		}
		u.Active = active
		writeJSON(w, http.StatusOK, u)
	}
}

func (s *Server) lookups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"age_ranges": {"18-24", "25-34", "35-44", "45-54", "55-64", "65+"},
		"industries": {"technology", "construction", "hospitality", "healthcare", "creative"},
		"roles":      {"member", "supplier", "admin"},
		"user_types": {"consumer", "employer", "provider", "insurer"},
	})
}

func (s *Server) register(supplier bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Email    string  `json:"email"`
			Password string  `json:"password"`
			FullName *string `json:"full_name"`
			UserType *string `json:"user_type"`
		}
		if !decode(w, r, &in) {
			return
		}
		if len(in.Password) < 8 {
			writeDetail(w, http.StatusUnprocessableEntity, "password must be at least 8 characters")
			return
		}

		role, userType := "member", "consumer"
		if in.UserType != nil {
			userType = *in.UserType
		}
		if supplier {
			role = "supplier"
		}

		s.store.mu.Lock()
		defer s.store.mu.Unlock()

		if s.store.userByEmail(in.Email) != nil {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		u, err := s.store.createUser(in.Email, in.Password, in.FullName, role, userType)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}
