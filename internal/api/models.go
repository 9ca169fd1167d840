package api

// Roles the backend assigns. Any other value is kept verbatim.
const (
	RoleMember   = "member"
	RoleSupplier = "supplier"
	RoleAdmin    = "admin"
)

// Round actors.
const (
	ActorSupplier   = "supplier"
	ActorCollective = "collective"
)

// Negotiation statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusAgreed     = "agreed"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// User is the profile returned by /dashboard/me.
type User struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role"`
}

// DisplayName returns the full name, or the email when none is set.
func (u User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}

// Sections carries the dashboard headline.
type Sections struct {
	Headline string `json:"headline"`
	Role     string `json:"role"`
}

// CollectiveRef is the caller's collective, if any.
type CollectiveRef struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category *string `json:"category"`
}

// MeResponse is the body of GET /dashboard/me.
type MeResponse struct {
	User       User           `json:"user"`
	Sections   Sections       `json:"sections"`
	Collective *CollectiveRef `json:"collective,omitempty"`
}

// MemberDashboard is the body of GET /dashboard/member.
type MemberDashboard struct {
	Role    string `json:"role"`
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

// Round is one offer or counter-offer.
type Round struct {
	ID            int64    `json:"id"`
	NegotiationID int64    `json:"negotiation_id"`
	RoundNumber   int      `json:"round_number"`
	Actor         string   `json:"actor"`
	ProposedPMPM  *float64 `json:"proposed_pmpm"`
	ProposedMLR   *float64 `json:"proposed_mlr"`
	Notes         *string  `json:"notes"`
	CreatedAt     string   `json:"created_at"`
}

// NegotiationMessage is a free-text note attached to a negotiation.
type NegotiationMessage struct {
	ID            int64   `json:"id"`
	NegotiationID int64   `json:"negotiation_id"`
	SenderType    string  `json:"sender_type"`
	SenderName    *string `json:"sender_name"`
	Body          string  `json:"body"`
	CreatedAt     string  `json:"created_at"`
}

// Negotiation is a pricing negotiation between a collective and a supplier.
// Timestamps are kept as the backend's strings; they carry no zone.
type Negotiation struct {
	ID                   int64                `json:"id"`
	CollectiveID         int64                `json:"collective_id"`
	SupplierID           int64                `json:"supplier_id"`
	Status               string               `json:"status"`
	TargetPMPM           *float64             `json:"target_pmpm"`
	TargetPopulationSize *int                 `json:"target_population_size"`
	RiskAppetite         *string              `json:"risk_appetite"`
	TargetStartDate      *string              `json:"target_start_date"`
	Notes                *string              `json:"notes"`
	FinalAgreedPMPM      *float64             `json:"final_agreed_pmpm"`
	FinalExpectedMLR     *float64             `json:"final_expected_mlr"`
	CreatedAt            string               `json:"created_at"`
	UpdatedAt            string               `json:"updated_at"`
	Rounds               []Round              `json:"rounds"`
	Messages             []NegotiationMessage `json:"messages,omitempty"`
}

// CreateNegotiationRequest is the body of POST /negotiations/start.
type CreateNegotiationRequest struct {
	CollectiveID         int64    `json:"collective_id"`
	SupplierID           int64    `json:"supplier_id"`
	TargetPMPM           *float64 `json:"target_pmpm,omitempty"`
	TargetPopulationSize *int     `json:"target_population_size,omitempty"`
	RiskAppetite         *string  `json:"risk_appetite,omitempty"`
	TargetStartDate      *string  `json:"target_start_date,omitempty"`
	Notes                *string  `json:"notes,omitempty"`
}

// OfferInput is a supplier offer or collective counter-offer.
type OfferInput struct {
	ProposedPMPM float64  `json:"proposed_pmpm"`
	ProposedMLR  *float64 `json:"proposed_mlr,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
	Accept       bool     `json:"accept"`
}

// Evaluation is the backend's verdict on an offer.
type Evaluation struct {
	IsAcceptable         bool     `json:"is_acceptable"`
	Message              string   `json:"message,omitempty"`
	DifferenceFromTarget *float64 `json:"difference_from_target,omitempty"`
	TargetPMPM           *float64 `json:"target_pmpm,omitempty"`
	OfferPMPM            *float64 `json:"offer_pmpm,omitempty"`
	PercentFromTarget    *float64 `json:"percent_from_target,omitempty"`
	FairBandMin          *float64 `json:"fair_band_min,omitempty"`
	FairBandMax          *float64 `json:"fair_band_max,omitempty"`
	RecommendedAction    string   `json:"recommended_action,omitempty"`
	SuggestedCounterPMPM *float64 `json:"suggested_counter_pmpm,omitempty"`
}

// OfferResponse is returned after an offer is recorded.
type OfferResponse struct {
	NegotiationID int64      `json:"negotiation_id"`
	Status        string     `json:"status"`
	Round         Round      `json:"round"`
	Evaluation    Evaluation `json:"evaluation"`
}

// NegotiationSummary is a row of the supplier dashboard.
type NegotiationSummary struct {
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

// SupplierDashboard is the body of GET /dashboard/supplier/negotiations.
type SupplierDashboard struct {
	SupplierID         int64                `json:"supplier_id"`
	Email              string               `json:"email"`
	OpenNegotiations   []NegotiationSummary `json:"open_negotiations"`
	ClosedNegotiations []NegotiationSummary `json:"closed_negotiations"`
}

// AdminStats are platform-wide counters.
type AdminStats struct {
	TotalUsers             int `json:"total_users"`
	Members                int `json:"members"`
	Suppliers              int `json:"suppliers"`
	Admins                 int `json:"admins"`
	TotalNegotiations      int `json:"total_negotiations"`
	OpenNegotiations       int `json:"open_negotiations"`
	InProgressNegotiations int `json:"in_progress_negotiations"`
	AgreedNegotiations     int `json:"agreed_negotiations"`
}

// AdminDashboard is the body of GET /dashboard/admin.
type AdminDashboard struct {
	AdminID int64      `json:"admin_id"`
	Email   string     `json:"email"`
	Stats   AdminStats `json:"stats"`
}

// CollectiveSummary is a collective with its member count.
type CollectiveSummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Category    *string `json:"category"`
	MemberCount int     `json:"member_count"`
}

// CollectiveInput creates or updates a collective. Nil fields are left out.
type CollectiveInput struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
}

// PublicOverview feeds the splash page.
type PublicOverview struct {
	Collectives    []CollectiveSummary `json:"collectives"`
	TotalMembers   int                 `json:"total_members"`
	TotalInsurers  int                 `json:"total_insurers"`
	TotalProviders int                 `json:"total_providers"`
}

// AdminUser is a row of the admin user list.
type AdminUser struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FullName  *string `json:"full_name"`
	Role      string  `json:"role"`
	Active    *bool   `json:"active,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// AdminCreateUserRequest is the body of POST /admin/users.
type AdminCreateUserRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
	Role     string  `json:"role"`
}

// Lookups are the select options for registration.
type Lookups struct {
	AgeRanges  []string `json:"age_ranges"`
	Industries []string `json:"industries"`
	Roles      []string `json:"roles"`
	UserTypes  []string `json:"user_types"`
}

// RegisterRequest is the body of both registration endpoints.
type RegisterRequest struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	FullName      *string `json:"full_name,omitempty"`
	State         *string `json:"state,omitempty"`
	AgeRange      *string `json:"age_range,omitempty"`
	Industry      *string `json:"industry,omitempty"`
	HouseholdSize *int    `json:"household_size,omitempty"`
	Role          *string `json:"role,omitempty"`
	UserType      *string `json:"user_type,omitempty"`
}
