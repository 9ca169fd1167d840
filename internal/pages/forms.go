package pages

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/healthrepublic/republic/internal/api"
	rerrors "github.com/healthrepublic/republic/internal/errors"
)

// Registration categories.
const (
	CategoryMember   = "member"
	CategoryEmployer = "employer"
	CategoryProvider = "provider"
	CategoryInsurer  = "insurer"
)

// Categories lists registration categories in display order.
var Categories = []string{CategoryMember, CategoryEmployer, CategoryProvider, CategoryInsurer}

// RiskAppetites are the accepted risk appetite values.
var RiskAppetites = []string{"low", "medium", "high"}

// LoginForm holds the login fields.
type LoginForm struct {
	Email    string
	Password string
}

// Validate checks both fields are present.
func (f LoginForm) Validate() error {
	if strings.TrimSpace(f.Email) == "" {
		return rerrors.NewInvalidInputError("email", "is required")
	}
	if f.Password == "" {
		return rerrors.NewInvalidInputError("password", "is required")
	}
	return nil
}

// RegisterForm holds the registration fields as typed.
type RegisterForm struct {
	Category      string
	Email         string
	FullName      string
	Password      string
	Confirm       string
	State         string
	AgeRange      string
	Industry      string
	HouseholdSize string
}

// Supplier reports whether the category registers through the supplier
// endpoint.
func (f RegisterForm) Supplier() bool {
	return f.Category == CategoryProvider || f.Category == CategoryInsurer
}

// Parse validates f and builds the request body.
func (f RegisterForm) Parse() (api.RegisterRequest, error) {
	switch f.Category {
	case CategoryMember, CategoryEmployer, CategoryProvider, CategoryInsurer:
	default:
		return api.RegisterRequest{}, rerrors.NewInvalidInputError("category", "must be member, employer, provider or insurer")
	}
	if strings.TrimSpace(f.Email) == "" {
		return api.RegisterRequest{}, rerrors.NewInvalidInputError("email", "is required")
	}
	if strings.TrimSpace(f.Password) == "" {
		return api.RegisterRequest{}, rerrors.NewInvalidInputError("password", "is required")
	}
	if f.Password != f.Confirm {
		return api.RegisterRequest{}, rerrors.NewInvalidInputError("password", "passwords do not match")
	}

	req := api.RegisterRequest{
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		FullName: optionalString(f.FullName),
		State:    optionalString(f.State),
		Industry: optionalString(f.Industry),
	}

	if f.Supplier() {
		req.UserType = optionalString(f.Category)
		return req, nil
	}

	size, err := optionalInt("household_size", f.HouseholdSize)
	if err != nil {
		return api.RegisterRequest{}, err
	}
	if size != nil && *size < 1 {
		return api.RegisterRequest{}, rerrors.NewInvalidInputError("household_size", "must be a positive whole number")
	}
	req.HouseholdSize = size
	req.AgeRange = optionalString(f.AgeRange)

	userType := "consumer"
	if f.Category == CategoryEmployer {
		userType = "employer"
	}
	req.UserType = &userType
	return req, nil
}

// CreateNegotiationForm holds the admin's new-negotiation fields.
type CreateNegotiationForm struct {
	CollectiveID   string
	SupplierID     string
	TargetPMPM     string
	PopulationSize string
	RiskAppetite   string
	StartDate      string
	Notes          string
}

// Parse validates f. Collective and supplier ids are required.
func (f CreateNegotiationForm) Parse() (api.CreateNegotiationRequest, error) {
	collectiveID, err := requiredID("collective_id", f.CollectiveID)
	if err != nil {
		return api.CreateNegotiationRequest{}, err
	}
	supplierID, err := requiredID("supplier_id", f.SupplierID)
	if err != nil {
		return api.CreateNegotiationRequest{}, err
	}
	pmpm, err := optionalFloat("target_pmpm", f.TargetPMPM)
	if err != nil {
		return api.CreateNegotiationRequest{}, err
	}
	population, err := optionalInt("target_population_size", f.PopulationSize)
	if err != nil {
		return api.CreateNegotiationRequest{}, err
	}

	req := api.CreateNegotiationRequest{
		CollectiveID:         collectiveID,
		SupplierID:           supplierID,
		TargetPMPM:           pmpm,
		TargetPopulationSize: population,
		Notes:                optionalString(f.Notes),
	}

	if risk := strings.ToLower(strings.TrimSpace(f.RiskAppetite)); risk != "" {
		if !slices.Contains(RiskAppetites, risk) {
			return api.CreateNegotiationRequest{}, rerrors.NewInvalidInputError("risk_appetite", "must be low, medium or high")
		}
		req.RiskAppetite = &risk
	}

	if date := strings.TrimSpace(f.StartDate); date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return api.CreateNegotiationRequest{}, rerrors.NewInvalidInputError("target_start_date", "must be a date like 2026-01-31")
		}
		req.TargetStartDate = &date
	}

	return req, nil
}

// CreateUserForm holds the admin's new-user fields.
type CreateUserForm struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// Parse validates f. Email, password and role are required.
func (f CreateUserForm) Parse() (api.AdminCreateUserRequest, error) {
	if strings.TrimSpace(f.Email) == "" {
		return api.AdminCreateUserRequest{}, rerrors.NewInvalidInputError("email", "is required")
	}
	if f.Password == "" {
		return api.AdminCreateUserRequest{}, rerrors.NewInvalidInputError("password", "is required")
	}
	role := strings.TrimSpace(f.Role)
	if role == "" {
		return api.AdminCreateUserRequest{}, rerrors.NewInvalidInputError("role", "is required")
	}
	return api.AdminCreateUserRequest{
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		FullName: optionalString(f.FullName),
		Role:     role,
	}, nil
}

// CollectiveForm holds a collective's name and category.
type CollectiveForm struct {
	Name     string
	Category string
}

// ParseCreate requires a name.
func (f CollectiveForm) ParseCreate() (api.CollectiveInput, error) {
	in := f.input()
	if in.Name == nil {
		return api.CollectiveInput{}, rerrors.NewInvalidInputError("name", "is required")
	}
	return in, nil
}

// ParseUpdate sends only the fields that were filled in.
func (f CollectiveForm) ParseUpdate() (api.CollectiveInput, error) {
	in := f.input()
	if in.Name == nil && in.Category == nil {
		return api.CollectiveInput{}, rerrors.NewInvalidInputError("collective", "nothing to update")
	}
	return in, nil
}

func (f CollectiveForm) input() api.CollectiveInput {
	return api.CollectiveInput{
		Name:     optionalString(f.Name),
		Category: optionalString(f.Category),
	}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalFloat(field, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, rerrors.NewInvalidInputError(field, "must be a number")
	}
	return &v, nil
}

func optionalInt(field, s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, rerrors.NewInvalidInputError(field, "must be a whole number")
	}
	return &v, nil
}

func requiredID(field, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, rerrors.NewInvalidInputError(field, "is required")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 1 {
		return 0, rerrors.NewInvalidInputError(field, "must be a positive whole number")
	}
	return v, nil
}

// ParseID parses a positive id typed by the user.
func ParseID(field, s string) (int64, error) {
	return requiredID(field, s)
}
