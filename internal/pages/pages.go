package pages

import (
	"context"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/session"
)

// Authenticator signs a user in. *session.Store implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) error
}

// SubmitLogin validates f and starts a session.
func SubmitLogin(ctx context.Context, auth Authenticator, f LoginForm) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return auth.Login(ctx, f.Email, f.Password)
}

// Register is the sign-up page. It loads lookups for the select fields.
type Register struct {
	client  Client
	Lookups Resource[*api.Lookups]
}

// NewRegister creates the sign-up page.
func NewRegister(client Client) *Register {
	return &Register{client: client}
}

// Load fetches the lookup values.
func (p *Register) Load(ctx context.Context) error {
	return p.Lookups.Load(ctx, p.client.Lookups)
}

// Submit validates f and creates the account. Providers and insurers use
// the supplier endpoint.
func (p *Register) Submit(ctx context.Context, f RegisterForm) error {
	req, err := f.Parse()
	if err != nil {
		return err
	}
	if f.Supplier() {
		return p.client.RegisterSupplier(ctx, req)
	}
	return p.client.RegisterUser(ctx, req)
}

func (p *Register) Close() { p.Lookups.Close() }

// MemberDashboard lists the member's negotiations.
type MemberDashboard struct {
	base
	Greeting     Resource[*api.MemberDashboard]
	Negotiations Resource[[]api.Negotiation]
}

// NewMemberDashboard creates the member home page.
func NewMemberDashboard(client Client, tokens session.TokenSource) *MemberDashboard {
	return &MemberDashboard{base: base{client: client, tokens: tokens}}
}

// Load fetches the greeting and the negotiations. The negotiation error
// wins when both fail.
func (p *MemberDashboard) Load(ctx context.Context) error {
	gerr := p.Greeting.Load(ctx, func(ctx context.Context) (*api.MemberDashboard, error) {
		return p.client.MemberDashboard(ctx, p.token())
	})
	if err := p.Negotiations.Load(ctx, func(ctx context.Context) ([]api.Negotiation, error) {
		return p.client.MyNegotiations(ctx, p.token())
	}); err != nil {
		return err
	}
	return gerr
}

func (p *MemberDashboard) Close() {
	p.Greeting.Close()
	p.Negotiations.Close()
}

// MemberCollectives lets a member browse, join and leave collectives.
type MemberCollectives struct {
	base
	Collectives Resource[[]api.CollectiveSummary]
}

// NewMemberCollectives creates the member collectives page.
func NewMemberCollectives(client Client, tokens session.TokenSource) *MemberCollectives {
	return &MemberCollectives{base: base{client: client, tokens: tokens}}
}

// Load fetches collectives with member counts.
func (p *MemberCollectives) Load(ctx context.Context) error {
	return p.Collectives.Load(ctx, p.client.CollectivesWithStats)
}

// Join joins collective id and reloads.
func (p *MemberCollectives) Join(ctx context.Context, id int64) error {
	if err := p.client.JoinCollective(ctx, p.token(), id); err != nil {
		return err
	}
	return p.Load(ctx)
}

// Leave leaves collective id and reloads.
func (p *MemberCollectives) Leave(ctx context.Context, id int64) error {
	if err := p.client.LeaveCollective(ctx, p.token(), id); err != nil {
		return err
	}
	return p.Load(ctx)
}

func (p *MemberCollectives) Close() { p.Collectives.Close() }

// SupplierDashboard shows a supplier's open and closed negotiations.
type SupplierDashboard struct {
	base
	Dashboard Resource[*api.SupplierDashboard]
}

// NewSupplierDashboard creates the supplier home page.
func NewSupplierDashboard(client Client, tokens session.TokenSource) *SupplierDashboard {
	return &SupplierDashboard{base: base{client: client, tokens: tokens}}
}

func (p *SupplierDashboard) Load(ctx context.Context) error {
	return p.Dashboard.Load(ctx, func(ctx context.Context) (*api.SupplierDashboard, error) {
		return p.client.SupplierDashboard(ctx, p.token())
	})
}

func (p *SupplierDashboard) Close() { p.Dashboard.Close() }

// AdminDashboard shows platform stats and all negotiations, and starts new
// negotiations.
type AdminDashboard struct {
	base
	Dashboard    Resource[*api.AdminDashboard]
	Negotiations Resource[[]api.Negotiation]
}

// NewAdminDashboard creates the admin home page.
func NewAdminDashboard(client Client, tokens session.TokenSource) *AdminDashboard {
	return &AdminDashboard{base: base{client: client, tokens: tokens}}
}

func (p *AdminDashboard) Load(ctx context.Context) error {
	derr := p.Dashboard.Load(ctx, func(ctx context.Context) (*api.AdminDashboard, error) {
		return p.client.AdminDashboard(ctx, p.token())
	})
	if err := p.Negotiations.Load(ctx, func(ctx context.Context) ([]api.Negotiation, error) {
		return p.client.ListNegotiations(ctx, p.token())
	}); err != nil {
		return err
	}
	return derr
}

// CreateNegotiation validates f, starts the negotiation and reloads.
func (p *AdminDashboard) CreateNegotiation(ctx context.Context, f CreateNegotiationForm) (*api.Negotiation, error) {
	req, err := f.Parse()
	if err != nil {
		return nil, err
	}
	n, err := p.client.CreateNegotiation(ctx, p.token(), req)
	if err != nil {
		return nil, err
	}
	return n, p.Load(ctx)
}

func (p *AdminDashboard) Close() {
	p.Dashboard.Close()
	p.Negotiations.Close()
}

// AdminUsers manages user accounts.
type AdminUsers struct {
	base
	Users Resource[[]api.AdminUser]
}

// NewAdminUsers creates the user management page.
func NewAdminUsers(client Client, tokens session.TokenSource) *AdminUsers {
	return &AdminUsers{base: base{client: client, tokens: tokens}}
}

func (p *AdminUsers) Load(ctx context.Context) error {
	return p.Users.Load(ctx, func(ctx context.Context) ([]api.AdminUser, error) {
		return p.client.AdminListUsers(ctx, p.token())
	})
}

// Create validates f, creates the user and reloads.
func (p *AdminUsers) Create(ctx context.Context, f CreateUserForm) (*api.AdminUser, error) {
	req, err := f.Parse()
	if err != nil {
		return nil, err
	}
	u, err := p.client.AdminCreateUser(ctx, p.token(), req)
	if err != nil {
		return nil, err
	}
	return u, p.Load(ctx)
}

// SetActive activates or deactivates user id and reloads.
func (p *AdminUsers) SetActive(ctx context.Context, id int64, active bool) error {
	var err error
	if active {
		err = p.client.AdminActivateUser(ctx, p.token(), id)
	} else {
		err = p.client.AdminDeactivateUser(ctx, p.token(), id)
	}
	if err != nil {
		return err
	}
	return p.Load(ctx)
}

func (p *AdminUsers) Close() { p.Users.Close() }

// CollectivesAdmin manages collectives.
type CollectivesAdmin struct {
	base
	Collectives Resource[[]api.CollectiveSummary]
}

// NewCollectivesAdmin creates the collective management page.
func NewCollectivesAdmin(client Client, tokens session.TokenSource) *CollectivesAdmin {
	return &CollectivesAdmin{base: base{client: client, tokens: tokens}}
}

func (p *CollectivesAdmin) Load(ctx context.Context) error {
	return p.Collectives.Load(ctx, func(ctx context.Context) ([]api.CollectiveSummary, error) {
		return p.client.ListCollectives(ctx, p.token())
	})
}

// Create validates f, creates the collective and reloads.
func (p *CollectivesAdmin) Create(ctx context.Context, f CollectiveForm) error {
	in, err := f.ParseCreate()
	if err != nil {
		return err
	}
	if err := p.client.CreateCollective(ctx, p.token(), in); err != nil {
		return err
	}
	return p.Load(ctx)
}

// Update patches the filled-in fields of collective id and reloads.
func (p *CollectivesAdmin) Update(ctx context.Context, id int64, f CollectiveForm) error {
	in, err := f.ParseUpdate()
	if err != nil {
		return err
	}
	if err := p.client.UpdateCollective(ctx, p.token(), id, in); err != nil {
		return err
	}
	return p.Load(ctx)
}

// Delete removes collective id and reloads.
func (p *CollectivesAdmin) Delete(ctx context.Context, id int64) error {
	if err := p.client.DeleteCollective(ctx, p.token(), id); err != nil {
		return err
	}
	return p.Load(ctx)
}

func (p *CollectivesAdmin) Close() { p.Collectives.Close() }

// Overview feeds the public splash page and collectives directory.
type Overview struct {
	client      Client
	Overview    Resource[*api.PublicOverview]
	Collectives Resource[[]api.CollectiveSummary]
}

// NewOverview creates the public pages' controller.
func NewOverview(client Client) *Overview {
	return &Overview{client: client}
}

// Load fetches the splash overview.
func (p *Overview) Load(ctx context.Context) error {
	return p.Overview.Load(ctx, p.client.PublicOverview)
}

// LoadDirectory fetches the public collectives directory.
func (p *Overview) LoadDirectory(ctx context.Context) error {
	return p.Collectives.Load(ctx, p.client.CollectivesWithStats)
}

func (p *Overview) Close() {
	p.Overview.Close()
	p.Collectives.Close()
}
