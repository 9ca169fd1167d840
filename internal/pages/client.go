package pages

import (
	"context"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/session"
)

// Client is the API surface the pages call. *api.Client implements it.
type Client interface {
	MemberDashboard(ctx context.Context, token string) (*api.MemberDashboard, error)
	SupplierDashboard(ctx context.Context, token string) (*api.SupplierDashboard, error)
	AdminDashboard(ctx context.Context, token string) (*api.AdminDashboard, error)
	PublicOverview(ctx context.Context) (*api.PublicOverview, error)

	ListNegotiations(ctx context.Context, token string) ([]api.Negotiation, error)
	MyNegotiations(ctx context.Context, token string) ([]api.Negotiation, error)
	CreateNegotiation(ctx context.Context, token string, in api.CreateNegotiationRequest) (*api.Negotiation, error)

	ListCollectives(ctx context.Context, token string) ([]api.CollectiveSummary, error)
	CollectivesWithStats(ctx context.Context) ([]api.CollectiveSummary, error)
	JoinCollective(ctx context.Context, token string, id int64) error
	LeaveCollective(ctx context.Context, token string, id int64) error
	CreateCollective(ctx context.Context, token string, in api.CollectiveInput) error
	UpdateCollective(ctx context.Context, token string, id int64, in api.CollectiveInput) error
	DeleteCollective(ctx context.Context, token string, id int64) error

	AdminListUsers(ctx context.Context, token string) ([]api.AdminUser, error)
	AdminCreateUser(ctx context.Context, token string, in api.AdminCreateUserRequest) (*api.AdminUser, error)
	AdminActivateUser(ctx context.Context, token string, id int64) error
	AdminDeactivateUser(ctx context.Context, token string, id int64) error

	Lookups(ctx context.Context) (*api.Lookups, error)
	RegisterUser(ctx context.Context, in api.RegisterRequest) error
	RegisterSupplier(ctx context.Context, in api.RegisterRequest) error
}

var _ Client = (*api.Client)(nil)

// base carries what every authenticated page needs.
type base struct {
	client Client
	tokens session.TokenSource
}

func (b base) token() string {
	if b.tokens == nil {
		return ""
	}
	return b.tokens.AccessToken()
}
