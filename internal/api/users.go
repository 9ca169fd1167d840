package api

import (
	"context"
	"fmt"
	"net/http"
)

// AdminListUsers returns every user account.
func (c *Client) AdminListUsers(ctx context.Context, token string) ([]AdminUser, error) {
	out, err := get[[]AdminUser](ctx, c, "/admin/users", token, "Failed to load users")
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// AdminCreateUser creates a user with an explicit role.
func (c *Client) AdminCreateUser(ctx context.Context, token string, in AdminCreateUserRequest) (*AdminUser, error) {
	var out AdminUser
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/admin/users",
		token:    token,
		body:     in,
		out:      &out,
		fallback: "Failed to create user",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminActivateUser re-enables a user account.
func (c *Client) AdminActivateUser(ctx context.Context, token string, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     fmt.Sprintf("/admin/users/%d/activate", id),
		token:    token,
		fallback: "Failed to activate user",
	})
}

// AdminDeactivateUser disables a user account.
func (c *Client) AdminDeactivateUser(ctx context.Context, token string, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     fmt.Sprintf("/admin/users/%d/deactivate", id),
		token:    token,
		fallback: "Failed to deactivate user",
	})
}

// Lookups returns the registration select options.
func (c *Client) Lookups(ctx context.Context) (*Lookups, error) {
	return get[Lookups](ctx, c, "/users/lookups", "", "Failed to load lookup values")
}

// RegisterUser creates a member or employer account.
func (c *Client) RegisterUser(ctx context.Context, in RegisterRequest) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/users/register",
		body:     in,
		fallback: "Registration failed",
	})
}

// RegisterSupplier creates a provider or insurer account. The backend
// assigns the supplier role itself, so any role in the request is dropped.
func (c *Client) RegisterSupplier(ctx context.Context, in RegisterRequest) error {
	in.Role = nil
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/users/register-supplier",
		body:     in,
		fallback: "Supplier registration failed",
	})
}
