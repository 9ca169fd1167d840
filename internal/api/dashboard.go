package api

import (
	"context"
	"net/http"
)

// get is the common shape of a JSON GET.
func get[T any](ctx context.Context, c *Client, path, token, fallback string) (*T, error) {
	var out T
	if err := c.do(ctx, call{method: http.MethodGet, path: path, token: token, out: &out, fallback: fallback}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the caller's profile and dashboard sections.
func (c *Client) Me(ctx context.Context, token string) (*MeResponse, error) {
	return get[MeResponse](ctx, c, "/dashboard/me", token, "Failed to load profile")
}

// MemberDashboard returns the member landing data.
func (c *Client) MemberDashboard(ctx context.Context, token string) (*MemberDashboard, error) {
	return get[MemberDashboard](ctx, c, "/dashboard/member", token, "Failed to load member dashboard")
}

// SupplierDashboard returns the supplier's open and closed negotiations.
func (c *Client) SupplierDashboard(ctx context.Context, token string) (*SupplierDashboard, error) {
	return get[SupplierDashboard](ctx, c, "/dashboard/supplier/negotiations", token, "Failed to load supplier negotiations")
}

// AdminDashboard returns platform statistics.
func (c *Client) AdminDashboard(ctx context.Context, token string) (*AdminDashboard, error) {
	return get[AdminDashboard](ctx, c, "/dashboard/admin", token, "Failed to load admin dashboard")
}

// PublicOverview returns the unauthenticated splash data.
func (c *Client) PublicOverview(ctx context.Context) (*PublicOverview, error) {
	return get[PublicOverview](ctx, c, "/dashboard/public/overview", "", "Failed to load public overview")
}
