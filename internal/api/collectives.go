package api

import (
	"context"
	"fmt"
	"net/http"
)

// ListCollectives returns all collectives.
func (c *Client) ListCollectives(ctx context.Context, token string) ([]CollectiveSummary, error) {
	out, err := get[[]CollectiveSummary](ctx, c, "/collectives/", token, "Failed to fetch collectives")
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// CollectivesWithStats returns collectives with member counts. No auth needed.
func (c *Client) CollectivesWithStats(ctx context.Context) ([]CollectiveSummary, error) {
	out, err := get[[]CollectiveSummary](ctx, c, "/collectives/with-stats", "", "Failed to load collectives")
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// JoinCollective adds the caller to a collective.
func (c *Client) JoinCollective(ctx context.Context, token string, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     fmt.Sprintf("/collectives/%d/join", id),
		token:    token,
		fallback: "Failed to join collective",
	})
}

// LeaveCollective removes the caller from a collective.
func (c *Client) LeaveCollective(ctx context.Context, token string, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     fmt.Sprintf("/collectives/%d/leave", id),
		token:    token,
		fallback: "Failed to leave collective",
	})
}

// CreateCollective creates a collective.
func (c *Client) CreateCollective(ctx context.Context, token string, in CollectiveInput) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/collectives/",
		token:    token,
		body:     in,
		fallback: "Failed to create collective",
	})
}

// UpdateCollective patches a collective's name or category.
func (c *Client) UpdateCollective(ctx context.Context, token string, id int64, in CollectiveInput) error {
	return c.do(ctx, call{
		method:   http.MethodPatch,
		path:     fmt.Sprintf("/collectives/%d", id),
		token:    token,
		body:     in,
		fallback: "Failed to update collective",
	})
}

// DeleteCollective removes a collective.
func (c *Client) DeleteCollective(ctx context.Context, token string, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("/collectives/%d", id),
		token:    token,
		fallback: "Failed to delete collective",
	})
}
