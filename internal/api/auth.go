package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var out TokenPair
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     LoginRequest{Email: email, Password: password},
		out:      &out,
		fallback: "Login failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var out TokenPair
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/refresh",
		body:     RefreshRequest{RefreshToken: refreshToken},
		out:      &out,
		fallback: "Token refresh failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
