package apitest

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerLogin(t *testing.T) {
	srv := NewServer(t)

	resp := postJSON(t, srv.URL+"/auth/login", "", `{"email":"`+MemberEmail+`","password":"`+Password+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokens map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokens))
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
	assert.Equal(t, "bearer", tokens["token_type"])
	assert.Equal(t, 1, srv.Hits(http.MethodPost, "/auth/login"))
}

func TestServerRejectsBadPassword(t *testing.T) {
	srv := NewServer(t)

	resp := postJSON(t, srv.URL+"/auth/login", "", `{"email":"`+MemberEmail+`","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerExpiredAccessToken(t *testing.T) {
	srv := NewServer(t)
	access, _ := srv.IssueTokens(MemberID, -time.Minute)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/dashboard/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerFailInjection(t *testing.T) {
	srv := NewServer(t)
	srv.Fail(http.MethodGet, "/users/lookups", http.StatusServiceUnavailable, "down", 1)

	first, err := http.Get(srv.URL + "/users/lookups")
	require.NoError(t, err)
	first.Body.Close()
	second, err := http.Get(srv.URL + "/users/lookups")
	require.NoError(t, err)
	second.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, first.StatusCode)
	assert.Equal(t, http.StatusOK, second.StatusCode)
}

func TestServerAddRound(t *testing.T) {
	srv := NewServer(t)
	before := srv.Rounds(NegotiationID)

	srv.AddRound(NegotiationID, "collective", 420)

	assert.Equal(t, before+1, srv.Rounds(NegotiationID))
}
