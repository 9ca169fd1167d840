package ux

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/errors"
)

func TestNewErrorWithSuggestion(t *testing.T) {
	if NewErrorWithSuggestion(nil, "hint") != nil {
		t.Error("nil error should stay nil")
	}

	err := NewErrorWithSuggestion(stderrors.New("test error"), "do this")
	if got, want := err.Error(), "test error\n\n💡 Suggestion: do this"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := NewErrorWithSuggestion(stderrors.New("test error"), "")
	if bare.Error() != "test error" {
		t.Errorf("Error() without suggestion = %q", bare.Error())
	}
}

func TestErrorWithSuggestion_Unwrap(t *testing.T) {
	base := stderrors.New("base")
	err := NewErrorWithSuggestion(base, "hint")
	if !stderrors.Is(err, base) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestEnhanceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantSuffix string
	}{
		{
			name: "nil",
			err:  nil,
		},
		{
			name:       "transport",
			err:        &api.Error{Kind: api.KindTransport, Fallback: "Login failed", Err: fmt.Errorf("connection refused")},
			wantSuffix: "api_url is correct",
		},
		{
			name:       "decode",
			err:        &api.Error{Kind: api.KindDecode, Err: fmt.Errorf("invalid character '<'")},
			wantSuffix: "something other than JSON",
		},
		{
			name:       "unauthorized",
			err:        &api.Error{Kind: api.KindStatus, Status: http.StatusUnauthorized, Body: `{"detail":"Could not validate credentials"}`},
			wantSuffix: "republic login",
		},
		{
			name:       "forbidden wrapped",
			err:        fmt.Errorf("admin users: %w", &api.Error{Kind: api.KindStatus, Status: http.StatusForbidden}),
			wantSuffix: "republic whoami",
		},
		{
			name:       "not found",
			err:        &api.Error{Kind: api.KindStatus, Status: http.StatusNotFound, Body: "Negotiation not found"},
			wantSuffix: "Check the id",
		},
		{
			name: "other status passes through",
			err:  &api.Error{Kind: api.KindStatus, Status: http.StatusBadRequest, Body: "Negotiation is not open"},
		},
		{
			name: "coded error keeps its own suggestions",
			err:  errors.NewNotLoggedInError(),
		},
		{
			name:       "permission denied",
			err:        fmt.Errorf("open /home/u/.republic/session.db: permission denied"),
			wantSuffix: "Check permissions",
		},
		{
			name: "unknown error passes through",
			err:  fmt.Errorf("something odd"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnhanceError(tt.err)

			if tt.err == nil {
				if got != nil {
					t.Errorf("EnhanceError(nil) = %v", got)
				}
				return
			}

			if tt.wantSuffix == "" {
				if got != tt.err {
					t.Errorf("expected error to pass through unchanged, got %v", got)
				}
				return
			}

			var enhanced *ErrorWithSuggestion
			if !stderrors.As(got, &enhanced) {
				t.Fatalf("expected *ErrorWithSuggestion, got %T", got)
			}
			if !strings.Contains(enhanced.Suggestion, tt.wantSuffix) {
				t.Errorf("suggestion %q should mention %q", enhanced.Suggestion, tt.wantSuffix)
			}
			if !stderrors.Is(got, tt.err) {
				t.Error("enhanced error should wrap the original")
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil, "ctx") != nil {
		t.Error("nil error should stay nil")
	}

	err := FormatError(&api.Error{Kind: api.KindStatus, Status: http.StatusUnauthorized, Body: "expired"}, "loading dashboard")
	if !strings.HasPrefix(err.Error(), "loading dashboard: expired") {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if api.StatusCode(err) != http.StatusUnauthorized {
		t.Error("status should survive formatting")
	}
}
