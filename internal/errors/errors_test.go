package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotLoggedIn, "test error message")

	if err.Code != ErrCodeNotLoggedIn {
		t.Errorf("expected code %s, got %s", ErrCodeNotLoggedIn, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeTokenStore, "failed to write token", cause)

	if err.Code != ErrCodeTokenStore {
		t.Errorf("expected code %s, got %s", ErrCodeTokenStore, err.Code)
	}

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *RepublicError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeInvalidInput, "pmpm: must be a number"),
			wantCode: "FORM-001",
			wantMsg:  "pmpm: must be a number",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeLoginFailed, "login failed", fmt.Errorf(`{"detail":"Incorrect email or password"}`)),
			wantCode: "AUTH-001",
			wantMsg:  "Incorrect email or password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestionsAndDocs(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad config").
		WithSuggestions("one", "two").
		WithDocs("https://example.test/docs")

	if len(err.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	for _, want := range []string{"Suggestions:", "one", "two", "Documentation:", "https://example.test/docs"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error string should contain %q, got: %s", want, errStr)
		}
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("bootstrap: %w", NewHydrationFailedError(fmt.Errorf("401")))

	if !errors.Is(err, New(ErrCodeHydrationFailed, "")) {
		t.Error("expected errors.Is to match on code")
	}
	if errors.Is(err, New(ErrCodeLoginFailed, "")) {
		t.Error("expected errors.Is not to match a different code")
	}
}

type codedError struct{ code ErrorCode }

func (e codedError) Error() string   { return string(e.code) }
func (e codedError) Code() ErrorCode { return e.code }

func TestCodeOfAndHasPrefix(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
		category string
		want     bool
	}{
		{"plain error", fmt.Errorf("boom"), "", "AUTH", false},
		{"direct", NewNotLoggedInError(), ErrCodeNotLoggedIn, "AUTH", true},
		{"wrapped", fmt.Errorf("ctx: %w", NewInvalidInputError("pmpm", "required")), ErrCodeInvalidInput, "FORM", true},
		{"wrong category", NewSessionBusyError(), ErrCodeSessionBusy, "AUTH", false},
		{"coder", fmt.Errorf("call: %w", codedError{ErrCodeAPIStatus}), ErrCodeAPIStatus, "API", true},
		{"outer code wins", NewLoginFailedError(codedError{ErrCodeAPIStatus}), ErrCodeLoginFailed, "API", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.wantCode {
				t.Errorf("CodeOf() = %q, want %q", got, tt.wantCode)
			}
			if got := HasPrefix(tt.err, tt.category); got != tt.want {
				t.Errorf("HasPrefix(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("cause")
	tests := []struct {
		name     string
		err      *RepublicError
		code     ErrorCode
		minHints int
	}{
		{"login failed", NewLoginFailedError(cause), ErrCodeLoginFailed, 2},
		{"not logged in", NewNotLoggedInError(), ErrCodeNotLoggedIn, 1},
		{"hydration", NewHydrationFailedError(cause), ErrCodeHydrationFailed, 1},
		{"refresh", NewRefreshFailedError(cause), ErrCodeRefreshFailed, 1},
		{"token store", NewTokenStoreError("write", cause), ErrCodeTokenStore, 2},
		{"config load", NewConfigLoadError("/tmp/x.yaml", cause), ErrCodeConfigLoad, 2},
		{"config invalid", NewConfigInvalidError("api_url is empty"), ErrCodeConfigInvalid, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if len(tt.err.Suggestions) < tt.minHints {
				t.Errorf("expected at least %d suggestions, got %d", tt.minHints, len(tt.err.Suggestions))
			}
		})
	}
}
