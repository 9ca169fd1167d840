package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Auth errors (AUTH-001 to AUTH-099)
	ErrCodeLoginFailed     ErrorCode = "AUTH-001"
	ErrCodeNotLoggedIn     ErrorCode = "AUTH-002"
	ErrCodeHydrationFailed ErrorCode = "AUTH-003"
	ErrCodeRefreshFailed   ErrorCode = "AUTH-004"

	// API errors (API-001 to API-099)
	ErrCodeAPITransport ErrorCode = "API-001"
	ErrCodeAPIStatus    ErrorCode = "API-002"
	ErrCodeAPIDecode    ErrorCode = "API-003"

	// Form errors (FORM-001 to FORM-099)
	ErrCodeInvalidInput ErrorCode = "FORM-001"

	// Session errors (SESSION-001 to SESSION-099)
	ErrCodeSessionBusy ErrorCode = "SESSION-001"

	// Token store errors (STORE-001 to STORE-099)
	ErrCodeTokenStore ErrorCode = "STORE-001"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigLoad    ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid ErrorCode = "CONFIG-002"
)

const docsBase = "https://github.com/healthrepublic/republic"

// RepublicError represents an enhanced error with code, suggestions, and documentation
type RepublicError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *RepublicError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *RepublicError) Unwrap() error {
	return e.Cause
}

// Is matches another RepublicError by code so sentinel values work with errors.Is
func (e *RepublicError) Is(target error) bool {
	t, ok := target.(*RepublicError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New creates a new RepublicError
func New(code ErrorCode, message string) *RepublicError {
	return &RepublicError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new RepublicError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *RepublicError {
	return &RepublicError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *RepublicError) WithSuggestion(suggestion string) *RepublicError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *RepublicError) WithSuggestions(suggestions ...string) *RepublicError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *RepublicError) WithDocs(url string) *RepublicError {
	e.DocsURL = url
	return e
}

// Coder is implemented by errors from other packages that carry a code,
// such as API failures.
type Coder interface {
	Code() ErrorCode
}

// CodeOf returns the code of the first RepublicError in err's chain. Without
// one it falls back to the first Coder, and then to "".
func CodeOf(err error) ErrorCode {
	var re *RepublicError
	if errors.As(err, &re) {
		return re.Code
	}
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// HasPrefix reports whether err carries a code in the given category (e.g. "AUTH").
func HasPrefix(err error, category string) bool {
	return strings.HasPrefix(string(CodeOf(err)), category+"-")
}

// Common error constructors for frequently used errors

// NewLoginFailedError wraps a failed login attempt, keeping the server's text in the cause
func NewLoginFailedError(cause error) *RepublicError {
	return Wrap(ErrCodeLoginFailed, "login failed", cause).
		WithSuggestion("Check the email and password").
		WithSuggestion("Run 'republic register' if you do not have an account yet")
}

// NewNotLoggedInError creates a missing-session error
func NewNotLoggedInError() *RepublicError {
	return New(ErrCodeNotLoggedIn, "not logged in").
		WithSuggestion("Run 'republic login' first").
		WithDocs(docsBase + "#authentication")
}

// NewHydrationFailedError is returned when a stored token no longer yields a profile
func NewHydrationFailedError(cause error) *RepublicError {
	return Wrap(ErrCodeHydrationFailed, "stored session is no longer valid; credentials were cleared", cause).
		WithSuggestion("Run 'republic login' to start a new session")
}

// NewRefreshFailedError creates a token refresh error
func NewRefreshFailedError(cause error) *RepublicError {
	return Wrap(ErrCodeRefreshFailed, "token refresh failed", cause).
		WithSuggestion("Run 'republic login' to start a new session")
}

// NewInvalidInputError creates a client-side validation error for a form field
func NewInvalidInputError(field, reason string) *RepublicError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("%s: %s", field, reason))
}

// NewSessionBusyError is returned when a login or bootstrap is already running
func NewSessionBusyError() *RepublicError {
	return New(ErrCodeSessionBusy, "another login or session bootstrap is in progress")
}

// NewTokenStoreError wraps a failure of the durable token store
func NewTokenStoreError(op string, cause error) *RepublicError {
	return Wrap(ErrCodeTokenStore, fmt.Sprintf("token store %s failed", op), cause).
		WithSuggestion("Check permissions on ~/.republic").
		WithSuggestion("Make sure no other republic process holds the session database")
}

// NewConfigLoadError wraps a configuration read/parse failure
func NewConfigLoadError(path string, cause error) *RepublicError {
	return Wrap(ErrCodeConfigLoad, fmt.Sprintf("failed to load configuration: %s", path), cause).
		WithSuggestion("Check the YAML syntax of the config file").
		WithSuggestion("Run 'republic config init' to write a fresh one")
}

// NewConfigInvalidError creates a configuration validation error
func NewConfigInvalidError(details string) *RepublicError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", details)).
		WithSuggestion("Run 'republic config view' to inspect the effective configuration").
		WithDocs(docsBase + "#configuration")
}
