package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	rerrors "github.com/healthrepublic/republic/internal/errors"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindTransport means no usable response arrived.
	KindTransport Kind = iota
	// KindStatus means the backend answered with a non-2xx status.
	KindStatus
	// KindDecode means a 2xx body was not the JSON we expected.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method that fails after building a request.
type Error struct {
	Kind      Kind
	Method    string
	Path      string
	Status    int
	Body      string
	RequestID string
	// Fallback is the endpoint's human message used when the body is empty.
	Fallback string
	Err      error
}

// Error returns the backend's raw body for status errors so that the
// server's own rejection text reaches the user unchanged.
func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Body != "" {
			return e.Body
		}
		if e.Fallback != "" {
			return e.Fallback
		}
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, http.StatusText(e.Status))
	case KindDecode:
		return fmt.Sprintf("%s: unexpected response: %v", e.fallback(), e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.fallback(), e.Err)
	}
}

func (e *Error) fallback() string {
	if e.Fallback != "" {
		return e.Fallback
	}
	return e.Method + " " + e.Path
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code maps the failure kind to its API-0xx code.
func (e *Error) Code() rerrors.ErrorCode {
	switch e.Kind {
	case KindTransport:
		return rerrors.ErrCodeAPITransport
	case KindStatus:
		return rerrors.ErrCodeAPIStatus
	default:
		return rerrors.ErrCodeAPIDecode
	}
}

// Detail extracts the backend's {"detail": "..."} message, falling back to
// Error() when the body has another shape.
func (e *Error) Detail() string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if e.Body != "" && json.Unmarshal([]byte(e.Body), &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(body.Detail, &items) == nil && len(items) > 0 && items[0].Msg != "" {
			return items[0].Msg
		}
	}
	return e.Error()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 or 403 from the backend.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsTransport reports whether err never reached the backend.
func IsTransport(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindTransport
}

// Message returns the most readable text for err: the backend's detail
// for API errors, Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindStatus {
		return apiErr.Detail()
	}
	return err.Error()
}
