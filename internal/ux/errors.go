package ux

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a recovery hint to err based on what failed.
// Coded errors already carry their own suggestions and pass through.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var coded *errors.RepublicError
	if stderrors.As(err, &coded) && len(coded.Suggestions) > 0 {
		return err
	}

	var apiErr *api.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindTransport:
			return NewErrorWithSuggestion(err,
				"Check that the backend is running and api_url is correct ('republic config view')")
		case api.KindDecode:
			return NewErrorWithSuggestion(err,
				"The server answered with something other than JSON; check that api_url points at the API, not the web app")
		}

		switch apiErr.Status {
		case http.StatusUnauthorized:
			return NewErrorWithSuggestion(err,
				"Your session has expired or was revoked. Run 'republic login'")
		case http.StatusForbidden:
			return NewErrorWithSuggestion(err,
				"Your role is not allowed to do this. Run 'republic whoami' to check which account is active")
		case http.StatusNotFound:
			return NewErrorWithSuggestion(err,
				"Check the id; list what you can see with 'republic negotiations my' or 'republic collectives list'")
		case http.StatusUnprocessableEntity:
			return NewErrorWithSuggestion(err,
				"The server rejected one of the fields; run the command with --help to see the expected formats")
		}
		return err
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions on ~/.republic and the files inside it")
	}

	if strings.Contains(errMsg, "timeout") && strings.Contains(errMsg, "session.db") {
		return NewErrorWithSuggestion(err,
			"Another republic process holds the session database; close it and try again")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
