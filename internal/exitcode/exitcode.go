package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/healthrepublic/republic/internal/api"
	"github.com/healthrepublic/republic/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage or rejected form input
	UsageError = 2

	// ConflictError indicates the backend refused the action in the current state
	ConflictError = 3

	// NotFound indicates the requested negotiation, collective or user does not exist
	NotFound = 4

	// AuthError indicates an authentication or authorization failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the user cancelled with Ctrl+C
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Typed errors are checked first; the message heuristics only apply to
// errors that carry no type information, such as cobra's flag errors.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch {
	case errors.HasPrefix(err, "AUTH"):
		return AuthError
	case errors.HasPrefix(err, "FORM"), errors.HasPrefix(err, "CONFIG"):
		return UsageError
	}

	var apiErr *api.Error
	if stderrors.As(err, &apiErr) {
		switch {
		case apiErr.Kind == api.KindTransport:
			return NetworkError
		case apiErr.Status == 401 || apiErr.Status == 403:
			return AuthError
		case apiErr.Status == 404:
			return NotFound
		case apiErr.Status == 400 || apiErr.Status == 409:
			return ConflictError
		case apiErr.Status == 422:
			return UsageError
		default:
			return GeneralError
		}
	}

	errMsg := strings.ToLower(err.Error())

	// Authentication errors
	if strings.Contains(errMsg, "not logged in") || strings.Contains(errMsg, "unauthorized") {
		return AuthError
	}

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}

	// Usage errors
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}
	if strings.Contains(errMsg, "invalid argument") || strings.Contains(errMsg, "unknown flag") {
		return UsageError
	}

	// Default to general error
	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or input)"
	case ConflictError:
		return "Rejected by the server in the current state"
	case NotFound:
		return "Not found"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
