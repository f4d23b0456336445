package errors

import "fmt"

// ErrorType represents different types of errors that can occur during
// retrieval.
type ErrorType string

const (
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeLoginRequired ErrorType = "login_required"
	ErrorTypeCaptcha       ErrorType = "captcha"
	ErrorTypeChallenge     ErrorType = "challenge"
	ErrorTypeBlocked       ErrorType = "blocked"
	ErrorTypeParsing       ErrorType = "parsing"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeServerError   ErrorType = "server_error"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeUnsupported   ErrorType = "unsupported"
	ErrorTypeInvalidInput  ErrorType = "invalid_input"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents a retrieval error with type information.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error.
func New(errorType ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// IsRetryable checks if an error type should be retried. Anti-bot blocks
// are deliberately non-retryable: retrying a login wall or CAPTCHA page
// cannot help and only burns the retry budget.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// IsBlock checks if an error type represents an anti-bot block rather
// than a plain failure.
func IsBlock(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeLoginRequired, ErrorTypeCaptcha, ErrorTypeChallenge, ErrorTypeBlocked:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error.
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500
	}
}
