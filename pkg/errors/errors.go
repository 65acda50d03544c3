package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// ErrorTypeNetwork is a transport-level failure (connection refused,
	// timeout, connection reset). These are the only retryable errors.
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeAPI is a decoded VK error envelope. Code carries the
	// provider's error_code.
	ErrorTypeAPI ErrorType = "api"
	// ErrorTypeAuth covers sign-in flow failures: unexpected form layout,
	// consent not granted, missing token fields.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeParsing covers malformed HTML documents and undecodable
	// JSON payloads.
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeConfig is an invalid configuration value, reported before
	// any network activity.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeUnsupported marks a protocol feature this client does not
	// implement, e.g. a non-POST sign-in form.
	ErrorTypeUnsupported ErrorType = "unsupported"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an application error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates an Error of the given type
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Newf creates an Error of the given type with a formatted message
func Newf(errorType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf(format, args...)}
}

// NewWithCode creates an Error carrying a provider or HTTP code
func NewWithCode(errorType ErrorType, code int, message string) *Error {
	return &Error{Type: errorType, Message: message, Code: code}
}

// IsRetryable checks if an error type should be retried. Only transport
// faults qualify; a decoded API error will not resolve by waiting.
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeNetwork
}
