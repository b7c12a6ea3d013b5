package errors

import (
	"fmt"
	"strings"
)

// ErrorType categorizes failures along the analysis pipeline boundary.
type ErrorType int

const (
	// Config errors - missing or invalid configuration
	ErrorTypeConfig ErrorType = iota
	// Validation errors - invalid input data (bad PR number, bad glob)
	ErrorTypeValidation
	// UnsupportedInput errors - file kinds the pipeline cannot analyze
	ErrorTypeUnsupportedInput
	// MissingContent errors - file content unavailable at a revision
	ErrorTypeMissingContent
	// Ledger errors - decisions database connection or query failures
	ErrorTypeLedger
	// Network errors - hosting API connectivity issues
	ErrorTypeNetwork
	// External errors - other external service failures
	ErrorTypeExternal
	// Internal errors - unexpected internal state
	ErrorTypeInternal
)

// Severity ranks how critical an error is.
type Severity int

const (
	// SeverityLow - can continue with degraded functionality
	SeverityLow Severity = iota
	// SeverityMedium - should be addressed but not fatal
	SeverityMedium
	// SeverityHigh - significant issue, may impact results
	SeverityHigh
	// SeverityCritical - must be addressed, stops the analysis
	SeverityCritical
)

// Error is a structured error with category, severity and context.
type Error struct {
	Type     ErrorType
	Severity Severity
	Message  string
	Cause    error
	Context  map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is matches on error category, letting callers branch with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsFatal reports whether this error should stop execution.
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString returns a multi-line rendering with context.
func (e *Error) DetailedString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n",
		severityString(e.Severity), typeString(e.Type), e.Message))
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}
	if len(e.Context) > 0 {
		sb.WriteString("Context:\n")
		for k, v := range e.Context {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}
	return sb.String()
}

func typeString(t ErrorType) string {
	switch t {
	case ErrorTypeConfig:
		return "CONFIG"
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeUnsupportedInput:
		return "UNSUPPORTED_INPUT"
	case ErrorTypeMissingContent:
		return "MISSING_CONTENT"
	case ErrorTypeLedger:
		return "LEDGER"
	case ErrorTypeNetwork:
		return "NETWORK"
	case ErrorTypeExternal:
		return "EXTERNAL"
	case ErrorTypeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// New creates a new error with the given type, severity and message.
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
		Context:  make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with category and severity.
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Type:     errType,
		Severity: severity,
		Message:  message,
		Cause:    err,
		Context:  make(map[string]interface{}),
	}
}

// Convenience constructors for common error types

// ConfigError creates a configuration error.
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityCritical, message)
}

// ConfigErrorf creates a configuration error with formatting.
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// ValidationError creates a validation error.
func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, SeverityHigh, message)
}

// ValidationErrorf creates a validation error with formatting.
func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeValidation, SeverityHigh, fmt.Sprintf(format, args...))
}

// UnsupportedInputError marks input the pipeline degrades on rather
// than fails on. Callers treat it as a skip signal.
func UnsupportedInputError(message string) *Error {
	return New(ErrorTypeUnsupportedInput, SeverityLow, message)
}

// MissingContentError marks content absent at a revision. Propagated
// as "no entities changed," never as a failure.
func MissingContentError(path, revision string) *Error {
	return New(ErrorTypeMissingContent, SeverityLow,
		fmt.Sprintf("content unavailable for %s at %s", path, revision)).
		WithContext("path", path).
		WithContext("revision", revision)
}

// LedgerError wraps a decisions-database error. Always critical:
// regression checking must not silently degrade.
func LedgerError(err error, message string) *Error {
	return Wrap(err, ErrorTypeLedger, SeverityCritical, message)
}

// LedgerErrorf wraps a decisions-database error with formatting.
func LedgerErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeLedger, SeverityCritical, fmt.Sprintf(format, args...))
}

// NetworkError wraps a hosting-API error.
func NetworkError(err error, message string) *Error {
	return Wrap(err, ErrorTypeNetwork, SeverityHigh, message)
}

// NetworkErrorf wraps a hosting-API error with formatting.
func NetworkErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeNetwork, SeverityHigh, fmt.Sprintf(format, args...))
}

// ExternalError wraps an external service error.
func ExternalError(err error, message string) *Error {
	return Wrap(err, ErrorTypeExternal, SeverityMedium, message)
}

// InternalError creates an internal error.
func InternalError(message string) *Error {
	return New(ErrorTypeInternal, SeverityCritical, message)
}

// InternalErrorf creates an internal error with formatting.
func InternalErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// IsFatal checks if an error is fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		return e.IsFatal()
	}
	return false
}

// GetType returns the category of an error.
func GetType(err error) ErrorType {
	if err == nil {
		return ErrorTypeInternal
	}
	if e, ok := err.(*Error); ok {
		return e.Type
	}
	return ErrorTypeInternal
}
