package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Template errors
	ErrCodeTemplateInvalid ErrorCode = "TEMPLATE_INVALID"

	// Command execution errors
	ErrCodeCommandNotFound  ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandSpawn     ErrorCode = "COMMAND_SPAWN"
	ErrCodeWorkingDir       ErrorCode = "WORKING_DIR_NOT_FOUND"
	ErrCodeCommandFailed    ErrorCode = "COMMAND_FAILED"
	ErrCodeCommandTimeout   ErrorCode = "COMMAND_TIMEOUT"
	ErrCodeCommandCanceled  ErrorCode = "COMMAND_CANCELED"
	ErrCodeCommandIO        ErrorCode = "COMMAND_IO"
	ErrCodeInvalidUTF8      ErrorCode = "INVALID_UTF8"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Coder is implemented by errors that carry an ErrorCode without being a
// GroveError, such as the command package's execution errors.
type Coder interface {
	ErrorCode() ErrorCode
}

// GroveError represents a structured error with context
type GroveError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *GroveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *GroveError) Unwrap() error {
	return e.Cause
}

// ErrorCode implements Coder.
func (e *GroveError) ErrorCode() ErrorCode {
	return e.Code
}

// WithDetail adds a detail to the error
func (e *GroveError) WithDetail(key string, value interface{}) *GroveError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *GroveError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new GroveError
func New(code ErrorCode, message string) *GroveError {
	return &GroveError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a GroveError
func Wrap(err error, code ErrorCode, message string) *GroveError {
	return &GroveError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error carries a specific error code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, looking through wrapped
// errors until it finds one that carries a code.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	if coder, ok := err.(Coder); ok {
		return coder.ErrorCode()
	}

	// Try to unwrap
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return GetCode(unwrapper.Unwrap())
	}
	return ""
}
