package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// AppError represents a structured analysis error. Errors carrying one of the
// codes below abort the whole call; per-column problems never surface here.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the error code if err is or wraps an AppError, otherwise "UNKNOWN".
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// IsConfiguration reports whether err is a bad-option error. Unknown backend
// names belong to the configuration class.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case CodeConfiguration, CodeUnknownBackend:
		return true
	}
	return false
}

// IsInvalidTarget reports whether err rejected the target column.
func IsInvalidTarget(err error) bool {
	return GetCode(err) == CodeInvalidTarget
}

const (
	CodeConfiguration  = "CONFIGURATION"
	CodeInvalidTarget  = "INVALID_TARGET"
	CodeUnknownBackend = "UNKNOWN_BACKEND"
	CodeInvalidInput   = "INVALID_INPUT"
)

// Configuration reports a rejected option value together with the accepted set.
func Configuration(option, value string, allowed []string) *AppError {
	return New(CodeConfiguration, fmt.Sprintf("invalid %s %q (allowed: %s)", option, value, joinAllowed(allowed)))
}

// ConfigurationMsg reports a configuration problem that has no single bad value.
func ConfigurationMsg(format string, args ...interface{}) *AppError {
	return New(CodeConfiguration, fmt.Sprintf(format, args...))
}

func UnknownBackend(name string, known []string) *AppError {
	return New(CodeUnknownBackend, fmt.Sprintf("unknown backend %q (allowed: %s)", name, joinAllowed(known)))
}

func InvalidTarget(column, reason string) *AppError {
	return New(CodeInvalidTarget, fmt.Sprintf("invalid target %q: %s", column, reason))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func joinAllowed(allowed []string) string {
	cp := append([]string(nil), allowed...)
	sort.Strings(cp)
	return strings.Join(cp, ", ")
}
