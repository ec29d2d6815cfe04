package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error
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

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
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

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given code anywhere in its chain
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Predefined error codes
const (
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeAlreadyActive       = "ALREADY_ACTIVE"
	CodeNoActiveSession     = "NO_ACTIVE_SESSION"
	CodeSessionExpired      = "SESSION_EXPIRED"
	CodeInvalidRating       = "INVALID_RATING"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeRateLimited         = "RATE_LIMITED"
	CodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	CodeDailyLimitReached   = "DAILY_LIMIT_REACHED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func AlreadyActive(userID int64) *AppError {
	return New(CodeAlreadyActive, fmt.Sprintf("user %d already has an active session", userID))
}

func NoActiveSession(userID int64) *AppError {
	return New(CodeNoActiveSession, fmt.Sprintf("user %d has no active session", userID))
}

func SessionExpired(userID int64) *AppError {
	return New(CodeSessionExpired, fmt.Sprintf("session for user %d has expired", userID))
}

func InvalidRating(rating string) *AppError {
	return New(CodeInvalidRating, fmt.Sprintf("invalid feedback rating: %q", rating))
}

func UpstreamUnavailable(cause error) *AppError {
	return &AppError{
		Code:    CodeUpstreamUnavailable,
		Message: "completion service unavailable",
		Cause:   cause,
	}
}

func RateLimited(cause error) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: "completion service rate limited",
		Cause:   cause,
	}
}

func StorageUnavailable(cause error) *AppError {
	return &AppError{
		Code:    CodeStorageUnavailable,
		Message: "storage unavailable",
		Cause:   cause,
	}
}

func DailyLimitReached(userID int64, limit int) *AppError {
	return New(CodeDailyLimitReached, fmt.Sprintf("user %d reached the daily limit of %d discussions", userID, limit))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
