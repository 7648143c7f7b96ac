package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error

	// RetryAfterHours is set on RATE_LIMITED errors so callers can tell
	// the owner how long to wait before resubmitting an appeal.
	RetryAfterHours int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
	}
}

func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    "INVALID_STATE",
		Message: message,
	}
}

// NewConflictError marks an operation that lost a concurrent race on a
// terminal state transition (e.g. two admins responding to one request).
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewRateLimitedError is returned when an unsuspension appeal is
// resubmitted inside the 24-hour cooldown window.
func NewRateLimitedError(retryAfterHours int) *AppError {
	return &AppError{
		Code:            "RATE_LIMITED",
		Message:         fmt.Sprintf("an unsuspension request is already pending; try again in %d hours", retryAfterHours),
		RetryAfterHours: retryAfterHours,
	}
}

// NewDegradedError marks a best-effort side effect that failed after the
// primary operation committed. The caller decides whether to surface it.
func NewDegradedError(message string, err error) *AppError {
	return &AppError{
		Code:    "DEGRADED",
		Message: message,
		Err:     err,
	}
}

// NewSchemaMissingError is fatal at startup: a table the workflow depends on
// does not exist in the target database.
func NewSchemaMissingError(table string) *AppError {
	return &AppError{
		Code:    "SCHEMA_MISSING",
		Message: fmt.Sprintf("required table %q is missing from the database schema", table),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
