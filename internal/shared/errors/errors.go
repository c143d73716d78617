package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found or is not owned by the caller
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation indicates invalid input data
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConflict indicates the action is not allowed in the current game state
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeInsufficientResources indicates a balance is below the required amount
	ErrorTypeInsufficientResources ErrorType = "insufficient_resources"
	// ErrorTypeGone indicates a resource existed but has expired
	ErrorTypeGone ErrorType = "gone"
	// ErrorTypeUnauthorized indicates authentication failure
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeForbidden indicates insufficient permissions
	ErrorTypeForbidden ErrorType = "forbidden"
	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeMethodNotAllowed indicates an unsupported HTTP method
	ErrorTypeMethodNotAllowed ErrorType = "method_not_allowed"
	// ErrorTypeExternal indicates an external service error
	ErrorTypeExternal ErrorType = "external"
	// ErrorTypeRateLimited indicates the client exceeded its request budget
	ErrorTypeRateLimited ErrorType = "rate_limited"
)

// AppError is the base error type for application errors.
// Reason is a stable machine-readable code clients can branch on.
type AppError struct {
	Type    ErrorType
	Reason  string
	Message string
	Details map[string]interface{}
	Err     error
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

// WithDetail attaches a key/value pair returned to the client with the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NotFoundf creates a not found error with formatting
func NotFoundf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Reason:  "not_found",
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a validation error
func Validation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Reason:  "invalid_input",
		Message: message,
	}
}

// Validationf creates a validation error with formatting
func Validationf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Reason:  "invalid_input",
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Reason:  "invalid_input",
		Message: message,
		Err:     err,
	}
}

// Conflict creates a state-conflict error carrying a reason code
func Conflict(reason, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Reason:  reason,
		Message: message,
	}
}

// Conflictf creates a conflict error with formatting
func Conflictf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeConflict,
		Reason:  "conflict",
		Message: fmt.Sprintf(format, args...),
	}
}

// Insufficient reports that the named resource is below what an action requires
func Insufficient(resource string, required, available int64) *AppError {
	return &AppError{
		Type:    ErrorTypeInsufficientResources,
		Reason:  "insufficient_" + resource,
		Message: fmt.Sprintf("not enough %s: need %d, have %d", resource, required, available),
		Details: map[string]interface{}{
			"resource":  resource,
			"required":  required,
			"available": available,
		},
	}
}

// Gone creates an error for something that existed but is no longer usable
func Gone(reason, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeGone,
		Reason:  reason,
		Message: message,
	}
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Reason:  "internal_error",
		Message: message,
		Err:     err,
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) error {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Reason:  "unauthorized",
		Message: message,
	}
}

// Forbidden creates a forbidden error
func Forbidden(message string) error {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Reason:  "forbidden",
		Message: message,
	}
}

// MethodNotAllowed creates a method not allowed error
func MethodNotAllowed(method string) error {
	return &AppError{
		Type:    ErrorTypeMethodNotAllowed,
		Reason:  "method_not_allowed",
		Message: fmt.Sprintf("method %s not allowed", method),
	}
}

// External creates an external service error
func External(message string) error {
	return &AppError{
		Type:    ErrorTypeExternal,
		Reason:  "service_unavailable",
		Message: message,
	}
}

// WrapExternal wraps an error as an external service error
func WrapExternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeExternal,
		Reason:  "service_unavailable",
		Message: message,
		Err:     err,
	}
}

// RateLimited creates a too-many-requests error
func RateLimited(message string) error {
	return &AppError{
		Type:    ErrorTypeRateLimited,
		Reason:  "rate_limited",
		Message: message,
	}
}

// GetType returns the error type of an error
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetReason returns the reason code of an error, "internal_error" for foreign errors
func GetReason(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Reason != "" {
		return appErr.Reason
	}
	return "internal_error"
}

// GetDetails returns the structured details attached to an error, if any
func GetDetails(err error) map[string]interface{} {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}

// IsGameRule reports whether err is a caller-facing rule violation rather than an infrastructure fault
func IsGameRule(err error) bool {
	switch GetType(err) {
	case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeConflict,
		ErrorTypeInsufficientResources, ErrorTypeGone:
		return true
	}
	return false
}

// Issue is a failed precondition reported by a preview
type Issue struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ToIssues converts rule violations into preview issues.
// The first non-rule error is returned instead, since it means the check itself failed.
func ToIssues(errs []error) ([]Issue, error) {
	issues := make([]Issue, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		if !IsGameRule(err) {
			return nil, err
		}
		var appErr *AppError
		errors.As(err, &appErr)
		issues = append(issues, Issue{Reason: appErr.Reason, Message: appErr.Message})
	}
	return issues, nil
}
