package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents different kinds of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypePolicyDenied indicates a business rule refused the action
	ErrorTypePolicyDenied ErrorType = "POLICY_DENIED"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// Code is a stable, machine-checkable identifier for a specific failure.
type Code string

const (
	CodeLocationNotFound             Code = "locationNotFound"
	CodeInvalidStartingLatLong       Code = "invalidStartingLatLong"
	CodeAddReviewSpam                Code = "addReviewSpam"
	CodeInvalidTimeRange             Code = "invalidTimeRange"
	CodeInvalidTime                  Code = "invalidTime"
	CodeReviewNotFound               Code = "reviewNotFound"
	CodeInvalidCoordinates           Code = "invalidCoordinates"
	CodeNearestLocationNotFound      Code = "nearestLocationNotFound"
	CodeLongLatRequired              Code = "longLatRequired"
	CodeCheckinRestricted            Code = "checkinRestricted"
	CodeMobileNumberRequired         Code = "mobileNumberRequired"
	CodeOrganizationOffHoursDisabled Code = "organizationOffHoursDisabled"
	CodeNotAssignedToLocation        Code = "notAssignedToLocation"
	CodeInvalidOrder                 Code = "invalidOrder"
	CodeInvalidRating                Code = "invalidRating"
	CodeTimezoneLookupFailed         Code = "timezoneLookupFailed"
	CodeCheckInNotFound              Code = "checkInNotFound"
	CodeOrganizationNotFound         Code = "organizationNotFound"
	CodeInvalidPage                  Code = "invalidPage"
	CodeInvalidRadius                Code = "invalidRadius"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Code    Code
	Message string
	// I18n holds localized variants of Message keyed by language tag.
	I18n map[string]string
	Err  error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Localized returns the message for the first language in an
// Accept-Language style list that has a translation, or Message.
func (e *AppError) Localized(acceptLanguage string) string {
	if len(e.I18n) == 0 || acceptLanguage == "" {
		return e.Message
	}
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if msg, ok := e.I18n[tag]; ok {
			return msg
		}
		for key, msg := range e.I18n {
			if strings.EqualFold(key, tag) {
				return msg
			}
		}
	}
	return e.Message
}

// WithCode attaches a stable code to the error
func (e *AppError) WithCode(code Code) *AppError {
	e.Code = code
	return e
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewPolicyDeniedError creates a new policy denied error
func NewPolicyDeniedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypePolicyDenied,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain,
// or ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Type == t
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code Code) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}
