package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"
	ErrCodePasswordTooWeak  ErrorCode = "PASSWORD_TOO_WEAK"

	// Authentication failures are intentionally undifferentiated: a caller
	// can never tell "unknown email" from "wrong password".
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"

	ErrCodeClientNotFound  ErrorCode = "CLIENT_NOT_FOUND"
	ErrCodeProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeContactNotFound ErrorCode = "CONTACT_NOT_FOUND"
	ErrCodeRequestNotFound ErrorCode = "ACCESS_REQUEST_NOT_FOUND"
	ErrCodeGrantNotFound   ErrorCode = "STAKEHOLDER_NOT_FOUND"

	ErrCodeAlreadyStakeholder ErrorCode = "ALREADY_STAKEHOLDER"
	ErrCodeDuplicatePending   ErrorCode = "DUPLICATE_PENDING_REQUEST"
	ErrCodeAlreadyProcessed   ErrorCode = "REQUEST_ALREADY_PROCESSED"
	ErrCodeCrossClient        ErrorCode = "CROSS_CLIENT_VIOLATION"
	ErrCodeGrantExists        ErrorCode = "STAKEHOLDER_EXISTS"

	ErrCodeTokenNotFound      ErrorCode = "TOKEN_NOT_FOUND"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenAlreadyUsed   ErrorCode = "TOKEN_ALREADY_USED"
	ErrCodeTokenEmailMismatch ErrorCode = "TOKEN_EMAIL_MISMATCH"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	// Authorization failures reveal only "forbidden", never which rule failed.
	ErrForbidden = NewForbiddenError("Forbidden", ErrCodeForbidden)

	ErrClientNotFound  = NewNotFoundError("Client not found", ErrCodeClientNotFound)
	ErrProjectNotFound = NewNotFoundError("Project not found", ErrCodeProjectNotFound)
	ErrContactNotFound = NewNotFoundError("Contact not found", ErrCodeContactNotFound)
	ErrRequestNotFound = NewNotFoundError("Access request not found", ErrCodeRequestNotFound)
	ErrGrantNotFound   = NewNotFoundError("Stakeholder not found on project", ErrCodeGrantNotFound)

	ErrAlreadyStakeholder = NewConflictError("Contact is already a stakeholder on this project", ErrCodeAlreadyStakeholder)
	ErrDuplicatePending   = NewConflictError("A pending access request already exists for this contact and project", ErrCodeDuplicatePending)
	ErrAlreadyProcessed   = NewConflictError("Access request has already been processed", ErrCodeAlreadyProcessed)
	ErrCrossClient        = NewConflictError("Contact and project belong to different clients", ErrCodeCrossClient)
	ErrGrantExists        = NewConflictError("Stakeholder grant already exists", ErrCodeGrantExists)

	ErrTokenNotFound      = NewUnauthorizedError("Registration token not found", ErrCodeTokenNotFound)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrTokenAlreadyUsed   = NewUnauthorizedError("Registration token has already been used", ErrCodeTokenAlreadyUsed)
	ErrTokenEmailMismatch = NewUnauthorizedError("Registration token was issued for a different email", ErrCodeTokenEmailMismatch)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
