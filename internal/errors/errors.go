package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound         = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists    = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation       = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation = new(ErrCodeInvalidOperation, "invalid operation")
	ErrHTTPClient       = new(ErrCodeHTTPClient, "http client error")
	ErrDatabase         = new(ErrCodeDatabase, "database error")
	ErrSystem           = new(ErrCodeSystemError, "system error")

	// Billing-specific error types
	ErrUnknownPlan             = new(ErrCodeUnknownPlan, "unknown plan")
	ErrUnknownPrice            = new(ErrCodeUnknownPrice, "unknown price")
	ErrMissingPriceID          = new(ErrCodeMissingPriceID, "missing price id")
	ErrMissingConfiguration    = new(ErrCodeMissingConfiguration, "billing provider not configured")
	ErrProviderError           = new(ErrCodeProviderError, "billing provider error")
	ErrProviderActionFailed    = new(ErrCodeProviderActionFailed, "billing provider action failed")
	ErrWebhookValidationFailed = new(ErrCodeWebhookValidationFailed, "webhook validation failed")
	ErrCheckoutFailed          = new(ErrCodeCheckoutFailed, "checkout failed")
	ErrSeatSyncFailed          = new(ErrCodeSeatSyncFailed, "seat sync failed")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrHTTPClient:              http.StatusInternalServerError,
		ErrDatabase:                http.StatusInternalServerError,
		ErrNotFound:                http.StatusNotFound,
		ErrAlreadyExists:           http.StatusConflict,
		ErrValidation:              http.StatusBadRequest,
		ErrInvalidOperation:        http.StatusBadRequest,
		ErrSystem:                  http.StatusInternalServerError,
		ErrUnknownPlan:             http.StatusBadRequest,
		ErrUnknownPrice:            http.StatusBadRequest,
		ErrMissingPriceID:          http.StatusBadRequest,
		ErrMissingConfiguration:    http.StatusInternalServerError,
		ErrProviderError:           http.StatusBadGateway,
		ErrProviderActionFailed:    http.StatusBadGateway,
		ErrWebhookValidationFailed: http.StatusBadRequest,
		ErrCheckoutFailed:          http.StatusBadGateway,
		ErrSeatSyncFailed:          http.StatusBadGateway,
	}
)

const (
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeDatabase         = "database_error"

	ErrCodeUnknownPlan             = "unknown_plan"
	ErrCodeUnknownPrice            = "unknown_price"
	ErrCodeMissingPriceID          = "missing_price_id"
	ErrCodeMissingConfiguration    = "missing_configuration"
	ErrCodeProviderError           = "provider_error"
	ErrCodeProviderActionFailed    = "provider_action_failed"
	ErrCodeWebhookValidationFailed = "webhook_validation_failed"
	ErrCodeCheckoutFailed          = "checkout_failed"
	ErrCodeSeatSyncFailed          = "seat_sync_failed"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// new creates a new InternalError
func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsProviderError checks if an error came from a provider API call
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProviderError) || errors.Is(err, ErrProviderActionFailed)
}

// IsWebhookValidationFailed checks if an error is a webhook validation failure
func IsWebhookValidationFailed(err error) bool {
	return errors.Is(err, ErrWebhookValidationFailed)
}

// HTTPStatusFromErr maps an error to its HTTP status code
func HTTPStatusFromErr(err error) int {
	for sentinel, code := range statusCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return http.StatusInternalServerError
}
