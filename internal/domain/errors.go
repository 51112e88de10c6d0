package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the lifecycle manager distinguishes.
// Check with errors.Is().
var (
	ErrValidation       = errors.New("validation failed")
	ErrAuth             = errors.New("not authenticated")
	ErrConnectivity     = errors.New("service unreachable")
	ErrRemoteRequest    = errors.New("remote request failed")
	ErrLocalStorage     = errors.New("local storage failed")
	ErrConflict         = errors.New("already integrated")
	ErrPartialProvision = errors.New("partial provision")
	ErrNotFound         = errors.New("not found")
)

// IntegrationError is a structured error for API responses. It wraps one of
// the sentinels above and carries the HTTP status of the remote response when
// one was received.
type IntegrationError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // remote HTTP status, 0 when not applicable
	Err        error  `json:"-"`
}

func (e *IntegrationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// NewValidationError rejects missing or malformed input before any external
// call is made.
func NewValidationError(field, reason string) *IntegrationError {
	return &IntegrationError{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Err:     ErrValidation,
	}
}

// NewAuthError covers both a missing session and a failed token refresh.
func NewAuthError(reason string) *IntegrationError {
	return &IntegrationError{
		Code:    "AUTH_ERROR",
		Message: reason,
		Err:     ErrAuth,
	}
}

// NewConnectivityError reports a transport-level failure (DNS, timeout,
// connection reset) reaching a remote service.
func NewConnectivityError(service string, err error) *IntegrationError {
	return &IntegrationError{
		Code:    "CONNECTIVITY_ERROR",
		Message: fmt.Sprintf("cannot reach %s", service),
		Err:     fmt.Errorf("%w: %v", ErrConnectivity, err),
	}
}

// NewRemoteError reports a reachable service that returned non-2xx.
func NewRemoteError(service string, status int, message string) *IntegrationError {
	if message == "" {
		message = "request failed"
	}
	return &IntegrationError{
		Code:       "REMOTE_ERROR",
		Message:    fmt.Sprintf("%s: %s", service, message),
		StatusCode: status,
		Err:        ErrRemoteRequest,
	}
}

// NewStorageError reports a local credential store write or delete failure.
func NewStorageError(op string, err error) *IntegrationError {
	return &IntegrationError{
		Code:    "STORAGE_ERROR",
		Message: fmt.Sprintf("failed to %s", op),
		Err:     fmt.Errorf("%w: %v", ErrLocalStorage, err),
	}
}

// NewConflictError rejects provisioning a chatbot that already has a record.
func NewConflictError(chatbotID string) *IntegrationError {
	return &IntegrationError{
		Code:    "CONFLICT",
		Message: fmt.Sprintf("chatbot %s is already integrated", chatbotID),
		Err:     ErrConflict,
	}
}

// NewPartialProvisionError is raised when remote creation failed after the
// credential was created and the compensating credential delete also failed.
// The admin may need to remove the credential manually.
func NewPartialProvisionError(cause, compensation error) *IntegrationError {
	return &IntegrationError{
		Code:    "PARTIAL_PROVISION",
		Message: fmt.Sprintf("%v; credential cleanup also failed: %v", cause, compensation),
		Err:     fmt.Errorf("%w: %v", ErrPartialProvision, cause),
	}
}
