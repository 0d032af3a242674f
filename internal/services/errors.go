package services

import (
	"errors"
	"fmt"
)

// ValidationError represents a validation failure on client input
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// AuthorizationError represents a caller lacking the role required for an action
type AuthorizationError struct {
	Message string `json:"message"`
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

// IsAuthorizationError checks if an error is an AuthorizationError
func IsAuthorizationError(err error) (*AuthorizationError, bool) {
	var authErr *AuthorizationError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// NotFoundError represents a missing resource
type NotFoundError struct {
	Resource string `json:"resource"`
	Message  string `json:"message"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Message)
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

// IsNotFoundError checks if an error is a NotFoundError
func IsNotFoundError(err error) (*NotFoundError, bool) {
	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return notFoundErr, true
	}
	return nil, false
}

// DuplicateInvitationError is returned when a pending invitation already
// exists for the same (organization, email) pair.
type DuplicateInvitationError struct {
	Email string `json:"email"`
}

func (e *DuplicateInvitationError) Error() string {
	return fmt.Sprintf("a pending invitation already exists for %s", e.Email)
}

// IsDuplicateInvitationError checks if an error is a DuplicateInvitationError
func IsDuplicateInvitationError(err error) (*DuplicateInvitationError, bool) {
	var dupErr *DuplicateInvitationError
	if errors.As(err, &dupErr) {
		return dupErr, true
	}
	return nil, false
}

// LicenseLimitError is returned when an organization has no free seats. It
// carries the seat counts so clients can render an upgrade prompt.
type LicenseLimitError struct {
	UsedSeats      int `json:"used_seats"`
	MaxSeats       int `json:"max_seats"`
	AvailableSeats int `json:"available_seats"`
}

func (e *LicenseLimitError) Error() string {
	return fmt.Sprintf("license limit exceeded: %d of %d seats used", e.UsedSeats, e.MaxSeats)
}

// IsLicenseLimitError checks if an error is a LicenseLimitError
func IsLicenseLimitError(err error) (*LicenseLimitError, bool) {
	var limitErr *LicenseLimitError
	if errors.As(err, &limitErr) {
		return limitErr, true
	}
	return nil, false
}

// InvitationStateError is returned when an invitation is in a terminal state
// that blocks the attempted transition (already accepted or revoked).
type InvitationStateError struct {
	Status string `json:"status"`
}

func (e *InvitationStateError) Error() string {
	return fmt.Sprintf("invitation is no longer pending: already %s", e.Status)
}

// IsInvitationStateError checks if an error is an InvitationStateError
func IsInvitationStateError(err error) (*InvitationStateError, bool) {
	var stateErr *InvitationStateError
	if errors.As(err, &stateErr) {
		return stateErr, true
	}
	return nil, false
}

// InvitationExpiredError is returned when an invitation's expiry has passed.
// Distinct from InvitationStateError because the UX differs: an expired
// invitation can be reissued, a resolved one cannot.
type InvitationExpiredError struct {
	ExpiredAt string `json:"expired_at"`
}

func (e *InvitationExpiredError) Error() string {
	return fmt.Sprintf("invitation expired at %s", e.ExpiredAt)
}

// IsInvitationExpiredError checks if an error is an InvitationExpiredError
func IsInvitationExpiredError(err error) (*InvitationExpiredError, bool) {
	var expErr *InvitationExpiredError
	if errors.As(err, &expErr) {
		return expErr, true
	}
	return nil, false
}

// StoreUnavailableError represents a transient storage failure. All mutating
// operations are transactional, so the whole request is safe to retry.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// IsStoreUnavailableError checks if an error is a StoreUnavailableError
func IsStoreUnavailableError(err error) (*StoreUnavailableError, bool) {
	var storeErr *StoreUnavailableError
	if errors.As(err, &storeErr) {
		return storeErr, true
	}
	return nil, false
}
