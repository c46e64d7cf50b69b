package services

import (
	"errors"
	"fmt"

	apperrors "github.com/caseprep/practice-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")

	// Module specific errors
	ErrModuleNotFound       = errors.New("module not found")
	ErrModuleNotEditable    = errors.New("module cannot be edited in current status")
	ErrModuleNotPublished   = errors.New("module is not published")
	ErrModuleDuplicateTitle = errors.New("module title already exists for this user")
	ErrModuleEmpty          = errors.New("module has no parts")
	ErrContentUnavailable   = errors.New("module content unavailable")
	ErrPartNotFound         = errors.New("module part not found")
	ErrInvalidPartContent   = errors.New("invalid part content for interaction kind")

	// Module run errors
	ErrRunNotFound        = errors.New("no active module run")
	ErrRunAlreadyResolved = errors.New("current part already resolved")
	ErrSubmitBlocked      = errors.New("submission blocked - input incomplete")
	ErrRetryNotAllowed    = errors.New("retry not allowed")
	ErrSkipNotAllowed     = errors.New("skip not allowed")
	ErrAdvanceBlocked     = errors.New("cannot advance past an uncompleted part")

	// Session errors
	ErrSessionNotFound = errors.New("case session not found")

	// Collaborator failures
	ErrPersistenceFailed = errors.New("persistence failed")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrModuleNotFound) ||
		errors.Is(err, ErrPartNotFound) ||
		errors.Is(err, ErrRunNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidPartContent) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrModuleDuplicateTitle) ||
		errors.Is(err, ErrModuleNotEditable)
}

// IsBlockedAction reports a policy gate the UI should have disabled:
// blocked submit, retry, skip or advance.
func IsBlockedAction(err error) bool {
	return errors.Is(err, ErrSubmitBlocked) ||
		errors.Is(err, ErrRetryNotAllowed) ||
		errors.Is(err, ErrSkipNotAllowed) ||
		errors.Is(err, ErrAdvanceBlocked) ||
		errors.Is(err, ErrRunAlreadyResolved)
}
