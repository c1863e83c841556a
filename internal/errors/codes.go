// Package errors defines the structured error taxonomy for the submission
// workflow. Every failure crossing a component boundary is classified with a
// Code so the web layer can branch its user-facing messaging.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a specific workflow failure class.
type Code string

const (
	// CodeInvalidIdentity indicates the login identity is not on the allow-list.
	CodeInvalidIdentity Code = "INVALID_IDENTITY"
	// CodeSessionNotFound indicates the session is missing, expired or malformed.
	CodeSessionNotFound Code = "SESSION_NOT_FOUND"
	// CodeQuotaExhausted indicates no prompt attempts remain.
	CodeQuotaExhausted Code = "QUOTA_EXHAUSTED"
	// CodeInvalidPrompt indicates the prompt failed the keyword gate.
	CodeInvalidPrompt Code = "INVALID_PROMPT"
	// CodeGenerationFailure indicates the remote image service failed.
	CodeGenerationFailure Code = "GENERATION_FAILURE"
	// CodeSelectionOutOfRange indicates the selection index is outside the history.
	CodeSelectionOutOfRange Code = "SELECTION_OUT_OF_RANGE"
	// CodeNotificationAuth indicates the mail transport rejected our credentials.
	CodeNotificationAuth Code = "NOTIFICATION_AUTH_FAILURE"
	// CodeNotificationConnect indicates the mail transport could not be reached.
	CodeNotificationConnect Code = "NOTIFICATION_CONNECT_FAILURE"
	// CodeNotificationRecipient indicates the recipient address was refused.
	CodeNotificationRecipient Code = "NOTIFICATION_RECIPIENT_REJECTED"
	// CodeNotificationGeneric indicates an unclassified delivery failure.
	CodeNotificationGeneric Code = "NOTIFICATION_GENERIC_FAILURE"
)

// WorkflowError is a classified error for workflow operations.
type WorkflowError struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *WorkflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// Detail returns the human-readable message, including the remote cause when
// one is attached. Suitable for rendering on the active surface.
func (e *WorkflowError) Detail() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Convenience constructors for common failure classes.

// InvalidIdentity creates an invalid identity error.
func InvalidIdentity(msg string) *WorkflowError {
	return &WorkflowError{Code: CodeInvalidIdentity, Message: msg}
}

// SessionNotFound creates a session not found error.
func SessionNotFound(msg string) *WorkflowError {
	return &WorkflowError{Code: CodeSessionNotFound, Message: msg}
}

// QuotaExhausted creates a quota exhausted error.
func QuotaExhausted(msg string) *WorkflowError {
	return &WorkflowError{Code: CodeQuotaExhausted, Message: msg}
}

// InvalidPrompt creates an invalid prompt error.
func InvalidPrompt(msg string) *WorkflowError {
	return &WorkflowError{Code: CodeInvalidPrompt, Message: msg}
}

// GenerationFailure creates a generation failure error wrapping the remote cause.
func GenerationFailure(msg string, cause error) *WorkflowError {
	return &WorkflowError{Code: CodeGenerationFailure, Message: msg, Cause: cause}
}

// SelectionOutOfRange creates a selection out of range error.
func SelectionOutOfRange(index, size int) *WorkflowError {
	return &WorkflowError{
		Code:    CodeSelectionOutOfRange,
		Message: fmt.Sprintf("selection index %d outside history of length %d", index, size),
	}
}

// Notification creates a notification failure with the given classification.
func Notification(code Code, msg string, cause error) *WorkflowError {
	return &WorkflowError{Code: code, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a classification.
func Wrap(cause error, code Code, msg string) *WorkflowError {
	return &WorkflowError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error carries a specific code.
func IsCode(err error, code Code) bool {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Code == code
	}
	return false
}

// CodeOf extracts the code from any error, returning defaultCode for
// unclassified errors.
func CodeOf(err error, defaultCode Code) Code {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Code
	}
	return defaultCode
}
