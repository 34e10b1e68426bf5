package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// StoreErrorMessage describes relational store failures.
	StoreErrorMessage = "conversation store operation failed"
	// StoreNotFoundMessage describes a missing row in the relational store.
	StoreNotFoundMessage = "conversation record not found"
)

var (
	// ErrConversationNotFound is returned by repositories when no state is stored for an id.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrConversationClosed is returned when input is sent to a completed conversation.
	ErrConversationClosed = errors.New("conversation is complete")
	// ErrResponder tags failures raised inside a responder.
	ErrResponder = errors.New("responder failed")
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// ResponderFailure marks an error raised by a responder while handling a step.
func ResponderFailure(step string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %w", ErrResponder, step, err),
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("responder %s failed", step),
	}
}

// IsResponderFailure reports whether err was produced by ResponderFailure.
func IsResponderFailure(err error) bool {
	return errors.Is(err, ErrResponder)
}

// StatusOf maps an error chain onto an HTTP status code.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConversationClosed):
		return http.StatusConflict
	}
	var ae *AppError
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
