package auth

import (
	"errors"
	"fmt"

	"github.com/bicoltravel/btg-cli/internal/api"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrCredentialRejected: bad login, the user must resubmit
	ErrCredentialRejected = errors.New("credentials rejected")

	// ErrSessionExpired: renewal or re-authentication failed, forces logout
	ErrSessionExpired = errors.New("session expired")

	// ErrTransient: network or storage trouble, retryable by the caller
	ErrTransient = errors.New("temporarily unavailable")

	// ErrStorageFailure: credentials could not be persisted
	ErrStorageFailure = errors.New("credential storage failure")
)

// ErrNoRefreshToken is the cause of a renewal attempted without a refresh token
var ErrNoRefreshToken = errors.New("no refresh token available")

// Error is a classified authentication failure.
// Message is safe to show to the user; Err keeps the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or nil if err is not classified
func KindOf(err error) error {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return nil
}

// Retryable reports whether repeating the operation later may succeed
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// UserMessage returns the text to show for err
func UserMessage(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}

	switch {
	case errors.Is(err, ErrCredentialRejected):
		return "Invalid username or password."
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrTransient):
		return "The server could not be reached. Please try again."
	case errors.Is(err, ErrStorageFailure):
		return "Your credentials could not be saved on this device."
	case err != nil:
		return err.Error()
	default:
		return ""
	}
}

// Classify converts a transport error into Transient unless the server
// refused the credential with 400, 401 or 403, in which case rejected is
// used as the kind.
func Classify(err error, rejected error) *Error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.IsRefused() {
		return newError(rejected, apiErr.Message, err)
	}
	return newError(ErrTransient, "", err)
}
