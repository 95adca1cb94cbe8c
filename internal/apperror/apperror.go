// internal/apperror/apperror.go
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for each failure category. Handlers wrap these with
// fmt.Errorf("...: %w", ...) and the API layer maps them to HTTP statuses
// with errors.Is.
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrInvalidAction      = errors.New("invalid action")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTokenFormat = errors.New("invalid token format")
	ErrNotConnected       = errors.New("github not connected")
	ErrUpstream           = errors.New("upstream failure")
)

// AppError carries a client-safe message alongside the category sentinel.
// The wrapped Err drives status mapping; Message is what the client sees.
type AppError struct {
	Err     error
	Message string
	Status  int // optional explicit status, e.g. passed through from upstream
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Unauthenticated signals a missing or invalid caller credential.
func Unauthenticated(message string) *AppError {
	return &AppError{Err: ErrUnauthenticated, Message: message}
}

// RateLimited reports a throttled request with the wait until the window resets.
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfterSeconds),
	}
}

// InvalidAction signals a request for an action outside the enumerated set.
func InvalidAction() *AppError {
	return &AppError{Err: ErrInvalidAction, Message: "Invalid action"}
}

// InvalidInput signals a malformed request body the client must correct.
func InvalidInput(message string) *AppError {
	return &AppError{Err: ErrInvalidInput, Message: message}
}

// InvalidTokenFormat signals a credential that does not match the expected
// token prefix for the source platform.
func InvalidTokenFormat() *AppError {
	return &AppError{Err: ErrInvalidTokenFormat, Message: "Invalid token format"}
}

// NotConnected signals a valid caller with no linked GitHub credential.
// This is a business state, not a security failure.
func NotConnected() *AppError {
	return &AppError{Err: ErrNotConnected, Message: "GitHub not connected"}
}

// Upstream signals an external source API failure. When the upstream status
// is meaningful it is passed through to the client.
func Upstream(status int, message string) *AppError {
	return &AppError{Err: ErrUpstream, Message: message, Status: status}
}

// HTTPStatus maps an error to the status code the API layer should return.
// Unknown errors map to 500; their detail is logged server-side and never
// reaches the client.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidTokenFormat),
		errors.Is(err, ErrNotConnected):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
