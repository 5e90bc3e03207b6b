package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Sentinel domain errors. Services return these (possibly wrapped with %w)
// and the transport layer maps them to status codes via HTTPStatus.
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrPostExpired     = errors.New("post has expired")
	ErrInvalidReaction = errors.New("invalid reaction type")
	ErrForbidden       = errors.New("not allowed")
	ErrUnauthenticated = errors.New("authentication required")
)

// HTTPStatus converts repo/service errors into an HTTP status code.
// Keeps handlers clean by centralizing error mapping.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrPostNotFound),
		errors.Is(err, ErrCommentNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrPostExpired):
		return http.StatusGone

	case errors.Is(err, ErrInvalidReaction):
		return http.StatusBadRequest

	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized

	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout

	default:
		return http.StatusInternalServerError
	}
}

// Is, As and New are re-exported so callers don't need to import both
// this package and the stdlib errors package.
func Is(err, target error) bool     { return errors.Is(err, target) }
func As(err error, target any) bool { return errors.As(err, target) }
func New(msg string) error          { return errors.New(msg) }
