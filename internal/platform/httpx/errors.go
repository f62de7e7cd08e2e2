// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kassa-pos/kassa/internal/shared"
)

// Sentinel errors raised by the HTTP layer itself.
var (
	ErrValidation = errors.New("validation failed")
	ErrBadRequest = errors.New("malformed request")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unmapped errors become a 500 with no detail.
func RespondError(w http.ResponseWriter, err error) {
	status, title := Status(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = ""
	}
	Problem(w, status, title, detail)
}

// RespondErrorLogged is RespondError plus an error log for unexpected failures.
func RespondErrorLogged(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if status, _ := Status(err); status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	RespondError(w, err)
}

// Status returns the HTTP status and problem title for err.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, shared.ErrInsufficientStock):
		return http.StatusConflict, "Insufficient Stock"
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, shared.ErrInvalidQuantity),
		errors.Is(err, shared.ErrInvalidAmount),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "Validation Failed"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}
