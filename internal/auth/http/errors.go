package http

import (
	"errors"
	"net/http"

	"github.com/sprintdeck/sprintdeck/internal/auth/service"
	"github.com/sprintdeck/sprintdeck/pkg/httpx"
	"github.com/sprintdeck/sprintdeck/pkg/slogx"
)

// writeServiceError translates a service sentinel into the JSON error
// body and status code. Anything unrecognized is logged and reported as
// an opaque 500; internal error text never reaches the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Missing or malformed request fields")
	case errors.Is(err, service.ErrPasswordMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Passwords do not match")
	case errors.Is(err, service.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict", "Resource already exists")
	case errors.Is(err, service.ErrAlreadyVerified):
		httpx.WriteError(w, http.StatusConflict, "conflict", "Email is already verified")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_grant", "Refresh token is no longer valid")
	case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrTokenExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Token is invalid or expired")
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "User not found")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "Insufficient project role")
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}
