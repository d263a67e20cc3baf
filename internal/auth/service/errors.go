package service

import "errors"

// Sentinel failures returned by the services. Every operation returns
// exactly one of these (or a wrapped store/internal error); the HTTP
// layer maps them to status codes and never exposes internal error text.
var (
	// ErrValidation covers malformed or missing input that survived the
	// outer request-validation layer.
	ErrValidation = errors.New("invalid_request")

	// ErrPasswordMismatch reports that new password and confirmation differ.
	ErrPasswordMismatch = errors.New("password_mismatch")

	// ErrConflict reports a duplicate username/email or an
	// already-existing membership.
	ErrConflict = errors.New("conflict")

	// ErrAlreadyVerified reports a verification resend for a verified account.
	ErrAlreadyVerified = errors.New("email_already_verified")

	// ErrInvalidCredentials covers both "no such account" and "wrong
	// password". The two must stay externally indistinguishable so the
	// login endpoint cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrInvalidRefresh reports a refresh token that verified but does
	// not match the stored fingerprint (superseded or revoked).
	ErrInvalidRefresh = errors.New("invalid_refresh_token")

	// ErrUserNotFound reports an absent user record.
	ErrUserNotFound = errors.New("user_not_found")

	// ErrForbidden is the authorization gate rejection.
	ErrForbidden = errors.New("forbidden")

	// ErrTokenInvalid reports an unknown, malformed, or already-consumed
	// single-use or bearer token.
	ErrTokenInvalid = errors.New("token_invalid")

	// ErrTokenExpired reports a token past its expiry. Externally it
	// behaves like ErrTokenInvalid; the distinction is kept for logging.
	ErrTokenExpired = errors.New("token_expired")
)
