package domain

import "time"

// TokenPurpose names a single-use token slot on a user record. Each
// (user, purpose) pair holds at most one live digest at a time; the
// refresh slot follows the same storage pattern even though its value is
// a signed token rather than an opaque secret.
type TokenPurpose string

const (
	PurposeRefresh           TokenPurpose = "refresh"
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// TokenSlot is a persisted (digest, expiry) pair for one purpose. The
// plaintext secret is never stored; digest and expiry live and die
// together.
type TokenSlot struct {
	UserID    string
	Purpose   TokenPurpose
	TokenHash string // base64url SHA-256 fingerprint
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Live reports whether the slot is still consumable at the given time.
func (s TokenSlot) Live(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// TokenPair is what the login and refresh endpoints return: the
// short-lived access token and the long-lived refresh token, both JWTs.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until access expiry
}
