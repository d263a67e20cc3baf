package domain

import "time"

// ProjectInvitation is a pending invite to join a project. The opaque
// invite token is delivered out-of-band by email; only its SHA-256
// fingerprint is stored. Reminting an invitation for the same
// (project, email) pair overwrites the previous one.
type ProjectInvitation struct {
	ID        string
	ProjectID string
	Email     string // invitee, stored lowercased
	Role      Role   // role granted on acceptance
	TokenHash string
	InvitedBy string // user id of the inviter
	ExpiresAt time.Time
	AcceptedBy string // user id once accepted, empty while pending
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Pending reports whether the invitation can still be accepted at the
// given time.
func (i ProjectInvitation) Pending(now time.Time) bool {
	return i.AcceptedBy == "" && now.Before(i.ExpiresAt)
}
