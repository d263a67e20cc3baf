package domain

import "time"

type User struct {
	ID            string
	Username      string // unique, stored lowercased
	Email         string // unique, stored lowercased
	Fullname      string
	PasswordHash  string // bcrypt encoded
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the projection returned to callers. It never carries the
// password digest or any token digests.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Fullname      string    `json:"fullname"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Public returns the caller-visible projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Fullname:      u.Fullname,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}
