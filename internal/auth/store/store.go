package store

import (
	"context"
	"errors"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Users() Users
	Memberships() Memberships
	Invitations() Invitations

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., refresh
	// rotation). The caller MUST call Commit() or Rollback() on the
	// returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error, the transaction is rolled back; otherwise it is committed.
	// This is the recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up a user by case-normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByUsername looks up a user by case-normalized username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when username or email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (bcrypt) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// MarkEmailVerified flips email_verified and bumps updated_at.
	MarkEmailVerified(ctx context.Context, userID string) error

	// DeleteUser cascades to token slots and memberships (per schema).
	DeleteUser(ctx context.Context, userID string) error

	// UpsertTokenSlot writes the (digest, expiry) pair for one purpose,
	// replacing any previous value. Digest and expiry always travel
	// together.
	UpsertTokenSlot(ctx context.Context, slot domain.TokenSlot) error

	// GetTokenSlot returns the stored slot for (user, purpose).
	GetTokenSlot(ctx context.Context, userID string, purpose domain.TokenPurpose) (domain.TokenSlot, error)

	// GetTokenSlotByDigest returns a slot by purpose and digest. Expiry
	// is NOT filtered here; callers enforce it so that "expired" and
	// "unknown" stay distinguishable.
	GetTokenSlotByDigest(ctx context.Context, purpose domain.TokenPurpose, digest string) (domain.TokenSlot, error)

	// ClearTokenSlot removes the slot for (user, purpose). Clearing an
	// already-empty slot is not an error.
	ClearTokenSlot(ctx context.Context, userID string, purpose domain.TokenPurpose) error

	// DeleteExpiredTokenSlots is optional housekeeping; expiry is always
	// enforced at consumption time regardless.
	DeleteExpiredTokenSlots(ctx context.Context) error
}

type Memberships interface {
	// GetMembership fetches the (project, user) membership row.
	GetMembership(ctx context.Context, projectID, userID string) (domain.Membership, error)

	// CreateMembership inserts a membership. Returns ErrAlreadyExists if
	// the pair already has a role.
	CreateMembership(ctx context.Context, m domain.Membership) error

	// ListProjectMembers returns all memberships of a project ordered by
	// join date.
	ListProjectMembers(ctx context.Context, projectID string) ([]domain.Membership, error)

	// DeleteMembership removes the (project, user) pair.
	DeleteMembership(ctx context.Context, projectID, userID string) error
}

type Invitations interface {
	// UpsertInvitation writes an invitation, replacing any pending one
	// for the same (project, email) pair.
	UpsertInvitation(ctx context.Context, inv domain.ProjectInvitation) error

	// GetInvitationByTokenHash returns an invitation by its hashed token.
	// Expiry and acceptance are checked by the caller.
	GetInvitationByTokenHash(ctx context.Context, hash string) (domain.ProjectInvitation, error)

	// MarkInvitationAccepted sets accepted_by and bumps updated_at.
	MarkInvitationAccepted(ctx context.Context, invitationID, acceptedByUserID string) error

	// DeleteExpiredInvitations is optional housekeeping.
	DeleteExpiredInvitations(ctx context.Context) error
}
