package sqlite

import (
	"context"
	"time"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, fullname, password_hash, email_verified, created_at, updated_at`

func (r *usersRepo) scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Fullname,
		&u.PasswordHash,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return r.scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return r.scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, fullname, password_hash, email_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.Fullname, u.PasswordHash, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	return err
}

func (r *usersRepo) UpsertTokenSlot(ctx context.Context, slot domain.TokenSlot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_tokens (user_id, purpose, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, purpose) DO UPDATE SET
		     token_hash = excluded.token_hash,
		     expires_at = excluded.expires_at,
		     created_at = excluded.created_at`,
		slot.UserID, string(slot.Purpose), slot.TokenHash, slot.ExpiresAt, slot.CreatedAt)
	return err
}

func (r *usersRepo) GetTokenSlot(
	ctx context.Context,
	userID string,
	purpose domain.TokenPurpose,
) (domain.TokenSlot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, purpose, token_hash, expires_at, created_at
		 FROM user_tokens WHERE user_id = ? AND purpose = ?`,
		userID, string(purpose))
	return scanTokenSlot(row)
}

func (r *usersRepo) GetTokenSlotByDigest(
	ctx context.Context,
	purpose domain.TokenPurpose,
	digest string,
) (domain.TokenSlot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, purpose, token_hash, expires_at, created_at
		 FROM user_tokens WHERE purpose = ? AND token_hash = ?`,
		string(purpose), digest)
	return scanTokenSlot(row)
}

func (r *usersRepo) ClearTokenSlot(
	ctx context.Context,
	userID string,
	purpose domain.TokenPurpose,
) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_tokens WHERE user_id = ? AND purpose = ?`,
		userID, string(purpose))
	return err
}

func (r *usersRepo) DeleteExpiredTokenSlots(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_tokens WHERE expires_at < ?`, time.Now().UTC())
	return err
}

func scanTokenSlot(row interface{ Scan(...any) error }) (domain.TokenSlot, error) {
	var s domain.TokenSlot
	var purpose string
	err := row.Scan(&s.UserID, &purpose, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return domain.TokenSlot{}, mapNotFound(err)
	}
	s.Purpose = domain.TokenPurpose(purpose)
	return s, nil
}
