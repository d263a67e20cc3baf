package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
	"github.com/sprintdeck/sprintdeck/internal/auth/mail"
	"github.com/sprintdeck/sprintdeck/internal/auth/store"
	"github.com/sprintdeck/sprintdeck/pkg/cryptox"
	"github.com/sprintdeck/sprintdeck/pkg/idx"
	"github.com/sprintdeck/sprintdeck/pkg/jwtx"
	"github.com/sprintdeck/sprintdeck/pkg/slogx"
)

// Single-use token TTLs. These are policy constants per purpose, not a
// single global knob.
const (
	// EmailVerificationTTL bounds how long a verification link stays valid.
	EmailVerificationTTL = 20 * time.Minute

	// PasswordResetTTL bounds how long a reset link stays valid.
	PasswordResetTTL = 20 * time.Minute
)

// SessionService owns the account-lifecycle state machine: registration,
// login/logout, refresh rotation, password change/reset, and email
// verification. Every operation is atomic with respect to the user
// record it touches.
type SessionService struct {
	Store  store.Store
	Mailer mail.Mailer

	AccessSigner    jwtx.Signer
	RefreshSigner   jwtx.Signer
	RefreshVerifier jwtx.Verifier

	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// HashCost is the bcrypt cost; zero means cryptox.DefaultHashCost.
	HashCost int

	// PublicBaseURL prefixes the links embedded in outbound emails.
	PublicBaseURL string
}

// Register creates a new account, unverified, and emits the
// verification email. A failed email send does not roll the account
// back; ResendVerification is the recovery path.
func (s *SessionService) Register(
	ctx context.Context,
	username, email, password, fullname string,
) (domain.PublicUser, error) {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	// 1. Normalize and validate input.
	username = strings.ToLower(strings.TrimSpace(username))
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return domain.PublicUser{}, ErrValidation
	}

	// 2. Reject duplicates up front for a clean error; the unique
	// constraints below close the race.
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.PublicUser{}, ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.PublicUser{}, err
	}
	if _, err := s.Store.Users().GetUserByUsername(ctx, username); err == nil {
		return domain.PublicUser{}, ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.PublicUser{}, err
	}

	// 3. Hash the password.
	passwordHash, err := cryptox.HashPassword(password, s.HashCost)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.PublicUser{}, err
	}

	// 4. Mint the verification token. Only the fingerprint is stored.
	rawToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.PublicUser{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		Fullname:     strings.TrimSpace(fullname),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	slot := domain.TokenSlot{
		UserID:    user.ID,
		Purpose:   domain.PurposeEmailVerification,
		TokenHash: cryptox.FingerprintToken(rawToken),
		ExpiresAt: now.Add(EmailVerificationTTL),
		CreatedAt: now,
	}

	// 5. Create the user and its verification slot atomically.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrConflict
			}
			return err
		}
		return tx.Users().UpsertTokenSlot(ctx, slot)
	})
	if err != nil {
		return domain.PublicUser{}, err
	}

	// 6. Emit the verification email. Best-effort: the account stands
	// even when delivery fails.
	link := s.link("verify-email", rawToken)
	if err := s.Mailer.SendVerificationEmail(ctx, user.Email, user.Fullname, link); err != nil {
		log.Warn("verification email failed, account created unverified",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	log.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user.Public(), nil
}

// Login authenticates by email or username and issues a fresh token
// pair. Unknown identifier and wrong password return the same error so
// the endpoint cannot be used to enumerate accounts.
func (s *SessionService) Login(
	ctx context.Context,
	identifier, password string,
) (domain.TokenPair, domain.PublicUser, error) {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return domain.TokenPair{}, domain.PublicUser{}, ErrInvalidCredentials
	}

	// 1. Resolve the user by email first, then username.
	user, err := s.Store.Users().GetUserByEmail(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		user, err = s.Store.Users().GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.PublicUser{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, domain.PublicUser{}, err
	}

	// 2. Verify the password.
	if !cryptox.VerifyPassword(password, user.PasswordHash) {
		log.Info("login password verification failed", slog.String("user_id", user.ID))
		return domain.TokenPair{}, domain.PublicUser{}, ErrInvalidCredentials
	}

	// 3. Issue the pair and persist the refresh fingerprint.
	pair, err := s.issuePair(ctx, s.Store, user, now)
	if err != nil {
		return domain.TokenPair{}, domain.PublicUser{}, err
	}

	log.Info("user logged in", slog.String("user_id", user.ID))
	return pair, user.Public(), nil
}

// Logout clears the stored refresh-token slot. Calling it twice is not
// an error; the second call is a no-op.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	return s.Store.Users().ClearTokenSlot(ctx, userID, domain.PurposeRefresh)
}

// RefreshAccessToken exchanges a refresh token for a new pair and
// rotates the stored fingerprint. A token that verifies but does not
// match the stored value is stale or stolen; it forces re-login.
func (s *SessionService) RefreshAccessToken(
	ctx context.Context,
	submitted string,
) (domain.TokenPair, error) {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	// 1. Verify signature and expiry.
	claims, err := s.RefreshVerifier.Verify(submitted)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return domain.TokenPair{}, ErrTokenExpired
		}
		return domain.TokenPair{}, ErrTokenInvalid
	}

	// 2. Compare-and-rotate inside one transaction so two concurrent
	// refreshes cannot both succeed with the same token: the second
	// observes the first's overwrite and fails the equality check.
	var pair domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		slot, err := tx.Users().GetTokenSlot(ctx, user.ID, domain.PurposeRefresh)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		fp := cryptox.FingerprintToken(submitted)
		if subtle.ConstantTimeCompare([]byte(fp), []byte(slot.TokenHash)) != 1 {
			log.Warn("refresh token mismatch, forcing re-login",
				slog.String("user_id", user.ID),
			)
			return ErrInvalidRefresh
		}
		if !slot.Live(now) {
			return ErrInvalidRefresh
		}

		pair, err = s.issuePair(ctx, tx, user, now)
		return err
	})
	if err != nil {
		return domain.TokenPair{}, err
	}

	return pair, nil
}

// ChangePassword swaps the password digest after verifying the old
// password. Existing sessions stay valid.
func (s *SessionService) ChangePassword(
	ctx context.Context,
	userID, oldPassword, newPassword string,
) error {
	log := slogx.FromContext(ctx)

	if newPassword == "" {
		return ErrValidation
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !cryptox.VerifyPassword(oldPassword, user.PasswordHash) {
		log.Info("change password rejected, old password mismatch",
			slog.String("user_id", userID),
		)
		return ErrInvalidCredentials
	}

	newHash, err := cryptox.HashPassword(newPassword, s.HashCost)
	if err != nil {
		return err
	}

	return s.Store.Users().UpdatePasswordHash(ctx, userID, newHash)
}

// RequestPasswordReset mints a reset token and emits the reset email.
// It succeeds silently for unknown addresses so the endpoint cannot be
// used to probe for accounts.
func (s *SessionService) RequestPasswordReset(ctx context.Context, email string) error {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	email = normalizeEmail(email)
	if email == "" {
		return ErrValidation
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	rawToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	// Overwrites any previous pending reset token for this user.
	slot := domain.TokenSlot{
		UserID:    user.ID,
		Purpose:   domain.PurposePasswordReset,
		TokenHash: cryptox.FingerprintToken(rawToken),
		ExpiresAt: now.Add(PasswordResetTTL),
		CreatedAt: now,
	}
	if err := s.Store.Users().UpsertTokenSlot(ctx, slot); err != nil {
		return err
	}

	link := s.link("reset-password", rawToken)
	if err := s.Mailer.SendPasswordResetEmail(ctx, user.Email, link); err != nil {
		log.Warn("password reset email failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return nil
}

// ResetPassword consumes a reset token and stores the new password
// digest. The slot is cleared in the same transaction as the password
// write, so the token can never succeed twice.
func (s *SessionService) ResetPassword(
	ctx context.Context,
	rawToken, newPassword, confirmPassword string,
) error {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	if rawToken == "" || newPassword == "" {
		return ErrValidation
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	newHash, err := cryptox.HashPassword(newPassword, s.HashCost)
	if err != nil {
		return err
	}

	fp := cryptox.FingerprintToken(rawToken)
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		slot, err := tx.Users().GetTokenSlotByDigest(ctx, domain.PurposePasswordReset, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		if !slot.Live(now) {
			log.Info("expired password reset token presented",
				slog.String("user_id", slot.UserID),
			)
			return ErrTokenExpired
		}

		if err := tx.Users().UpdatePasswordHash(ctx, slot.UserID, newHash); err != nil {
			return err
		}
		return tx.Users().ClearTokenSlot(ctx, slot.UserID, domain.PurposePasswordReset)
	})
}

// VerifyEmail consumes a verification token and marks the account
// verified.
func (s *SessionService) VerifyEmail(ctx context.Context, rawToken string) error {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	if rawToken == "" {
		return ErrValidation
	}

	fp := cryptox.FingerprintToken(rawToken)
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		slot, err := tx.Users().GetTokenSlotByDigest(ctx, domain.PurposeEmailVerification, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		if !slot.Live(now) {
			log.Info("expired verification token presented",
				slog.String("user_id", slot.UserID),
			)
			return ErrTokenExpired
		}

		if err := tx.Users().MarkEmailVerified(ctx, slot.UserID); err != nil {
			return err
		}
		return tx.Users().ClearTokenSlot(ctx, slot.UserID, domain.PurposeEmailVerification)
	})
}

// ResendVerification regenerates the verification token, invalidating
// any prior one, and re-sends the email.
func (s *SessionService) ResendVerification(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	rawToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	slot := domain.TokenSlot{
		UserID:    user.ID,
		Purpose:   domain.PurposeEmailVerification,
		TokenHash: cryptox.FingerprintToken(rawToken),
		ExpiresAt: now.Add(EmailVerificationTTL),
		CreatedAt: now,
	}
	if err := s.Store.Users().UpsertTokenSlot(ctx, slot); err != nil {
		return err
	}

	link := s.link("verify-email", rawToken)
	if err := s.Mailer.SendVerificationEmail(ctx, user.Email, user.Fullname, link); err != nil {
		log.Warn("verification email failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return nil
}

// issuePair signs a fresh access+refresh pair and persists the refresh
// fingerprint on the user record, superseding the previous session.
func (s *SessionService) issuePair(
	ctx context.Context,
	st store.Store,
	user domain.User,
	now time.Time,
) (domain.TokenPair, error) {
	access, err := s.AccessSigner.Sign(
		jwtx.NewAccessClaims(user.ID, user.Username, user.Email, s.AccessTTL, s.Issuer, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.RefreshSigner.Sign(
		jwtx.NewRefreshClaims(user.ID, s.RefreshTTL, s.Issuer, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	slot := domain.TokenSlot{
		UserID:    user.ID,
		Purpose:   domain.PurposeRefresh,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}
	if err := st.Users().UpsertTokenSlot(ctx, slot); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, nil
}

func (s *SessionService) link(path, token string) string {
	base := strings.TrimRight(s.PublicBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, path, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
