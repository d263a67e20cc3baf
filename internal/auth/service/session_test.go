package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
	"github.com/sprintdeck/sprintdeck/pkg/cryptox"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an unverified account with a hashed password", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)

		pub, err := svc.Register(ctx, "Alice", "Alice@Example.com", "hunter22", "Alice A")
		require.NoError(t, err)
		require.Equal(t, "alice", pub.Username)
		require.Equal(t, "alice@example.com", pub.Email)
		require.False(t, pub.EmailVerified)

		user, err := st.Users().GetUserByID(ctx, pub.ID)
		require.NoError(t, err)
		require.NotEqual(t, "hunter22", user.PasswordHash)
		require.True(t, strings.HasPrefix(user.PasswordHash, "$2"))
		require.True(t, cryptox.VerifyPassword("hunter22", user.PasswordHash))

		require.Len(t, mailer.verificationLinks, 1)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})

		mustRegister(t, svc, "alice", "alice@example.com", "hunter22")
		_, err := svc.Register(ctx, "alice2", "alice@example.com", "hunter22", "")
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})

		mustRegister(t, svc, "alice", "alice@example.com", "hunter22")
		_, err := svc.Register(ctx, "alice", "other@example.com", "hunter22", "")
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})

		_, err := svc.Register(ctx, "", "alice@example.com", "hunter22", "")
		require.ErrorIs(t, err, ErrValidation)
		_, err = svc.Register(ctx, "alice", "alice@example.com", "", "")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("account survives a failed verification email", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{failNext: true}
		svc := newSessionService(t, st, mailer)

		pub, err := svc.Register(ctx, "alice", "alice@example.com", "hunter22", "")
		require.NoError(t, err)
		require.Empty(t, mailer.verificationLinks)

		_, err = st.Users().GetUserByID(ctx, pub.ID)
		require.NoError(t, err)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("by email and by username", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		pair, pub, err := svc.Login(ctx, "alice@example.com", "hunter22")
		require.NoError(t, err)
		require.Equal(t, id, pub.ID)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		require.Equal(t, "Bearer", pair.TokenType)

		_, _, err = svc.Login(ctx, "alice", "hunter22")
		require.NoError(t, err)
	})

	t.Run("unknown account and wrong password are indistinguishable", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})
		mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "hunter22")
		_, _, errWrong := svc.Login(ctx, "alice@example.com", "wrong")
		require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		require.ErrorIs(t, errWrong, ErrInvalidCredentials)
		require.Equal(t, errUnknown.Error(), errWrong.Error())
	})

	t.Run("stores only the refresh token fingerprint", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		pair, _, err := svc.Login(ctx, "alice", "hunter22")
		require.NoError(t, err)

		slot, err := st.Users().GetTokenSlot(ctx, id, domain.PurposeRefresh)
		require.NoError(t, err)
		require.NotEqual(t, pair.RefreshToken, slot.TokenHash)
		require.Equal(t, cryptox.FingerprintToken(pair.RefreshToken), slot.TokenHash)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the refresh token", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		first, _, err := svc.Login(ctx, "alice", "hunter22")
		require.NoError(t, err)

		second, err := svc.RefreshAccessToken(ctx, first.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, second.AccessToken)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)

		slot, err := st.Users().GetTokenSlot(ctx, id, domain.PurposeRefresh)
		require.NoError(t, err)
		require.Equal(t, cryptox.FingerprintToken(second.RefreshToken), slot.TokenHash)
	})

	t.Run("rejects a replayed rotated token", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})
		mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		first, _, err := svc.Login(ctx, "alice", "hunter22")
		require.NoError(t, err)

		second, err := svc.RefreshAccessToken(ctx, first.RefreshToken)
		require.NoError(t, err)

		// The old token still verifies cryptographically, but its
		// fingerprint no longer matches the stored slot.
		_, err = svc.RefreshAccessToken(ctx, first.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)

		// The current token keeps working.
		_, err = svc.RefreshAccessToken(ctx, second.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("rejects garbage and wrongly-signed tokens", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})
		mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		pair, _, err := svc.Login(ctx, "alice", "hunter22")
		require.NoError(t, err)

		_, err = svc.RefreshAccessToken(ctx, "not-a-jwt")
		require.ErrorIs(t, err, ErrTokenInvalid)

		// An access token is signed with the other secret and must not
		// pass as a refresh token.
		_, err = svc.RefreshAccessToken(ctx, pair.AccessToken)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("rejects refresh after logout", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		pair, _, err := svc.Login(ctx, "alice", "hunter22")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, id))
		_, err = svc.RefreshAccessToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("is idempotent", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		_, _, err := svc.Login(ctx, "alice", "hunter22")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, id))
		require.NoError(t, svc.Logout(ctx, id))
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("requires the old password", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		err := svc.ChangePassword(ctx, id, "wrong", "newpass99")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		require.NoError(t, svc.ChangePassword(ctx, id, "hunter22", "newpass99"))

		_, _, err = svc.Login(ctx, "alice", "hunter22")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		_, _, err = svc.Login(ctx, "alice", "newpass99")
		require.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})

		err := svc.ChangePassword(ctx, "no-such-id", "a", "b")
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("full round trip", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)
		mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		require.NoError(t, svc.RequestPasswordReset(ctx, "Alice@Example.com"))
		require.Len(t, mailer.resetLinks, 1)
		token := lastToken(t, mailer.resetLinks[0])

		require.NoError(t, svc.ResetPassword(ctx, token, "newpass99", "newpass99"))

		_, _, err := svc.Login(ctx, "alice", "newpass99")
		require.NoError(t, err)
	})

	t.Run("succeeds silently for unknown email", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)

		require.NoError(t, svc.RequestPasswordReset(ctx, "ghost@example.com"))
		require.Empty(t, mailer.resetLinks)
	})

	t.Run("token works at most once", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)
		mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
		token := lastToken(t, mailer.resetLinks[0])

		require.NoError(t, svc.ResetPassword(ctx, token, "newpass99", "newpass99"))
		err := svc.ResetPassword(ctx, token, "another00", "another00")
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("re-request supersedes the previous token", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)
		mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
		require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
		require.Len(t, mailer.resetLinks, 2)

		old := lastToken(t, mailer.resetLinks[0])
		err := svc.ResetPassword(ctx, old, "newpass99", "newpass99")
		require.ErrorIs(t, err, ErrTokenInvalid)

		current := lastToken(t, mailer.resetLinks[1])
		require.NoError(t, svc.ResetPassword(ctx, current, "newpass99", "newpass99"))
	})

	t.Run("rejects mismatched confirmation without consuming", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)
		mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
		token := lastToken(t, mailer.resetLinks[0])

		err := svc.ResetPassword(ctx, token, "newpass99", "different")
		require.ErrorIs(t, err, ErrPasswordMismatch)

		// Mismatch did not burn the token.
		require.NoError(t, svc.ResetPassword(ctx, token, "newpass99", "newpass99"))
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
		token := lastToken(t, mailer.resetLinks[0])
		backdate(t, st, id, domain.PurposePasswordReset)

		err := svc.ResetPassword(ctx, token, "newpass99", "newpass99")
		require.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the account verified and burns the token", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		token := lastToken(t, mailer.verificationLinks[0])
		require.NoError(t, svc.VerifyEmail(ctx, token))

		user, err := st.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
		require.True(t, user.EmailVerified)

		err = svc.VerifyEmail(ctx, token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		st := newTestStore(t)
		svc := newSessionService(t, st, &capturingMailer{})

		err := svc.VerifyEmail(ctx, "completely-made-up")
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		token := lastToken(t, mailer.verificationLinks[0])
		backdate(t, st, id, domain.PurposeEmailVerification)

		err := svc.VerifyEmail(ctx, token)
		require.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestResendVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates the previous token", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		require.NoError(t, svc.ResendVerification(ctx, id))
		require.Len(t, mailer.verificationLinks, 2)

		old := lastToken(t, mailer.verificationLinks[0])
		err := svc.VerifyEmail(ctx, old)
		require.ErrorIs(t, err, ErrTokenInvalid)

		current := lastToken(t, mailer.verificationLinks[1])
		require.NoError(t, svc.VerifyEmail(ctx, current))
	})

	t.Run("rejects an already verified account", func(t *testing.T) {
		st := newTestStore(t)
		mailer := &capturingMailer{}
		svc := newSessionService(t, st, mailer)
		id := mustRegister(t, svc, "alice", "alice@example.com", "hunter22")

		token := lastToken(t, mailer.verificationLinks[0])
		require.NoError(t, svc.VerifyEmail(ctx, token))

		err := svc.ResendVerification(ctx, id)
		require.ErrorIs(t, err, ErrAlreadyVerified)
	})
}
