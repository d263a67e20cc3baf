package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
	"github.com/sprintdeck/sprintdeck/internal/auth/store"
	"github.com/sprintdeck/sprintdeck/internal/auth/store/drivers/sqlite"
	"github.com/sprintdeck/sprintdeck/pkg/cryptox"
	"github.com/sprintdeck/sprintdeck/pkg/jwtx"
)

const testIssuer = "sprintdeck-test"

// capturingMailer records outbound links instead of sending anything,
// letting tests fish the raw tokens back out of the "emails".
type capturingMailer struct {
	verificationLinks []string
	resetLinks        []string
	inviteLinks       []string
	failNext          bool
}

func (m *capturingMailer) SendVerificationEmail(_ context.Context, _, _, link string) error {
	if m.failNext {
		m.failNext = false
		return context.DeadlineExceeded
	}
	m.verificationLinks = append(m.verificationLinks, link)
	return nil
}

func (m *capturingMailer) SendPasswordResetEmail(_ context.Context, _, link string) error {
	if m.failNext {
		m.failNext = false
		return context.DeadlineExceeded
	}
	m.resetLinks = append(m.resetLinks, link)
	return nil
}

func (m *capturingMailer) SendProjectInvitation(_ context.Context, _, _, link string) error {
	if m.failNext {
		m.failNext = false
		return context.DeadlineExceeded
	}
	m.inviteLinks = append(m.inviteLinks, link)
	return nil
}

// lastToken extracts the raw token from a link minted by the session
// service, where the token is the final path segment.
func lastToken(t *testing.T, link string) string {
	t.Helper()
	parts := strings.Split(link, "/")
	require.NotEmpty(t, parts)
	return parts[len(parts)-1]
}

// inviteToken extracts the raw token from an invitation link, where the
// token sits before the trailing /accept.
func inviteToken(t *testing.T, link string) string {
	t.Helper()
	parts := strings.Split(link, "/")
	require.GreaterOrEqual(t, len(parts), 2)
	require.Equal(t, "accept", parts[len(parts)-1])
	return parts[len(parts)-2]
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func newSessionService(t *testing.T, st store.Store, mailer *capturingMailer) *SessionService {
	t.Helper()

	return &SessionService{
		Store:           st,
		Mailer:          mailer,
		AccessSigner:    jwtx.NewSignerHS256([]byte("access-secret")),
		RefreshSigner:   jwtx.NewSignerHS256([]byte("refresh-secret")),
		RefreshVerifier: jwtx.NewVerifierHS256([]byte("refresh-secret"), testIssuer),
		Issuer:          testIssuer,
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		RefreshTTL:      jwtx.DefaultRefreshTokenTTL,
		HashCost:        cryptox.MinHashCost,
		PublicBaseURL:   "https://app.example.test",
	}
}

// mustRegister registers a user and returns its id.
func mustRegister(t *testing.T, svc *SessionService, username, email, password string) string {
	t.Helper()

	pub, err := svc.Register(context.Background(), username, email, password, "Test User")
	require.NoError(t, err)
	return pub.ID
}

// backdate rewrites a user's token slot to an already-past expiry.
func backdate(t *testing.T, st store.Store, userID string, purpose domain.TokenPurpose) {
	t.Helper()

	ctx := context.Background()
	slot, err := st.Users().GetTokenSlot(ctx, userID, purpose)
	require.NoError(t, err)
	slot.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, st.Users().UpsertTokenSlot(ctx, slot))
}
