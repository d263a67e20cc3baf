package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
	"github.com/sprintdeck/sprintdeck/internal/auth/store"
)

func seedMember(t *testing.T, st store.Store, svc *SessionService, username string, role domain.Role) string {
	t.Helper()

	id := mustRegister(t, svc, username, username+"@example.com", "hunter22")
	require.NoError(t, st.Memberships().CreateMembership(context.Background(), domain.Membership{
		ProjectID: "proj-1",
		UserID:    id,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}))
	return id
}

func TestRequireProjectRole(t *testing.T) {
	ctx := context.Background()

	st := newTestStore(t)
	sessions := newSessionService(t, st, &capturingMailer{})
	gate := &AuthzService{Store: st}

	admin := seedMember(t, st, sessions, "admin", domain.RoleAdmin)
	projectAdmin := seedMember(t, st, sessions, "padmin", domain.RoleProjectAdmin)
	member := seedMember(t, st, sessions, "member", domain.RoleMember)
	outsider := mustRegister(t, sessions, "outsider", "outsider@example.com", "hunter22")

	t.Run("admin satisfies every role", func(t *testing.T) {
		for _, required := range []domain.Role{domain.RoleAdmin, domain.RoleProjectAdmin, domain.RoleMember} {
			require.NoError(t, gate.RequireProjectRole(ctx, "proj-1", admin, required))
		}
	})

	t.Run("project admin satisfies project_admin and member", func(t *testing.T) {
		require.NoError(t, gate.RequireProjectRole(ctx, "proj-1", projectAdmin, domain.RoleProjectAdmin))
		require.NoError(t, gate.RequireProjectRole(ctx, "proj-1", projectAdmin, domain.RoleMember))
		err := gate.RequireProjectRole(ctx, "proj-1", projectAdmin, domain.RoleAdmin)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("member satisfies only member", func(t *testing.T) {
		require.NoError(t, gate.RequireProjectRole(ctx, "proj-1", member, domain.RoleMember))
		err := gate.RequireProjectRole(ctx, "proj-1", member, domain.RoleProjectAdmin)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("non-member is forbidden regardless of role", func(t *testing.T) {
		err := gate.RequireProjectRole(ctx, "proj-1", outsider, domain.RoleMember)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("membership is project scoped", func(t *testing.T) {
		err := gate.RequireProjectRole(ctx, "proj-2", admin, domain.RoleMember)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rejects an unknown required role", func(t *testing.T) {
		err := gate.RequireProjectRole(ctx, "proj-1", admin, domain.Role("owner"))
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestRequireAnyProjectRole(t *testing.T) {
	ctx := context.Background()

	st := newTestStore(t)
	sessions := newSessionService(t, st, &capturingMailer{})
	gate := &AuthzService{Store: st}

	member := seedMember(t, st, sessions, "member", domain.RoleMember)

	t.Run("passes when any role matches", func(t *testing.T) {
		err := gate.RequireAnyProjectRole(ctx, "proj-1", member, domain.RoleAdmin, domain.RoleMember)
		require.NoError(t, err)
	})

	t.Run("fails when none match", func(t *testing.T) {
		err := gate.RequireAnyProjectRole(ctx, "proj-1", member, domain.RoleAdmin, domain.RoleProjectAdmin)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty set means any member", func(t *testing.T) {
		require.NoError(t, gate.RequireAnyProjectRole(ctx, "proj-1", member))
	})
}

func TestProjectMembers(t *testing.T) {
	ctx := context.Background()

	st := newTestStore(t)
	sessions := newSessionService(t, st, &capturingMailer{})
	gate := &AuthzService{Store: st}

	seedMember(t, st, sessions, "admin", domain.RoleAdmin)
	seedMember(t, st, sessions, "member", domain.RoleMember)

	members, err := gate.ProjectMembers(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, members, 2)

	members, err = gate.ProjectMembers(ctx, "proj-2")
	require.NoError(t, err)
	require.Empty(t, members)
}
