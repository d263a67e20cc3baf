package service

import (
	"context"
	"errors"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
	"github.com/sprintdeck/sprintdeck/internal/auth/store"
)

// AuthzService answers "may this user act on this project". It is a
// pure lookup against the membership table plus the role hierarchy; it
// never mutates state.
type AuthzService struct {
	Store store.Store
}

// RequireProjectRole returns nil when userID holds a role on projectID
// that satisfies required, via the hierarchy (admin covers
// project_admin covers member). Non-members and members whose role is
// insufficient both get ErrForbidden.
func (s *AuthzService) RequireProjectRole(
	ctx context.Context,
	projectID, userID string,
	required domain.Role,
) error {
	if !required.Valid() {
		return ErrValidation
	}

	m, err := s.Store.Memberships().GetMembership(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrForbidden
		}
		return err
	}

	if !m.Role.Implies(required) {
		return ErrForbidden
	}
	return nil
}

// RequireAnyProjectRole returns nil when the user's role satisfies at
// least one of the given roles. An empty set means "any member".
func (s *AuthzService) RequireAnyProjectRole(
	ctx context.Context,
	projectID, userID string,
	roles ...domain.Role,
) error {
	if len(roles) == 0 {
		return s.RequireProjectRole(ctx, projectID, userID, domain.RoleMember)
	}

	var lastErr error
	for _, r := range roles {
		err := s.RequireProjectRole(ctx, projectID, userID, r)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrForbidden) && !errors.Is(err, ErrValidation) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// ProjectMembers lists the memberships of a project. The caller is
// expected to have passed the gate already.
func (s *AuthzService) ProjectMembers(
	ctx context.Context,
	projectID string,
) ([]domain.Membership, error) {
	return s.Store.Memberships().ListProjectMembers(ctx, projectID)
}
