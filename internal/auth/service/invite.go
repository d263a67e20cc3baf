package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
	"github.com/sprintdeck/sprintdeck/internal/auth/mail"
	"github.com/sprintdeck/sprintdeck/internal/auth/store"
	"github.com/sprintdeck/sprintdeck/pkg/cryptox"
	"github.com/sprintdeck/sprintdeck/pkg/idx"
	"github.com/sprintdeck/sprintdeck/pkg/slogx"
)

// InvitationTTL bounds how long a project invitation can be accepted.
const InvitationTTL = 7 * 24 * time.Hour

// InviteService mints and redeems project invitations. An invitation
// binds an email address to a project and a role; accepting it creates
// the membership.
type InviteService struct {
	Store  store.Store
	Mailer mail.Mailer

	// PublicBaseURL prefixes the invite links embedded in emails.
	PublicBaseURL string
}

// MintInvite creates (or re-mints) an invitation for email to join
// projectID with the given role, and emails the invite link. Reminting
// replaces any pending invitation for the same (project, email) pair.
func (s *InviteService) MintInvite(
	ctx context.Context,
	projectID, invitedBy, email string,
	role domain.Role,
) (domain.ProjectInvitation, error) {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	email = normalizeEmail(email)
	if projectID == "" || email == "" {
		return domain.ProjectInvitation{}, ErrValidation
	}
	if !role.Valid() {
		return domain.ProjectInvitation{}, ErrValidation
	}

	rawToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.ProjectInvitation{}, err
	}

	inv := domain.ProjectInvitation{
		ID:        idx.New().String(),
		ProjectID: projectID,
		Email:     email,
		Role:      role,
		TokenHash: cryptox.FingerprintToken(rawToken),
		InvitedBy: invitedBy,
		ExpiresAt: now.Add(InvitationTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Invitations().UpsertInvitation(ctx, inv); err != nil {
		return domain.ProjectInvitation{}, err
	}

	link := s.link(rawToken)
	if err := s.Mailer.SendProjectInvitation(ctx, email, projectID, link); err != nil {
		log.Warn("invitation email failed, invite stays pending",
			slog.String("project_id", projectID),
			slog.Any("error", err),
		)
	}

	log.Info("project invitation minted",
		slog.String("project_id", projectID),
		slog.String("role", string(role)),
	)

	return inv, nil
}

// AcceptInvite redeems an invitation token for the given user, creating
// the membership with the invited role. The invitation is consumed in
// the same transaction, so a token accepts at most once.
func (s *InviteService) AcceptInvite(
	ctx context.Context,
	rawToken, userID string,
) (domain.Membership, error) {
	now := time.Now().UTC()
	log := slogx.FromContext(ctx)

	if rawToken == "" {
		return domain.Membership{}, ErrValidation
	}

	fp := cryptox.FingerprintToken(rawToken)

	var membership domain.Membership
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := tx.Invitations().GetInvitationByTokenHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		if inv.AcceptedBy != "" {
			return ErrTokenInvalid
		}
		if !now.Before(inv.ExpiresAt) {
			log.Info("expired invitation presented",
				slog.String("project_id", inv.ProjectID),
			)
			return ErrTokenExpired
		}

		membership = domain.Membership{
			ProjectID: inv.ProjectID,
			UserID:    userID,
			Role:      inv.Role,
			CreatedAt: now,
		}
		if err := tx.Memberships().CreateMembership(ctx, membership); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrConflict
			}
			return err
		}
		return tx.Invitations().MarkInvitationAccepted(ctx, inv.ID, userID)
	})
	if err != nil {
		return domain.Membership{}, err
	}

	log.Info("project invitation accepted",
		slog.String("project_id", membership.ProjectID),
		slog.String("user_id", userID),
	)

	return membership, nil
}

func (s *InviteService) link(token string) string {
	return s.PublicBaseURL + "/invitations/" + token + "/accept"
}
