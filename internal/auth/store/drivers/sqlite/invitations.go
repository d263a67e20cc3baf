package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, project_id, email, role, token_hash, invited_by, expires_at, accepted_by, created_at, updated_at`

func (r *invitationsRepo) UpsertInvitation(ctx context.Context, inv domain.ProjectInvitation) error {
	// Reminting for the same (project, email) replaces the pending
	// invitation; the row id and created_at survive.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO project_invitations
		     (id, project_id, email, role, token_hash, invited_by, expires_at, accepted_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, email) DO UPDATE SET
		     role = excluded.role,
		     token_hash = excluded.token_hash,
		     invited_by = excluded.invited_by,
		     expires_at = excluded.expires_at,
		     accepted_by = NULL,
		     updated_at = excluded.updated_at`,
		inv.ID, inv.ProjectID, inv.Email, string(inv.Role), inv.TokenHash,
		inv.InvitedBy, inv.ExpiresAt, mapStringNull(inv.AcceptedBy),
		inv.CreatedAt, inv.UpdatedAt)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByTokenHash(
	ctx context.Context,
	hash string,
) (domain.ProjectInvitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM project_invitations WHERE token_hash = ?`, hash)
	return scanInvitation(row)
}

func (r *invitationsRepo) MarkInvitationAccepted(
	ctx context.Context,
	invitationID, acceptedByUserID string,
) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE project_invitations SET accepted_by = ?, updated_at = ? WHERE id = ?`,
		acceptedByUserID, time.Now().UTC(), invitationID)
	return err
}

func (r *invitationsRepo) DeleteExpiredInvitations(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM project_invitations WHERE expires_at < ? AND accepted_by IS NULL`,
		time.Now().UTC())
	return err
}

func scanInvitation(row interface{ Scan(...any) error }) (domain.ProjectInvitation, error) {
	var inv domain.ProjectInvitation
	var role string
	var acceptedBy sql.NullString
	err := row.Scan(
		&inv.ID,
		&inv.ProjectID,
		&inv.Email,
		&role,
		&inv.TokenHash,
		&inv.InvitedBy,
		&inv.ExpiresAt,
		&acceptedBy,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return domain.ProjectInvitation{}, mapNotFound(err)
	}
	inv.Role = domain.Role(role)
	inv.AcceptedBy = mapNullString(acceptedBy)
	return inv, nil
}
