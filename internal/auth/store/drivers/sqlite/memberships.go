package sqlite

import (
	"context"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
)

type membershipsRepo struct {
	db dbtx
}

func (r *membershipsRepo) GetMembership(
	ctx context.Context,
	projectID, userID string,
) (domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT project_id, user_id, role, created_at
		 FROM memberships WHERE project_id = ? AND user_id = ?`,
		projectID, userID)

	var m domain.Membership
	var role string
	if err := row.Scan(&m.ProjectID, &m.UserID, &role, &m.CreatedAt); err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.Role = domain.Role(role)
	return m, nil
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (project_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?)`,
		m.ProjectID, m.UserID, string(m.Role), m.CreatedAt)
	return mapConstraint(err)
}

func (r *membershipsRepo) ListProjectMembers(
	ctx context.Context,
	projectID string,
) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT project_id, user_id, role, created_at
		 FROM memberships WHERE project_id = ? ORDER BY created_at`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		var m domain.Membership
		var role string
		if err := rows.Scan(&m.ProjectID, &m.UserID, &role, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) DeleteMembership(ctx context.Context, projectID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	return err
}
