// Package mail is the boundary to the outbound email transport. The
// core only ever asks for "send a link containing this secret to that
// address"; delivery itself is an external concern.
package mail

import (
	"context"

	"github.com/sprintdeck/sprintdeck/pkg/slogx"
)

// Mailer delivers account emails. Implementations must not persist the
// raw tokens embedded in the links.
type Mailer interface {
	// SendVerificationEmail delivers the email-verification link.
	SendVerificationEmail(ctx context.Context, email, fullname, link string) error

	// SendPasswordResetEmail delivers the password-reset link.
	SendPasswordResetEmail(ctx context.Context, email, link string) error

	// SendProjectInvitation delivers a project-invitation link.
	SendProjectInvitation(ctx context.Context, email, projectID, link string) error
}

// LogMailer writes mail events to the log instead of sending anything.
// Used in dev and as the default until a real transport is wired in.
type LogMailer struct{}

func (LogMailer) SendVerificationEmail(ctx context.Context, email, fullname, link string) error {
	slogx.FromContext(ctx).Info("mail: verification email",
		"to", email,
		"fullname", fullname,
		"link", link,
	)
	return nil
}

func (LogMailer) SendPasswordResetEmail(ctx context.Context, email, link string) error {
	slogx.FromContext(ctx).Info("mail: password reset email",
		"to", email,
		"link", link,
	)
	return nil
}

func (LogMailer) SendProjectInvitation(ctx context.Context, email, projectID, link string) error {
	slogx.FromContext(ctx).Info("mail: project invitation",
		"to", email,
		"project_id", projectID,
		"link", link,
	)
	return nil
}
