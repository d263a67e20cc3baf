package http

import (
	"net/http"
	"time"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
	"github.com/sprintdeck/sprintdeck/internal/auth/service"
	"github.com/sprintdeck/sprintdeck/pkg/httpx"
)

type InviteMintHandler struct {
	Invites *service.InviteService
	Authz   *service.AuthzService
}

type mintInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type mintInviteResponse struct {
	InvitationID string `json:"invitation_id"`
	ProjectID    string `json:"project_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	ExpiresAt    string `json:"expires_at"`
}

// ServeHTTP mints a project invitation. Only project admins (or
// admins, via the hierarchy) may invite.
func (h *InviteMintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := r.PathValue("projectID")
	userID := httpx.UserIDFromContext(ctx)

	if err := h.Authz.RequireProjectRole(ctx, projectID, userID, domain.RoleProjectAdmin); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req mintInviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	inv, err := h.Invites.MintInvite(ctx, projectID, userID, req.Email, domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, mintInviteResponse{
		InvitationID: inv.ID,
		ProjectID:    inv.ProjectID,
		Email:        inv.Email,
		Role:         string(inv.Role),
		ExpiresAt:    inv.ExpiresAt.Format(time.RFC3339),
	})
}
