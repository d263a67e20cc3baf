package http

import (
	"net/http"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
	"github.com/sprintdeck/sprintdeck/internal/auth/service"
	"github.com/sprintdeck/sprintdeck/pkg/httpx"
)

type MembershipsHandler struct {
	Authz *service.AuthzService
}

type membersResponse struct {
	ProjectID string              `json:"project_id"`
	Members   []domain.Membership `json:"members"`
}

// HandleList returns the members of a project. Any member may look at
// the roster.
func (h *MembershipsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := r.PathValue("projectID")
	userID := httpx.UserIDFromContext(ctx)

	if err := h.Authz.RequireProjectRole(ctx, projectID, userID, domain.RoleMember); err != nil {
		writeServiceError(w, r, err)
		return
	}

	members, err := h.Authz.ProjectMembers(ctx, projectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, membersResponse{ProjectID: projectID, Members: members})
}
