package http

import (
	"net/http"

	"github.com/sprintdeck/sprintdeck/internal/auth/service"
	"github.com/sprintdeck/sprintdeck/pkg/httpx"
)

type InviteAcceptHandler struct {
	Invites *service.InviteService
}

// ServeHTTP redeems an invitation token for the authenticated user.
func (h *InviteAcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Authentication required")
		return
	}

	membership, err := h.Invites.AcceptInvite(r.Context(), r.PathValue("token"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, membership)
}
