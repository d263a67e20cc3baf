package http

import (
	"net/http"

	"github.com/sprintdeck/sprintdeck/internal/auth/service"
	"github.com/sprintdeck/sprintdeck/pkg/httpx"
)

// VerifyHandler covers email verification and verification re-send.
type VerifyHandler struct {
	Sessions *service.SessionService
}

func (h *VerifyHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.VerifyEmail(r.Context(), r.PathValue("token")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *VerifyHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Authentication required")
		return
	}

	if err := h.Sessions.ResendVerification(r.Context(), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
