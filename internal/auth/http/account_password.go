package http

import (
	"net/http"

	"github.com/sprintdeck/sprintdeck/internal/auth/service"
	"github.com/sprintdeck/sprintdeck/pkg/httpx"
)

// PasswordHandler covers the three password flows: authenticated
// change, anonymous reset request, and token-bearing reset.
type PasswordHandler struct {
	Sessions *service.SessionService
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *PasswordHandler) HandleChange(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Authentication required")
		return
	}

	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	if err := h.Sessions.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgot accepts a reset request. The response is 202 whether or
// not the address belongs to an account.
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	if err := h.Sessions.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type resetPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	if err := h.Sessions.ResetPassword(r.Context(), token, req.NewPassword, req.ConfirmPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
