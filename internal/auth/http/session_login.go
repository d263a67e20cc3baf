package http

import (
	"net/http"

	"github.com/sprintdeck/sprintdeck/internal/auth/domain"
	"github.com/sprintdeck/sprintdeck/internal/auth/service"
	"github.com/sprintdeck/sprintdeck/pkg/httpx"
)

type LoginHandler struct {
	Sessions *service.SessionService
}

type loginRequest struct {
	// Identifier is an email address or a username.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	domain.TokenPair
	User domain.PublicUser `json:"user"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	pair, user, err := h.Sessions.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{TokenPair: pair, User: user})
}
