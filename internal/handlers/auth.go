package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rvail/docchat/internal/auth"
	"github.com/rvail/docchat/internal/store"
)

type AuthHandler struct {
	Store  store.Store
	Tokens *auth.TokenIssuer
	Log    *slog.Logger
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login checks credentials against the provisioned user accounts and
// issues a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		respondError(w, http.StatusBadRequest, "username and password parameters are required")
		return
	}

	user, err := h.Store.GetUserByUsername(username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.Log.Error("get user", "error", err, "username", username)
		}
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !auth.ComparePassword(user.PasswordHash, password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.Tokens.Generate(user.Username, user.Role)
	if err != nil {
		h.Log.Error("generate token", "error", err, "username", username)
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token:    token,
		Username: user.Username,
		Role:     user.Role,
	})
}
