package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rvail/docchat/internal/middleware"
	"github.com/rvail/docchat/internal/models"
	"github.com/rvail/docchat/internal/store"
	"github.com/rvail/docchat/internal/ws"
)

type ChatHandler struct {
	Store store.Store
	Hub   *ws.Hub
	Log   *slog.Logger

	// RequireKnownUsers rejects messages whose sender or recipient has
	// no provisioned account.
	RequireKnownUsers bool
}

// GetConversation returns every message exchanged between the two path
// usernames, oldest first unless sort=desc. Only a participant of the
// conversation or an admin may read it.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userA := vars["user1"]
	userB := vars["user2"]

	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if claims.Role != models.RoleAdmin && claims.Username != userA && claims.Username != userB {
		respondError(w, http.StatusForbidden, "not a participant of this conversation")
		return
	}

	ascending := !strings.EqualFold(r.URL.Query().Get("sort"), "desc")

	messages, err := h.Store.FindConversation(userA, userB, ascending)
	if err != nil {
		h.Log.Error("find conversation", "error", err, "userA", userA, "userB", userB)
		respondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	out := make([]messageJSON, 0, len(messages))
	for i := range messages {
		out = append(out, toMessageJSON(&messages[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

// SendMessage persists a new message from form parameters. The server
// stamps the timestamp; any client-supplied time is ignored. Content may
// be empty but the field must be present.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	sender := strings.TrimSpace(r.PostForm.Get("sender"))
	recipient := strings.TrimSpace(r.PostForm.Get("recipient"))
	if sender == "" || recipient == "" || !r.PostForm.Has("content") {
		respondError(w, http.StatusBadRequest, "sender, recipient and content parameters are required")
		return
	}
	content := r.PostForm.Get("content")

	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if claims.Role != models.RoleAdmin && claims.Username != sender {
		respondError(w, http.StatusForbidden, "cannot send messages as another user")
		return
	}

	if h.RequireKnownUsers {
		for _, username := range []string{sender, recipient} {
			if _, err := h.Store.GetUserByUsername(username); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					respondError(w, http.StatusBadRequest, "unknown user: "+username)
					return
				}
				respondError(w, http.StatusInternalServerError, "failed to look up user")
				return
			}
		}
	}

	msg, err := h.Store.CreateMessage(sender, recipient, content, time.Time{})
	if err != nil {
		h.Log.Error("create message", "error", err, "sender", sender)
		respondError(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	if h.Hub != nil {
		h.Hub.NotifyMessage(msg)
	}

	respondJSON(w, http.StatusOK, toMessageJSON(msg))
}
