package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rvail/docchat/internal/auth"
	"github.com/rvail/docchat/internal/email"
	"github.com/rvail/docchat/internal/models"
	"github.com/rvail/docchat/internal/store"
)

type RegisterHandler struct {
	Store store.Store
	Email *email.Sender
	Log   *slog.Logger
}

// List returns every registration, ordered by username.
func (h *RegisterHandler) List(w http.ResponseWriter, r *http.Request) {
	regs, err := h.Store.ListRegistrations()
	if err != nil {
		h.Log.Error("list registrations", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list registrations")
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	respondJSON(w, http.StatusOK, regs)
}

// Create records a new signup request. Anyone may submit one; it stays
// unconfirmed until an administrator approves it.
func (h *RegisterHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	emailAddr := strings.TrimSpace(r.PostForm.Get("email"))
	if username == "" || emailAddr == "" {
		respondError(w, http.StatusBadRequest, "username and email parameters are required")
		return
	}

	reg, err := h.Store.CreateRegistration(username, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "username or email already registered")
			return
		}
		h.Log.Error("create registration", "error", err, "username", username)
		respondError(w, http.StatusInternalServerError, "failed to create registration")
		return
	}

	respondJSON(w, http.StatusCreated, reg)
}

// Confirm approves a registration and provisions the user account in
// one transaction. A random initial password is generated, hashed into
// the account, and mailed to the registrant.
func (h *RegisterHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		respondError(w, http.StatusBadRequest, "registration id is required")
		return
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate password")
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	reg, user, err := h.Store.ConfirmRegistration(id, hash)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "registration not found")
		return
	case errors.Is(err, store.ErrAlreadyConfirmed):
		respondError(w, http.StatusConflict, "registration already confirmed")
		return
	case errors.Is(err, store.ErrConflict):
		h.Log.Error("confirm registration", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "an account with this username already exists")
		return
	case err != nil:
		h.Log.Error("confirm registration", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to confirm registration")
		return
	}

	// The account exists at this point; a delivery failure must not
	// fail the request.
	if h.Email != nil {
		if err := h.Email.SendApprovalEmail(user.Email, user.Username, password); err != nil {
			h.Log.Error("send approval email", "error", err, "username", user.Username)
		}
	}

	respondJSON(w, http.StatusOK, reg)
}

// Delete removes a registration. Unknown ids are a 404 at the HTTP
// layer even though the store delete itself is idempotent.
func (h *RegisterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		respondError(w, http.StatusBadRequest, "registration id is required")
		return
	}

	if _, err := h.Store.GetRegistrationByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "registration not found")
			return
		}
		h.Log.Error("get registration", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to load registration")
		return
	}

	if err := h.Store.DeleteRegistration(id); err != nil {
		h.Log.Error("delete registration", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete registration")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "registration deleted"})
}
