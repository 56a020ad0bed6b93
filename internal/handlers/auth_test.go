package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rvail/docchat/internal/auth"
	"github.com/rvail/docchat/internal/models"
	"github.com/rvail/docchat/internal/store/sqlstore"
)

func loginRequest(username, password string) *http.Request {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLogin(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &AuthHandler{Store: store, Tokens: testIssuer, Log: discardLogger()}

	hash, _ := auth.HashPassword("password123")
	store.CreateUser(&models.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
	})

	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, loginRequest("alice", "password123"))

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var resp loginResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Token == "" {
		t.Fatal("Expected a token in the response")
	}
	claims, err := testIssuer.Validate(resp.Token)
	if err != nil {
		t.Fatalf("Issued token failed validation: %v", err)
	}
	if claims.Username != "alice" || claims.Role != models.RoleUser {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &AuthHandler{Store: store, Tokens: testIssuer, Log: discardLogger()}

	hash, _ := auth.HashPassword("password123")
	store.CreateUser(&models.User{
		ID:           uuid.NewString(),
		Username:     "alice",
		PasswordHash: hash,
		Email:        "alice@example.com",
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
	})

	// Wrong password
	rr := httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, loginRequest("alice", "nope"))
	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusUnauthorized)
	}

	// Unknown user
	rr = httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, loginRequest("nobody", "password123"))
	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusUnauthorized)
	}

	// Blank input
	rr = httptest.NewRecorder()
	http.HandlerFunc(handler.Login).ServeHTTP(rr, loginRequest("", ""))
	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}
