package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rvail/docchat/internal/auth"
	"github.com/rvail/docchat/internal/middleware"
	"github.com/rvail/docchat/internal/models"
	"github.com/rvail/docchat/internal/store/sqlstore"
)

var testIssuer = auth.NewTokenIssuer("test-secret", time.Hour)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authedFormRequest(t *testing.T, method, target, username, role string, form url.Values) *http.Request {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	token, err := testIssuer.Generate(username, role)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestSendMessage(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &ChatHandler{Store: store, Log: discardLogger()}

	form := url.Values{}
	form.Set("sender", "alice")
	form.Set("recipient", "bob")
	form.Set("content", "hello bob")

	req := authedFormRequest(t, "POST", "/chat/messages", "alice", "user", form)
	rr := httptest.NewRecorder()
	middleware.Auth(testIssuer)(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["id"] == "" {
		t.Error("Expected non-empty id in response")
	}
	if resp["senderUsername"] != "alice" || resp["recipientUsername"] != "bob" {
		t.Errorf("Unexpected endpoints in response: %v", resp)
	}
	if _, err := time.Parse("2006-01-02T15:04:05.000Z", resp["timestamp"]); err != nil {
		t.Errorf("Expected ISO-8601 millisecond timestamp, got %q", resp["timestamp"])
	}

	// Verify message was persisted
	messages, _ := store.FindConversation("alice", "bob", true)
	if len(messages) != 1 {
		t.Errorf("Expected 1 stored message, got %d", len(messages))
	}
}

func TestSendMessageBlankSender(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &ChatHandler{Store: store, Log: discardLogger()}

	form := url.Values{}
	form.Set("sender", "  ")
	form.Set("recipient", "bob")
	form.Set("content", "hello")

	req := authedFormRequest(t, "POST", "/chat/messages", "alice", "user", form)
	rr := httptest.NewRecorder()
	middleware.Auth(testIssuer)(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	// No record created
	messages, _ := store.FindConversation("alice", "bob", true)
	if len(messages) != 0 {
		t.Errorf("Expected no stored messages, got %d", len(messages))
	}
}

func TestSendMessageMissingContentField(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &ChatHandler{Store: store, Log: discardLogger()}

	form := url.Values{}
	form.Set("sender", "alice")
	form.Set("recipient", "bob")

	req := authedFormRequest(t, "POST", "/chat/messages", "alice", "user", form)
	rr := httptest.NewRecorder()
	middleware.Auth(testIssuer)(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
}

func TestSendMessageEmptyContentAllowed(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &ChatHandler{Store: store, Log: discardLogger()}

	form := url.Values{}
	form.Set("sender", "alice")
	form.Set("recipient", "bob")
	form.Set("content", "")

	req := authedFormRequest(t, "POST", "/chat/messages", "alice", "user", form)
	rr := httptest.NewRecorder()
	middleware.Auth(testIssuer)(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
}

func TestSendMessageAsAnotherUser(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &ChatHandler{Store: store, Log: discardLogger()}

	form := url.Values{}
	form.Set("sender", "bob")
	form.Set("recipient", "carol")
	form.Set("content", "spoofed")

	req := authedFormRequest(t, "POST", "/chat/messages", "alice", "user", form)
	rr := httptest.NewRecorder()
	middleware.Auth(testIssuer)(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusForbidden {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusForbidden)
	}

	// Admins may send on behalf of anyone.
	req = authedFormRequest(t, "POST", "/chat/messages", "root", "admin", form)
	rr = httptest.NewRecorder()
	middleware.Auth(testIssuer)(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code for admin: got %v want %v", status, http.StatusOK)
	}
}

func TestSendMessageRequireKnownUsers(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &ChatHandler{Store: store, Log: discardLogger(), RequireKnownUsers: true}

	hash, _ := auth.HashPassword("pass")
	for _, username := range []string{"alice", "bob"} {
		store.CreateUser(&models.User{
			ID:           uuid.NewString(),
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: hash,
			Role:         models.RoleUser,
			CreatedAt:    time.Now().UTC(),
		})
	}

	// Unknown recipient is rejected and nothing is stored.
	form := url.Values{}
	form.Set("sender", "alice")
	form.Set("recipient", "ghost")
	form.Set("content", "anyone there?")

	req := authedFormRequest(t, "POST", "/chat/messages", "alice", "user", form)
	rr := httptest.NewRecorder()
	middleware.Auth(testIssuer)(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}
	messages, _ := store.FindConversation("alice", "ghost", true)
	if len(messages) != 0 {
		t.Errorf("Expected no stored messages, got %d", len(messages))
	}

	// Unknown sender is rejected the same way.
	form.Set("sender", "ghost")
	form.Set("recipient", "bob")
	req = authedFormRequest(t, "POST", "/chat/messages", "ghost", "user", form)
	rr = httptest.NewRecorder()
	middleware.Auth(testIssuer)(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	// Both endpoints provisioned goes through.
	form.Set("sender", "alice")
	form.Set("recipient", "bob")
	req = authedFormRequest(t, "POST", "/chat/messages", "alice", "user", form)
	rr = httptest.NewRecorder()
	middleware.Auth(testIssuer)(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}
	messages, _ = store.FindConversation("alice", "bob", true)
	if len(messages) != 1 {
		t.Errorf("Expected 1 stored message, got %d", len(messages))
	}
}

func TestGetConversation(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &ChatHandler{Store: store, Log: discardLogger()}

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store.CreateMessage("alice", "bob", "one", base)
	store.CreateMessage("bob", "alice", "two", base.Add(time.Minute))
	store.CreateMessage("alice", "carol", "other", base.Add(2*time.Minute))

	router := newChatRouter(handler)

	req := authedFormRequest(t, "GET", "/chat/conversation/alice/bob", "alice", "user", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var messages []map[string]string
	json.NewDecoder(rr.Body).Decode(&messages)
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0]["content"] != "one" || messages[1]["content"] != "two" {
		t.Errorf("Expected ascending order, got %v", messages)
	}

	// sort=desc reverses
	req = authedFormRequest(t, "GET", "/chat/conversation/alice/bob?sort=desc", "bob", "user", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	json.NewDecoder(rr.Body).Decode(&messages)
	if messages[0]["content"] != "two" {
		t.Errorf("Expected descending order, got %v", messages)
	}
}

func TestGetConversationAccessControl(t *testing.T) {
	store, _ := sqlstore.New("sqlite3", ":memory:")
	handler := &ChatHandler{Store: store, Log: discardLogger()}
	router := newChatRouter(handler)

	// A third party may not read the conversation.
	req := authedFormRequest(t, "GET", "/chat/conversation/alice/bob", "carol", "user", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if status := rr.Code; status != http.StatusForbidden {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusForbidden)
	}

	// Admins may.
	req = authedFormRequest(t, "GET", "/chat/conversation/alice/bob", "root", "admin", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code for admin: got %v want %v", status, http.StatusOK)
	}

	// No token at all.
	req = httptest.NewRequest("GET", "/chat/conversation/alice/bob", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code without token: got %v want %v", status, http.StatusUnauthorized)
	}
}
