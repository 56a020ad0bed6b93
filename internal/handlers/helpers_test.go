package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rvail/docchat/internal/middleware"
)

// Test routers mirror the wiring in main.go.

func newChatRouter(h *ChatHandler) *mux.Router {
	authenticate := middleware.Auth(testIssuer)
	r := mux.NewRouter()
	r.Handle("/chat/conversation/{user1}/{user2}",
		authenticate(http.HandlerFunc(h.GetConversation))).Methods("GET")
	r.Handle("/chat/messages",
		authenticate(http.HandlerFunc(h.SendMessage))).Methods("POST")
	return r
}

func newRegisterRouter(h *RegisterHandler) *mux.Router {
	authenticate := middleware.Auth(testIssuer)
	r := mux.NewRouter()
	r.HandleFunc("/register", h.Create).Methods("POST")
	r.Handle("/register",
		authenticate(middleware.RequireAdmin(http.HandlerFunc(h.List)))).Methods("GET")
	r.Handle("/register/{id}/{username}/{email}/confirm",
		authenticate(middleware.RequireAdmin(http.HandlerFunc(h.Confirm)))).Methods("PUT")
	r.Handle("/register/{id}",
		authenticate(middleware.RequireAdmin(http.HandlerFunc(h.Delete)))).Methods("DELETE")
	return r
}
