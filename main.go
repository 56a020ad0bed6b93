package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rvail/docchat/internal/auth"
	"github.com/rvail/docchat/internal/config"
	"github.com/rvail/docchat/internal/email"
	"github.com/rvail/docchat/internal/handlers"
	"github.com/rvail/docchat/internal/middleware"
	"github.com/rvail/docchat/internal/store/sqlstore"
	"github.com/rvail/docchat/internal/ws"
)

var addr = flag.String("addr", ":8080", "http service address")

func main() {
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	store, err := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Error("open store", "error", err, "driver", cfg.DBDriver)
		os.Exit(1)
	}
	defer store.Close()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	mailer := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)

	hub := ws.NewHub(log)
	go hub.Run()

	authHandler := &handlers.AuthHandler{Store: store, Tokens: tokens, Log: log}
	chatHandler := &handlers.ChatHandler{Store: store, Hub: hub, Log: log, RequireKnownUsers: cfg.RequireKnownUsers}
	registerHandler := &handlers.RegisterHandler{Store: store, Email: mailer, Log: log}

	authenticate := middleware.Auth(tokens)

	r := mux.NewRouter()
	r.Use(loggingMiddleware(log))

	// Public endpoints
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/register", registerHandler.Create).Methods("POST")

	// Chat endpoints
	r.Handle("/chat/conversation/{user1}/{user2}",
		authenticate(http.HandlerFunc(chatHandler.GetConversation))).Methods("GET")
	r.Handle("/chat/messages",
		authenticate(http.HandlerFunc(chatHandler.SendMessage))).Methods("POST")

	// Registration administration
	r.Handle("/register",
		authenticate(middleware.RequireAdmin(http.HandlerFunc(registerHandler.List)))).Methods("GET")
	r.Handle("/register/{id}/{username}/{email}/confirm",
		authenticate(middleware.RequireAdmin(http.HandlerFunc(registerHandler.Confirm)))).Methods("PUT")
	r.Handle("/register/{id}",
		authenticate(middleware.RequireAdmin(http.HandlerFunc(registerHandler.Delete)))).Methods("DELETE")

	// Live message feed
	r.Handle("/ws", authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFrom(r.Context())
		ws.ServeWs(hub, w, r, claims.Username)
	}))).Methods("GET")

	log.Info("starting server", "addr", *addr, "driver", cfg.DBDriver)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loggingMiddleware(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}
