package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Kairiskai/MemoAI/internal/provider"
)

// Config holds the HTTP-facing settings.
type Config struct {
	Port           int
	APIToken       string
	PublicURL      string
	MaxUploadBytes int64
}

type Server struct {
	router    *chi.Mux
	cfg       Config
	convs     Conversations
	providers *provider.Registry
}

func NewServer(cfg Config, convs Conversations, providers *provider.Registry) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	s := &Server{
		router:    router,
		cfg:       cfg,
		convs:     convs,
		providers: providers,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/memoai/status", s.status)
	router.Get("/api/v1/providers", s.listProviders)

	router.Route("/api/conversation", func(r chi.Router) {
		r.With(BearerAuthMiddleware(cfg.APIToken)).Post("/", s.uploadConversation)
		r.Get("/{id}", s.getConversation)
	})
	router.Get("/c/{id}", s.redirectConversation)

	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "memoai",
		"status":  "ok",
	})
}

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"providers": s.providers.Names()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
