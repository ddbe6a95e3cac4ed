package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lsmith090/CIPP-sub000/internal/navigation"
	"github.com/lsmith090/CIPP-sub000/internal/session"
)

// Server exposes the reconciled auth state and the filtered navigation
// tree over HTTP. Handlers are read-only consumers of the store snapshot;
// no request ever reaches into the reconciler or the pollers.
type Server struct {
	store *session.Store
	menu  *navigation.Menu
}

// NewRouter builds the chi router for the gateway surface.
func NewRouter(store *session.Store, menu *navigation.Menu, allowedOrigins []string) http.Handler {
	s := &Server{store: store, menu: menu}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{http.MethodGet},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/authstate", s.handleAuthState)
	r.Get("/api/navigation", s.handleNavigation)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authStateResponse is the wire form of AuthState. Roles and permissions
// are always arrays on the wire, never null.
type authStateResponse struct {
	Phase       session.Phase `json:"phase"`
	Roles       []string      `json:"roles"`
	Permissions []string      `json:"permissions"`
	IsAdmin     bool          `json:"isAdmin"`
}

func (s *Server) handleAuthState(w http.ResponseWriter, r *http.Request) {
	state := s.store.Current()

	resp := authStateResponse{
		Phase:       state.Phase,
		Roles:       make([]string, 0, len(state.Roles)),
		Permissions: make([]string, 0, len(state.Permissions)),
		IsAdmin:     state.IsAdmin,
	}
	for _, role := range state.Roles {
		resp.Roles = append(resp.Roles, string(role))
	}
	for _, p := range state.Permissions {
		resp.Permissions = append(resp.Permissions, string(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

type navigationResponse struct {
	Version int                   `json:"version"`
	Phase   session.Phase         `json:"phase"`
	Items   []navigation.MenuNode `json:"items"`
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	state := s.store.Current()
	writeJSON(w, http.StatusOK, navigationResponse{
		Version: s.menu.Version,
		Phase:   state.Phase,
		Items:   navigation.Filter(s.menu.Items, state),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}
