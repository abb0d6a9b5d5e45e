package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cyclopcam/logs"

	"tidder/internal/auth"
)

type Server struct {
	DB   *sql.DB
	Log  logs.Log
	Keys *auth.Keypair

	// ClientURL is the allowed CORS origin. Empty disables the
	// CORS headers entirely (same-origin deployments).
	ClientURL string

	BcryptCost int
}

func New(db *sql.DB, log logs.Log, keys *auth.Keypair, clientURL string, bcryptCost int) *Server {
	return &Server{
		DB:         db,
		Log:        log,
		Keys:       keys,
		ClientURL:  clientURL,
		BcryptCost: bcryptCost,
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pubkey", s.handlePubkey)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/user/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("GET /api/avatar", s.handleAvatars)

	mux.HandleFunc("GET /api/category", s.handleCategories)
	mux.HandleFunc("GET /api/category/{id}", s.handleCategory)
	mux.HandleFunc("GET /api/category/{id}/posts", s.handleCategoryPosts)

	mux.HandleFunc("GET /api/post/popular", s.handlePopularPosts)
	mux.HandleFunc("GET /api/post/me", s.requireAuth(s.handleOwnPosts))
	mux.HandleFunc("GET /api/post/{id}", s.handleGetPost)
	mux.HandleFunc("GET /api/post/{id}/comment", s.handlePostComments)
	mux.HandleFunc("POST /api/post", s.requireAuth(s.handleCreatePost))
	mux.HandleFunc("POST /api/post/{id}/publish", s.requireAuth(s.handlePublishPost))
	mux.HandleFunc("POST /api/post/{id}/comment", s.requireAuth(s.handleCreateComment))
	mux.HandleFunc("POST /api/post/{id}/vote", s.requireAuth(s.handleVotePost))
	mux.HandleFunc("POST /api/comment/{id}/vote", s.requireAuth(s.handleVoteComment))
	mux.HandleFunc("DELETE /api/post/{id}", s.requireAuth(s.handleDeletePost))
	mux.HandleFunc("DELETE /api/comment/{id}", s.requireAuth(s.handleDeleteComment))

	mux.HandleFunc("GET /api/search", s.handleSearch)
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.ClientURL != "" {
		w.Header().Set("Access-Control-Allow-Origin", s.ClientURL)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	s.routes().ServeHTTP(w, r)
}

// requireAuth resolves the caller's identity or terminates the
// request with a generic 401.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *auth.Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.ResolveIdentity(s.Keys.Public, r)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, id)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Errorf("Error encoding response: %v", err)
	}
}

// writeError sends the generic failure envelope. Messages stay
// coarse: why a token failed to verify is never surfaced.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"status": "error", "message": msg})
}

// pathID parses the {id} segment; 0 means unparseable.
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}
