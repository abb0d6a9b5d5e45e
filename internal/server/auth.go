package server

import (
	"net/http"
	"regexp"
	"strings"

	"tidder/internal/auth"
	"tidder/internal/models"
)

var (
	reUsername = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	// Password must carry at least one of each class.
	rePasswordClasses = []*regexp.Regexp{
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`\d`),
		regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`),
	}
)

func validPassword(pw string) bool {
	if len(pw) < 8 || len(pw) > 64 {
		return false
	}
	for _, re := range rePasswordClasses {
		if !re.MatchString(pw) {
			return false
		}
	}
	return true
}

func (s *Server) handlePubkey(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write(s.Keys.PublicPEM)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if !reUsername.MatchString(username) {
		s.writeError(w, http.StatusBadRequest, "Username can only contain letters, numbers and underscores")
		return
	}
	if !validPassword(password) {
		s.writeError(w, http.StatusBadRequest,
			"Password must be between 8 and 64 characters long and contain at least one uppercase letter, one lowercase letter, one digit and one special character")
		return
	}

	hash, err := auth.HashPassword(password, s.BcryptCost)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	userID, err := models.CreateUser(s.DB, username, hash, auth.RoleUser)
	if err == models.ErrDuplicateUsername {
		s.writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	if err != nil {
		s.Log.Errorf("Error saving user: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	token, err := auth.IssueToken(s.Keys.Private, userID, username, auth.RoleUser)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.setSessionCookies(w, token)
	s.writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "user_id": userID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := models.GetUserByUsername(s.DB, username)
	if err != nil || !auth.VerifyPassword(password, user.PasswordHash) {
		// One outcome for unknown user and wrong password.
		s.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := auth.IssueToken(s.Keys.Private, user.ID, user.Username, user.Role)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.setSessionCookies(w, token)
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "username": user.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookies(w)
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	user, err := models.GetUserByID(s.DB, id.UserID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{
		"id":         user.ID,
		"username":   user.Username,
		"avatar_url": user.AvatarURL,
	}})
}

func (s *Server) handleAvatars(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("user_ids")
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, "Missing user_ids parameter")
		return
	}
	urls, err := models.ListAvatars(s.DB, strings.Split(raw, ","))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	out := make([]map[string]string, 0, len(urls))
	for id, url := range urls {
		out = append(out, map[string]string{"user_id": id, "avatar_url": url})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"avatars": out})
}

// setSessionCookies sets the session token and its anti-forgery twin.
// The pair must match byte-for-byte for a request to authenticate;
// the csrf cookie is left readable so the client can re-send it.
func (s *Server) setSessionCookies(w http.ResponseWriter, token string) {
	maxAge := int(auth.TokenLifetime.Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     auth.IdentityCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CSRFCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.IdentityCookie, auth.CSRFCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Secure:   true,
			HttpOnly: name == auth.IdentityCookie,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
