package auth

import (
	"crypto/rsa"
	"crypto/subtle"
	"net/http"
)

const (
	// IdentityCookie carries the signed session token.
	IdentityCookie = "identity"

	// CSRFCookie must carry the exact same value as IdentityCookie.
	// It is a capability check against cross-origin forgery: browsers
	// attach cookies automatically, but a cross-origin page cannot
	// read them to mirror the value.
	CSRFCookie = "csrf"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is re-derived from the token on every request; nothing is
// kept server side.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

func (id *Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// ResolveIdentity authenticates a request from its two cookies.
// Any missing piece, bad signature, expired token or csrf mismatch
// yields ErrUnauthorized. Pure function of the request, no I/O;
// failure is an ordinary branch, not an exception.
func ResolveIdentity(pub *rsa.PublicKey, r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(IdentityCookie)
	if err != nil {
		return nil, ErrUnauthorized
	}
	claims, err := VerifyToken(pub, cookie.Value)
	if err != nil {
		return nil, ErrUnauthorized
	}
	csrf, err := r.Cookie(CSRFCookie)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(csrf.Value), []byte(cookie.Value)) != 1 {
		return nil, ErrUnauthorized
	}
	return &Identity{UserID: claims.Subject, Username: claims.Username, Role: claims.Role}, nil
}

// ResolveShowAll is the single choke point for the moderation
// override: true only when the caller asked for it AND is an
// authenticated admin.
func ResolveShowAll(pub *rsa.PublicKey, r *http.Request) bool {
	if r.URL.Query().Get("show_all") != "true" {
		return false
	}
	id, err := ResolveIdentity(pub, r)
	if err != nil {
		return false
	}
	return id.IsAdmin()
}
