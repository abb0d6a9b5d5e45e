package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is baked into every token this platform signs.
	Issuer = "tidders"

	// TokenLifetime is the only invalidation path: there is no
	// server-side revocation list, tokens die by expiry or by the
	// client discarding them.
	TokenLifetime = 365 * 24 * time.Hour
)

// ErrUnauthorized is the single outcome for every verification
// failure. Callers never learn whether the signature, the expiry or
// the structure was at fault.
var ErrUnauthorized = errors.New("unauthorized")

// Claims is the signed assertion of identity carried by the client.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a fresh session token for the given account.
func IssueToken(priv *rsa.PrivateKey, userID, username, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
}

// VerifyToken checks signature and expiry against the public key.
// Algorithm-confusion attempts (e.g. a token re-signed with HS256
// using the public key as the secret) are rejected by the method
// allowlist.
func VerifyToken(pub *rsa.PublicKey, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return pub, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}
