package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func testKeys(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return testKey
}

func TestTokenRoundTrip(t *testing.T) {
	key := testKeys(t)
	token, err := IssueToken(key, "user-1", "alice", RoleUser)
	require.NoError(t, err)

	claims, err := VerifyToken(&key.PublicKey, token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, RoleUser, claims.Role)
	require.Equal(t, Issuer, claims.Issuer)

	// exp = iat + lifetime, to the second
	require.WithinDuration(t,
		claims.IssuedAt.Add(TokenLifetime), claims.ExpiresAt.Time, time.Second)
}

func TestVerifyExpiredToken(t *testing.T) {
	key := testKeys(t)
	claims := Claims{
		Username: "alice",
		Role:     RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	_, err = VerifyToken(&key.PublicKey, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyWrongKey(t *testing.T) {
	key := testKeys(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	token, err := IssueToken(other, "user-1", "alice", RoleUser)
	require.NoError(t, err)

	_, err = VerifyToken(&key.PublicKey, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

// A classic algorithm-confusion forgery: sign with HS256 using some
// shared secret and hope the verifier accepts whatever alg the header
// declares.
func TestVerifyRejectsHS256(t *testing.T) {
	key := testKeys(t)
	claims := Claims{
		Username:         "mallory",
		Role:             RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-666", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("guessed-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(&key.PublicKey, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyGarbage(t *testing.T) {
	key := testKeys(t)
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := VerifyToken(&key.PublicKey, token)
		require.ErrorIs(t, err, ErrUnauthorized, "token %q", token)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	key := testKeys(t)
	token, err := IssueToken(key, "user-1", "alice", RoleUser)
	require.NoError(t, err)

	tampered := []byte(token)
	tampered[len(tampered)/2] ^= 0x01
	_, err = VerifyToken(&key.PublicKey, string(tampered))
	require.ErrorIs(t, err, ErrUnauthorized)
}
