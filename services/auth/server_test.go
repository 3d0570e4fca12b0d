package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/medchat-io/medchat/pkg/api"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSigningSecret = "test-signing-secret"

func signTestToken(t *testing.T, secret string, claims *userClaim) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newTestServer() *Server {
	return &Server{
		logger:     zap.NewNop(),
		signingKey: []byte(testSigningSecret),
	}
}

func TestVerifyValidToken(t *testing.T) {
	require := require.New(t)

	s := newTestServer()
	token := signTestToken(t, testSigningSecret, &userClaim{
		Role:  api.EditorRole,
		Email: "user@example.com",
		StandardClaims: jwt.StandardClaims{
			Subject:   "local|user@example.com",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})

	claims, err := s.Verify(context.Background(), "Bearer "+token)
	require.NoError(err)
	require.Equal(api.EditorRole, claims.Role)
	require.Equal("user@example.com", claims.Email)
	require.Equal("local|user@example.com", claims.Subject)
}

func TestVerifyForgedSignature(t *testing.T) {
	require := require.New(t)

	s := newTestServer()
	token := signTestToken(t, "some-other-secret", &userClaim{
		Email: "user@example.com",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})

	_, err := s.Verify(context.Background(), "Bearer "+token)
	require.Error(err)
}

func TestVerifyExpiredToken(t *testing.T) {
	require := require.New(t)

	s := newTestServer()
	token := signTestToken(t, testSigningSecret, &userClaim{
		Email: "user@example.com",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		},
	})

	_, err := s.Verify(context.Background(), "Bearer "+token)
	require.Error(err)
}

func TestVerifyMalformedToken(t *testing.T) {
	require := require.New(t)

	s := newTestServer()

	for _, authHeader := range []string{
		"",
		"Bearer ",
		"Bearer not-a-jwt",
		"Basic dXNlcjpwYXNz",
	} {
		_, err := s.Verify(context.Background(), authHeader)
		require.Error(err, "auth header %q must not verify", authHeader)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	require := require.New(t)

	hash, err := hashPassword("s3cret")
	require.NoError(err)
	require.True(verifyPassword(hash, "s3cret"))
	require.False(verifyPassword(hash, "wrong"))
}
