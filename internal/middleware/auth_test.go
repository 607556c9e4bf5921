package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecochamps/internal/config"
	"ecochamps/internal/contextutils"
	"ecochamps/internal/response"
)

func newTestIssuer(expiry time.Duration) *TokenIssuer {
	return NewTokenIssuer(&config.AuthConfig{
		JWTSecret: "test-secret-for-middleware",
		JWTExpiry: expiry,
	}, zap.NewNop())
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(time.Hour)

	token, err := issuer.GenerateToken(42, "amina@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "amina@example.com", claims.Email)
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := newTestIssuer(-time.Minute)

	token, err := issuer.GenerateToken(42, "amina@example.com")
	require.NoError(t, err)

	_, err = issuer.ParseToken(token)
	assert.Error(t, err)
}

func TestTokenSignedWithDifferentSecretRejected(t *testing.T) {
	token, err := newTestIssuer(time.Hour).GenerateToken(42, "amina@example.com")
	require.NoError(t, err)

	other := NewTokenIssuer(&config.AuthConfig{
		JWTSecret: "a-completely-different-secret",
		JWTExpiry: time.Hour,
	}, zap.NewNop())

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	issuer := newTestIssuer(time.Hour)
	builder := response.NewBuilder(zap.NewNop())

	var gotUserID int64
	handler := RequireAuth(issuer, builder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = contextutils.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc123")
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes identity through", func(t *testing.T) {
		token, err := issuer.GenerateToken(7, "amina@example.com")
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(7), gotUserID)
	})
}
