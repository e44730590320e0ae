package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-minimum-32-characters"

func signToken(t *testing.T, claims Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func validClaims() Claims {
	return Claims{
		Email: "operator@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "https://platform.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifier_Verify(t *testing.T) {
	verifier := NewVerifier([]byte(testSecret), "https://platform.example.com")

	t.Run("accepts a valid authenticated token", func(t *testing.T) {
		principal, err := verifier.Verify(signToken(t, validClaims()))
		require.NoError(t, err)
		require.Equal(t, "user-123", principal.Subject)
		require.Equal(t, "operator@example.com", principal.Email)
	})

	t.Run("rejects a token with the wrong role", func(t *testing.T) {
		claims := validClaims()
		claims.Role = "anon"

		_, err := verifier.Verify(signToken(t, claims))
		require.ErrorIs(t, err, ErrRoleNotAllowed)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		claims := validClaims()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

		_, err := verifier.Verify(signToken(t, claims))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a token signed with a different secret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
		signed, err := token.SignedString([]byte("another-secret-key-32-characters-min"))
		require.NoError(t, err)

		_, err = verifier.Verify(signed)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a token from another issuer", func(t *testing.T) {
		claims := validClaims()
		claims.Issuer = "https://evil.example.com"

		_, err := verifier.Verify(signToken(t, claims))
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerifier_Middleware(t *testing.T) {
	verifier := NewVerifier([]byte(testSecret), "")

	handler := verifier.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := PrincipalFromContext(r.Context())
		require.NotNil(t, principal)
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("passes a valid bearer token through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bulkedit", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims()))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bulkedit", nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bulkedit", nil)
		req.Header.Set("Authorization", "Token abc")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
