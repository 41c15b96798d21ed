package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitChallengeAPI/internal/auth"
	"fitChallengeAPI/internal/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUserID(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		require.True(t, ok)
		w.Write([]byte(id.String()))
	})
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	tokens := auth.NewTokens("secret", clock.Real())
	userID := uuid.New()
	raw, err := tokens.Issue(userID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rr := httptest.NewRecorder()

	AuthMiddleware(tokens)(echoUserID(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, userID.String(), rr.Body.String())
}

func TestAuthMiddlewareRejects(t *testing.T) {
	tokens := auth.NewTokens("secret", clock.Real())

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "missing header", header: "", want: "Authorization header required"},
		{name: "no bearer prefix", header: "Token abc", want: "Invalid authorization format. Use 'Bearer <token>'"},
		{name: "garbage token", header: "Bearer abc", want: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not run")
			})).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, rr.Body.String())
		})
	}
}

func TestClerkVerifierRejectsGarbage(t *testing.T) {
	v := NewClerkVerifier(nil)
	_, err := v.Verify(context.Background(), "not-a-jwt")
	assert.True(t, errors.Is(err, auth.ErrInvalidToken))
}
