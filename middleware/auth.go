package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"fitChallengeAPI/internal/auth"
	"fitChallengeAPI/internal/user"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/google/uuid"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AuthMiddleware requires a bearer token and stores the verified user id
// in the request context.
func AuthMiddleware(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				authRejections.WithLabelValues("missing_header").Inc()
				respondWithError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || token == "" {
				authRejections.WithLabelValues("bad_format").Inc()
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
				return
			}

			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Printf("Token verification failed: %v", err)
				authRejections.WithLabelValues("invalid_token").Inc()
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user id from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// WithUserID is used by tests and internal callers that bypass the
// middleware.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

type clerkUserLookup interface {
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
}

// ClerkVerifier checks session tokens with the Clerk SDK and maps the
// subject to the local user. clerk.SetKey must have been called.
type ClerkVerifier struct {
	users clerkUserLookup
}

func NewClerkVerifier(users clerkUserLookup) *ClerkVerifier {
	return &ClerkVerifier{users: users}
}

func (v *ClerkVerifier) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{
		Token: token,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	u, err := v.users.GetUserByClerkID(ctx, claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: no user for clerk id %s: %v", auth.ErrInvalidToken, claims.Subject, err)
	}
	return u.ID, nil
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
