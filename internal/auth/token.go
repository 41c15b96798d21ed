package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitChallengeAPI/internal/clock"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TokenTTL = 72 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user id under the "userId" key, which is what the
// mobile client decodes.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Verifier turns a bearer token into an internal user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// Tokens issues and verifies HS256 tokens signed with a shared secret.
type Tokens struct {
	secret []byte
	clock  clock.Clock
}

func NewTokens(secret string, clk clock.Clock) *Tokens {
	return &Tokens{secret: []byte(secret), clock: clk}
}

func (t *Tokens) Issue(userID uuid.UUID) (string, error) {
	now := t.clock.Now()
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (t *Tokens) Verify(ctx context.Context, raw string) (uuid.UUID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad userId claim", ErrInvalidToken)
	}
	return id, nil
}
