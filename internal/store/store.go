package store

import (
	"context"
	"errors"

	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/internal/types/challenge"
	"fitChallengeAPI/internal/types/post"
	"fitChallengeAPI/internal/user"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type ChallengeStore interface {
	CreateChallenge(ctx context.Context, c *challenge.Challenge) error
	ListChallenges(ctx context.Context) ([]*challenge.Challenge, error)
	GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
	ListChallengesForUser(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error)
}

// LedgerStore persists user_challenges. When several ledgers exist for
// one (user, challenge) pair, reads and day updates target the earliest.
type LedgerStore interface {
	// InsertLedger inserts without looking for an existing ledger.
	InsertLedger(ctx context.Context, l *challenge.UserChallenge) error
	// InsertLedgerIfAbsent returns ErrConflict when the pair already has one.
	InsertLedgerIfAbsent(ctx context.Context, l *challenge.UserChallenge) error
	// UpsertLedgerDays replaces days on every ledger of the pair, or
	// inserts l when there is none. It returns the ledger now stored.
	UpsertLedgerDays(ctx context.Context, l *challenge.UserChallenge) (*challenge.UserChallenge, error)
	GetLedger(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error)
	// SetDay writes days[date] = value. With requireExisting, a date that
	// is not already a key is reported as ErrNotFound.
	SetDay(ctx context.Context, userID, challengeID uuid.UUID, date string, value float64, requireExisting bool) error
	CountLedgers(ctx context.Context, userID, challengeID uuid.UUID) (int, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error
	// LinkClerkID attaches a Clerk identity to an existing account. It
	// returns ErrConflict when another account already holds clerkID.
	LinkClerkID(ctx context.Context, id uuid.UUID, clerkID string) error
	UpdateBody(ctx context.Context, id uuid.UUID, age int, weight, height float64) (*user.User, error)
	AddDeviceToken(ctx context.Context, t *notification.DeviceToken) error
	ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error)
}

type PostStore interface {
	ListPosts(ctx context.Context) ([]*post.Post, error)
	CreatePost(ctx context.Context, p *post.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*post.Post, error)
	// LikePost returns ErrNotFound for an unknown post and ErrConflict
	// when the user already liked it.
	LikePost(ctx context.Context, postID, userID uuid.UUID) error
}

type Store interface {
	ChallengeStore
	LedgerStore
	UserStore
	PostStore
	Ping(ctx context.Context) error
	Close()
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)
