package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/internal/types/challenge"
	"fitChallengeAPI/internal/types/post"
	"fitChallengeAPI/internal/user"

	"github.com/google/uuid"
)

// Memory is an in-process Store for local runs and tests. Every method
// holds one mutex, so each call is atomic the way a single statement is.
type Memory struct {
	mu         sync.Mutex
	challenges []*challenge.Challenge
	ledgers    []*challenge.UserChallenge
	users      map[uuid.UUID]*user.User
	posts      []*post.Post
	devices    map[uuid.UUID][]notification.DeviceToken
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[uuid.UUID]*user.User),
		devices: make(map[uuid.UUID][]notification.DeviceToken),
	}
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() {}

func cloneChallenge(c *challenge.Challenge) *challenge.Challenge {
	out := *c
	return &out
}

func cloneLedger(l *challenge.UserChallenge) *challenge.UserChallenge {
	out := *l
	out.Days = l.Days.Clone()
	return &out
}

func cloneUser(u *user.User) *user.User {
	out := *u
	return &out
}

func clonePost(p *post.Post) *post.Post {
	out := *p
	out.Likes = append([]uuid.UUID{}, p.Likes...)
	return &out
}

func (m *Memory) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges = append(m.challenges, cloneChallenge(c))
	return nil
}

func (m *Memory) ListChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*challenge.Challenge, 0, len(m.challenges))
	for _, c := range m.challenges {
		out = append(out, cloneChallenge(c))
	}
	return out, nil
}

func (m *Memory) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.challenges {
		if c.ID == id {
			return cloneChallenge(c), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListChallengesForUser(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	joined := make(map[uuid.UUID]bool)
	for _, l := range m.ledgers {
		if l.UserID == userID {
			joined[l.ChallengeID] = true
		}
	}

	out := []*challenge.Challenge{}
	for _, c := range m.challenges {
		if joined[c.ID] {
			out = append(out, cloneChallenge(c))
		}
	}
	return out, nil
}

// first returns the pair's ledger with the earliest JoinedAt. Ties go to
// the one inserted first since ledgers are kept in insertion order.
// Callers hold m.mu.
func (m *Memory) first(userID, challengeID uuid.UUID) *challenge.UserChallenge {
	var found *challenge.UserChallenge
	for _, l := range m.ledgers {
		if l.UserID != userID || l.ChallengeID != challengeID {
			continue
		}
		if found == nil || l.JoinedAt.Before(found.JoinedAt) {
			found = l
		}
	}
	return found
}

func (m *Memory) InsertLedger(ctx context.Context, l *challenge.UserChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgers = append(m.ledgers, cloneLedger(l))
	return nil
}

func (m *Memory) InsertLedgerIfAbsent(ctx context.Context, l *challenge.UserChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.first(l.UserID, l.ChallengeID) != nil {
		return ErrConflict
	}
	m.ledgers = append(m.ledgers, cloneLedger(l))
	return nil
}

func (m *Memory) UpsertLedgerDays(ctx context.Context, l *challenge.UserChallenge) (*challenge.UserChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	updated := false
	for _, existing := range m.ledgers {
		if existing.UserID == l.UserID && existing.ChallengeID == l.ChallengeID {
			existing.Days = l.Days.Clone()
			existing.UpdatedAt = l.UpdatedAt
			updated = true
		}
	}
	if !updated {
		m.ledgers = append(m.ledgers, cloneLedger(l))
	}
	return cloneLedger(m.first(l.UserID, l.ChallengeID)), nil
}

func (m *Memory) GetLedger(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.first(userID, challengeID)
	if l == nil {
		return nil, ErrNotFound
	}
	return cloneLedger(l), nil
}

func (m *Memory) SetDay(ctx context.Context, userID, challengeID uuid.UUID, date string, value float64, requireExisting bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.first(userID, challengeID)
	if l == nil {
		return ErrNotFound
	}
	if requireExisting && !l.Days.Has(date) {
		return ErrNotFound
	}
	if l.Days == nil {
		l.Days = challenge.Days{}
	}
	l.Days[date] = value
	l.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) CountLedgers(ctx context.Context, userID, challengeID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, l := range m.ledgers {
		if l.UserID == userID && l.ChallengeID == challengeID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CreateUser(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrConflict
		}
		if u.ClerkID != nil && existing.ClerkID != nil && *existing.ClerkID == *u.ClerkID {
			return ErrConflict
		}
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ClerkID != nil && *u.ClerkID == clerkID {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Avatar = avatar
	u.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) LinkClerkID(ctx context.Context, id uuid.UUID, clerkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, other := range m.users {
		if other.ID != id && other.ClerkID != nil && *other.ClerkID == clerkID {
			return ErrConflict
		}
	}
	u.ClerkID = &clerkID
	u.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) UpdateBody(ctx context.Context, id uuid.UUID, age int, weight, height float64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Age = age
	u.Weight = weight
	u.Height = height
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (m *Memory) AddDeviceToken(ctx context.Context, t *notification.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := m.devices[t.UserID]
	for i := range tokens {
		if tokens[i].Token == t.Token {
			tokens[i].Platform = t.Platform
			return nil
		}
	}
	m.devices[t.UserID] = append(tokens, *t)
	return nil
}

func (m *Memory) ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.DeviceToken(nil), m.devices[userID]...), nil
}

func (m *Memory) ListPosts(ctx context.Context) ([]*post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*post.Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, clonePost(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (m *Memory) CreatePost(ctx context.Context, p *post.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, clonePost(p))
	return nil
}

func (m *Memory) GetPost(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.posts {
		if p.ID == id {
			return clonePost(p), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) LikePost(ctx context.Context, postID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.posts {
		if p.ID != postID {
			continue
		}
		for _, liker := range p.Likes {
			if liker == userID {
				return ErrConflict
			}
		}
		p.Likes = append(p.Likes, userID)
		return nil
	}
	return ErrNotFound
}
