package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/internal/store"
	"fitChallengeAPI/internal/types/challenge"
	"fitChallengeAPI/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func newTestUser(t *testing.T, st store.Store) *user.User {
	t.Helper()
	u := &user.User{
		ID:        uuid.New(),
		FirstName: "Test",
		LastName:  "Runner",
		Email:     "test-" + uuid.NewString() + "@example.com",
		Avatar:    user.DefaultAvatar,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func newTestChallenge(t *testing.T, st store.Store, numDays int, goal float64) *challenge.Challenge {
	t.Helper()
	svc := NewChallengeService(st, clock.Fake(testNow), "fitchallenge://challenges/join/")
	c, err := svc.CreateChallenge(context.Background(), &challenge.CreateChallengeRequest{
		Title:       "Distance",
		Description: "Run every day",
		NumDays:     intPtr(numDays),
		Measurement: "meters",
		Goal:        floatPtr(goal),
	})
	require.NoError(t, err)
	return c
}

type sentNotification struct {
	UserID       uuid.UUID
	Notification *notification.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, n *notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Notification: n})
}

func (r *recordingNotifier) all() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.sent...)
}
