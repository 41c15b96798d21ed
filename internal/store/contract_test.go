package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/internal/types/challenge"
	"fitChallengeAPI/internal/types/post"
	"fitChallengeAPI/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behavior both backends must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("challenges", func(t *testing.T) { testChallenges(t, newStore(t)) })
	t.Run("ledger insert policies", func(t *testing.T) { testLedgerInsert(t, newStore(t)) })
	t.Run("ledger tie order", func(t *testing.T) { testLedgerTieOrder(t, newStore(t)) })
	t.Run("ledger upsert", func(t *testing.T) { testLedgerUpsert(t, newStore(t)) })
	t.Run("set day", func(t *testing.T) { testSetDay(t, newStore(t)) })
	t.Run("concurrent set day", func(t *testing.T) { testConcurrentSetDay(t, newStore(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("posts", func(t *testing.T) { testPosts(t, newStore(t)) })
}

var contractNow = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func mustUser(t *testing.T, st Store) *user.User {
	t.Helper()
	u := &user.User{
		ID:        uuid.New(),
		FirstName: "Store",
		LastName:  "Tester",
		Email:     "store-" + uuid.NewString() + "@example.com",
		Avatar:    user.DefaultAvatar,
		CreatedAt: contractNow,
		UpdatedAt: contractNow,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func mustChallenge(t *testing.T, st Store, numDays int) *challenge.Challenge {
	t.Helper()
	c := &challenge.Challenge{
		ID:          uuid.New(),
		Title:       "Contract " + uuid.NewString()[:8],
		Description: "store contract",
		NumDays:     numDays,
		Measurement: challenge.MeasurementKilometers,
		Goal:        5,
		CreatedAt:   contractNow,
	}
	require.NoError(t, st.CreateChallenge(context.Background(), c))
	return c
}

func newLedger(userID, challengeID uuid.UUID, joinedAt time.Time, numDays int) *challenge.UserChallenge {
	return &challenge.UserChallenge{
		ID:          uuid.New(),
		UserID:      userID,
		ChallengeID: challengeID,
		Days:        challenge.NewDays(joinedAt, numDays),
		JoinedAt:    joinedAt,
		UpdatedAt:   joinedAt,
	}
}

func testChallenges(t *testing.T, st Store) {
	ctx := context.Background()
	c := mustChallenge(t, st, 3)

	got, err := st.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, got.Title)
	assert.Equal(t, 3, got.NumDays)
	assert.Equal(t, challenge.MeasurementKilometers, got.Measurement)

	_, err = st.GetChallenge(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := st.ListChallenges(ctx)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(list))
	for _, l := range list {
		ids = append(ids, l.ID)
	}
	assert.Contains(t, ids, c.ID)

	u := mustUser(t, st)
	joined, err := st.ListChallengesForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, joined)

	require.NoError(t, st.InsertLedger(ctx, newLedger(u.ID, c.ID, contractNow, 3)))
	require.NoError(t, st.InsertLedger(ctx, newLedger(u.ID, c.ID, contractNow.Add(time.Hour), 3)))
	joined, err = st.ListChallengesForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, c.ID, joined[0].ID)
}

func testLedgerInsert(t *testing.T, st Store) {
	ctx := context.Background()
	u := mustUser(t, st)
	c := mustChallenge(t, st, 2)

	first := newLedger(u.ID, c.ID, contractNow, 2)
	require.NoError(t, st.InsertLedgerIfAbsent(ctx, first))
	assert.ErrorIs(t, st.InsertLedgerIfAbsent(ctx, newLedger(u.ID, c.ID, contractNow, 2)), ErrConflict)

	require.NoError(t, st.InsertLedger(ctx, newLedger(u.ID, c.ID, contractNow.Add(time.Hour), 5)))
	count, err := st.CountLedgers(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Reads use the earliest ledger.
	got, err := st.GetLedger(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Len(t, got.Days, 2)

	_, err = st.GetLedger(ctx, u.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func testLedgerTieOrder(t *testing.T, st Store) {
	ctx := context.Background()
	u := mustUser(t, st)
	c := mustChallenge(t, st, 2)

	// Same joined_at, and the first ledger's id sorts after the second's.
	first := newLedger(u.ID, c.ID, contractNow, 2)
	first.ID[0] = 0xff
	second := newLedger(u.ID, c.ID, contractNow, 2)
	second.ID[0] = 0x00
	require.NoError(t, st.InsertLedger(ctx, first))
	require.NoError(t, st.InsertLedger(ctx, second))

	got, err := st.GetLedger(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	require.NoError(t, st.SetDay(ctx, u.ID, c.ID, "2026-03-11", 4, true))
	got, err = st.GetLedger(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 4.0, got.Days["2026-03-11"])

	// An earlier joined_at wins regardless of insertion order.
	older := newLedger(u.ID, c.ID, contractNow.Add(-time.Hour), 2)
	require.NoError(t, st.InsertLedger(ctx, older))
	got, err = st.GetLedger(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)
}

func testLedgerUpsert(t *testing.T, st Store) {
	ctx := context.Background()
	u := mustUser(t, st)
	c := mustChallenge(t, st, 2)

	created, err := st.UpsertLedgerDays(ctx, newLedger(u.ID, c.ID, contractNow, 2))
	require.NoError(t, err)
	require.NoError(t, st.SetDay(ctx, u.ID, c.ID, "2026-03-10", 7, true))

	reset := newLedger(u.ID, c.ID, contractNow.AddDate(0, 0, 5), 2)
	stored, err := st.UpsertLedgerDays(ctx, reset)
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
	assert.Equal(t, challenge.Days{"2026-03-15": 0, "2026-03-16": 0}, stored.Days)

	count, err := st.CountLedgers(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testSetDay(t *testing.T, st Store) {
	ctx := context.Background()
	u := mustUser(t, st)
	c := mustChallenge(t, st, 3)
	require.NoError(t, st.InsertLedger(ctx, newLedger(u.ID, c.ID, contractNow, 3)))

	require.NoError(t, st.SetDay(ctx, u.ID, c.ID, "2026-03-11", 2.5, true))
	assert.ErrorIs(t, st.SetDay(ctx, u.ID, c.ID, "2026-04-01", 1, true), ErrNotFound)
	require.NoError(t, st.SetDay(ctx, u.ID, c.ID, "2026-04-01", 1, false))
	assert.ErrorIs(t, st.SetDay(ctx, uuid.New(), c.ID, "2026-03-11", 1, false), ErrNotFound)

	got, err := st.GetLedger(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.Days{
		"2026-03-10": 0,
		"2026-03-11": 2.5,
		"2026-03-12": 0,
		"2026-04-01": 1,
	}, got.Days)
}

func testConcurrentSetDay(t *testing.T, st Store) {
	ctx := context.Background()
	u := mustUser(t, st)
	c := mustChallenge(t, st, 10)
	l := newLedger(u.ID, c.ID, contractNow, 10)
	require.NoError(t, st.InsertLedger(ctx, l))

	var wg sync.WaitGroup
	for i, date := range []string{"2026-03-10", "2026-03-12", "2026-03-14", "2026-03-16", "2026-03-18"} {
		wg.Add(1)
		go func(date string, value float64) {
			defer wg.Done()
			assert.NoError(t, st.SetDay(ctx, u.ID, c.ID, date, value, true))
		}(date, float64(i+1))
	}
	wg.Wait()

	got, err := st.GetLedger(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Days["2026-03-10"])
	assert.Equal(t, 3.0, got.Days["2026-03-14"])
	assert.Equal(t, 5.0, got.Days["2026-03-18"])
	assert.Equal(t, 0.0, got.Days["2026-03-11"])
}

func testUsers(t *testing.T, st Store) {
	ctx := context.Background()
	u := mustUser(t, st)

	dup := *u
	dup.ID = uuid.New()
	assert.ErrorIs(t, st.CreateUser(ctx, &dup), ErrConflict)

	byEmail, err := st.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = st.GetUserByEmail(ctx, "nobody-"+uuid.NewString()+"@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	clerkID := "user_" + uuid.NewString()
	linked := &user.User{
		ID: uuid.New(), ClerkID: &clerkID, FirstName: "C", LastName: "L",
		Email: "clerk-" + uuid.NewString() + "@example.com", Avatar: user.DefaultAvatar,
		CreatedAt: contractNow, UpdatedAt: contractNow,
	}
	require.NoError(t, st.CreateUser(ctx, linked))
	byClerk, err := st.GetUserByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, linked.ID, byClerk.ID)

	assert.ErrorIs(t, st.LinkClerkID(ctx, u.ID, clerkID), ErrConflict)
	assert.ErrorIs(t, st.LinkClerkID(ctx, uuid.New(), "user_"+uuid.NewString()), ErrNotFound)
	ownClerkID := "user_" + uuid.NewString()
	require.NoError(t, st.LinkClerkID(ctx, u.ID, ownClerkID))
	byClerk, err = st.GetUserByClerkID(ctx, ownClerkID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byClerk.ID)

	require.NoError(t, st.UpdateAvatar(ctx, u.ID, "avatar-2.png"))
	assert.ErrorIs(t, st.UpdateAvatar(ctx, uuid.New(), "x.png"), ErrNotFound)

	updated, err := st.UpdateBody(ctx, u.ID, 40, 82.5, 181)
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Age)
	assert.Equal(t, 82.5, updated.Weight)
	assert.Equal(t, "avatar-2.png", updated.Avatar)

	require.NoError(t, st.AddDeviceToken(ctx, &notification.DeviceToken{UserID: u.ID, Token: "t1", Platform: "ios", CreatedAt: contractNow}))
	require.NoError(t, st.AddDeviceToken(ctx, &notification.DeviceToken{UserID: u.ID, Token: "t1", Platform: "android", CreatedAt: contractNow}))
	tokens, err := st.ListDeviceTokens(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "android", tokens[0].Platform)
}

func testPosts(t *testing.T, st Store) {
	ctx := context.Background()
	author := mustUser(t, st)
	fan := mustUser(t, st)

	older := &post.Post{ID: uuid.New(), UserID: author.ID, Author: "Store Tester", Text: "older", Date: contractNow, Likes: []uuid.UUID{}}
	newer := &post.Post{ID: uuid.New(), UserID: author.ID, Author: "Store Tester", Text: "newer", Date: contractNow.Add(time.Minute), Likes: []uuid.UUID{}}
	require.NoError(t, st.CreatePost(ctx, older))
	require.NoError(t, st.CreatePost(ctx, newer))

	list, err := st.ListPosts(ctx)
	require.NoError(t, err)
	pos := map[uuid.UUID]int{}
	for i, p := range list {
		pos[p.ID] = i
	}
	assert.Less(t, pos[newer.ID], pos[older.ID])

	require.NoError(t, st.LikePost(ctx, older.ID, fan.ID))
	assert.ErrorIs(t, st.LikePost(ctx, older.ID, fan.ID), ErrConflict)
	assert.ErrorIs(t, st.LikePost(ctx, uuid.New(), fan.ID), ErrNotFound)

	got, err := st.GetPost(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{fan.ID}, got.Likes)
	assert.Equal(t, "older", got.Text)
}
