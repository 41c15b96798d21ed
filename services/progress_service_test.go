package services

import (
	"context"
	"testing"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/config"
	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/internal/store"
	"fitChallengeAPI/internal/types/challenge"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressFixture struct {
	st        *store.Memory
	userID    uuid.UUID
	challenge *challenge.Challenge
}

func newProgressFixture(t *testing.T, numDays int, goal float64) *progressFixture {
	t.Helper()
	st := store.NewMemory()
	u := newTestUser(t, st)
	c := newTestChallenge(t, st, numDays, goal)

	_, err := NewEnrollmentService(st, clock.Fake(testNow), config.DuplicateReject).
		Enroll(context.Background(), u.ID, c.ID, true)
	require.NoError(t, err)

	return &progressFixture{st: st, userID: u.ID, challenge: c}
}

func (f *progressFixture) update(date string, value *float64) *challenge.UpdateDayRequest {
	return &challenge.UpdateDayRequest{
		UserID:      f.userID.String(),
		ChallengeID: f.challenge.ID.String(),
		Date:        date,
		Value:       value,
	}
}

func (f *progressFixture) days(t *testing.T) challenge.Days {
	t.Helper()
	l, err := f.st.GetLedger(context.Background(), f.userID, f.challenge.ID)
	require.NoError(t, err)
	return l.Days
}

func TestUpdateDayChangesOnlyThatDate(t *testing.T) {
	f := newProgressFixture(t, 3, 10)
	svc := NewProgressService(f.st, clock.Fake(testNow), true)

	require.NoError(t, svc.UpdateDay(context.Background(), f.update("2026-03-11", floatPtr(15))))

	assert.Equal(t, challenge.Days{"2026-03-10": 0, "2026-03-11": 15, "2026-03-12": 0}, f.days(t))
}

func TestUpdateDayAcceptsZeroAndRepeatedValues(t *testing.T) {
	ctx := context.Background()
	f := newProgressFixture(t, 2, 10)
	svc := NewProgressService(f.st, clock.Fake(testNow), true)

	require.NoError(t, svc.UpdateDay(ctx, f.update("2026-03-10", floatPtr(4))))
	require.NoError(t, svc.UpdateDay(ctx, f.update("2026-03-10", floatPtr(4))))
	assert.Equal(t, 4.0, f.days(t)["2026-03-10"])

	require.NoError(t, svc.UpdateDay(ctx, f.update("2026-03-10", floatPtr(0))))
	assert.Equal(t, 0.0, f.days(t)["2026-03-10"])
}

func TestUpdateDayValidation(t *testing.T) {
	f := newProgressFixture(t, 2, 10)
	svc := NewProgressService(f.st, clock.Fake(testNow), true)

	tests := []struct {
		name    string
		req     *challenge.UpdateDayRequest
		message string
	}{
		{name: "missing value", req: f.update("2026-03-10", nil), message: "Missing userId, challengeId, date, or value"},
		{name: "missing date", req: f.update("", floatPtr(1)), message: "Missing userId, challengeId, date, or value"},
		{name: "missing user", req: &challenge.UpdateDayRequest{ChallengeID: f.challenge.ID.String(), Date: "2026-03-10", Value: floatPtr(1)}, message: "Missing userId, challengeId, date, or value"},
		{name: "bad date", req: f.update("10/03/2026", floatPtr(1)), message: "date must be formatted YYYY-MM-DD"},
		{name: "negative", req: f.update("2026-03-10", floatPtr(-1)), message: "value must not be negative"},
		{name: "bad id", req: &challenge.UpdateDayRequest{UserID: "nope", ChallengeID: f.challenge.ID.String(), Date: "2026-03-10", Value: floatPtr(1)}, message: "Invalid userId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateDay(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrValidation)
			assert.EqualError(t, err, tt.message)
		})
	}

	assert.Equal(t, challenge.Days{"2026-03-10": 0, "2026-03-11": 0}, f.days(t))
}

func TestUpdateDayUnknownDate(t *testing.T) {
	t.Run("strict rejects", func(t *testing.T) {
		f := newProgressFixture(t, 2, 10)
		svc := NewProgressService(f.st, clock.Fake(testNow), true)

		err := svc.UpdateDay(context.Background(), f.update("2027-01-01", floatPtr(3)))
		require.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "Challenge or date not found")
		assert.Len(t, f.days(t), 2)
	})

	t.Run("lax adds the key", func(t *testing.T) {
		f := newProgressFixture(t, 2, 10)
		svc := NewProgressService(f.st, clock.Fake(testNow), false)

		require.NoError(t, svc.UpdateDay(context.Background(), f.update("2027-01-01", floatPtr(3))))
		days := f.days(t)
		assert.Len(t, days, 3)
		assert.Equal(t, 3.0, days["2027-01-01"])
	})
}

func TestUpdateDayWithoutLedger(t *testing.T) {
	st := store.NewMemory()
	svc := NewProgressService(st, clock.Fake(testNow), false)

	err := svc.UpdateDay(context.Background(), &challenge.UpdateDayRequest{
		UserID:      uuid.NewString(),
		ChallengeID: uuid.NewString(),
		Date:        "2026-03-10",
		Value:       floatPtr(1),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDayNotifiesWhenGoalReached(t *testing.T) {
	ctx := context.Background()
	f := newProgressFixture(t, 3, 10)
	svc := NewProgressService(f.st, clock.Fake(testNow), true)
	rec := &recordingNotifier{}
	svc.SetNotifier(rec)

	require.NoError(t, svc.UpdateDay(ctx, f.update("2026-03-10", floatPtr(9.5))))
	assert.Empty(t, rec.all())

	require.NoError(t, svc.UpdateDay(ctx, f.update("2026-03-11", floatPtr(10))))
	sent := rec.all()
	require.Len(t, sent, 1)
	assert.Equal(t, f.userID, sent[0].UserID)
	assert.Equal(t, notification.NotificationGoalReached, sent[0].Notification.Type)
	assert.Equal(t, "2026-03-11", sent[0].Notification.Data["date"])
	assert.Equal(t, testNow, sent[0].Notification.CreatedAt)
}

func TestUpdateDayNoNotificationForZeroGoal(t *testing.T) {
	f := newProgressFixture(t, 1, 0)
	svc := NewProgressService(f.st, clock.Fake(testNow), true)
	rec := &recordingNotifier{}
	svc.SetNotifier(rec)

	require.NoError(t, svc.UpdateDay(context.Background(), f.update("2026-03-10", floatPtr(5))))
	assert.Empty(t, rec.all())
}

func TestGetLedger(t *testing.T) {
	ctx := context.Background()
	f := newProgressFixture(t, 2, 10)
	svc := NewProgressService(f.st, clock.Fake(testNow), true)

	l, err := svc.GetLedger(ctx, &challenge.LedgerRequest{UserID: f.userID.String(), ChallengeID: f.challenge.ID.String()})
	require.NoError(t, err)
	assert.Len(t, l.Days, 2)

	_, err = svc.GetLedger(ctx, &challenge.LedgerRequest{UserID: f.userID.String()})
	require.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Missing userId or challengeId")

	_, err = svc.GetLedger(ctx, &challenge.LedgerRequest{UserID: uuid.NewString(), ChallengeID: f.challenge.ID.String()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryAveragesLoggedDays(t *testing.T) {
	ctx := context.Background()
	f := newProgressFixture(t, 3, 10)
	svc := NewProgressService(f.st, clock.Fake(testNow), true)

	require.NoError(t, svc.UpdateDay(ctx, f.update("2026-03-10", floatPtr(15))))

	s, err := svc.Summary(ctx, f.userID, f.challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, s.Average)
	assert.Equal(t, 3, s.DaysTotal)
	assert.Equal(t, 1, s.DaysLogged)
	assert.Equal(t, 1, s.GoalHitDays)
	assert.Equal(t, []float64{10}, s.GoalSeries)

	_, err = svc.Summary(ctx, uuid.New(), f.challenge.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
