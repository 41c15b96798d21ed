package services

import (
	"context"
	"encoding/base64"
	"testing"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/store"
	"fitChallengeAPI/internal/types/challenge"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChallengeAcceptsZeroes(t *testing.T) {
	svc := NewChallengeService(store.NewMemory(), clock.Fake(testNow), "x://")

	c, err := svc.CreateChallenge(context.Background(), &challenge.CreateChallengeRequest{
		Title:       "Rest",
		Description: "Nothing at all",
		NumDays:     intPtr(0),
		Measurement: "Minutes",
		Goal:        floatPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, c.NumDays)
	assert.Equal(t, challenge.MeasurementMinutes, c.Measurement)
	assert.NotEqual(t, uuid.Nil, c.ID)
}

func TestCreateChallengeValidation(t *testing.T) {
	valid := func() *challenge.CreateChallengeRequest {
		return &challenge.CreateChallengeRequest{
			Title:       "Plank",
			Description: "Hold it",
			NumDays:     intPtr(7),
			Measurement: "seconds",
			Goal:        floatPtr(60),
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *challenge.CreateChallengeRequest)
		message string
	}{
		{"missing title", func(r *challenge.CreateChallengeRequest) { r.Title = "" }, "All fields are required"},
		{"missing numDays", func(r *challenge.CreateChallengeRequest) { r.NumDays = nil }, "All fields are required"},
		{"missing goal", func(r *challenge.CreateChallengeRequest) { r.Goal = nil }, "All fields are required"},
		{"unknown unit", func(r *challenge.CreateChallengeRequest) { r.Measurement = "miles" }, "measurement must be one of seconds, minutes, meters, kilometers"},
		{"negative days", func(r *challenge.CreateChallengeRequest) { r.NumDays = intPtr(-1) }, "numDays must not be negative"},
		{"too many days", func(r *challenge.CreateChallengeRequest) { r.NumDays = intPtr(challenge.MaxNumDays + 1) }, "numDays must be at most 366"},
		{"huge days", func(r *challenge.CreateChallengeRequest) { r.NumDays = intPtr(2_000_000_000) }, "numDays must be at most 366"},
		{"negative goal", func(r *challenge.CreateChallengeRequest) { r.Goal = floatPtr(-5) }, "goal must not be negative"},
	}

	svc := NewChallengeService(store.NewMemory(), clock.Fake(testNow), "x://")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := svc.CreateChallenge(context.Background(), req)
			require.ErrorIs(t, err, ErrValidation)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestListChallengesInCreationOrder(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewChallengeService(st, clock.Fake(testNow), "x://")

	empty, err := svc.ListChallenges(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)

	a := newTestChallenge(t, st, 1, 1)
	b := newTestChallenge(t, st, 2, 2)

	list, err := svc.ListChallenges(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestChallengeInvite(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewChallengeService(st, clock.Fake(testNow), "fitchallenge://challenges/join/")
	c := newTestChallenge(t, st, 3, 10)

	invite, err := svc.ChallengeInvite(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "fitchallenge://challenges/join/"+c.ID.String(), invite.DeepLink)

	png, err := base64.StdEncoding.DecodeString(invite.QrCodeBase64)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	_, err = svc.ChallengeInvite(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
