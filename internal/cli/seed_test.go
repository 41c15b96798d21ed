package cli

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/store"
	"fitChallengeAPI/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
challenges:
  - title: Plank
    description: Hold it
    numDays: 3
    measurement: seconds
    goal: 60
  - title: Rest week
    description: Nothing scheduled
    numDays: 0
    measurement: minutes
    goal: 0
`

func newSeedService() *services.ChallengeService {
	clk := clock.Fake(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	return services.NewChallengeService(store.NewMemory(), clk, "fitchallenge://challenges/join/")
}

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Challenges, 2)

	assert.Equal(t, "Plank", seed.Challenges[0].Title)
	require.NotNil(t, seed.Challenges[1].NumDays)
	assert.Equal(t, 0, *seed.Challenges[1].NumDays)
	require.NotNil(t, seed.Challenges[1].Goal)
	assert.Equal(t, 0.0, *seed.Challenges[1].Goal)
}

func TestParseSeedEmpty(t *testing.T) {
	seed, err := ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, seed.Challenges)
}

func TestParseSeedRejectsUnknownFields(t *testing.T) {
	_, err := ParseSeed(strings.NewReader("challenges:\n  - title: x\n    reps: 10\n"))
	assert.Error(t, err)
}

func TestSeedSkipsExistingTitles(t *testing.T) {
	ctx := context.Background()
	svc := newSeedService()
	seed, err := ParseSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)

	created, err := Seed(ctx, svc, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = Seed(ctx, svc, seed)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	all, err := svc.ListChallenges(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeedStopsAtInvalidEntry(t *testing.T) {
	svc := newSeedService()
	seed, err := ParseSeed(strings.NewReader(`
challenges:
  - title: Good
    description: fine
    numDays: 1
    measurement: meters
    goal: 1
  - title: Bad
    description: unknown unit
    numDays: 1
    measurement: furlongs
    goal: 1
`))
	require.NoError(t, err)

	created, err := Seed(context.Background(), svc, seed)
	assert.Equal(t, 1, created)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `challenge 2 ("Bad")`)
}

func TestBundledSeedFileParses(t *testing.T) {
	f, err := os.Open("../../seeds/challenges.yaml")
	require.NoError(t, err)
	defer f.Close()

	seed, err := ParseSeed(f)
	require.NoError(t, err)

	created, err := Seed(context.Background(), newSeedService(), seed)
	require.NoError(t, err)
	assert.Equal(t, len(seed.Challenges), created)
}
