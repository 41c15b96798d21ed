// Package progress derives read-only views over a challenge ledger.
package progress

import (
	"math"

	"fitChallengeAPI/internal/types/challenge"
)

// SortedEntries returns the ledger days ascending by date.
func SortedEntries(days challenge.Days) []challenge.DayEntry {
	return days.Sorted()
}

// LoggedEntries keeps entries whose value is above zero, preserving order.
func LoggedEntries(entries []challenge.DayEntry) []challenge.DayEntry {
	logged := make([]challenge.DayEntry, 0, len(entries))
	for _, e := range entries {
		if e.Value > 0 {
			logged = append(logged, e)
		}
	}
	return logged
}

// Average is the mean of the values rounded to two decimals, or 0 for no
// entries.
func Average(entries []challenge.DayEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Value
	}
	return round2(sum / float64(len(entries)))
}

// GoalReferenceSeries repeats goal once per entry so it can be drawn as a
// target line next to the logged values.
func GoalReferenceSeries(entries []challenge.DayEntry, goal float64) []float64 {
	series := make([]float64, len(entries))
	for i := range series {
		series[i] = goal
	}
	return series
}

func Summarize(c *challenge.Challenge, ledger *challenge.UserChallenge) *challenge.Summary {
	entries := SortedEntries(ledger.Days)
	logged := LoggedEntries(entries)

	hits := 0
	for _, e := range logged {
		if e.Value >= c.Goal {
			hits++
		}
	}

	return &challenge.Summary{
		Challenge:   c,
		Entries:     entries,
		Logged:      logged,
		Average:     Average(logged),
		GoalSeries:  GoalReferenceSeries(logged, c.Goal),
		DaysLogged:  len(logged),
		DaysTotal:   len(entries),
		GoalHitDays: hits,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
