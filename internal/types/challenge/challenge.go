package challenge

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the key format of every ledger day.
const DateLayout = "2006-01-02"

// MaxNumDays caps a challenge at one leap year of ledger entries.
const MaxNumDays = 366

type Measurement string

const (
	MeasurementSeconds    Measurement = "seconds"
	MeasurementMinutes    Measurement = "minutes"
	MeasurementMeters     Measurement = "meters"
	MeasurementKilometers Measurement = "kilometers"
)

func (m Measurement) Valid() bool {
	switch m {
	case MeasurementSeconds, MeasurementMinutes, MeasurementMeters, MeasurementKilometers:
		return true
	}
	return false
}

type Challenge struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	NumDays     int         `json:"numDays" db:"num_days"`
	Measurement Measurement `json:"measurement" db:"measurement"`
	Goal        float64     `json:"goal" db:"goal"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
}

// Days maps an ISO calendar date to the value logged for it. Keys sort
// chronologically because the layout is fixed-width.
type Days map[string]float64

type DayEntry struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// NewDays returns numDays consecutive zeroed dates starting at start's
// calendar day in UTC.
func NewDays(start time.Time, numDays int) Days {
	start = start.UTC()
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	days := make(Days, numDays)
	for i := 0; i < numDays; i++ {
		days[first.AddDate(0, 0, i).Format(DateLayout)] = 0
	}
	return days
}

func (d Days) Has(date string) bool {
	_, ok := d[date]
	return ok
}

// Sorted returns the entries ascending by date.
func (d Days) Sorted() []DayEntry {
	entries := make([]DayEntry, 0, len(d))
	for date, value := range d {
		entries = append(entries, DayEntry{Date: date, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date < entries[j].Date
	})
	return entries
}

func (d Days) Clone() Days {
	out := make(Days, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// UserChallenge is one user's progress ledger for one challenge.
type UserChallenge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"userId" db:"user_id"`
	ChallengeID uuid.UUID `json:"challengeId" db:"challenge_id"`
	Days        Days      `json:"days" db:"days"`
	JoinedAt    time.Time `json:"joinedAt" db:"joined_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type Summary struct {
	Challenge   *Challenge `json:"challenge"`
	Entries     []DayEntry `json:"entries"`
	Logged      []DayEntry `json:"logged"`
	Average     float64    `json:"average"`
	GoalSeries  []float64  `json:"goalSeries"`
	DaysLogged  int        `json:"daysLogged"`
	DaysTotal   int        `json:"daysTotal"`
	GoalHitDays int        `json:"goalHitDays"`
}
