package services

import (
	"context"
	"log"
	"time"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/config"
	"fitChallengeAPI/internal/store"
	"fitChallengeAPI/internal/types/challenge"

	"github.com/google/uuid"
)

// EnrollPath says which write an enrollment ended up doing.
type EnrollPath string

const (
	EnrollOverwrite EnrollPath = "overwrite"
	EnrollInsert    EnrollPath = "insert"
)

type Enrollment struct {
	Ledger *challenge.UserChallenge
	Path   EnrollPath
}

type EnrollmentService struct {
	challenges store.ChallengeStore
	ledgers    store.LedgerStore
	users      store.UserStore
	clock      clock.Clock
	policy     config.DuplicatePolicy
}

func NewEnrollmentService(st store.Store, clk clock.Clock, policy config.DuplicatePolicy) *EnrollmentService {
	return &EnrollmentService{
		challenges: st,
		ledgers:    st,
		users:      st,
		clock:      clk,
		policy:     policy,
	}
}

func (s *EnrollmentService) Policy() config.DuplicatePolicy {
	return s.policy
}

// Enroll creates or resets the user's ledger for a challenge. The ledger
// covers NumDays consecutive dates starting today, all zero.
//
// With overwrite the days of any existing ledger are replaced, or a new
// one is created. Without it the duplicate policy decides: reject fails
// with ErrConflict when a ledger exists, upsert behaves like overwrite,
// and allow-multiple inserts another ledger unconditionally.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, challengeID uuid.UUID, overwrite bool) (*Enrollment, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, translate(err, "User")
	}

	c, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, translate(err, "Challenge")
	}
	if c.NumDays > challenge.MaxNumDays {
		return nil, invalid("numDays must be at most %d", challenge.MaxNumDays)
	}

	now := s.clock.Now()
	ledger := &challenge.UserChallenge{
		ID:          uuid.New(),
		UserID:      userID,
		ChallengeID: c.ID,
		Days:        challenge.NewDays(now, c.NumDays),
		JoinedAt:    now.UTC().Truncate(time.Microsecond),
		UpdatedAt:   now.UTC().Truncate(time.Microsecond),
	}

	if overwrite || s.policy == config.DuplicateUpsert {
		stored, err := s.ledgers.UpsertLedgerDays(ctx, ledger)
		if err != nil {
			return nil, err
		}
		challengeEnrollments.WithLabelValues(string(EnrollOverwrite)).Inc()
		log.Printf("Enroll: user %s reset ledger for challenge %s (%d days)", userID, c.ID, c.NumDays)
		return &Enrollment{Ledger: stored, Path: EnrollOverwrite}, nil
	}

	switch s.policy {
	case config.DuplicateAllowMultiple:
		err = s.ledgers.InsertLedger(ctx, ledger)
	default:
		err = s.ledgers.InsertLedgerIfAbsent(ctx, ledger)
	}
	if err != nil {
		return nil, translate(err, "Enrollment")
	}

	challengeEnrollments.WithLabelValues(string(EnrollInsert)).Inc()
	log.Printf("Enroll: user %s joined challenge %s (%d days)", userID, c.ID, c.NumDays)
	return &Enrollment{Ledger: ledger, Path: EnrollInsert}, nil
}
