package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/internal/progress"
	"fitChallengeAPI/internal/store"
	"fitChallengeAPI/internal/types/challenge"

	"github.com/google/uuid"
)

// Notifier queues a push for a user. Implementations must not block on
// delivery.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, n *notification.Notification)
}

type ProgressService struct {
	challenges store.ChallengeStore
	ledgers    store.LedgerStore
	clock      clock.Clock
	strictDays bool
	notifier   Notifier
}

func NewProgressService(st store.Store, clk clock.Clock, strictDays bool) *ProgressService {
	return &ProgressService{
		challenges: st,
		ledgers:    st,
		clock:      clk,
		strictDays: strictDays,
	}
}

func (s *ProgressService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *ProgressService) StrictDays() bool {
	return s.strictDays
}

func parseIDs(userID, challengeID string) (uuid.UUID, uuid.UUID, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, invalid("Invalid userId")
	}
	cid, err := uuid.Parse(challengeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, invalid("Invalid challengeId")
	}
	return uid, cid, nil
}

func (s *ProgressService) GetLedger(ctx context.Context, req *challenge.LedgerRequest) (*challenge.UserChallenge, error) {
	if req.UserID == "" || req.ChallengeID == "" {
		return nil, invalid("Missing userId or challengeId")
	}
	userID, challengeID, err := parseIDs(req.UserID, req.ChallengeID)
	if err != nil {
		return nil, err
	}

	ledger, err := s.ledgers.GetLedger(ctx, userID, challengeID)
	if err != nil {
		return nil, translate(err, "Challenge")
	}
	return ledger, nil
}

// UpdateDay sets one date of the ledger. It accepts 0 and values equal to
// the current one. In strict mode the date must already be a ledger key;
// otherwise a new key is written.
func (s *ProgressService) UpdateDay(ctx context.Context, req *challenge.UpdateDayRequest) error {
	if req.UserID == "" || req.ChallengeID == "" || req.Date == "" || req.Value == nil {
		return invalid("Missing userId, challengeId, date, or value")
	}
	userID, challengeID, err := parseIDs(req.UserID, req.ChallengeID)
	if err != nil {
		return err
	}
	if _, err := time.Parse(challenge.DateLayout, req.Date); err != nil {
		return invalid("date must be formatted YYYY-MM-DD")
	}
	value := *req.Value
	if value < 0 {
		return invalid("value must not be negative")
	}

	err = s.ledgers.SetDay(ctx, userID, challengeID, req.Date, value, s.strictDays)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			progressUpdates.WithLabelValues("not_found").Inc()
			return notFound("Challenge or date")
		}
		progressUpdates.WithLabelValues("error").Inc()
		return err
	}
	progressUpdates.WithLabelValues("ok").Inc()

	s.notifyGoalReached(ctx, userID, challengeID, req.Date, value)
	return nil
}

func (s *ProgressService) notifyGoalReached(ctx context.Context, userID, challengeID uuid.UUID, date string, value float64) {
	if s.notifier == nil || value <= 0 {
		return
	}

	c, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		log.Printf("UpdateDay: could not load challenge %s for goal check: %v", challengeID, err)
		return
	}
	if c.Goal <= 0 || value < c.Goal {
		return
	}

	s.notifier.Notify(ctx, userID, &notification.Notification{
		ID:     uuid.New(),
		UserID: userID,
		Type:   notification.NotificationGoalReached,
		Title:  "Daily goal reached",
		Body:   fmt.Sprintf("%s: %s %s logged for %s", c.Title, strconv.FormatFloat(value, 'f', -1, 64), c.Measurement, date),
		Data: map[string]string{
			"challengeId": challengeID.String(),
			"date":        date,
		},
		CreatedAt: s.clock.Now().UTC(),
	})
}

// Summary loads the challenge and the caller's ledger and derives the
// timeline, average and goal series.
func (s *ProgressService) Summary(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.Summary, error) {
	c, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, translate(err, "Challenge")
	}

	ledger, err := s.ledgers.GetLedger(ctx, userID, challengeID)
	if err != nil {
		return nil, translate(err, "Enrollment")
	}

	return progress.Summarize(c, ledger), nil
}
