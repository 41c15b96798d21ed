package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/store"
	"fitChallengeAPI/internal/types/challenge"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

type ChallengeService struct {
	challenges       store.ChallengeStore
	clock            clock.Clock
	inviteLinkPrefix string
}

func NewChallengeService(challenges store.ChallengeStore, clk clock.Clock, inviteLinkPrefix string) *ChallengeService {
	return &ChallengeService{
		challenges:       challenges,
		clock:            clk,
		inviteLinkPrefix: inviteLinkPrefix,
	}
}

// CreateChallenge accepts 0 for numDays and goal; only omitted fields are
// rejected.
func (s *ChallengeService) CreateChallenge(ctx context.Context, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	measurement := challenge.Measurement(strings.ToLower(strings.TrimSpace(req.Measurement)))

	if title == "" || description == "" || req.NumDays == nil || measurement == "" || req.Goal == nil {
		return nil, invalid("All fields are required")
	}
	if !measurement.Valid() {
		return nil, invalid("measurement must be one of seconds, minutes, meters, kilometers")
	}
	if *req.NumDays < 0 {
		return nil, invalid("numDays must not be negative")
	}
	if *req.NumDays > challenge.MaxNumDays {
		return nil, invalid("numDays must be at most %d", challenge.MaxNumDays)
	}
	if *req.Goal < 0 {
		return nil, invalid("goal must not be negative")
	}

	c := &challenge.Challenge{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		NumDays:     *req.NumDays,
		Measurement: measurement,
		Goal:        *req.Goal,
		CreatedAt:   s.clock.Now().UTC().Truncate(time.Microsecond),
	}

	if err := s.challenges.CreateChallenge(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChallengeService) ListChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	challenges, err := s.challenges.ListChallenges(ctx)
	if err != nil {
		return nil, err
	}
	if challenges == nil {
		challenges = []*challenge.Challenge{}
	}
	return challenges, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	c, err := s.challenges.GetChallenge(ctx, id)
	if err != nil {
		return nil, translate(err, "Challenge")
	}
	return c, nil
}

func (s *ChallengeService) ListChallengesForUser(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	return s.challenges.ListChallengesForUser(ctx, userID)
}

// ChallengeInvite renders a QR code pointing at the join deep link.
func (s *ChallengeService) ChallengeInvite(ctx context.Context, id uuid.UUID) (*challenge.InviteResponse, error) {
	c, err := s.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}

	deepLink := s.inviteLinkPrefix + c.ID.String()

	pngBytes, err := qrcode.Encode(deepLink, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}

	return &challenge.InviteResponse{
		ChallengeID:  c.ID.String(),
		DeepLink:     deepLink,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
	}, nil
}
