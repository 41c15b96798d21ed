package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math"
	"net/mail"
	"strings"
	"time"

	"fitChallengeAPI/internal/auth"
	"fitChallengeAPI/internal/clock"
	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/internal/store"
	"fitChallengeAPI/internal/types/challenge"
	"fitChallengeAPI/internal/user"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

var _ TokenIssuer = (*auth.Tokens)(nil)

type UserService struct {
	users      store.UserStore
	challenges store.ChallengeStore
	tokens     TokenIssuer
	clock      clock.Clock
}

func NewUserService(st store.Store, tokens TokenIssuer, clk clock.Clock) *UserService {
	return &UserService{
		users:      st,
		challenges: st,
		tokens:     tokens,
		clock:      clk,
	}
}

func (s *UserService) Signup(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" || email == "" || req.Password == "" {
		return nil, invalid("firstName, lastName, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("Invalid email")
	}
	if req.Age < 0 || req.Weight < 0 || req.Height < 0 {
		return nil, invalid("age, weight and height must not be negative")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	u := &user.User{
		ID:           uuid.New(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(hash),
		Age:          req.Age,
		Weight:       req.Weight,
		Height:       req.Height,
		Gender:       req.Gender,
		Avatar:       user.DefaultAvatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.ClerkID != "" {
		clerkID := req.ClerkID
		u.ClerkID = &clerkID
	}

	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("Email already exists: %w", ErrConflict)
		}
		return nil, err
	}

	log.Printf("Signup: created user %s", u.ID)
	return u, nil
}

// Login returns a signed token. Unknown emails and wrong passwords give
// the same error.
func (s *UserService) Login(ctx context.Context, req *user.LoginRequest) (string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return "", invalid("Email and password are required")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("Invalid credentials: %w", ErrUnauthorized)
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", fmt.Errorf("Invalid credentials: %w", ErrUnauthorized)
	}

	return s.tokens.Issue(u.ID)
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*user.ProfileResponse, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "User")
	}

	joined, err := s.challenges.ListChallengesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if joined == nil {
		joined = []*challenge.Challenge{}
	}

	return &user.ProfileResponse{
		ID:         u.ID.String(),
		Name:       u.DisplayName(),
		Email:      u.Email,
		Age:        u.Age,
		Height:     u.Height,
		Weight:     u.Weight,
		BMI:        BMI(u.Weight, u.Height),
		Avatar:     u.Avatar,
		Challenges: joined,
	}, nil
}

// BMI is weight in kg over height in metres squared, to 2 decimals.
func BMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*100) / 100
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, req *user.UpdateAvatarRequest) error {
	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" {
		return invalid("Avatar is required")
	}
	return translate(s.users.UpdateAvatar(ctx, userID, avatar), "User")
}

func (s *UserService) UpdateBody(ctx context.Context, userID uuid.UUID, req *user.UpdateBodyRequest) (*user.ProfileResponse, error) {
	if req.Age == nil || req.Weight == nil || req.Height == nil {
		return nil, invalid("Age, weight, and height are required")
	}
	if *req.Age < 0 || *req.Weight < 0 || *req.Height < 0 {
		return nil, invalid("age, weight and height must not be negative")
	}

	if _, err := s.users.UpdateBody(ctx, userID, *req.Age, *req.Weight, *req.Height); err != nil {
		return nil, translate(err, "User")
	}
	return s.Profile(ctx, userID)
}

func (s *UserService) RegisterDevice(ctx context.Context, userID uuid.UUID, req *notification.RegisterDeviceRequest) error {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return invalid("token is required")
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if !notification.ValidPlatform(platform) {
		return invalid("platform must be one of ios, android, web")
	}

	return s.users.AddDeviceToken(ctx, &notification.DeviceToken{
		UserID:    userID,
		Token:     token,
		Platform:  platform,
		CreatedAt: s.clock.Now().UTC(),
	})
}

// SyncClerkUser creates the local account for a Clerk identity, or refreshes
// the avatar of an existing one. The returned bool reports creation.
// Clerk-managed accounts get a random password and never log in locally.
func (s *UserService) SyncClerkUser(ctx context.Context, data *user.ClerkUserData) (*user.User, bool, error) {
	if data.ID == "" {
		return nil, false, invalid("clerk user id is required")
	}

	existing, err := s.users.GetUserByClerkID(ctx, data.ID)
	if err == nil {
		if data.ImageURL != "" && data.ImageURL != existing.Avatar {
			if err := s.users.UpdateAvatar(ctx, existing.ID, data.ImageURL); err != nil {
				return nil, false, translate(err, "User")
			}
			existing.Avatar = data.ImageURL
		}
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, false, fmt.Errorf("failed to generate password: %w", err)
	}

	firstName, lastName := data.FirstName, data.LastName
	email := data.PrimaryEmail()
	if firstName == "" {
		firstName, _, _ = strings.Cut(email, "@")
	}
	if lastName == "" {
		lastName = "-"
	}

	u, err := s.Signup(ctx, &user.CreateUserRequest{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  hex.EncodeToString(secret),
		ClerkID:   data.ID,
	})
	if errors.Is(err, ErrConflict) {
		u, err := s.linkClerkAccount(ctx, email, data)
		return u, false, err
	}
	if err != nil {
		return nil, false, err
	}

	if data.ImageURL != "" {
		if err := s.users.UpdateAvatar(ctx, u.ID, data.ImageURL); err != nil {
			return nil, false, translate(err, "User")
		}
		u.Avatar = data.ImageURL
	}
	return u, true, nil
}

// linkClerkAccount handles a Clerk user whose email already belongs to a
// local account. An unlinked account takes the Clerk ID. An account linked
// to a different Clerk user is left alone so the webhook is still
// acknowledged.
func (s *UserService) linkClerkAccount(ctx context.Context, email string, data *user.ClerkUserData) (*user.User, error) {
	existing, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		// Lost a race with a delivery for the same Clerk user.
		existing, err = s.users.GetUserByClerkID(ctx, data.ID)
	}
	if err != nil {
		return nil, translate(err, "User")
	}

	switch {
	case existing.ClerkID == nil:
		if err := s.users.LinkClerkID(ctx, existing.ID, data.ID); err != nil {
			return nil, translate(err, "User")
		}
		existing.ClerkID = &data.ID
		log.Printf("SyncClerkUser: linked Clerk ID %s to user %s", data.ID, existing.ID)
	case *existing.ClerkID != data.ID:
		log.Printf("SyncClerkUser: email for Clerk ID %s belongs to user %s linked to %s, skipping",
			data.ID, existing.ID, *existing.ClerkID)
		return existing, nil
	}

	if data.ImageURL != "" && data.ImageURL != existing.Avatar {
		if err := s.users.UpdateAvatar(ctx, existing.ID, data.ImageURL); err != nil {
			return nil, translate(err, "User")
		}
		existing.Avatar = data.ImageURL
	}
	return existing, nil
}
